/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vault

import (
	"sync"
	"testing"

	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/contract"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"
	mem "github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver/memory"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/events"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/events/simple"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/kvs"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lender   = view.Identity("lender")
	borrower = view.Identity("borrower")
	newLend  = view.Identity("new lender")
	notary   = view.Identity("notary")
)

type me []view.Identity

func (m me) IsMe(id view.Identity) bool {
	return view.Identities(m).Contains(id)
}

type collector struct {
	lock   sync.Mutex
	events []Committed
}

func (c *collector) OnReceive(event events.Event) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.events = append(c.events, event.Message().(Committed))
}

func newVault(t *testing.T, ids ...view.Identity) (*Vault, *collector) {
	store, err := kvs.New(mem.New(), "vault", 10)
	require.NoError(t, err)
	bus := simple.NewEventBus()
	c := &collector{}
	bus.Subscribe(CommittedTopic, c)
	return New(store, me(ids), bus), c
}

func signed(t *testing.T, tx contract.Transaction) *contract.SignedTransaction {
	stx, err := contract.NewSignedTransaction(tx)
	require.NoError(t, err)
	return stx
}

func TestLifecycle(t *testing.T) {
	v, c := newVault(t, borrower)

	iou := states.NewIOU(states.MustAmount("100", "USD"), lender, borrower)
	issue := signed(t, contract.NewTransaction(notary).WithOutput(iou).WithCommand(contract.Issue{}, lender, borrower))
	require.NoError(t, v.Store(issue))
	require.NoError(t, v.Store(issue))

	current, err := v.Query(iou.LinearID)
	require.NoError(t, err)
	assert.True(t, current.State.Equal(iou))
	assert.Equal(t, states.StateRef{TxID: issue.ID(), Index: 0}, current.Ref)

	all, err := v.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	x := states.MustAmount("40", "USD")
	partial := signed(t, contract.NewTransaction(notary).
		WithInput(*current).
		WithOutput(current.State.Pay(x)).
		WithCommand(contract.Settle{Amount: x}, lender, borrower))
	require.NoError(t, v.Store(partial))
	current, err = v.Query(iou.LinearID)
	require.NoError(t, err)
	assert.Equal(t, "40", current.State.Paid.Quantity.String())
	assert.Equal(t, partial.ID(), current.Ref.TxID)

	rest := states.MustAmount("60", "USD")
	full := signed(t, contract.NewTransaction(notary).
		WithInput(*current).
		WithCommand(contract.Settle{Amount: rest}, lender, borrower))
	require.NoError(t, v.Store(full))
	_, err = v.Query(iou.LinearID)
	assert.True(t, errors.Is(err, driver.ErrNotFound))

	history, err := v.History(iou.LinearID)
	require.NoError(t, err)
	assert.Equal(t, []string{issue.ID(), partial.ID(), full.ID()}, history)

	stored, err := v.Transaction(partial.ID())
	require.NoError(t, err)
	assert.Equal(t, partial.ID(), stored.ID())
	require.NoError(t, stored.CheckID())
	_, err = v.Transaction("missing")
	assert.True(t, errors.Is(err, driver.ErrNotFound))

	require.Len(t, c.events, 3)
	assert.Equal(t, "issue", c.events[0].Command)
	assert.Len(t, c.events[0].Produced, 1)
	assert.Empty(t, c.events[0].Consumed)
	assert.Equal(t, []states.StateRef{{TxID: partial.ID(), Index: 0}}, c.events[2].Consumed)
	assert.Empty(t, c.events[2].Produced)
}

func TestTransferLeavesTheOldLenderVault(t *testing.T) {
	oldLender, _ := newVault(t, lender)
	receiver, _ := newVault(t, newLend)

	iou := states.NewIOU(states.MustAmount("10", "EUR"), lender, borrower)
	issue := signed(t, contract.NewTransaction(notary).WithOutput(iou).WithCommand(contract.Issue{}, lender, borrower))
	require.NoError(t, oldLender.Store(issue))
	current, err := oldLender.Query(iou.LinearID)
	require.NoError(t, err)

	transfer := signed(t, contract.NewTransaction(notary).
		WithInput(*current).
		WithOutput(current.State.WithNewLender(newLend)).
		WithCommand(contract.Transfer{}, lender, borrower, newLend))
	require.NoError(t, oldLender.Store(transfer))
	require.NoError(t, receiver.Store(transfer))

	_, err = oldLender.Query(iou.LinearID)
	assert.True(t, errors.Is(err, driver.ErrNotFound))
	received, err := receiver.Query(iou.LinearID)
	require.NoError(t, err)
	assert.True(t, received.State.Lender.Equal(newLend))
	assert.Equal(t, transfer.ID(), received.Ref.TxID)
}

func TestReservations(t *testing.T) {
	v, _ := newVault(t, borrower)
	ref := states.StateRef{TxID: "tx", Index: 0}

	require.NoError(t, v.Reserve(ref))
	err := v.Reserve(ref)
	assert.True(t, errors.Is(err, driver.ErrPrecondition))
	v.Release(ref)
	require.NoError(t, v.Reserve(ref))

	// committing a transaction releases its inputs
	iou := states.NewIOU(states.MustAmount("10", "EUR"), lender, borrower)
	x := states.MustAmount("10", "EUR")
	settle := signed(t, contract.NewTransaction(notary).
		WithInput(states.StateAndRef{State: iou, Ref: ref}).
		WithCommand(contract.Settle{Amount: x}, lender, borrower))
	require.NoError(t, v.Store(settle))
	require.NoError(t, v.Reserve(ref))
}

func TestStoreRefusesAlteredInput(t *testing.T) {
	v, c := newVault(t, lender)

	iou := states.NewIOU(states.MustAmount("100", "USD"), lender, borrower)
	issue := signed(t, contract.NewTransaction(notary).WithOutput(iou).WithCommand(contract.Issue{}, lender, borrower))
	require.NoError(t, v.Store(issue))
	current, err := v.Query(iou.LinearID)
	require.NoError(t, err)

	altered := *current
	altered.State.Amount = states.MustAmount("1", "USD")
	x := states.MustAmount("1", "USD")
	settle := signed(t, contract.NewTransaction(notary).
		WithInput(altered).
		WithCommand(contract.Settle{Amount: x}, lender, borrower))
	err = v.Store(settle)
	assert.True(t, errors.Is(err, driver.ErrRejected))

	held, err := v.Query(iou.LinearID)
	require.NoError(t, err)
	assert.True(t, held.State.Equal(iou))
	_, err = v.Transaction(settle.ID())
	assert.True(t, errors.Is(err, driver.ErrNotFound))
	assert.Len(t, c.events, 1)
}
