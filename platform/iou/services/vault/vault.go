/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vault

import (
	"fmt"
	"sync"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/contract"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/events"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/kvs"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

var logger = logging.MustGetLogger("iou.vault")

const (
	iouPrefix     = "iou"
	txPrefix      = "tx"
	historyPrefix = "history"
)

// Identities tells which identities belong to this node
type Identities interface {
	IsMe(identity view.Identity) bool
}

// Vault keeps, in a KVS, the current version of the obligations this node is a participant of,
// every transaction it committed, and the history of each obligation.
type Vault struct {
	kvs        *kvs.KVS
	identities Identities
	publisher  events.Publisher

	storeLock sync.Mutex

	reservationsLock sync.Mutex
	reservations     map[string]struct{}
}

// New returns a vault over the passed KVS. The publisher can be nil.
func New(store *kvs.KVS, identities Identities, publisher events.Publisher) *Vault {
	return &Vault{
		kvs:          store,
		identities:   identities,
		publisher:    publisher,
		reservations: map[string]struct{}{},
	}
}

func (v *Vault) Query(linearID string) (*states.StateAndRef, error) {
	k, err := kvs.CreateCompositeKey(iouPrefix, []string{linearID})
	if err != nil {
		return nil, errors.Wrapf(driver.ErrNotFound, "invalid linear id [%s]: %s", linearID, err)
	}
	res := &states.StateAndRef{}
	if err := v.kvs.Get(k, res); err != nil {
		if errors.Is(err, kvs.ErrNotFound) {
			return nil, errors.Wrapf(driver.ErrNotFound, "no obligation with id [%s]", linearID)
		}
		return nil, errors.WithMessagef(err, "failed loading obligation [%s]", linearID)
	}
	return res, nil
}

func (v *Vault) All() ([]*states.StateAndRef, error) {
	it, err := v.kvs.GetByPartialCompositeID(iouPrefix, nil)
	if err != nil {
		return nil, errors.WithMessage(err, "failed listing obligations")
	}
	defer it.Close()

	var res []*states.StateAndRef
	for it.HasNext() {
		s := &states.StateAndRef{}
		if _, err := it.Next(s); err != nil {
			return nil, errors.Wrap(err, "failed decoding obligation")
		}
		res = append(res, s)
	}
	return res, nil
}

func (v *Vault) Transaction(txID string) (*contract.SignedTransaction, error) {
	k, err := kvs.CreateCompositeKey(txPrefix, []string{txID})
	if err != nil {
		return nil, errors.Wrapf(driver.ErrNotFound, "invalid transaction id [%s]: %s", txID, err)
	}
	tx := &contract.SignedTransaction{}
	if err := v.kvs.Get(k, tx); err != nil {
		if errors.Is(err, kvs.ErrNotFound) {
			return nil, errors.Wrapf(driver.ErrNotFound, "no transaction [%s]", txID)
		}
		return nil, errors.WithMessagef(err, "failed loading transaction [%s]", txID)
	}
	return tx, nil
}

// History returns the ids of the committed transactions that touched the passed obligation, oldest first
func (v *Vault) History(linearID string) ([]string, error) {
	it, err := v.kvs.GetByPartialCompositeID(historyPrefix, []string{linearID})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed listing history of [%s]", linearID)
	}
	defer it.Close()

	var res []string
	for it.HasNext() {
		var txID string
		if _, err := it.Next(&txID); err != nil {
			return nil, errors.Wrap(err, "failed decoding history entry")
		}
		res = append(res, txID)
	}
	return res, nil
}

// Store commits a notarised transaction. Storing the same transaction twice is a no-op.
func (v *Vault) Store(stx *contract.SignedTransaction) error {
	v.storeLock.Lock()
	defer v.storeLock.Unlock()

	txKey, err := kvs.CreateCompositeKey(txPrefix, []string{stx.ID()})
	if err != nil {
		return errors.Wrapf(err, "invalid transaction id [%s]", stx.ID())
	}
	if v.kvs.Exists(txKey) {
		logger.Debugf("transaction [%s] already committed", stx.ID())
		return nil
	}

	linearID := stx.Transaction.LinearID()
	history, err := v.History(linearID)
	if err != nil {
		return err
	}

	var consumed []states.StateRef
	var produced []states.StateAndRef
	err = v.kvs.Update(func(tx *kvs.Tx) error {
		for _, in := range stx.Transaction.Inputs {
			current, err := v.Query(in.State.LinearID)
			if errors.Is(err, driver.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if current.Ref != in.Ref {
				logger.Warnf("transaction [%s] consumes [%s], the vault holds [%s], skipping", stx.ID(), in.Ref, current.Ref)
				continue
			}
			if !current.State.Equal(in.State) {
				return errors.Wrapf(driver.ErrRejected, "transaction [%s] consumes [%s] with a state that differs from the stored one", stx.ID(), in.Ref)
			}
			if err := tx.Delete(kvs.CreateCompositeKeyOrPanic(iouPrefix, []string{in.State.LinearID})); err != nil {
				return err
			}
			consumed = append(consumed, in.Ref)
		}
		for i, out := range stx.Transaction.Outputs {
			if !v.isParticipant(out) {
				continue
			}
			sr := states.StateAndRef{State: out, Ref: states.StateRef{TxID: stx.ID(), Index: i}}
			if err := tx.Put(kvs.CreateCompositeKeyOrPanic(iouPrefix, []string{out.LinearID}), sr); err != nil {
				return err
			}
			produced = append(produced, sr)
		}
		if err := tx.Put(txKey, stx); err != nil {
			return err
		}
		k, err := kvs.CreateCompositeKey(historyPrefix, []string{linearID, fmt.Sprintf("%08d", len(history))})
		if err != nil {
			return err
		}
		return tx.Put(k, stx.ID())
	})
	if err != nil {
		return errors.WithMessagef(err, "failed committing transaction [%s]", stx.ID())
	}

	for _, in := range stx.Transaction.Inputs {
		v.Release(in.Ref)
	}
	if logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("committed transaction [%s]: consumed %v, produced %d", stx.ID(), consumed, len(produced))
	}
	if v.publisher != nil {
		v.publisher.Publish(&CommittedEvent{Committed{
			TxID:     stx.ID(),
			Command:  stx.Transaction.Command.Name(),
			LinearID: linearID,
			Consumed: consumed,
			Produced: produced,
		}})
	}
	return nil
}

func (v *Vault) Reserve(ref states.StateRef) error {
	v.reservationsLock.Lock()
	defer v.reservationsLock.Unlock()

	if _, ok := v.reservations[ref.String()]; ok {
		return driver.Preconditionf("[%s] is already the input of an attempt in flight", ref)
	}
	v.reservations[ref.String()] = struct{}{}
	return nil
}

func (v *Vault) Release(ref states.StateRef) {
	v.reservationsLock.Lock()
	defer v.reservationsLock.Unlock()
	delete(v.reservations, ref.String())
}

func (v *Vault) isParticipant(iou states.IOU) bool {
	for _, p := range iou.Participants() {
		if v.identities.IsMe(p) {
			return true
		}
	}
	return false
}
