/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package states

import (
	"encoding/json"
	"testing"

	"github.com/hyperledger-labs/obligation-smart-client/pkg/utils"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lender   = view.Identity("lender")
	borrower = view.Identity("borrower")
	other    = view.Identity("other")
)

func TestAmount(t *testing.T) {
	a, err := ParseAmount("10.50", "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", a.Currency)
	assert.Equal(t, "10.5 USD", a.String())

	_, err = ParseAmount("10", "XYZW")
	assert.Error(t, err)
	_, err = ParseAmount("-1", "USD")
	assert.Error(t, err)
	_, err = ParseAmount("ten", "USD")
	assert.Error(t, err)
	assert.Panics(t, func() { MustAmount("x", "USD") })

	b := MustAmount("0.5", "USD")
	sum, err := a.Plus(b)
	require.NoError(t, err)
	assert.True(t, sum.Equal(MustAmount("11", "USD")))
	diff, err := b.Minus(a)
	require.NoError(t, err)
	assert.Equal(t, -1, diff.Cmp(Zero("USD")))

	_, err = a.Plus(MustAmount("1", "EUR"))
	assert.Error(t, err)
	_, err = a.Minus(MustAmount("1", "EUR"))
	assert.Error(t, err)

	assert.True(t, MustAmount("1.50", "USD").Equal(MustAmount("1.5", "USD")))
	assert.False(t, MustAmount("1", "USD").Equal(MustAmount("1", "EUR")))
	assert.True(t, Zero("USD").IsZero())
	assert.False(t, Zero("USD").IsPositive())
}

func TestNewIOU(t *testing.T) {
	iou := NewIOU(MustAmount("100", "USD"), lender, borrower)
	assert.True(t, utils.IsUUID(iou.LinearID))
	assert.True(t, iou.Paid.Equal(Zero("USD")))
	assert.Equal(t, []view.Identity{lender, borrower}, iou.Participants())
	assert.True(t, iou.Outstanding().Equal(MustAmount("100", "USD")))
	assert.False(t, iou.IsFullyPaid())

	other := NewIOU(MustAmount("100", "USD"), lender, borrower)
	assert.NotEqual(t, iou.LinearID, other.LinearID)
}

func TestPayDoesNotMutate(t *testing.T) {
	iou := NewIOU(MustAmount("100", "USD"), lender, borrower)
	paid := iou.Pay(MustAmount("40", "USD"))

	assert.True(t, iou.Paid.IsZero())
	assert.True(t, paid.Paid.Equal(MustAmount("40", "USD")))
	assert.Equal(t, iou.LinearID, paid.LinearID)
	assert.True(t, paid.Outstanding().Equal(MustAmount("60", "USD")))

	full := paid.Pay(MustAmount("60", "USD"))
	assert.True(t, full.IsFullyPaid())

	// no bounds checks
	over := full.Pay(MustAmount("1", "USD"))
	assert.Equal(t, -1, over.Outstanding().Cmp(Zero("USD")))
}

func TestWithNewLender(t *testing.T) {
	iou := NewIOU(MustAmount("100", "USD"), lender, borrower).Pay(MustAmount("10", "USD"))
	moved := iou.WithNewLender(other)

	assert.True(t, iou.Lender.Equal(lender))
	assert.True(t, moved.Lender.Equal(other))
	assert.Equal(t, iou.LinearID, moved.LinearID)
	assert.True(t, iou.Amount.Equal(moved.Amount))
	assert.True(t, iou.Paid.Equal(moved.Paid))
	assert.True(t, iou.Borrower.Equal(moved.Borrower))
	assert.False(t, iou.Equal(moved))
}

func TestJSON(t *testing.T) {
	iou := NewIOU(MustAmount("100.25", "EUR"), lender, borrower)
	raw, err := json.Marshal(&StateAndRef{State: iou, Ref: StateRef{TxID: "tx", Index: 1}})
	require.NoError(t, err)

	var decoded StateAndRef
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, iou.Equal(decoded.State))
	assert.Equal(t, "tx:1", decoded.Ref.String())
	assert.True(t, decoded.State.Amount.Quantity.Equal(decimal.RequireFromString("100.25")))
}
