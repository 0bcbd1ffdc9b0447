/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cash

import (
	"testing"

	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"
	mem "github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver/memory"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/kvs"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWallet(t *testing.T) *Wallet {
	store, err := kvs.New(mem.New(), "cash", 0)
	require.NoError(t, err)
	return New(store)
}

func assertBalance(t *testing.T, w *Wallet, currency, expected string) {
	b, err := w.Balance(currency)
	require.NoError(t, err)
	assert.True(t, b.Quantity.Equal(decimal.RequireFromString(expected)), "expected %s, got %s", expected, b)
}

func TestApply(t *testing.T) {
	b := Balance{Currency: "USD", Available: decimal.NewFromInt(10)}

	res, err := apply(b, hold, decimal.NewFromInt(4))
	require.NoError(t, err)
	assert.Equal(t, "6", res.Available.String())
	assert.Equal(t, "4", res.OnHold.String())

	_, err = apply(res, hold, decimal.NewFromInt(7))
	assert.True(t, errors.Is(err, driver.ErrPrecondition))
	assert.Contains(t, err.Error(), "insufficient USD funds")

	_, err = apply(res, debit, decimal.NewFromInt(5))
	assert.Error(t, err)

	_, err = apply(res, credit, decimal.Zero)
	assert.True(t, errors.Is(err, driver.ErrPrecondition))

	res, err = apply(res, release, decimal.NewFromInt(4))
	require.NoError(t, err)
	assert.Equal(t, "10", res.Available.String())
	assert.True(t, res.OnHold.IsZero())
}

func TestHoldDebitRelease(t *testing.T) {
	w := newWallet(t)
	assertBalance(t, w, "USD", "0")

	require.NoError(t, w.Issue(states.MustAmount("100.50", "USD")))
	require.NoError(t, w.Credit(states.MustAmount("10", "GBP")))
	assertBalance(t, w, "USD", "100.50")

	require.NoError(t, w.Hold("settle-1", states.MustAmount("40", "USD")))
	assertBalance(t, w, "USD", "60.50")
	err := w.Hold("settle-1", states.MustAmount("1", "USD"))
	assert.True(t, errors.Is(err, driver.ErrPrecondition))
	err = w.Hold("settle-2", states.MustAmount("61", "USD"))
	assert.True(t, errors.Is(err, driver.ErrPrecondition))
	assertBalance(t, w, "USD", "60.50")

	require.NoError(t, w.Debit("settle-1"))
	assertBalance(t, w, "USD", "60.50")
	err = w.Debit("settle-1")
	assert.True(t, errors.Is(err, driver.ErrNotFound))

	require.NoError(t, w.Hold("settle-3", states.MustAmount("60.50", "USD")))
	assertBalance(t, w, "USD", "0")
	require.NoError(t, w.Release("settle-3"))
	require.NoError(t, w.Release("settle-3"))
	assertBalance(t, w, "USD", "60.50")

	balances, err := w.Balances()
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "GBP", balances[0].Currency)
	assert.Equal(t, "USD", balances[1].Currency)
	assert.True(t, balances[1].OnHold.IsZero())
}

func TestHolds(t *testing.T) {
	w := newWallet(t)
	holds, err := w.Holds()
	require.NoError(t, err)
	assert.Empty(t, holds)

	require.NoError(t, w.Issue(states.MustAmount("100", "USD")))
	require.NoError(t, w.Hold("settle-b", states.MustAmount("30", "USD")))
	require.NoError(t, w.Hold("settle-a", states.MustAmount("20.25", "USD")))

	holds, err = w.Holds()
	require.NoError(t, err)
	require.Len(t, holds, 2)
	assert.Equal(t, "settle-a", holds[0].Ref)
	assert.True(t, holds[0].Amount.Equal(states.MustAmount("20.25", "USD")))
	assert.Equal(t, "settle-b", holds[1].Ref)

	require.NoError(t, w.Debit("settle-a"))
	require.NoError(t, w.Release("settle-b"))
	holds, err = w.Holds()
	require.NoError(t, err)
	assert.Empty(t, holds)
	assertBalance(t, w, "USD", "79.75")
}
