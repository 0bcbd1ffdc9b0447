/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cash

import (
	"sync"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/kvs"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var logger = logging.MustGetLogger("iou.cash")

const (
	balancePrefix = "balance"
	holdPrefix    = "hold"
)

type operation int

const (
	credit operation = iota
	hold
	release
	debit
)

func (o operation) String() string {
	switch o {
	case credit:
		return "credit"
	case hold:
		return "hold"
	case release:
		return "release"
	case debit:
		return "debit"
	}
	return "unknown"
}

// Balance is the cash a node owns in one currency.
// OnHold is reserved by settlements in flight and is not available.
type Balance struct {
	Currency  string          `json:"currency"`
	Available decimal.Decimal `json:"available"`
	OnHold    decimal.Decimal `json:"onHold"`
}

// Hold is a reservation of funds
type Hold struct {
	Ref    string        `json:"ref"`
	Amount states.Amount `json:"amount"`
}

// apply returns the balance after op moved amount, neither side may go negative
func apply(b Balance, op operation, amount decimal.Decimal) (Balance, error) {
	if !amount.IsPositive() {
		return b, driver.Preconditionf("%s of a non positive amount [%s]", op, amount)
	}
	res := b
	switch op {
	case credit:
		res.Available = res.Available.Add(amount)
	case hold:
		res.Available = res.Available.Sub(amount)
		res.OnHold = res.OnHold.Add(amount)
	case release:
		res.OnHold = res.OnHold.Sub(amount)
		res.Available = res.Available.Add(amount)
	case debit:
		res.OnHold = res.OnHold.Sub(amount)
	default:
		return b, errors.Errorf("unknown operation [%d]", op)
	}
	if res.Available.IsNegative() {
		return b, driver.Preconditionf("insufficient %s funds: %s available, %s requested", b.Currency, b.Available, amount)
	}
	if res.OnHold.IsNegative() {
		return b, errors.Errorf("on hold balance of %s would become negative", b.Currency)
	}
	return res, nil
}

// Wallet stores the cash balances of a node in a KVS
type Wallet struct {
	lock  sync.Mutex
	kvs   *kvs.KVS
	holds *kvs.EnhancedKVS[string, Hold]
}

func New(store *kvs.KVS) *Wallet {
	return &Wallet{kvs: store, holds: kvs.NewEnhancedKVS[string, Hold](store, holdKey)}
}

func holdKey(ref string) (string, error) {
	k, err := kvs.CreateCompositeKey(holdPrefix, []string{ref})
	if err != nil {
		return "", errors.Wrapf(err, "invalid hold reference [%s]", ref)
	}
	return k, nil
}

// Balance returns the available balance in the passed currency, zero if the node never held any
func (w *Wallet) Balance(currency string) (states.Amount, error) {
	b, err := w.balance(currency)
	if err != nil {
		return states.Amount{}, err
	}
	return states.Amount{Quantity: b.Available, Currency: currency}, nil
}

// Balances returns every balance, ordered by currency
func (w *Wallet) Balances() ([]Balance, error) {
	it, err := w.kvs.GetByPartialCompositeID(balancePrefix, nil)
	if err != nil {
		return nil, errors.WithMessage(err, "failed listing balances")
	}
	defer it.Close()

	var res []Balance
	for it.HasNext() {
		var b Balance
		if _, err := it.Next(&b); err != nil {
			return nil, errors.Wrap(err, "failed decoding balance")
		}
		res = append(res, b)
	}
	return res, nil
}

// Holds returns the funds reserved by the settlements in flight, ordered by reference
func (w *Wallet) Holds() ([]Hold, error) {
	it, err := w.kvs.GetByPartialCompositeID(holdPrefix, nil)
	if err != nil {
		return nil, errors.WithMessage(err, "failed listing holds")
	}
	defer it.Close()

	var res []Hold
	for it.HasNext() {
		var h Hold
		if _, err := it.Next(&h); err != nil {
			return nil, errors.Wrap(err, "failed decoding hold")
		}
		res = append(res, h)
	}
	return res, nil
}

// Issue creates cash out of thin air, the node owns it from now on
func (w *Wallet) Issue(amount states.Amount) error {
	logger.Infof("self issuing [%s]", amount)
	return w.Credit(amount)
}

func (w *Wallet) Credit(amount states.Amount) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	return w.kvs.Update(func(tx *kvs.Tx) error {
		return w.move(tx, amount.Currency, credit, amount.Quantity)
	})
}

func (w *Wallet) Hold(ref string, amount states.Amount) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	_, exists, err := w.holds.Get(ref)
	if err != nil {
		return err
	}
	if exists {
		return driver.Preconditionf("funds already on hold for [%s]", ref)
	}
	return w.kvs.Update(func(tx *kvs.Tx) error {
		if err := w.move(tx, amount.Currency, hold, amount.Quantity); err != nil {
			return err
		}
		return w.holds.PutIn(tx, ref, Hold{Ref: ref, Amount: amount})
	})
}

// Release gives back the funds held under ref. Releasing an unknown reference is a no-op.
func (w *Wallet) Release(ref string) error {
	return w.closeHold(ref, release)
}

// Debit spends the funds held under ref
func (w *Wallet) Debit(ref string) error {
	return w.closeHold(ref, debit)
}

func (w *Wallet) closeHold(ref string, op operation) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	h, exists, err := w.holds.Get(ref)
	if err != nil {
		return err
	}
	if !exists {
		if op == release {
			return nil
		}
		return errors.Wrapf(driver.ErrNotFound, "no funds on hold for [%s]", ref)
	}
	logger.Debugf("%s [%s] held for [%s]", op, h.Amount, ref)
	return w.kvs.Update(func(tx *kvs.Tx) error {
		if err := w.move(tx, h.Amount.Currency, op, h.Amount.Quantity); err != nil {
			return err
		}
		return w.holds.DeleteIn(tx, ref)
	})
}

func (w *Wallet) move(tx *kvs.Tx, currency string, op operation, amount decimal.Decimal) error {
	b, err := w.balance(currency)
	if err != nil {
		return err
	}
	b, err = apply(b, op, amount)
	if err != nil {
		return err
	}
	return tx.Put(kvs.CreateCompositeKeyOrPanic(balancePrefix, []string{currency}), b)
}

func (w *Wallet) balance(currency string) (Balance, error) {
	k, err := kvs.CreateCompositeKey(balancePrefix, []string{currency})
	if err != nil {
		return Balance{}, errors.Wrapf(err, "invalid currency [%s]", currency)
	}
	b := Balance{Currency: currency}
	if err := w.kvs.Get(k, &b); err != nil && !errors.Is(err, kvs.ErrNotFound) {
		return Balance{}, errors.WithMessagef(err, "failed loading balance [%s]", currency)
	}
	return b, nil
}
