/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package views

import (
	"encoding/json"

	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/contract"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services/endorser"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

// Settle contains the input to pay back part or all of an obligation
type Settle struct {
	LinearID string
	Amount   states.Amount
}

// SettleIOUView is run by the borrower of an obligation.
// The paid amount is held in the local wallet while the attempt is in flight,
// debited once the attempt commits and released otherwise.
// It returns the id of the committed transaction.
type SettleIOUView struct {
	Settle
}

func (s *SettleIOUView) Call(context view.Context) (interface{}, error) {
	a := newAttempt(context, contract.SettleCommand)

	vault, err := services.GetVault(context)
	if err != nil {
		return nil, a.done(err)
	}
	wallet, err := services.GetWallet(context)
	if err != nil {
		return nil, a.done(err)
	}
	in, err := current(vault, s.LinearID)
	if err != nil {
		return nil, a.done(err)
	}
	iou := in.State
	me := context.Me()
	switch {
	case !me.Equal(iou.Borrower):
		return nil, a.done(driver.Preconditionf("obligation [%s] can only be settled by its borrower", s.LinearID))
	case !s.Amount.IsPositive():
		return nil, a.done(driver.Preconditionf("the settled amount must be positive, got %s", s.Amount))
	case !s.Amount.SameCurrency(iou.Amount):
		return nil, a.done(driver.Preconditionf("obligation [%s] is in %s, cannot settle in %s", s.LinearID, iou.Amount.Currency, s.Amount.Currency))
	case s.Amount.Cmp(iou.Outstanding()) > 0:
		return nil, a.done(driver.Preconditionf("cannot settle %s of obligation [%s], %s outstanding", s.Amount, s.LinearID, iou.Outstanding()))
	}

	notary, err := services.GetNotary(context)
	if err != nil {
		return nil, a.done(err)
	}
	tx := contract.NewTransaction(notary.Identity()).
		WithInput(*in).
		WithCommand(contract.Settle{Amount: s.Amount}, iou.Lender, iou.Borrower).
		WithPayment(contract.Payment{Payer: me, Payee: iou.Lender, Amount: s.Amount})
	if paid := iou.Pay(s.Amount); !paid.IsFullyPaid() {
		tx = tx.WithOutput(paid)
	}
	txID, err := tx.ID()
	if err != nil {
		return nil, a.done(err)
	}

	if err := vault.Reserve(in.Ref); err != nil {
		return nil, a.done(err)
	}
	defer vault.Release(in.Ref)
	if err := wallet.Hold(txID, s.Amount); err != nil {
		return nil, a.done(err)
	}

	stx, err := finalize(context, a, tx)
	if err != nil {
		if rerr := wallet.Release(txID); rerr != nil {
			logger.Errorf("failed releasing the funds held for [%s]: %s", txID, rerr)
		}
		return nil, a.done(err)
	}
	if err := wallet.Debit(txID); err != nil {
		logger.Errorf("[%s] committed but the held funds were not debited: %s", txID, err)
	}
	logger.Infof("settled %s of obligation [%s] with [%s]", s.Amount, s.LinearID, stx.ID())
	return stx.ID(), a.done(nil)
}

type SettleIOUViewFactory struct{}

func (f *SettleIOUViewFactory) NewView(in []byte) (view.View, error) {
	v := &SettleIOUView{}
	if err := json.Unmarshal(in, &v.Settle); err != nil {
		return nil, errors.Wrap(err, "failed unmarshalling settle input")
	}
	return v, nil
}

// SettleIOUResponderView is run by the lender. It accepts a settlement only if it pays the lender,
// and credits the payment to the local wallet once the settlement commits.
type SettleIOUResponderView struct{}

func (s *SettleIOUResponderView) Call(context view.Context) (interface{}, error) {
	tx, err := endorser.ReceiveTransaction(context)
	if err != nil {
		return nil, err
	}
	if _, ok := tx.Transaction.Command.(contract.Settle); !ok {
		return nil, errors.Wrapf(driver.ErrRejected, "expected a settle command in [%s]", tx.ID())
	}
	me := context.Me()
	p := tx.Transaction.Payment
	if p == nil || !p.Payee.Equal(me) {
		return nil, errors.Wrapf(driver.ErrRejected, "[%s] does not pay [%s]", tx.ID(), me)
	}
	wallet, err := services.GetWallet(context)
	if err != nil {
		return nil, err
	}
	return respond(context, tx, func(committed *contract.SignedTransaction) error {
		return wallet.Credit(committed.Transaction.Payment.Amount)
	})
}
