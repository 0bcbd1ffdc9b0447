/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package endorser

import (
	"time"

	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/contract"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services"
	driver2 "github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/session"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// CommitHook runs once a notarised transaction is in the local vault
type CommitHook func(tx *contract.SignedTransaction) error

// OrderingAndFinalityView submits a fully signed transaction to the notary.
// On success the transaction is stored locally and sent to every counterparty,
// each of them acknowledges once it stored it too. On failure the counterparties are told to abort.
type OrderingAndFinalityView struct {
	tx *contract.SignedTransaction
}

func NewOrderingAndFinalityView(tx *contract.SignedTransaction) *OrderingAndFinalityView {
	return &OrderingAndFinalityView{tx: tx}
}

func (o *OrderingAndFinalityView) Call(context view.Context) (interface{}, error) {
	notary, err := services.GetNotary(context)
	if err != nil {
		return nil, err
	}
	vault, err := services.GetVault(context)
	if err != nil {
		return nil, err
	}
	parties := counterparties(context, o.tx)

	notarised, err := notary.Finalize(context.Context(), o.tx)
	if err != nil {
		abort(context, parties, o.tx.ID(), err.Error())
		return nil, errors.WithMessagef(err, "failed finalizing [%s]", o.tx.ID())
	}
	if err := vault.Store(notarised); err != nil {
		return nil, errors.WithMessagef(err, "failed storing [%s]", o.tx.ID())
	}

	timeout := sessionTimeout(context)
	var g errgroup.Group
	for _, party := range parties {
		party := party
		g.Go(func() error {
			return distribute(context, notarised, party, timeout)
		})
	}
	if err := g.Wait(); err != nil {
		// the transaction is committed, the lagging party still holds the proposal it signed
		logger.Errorf("transaction [%s] committed but not acknowledged by every party: %s", o.tx.ID(), err)
	}
	return notarised, nil
}

func distribute(context view.Context, tx *contract.SignedTransaction, party view.Identity, timeout time.Duration) error {
	s, err := session.NewJSON(context, context.Initiator(), party)
	if err != nil {
		return errors.WithMessagef(err, "failed opening session to [%s]", party)
	}
	if err := s.Send(&Outcome{Status: Committed, TxID: tx.ID(), Tx: tx}); err != nil {
		return errors.WithMessagef(err, "failed sending [%s] to [%s]", tx.ID(), party)
	}
	ack := &Ack{}
	if err := s.ReceiveWithTimeout(ack, timeout); err != nil {
		return driver.AsTransportError(err, "no acknowledgement from [%s]", party)
	}
	if ack.TxID != tx.ID() {
		return errors.Errorf("[%s] acknowledged [%s] instead of [%s]", party, ack.TxID, tx.ID())
	}
	return nil
}

// counterparties returns the participants and signers of tx that are not this node
func counterparties(context view.Context, tx *contract.SignedTransaction) []view.Identity {
	all := append(view.Identities(tx.Transaction.Participants()), tx.Transaction.Signers...).Set()
	var res []view.Identity
	for _, party := range all {
		if !context.IsMe(party) {
			res = append(res, party)
		}
	}
	return res
}

// FinalityView is run by a counterparty after it endorsed tx.
// It waits for the outcome of the attempt and stores the notarised transaction.
type FinalityView struct {
	tx    *contract.SignedTransaction
	hooks []CommitHook
}

// NewFinalityView waits for the outcome of tx, the hooks run after the local commit and before the acknowledgement
func NewFinalityView(tx *contract.SignedTransaction, hooks ...CommitHook) *FinalityView {
	return &FinalityView{tx: tx, hooks: hooks}
}

func (f *FinalityView) Call(context view.Context) (interface{}, error) {
	timeout := sessionTimeout(context)
	// the initiator may still be collecting the other signatures
	wait := timeout * time.Duration(len(f.tx.Transaction.Signers)+1)
	s := session.NewFromSession(context.Context(), context.Session(), timeout)

	o := &Outcome{}
	if err := s.ReceiveWithTimeout(o, wait); err != nil {
		return nil, driver.AsTransportError(err, "no outcome for [%s]", f.tx.ID())
	}
	if o.TxID != f.tx.ID() {
		return nil, errors.Wrapf(driver.ErrRejected, "outcome of [%s] received, expected [%s]", o.TxID, f.tx.ID())
	}
	switch o.Status {
	case Aborted:
		logger.Infof("attempt [%s] aborted: %s", f.tx.ID(), o.Reason)
		return nil, errors.Wrapf(driver.ErrRejected, "attempt [%s] aborted by the initiator: %s", f.tx.ID(), o.Reason)
	case Committed:
	default:
		return nil, errors.Errorf("unknown outcome [%s] for [%s]", o.Status, f.tx.ID())
	}
	if o.Tx == nil {
		return nil, errors.Errorf("committed outcome of [%s] without transaction", f.tx.ID())
	}
	if o.Tx.ID() != f.tx.ID() {
		return nil, errors.Wrapf(driver.ErrRejected, "outcome of [%s] carries transaction [%s]", f.tx.ID(), o.Tx.ID())
	}

	sigService := driver2.GetSigService(context)
	if err := o.Tx.Verify(sigService); err != nil {
		return nil, errors.WithMessagef(err, "invalid notarised transaction [%s]", f.tx.ID())
	}
	if err := o.Tx.VerifyNotarySignature(sigService); err != nil {
		return nil, err
	}
	vault, err := services.GetVault(context)
	if err != nil {
		return nil, err
	}
	if err := vault.Store(o.Tx); err != nil {
		return nil, errors.WithMessagef(err, "failed storing [%s]", f.tx.ID())
	}
	for _, hook := range f.hooks {
		if err := hook(o.Tx); err != nil {
			logger.Errorf("commit hook failed on [%s]: %s", f.tx.ID(), err)
		}
	}
	if err := s.Send(&Ack{TxID: f.tx.ID()}); err != nil {
		logger.Warnf("failed acknowledging [%s]: %s", f.tx.ID(), err)
	}
	return o.Tx, nil
}
