/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package views

import (
	"encoding/json"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/contract"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services/endorser"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("iou.views")

// Issue contains the input to create an obligation
type Issue struct {
	// Amount the borrower owes the lender
	Amount states.Amount
	// Lender is the identity of the lender's node
	Lender view.Identity
	// Borrower is the identity of the borrower's node
	Borrower view.Identity
}

// IssueIOUView is run by either the lender or the borrower to create a new obligation.
// It returns the linear id of the obligation.
type IssueIOUView struct {
	Issue
}

func (i *IssueIOUView) Call(context view.Context) (interface{}, error) {
	a := newAttempt(context, contract.IssueCommand)

	me := context.Me()
	if !me.Equal(i.Lender) && !me.Equal(i.Borrower) {
		return nil, a.done(driver.Preconditionf("an obligation can only be issued by its lender or its borrower"))
	}
	notary, err := services.GetNotary(context)
	if err != nil {
		return nil, a.done(err)
	}
	iou := states.NewIOU(i.Amount, i.Lender, i.Borrower)
	tx := contract.NewTransaction(notary.Identity()).
		WithOutput(iou).
		WithCommand(contract.Issue{}, i.Lender, i.Borrower)

	if _, err := finalize(context, a, tx); err != nil {
		return nil, a.done(err)
	}
	logger.Infof("issued obligation [%s] of %s", iou.LinearID, i.Amount)
	return iou.LinearID, a.done(nil)
}

type IssueIOUViewFactory struct{}

func (f *IssueIOUViewFactory) NewView(in []byte) (view.View, error) {
	v := &IssueIOUView{}
	if err := json.Unmarshal(in, &v.Issue); err != nil {
		return nil, errors.Wrap(err, "failed unmarshalling issue input")
	}
	return v, nil
}

// IssueIOUResponderView is run by the counterparty of an issuance
type IssueIOUResponderView struct{}

func (i *IssueIOUResponderView) Call(context view.Context) (interface{}, error) {
	tx, err := endorser.ReceiveTransaction(context)
	if err != nil {
		return nil, err
	}
	if _, ok := tx.Transaction.Command.(contract.Issue); !ok {
		return nil, errors.Wrapf(driver.ErrRejected, "expected an issue command in [%s]", tx.ID())
	}
	if len(tx.Transaction.Outputs) != 1 {
		return nil, errors.Wrapf(driver.ErrRejected, "expected one obligation in [%s]", tx.ID())
	}
	if !view.Identities(tx.Transaction.Outputs[0].Participants()).Contains(context.Me()) {
		return nil, errors.Wrapf(driver.ErrRejected, "[%s] does not take part in the issued obligation", context.Me())
	}
	return respond(context, tx)
}

// finalize runs the shared part of every transition: validation, signature collection and finalization
func finalize(context view.Context, a *attempt, tx contract.Transaction) (*contract.SignedTransaction, error) {
	a.enter(Validating)
	if err := contract.Verify(tx); err != nil {
		return nil, err
	}
	stx, err := contract.NewSignedTransaction(tx)
	if err != nil {
		return nil, err
	}

	a.enter(CollectingSignatures)
	if _, err := context.RunView(endorser.NewCollectEndorsementsView(stx)); err != nil {
		return nil, err
	}

	a.enter(Finalizing)
	res, err := context.RunView(endorser.NewOrderingAndFinalityView(stx))
	if err != nil {
		return nil, err
	}
	return res.(*contract.SignedTransaction), nil
}

// respond checks the policy, endorses tx and waits for its outcome
func respond(context view.Context, tx *contract.SignedTransaction, hooks ...endorser.CommitHook) (interface{}, error) {
	if err := checkPolicy(context, tx); err != nil {
		return nil, err
	}
	if _, err := context.RunView(endorser.NewEndorseView(tx)); err != nil {
		return nil, err
	}
	return context.RunView(endorser.NewFinalityView(tx, hooks...))
}
