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

// Transfer contains the input to move an obligation to a new lender
type Transfer struct {
	LinearID  string
	NewLender view.Identity
}

// TransferIOUView is run by the current lender of an obligation.
// It returns the id of the committed transaction.
type TransferIOUView struct {
	Transfer
}

func (t *TransferIOUView) Call(context view.Context) (interface{}, error) {
	a := newAttempt(context, contract.TransferCommand)

	vault, err := services.GetVault(context)
	if err != nil {
		return nil, a.done(err)
	}
	in, err := current(vault, t.LinearID)
	if err != nil {
		return nil, a.done(err)
	}
	if !context.Me().Equal(in.State.Lender) {
		return nil, a.done(driver.Preconditionf("obligation [%s] can only be transferred by its lender", t.LinearID))
	}
	if t.NewLender.IsNone() {
		return nil, a.done(driver.Preconditionf("no new lender for obligation [%s]", t.LinearID))
	}
	if err := vault.Reserve(in.Ref); err != nil {
		return nil, a.done(err)
	}
	defer vault.Release(in.Ref)

	notary, err := services.GetNotary(context)
	if err != nil {
		return nil, a.done(err)
	}
	tx := contract.NewTransaction(notary.Identity()).
		WithInput(*in).
		WithOutput(in.State.WithNewLender(t.NewLender)).
		WithCommand(contract.Transfer{}, in.State.Lender, in.State.Borrower, t.NewLender)

	stx, err := finalize(context, a, tx)
	if err != nil {
		return nil, a.done(err)
	}
	logger.Infof("obligation [%s] transferred to [%s] with [%s]", t.LinearID, t.NewLender, stx.ID())
	return stx.ID(), a.done(nil)
}

type TransferIOUViewFactory struct{}

func (f *TransferIOUViewFactory) NewView(in []byte) (view.View, error) {
	v := &TransferIOUView{}
	if err := json.Unmarshal(in, &v.Transfer); err != nil {
		return nil, errors.Wrap(err, "failed unmarshalling transfer input")
	}
	return v, nil
}

// TransferIOUResponderView is run by the borrower and by the new lender
type TransferIOUResponderView struct{}

func (t *TransferIOUResponderView) Call(context view.Context) (interface{}, error) {
	tx, err := endorser.ReceiveTransaction(context)
	if err != nil {
		return nil, err
	}
	if _, ok := tx.Transaction.Command.(contract.Transfer); !ok {
		return nil, errors.Wrapf(driver.ErrRejected, "expected a transfer command in [%s]", tx.ID())
	}
	if len(tx.Transaction.Inputs) != 1 {
		return nil, errors.Wrapf(driver.ErrRejected, "expected one consumed obligation in [%s]", tx.ID())
	}
	if len(tx.Transaction.Outputs) != 1 {
		return nil, errors.Wrapf(driver.ErrRejected, "expected one produced obligation in [%s]", tx.ID())
	}
	return respond(context, tx)
}

// current returns the current version of an obligation, a precondition error if the vault does not know it
func current(vault services.Vault, linearID string) (*states.StateAndRef, error) {
	in, err := vault.Query(linearID)
	if err != nil {
		if errors.Is(err, driver.ErrNotFound) {
			return nil, driver.Preconditionf("obligation [%s] not found", linearID)
		}
		return nil, err
	}
	return in, nil
}
