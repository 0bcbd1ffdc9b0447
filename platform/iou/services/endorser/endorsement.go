/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package endorser

import (
	"time"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/contract"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services"
	driver2 "github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/session"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("iou.endorser")

// CollectEndorsementsView signs the transaction with the local keys and asks every other
// party for its signature, one at a time. If a party declines or cannot be reached,
// the parties that already signed are told to abort.
type CollectEndorsementsView struct {
	tx      *contract.SignedTransaction
	parties []view.Identity
}

// NewCollectEndorsementsView collects the signatures of the passed parties, the required signers if none is passed
func NewCollectEndorsementsView(tx *contract.SignedTransaction, parties ...view.Identity) *CollectEndorsementsView {
	return &CollectEndorsementsView{tx: tx, parties: parties}
}

func (c *CollectEndorsementsView) Call(context view.Context) (interface{}, error) {
	parties := c.parties
	if len(parties) == 0 {
		parties = c.tx.Transaction.Signers
	}
	sigService := driver2.GetSigService(context)
	timeout := sessionTimeout(context)

	for _, party := range parties {
		if !context.IsMe(party) {
			continue
		}
		logger.Debugf("endorse [%s] locally with [%s]", c.tx.ID(), party)
		if err := sign(sigService, c.tx, party); err != nil {
			return nil, err
		}
	}

	var endorsed []view.Identity
	for _, party := range parties {
		if context.IsMe(party) {
			continue
		}
		if err := c.collect(context, sigService, party, timeout); err != nil {
			abort(context, endorsed, c.tx.ID(), err.Error())
			return nil, driver.AsTransportError(err, "failed collecting the endorsement of [%s] on [%s]", party, c.tx.ID())
		}
		endorsed = append(endorsed, party)
	}
	return c.tx, nil
}

func (c *CollectEndorsementsView) collect(context view.Context, sigService driver2.SigService, party view.Identity, timeout time.Duration) error {
	s, err := session.NewJSON(context, context.Initiator(), party)
	if err != nil {
		return errors.WithMessagef(err, "failed opening session to [%s]", party)
	}
	if err := s.Send(&Proposal{Tx: c.tx}); err != nil {
		return errors.WithMessage(err, "failed sending proposal")
	}
	e := &Endorsement{}
	if err := s.ReceiveWithTimeout(e, timeout); err != nil {
		return err
	}
	if e.TxID != c.tx.ID() || !e.Signer.Equal(party) {
		return errors.Wrapf(driver.ErrRejected, "unexpected endorsement of [%s] by [%s]", e.TxID, e.Signer)
	}
	verifier, err := sigService.GetVerifier(party)
	if err != nil {
		return errors.WithMessagef(err, "no verifier for [%s]", party)
	}
	if err := verifier.Verify([]byte(c.tx.ID()), e.Signature); err != nil {
		return errors.Wrapf(driver.ErrRejected, "invalid signature from [%s]: %s", party, err)
	}
	c.tx.AddSignature(party, e.Signature)
	logger.Debugf("collected endorsement of [%s] on [%s]", party, c.tx.ID())
	return nil
}

// ReceiveTransactionView waits for the proposal sent by the initiator
type ReceiveTransactionView struct{}

func NewReceiveTransactionView() *ReceiveTransactionView {
	return &ReceiveTransactionView{}
}

func (r *ReceiveTransactionView) Call(context view.Context) (interface{}, error) {
	s := session.NewFromSession(context.Context(), context.Session(), sessionTimeout(context))
	p := &Proposal{}
	if err := s.Receive(p); err != nil {
		return nil, errors.WithMessage(err, "failed receiving proposal")
	}
	if p.Tx == nil {
		return nil, errors.Wrap(driver.ErrRejected, "empty proposal")
	}
	if err := p.Tx.CheckID(); err != nil {
		return nil, err
	}
	return p.Tx, nil
}

// ReceiveTransaction runs ReceiveTransactionView and returns the received transaction
func ReceiveTransaction(context view.Context) (*contract.SignedTransaction, error) {
	res, err := context.RunView(NewReceiveTransactionView())
	if err != nil {
		return nil, err
	}
	return res.(*contract.SignedTransaction), nil
}

// EndorseView checks the received transaction against the contract and answers with the local signature
type EndorseView struct {
	tx *contract.SignedTransaction
}

func NewEndorseView(tx *contract.SignedTransaction) *EndorseView {
	return &EndorseView{tx: tx}
}

func (e *EndorseView) Call(context view.Context) (interface{}, error) {
	if err := contract.Verify(e.tx.Transaction); err != nil {
		return nil, err
	}
	me := context.Me()
	if !view.Identities(e.tx.Transaction.Signers).Contains(me) {
		return nil, errors.Wrapf(driver.ErrRejected, "[%s] is not a required signer of [%s]", me, e.tx.ID())
	}
	if err := checkInputs(context, e.tx); err != nil {
		return nil, err
	}
	sigService := driver2.GetSigService(context)
	for _, s := range e.tx.Signatures {
		v, err := sigService.GetVerifier(s.Signer)
		if err != nil {
			return nil, errors.WithMessagef(err, "no verifier for [%s]", s.Signer)
		}
		if err := v.Verify([]byte(e.tx.ID()), s.Value); err != nil {
			return nil, errors.Wrapf(driver.ErrRejected, "invalid signature from [%s]: %s", s.Signer, err)
		}
	}
	if err := sign(sigService, e.tx, me); err != nil {
		return nil, err
	}
	s := session.NewFromSession(context.Context(), context.Session(), sessionTimeout(context))
	if err := s.Send(&Endorsement{TxID: e.tx.ID(), Signer: me, Signature: e.tx.SignatureOf(me)}); err != nil {
		return nil, errors.WithMessage(err, "failed sending endorsement")
	}
	logger.Debugf("endorsed [%s]", e.tx.ID())
	return e.tx, nil
}

// checkInputs resolves every input against the transaction that produced it.
// Inputs of obligations the local vault never saw are left to the notary.
func checkInputs(context view.Context, tx *contract.SignedTransaction) error {
	if len(tx.Transaction.Inputs) == 0 {
		return nil
	}
	vault, err := services.GetVault(context)
	if err != nil {
		return err
	}
	for _, in := range tx.Transaction.Inputs {
		producer, err := vault.Transaction(in.Ref.TxID)
		if errors.Is(err, driver.ErrNotFound) {
			history, err := vault.History(in.State.LinearID)
			if err != nil {
				return err
			}
			if len(history) != 0 {
				return errors.Wrapf(driver.ErrRejected, "input [%s] of [%s] refers to a transaction unknown to the history of [%s]", in.Ref, tx.ID(), in.State.LinearID)
			}
			continue
		}
		if err != nil {
			return err
		}
		outputs := producer.Transaction.Outputs
		if in.Ref.Index < 0 || in.Ref.Index >= len(outputs) || !outputs[in.Ref.Index].Equal(in.State) {
			return errors.Wrapf(driver.ErrRejected, "input [%s] of [%s] does not match the version it refers to", in.Ref, tx.ID())
		}
	}
	return nil
}

func sign(sigService driver2.SigService, tx *contract.SignedTransaction, party view.Identity) error {
	signer, err := sigService.GetSigner(party)
	if err != nil {
		return errors.WithMessagef(err, "no signer for [%s]", party)
	}
	sigma, err := signer.Sign([]byte(tx.ID()))
	if err != nil {
		return errors.Wrapf(err, "failed signing [%s]", tx.ID())
	}
	tx.AddSignature(party, sigma)
	return nil
}

// abort tells the passed parties to drop the attempt, failures are only logged
func abort(context view.Context, parties []view.Identity, txID string, reason string) {
	for _, party := range parties {
		s, err := session.NewJSON(context, context.Initiator(), party)
		if err != nil {
			logger.Warnf("cannot tell [%s] to abort [%s]: %s", party, txID, err)
			continue
		}
		if err := s.Send(&Outcome{Status: Aborted, TxID: txID, Reason: reason}); err != nil {
			logger.Warnf("cannot tell [%s] to abort [%s]: %s", party, txID, err)
		}
	}
}
