/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package contract

import (
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/driver"
	driver2 "github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

// VerifierProvider returns the verifier of an identity
type VerifierProvider interface {
	GetVerifier(identity view.Identity) (driver2.Verifier, error)
}

// Signature is the signature of Signer over the transaction id
type Signature struct {
	Signer view.Identity `json:"signer"`
	Value  []byte        `json:"value"`
}

// SignedTransaction is a transaction together with the signatures collected so far.
// NotarySignature is set once the notary finalized it.
type SignedTransaction struct {
	TxID            string      `json:"id"`
	Transaction     Transaction `json:"tx"`
	Signatures      []Signature `json:"signatures"`
	NotarySignature []byte      `json:"notarySignature,omitempty"`
}

func NewSignedTransaction(tx Transaction) (*SignedTransaction, error) {
	id, err := tx.ID()
	if err != nil {
		return nil, errors.Wrap(err, "failed computing transaction id")
	}
	return &SignedTransaction{TxID: id, Transaction: tx}, nil
}

func (s *SignedTransaction) ID() string {
	return s.TxID
}

// CheckID recomputes the id, a mismatch means the transaction was tampered with
func (s *SignedTransaction) CheckID() error {
	id, err := s.Transaction.ID()
	if err != nil {
		return errors.Wrap(err, "failed computing transaction id")
	}
	if id != s.TxID {
		return errors.Wrapf(driver.ErrRejected, "transaction id mismatch [%s]!=[%s]", id, s.TxID)
	}
	return nil
}

// AddSignature appends the signature of signer, replacing a previous one
func (s *SignedTransaction) AddSignature(signer view.Identity, sigma []byte) {
	for i, sig := range s.Signatures {
		if sig.Signer.Equal(signer) {
			s.Signatures[i].Value = sigma
			return
		}
	}
	s.Signatures = append(s.Signatures, Signature{Signer: signer, Value: sigma})
}

// SignatureOf returns the signature of signer, nil if it did not sign
func (s *SignedTransaction) SignatureOf(signer view.Identity) []byte {
	for _, sig := range s.Signatures {
		if sig.Signer.Equal(signer) {
			return sig.Value
		}
	}
	return nil
}

// MissingSigners returns the required signers that did not sign yet
func (s *SignedTransaction) MissingSigners() []view.Identity {
	var res []view.Identity
	for _, signer := range s.Transaction.Signers {
		if s.SignatureOf(signer) == nil {
			res = append(res, signer)
		}
	}
	return res
}

// VerifySignatures checks that every required signer signed the transaction id
func (s *SignedTransaction) VerifySignatures(vp VerifierProvider) error {
	if err := s.CheckID(); err != nil {
		return err
	}
	if missing := s.MissingSigners(); len(missing) != 0 {
		return errors.Wrapf(driver.ErrRejected, "missing signatures from %v", missing)
	}
	for _, signer := range s.Transaction.Signers {
		v, err := vp.GetVerifier(signer)
		if err != nil {
			return errors.Wrapf(err, "no verifier for [%s]", signer)
		}
		if err := v.Verify([]byte(s.TxID), s.SignatureOf(signer)); err != nil {
			return errors.Wrapf(driver.ErrRejected, "invalid signature from [%s]: %s", signer, err)
		}
	}
	return nil
}

// VerifyNotarySignature checks that the notary named in the transaction finalized it
func (s *SignedTransaction) VerifyNotarySignature(vp VerifierProvider) error {
	if len(s.NotarySignature) == 0 {
		return errors.Wrapf(driver.ErrRejected, "transaction [%s] not notarised", s.TxID)
	}
	v, err := vp.GetVerifier(s.Transaction.Notary)
	if err != nil {
		return errors.Wrapf(err, "no verifier for notary [%s]", s.Transaction.Notary)
	}
	if err := v.Verify([]byte(s.TxID), s.NotarySignature); err != nil {
		return errors.Wrapf(driver.ErrRejected, "invalid notary signature: %s", err)
	}
	return nil
}

// Verify runs the contract and checks the signatures
func (s *SignedTransaction) Verify(vp VerifierProvider) error {
	if err := Verify(s.Transaction); err != nil {
		return err
	}
	return s.VerifySignatures(vp)
}
