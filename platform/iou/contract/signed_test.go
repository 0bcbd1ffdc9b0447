/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package contract

import (
	"encoding/json"
	"testing"

	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"
	driver2 "github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/id/ecdsa"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/sig"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type party struct {
	id     view.Identity
	signer driver2.Signer
}

func newParty(t *testing.T, sigService *sig.Service) party {
	id, signer, verifier, err := ecdsa.NewSigner()
	require.NoError(t, err)
	require.NoError(t, sigService.RegisterSigner(id, signer, verifier))
	return party{id: id, signer: signer}
}

func (p party) sign(t *testing.T, stx *SignedTransaction) {
	sigma, err := p.signer.Sign([]byte(stx.ID()))
	require.NoError(t, err)
	stx.AddSignature(p.id, sigma)
}

func TestSignedTransaction(t *testing.T) {
	sigService := sig.NewService()
	l, b, n, mallory := newParty(t, sigService), newParty(t, sigService), newParty(t, sigService), newParty(t, sigService)

	tx := NewTransaction(n.id).
		WithOutput(states.NewIOU(states.MustAmount("10", "GBP"), l.id, b.id)).
		WithCommand(Issue{}, l.id, b.id)
	stx, err := NewSignedTransaction(tx)
	require.NoError(t, err)
	require.NoError(t, stx.CheckID())

	assert.Len(t, stx.MissingSigners(), 2)
	l.sign(t, stx)
	assert.Equal(t, []view.Identity{b.id}, stx.MissingSigners())
	err = stx.Verify(sigService)
	assert.True(t, errors.Is(err, driver.ErrRejected))

	// a signature from the wrong key
	sigma, err := mallory.signer.Sign([]byte(stx.ID()))
	require.NoError(t, err)
	stx.AddSignature(b.id, sigma)
	err = stx.VerifySignatures(sigService)
	assert.True(t, errors.Is(err, driver.ErrRejected))
	assert.Contains(t, err.Error(), "invalid signature")

	b.sign(t, stx)
	assert.Len(t, stx.Signatures, 2)
	require.NoError(t, stx.Verify(sigService))

	assert.Error(t, stx.VerifyNotarySignature(sigService))
	notarySigma, err := n.signer.Sign([]byte(stx.ID()))
	require.NoError(t, err)
	stx.NotarySignature = notarySigma
	require.NoError(t, stx.VerifyNotarySignature(sigService))

	// travels over the wire
	raw, err := json.Marshal(stx)
	require.NoError(t, err)
	decoded := &SignedTransaction{}
	require.NoError(t, json.Unmarshal(raw, decoded))
	require.NoError(t, decoded.Verify(sigService))
	require.NoError(t, decoded.VerifyNotarySignature(sigService))

	// verifiers are derived from the identity bytes for unknown parties
	assert.NoError(t, decoded.Verify(sig.NewService()))

	// tampering changes the id
	decoded.Transaction.Outputs[0].Amount = states.MustAmount("1000", "GBP")
	err = decoded.Verify(sigService)
	assert.True(t, errors.Is(err, driver.ErrRejected))
	assert.Contains(t, err.Error(), "id mismatch")
}
