/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"reflect"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
)

// Signer is an interface which wraps the Sign method.
type Signer interface {
	// Sign signs message bytes and returns the signature or an error on failure.
	Sign(message []byte) ([]byte, error)
}

// Verifier is an interface which wraps the Verify method.
type Verifier interface {
	// Verify verifies the signature over the passed message.
	Verify(message, sigma []byte) error
}

// SigService models a repository of sign and verify keys.
type SigService interface {
	// GetSigner returns the signer bound to the passed identity
	GetSigner(identity view.Identity) (Signer, error)
	// GetVerifier returns the verifier bound to the passed identity
	GetVerifier(identity view.Identity) (Verifier, error)
	// IsMe returns true if a signer was ever registered for the passed identity
	IsMe(identity view.Identity) bool
}

func GetSigService(sp ServiceProvider) SigService {
	s, err := sp.GetService(reflect.TypeOf((*SigService)(nil)))
	if err != nil {
		panic(err)
	}
	return s.(SigService)
}
