/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ecdsa

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/hash"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

type dsaSigner struct {
	sk *ecdsa.PrivateKey
}

func (d *dsaSigner) Sign(message []byte) ([]byte, error) {
	digest, err := hash.SHA256(message)
	if err != nil {
		return nil, err
	}
	return ecdsa.SignASN1(rand.Reader, d.sk, digest)
}

type dsaVerifier struct {
	pk *ecdsa.PublicKey
}

func (d *dsaVerifier) Verify(message, sigma []byte) error {
	digest, err := hash.SHA256(message)
	if err != nil {
		return err
	}
	if !ecdsa.VerifyASN1(d.pk, digest, sigma) {
		return errors.Errorf("signature not valid")
	}
	return nil
}

// NewSigner generates a fresh P-256 key pair.
// The identity is the PKIX encoding of the public key.
func NewSigner() (view.Identity, driver.Signer, driver.Verifier, error) {
	sk, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, nil, err
	}
	return fromPrivateKey(sk)
}

// NewSignerFromPEM loads a PKCS8 encoded ECDSA private key
func NewSignerFromPEM(raw []byte) (view.Identity, driver.Signer, driver.Verifier, error) {
	p, _ := pem.Decode(raw)
	if p == nil {
		return nil, nil, nil, errors.New("cannot pem decode secret key")
	}
	key, err := x509.ParsePKCS8PrivateKey(p.Bytes)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed unmarshalling secret key")
	}
	sk, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, nil, nil, errors.New("expected *ecdsa.PrivateKey")
	}
	return fromPrivateKey(sk)
}

// NewIdentityFromBytes returns the verifier for an identity produced by NewSigner
func NewIdentityFromBytes(raw []byte) (view.Identity, driver.Verifier, error) {
	genericPublicKey, err := x509.ParsePKIXPublicKey(raw)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed parsing received public key")
	}
	publicKey, ok := genericPublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, nil, errors.New("expected *ecdsa.PublicKey")
	}
	return raw, &dsaVerifier{pk: publicKey}, nil
}

func fromPrivateKey(sk *ecdsa.PrivateKey) (view.Identity, driver.Signer, driver.Verifier, error) {
	pkRaw, err := x509.MarshalPKIXPublicKey(sk.Public())
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed marshalling public key")
	}
	return pkRaw, &dsaSigner{sk: sk}, &dsaVerifier{pk: &sk.PublicKey}, nil
}
