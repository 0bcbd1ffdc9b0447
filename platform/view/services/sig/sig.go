/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sig

import (
	"sync"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/id/ecdsa"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("view-sdk.sig")

type entry struct {
	signer   driver.Signer
	verifier driver.Verifier
}

// Service is a repository of signers and verifiers indexed by identity.
// Verifiers of unknown identities are derived from the identity bytes.
type Service struct {
	lock    sync.RWMutex
	entries map[string]entry
}

func NewService() *Service {
	return &Service{entries: map[string]entry{}}
}

// RegisterSigner binds the passed identity to the passed signer and verifier
func (o *Service) RegisterSigner(identity view.Identity, signer driver.Signer, verifier driver.Verifier) error {
	if signer == nil {
		return errors.New("invalid signer, expected a valid instance")
	}
	o.lock.Lock()
	defer o.lock.Unlock()

	if _, ok := o.entries[identity.UniqueID()]; ok {
		logger.Warnf("signer for [%s] already registered, replacing it", identity)
	}
	o.entries[identity.UniqueID()] = entry{signer: signer, verifier: verifier}
	return nil
}

func (o *Service) GetSigner(identity view.Identity) (driver.Signer, error) {
	o.lock.RLock()
	defer o.lock.RUnlock()

	e, ok := o.entries[identity.UniqueID()]
	if !ok || e.signer == nil {
		return nil, errors.Errorf("signer for [%s] not found", identity)
	}
	return e.signer, nil
}

func (o *Service) GetVerifier(identity view.Identity) (driver.Verifier, error) {
	o.lock.RLock()
	e, ok := o.entries[identity.UniqueID()]
	o.lock.RUnlock()
	if ok && e.verifier != nil {
		return e.verifier, nil
	}

	_, verifier, err := ecdsa.NewIdentityFromBytes(identity)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed deserializing identity [%s]", identity)
	}
	return verifier, nil
}

func (o *Service) IsMe(identity view.Identity) bool {
	o.lock.RLock()
	defer o.lock.RUnlock()

	e, ok := o.entries[identity.UniqueID()]
	return ok && e.signer != nil
}
