/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package comm

import (
	"sort"
	"sync"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/hash"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/metrics"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

var logger = logging.MustGetLogger("view-sdk.comm")

var (
	// ErrSessionClosed is returned when a message is sent when the session is closed.
	ErrSessionClosed = errors.New("session closed")
	// ErrUnknownEndpoint is returned when no endpoint is bound to a party or address
	ErrUnknownEndpoint = errors.New("unknown endpoint")
)

// Hub connects the endpoints of the nodes running in the same process.
// It also acts as the endpoint service resolving identities to endpoints.
type Hub struct {
	lock      sync.RWMutex
	endpoints map[string]*Endpoint
	// identity unique id -> endpoint address
	addresses map[string]string
	// endpoint address -> identity
	identities map[string]view.Identity
}

func NewHub() *Hub {
	return &Hub{
		endpoints:  map[string]*Endpoint{},
		addresses:  map[string]string{},
		identities: map[string]view.Identity{},
	}
}

// NewEndpoint creates the endpoint reachable at the passed address on behalf of the passed identity
func (h *Hub) NewEndpoint(address string, id view.Identity, metricsProvider metrics.Provider) (*Endpoint, error) {
	h.lock.Lock()
	defer h.lock.Unlock()

	if _, ok := h.endpoints[address]; ok {
		return nil, errors.Errorf("endpoint [%s] already exists", address)
	}
	if other, ok := h.addresses[id.UniqueID()]; ok {
		return nil, errors.Errorf("identity [%s] already bound to endpoint [%s]", id, other)
	}
	e := newEndpoint(h, address, pkID(id), metricsProvider)
	h.endpoints[address] = e
	h.addresses[id.UniqueID()] = address
	h.identities[address] = id
	logger.Debugf("endpoint [%s] bound to [%s]", address, id)
	return e, nil
}

// Resolve returns the endpoint address and the public-key identifier bound to the passed identity
func (h *Hub) Resolve(party view.Identity) (string, []byte, error) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	address, ok := h.addresses[party.UniqueID()]
	if !ok {
		return "", nil, errors.Wrapf(ErrUnknownEndpoint, "no endpoint bound to [%s]", party)
	}
	return address, pkID(party), nil
}

// GetIdentity returns the identity bound to the passed endpoint address
func (h *Hub) GetIdentity(endpoint string, pkid []byte) (view.Identity, error) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	if id, ok := h.identities[endpoint]; ok {
		return id, nil
	}
	for _, id := range h.identities {
		if len(pkid) != 0 && string(pkID(id)) == string(pkid) {
			return id, nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownEndpoint, "no identity bound to [%s]", endpoint)
}

// Name returns the endpoint address the passed identity is bound to
func (h *Hub) Name(party view.Identity) (string, error) {
	address, _, err := h.Resolve(party)
	return address, err
}

// Parties returns the sorted addresses of all endpoints
func (h *Hub) Parties() []string {
	h.lock.RLock()
	defer h.lock.RUnlock()

	res := make([]string, 0, len(h.endpoints))
	for address := range h.endpoints {
		res = append(res, address)
	}
	sort.Strings(res)
	return res
}

func (h *Hub) deliver(address string, msg *view.Message) error {
	h.lock.RLock()
	e, ok := h.endpoints[address]
	h.lock.RUnlock()
	if !ok {
		return errors.Wrapf(ErrUnknownEndpoint, "cannot deliver to [%s]", address)
	}
	if logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("deliver message [len:%d] to [%s] %s", len(msg.Payload), address, msg)
	}
	e.dispatch(msg)
	return nil
}

func pkID(id view.Identity) []byte {
	return hash.SHA256OrPanic(id)
}
