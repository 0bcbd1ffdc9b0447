/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"reflect"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
)

// EndpointService binds identities to the endpoints where their owner is reachable
type EndpointService interface {
	// Resolve returns the endpoint and the public-key identifier bound to the passed identity
	Resolve(party view.Identity) (string, []byte, error)
	// GetIdentity returns the identity bound to either the passed endpoint or public-key identifier
	GetIdentity(endpoint string, pkID []byte) (view.Identity, error)
	// Name returns the label the passed identity was registered with
	Name(party view.Identity) (string, error)
	// Parties returns the labels of all known parties
	Parties() []string
}

// GetEndpointService returns an instance of the endpoint service.
// It panics, if no instance is found.
func GetEndpointService(sp ServiceProvider) EndpointService {
	s, err := sp.GetService(reflect.TypeOf((*EndpointService)(nil)))
	if err != nil {
		panic(err)
	}
	return s.(EndpointService)
}
