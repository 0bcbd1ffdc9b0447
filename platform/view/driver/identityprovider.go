/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"reflect"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
)

// IdentityProvider models the identity provider
type IdentityProvider interface {
	// DefaultIdentity returns the default identity known by this provider
	DefaultIdentity() view.Identity
	// Identity returns the identity bound to the passed label, nil if unknown
	Identity(label string) view.Identity
}

func GetIdentityProvider(sp ServiceProvider) IdentityProvider {
	s, err := sp.GetService(reflect.TypeOf((*IdentityProvider)(nil)))
	if err != nil {
		panic(err)
	}
	return s.(IdentityProvider)
}
