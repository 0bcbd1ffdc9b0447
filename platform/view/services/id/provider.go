/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package id

import (
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
)

// Provider returns the node's default identity and resolves other parties by label
type Provider struct {
	name     string
	me       view.Identity
	resolver driver.EndpointService
}

func NewProvider(name string, me view.Identity, resolver driver.EndpointService) *Provider {
	return &Provider{name: name, me: me, resolver: resolver}
}

func (p *Provider) DefaultIdentity() view.Identity {
	return p.me
}

// Identity returns the identity bound to the passed label, nil if unknown.
// The empty label and the node's own name resolve to the default identity.
func (p *Provider) Identity(label string) view.Identity {
	if len(label) == 0 || label == p.name {
		return p.me
	}
	id, err := p.resolver.GetIdentity(label, nil)
	if err != nil {
		return nil
	}
	return id
}
