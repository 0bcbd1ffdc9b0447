/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identity

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"sort"
)

// Identity wraps the byte representation of a party's public key.
type Identity []byte

// Equal return true if the identities are the same
func (id Identity) Equal(id2 Identity) bool {
	return bytes.Equal(id, id2)
}

// UniqueID returns a unique identifier of this identity
func (id Identity) UniqueID() string {
	if len(id) == 0 {
		return "<empty>"
	}
	h := sha256.Sum256(id)
	return base64.StdEncoding.EncodeToString(h[:])
}

// String returns a string representation of this identity
func (id Identity) String() string {
	return id.UniqueID()
}

// Bytes returns the byte representation of this identity
func (id Identity) Bytes() []byte {
	return id
}

// IsNone returns true if this identity is empty
func (id Identity) IsNone() bool {
	return len(id) == 0
}

// Identities is a list of identities where order and duplicates carry no meaning
type Identities []Identity

// Contains returns true if the passed identity is in the list
func (ids Identities) Contains(id Identity) bool {
	for _, other := range ids {
		if other.Equal(id) {
			return true
		}
	}
	return false
}

// Set returns the list without duplicates, ordered by unique id
func (ids Identities) Set() Identities {
	seen := make(map[string]struct{}, len(ids))
	res := make(Identities, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id.UniqueID()]; ok {
			continue
		}
		seen[id.UniqueID()] = struct{}{}
		res = append(res, id)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].UniqueID() < res[j].UniqueID()
	})
	return res
}

// Match returns true if both lists denote the same set of identities
func (ids Identities) Match(others Identities) bool {
	a, b := ids.Set(), others.Set()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// ContainsAll returns true if every passed identity is in the list
func (ids Identities) ContainsAll(others ...Identity) bool {
	for _, id := range others {
		if !ids.Contains(id) {
			return false
		}
	}
	return true
}
