/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package view

import (
	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/identity"
)

// Identity wraps the byte representation of a lower level identity.
type Identity = identity.Identity

// Identities is an unordered list of identities
type Identities = identity.Identities
