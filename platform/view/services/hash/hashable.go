/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package hash

import (
	"encoding/base64"
	"encoding/hex"
)

// Hashable renders the SHA-256 digest of its content
type Hashable []byte

// String returns the base64 encoding of the digest, empty for empty content
func (id Hashable) String() string {
	if len(id) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(SHA256OrPanic(id))
}

// Hex returns the hex encoding of the digest, empty for empty content
func (id Hashable) Hex() string {
	if len(id) == 0 {
		return ""
	}
	return hex.EncodeToString(SHA256OrPanic(id))
}
