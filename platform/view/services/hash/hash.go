/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package hash

import (
	"crypto/sha256"

	"github.com/pkg/errors"
)

func SHA256(raw []byte) ([]byte, error) {
	hash := sha256.New()
	n, err := hash.Write(raw)
	if err != nil {
		return nil, err
	}
	if n != len(raw) {
		return nil, errors.Errorf("hash failure")
	}
	return hash.Sum(nil), nil
}

func SHA256OrPanic(raw []byte) []byte {
	digest, err := SHA256(raw)
	if err != nil {
		panic(err)
	}
	return digest
}
