/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keys

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// NamespaceSeparator joins a namespace and a key in the flat key space of a driver
const NamespaceSeparator = "\u0000"

const (
	maxNamespaceLength = 128
	// composite keys are delimited by U+0000 and range scans end at utf8.MaxRune
	keySymbols = "._~=+/-:" + NamespaceSeparator + string(utf8.MaxRune)
)

var nsRegexp = regexp.MustCompile("^[a-zA-Z0-9._-]+$")

// ValidateKey accepts non-empty keys made of ASCII letters, digits and keySymbols
func ValidateKey(key string) error {
	if len(key) == 0 {
		return errors.New("empty key")
	}
	for i, r := range key {
		if !isKeyRune(r) {
			return errors.Errorf("key '%s' is invalid: %#U at position [%d]", key, r, i)
		}
	}
	return nil
}

func ValidateNs(ns string) error {
	if len(ns) > maxNamespaceLength || !nsRegexp.MatchString(ns) {
		return errors.Errorf("namespace '%s' is invalid", ns)
	}
	return nil
}

func isKeyRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	default:
		return strings.ContainsRune(keySymbols, r)
	}
}
