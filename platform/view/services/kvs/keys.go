/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package kvs

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const (
	keyDelimiter = "\x00"
	// rangeEnd sorts after any valid attribute
	rangeEnd = string(utf8.MaxRune)
)

// CreateCompositeKey builds \x00prefix\x00attr1\x00...attrN\x00.
// Keys sharing a prefix and leading attributes sort next to each other.
func CreateCompositeKey(prefix string, attributes []string) (string, error) {
	var sb strings.Builder
	sb.WriteString(keyDelimiter)
	for _, part := range append([]string{prefix}, attributes...) {
		if err := checkAttribute(part); err != nil {
			return "", err
		}
		sb.WriteString(part)
		sb.WriteString(keyDelimiter)
	}
	return sb.String(), nil
}

func CreateCompositeKeyOrPanic(prefix string, attributes []string) string {
	k, err := CreateCompositeKey(prefix, attributes)
	if err != nil {
		panic(err)
	}
	return k
}

// CreateRangeKeysForPartialCompositeKey returns the [start, end) range covering every
// composite key that starts with the given prefix and attributes
func CreateRangeKeysForPartialCompositeKey(prefix string, attributes []string) (string, string, error) {
	start, err := CreateCompositeKey(prefix, attributes)
	if err != nil {
		return "", "", err
	}
	return start, start + rangeEnd, nil
}

func checkAttribute(s string) error {
	if !utf8.ValidString(s) {
		return errors.Errorf("composite key attribute [%x] is not valid utf8", s)
	}
	if i := strings.IndexAny(s, keyDelimiter+rangeEnd); i >= 0 {
		return errors.Errorf("composite key attribute [%s] contains a reserved rune at position [%d]", s, i)
	}
	return nil
}
