/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package errors

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var (
	errFirst  = errors.New("first")
	errSecond = errors.New("second")
)

func TestWrapfNesting(t *testing.T) {
	err := Wrapf(Wrapf(errFirst, "some error"), "other error")
	assert.True(t, HasCause(err, errFirst))
	assert.False(t, HasCause(err, errSecond))
	assert.False(t, HasCause(nil, errFirst))
}
