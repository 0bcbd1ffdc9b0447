/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package assert

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestPanicsRunReleasers(t *testing.T) {
	released := false
	msg := recovered(func() {
		NoError(errors.New("failed"), "cannot proceed", func() { released = true })
	})
	require.True(t, released)
	require.Contains(t, msg, "cannot proceed")
	require.NotContains(t, msg, "0x")

	require.Panics(t, func() { Equal(1, 2) })
	require.Panics(t, func() { True(false) })
	require.Panics(t, func() { NotNil(nil) })
	require.NotPanics(t, func() {
		NoError(nil)
		Equal(1, 1)
		True(true)
		NotNil(&released)
	})
}

func recovered(f func()) (msg string) {
	defer func() {
		msg, _ = recover().(string)
	}()
	f()
	return ""
}
