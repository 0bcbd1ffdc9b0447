/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package registry

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter interface {
	Greet() string
}

type english struct{}

func (e *english) Greet() string { return "hello" }

type counter struct{ n int }

func TestServiceProvider(t *testing.T) {
	sp := New()
	require.NoError(t, sp.RegisterService(&english{}))
	require.NoError(t, sp.RegisterService(&counter{n: 3}))

	s, err := sp.GetService(reflect.TypeOf((*greeter)(nil)))
	require.NoError(t, err)
	assert.Equal(t, "hello", s.(greeter).Greet())

	s, err = sp.GetService(&counter{})
	require.NoError(t, err)
	assert.Equal(t, 3, s.(*counter).n)

	_, err = sp.GetService(reflect.TypeOf((*error)(nil)))
	assert.True(t, errors.Is(err, ServiceNotFound))

	assert.Error(t, sp.RegisterService(nil))
}

func TestGetIdentifier(t *testing.T) {
	assert.Equal(t, "github.com/hyperledger-labs/obligation-smart-client/platform/view/services/registry/english", GetIdentifier(&english{}))
	assert.Equal(t, "counter", GetName(counter{}))
	assert.Equal(t, "<nil>", GetIdentifier(nil))
}
