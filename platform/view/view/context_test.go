/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package view

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileRunViewOptions(t *testing.T) {
	opts, err := CompileRunViewOptions()
	require.NoError(t, err)
	assert.Equal(t, &RunViewOptions{}, opts)

	type key struct{}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	goCtx := context.WithValue(ctx, key{}, "settle")
	opts, err = CompileRunViewOptions(AsInitiator(), WithContext(goCtx), WithViewCall(func(Context) (interface{}, error) {
		return 40, nil
	}))
	require.NoError(t, err)
	assert.True(t, opts.AsInitiator)
	assert.True(t, opts.SameContext)
	assert.Equal(t, "settle", opts.Ctx.Value(key{}))
	res, err := opts.Call(nil)
	require.NoError(t, err)
	assert.Equal(t, 40, res)

	opts, err = CompileRunViewOptions(WithSameContext())
	require.NoError(t, err)
	assert.True(t, opts.SameContext)
	assert.Nil(t, opts.Ctx)

	_, err = CompileRunViewOptions(AsInitiator(), func(*RunViewOptions) error {
		return errors.New("invalid option")
	})
	assert.EqualError(t, err, "invalid option")
}
