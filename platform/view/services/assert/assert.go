/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package assert turns testify assertions into panics for code paths that
// cannot continue, such as service wiring and views run by the view manager,
// which recovers the panic into an error.
// Arguments of type func() are not part of the message: they run before panicking.
package assert

import (
	"fmt"

	"github.com/stretchr/testify/assert"
)

type panicking struct {
	releasers []func()
}

func (p *panicking) Errorf(format string, args ...interface{}) {
	for _, release := range p.releasers {
		release()
	}
	panic(fmt.Sprintf(format, args...))
}

// NoError panics if err is not nil
func NoError(err error, msgAndArgs ...interface{}) {
	t, ma := split(msgAndArgs)
	assert.NoError(t, err, ma...)
}

func NotNil(object interface{}, msgAndArgs ...interface{}) {
	t, ma := split(msgAndArgs)
	assert.NotNil(t, object, ma...)
}

func Equal(expected, actual interface{}, msgAndArgs ...interface{}) {
	t, ma := split(msgAndArgs)
	assert.Equal(t, expected, actual, ma...)
}

func True(value bool, msgAndArgs ...interface{}) {
	t, ma := split(msgAndArgs)
	assert.True(t, value, ma...)
}

func split(msgAndArgs []interface{}) (*panicking, []interface{}) {
	p := &panicking{}
	var ma []interface{}
	for _, arg := range msgAndArgs {
		if f, ok := arg.(func()); ok {
			p.releasers = append(p.releasers, f)
			continue
		}
		ma = append(ma, arg)
	}
	return p, ma
}
