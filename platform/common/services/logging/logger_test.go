/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestReplace(t *testing.T) {
	assert.Equal(t, "osc.iou.views", replace("github.com/hyperledger-labs/obligation-smart-client/platform/iou/views"))
	assert.Equal(t, "other.pkg", replace("other/pkg"))
}

func TestBase64(t *testing.T) {
	assert.Equal(t, "aGVsbG8=", Base64([]byte("hello")).String())
}

func TestTestLogger(t *testing.T) {
	l, recorder := NewTestLogger(t)
	l.Infof("settled %d of %d", 40, 100)
	assert.True(t, l.IsEnabledFor(zapcore.InfoLevel))
	assert.Len(t, recorder.MessagesContaining("settled 40 of 100"), 1)

	l.With("command", "settle").Named("views").Warnf("declined")
	assert.Len(t, recorder.MessagesContaining("declined"), 1)
}
