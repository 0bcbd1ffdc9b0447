/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/hash"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

var logger = logging.MustGetLogger("view-sdk.session.json")

type jsonSession struct {
	s       Session
	context context.Context
	timeout time.Duration
}

// NewJSON opens a session to the passed party exchanging JSON values
func NewJSON(context view.Context, caller view.View, party view.Identity) (*jsonSession, error) {
	s, err := context.GetSession(caller, party)
	if err != nil {
		return nil, err
	}
	return &jsonSession{s: s, context: context.Context(), timeout: DefaultTimeout}, nil
}

// JSON wraps the session the context is responding on
func JSON(context view.Context) *jsonSession {
	return &jsonSession{s: context.Session(), context: context.Context(), timeout: DefaultTimeout}
}

// NewFromSession wraps an already open session
func NewFromSession(ctx context.Context, s Session, timeout time.Duration) *jsonSession {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &jsonSession{s: s, context: ctx, timeout: timeout}
}

func (j *jsonSession) Receive(state interface{}) error {
	return j.ReceiveWithTimeout(state, j.timeout)
}

func (j *jsonSession) ReceiveWithTimeout(state interface{}, d time.Duration) error {
	raw, err := j.ReceiveRawWithTimeout(d)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, state); err != nil {
		return errors.Wrapf(err, "failed unmarshalling message [%s]", hash.Hashable(raw))
	}
	return nil
}

func (j *jsonSession) ReceiveRawWithTimeout(d time.Duration) ([]byte, error) {
	raw, err := ReadMessage(j.context, j.s, d)
	if err != nil {
		return nil, err
	}
	if logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("json session, received message [%s]", hash.Hashable(raw))
	}
	return raw, nil
}

func (j *jsonSession) Send(state interface{}) error {
	v, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "failed marshalling message")
	}
	if logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("json session, send message [%s]", hash.Hashable(v))
	}
	return j.s.Send(v)
}

func (j *jsonSession) SendError(err string) error {
	logger.Debugf("json session, send error [%s]", err)
	return j.s.SendError([]byte(err))
}

func (j *jsonSession) Session() Session {
	return j.s
}
