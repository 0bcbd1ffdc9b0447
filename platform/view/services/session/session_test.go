/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"context"
	"testing"
	"time"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanSession struct {
	ch   chan *view.Message
	sent [][]byte
}

func newChanSession() *chanSession {
	return &chanSession{ch: make(chan *view.Message, 4)}
}

func (c *chanSession) Info() view.SessionInfo         { return view.SessionInfo{ID: "s1"} }
func (c *chanSession) Send(payload []byte) error      { c.sent = append(c.sent, payload); return nil }
func (c *chanSession) SendError(payload []byte) error { return c.Send(payload) }
func (c *chanSession) Receive() <-chan *view.Message  { return c.ch }
func (c *chanSession) Close()                         {}

func TestJSONRoundTrip(t *testing.T) {
	s := newChanSession()
	js := NewFromSession(context.Background(), s, time.Second)

	require.NoError(t, js.Send(map[string]int{"amount": 40}))
	assert.JSONEq(t, `{"amount":40}`, string(s.sent[0]))

	s.ch <- &view.Message{Status: view.OK, Payload: []byte(`{"amount":60}`)}
	var out map[string]int
	require.NoError(t, js.Receive(&out))
	assert.Equal(t, 60, out["amount"])
}

func TestReadMessageErrors(t *testing.T) {
	s := newChanSession()

	s.ch <- &view.Message{Status: view.ERROR, Payload: []byte("not the lender")}
	_, err := ReadMessageWithTimeout(s, time.Second)
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "not the lender", remote.Reason)

	_, err = ReadMessageWithTimeout(s, 10*time.Millisecond)
	assert.True(t, errors.Is(err, ErrTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ReadMessage(ctx, s, time.Second)
	assert.True(t, errors.Is(err, ErrContextDone))
}
