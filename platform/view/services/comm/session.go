/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package comm

import (
	"sync"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
)

const incomingBufferSize = 64

// Session implements view.Session over the hub
type Session struct {
	endpoint     string
	node         *Endpoint
	pkid         []byte
	contextID    string
	sessionID    string
	caller       view.Identity
	callerViewID string

	incoming chan *view.Message
	closed   chan struct{}
	once     sync.Once
	onClose  func(*Session)
}

func newSession(node *Endpoint, sessionID, contextID, endpoint, callerViewID string, caller view.Identity, pkid []byte, onClose func(*Session)) *Session {
	return &Session{
		endpoint:     endpoint,
		node:         node,
		pkid:         pkid,
		contextID:    contextID,
		sessionID:    sessionID,
		caller:       caller,
		callerViewID: callerViewID,
		incoming:     make(chan *view.Message, incomingBufferSize),
		closed:       make(chan struct{}),
		onClose:      onClose,
	}
}

// Info returns a view.SessionInfo.
func (s *Session) Info() view.SessionInfo {
	return view.SessionInfo{
		ID:           s.sessionID,
		Caller:       s.caller,
		CallerViewID: s.callerViewID,
		Endpoint:     s.endpoint,
		EndpointPKID: s.pkid,
		Closed:       s.isClosed(),
	}
}

// Send sends the payload to the endpoint.
func (s *Session) Send(payload []byte) error {
	return s.sendWithStatus(payload, view.OK)
}

// SendError sends an error to the endpoint with the passed payload.
func (s *Session) SendError(payload []byte) error {
	return s.sendWithStatus(payload, view.ERROR)
}

// Receive returns a channel of messages received from the endpoint
func (s *Session) Receive() <-chan *view.Message {
	return s.incoming
}

// Close releases all the resources allocated by this session
func (s *Session) Close() {
	s.closeInternal()
}

func (s *Session) closeInternal() {
	s.once.Do(func() {
		close(s.closed)
		if s.onClose != nil {
			s.onClose(s)
		}
		logger.Debugf("session [%s] to [%s] closed", s.sessionID, s.endpoint)
	})
}

func (s *Session) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// enqueue returns false if the session is closed and the message was dropped
func (s *Session) enqueue(msg *view.Message) bool {
	if msg == nil || s.isClosed() {
		return false
	}
	select {
	case <-s.closed:
		return false
	case s.incoming <- msg:
		return true
	}
}

func (s *Session) sendWithStatus(payload []byte, status int32) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	err := s.node.send(s.endpoint, &view.Message{
		SessionID: s.sessionID,
		ContextID: s.contextID,
		Caller:    s.callerViewID,
		Status:    status,
		Payload:   payload,
	})
	logger.Debugf("sent message [len:%d] to [%s] from [%s] [status:%v] with err [%v]", len(payload), s.endpoint, s.callerViewID, status, err)
	return err
}
