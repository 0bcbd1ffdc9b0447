/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package comm

import (
	"context"
	"sync"

	"github.com/hyperledger-labs/obligation-smart-client/pkg/utils"
	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/metrics"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"go.uber.org/zap/zapcore"
)

const masterSession = "master of puppets I'm pulling your strings"

// Endpoint is the communication layer of a single node
type Endpoint struct {
	hub     *Hub
	address string
	pkid    []byte

	sessionsMutex sync.Mutex
	sessions      map[string]*Session
	master        *Session

	m *Metrics
}

func newEndpoint(hub *Hub, address string, pkid []byte, metricsProvider metrics.Provider) *Endpoint {
	e := &Endpoint{
		hub:      hub,
		address:  address,
		pkid:     pkid,
		sessions: map[string]*Session{},
		m:        newMetrics(metricsProvider),
	}
	e.master = newSession(e, masterSession, "", "", "", nil, nil, nil)
	return e
}

// Address returns the address this endpoint is reachable at
func (e *Endpoint) Address() string {
	return e.address
}

// NewSession opens a fresh session towards the passed endpoint on behalf of the caller view
func (e *Endpoint) NewSession(callerViewID string, contextID string, endpoint string, pkid []byte) (view.Session, error) {
	if logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("[%s] new session [%s,%s,%s,%s]", e.address, callerViewID, contextID, endpoint, logging.Base64(pkid))
	}
	return e.getOrCreateSession(utils.GenerateUUID(), endpoint, contextID, callerViewID, nil, pkid, nil), nil
}

// NewSessionWithID returns the session with the passed id towards the passed endpoint,
// pushing the passed message, if any, when the session is created
func (e *Endpoint) NewSessionWithID(sessionID, contextID, endpoint string, pkid []byte, caller view.Identity, msg *view.Message) (view.Session, error) {
	return e.getOrCreateSession(sessionID, endpoint, contextID, "", caller, pkid, msg), nil
}

// MasterSession returns the session on which first messages of unknown sessions are announced
func (e *Endpoint) MasterSession() (view.Session, error) {
	return e.master, nil
}

// DeleteSessions closes and removes every session with the passed id
func (e *Endpoint) DeleteSessions(_ context.Context, sessionID string) {
	e.sessionsMutex.Lock()
	var toClose []*Session
	for key, s := range e.sessions {
		if s.sessionID == sessionID {
			toClose = append(toClose, s)
			delete(e.sessions, key)
		}
	}
	e.m.Sessions.Set(float64(len(e.sessions)))
	e.sessionsMutex.Unlock()

	for _, s := range toClose {
		s.closeInternal()
	}
}

func (e *Endpoint) getOrCreateSession(sessionID, endpoint, contextID, callerViewID string, caller view.Identity, pkid []byte, msg *view.Message) *Session {
	e.sessionsMutex.Lock()
	defer e.sessionsMutex.Unlock()

	key := internalSessionID(sessionID, endpoint)
	if s, ok := e.sessions[key]; ok && !s.isClosed() {
		logger.Debugf("[%s] session [%s] exists, returning it", e.address, key)
		return s
	}

	s := newSession(e, sessionID, contextID, endpoint, callerViewID, caller, pkid, e.remove)
	if msg != nil {
		logger.Debugf("[%s] pushing first message to [%s], [%s]", e.address, key, msg)
		s.enqueue(msg)
	}
	e.sessions[key] = s
	e.m.Sessions.Set(float64(len(e.sessions)))
	return s
}

func (e *Endpoint) remove(s *Session) {
	e.sessionsMutex.Lock()
	defer e.sessionsMutex.Unlock()

	key := internalSessionID(s.sessionID, s.endpoint)
	if current, ok := e.sessions[key]; ok && current == s {
		delete(e.sessions, key)
		e.m.Sessions.Set(float64(len(e.sessions)))
	}
}

// dispatch routes an incoming message to its session.
// The first message of a session opened by a remote initiator goes to the master session.
func (e *Endpoint) dispatch(msg *view.Message) {
	e.sessionsMutex.Lock()
	s, ok := e.sessions[internalSessionID(msg.SessionID, msg.FromEndpoint)]
	e.sessionsMutex.Unlock()

	switch {
	case ok:
		if !s.enqueue(msg) {
			logger.Warnf("[%s] session [%s] closed, dropping message %s", e.address, msg.SessionID, msg)
		}
	case len(msg.Caller) != 0:
		logger.Debugf("[%s] new session [%s] from [%s], redirect to master", e.address, msg.SessionID, msg.FromEndpoint)
		e.master.enqueue(msg)
	default:
		logger.Warnf("[%s] no session [%s] for message from [%s], dropping it", e.address, msg.SessionID, msg.FromEndpoint)
	}
}

func (e *Endpoint) send(to string, msg *view.Message) error {
	msg.FromEndpoint = e.address
	msg.FromPKID = e.pkid
	return e.hub.deliver(to, msg)
}

func internalSessionID(sessionID, endpoint string) string {
	return sessionID + "@" + endpoint
}
