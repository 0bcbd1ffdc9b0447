/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"context"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
)

// SessionFactory is used to create new communication sessions
type SessionFactory interface {
	// NewSessionWithID returns the session with the passed id, creating it if needed
	NewSessionWithID(sessionID, contextID, endpoint string, pkid []byte, caller view.Identity, msg *view.Message) (view.Session, error)
	// NewSession opens a new session towards the passed endpoint on behalf of the caller view
	NewSession(caller string, contextID string, endpoint string, pkid []byte) (view.Session, error)
	// DeleteSessions closes and forgets the session with the passed id
	DeleteSessions(ctx context.Context, sessionID string)
}

// CommLayer extends SessionFactory with the master session on which
// the first message of every new remote session is announced
type CommLayer interface {
	SessionFactory
	MasterSession() (view.Session, error)
}
