/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

const DefaultTimeout = 30 * time.Second

var (
	// ErrTimeout is returned when no message arrives in time
	ErrTimeout = errors.New("time out reached")
	// ErrContextDone is returned when the context is cancelled while waiting for a message
	ErrContextDone = errors.New("context done")
)

type Session interface {
	view.Session
}

// RemoteError carries the payload of a message received with status ERROR
type RemoteError struct {
	Reason string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("received error from remote [%s]", e.Reason)
}

// ReadMessage waits for the next message on the session.
// A message with status ERROR is returned as a *RemoteError.
func ReadMessage(ctx context.Context, session Session, d time.Duration) ([]byte, error) {
	timeout := time.NewTimer(d)
	defer timeout.Stop()

	select {
	case msg := <-session.Receive():
		if msg == nil {
			return nil, errors.New("received nil message")
		}
		if msg.Status == view.ERROR {
			return nil, &RemoteError{Reason: string(msg.Payload)}
		}
		return msg.Payload, nil
	case <-timeout.C:
		return nil, errors.Wrapf(ErrTimeout, "waiting %s on session [%s]", d, session.Info().ID)
	case <-ctx.Done():
		return nil, errors.Wrapf(ErrContextDone, "[%s]", ctx.Err())
	}
}

func ReadMessageWithTimeout(session Session, d time.Duration) ([]byte, error) {
	return ReadMessage(context.Background(), session, d)
}

// ReadFirstMessage reads the first message sent by the initiator of the responder's session
func ReadFirstMessage(context view.Context) (Session, []byte, error) {
	session := context.Session()
	if session == nil {
		return nil, nil, errors.New("no session to read from, the context is not a responder's one")
	}
	payload, err := ReadMessage(context.Context(), session, DefaultTimeout)
	if err != nil {
		return nil, nil, err
	}
	return session, payload, nil
}
