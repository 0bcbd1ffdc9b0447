/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"fmt"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/comm"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/session"
	"github.com/pkg/errors"
)

var (
	// ErrPrecondition signals a local check failed before any network interaction
	ErrPrecondition = errors.New("precondition failed")
	// ErrRejected signals the contract, or a counterparty, refused the proposed change
	ErrRejected = errors.New("proposed change rejected")
	// ErrConflict signals the notary saw an input already consumed by another transaction
	ErrConflict = errors.New("input already consumed")
	// ErrTransport signals a counterparty could not be reached in time
	ErrTransport = errors.New("transport failure")
	// ErrNotFound signals that no obligation exists with the requested id
	ErrNotFound = errors.New("not found")
)

// Preconditionf returns an error wrapping ErrPrecondition
func Preconditionf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrPrecondition, format, args...)
}

// AsTransportError maps session and endpoint failures to ErrTransport,
// remote errors to ErrRejected, and leaves any other error untouched.
func AsTransportError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	var remote *session.RemoteError
	switch {
	case errors.Is(err, ErrPrecondition), errors.Is(err, ErrRejected), errors.Is(err, ErrConflict), errors.Is(err, ErrTransport):
		return errors.WithMessage(err, msg)
	case errors.As(err, &remote):
		return errors.Wrapf(ErrRejected, "%s: %s", msg, remote.Reason)
	case errors.Is(err, session.ErrTimeout),
		errors.Is(err, session.ErrContextDone),
		errors.Is(err, comm.ErrSessionClosed),
		errors.Is(err, comm.ErrUnknownEndpoint):
		return errors.Wrapf(ErrTransport, "%s: %s", msg, err)
	}
	return errors.WithMessage(err, msg)
}
