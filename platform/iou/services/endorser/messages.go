/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package endorser

import (
	"reflect"
	"time"

	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/contract"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/config"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/session"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
)

const sessionTimeoutKey = "session.timeout"

// Proposal carries a proposed change, signed by the initiator, to a counterparty
type Proposal struct {
	Tx *contract.SignedTransaction `json:"tx"`
}

// Endorsement is the answer of a counterparty that agrees with a proposal
type Endorsement struct {
	TxID      string        `json:"txId"`
	Signer    view.Identity `json:"signer"`
	Signature []byte        `json:"signature"`
}

type Status string

const (
	Committed Status = "committed"
	Aborted   Status = "aborted"
)

// Outcome closes an attempt: either the notarised transaction or the reason of the abort
type Outcome struct {
	Status Status                      `json:"status"`
	TxID   string                      `json:"txId"`
	Tx     *contract.SignedTransaction `json:"tx,omitempty"`
	Reason string                      `json:"reason,omitempty"`
}

// Ack confirms that a counterparty stored the notarised transaction
type Ack struct {
	TxID string `json:"txId"`
}

// sessionTimeout returns the configured time to wait for a counterparty, session.DefaultTimeout if unset
func sessionTimeout(context view.Context) time.Duration {
	s, err := context.GetService(reflect.TypeOf((*config.Provider)(nil)))
	if err != nil {
		return session.DefaultTimeout
	}
	cp := s.(*config.Provider)
	if !cp.IsSet(sessionTimeoutKey) || cp.GetDuration(sessionTimeoutKey) <= 0 {
		return session.DefaultTimeout
	}
	return cp.GetDuration(sessionTimeoutKey)
}
