/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services/vault"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
)

// Obligation is an IOU as exposed to clients, parties are named
type Obligation struct {
	LinearID    string          `json:"linearId"`
	Amount      states.Amount   `json:"amount"`
	Paid        states.Amount   `json:"paid"`
	Outstanding states.Amount   `json:"outstanding"`
	Lender      string          `json:"lender"`
	Borrower    string          `json:"borrower"`
	Ref         states.StateRef `json:"ref"`
}

// Event is pushed on the events stream for every committed transaction
type Event struct {
	TxID     string            `json:"txId"`
	Command  string            `json:"command"`
	LinearID string            `json:"linearId"`
	Consumed []states.StateRef `json:"consumed,omitempty"`
	Produced []Obligation      `json:"produced,omitempty"`
}

type namer interface {
	NameOf(identity view.Identity) string
}

func toObligation(n namer, s *states.StateAndRef) Obligation {
	return Obligation{
		LinearID:    s.State.LinearID,
		Amount:      s.State.Amount,
		Paid:        s.State.Paid,
		Outstanding: s.State.Outstanding(),
		Lender:      n.NameOf(s.State.Lender),
		Borrower:    n.NameOf(s.State.Borrower),
		Ref:         s.Ref,
	}
}

func toEvent(n namer, c vault.Committed) Event {
	e := Event{
		TxID:     c.TxID,
		Command:  c.Command,
		LinearID: c.LinearID,
		Consumed: c.Consumed,
	}
	for i := range c.Produced {
		e.Produced = append(e.Produced, toObligation(n, &c.Produced[i]))
	}
	return e
}
