/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package contract

import (
	"encoding/hex"
	"encoding/json"

	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/hash"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

// Payment is the cash leg of a settlement
type Payment struct {
	Payer  view.Identity `json:"payer"`
	Payee  view.Identity `json:"payee"`
	Amount states.Amount `json:"amount"`
}

// Transaction is a proposed change: the versions it consumes, the versions it produces,
// the command and the keys that must sign it.
// The With methods return modified copies, a Transaction is never changed in place.
type Transaction struct {
	Inputs  []states.StateAndRef
	Outputs []states.IOU
	Command Command
	Signers []view.Identity
	Payment *Payment
	Notary  view.Identity
}

func NewTransaction(notary view.Identity) Transaction {
	return Transaction{Notary: notary}
}

func (t Transaction) WithInput(in states.StateAndRef) Transaction {
	res := t.clone()
	res.Inputs = append(res.Inputs, in)
	return res
}

func (t Transaction) WithOutput(out states.IOU) Transaction {
	res := t.clone()
	res.Outputs = append(res.Outputs, out)
	return res
}

// WithCommand sets the command and the keys required to sign for it
func (t Transaction) WithCommand(c Command, signers ...view.Identity) Transaction {
	res := t.clone()
	res.Command = c
	res.Signers = view.Identities(signers).Set()
	return res
}

func (t Transaction) WithPayment(p Payment) Transaction {
	res := t.clone()
	res.Payment = &p
	return res
}

// Participants returns every party of the consumed and produced obligations, without duplicates
func (t Transaction) Participants() []view.Identity {
	var ids view.Identities
	for _, in := range t.Inputs {
		ids = append(ids, in.State.Participants()...)
	}
	for _, out := range t.Outputs {
		ids = append(ids, out.Participants()...)
	}
	return ids.Set()
}

// LinearID returns the id of the obligation the transaction is about
func (t Transaction) LinearID() string {
	if len(t.Inputs) != 0 {
		return t.Inputs[0].State.LinearID
	}
	if len(t.Outputs) != 0 {
		return t.Outputs[0].LinearID
	}
	return ""
}

// ID is the hex encoded SHA-256 of the JSON encoding
func (t Transaction) ID() (string, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.SHA256OrPanic(raw)), nil
}

func (t Transaction) clone() Transaction {
	res := t
	res.Inputs = append([]states.StateAndRef(nil), t.Inputs...)
	res.Outputs = append([]states.IOU(nil), t.Outputs...)
	res.Signers = append([]view.Identity(nil), t.Signers...)
	if t.Payment != nil {
		p := *t.Payment
		res.Payment = &p
	}
	return res
}

type transactionJSON struct {
	Inputs  []states.StateAndRef `json:"inputs"`
	Outputs []states.IOU         `json:"outputs"`
	Command *commandJSON         `json:"command"`
	Signers []view.Identity      `json:"signers"`
	Payment *Payment             `json:"payment,omitempty"`
	Notary  view.Identity        `json:"notary"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	c, err := marshalCommand(t.Command)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&transactionJSON{
		Inputs:  t.Inputs,
		Outputs: t.Outputs,
		Command: c,
		Signers: t.Signers,
		Payment: t.Payment,
		Notary:  t.Notary,
	})
}

func (t *Transaction) UnmarshalJSON(raw []byte) error {
	var w transactionJSON
	if err := json.Unmarshal(raw, &w); err != nil {
		return err
	}
	c, err := unmarshalCommand(w.Command)
	if err != nil {
		return errors.Wrap(err, "failed decoding command")
	}
	*t = Transaction{
		Inputs:  w.Inputs,
		Outputs: w.Outputs,
		Command: c,
		Signers: w.Signers,
		Payment: w.Payment,
		Notary:  w.Notary,
	}
	return nil
}
