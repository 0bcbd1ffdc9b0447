/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package states

import (
	"fmt"

	"github.com/hyperledger-labs/obligation-smart-client/pkg/utils"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
)

// IOU records that Borrower owes Amount to Lender, of which Paid has been settled.
// All the versions of the same obligation share the LinearID.
type IOU struct {
	LinearID string        `json:"linearId"`
	Amount   Amount        `json:"amount"`
	Paid     Amount        `json:"paid"`
	Lender   view.Identity `json:"lender"`
	Borrower view.Identity `json:"borrower"`
}

// NewIOU returns a fresh obligation with nothing paid
func NewIOU(amount Amount, lender, borrower view.Identity) IOU {
	return IOU{
		LinearID: utils.GenerateUUID(),
		Amount:   amount,
		Paid:     Zero(amount.Currency),
		Lender:   lender,
		Borrower: borrower,
	}
}

// Pay returns a copy with amount added to Paid.
// Nothing is checked here, the contract rejects overpayments.
func (i IOU) Pay(amount Amount) IOU {
	res := i
	res.Paid = Amount{Quantity: i.Paid.Quantity.Add(amount.Quantity), Currency: i.Paid.Currency}
	return res
}

// WithNewLender returns a copy owed to party
func (i IOU) WithNewLender(party view.Identity) IOU {
	res := i
	res.Lender = party
	return res
}

// Participants returns the parties that must know about this obligation
func (i IOU) Participants() []view.Identity {
	return []view.Identity{i.Lender, i.Borrower}
}

// Outstanding returns what is left to pay
func (i IOU) Outstanding() Amount {
	return Amount{Quantity: i.Amount.Quantity.Sub(i.Paid.Quantity), Currency: i.Amount.Currency}
}

func (i IOU) IsFullyPaid() bool {
	return i.Paid.Quantity.Equal(i.Amount.Quantity)
}

// Equal compares every field, quantities are compared by value
func (i IOU) Equal(o IOU) bool {
	return i.LinearID == o.LinearID &&
		i.Amount.Equal(o.Amount) &&
		i.Paid.Equal(o.Paid) &&
		i.Lender.Equal(o.Lender) &&
		i.Borrower.Equal(o.Borrower)
}

func (i IOU) String() string {
	return fmt.Sprintf("iou [%s] %s paid %s, lender [%s] borrower [%s]", i.LinearID, i.Amount, i.Paid, i.Lender, i.Borrower)
}

// StateRef points to the output of a committed transaction
type StateRef struct {
	TxID  string `json:"txId"`
	Index int    `json:"index"`
}

func (r StateRef) String() string {
	return fmt.Sprintf("%s:%d", r.TxID, r.Index)
}

// StateAndRef is a version of an obligation together with where it was produced
type StateAndRef struct {
	State IOU      `json:"state"`
	Ref   StateRef `json:"ref"`
}
