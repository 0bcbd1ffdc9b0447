/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package contract

import (
	"fmt"

	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
)

// RejectedError carries the reason a transaction was rejected
type RejectedError struct {
	Command string
	Reason  string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Command, driver.ErrRejected, e.Reason)
}

func (e *RejectedError) Unwrap() error {
	return driver.ErrRejected
}

func reject(c string, format string, args ...interface{}) error {
	return &RejectedError{Command: c, Reason: fmt.Sprintf(format, args...)}
}

// Verify accepts (nil) or rejects (*RejectedError) the passed transaction.
// It only looks at the transaction itself, so every party reaches the same verdict.
func Verify(tx Transaction) error {
	switch c := tx.Command.(type) {
	case Issue:
		return verifyIssue(tx)
	case Transfer:
		return verifyTransfer(tx)
	case Settle:
		return verifySettle(tx, c)
	case nil:
		return reject("none", "no command")
	default:
		return reject(c.Name(), "unknown command")
	}
}

func verifyIssue(tx Transaction) error {
	const c = IssueCommand
	if len(tx.Inputs) != 0 {
		return reject(c, "no inputs should be consumed when issuing an obligation")
	}
	if len(tx.Outputs) != 1 {
		return reject(c, "only one output state should be created when issuing an obligation")
	}
	out := tx.Outputs[0]
	if err := checkWellFormed(c, out); err != nil {
		return err
	}
	if !out.Amount.IsPositive() {
		return reject(c, "a newly issued obligation must have a positive amount")
	}
	if !out.Paid.IsZero() {
		return reject(c, "a newly issued obligation must have nothing paid")
	}
	if out.Lender.Equal(out.Borrower) {
		return reject(c, "the lender and borrower cannot have the same identity")
	}
	if tx.Payment != nil {
		return reject(c, "issuance carries no payment")
	}
	if !view.Identities(tx.Signers).Match(out.Participants()) {
		return reject(c, "both lender and borrower together only may sign obligation issue transaction")
	}
	return nil
}

func verifyTransfer(tx Transaction) error {
	const c = TransferCommand
	if len(tx.Inputs) != 1 {
		return reject(c, "an obligation transfer transaction should only consume one input state")
	}
	if len(tx.Outputs) != 1 {
		return reject(c, "an obligation transfer transaction should only create one output state")
	}
	in, out := tx.Inputs[0].State, tx.Outputs[0]
	if err := checkWellFormed(c, out); err != nil {
		return err
	}
	if in.LinearID != out.LinearID {
		return reject(c, "the linear id cannot change")
	}
	if !in.Amount.Equal(out.Amount) || !in.Paid.Equal(out.Paid) || !in.Borrower.Equal(out.Borrower) {
		return reject(c, "only the lender property may change")
	}
	if in.Lender.Equal(out.Lender) {
		return reject(c, "the lender property must change in a transfer")
	}
	if out.Lender.Equal(out.Borrower) {
		return reject(c, "the new lender cannot be the borrower")
	}
	if tx.Payment != nil {
		return reject(c, "a transfer carries no payment")
	}
	if !view.Identities(tx.Signers).Match([]view.Identity{in.Lender, in.Borrower, out.Lender}) {
		return reject(c, "the borrower, old lender and new lender only must sign an obligation transfer transaction")
	}
	return nil
}

func verifySettle(tx Transaction, cmd Settle) error {
	const c = SettleCommand
	if len(tx.Inputs) != 1 {
		return reject(c, "there must be one input obligation")
	}
	in := tx.Inputs[0].State
	if !cmd.Amount.IsPositive() {
		return reject(c, "the settled amount must be positive")
	}
	if !cmd.Amount.SameCurrency(in.Amount) {
		return reject(c, "the settled amount must be in %s", in.Amount.Currency)
	}
	if cmd.Amount.Cmp(in.Outstanding()) > 0 {
		return reject(c, "the settled amount %s exceeds the outstanding %s", cmd.Amount, in.Outstanding())
	}
	expected := in.Pay(cmd.Amount)

	switch len(tx.Outputs) {
	case 0:
		if !expected.IsFullyPaid() {
			return reject(c, "there must be one output obligation when settling partially")
		}
	case 1:
		out := tx.Outputs[0]
		if err := checkWellFormed(c, out); err != nil {
			return err
		}
		if expected.IsFullyPaid() {
			return reject(c, "there must be no output obligation as it has been fully settled")
		}
		if out.LinearID != in.LinearID || !out.Lender.Equal(in.Lender) || !out.Borrower.Equal(in.Borrower) || !out.Amount.Equal(in.Amount) {
			return reject(c, "only the paid property may change")
		}
		if !out.Paid.Equal(expected.Paid) {
			return reject(c, "the paid property must increase by %s", cmd.Amount)
		}
	default:
		return reject(c, "there must be at most one output obligation")
	}

	if p := tx.Payment; p != nil {
		if !p.Amount.Equal(cmd.Amount) {
			return reject(c, "the payment %s does not match the settled amount %s", p.Amount, cmd.Amount)
		}
		if !p.Payer.Equal(in.Borrower) || !p.Payee.Equal(in.Lender) {
			return reject(c, "the borrower must pay the lender")
		}
	}
	if !view.Identities(tx.Signers).ContainsAll(in.Lender, in.Borrower) {
		return reject(c, "both lender and borrower must sign obligation settle transaction")
	}
	return nil
}

func checkWellFormed(c string, out states.IOU) error {
	if len(out.LinearID) == 0 {
		return reject(c, "missing linear id")
	}
	if out.Lender.IsNone() || out.Borrower.IsNone() {
		return reject(c, "missing lender or borrower")
	}
	if !out.Amount.SameCurrency(out.Paid) {
		return reject(c, "amount and paid must be in the same currency")
	}
	if out.Paid.Quantity.IsNegative() || out.Paid.Cmp(out.Amount) > 0 {
		return reject(c, "paid must be between zero and the amount")
	}
	return nil
}
