/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package contract

import (
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"
	"github.com/pkg/errors"
)

const (
	IssueCommand    = "issue"
	TransferCommand = "transfer"
	SettleCommand   = "settle"
)

// Command tags a transaction with the transition it performs.
// The set of commands is closed: Issue, Transfer and Settle.
type Command interface {
	Name() string
	command()
}

// Issue creates a new obligation
type Issue struct{}

func (Issue) Name() string { return IssueCommand }
func (Issue) command()     {}

// Transfer moves an obligation to a new lender
type Transfer struct{}

func (Transfer) Name() string { return TransferCommand }
func (Transfer) command()     {}

// Settle pays Amount of an obligation back to its lender
type Settle struct {
	Amount states.Amount
}

func (Settle) Name() string { return SettleCommand }
func (Settle) command()     {}

type commandJSON struct {
	Type   string         `json:"type"`
	Amount *states.Amount `json:"amount,omitempty"`
}

func marshalCommand(c Command) (*commandJSON, error) {
	switch t := c.(type) {
	case nil:
		return nil, nil
	case Issue:
		return &commandJSON{Type: IssueCommand}, nil
	case Transfer:
		return &commandJSON{Type: TransferCommand}, nil
	case Settle:
		amount := t.Amount
		return &commandJSON{Type: SettleCommand, Amount: &amount}, nil
	default:
		return nil, errors.Errorf("unknown command [%T]", c)
	}
}

func unmarshalCommand(c *commandJSON) (Command, error) {
	if c == nil {
		return nil, nil
	}
	switch c.Type {
	case IssueCommand:
		return Issue{}, nil
	case TransferCommand:
		return Transfer{}, nil
	case SettleCommand:
		if c.Amount == nil {
			return nil, errors.New("settle command without amount")
		}
		return Settle{Amount: *c.Amount}, nil
	default:
		return nil, errors.Errorf("unknown command [%s]", c.Type)
	}
}
