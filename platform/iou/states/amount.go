/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package states

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Amount is a non-negative quantity of an ISO-4217 currency
type Amount struct {
	Quantity decimal.Decimal `json:"quantity"`
	Currency string          `json:"currency"`
}

// NewAmount checks that the currency is a known ISO code and that the quantity is not negative
func NewAmount(quantity decimal.Decimal, code string) (Amount, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return Amount{}, errors.Wrapf(err, "invalid currency [%s]", code)
	}
	if quantity.IsNegative() {
		return Amount{}, errors.Errorf("negative quantity [%s]", quantity)
	}
	return Amount{Quantity: quantity, Currency: unit.String()}, nil
}

// ParseAmount parses a decimal quantity such as "12.50"
func ParseAmount(quantity string, code string) (Amount, error) {
	q, err := decimal.NewFromString(quantity)
	if err != nil {
		return Amount{}, errors.Wrapf(err, "invalid quantity [%s]", quantity)
	}
	return NewAmount(q, code)
}

// MustAmount is ParseAmount panicking on error
func MustAmount(quantity string, code string) Amount {
	a, err := ParseAmount(quantity, code)
	if err != nil {
		panic(err)
	}
	return a
}

// Zero returns the zero amount of the passed currency
func Zero(code string) Amount {
	return Amount{Quantity: decimal.Zero, Currency: code}
}

func (a Amount) SameCurrency(b Amount) bool {
	return a.Currency == b.Currency
}

func (a Amount) Plus(b Amount) (Amount, error) {
	if !a.SameCurrency(b) {
		return Amount{}, errors.Errorf("currency mismatch [%s]!=[%s]", a.Currency, b.Currency)
	}
	return Amount{Quantity: a.Quantity.Add(b.Quantity), Currency: a.Currency}, nil
}

// Minus returns a-b, the result can be negative
func (a Amount) Minus(b Amount) (Amount, error) {
	if !a.SameCurrency(b) {
		return Amount{}, errors.Errorf("currency mismatch [%s]!=[%s]", a.Currency, b.Currency)
	}
	return Amount{Quantity: a.Quantity.Sub(b.Quantity), Currency: a.Currency}, nil
}

// Cmp compares the quantities, the currencies are not checked
func (a Amount) Cmp(b Amount) int {
	return a.Quantity.Cmp(b.Quantity)
}

// Equal returns true if both the currency and the quantity match, 1.50 equals 1.5
func (a Amount) Equal(b Amount) bool {
	return a.SameCurrency(b) && a.Quantity.Equal(b.Quantity)
}

func (a Amount) IsPositive() bool {
	return a.Quantity.IsPositive()
}

func (a Amount) IsZero() bool {
	return a.Quantity.IsZero()
}

func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.Quantity.String(), a.Currency)
}
