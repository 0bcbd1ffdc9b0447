/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package services

import (
	"context"
	"reflect"

	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/contract"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services/cash"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

// Vault stores the current version of every obligation the node takes part in
type Vault interface {
	// Query returns the current version of the obligation with the passed linear id.
	// It returns an error wrapping driver.ErrNotFound if there is none.
	Query(linearID string) (*states.StateAndRef, error)
	// All returns the current version of every obligation
	All() ([]*states.StateAndRef, error)
	// Store applies a notarised transaction: consumed versions are removed, produced ones added
	Store(tx *contract.SignedTransaction) error
	// Transaction returns a committed transaction
	Transaction(txID string) (*contract.SignedTransaction, error)
	// History returns the ids of the committed transactions that touched the passed obligation, oldest first
	History(linearID string) ([]string, error)
	// Reserve marks ref as the input of an attempt in flight.
	// It fails with driver.ErrPrecondition if ref is already reserved.
	Reserve(ref states.StateRef) error
	// Release drops a reservation made with Reserve
	Release(ref states.StateRef)
}

// Notary orders transactions and refuses those consuming an already consumed version
type Notary interface {
	Identity() view.Identity
	// Finalize verifies tx and returns it with the notary signature attached.
	// A double spend returns an error wrapping driver.ErrConflict.
	Finalize(ctx context.Context, tx *contract.SignedTransaction) (*contract.SignedTransaction, error)
}

// Wallet is the balance oracle of a node
type Wallet interface {
	// Balance returns the available balance in the passed currency
	Balance(currency string) (states.Amount, error)
	// Balances returns every balance of the node
	Balances() ([]cash.Balance, error)
	// Holds returns the funds reserved by the settlements in flight
	Holds() ([]cash.Hold, error)
	// Issue creates cash owned by the node
	Issue(amount states.Amount) error
	// Hold moves amount from available to on hold, under the passed reference
	Hold(ref string, amount states.Amount) error
	// Release gives back the funds held under ref
	Release(ref string) error
	// Debit removes the funds held under ref for good
	Debit(ref string) error
	// Credit adds amount to the available balance
	Credit(amount states.Amount) error
}

var (
	vaultType  = reflect.TypeOf((*Vault)(nil))
	notaryType = reflect.TypeOf((*Notary)(nil))
	walletType = reflect.TypeOf((*Wallet)(nil))
)

func GetVault(sp driver.ServiceProvider) (Vault, error) {
	s, err := sp.GetService(vaultType)
	if err != nil {
		return nil, errors.Wrap(err, "cannot get vault")
	}
	return s.(Vault), nil
}

func GetNotary(sp driver.ServiceProvider) (Notary, error) {
	s, err := sp.GetService(notaryType)
	if err != nil {
		return nil, errors.Wrap(err, "cannot get notary")
	}
	return s.(Notary), nil
}

func GetWallet(sp driver.ServiceProvider) (Wallet, error) {
	s, err := sp.GetService(walletType)
	if err != nil {
		return nil, errors.Wrap(err, "cannot get wallet")
	}
	return s.(Wallet), nil
}
