/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package views

import (
	"encoding/json"

	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services/cash"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

// SelfIssueCash contains the amount of cash a node creates for itself
type SelfIssueCash struct {
	Amount states.Amount
}

// SelfIssueCashView credits the local wallet and returns the new available balance
type SelfIssueCashView struct {
	SelfIssueCash
}

func (s *SelfIssueCashView) Call(context view.Context) (interface{}, error) {
	if !s.Amount.IsPositive() {
		return nil, driver.Preconditionf("the issued amount must be positive, got %s", s.Amount)
	}
	wallet, err := services.GetWallet(context)
	if err != nil {
		return nil, err
	}
	if err := wallet.Issue(s.Amount); err != nil {
		return nil, err
	}
	return wallet.Balance(s.Amount.Currency)
}

type SelfIssueCashViewFactory struct{}

func (f *SelfIssueCashViewFactory) NewView(in []byte) (view.View, error) {
	v := &SelfIssueCashView{}
	if err := json.Unmarshal(in, &v.SelfIssueCash); err != nil {
		return nil, errors.Wrap(err, "failed unmarshalling cash input")
	}
	return v, nil
}

// BalancesView returns the cash balances of the node
type BalancesView struct{}

func (b *BalancesView) Call(context view.Context) (interface{}, error) {
	wallet, err := services.GetWallet(context)
	if err != nil {
		return nil, err
	}
	return wallet.Balances()
}

type BalancesViewFactory struct{}

func (f *BalancesViewFactory) NewView([]byte) (view.View, error) {
	return &BalancesView{}, nil
}

// Cash is the content of a wallet: the balances and the funds held by settlements in flight
type Cash struct {
	Balances []cash.Balance `json:"balances"`
	Holds    []cash.Hold    `json:"holds"`
}

type CashView struct{}

func (c *CashView) Call(context view.Context) (interface{}, error) {
	wallet, err := services.GetWallet(context)
	if err != nil {
		return nil, err
	}
	res := &Cash{Balances: []cash.Balance{}, Holds: []cash.Hold{}}
	balances, err := wallet.Balances()
	if err != nil {
		return nil, err
	}
	holds, err := wallet.Holds()
	if err != nil {
		return nil, err
	}
	res.Balances = append(res.Balances, balances...)
	res.Holds = append(res.Holds, holds...)
	return res, nil
}

type CashViewFactory struct{}

func (f *CashViewFactory) NewView([]byte) (view.View, error) {
	return &CashView{}, nil
}
