/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package views

import (
	"encoding/json"

	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

// Query contains the input to look up an obligation
type Query struct {
	LinearID string
}

// QueryView returns the current version of an obligation as a *states.StateAndRef.
// The error wraps driver.ErrNotFound if the vault does not know it.
type QueryView struct {
	Query
}

func (q *QueryView) Call(context view.Context) (interface{}, error) {
	vault, err := services.GetVault(context)
	if err != nil {
		return nil, err
	}
	return vault.Query(q.LinearID)
}

type QueryViewFactory struct{}

func (f *QueryViewFactory) NewView(in []byte) (view.View, error) {
	v := &QueryView{}
	if err := json.Unmarshal(in, &v.Query); err != nil {
		return nil, errors.Wrap(err, "failed unmarshalling query input")
	}
	return v, nil
}

// ListView returns the current version of every obligation the node takes part in
type ListView struct{}

func (l *ListView) Call(context view.Context) (interface{}, error) {
	vault, err := services.GetVault(context)
	if err != nil {
		return nil, err
	}
	return vault.All()
}

type ListViewFactory struct{}

func (f *ListViewFactory) NewView([]byte) (view.View, error) {
	return &ListView{}, nil
}
