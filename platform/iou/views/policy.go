/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package views

import (
	"reflect"

	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/contract"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

// Policy lets a node decline proposals the contract accepts
type Policy interface {
	Check(tx *contract.SignedTransaction) error
}

type PolicyFunc func(tx *contract.SignedTransaction) error

func (f PolicyFunc) Check(tx *contract.SignedTransaction) error {
	return f(tx)
}

var policyType = reflect.TypeOf((*Policy)(nil))

// checkPolicy runs the registered policy, if any
func checkPolicy(context view.Context, tx *contract.SignedTransaction) error {
	s, err := context.GetService(policyType)
	if err != nil {
		return nil
	}
	if err := s.(Policy).Check(tx); err != nil {
		return errors.Wrapf(driver.ErrRejected, "[%s] declined by policy: %s", tx.ID(), err)
	}
	return nil
}
