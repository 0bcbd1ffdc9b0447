/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import "github.com/hyperledger-labs/obligation-smart-client/platform/view/view"

// Factory is used to create instances of a View from its JSON encoded input
type Factory interface {
	// NewView returns an instance of the view, in may be nil
	NewView(in []byte) (view.View, error)
}
