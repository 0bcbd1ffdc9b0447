/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"

	"github.com/hyperledger-labs/obligation-smart-client/node"
)

func main() {
	if err := node.New().Execute(); err != nil {
		os.Exit(1)
	}
}
