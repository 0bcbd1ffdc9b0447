/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"github.com/hyperledger-labs/obligation-smart-client/node/start"
	"github.com/hyperledger-labs/obligation-smart-client/node/version"
	"github.com/spf13/cobra"
)

const (
	cmdName = "iou"
	cmdDesc = "Run a network of parties lending to each other."
)

// New returns the root command
func New() *cobra.Command {
	mainCmd := &cobra.Command{
		Use:   cmdName,
		Short: cmdDesc,
		Long:  cmdDesc,
	}

	mainCmd.AddCommand(version.Cmd())
	mainCmd.AddCommand(start.Cmd())
	return mainCmd
}
