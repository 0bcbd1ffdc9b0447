/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package badger

import (
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver/common"
)

type Driver struct{}

// New opens a badger database in the folder named by opts.dataSource
func (d *Driver) New(name string, config driver.Config) (driver.Persistence, error) {
	opts, err := common.GetOpts(name, config)
	if err != nil {
		return nil, err
	}
	logger.Infof("opening badger persistence at [%s], in memory [%v]", opts.DataSource, opts.InMemory)
	return OpenDB(Opts{Path: opts.DataSource, InMemory: opts.InMemory})
}
