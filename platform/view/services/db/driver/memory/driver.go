/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mem

import (
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver"
)

const Persistence = "memory"

type Driver struct{}

func (d *Driver) New(string, driver.Config) (driver.Persistence, error) {
	return New(), nil
}
