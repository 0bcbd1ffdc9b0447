/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package db

import (
	"sort"
	"sync"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver/badger"
	mem "github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver/memory"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver/sql/postgres"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver/sql/sqlite"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("view-sdk.db")

var (
	driversMu sync.RWMutex
	drivers   = map[string]driver.Driver{
		mem.Persistence:      &mem.Driver{},
		badger.Persistence:   &badger.Driver{},
		sqlite.Persistence:   &sqlite.Driver{},
		postgres.Persistence: &postgres.Driver{},
	}
)

// Register makes a persistence driver available by the provided name.
// If Register is called twice with the same name or if driver is nil,
// it panics.
func Register(name string, driver driver.Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if driver == nil {
		panic("Register driver is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("Register called twice for driver " + name)
	}
	drivers[name] = driver
}

// Drivers returns a sorted list of the names of the registered drivers.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	list := make([]string, 0, len(drivers))
	for name := range drivers {
		list = append(list, name)
	}
	sort.Strings(list)
	return list
}

// Open returns a new persistence handle. Similarly to database/sql:
// driverName is a string that describes the driver
// name identifies the owner of the persistence, drivers use it to
// derive file names and tables.
func Open(driverName, name string, config driver.Config) (driver.Persistence, error) {
	driversMu.RLock()
	d, ok := drivers[driverName]
	driversMu.RUnlock()
	if !ok {
		return nil, errors.Errorf("driver [%s] not found", driverName)
	}
	p, err := d.New(name, config)
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening datasource [%s][%s]", driverName, name)
	}
	logger.Infof("opened [%s] persistence for [%s]", driverName, name)
	return p, nil
}
