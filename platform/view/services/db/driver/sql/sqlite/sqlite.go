/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver/common"
	common2 "github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver/sql/common"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	Persistence = "sqlite"
	driverName  = "sqlite"
)

var logger = logging.MustGetLogger("view-sdk.db.sqlite")

const defaultPragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

var dialect = common2.Dialect{
	CreateTable: `CREATE TABLE IF NOT EXISTS %s (
		ns TEXT NOT NULL,
		pkey BLOB NOT NULL,
		val BLOB NOT NULL,
		PRIMARY KEY (ns, pkey)
	);`,
}

type Driver struct{}

func (d *Driver) New(name string, config driver.Config) (driver.Persistence, error) {
	opts, err := common.GetOpts(name, config)
	if err != nil {
		return nil, err
	}
	return NewPersistence(opts, tableName(name))
}

// NewPersistence opens the sqlite file and creates the table if needed.
// Writes go through a single connection, reads use up to opts.MaxOpenConns.
func NewPersistence(opts common.Opts, table string) (*common2.KeyValueStore, error) {
	if len(opts.DataSource) == 0 {
		return nil, errors.New("sqlite data source cannot be empty")
	}
	readDB, writeDB, err := openDB(opts.DataSource, opts.MaxOpenConns, opts.SkipPragmas)
	if err != nil {
		return nil, fmt.Errorf("error opening db: %w", err)
	}
	p, err := common2.NewKeyValueStore(writeDB, readDB, table, dialect, &errorMapper{})
	if err != nil {
		return nil, err
	}
	if err := p.CreateSchema(); err != nil {
		return nil, err
	}
	return p, nil
}

func openDB(dataSourceName string, maxOpenConns int, skipPragmas bool) (readDB *sql.DB, writeDB *sql.DB, err error) {
	if skipPragmas {
		if !strings.Contains(dataSourceName, "WAL") {
			logger.Warnf("skipping default pragmas. Set at least ?_pragma=journal_mode(WAL) or similar in the dataSource to prevent SQLITE_BUSY errors")
		}
	} else {
		dataSourceName = withPragmas(dataSourceName)
	}

	readDB, err = sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, nil, fmt.Errorf("can't open %s database: %w", driverName, err)
	}
	if maxOpenConns > 0 {
		readDB.SetMaxOpenConns(maxOpenConns)
	}
	if err = readDB.Ping(); err != nil {
		return nil, nil, err
	}

	writeDB, err = sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, nil, fmt.Errorf("can't open %s database: %w", driverName, err)
	}
	writeDB.SetMaxOpenConns(1)
	if err = writeDB.Ping(); err != nil {
		return nil, nil, err
	}
	logger.Infof("connected to [%s], max open read connections: %d", driverName, maxOpenConns)
	return readDB, writeDB, nil
}

func withPragmas(dataSourceName string) string {
	if strings.HasPrefix(dataSourceName, ":memory:") || strings.Contains(dataSourceName, "mode=memory") {
		return dataSourceName
	}
	if !strings.HasPrefix(dataSourceName, "file:") {
		dataSourceName = "file:" + dataSourceName
	}
	sep := "?"
	if strings.Contains(dataSourceName, "?") {
		sep = "&"
	}
	return dataSourceName + sep + defaultPragmas
}

func tableName(name string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(name) + "_kvs"
}
