/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package postgres

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver/common"
	common2 "github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver/sql/common"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
)

const (
	Persistence = "postgres"
	driverName  = "pgx"
)

var logger = logging.MustGetLogger("view-sdk.db.postgres")

var dialect = common2.Dialect{
	CreateTable: `CREATE TABLE IF NOT EXISTS %s (
		ns TEXT NOT NULL,
		pkey BYTEA NOT NULL,
		val BYTEA NOT NULL,
		PRIMARY KEY (ns, pkey)
	);`,
}

type Driver struct{}

// New connects to the postgres instance in opts.dataSource.
// Every node gets its own table, named after the node.
func (d *Driver) New(name string, config driver.Config) (driver.Persistence, error) {
	opts, err := common.GetOpts(name, config)
	if err != nil {
		return nil, err
	}
	db, err := OpenDB(opts.DataSource, opts.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	return NewPersistence(db, tableName(name))
}

// NewPersistence uses the same connection pool for reads and writes
func NewPersistence(db *sql.DB, table string) (*common2.KeyValueStore, error) {
	p, err := common2.NewKeyValueStore(db, db, table, dialect, &errorMapper{})
	if err != nil {
		return nil, err
	}
	if err := p.CreateSchema(); err != nil {
		return nil, err
	}
	return p, nil
}

func OpenDB(dataSourceName string, maxOpenConns int) (*sql.DB, error) {
	if len(dataSourceName) == 0 {
		return nil, errors.New("postgres data source cannot be empty")
	}
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("can't open %s database: %w", driverName, err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if err = db.Ping(); err != nil {
		return nil, errors.Wrapf(err, "can't reach postgres")
	}
	logger.Infof("connected to [%s] for reads and writes, max open connections: %d", driverName, maxOpenConns)
	return db, nil
}

func tableName(name string) string {
	return strings.ToLower(strings.NewReplacer("-", "_", ".", "_").Replace(name)) + "_kvs"
}
