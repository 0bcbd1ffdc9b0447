/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"database/sql"
	"fmt"
	"regexp"

	errors2 "github.com/hyperledger-labs/obligation-smart-client/pkg/utils/errors"
	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver/common"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/keys"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("view-sdk.db.driver.sql")

var tableNameRegexp = regexp.MustCompile("^[a-zA-Z_][a-zA-Z0-9_]{0,62}$")

// WriteDB is the part of *sql.DB the store writes through
type WriteDB interface {
	Begin() (*sql.Tx, error)
	Exec(query string, args ...any) (sql.Result, error)
	Close() error
}

type dbTransaction interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Dialect carries the statements that differ between sql engines
type Dialect struct {
	// CreateTable has a single %s verb for the table name
	CreateTable string
}

// KeyValueStore stores namespaced keys as blobs in a single table.
// Keys are compared bytewise, which keeps range scans lexicographic.
type KeyValueStore struct {
	*common.BaseDB[*sql.Tx]
	writeDB WriteDB
	readDB  *sql.DB
	table   string
	dialect Dialect

	errorWrapper driver.SQLErrorWrapper
}

func NewKeyValueStore(writeDB WriteDB, readDB *sql.DB, table string, dialect Dialect, errorWrapper driver.SQLErrorWrapper) (*KeyValueStore, error) {
	if !tableNameRegexp.MatchString(table) {
		return nil, errors.Errorf("invalid table name [%s]", table)
	}
	return &KeyValueStore{
		BaseDB:       common.NewBaseDB(func() (*sql.Tx, error) { return writeDB.Begin() }),
		readDB:       readDB,
		writeDB:      writeDB,
		table:        table,
		dialect:      dialect,
		errorWrapper: errorWrapper,
	}, nil
}

func (db *KeyValueStore) CreateSchema() error {
	query := fmt.Sprintf(db.dialect.CreateTable, db.table)
	logger.Debugf("create schema: %s", query)
	if _, err := db.writeDB.Exec(query); err != nil {
		return errors2.Wrapf(db.errorWrapper.WrapError(err), "can't create table [%s]", db.table)
	}
	return nil
}

func (db *KeyValueStore) GetState(namespace, key string) ([]byte, error) {
	query := fmt.Sprintf("SELECT val FROM %s WHERE ns = $1 AND pkey = $2", db.table)
	logger.Debugf("%s [%s:%s]", query, namespace, key)

	var val []byte
	err := db.readDB.QueryRow(query, namespace, []byte(key)).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors2.Wrapf(err, "error querying db: %s", query)
	}
	return val, nil
}

func (db *KeyValueStore) SetState(namespace, key string, value []byte) error {
	if err := keys.ValidateNs(namespace); err != nil {
		return err
	}
	if err := keys.ValidateKey(key); err != nil {
		return err
	}
	if len(value) == 0 {
		logger.Warnf("set key [%s:%s] to nil value, will be deleted instead", namespace, key)
		return db.DeleteState(namespace, key)
	}
	tx, ok := db.Current()
	if !ok {
		return common.ErrNoUpdate
	}
	return db.setStateWithTx(tx, namespace, key, value)
}

func (db *KeyValueStore) setStateWithTx(tx dbTransaction, namespace, key string, value []byte) error {
	query := fmt.Sprintf("INSERT INTO %s (ns, pkey, val) VALUES ($1, $2, $3) ON CONFLICT (ns, pkey) DO UPDATE SET val = excluded.val", db.table)
	logger.Debugf("%s [%s:%s]", query, namespace, key)
	if _, err := tx.Exec(query, namespace, []byte(key), value); err != nil {
		return errors2.Wrapf(db.errorWrapper.WrapError(err), "could not set val for key [%s]", key)
	}
	return nil
}

func (db *KeyValueStore) DeleteState(namespace, key string) error {
	tx, ok := db.Current()
	if !ok {
		return common.ErrNoUpdate
	}
	return db.deleteStateWithTx(tx, namespace, key)
}

func (db *KeyValueStore) deleteStateWithTx(tx dbTransaction, namespace, key string) error {
	if len(namespace) == 0 || len(key) == 0 {
		return errors.New("ns or key is empty")
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE ns = $1 AND pkey = $2", db.table)
	logger.Debugf("%s [%s:%s]", query, namespace, key)
	if _, err := tx.Exec(query, namespace, []byte(key)); err != nil {
		return errors2.Wrapf(db.errorWrapper.WrapError(err), "could not delete val for key [%s]", key)
	}
	return nil
}

func (db *KeyValueStore) GetStateRangeScanIterator(namespace string, startKey string, endKey string) (driver.ResultsIterator, error) {
	query := fmt.Sprintf("SELECT pkey, val FROM %s WHERE ns = $1", db.table)
	args := []any{namespace}
	if len(startKey) != 0 {
		args = append(args, []byte(startKey))
		query += fmt.Sprintf(" AND pkey >= $%d", len(args))
	}
	if len(endKey) != 0 {
		args = append(args, []byte(endKey))
		query += fmt.Sprintf(" AND pkey < $%d", len(args))
	}
	query += " ORDER BY pkey"
	logger.Debugf("%s [%s:%s:%s]", query, namespace, startKey, endKey)

	rows, err := db.readDB.Query(query, args...)
	if err != nil {
		return nil, errors2.Wrapf(err, "query error: %s", query)
	}
	return &readIterator{rows: rows}, nil
}

func (db *KeyValueStore) Close() error {
	logger.Infof("closing database [%s]", db.table)
	if err := db.writeDB.Close(); err != nil {
		return errors2.Wrapf(err, "could not close DB")
	}
	if db.readDB != nil && db.readDB != db.writeDB {
		if err := db.readDB.Close(); err != nil {
			return errors2.Wrapf(err, "could not close read DB")
		}
	}
	return nil
}

type readIterator struct {
	rows *sql.Rows
}

func (i *readIterator) Next() (*driver.Read, error) {
	if !i.rows.Next() {
		return nil, i.rows.Err()
	}
	var key, val []byte
	if err := i.rows.Scan(&key, &val); err != nil {
		return nil, err
	}
	return &driver.Read{Key: string(key), Raw: val}, nil
}

func (i *readIterator) Close() {
	_ = i.rows.Close()
}
