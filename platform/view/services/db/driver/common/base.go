/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package common

import (
	"sync"

	errors2 "github.com/hyperledger-labs/obligation-smart-client/pkg/utils/errors"
	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("view-sdk.db.driver.common")

// ErrNoUpdate is returned when writing, committing or discarding outside BeginUpdate
var ErrNoUpdate = errors.New("no update in progress")

type DBTransaction interface {
	Commit() error
	Rollback() error
}

// BaseDB tracks the single write transaction of a store.
// The writer lock is taken by BeginUpdate and given back by Commit or Discard.
type BaseDB[T DBTransaction] struct {
	newTransaction func() (T, error)

	writer sync.Mutex
	mu     sync.Mutex
	txn    T
	active bool
}

func NewBaseDB[T DBTransaction](newTransaction func() (T, error)) *BaseDB[T] {
	return &BaseDB[T]{newTransaction: newTransaction}
}

func (db *BaseDB[T]) BeginUpdate() error {
	db.writer.Lock()
	tx, err := db.newTransaction()
	if err != nil {
		db.writer.Unlock()
		return errors2.Wrapf(err, "error starting db transaction")
	}
	db.mu.Lock()
	db.txn, db.active = tx, true
	db.mu.Unlock()
	logger.Debugf("update started")
	return nil
}

// Current returns the ongoing transaction, false if there is none
func (db *BaseDB[T]) Current() (T, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.txn, db.active
}

func (db *BaseDB[T]) Commit() error {
	tx, err := db.end()
	if err != nil {
		return err
	}
	defer db.writer.Unlock()
	if err := tx.Commit(); err != nil {
		return errors2.Wrapf(err, "could not commit transaction")
	}
	logger.Debugf("update committed")
	return nil
}

func (db *BaseDB[T]) Discard() error {
	tx, err := db.end()
	if err != nil {
		return err
	}
	defer db.writer.Unlock()
	if err := tx.Rollback(); err != nil {
		logger.Debugf("error rolling back (ignoring): %s", err)
	}
	logger.Debugf("update discarded")
	return nil
}

func (db *BaseDB[T]) end() (T, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var zero T
	if !db.active {
		return zero, ErrNoUpdate
	}
	tx := db.txn
	db.txn, db.active = zero, false
	return tx, nil
}
