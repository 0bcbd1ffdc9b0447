/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package badger

import (
	"bytes"
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/hyperledger-labs/obligation-smart-client/pkg/utils/errors"
	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver/common"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/keys"
)

const Persistence = "badger"

var logger = logging.MustGetLogger("view-sdk.db.driver.badger")

type Opts struct {
	Path     string
	InMemory bool
}

type Txn struct {
	*badger.Txn
}

func (t *Txn) Rollback() error {
	t.Txn.Discard()
	return nil
}

type DB struct {
	*common.BaseDB[*Txn]
	db            *badger.DB
	cancelCleaner context.CancelFunc
}

func OpenDB(opts Opts) (*DB, error) {
	var opt badger.Options
	switch {
	case opts.InMemory:
		opt = badger.DefaultOptions("").WithInMemory(true)
	case len(opts.Path) == 0:
		return nil, errors.Errorf("path cannot be empty")
	default:
		opt = badger.DefaultOptions(opts.Path)
	}
	// let's pass our logger to badger
	opt.Logger = &badgerLogger{Logger: logger}

	db, err := badger.Open(opt)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open DB at '%s'", opts.Path)
	}

	// count number of keys
	counter := uint64(0)
	if err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			counter++
		}
		return nil
	}); err != nil {
		return nil, errors.Wrapf(err, "failed to count number of keys")
	}
	logger.Debugf("badger db at [%s] contains [%d] keys", opts.Path, counter)

	cancel := autoCleaner(db, defaultGCInterval, defaultGCDiscardRatio)

	return &DB{db: db, cancelCleaner: cancel, BaseDB: common.NewBaseDB[*Txn](func() (*Txn, error) {
		return &Txn{db.NewTransaction(true)}, nil
	})}, nil
}

func (db *DB) Close() error {
	err := db.db.Close()
	if err != nil {
		return errors.Wrapf(err, "could not close DB")
	}

	// stop our auto cleaner if we have one
	if db.cancelCleaner != nil {
		db.cancelCleaner()
	}
	return nil
}

func (db *DB) SetState(namespace, key string, value []byte) error {
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
	txn, ok := db.Current()
	if !ok {
		return common.ErrNoUpdate
	}
	if err := txn.Set(dbKey(namespace, key), value); err != nil {
		return errors.Wrapf(err, "could not set value for key %s", key)
	}
	return nil
}

func (db *DB) GetState(namespace, key string) ([]byte, error) {
	var res []byte
	err := db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(namespace, key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		res, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not read key %s", key)
	}
	return res, nil
}

func (db *DB) DeleteState(namespace, key string) error {
	txn, ok := db.Current()
	if !ok {
		return common.ErrNoUpdate
	}
	if err := txn.Delete(dbKey(namespace, key)); err != nil {
		return errors.Wrapf(err, "could not delete key %s", key)
	}
	return nil
}

func (db *DB) GetStateRangeScanIterator(namespace string, startKey string, endKey string) (driver.ResultsIterator, error) {
	prefix := []byte(namespace + keys.NamespaceSeparator)
	var end []byte
	if len(endKey) != 0 {
		end = dbKey(namespace, endKey)
	}

	var items []*driver.Read
	err := db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(dbKey(namespace, startKey)); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if end != nil && bytes.Compare(item.Key(), end) >= 0 {
				break
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			items = append(items, &driver.Read{
				Key: string(bytes.TrimPrefix(item.Key(), prefix)),
				Raw: v,
			})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "range scan failed on namespace %s", namespace)
	}
	return common.NewSliceIterator(items), nil
}

func dbKey(namespace, key string) []byte {
	return []byte(namespace + keys.NamespaceSeparator + key)
}

// badgerLogger adapts our logger to badger.Logger
type badgerLogger struct {
	logging.Logger
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}
