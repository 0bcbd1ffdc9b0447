/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mem

import (
	"sort"
	"strings"
	"sync"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver/common"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/keys"
)

var logger = logging.MustGetLogger("view-sdk.db.driver.memory")

// write is a pending update, a nil value deletes the key
type write struct {
	key   string
	value []byte
}

type txn struct {
	db     *Database
	writes []write
}

func (t *txn) Commit() error {
	t.db.lock.Lock()
	defer t.db.lock.Unlock()
	for _, w := range t.writes {
		if w.value == nil {
			delete(t.db.values, w.key)
			continue
		}
		t.db.values[w.key] = w.value
	}
	return nil
}

func (t *txn) Rollback() error {
	t.writes = nil
	return nil
}

// Database keeps everything in a map, the content is lost on Close
type Database struct {
	*common.BaseDB[*txn]
	lock   sync.RWMutex
	values map[string][]byte
}

func New() *Database {
	db := &Database{values: map[string][]byte{}}
	db.BaseDB = common.NewBaseDB[*txn](func() (*txn, error) {
		return &txn{db: db}, nil
	})
	return db
}

func (db *Database) SetState(namespace, key string, value []byte) error {
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
	v := make([]byte, len(value))
	copy(v, value)
	tx.writes = append(tx.writes, write{key: dbKey(namespace, key), value: v})
	return nil
}

func (db *Database) GetState(namespace, key string) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	v, ok := db.values[dbKey(namespace, key)]
	if !ok {
		return nil, nil
	}
	res := make([]byte, len(v))
	copy(res, v)
	return res, nil
}

func (db *Database) DeleteState(namespace, key string) error {
	tx, ok := db.Current()
	if !ok {
		return common.ErrNoUpdate
	}
	tx.writes = append(tx.writes, write{key: dbKey(namespace, key)})
	return nil
}

func (db *Database) GetStateRangeScanIterator(namespace string, startKey string, endKey string) (driver.ResultsIterator, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	prefix := namespace + keys.NamespaceSeparator
	var items []*driver.Read
	for k, v := range db.values {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		key := strings.TrimPrefix(k, prefix)
		if key < startKey || (len(endKey) != 0 && key >= endKey) {
			continue
		}
		raw := make([]byte, len(v))
		copy(raw, v)
		items = append(items, &driver.Read{Key: key, Raw: raw})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Key < items[j].Key
	})
	return common.NewSliceIterator(items), nil
}

func (db *Database) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()
	db.values = map[string][]byte{}
	return nil
}

func dbKey(namespace, key string) string {
	return namespace + keys.NamespaceSeparator + key
}
