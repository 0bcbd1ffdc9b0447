/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package kvs

import (
	"encoding/json"
	"reflect"
	"sync"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/hyperledger-labs/obligation-smart-client/pkg/utils/errors"
	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
	dbdriver "github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver"
)

var logger = logging.MustGetLogger("view-sdk.kvs")

const (
	cacheSizeConfigKey = "kvs.cache.size"
	DefaultCacheSize   = 100
)

// ErrNotFound is returned by Get when no state is stored under the id
var ErrNotFound = errors.Errorf("state not found")

// ConfigProvider models the KVS configuration provider
type ConfigProvider interface {
	// IsSet checks to see if the key has been set in any of the data locations
	IsSet(key string) bool
	// GetInt returns the value associated with the key as an integer
	GetInt(key string) int
}

type Iterator interface {
	HasNext() bool
	Close() error
	Next(state interface{}) (string, error)
}

// KVS stores JSON encoded states in a namespace of the underlying persistence.
// Raw values are cached in an LRU cache, which is only updated after a successful commit.
type KVS struct {
	namespace string
	store     dbdriver.Persistence

	putMutex sync.RWMutex
	cache    *lru.Cache[string, []byte]
}

// New returns a new KVS instance for the passed namespace using the passed persistence.
// A cache size of zero disables the cache.
func New(persistence dbdriver.Persistence, namespace string, cacheSize int) (*KVS, error) {
	k := &KVS{
		namespace: namespace,
		store:     persistence,
	}
	if cacheSize > 0 {
		c, err := lru.New[string, []byte](cacheSize)
		if err != nil {
			return nil, errors.Wrapf(err, "failed creating cache")
		}
		k.cache = c
	}
	return k, nil
}

// GetService returns the KVS registered in the passed service provider, it panics if none is found
func GetService(sp driver.ServiceProvider) *KVS {
	s, err := sp.GetService(reflect.TypeOf((*KVS)(nil)))
	if err != nil {
		panic(err)
	}
	return s.(*KVS)
}

func (o *KVS) Exists(id string) bool {
	raw, err := o.getRaw(id)
	return err == nil && len(raw) > 0
}

func (o *KVS) Put(id string, state interface{}) error {
	return o.Update(func(tx *Tx) error {
		return tx.Put(id, state)
	})
}

func (o *KVS) Get(id string, state interface{}) error {
	raw, err := o.getRaw(id)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return errors.Wrapf(ErrNotFound, "state [%s,%s] does not exist", o.namespace, id)
	}
	if err := json.Unmarshal(raw, state); err != nil {
		logger.Debugf("failed retrieving state [%s,%s], cannot unmarshal state, error [%s]", o.namespace, id, err)
		return errors.Wrapf(err, "failed retrieving state [%s,%s], cannot unmarshal state", o.namespace, id)
	}
	logger.Debugf("got state [%s,%s] successfully", o.namespace, id)
	return nil
}

func (o *KVS) Delete(id string) error {
	logger.Debugf("delete state [%s,%s]", o.namespace, id)
	return o.Update(func(tx *Tx) error {
		return tx.Delete(id)
	})
}

// Update runs f in a store transaction. Everything f writes becomes visible at once,
// or not at all if f or the commit fails.
func (o *KVS) Update(f func(tx *Tx) error) error {
	if err := o.store.BeginUpdate(); err != nil {
		return errors.Wrapf(err, "begin update for [%s] failed", o.namespace)
	}
	tx := &Tx{kvs: o, writes: map[string][]byte{}}
	if err := f(tx); err != nil {
		if err2 := o.store.Discard(); err2 != nil {
			logger.Errorf("failed discarding update on [%s]: %s", o.namespace, err2)
		}
		return err
	}
	if err := o.store.Commit(); err != nil {
		return errors.Wrapf(err, "committing update for [%s] failed", o.namespace)
	}

	if o.cache == nil {
		return nil
	}
	o.putMutex.Lock()
	defer o.putMutex.Unlock()
	for id, raw := range tx.writes {
		if raw == nil {
			o.cache.Remove(id)
			continue
		}
		o.cache.Add(id, raw)
	}
	return nil
}

func (o *KVS) GetByPartialCompositeID(prefix string, attrs []string) (Iterator, error) {
	startKey, endKey, err := CreateRangeKeysForPartialCompositeKey(prefix, attrs)
	if err != nil {
		return nil, errors.Wrapf(err, "failed building composite key")
	}

	itr, err := o.store.GetStateRangeScanIterator(o.namespace, startKey, endKey)
	if err != nil {
		return nil, errors.Wrapf(err, "store access failure for GetStateRangeScanIterator, ns [%s] range [%s,%s]", o.namespace, startKey, endKey)
	}
	return &it{ri: itr}, nil
}

func (o *KVS) Stop() {
	if err := o.store.Close(); err != nil {
		logger.Errorf("failed stopping kvs [%s]", err)
	}
}

func (o *KVS) getRaw(id string) ([]byte, error) {
	if o.cache != nil {
		o.putMutex.RLock()
		raw, ok := o.cache.Get(id)
		o.putMutex.RUnlock()
		if ok {
			return raw, nil
		}
	}
	raw, err := o.store.GetState(o.namespace, id)
	if err != nil {
		logger.Debugf("failed retrieving state [%s,%s]", o.namespace, id)
		return nil, errors.Wrapf(err, "failed retrieving state [%s,%s]", o.namespace, id)
	}
	return raw, nil
}

// Tx collects the writes of an Update
type Tx struct {
	kvs    *KVS
	writes map[string][]byte
}

func (t *Tx) Put(id string, state interface{}) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return errors.Wrapf(err, "cannot marshal state with id [%s]", id)
	}
	if err := t.kvs.store.SetState(t.kvs.namespace, id, raw); err != nil {
		return errors.Wrapf(err, "failed storing state [%s,%s]", t.kvs.namespace, id)
	}
	t.writes[id] = raw
	return nil
}

func (t *Tx) Delete(id string) error {
	if err := t.kvs.store.DeleteState(t.kvs.namespace, id); err != nil {
		return errors.Wrapf(err, "failed deleting state [%s,%s]", t.kvs.namespace, id)
	}
	t.writes[id] = nil
	return nil
}

type it struct {
	ri   dbdriver.ResultsIterator
	next *dbdriver.Read
}

func (i *it) HasNext() bool {
	var err error
	i.next, err = i.ri.Next()
	if err != nil || i.next == nil {
		return false
	}
	return true
}

func (i *it) Close() error {
	i.ri.Close()
	return nil
}

// Next unmarshals the current state into the given state object.
// It also returns the key of the current state.
func (i *it) Next(state interface{}) (string, error) {
	return i.next.Key, json.Unmarshal(i.next.Raw, state)
}

// CacheSizeFromConfig returns the KVS cache size from current configuration.
// Returns DefaultCacheSize, if no configuration found.
// Returns an error and DefaultCacheSize, if the loaded value from configuration is invalid (must be >= 0).
func CacheSizeFromConfig(cp ConfigProvider) (int, error) {
	if !cp.IsSet(cacheSizeConfigKey) {
		return DefaultCacheSize, nil
	}

	cacheSize := cp.GetInt(cacheSizeConfigKey)
	if cacheSize < 0 {
		return DefaultCacheSize, errors.Errorf("invalid cache size configuration: expect value >= 0, actual %d", cacheSize)
	}
	return cacheSize, nil
}
