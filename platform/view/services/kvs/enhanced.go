/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package kvs

import (
	"github.com/pkg/errors"
)

type KeyMapper[K any] func(K) (string, error)

// NewEnhancedKVS returns a typed view on kvs, the ids are turned into keys by keyMapper
func NewEnhancedKVS[K any, V any](kvs *KVS, keyMapper KeyMapper[K]) *EnhancedKVS[K, V] {
	return &EnhancedKVS[K, V]{
		kvs:       kvs,
		keyMapper: keyMapper,
	}
}

type EnhancedKVS[K any, V any] struct {
	kvs       *KVS
	keyMapper KeyMapper[K]
}

// Get returns the value stored under id, the second return value is false if there is none
func (kvs *EnhancedKVS[K, V]) Get(id K) (V, bool, error) {
	var res V
	k, err := kvs.keyMapper(id)
	if err != nil {
		return res, false, err
	}
	if err := kvs.kvs.Get(k, &res); err != nil {
		if errors.Is(err, ErrNotFound) {
			return res, false, nil
		}
		return res, false, err
	}
	return res, true, nil
}

func (kvs *EnhancedKVS[K, V]) Put(id K, value V) error {
	k, err := kvs.keyMapper(id)
	if err != nil {
		return err
	}
	return kvs.kvs.Put(k, value)
}

// PutIn stores value as part of the passed transaction
func (kvs *EnhancedKVS[K, V]) PutIn(tx *Tx, id K, value V) error {
	k, err := kvs.keyMapper(id)
	if err != nil {
		return err
	}
	return tx.Put(k, value)
}

// DeleteIn removes id as part of the passed transaction
func (kvs *EnhancedKVS[K, V]) DeleteIn(tx *Tx, id K) error {
	k, err := kvs.keyMapper(id)
	if err != nil {
		return err
	}
	return tx.Delete(k)
}
