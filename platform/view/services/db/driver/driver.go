/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package driver

import (
	"github.com/pkg/errors"
)

var (
	UniqueKeyViolation = errors.New("unique key constraint violated")
	DeadlockDetected   = errors.New("deadlock detected")
)

type Read struct {
	Key string
	Raw []byte
}

type ResultsIterator interface {
	// Next returns the next item in the result set. The `Read` is expected to be nil when
	// the iterator gets exhausted
	Next() (*Read, error)
	// Close releases resources occupied by the iterator
	Close()
}

// Persistence is a namespaced key-value store with a single writer transaction at a time.
// Writes must happen between BeginUpdate and Commit (or Discard).
type Persistence interface {
	SetState(namespace, key string, value []byte) error
	GetState(namespace, key string) ([]byte, error)
	DeleteState(namespace, key string) error
	// GetStateRangeScanIterator returns the keys in [startKey, endKey) in lexicographic order.
	// An empty endKey means no upper bound.
	GetStateRangeScanIterator(namespace string, startKey string, endKey string) (ResultsIterator, error)
	Close() error
	BeginUpdate() error
	Commit() error
	Discard() error
}

// Config exposes the persistence section of the node configuration
type Config interface {
	// IsSet checks to see if the key has been set in any of the data locations
	IsSet(key string) bool
	// UnmarshalKey takes a single key and unmarshals it into a Struct
	UnmarshalKey(key string, rawVal interface{}) error
}

// Driver models the persistence driver
type Driver interface {
	// New returns a new Persistence for the passed name.
	// The driver reads its options under the "opts" key of the passed config.
	New(name string, config Config) (Persistence, error)
}

type SQLErrorWrapper interface {
	WrapError(error) error
}
