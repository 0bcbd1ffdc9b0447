/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dbtest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ns = "namespace"

// Opener returns a fresh, empty persistence
type Opener func(t *testing.T) driver.Persistence

// TestCases runs the behaviour every persistence driver must have
func TestCases(t *testing.T, open Opener) {
	for _, c := range []struct {
		name string
		fn   func(*testing.T, driver.Persistence)
	}{
		{"ReadWrite", TTestReadWrite},
		{"Discard", TTestDiscard},
		{"Delete", TTestDelete},
		{"WriteWithoutUpdate", TTestWriteWithoutUpdate},
		{"RangeQueries", TTestRangeQueries},
		{"CompositeKeys", TTestCompositeKeys},
		{"ConcurrentUpdates", TTestConcurrentUpdates},
	} {
		t.Run(c.name, func(t *testing.T) {
			db := open(t)
			defer func() { assert.NoError(t, db.Close()) }()
			c.fn(t, db)
		})
	}
}

func TTestReadWrite(t *testing.T, db driver.Persistence) {
	v, err := db.GetState(ns, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, db.BeginUpdate())
	require.NoError(t, db.SetState(ns, "key", []byte("value")))
	require.NoError(t, db.Commit())

	v, err = db.GetState(ns, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), v)

	v, err = db.GetState("other", "key")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, db.BeginUpdate())
	require.NoError(t, db.SetState(ns, "key", []byte("overwritten")))
	require.NoError(t, db.Commit())

	v, err = db.GetState(ns, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("overwritten"), v)
}

func TTestDiscard(t *testing.T, db driver.Persistence) {
	require.NoError(t, db.BeginUpdate())
	require.NoError(t, db.SetState(ns, "key", []byte("value")))
	require.NoError(t, db.Discard())

	v, err := db.GetState(ns, "key")
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, db.Commit())
	assert.Error(t, db.Discard())
}

func TTestDelete(t *testing.T, db driver.Persistence) {
	require.NoError(t, db.BeginUpdate())
	require.NoError(t, db.SetState(ns, "a", []byte("1")))
	require.NoError(t, db.SetState(ns, "b", []byte("2")))
	require.NoError(t, db.Commit())

	require.NoError(t, db.BeginUpdate())
	require.NoError(t, db.DeleteState(ns, "a"))
	require.NoError(t, db.Commit())

	v, err := db.GetState(ns, "a")
	require.NoError(t, err)
	assert.Nil(t, v)
	v, err = db.GetState(ns, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}

func TTestWriteWithoutUpdate(t *testing.T, db driver.Persistence) {
	assert.Error(t, db.SetState(ns, "key", []byte("value")))
}

func TTestRangeQueries(t *testing.T, db driver.Persistence) {
	require.NoError(t, db.BeginUpdate())
	for _, k := range []string{"k5", "k1", "k3", "k2", "k4"} {
		require.NoError(t, db.SetState(ns, k, []byte("v"+k)))
	}
	require.NoError(t, db.SetState("other", "k3", []byte("x")))
	require.NoError(t, db.Commit())

	assert.Equal(t, []string{"k2", "k3"}, scan(t, db, "k2", "k4"))
	assert.Equal(t, []string{"k2", "k3", "k4", "k5"}, scan(t, db, "k2", ""))
	assert.Equal(t, []string{"k1", "k2", "k3", "k4", "k5"}, scan(t, db, "", ""))
	assert.Empty(t, scan(t, db, "z", ""))
}

func TTestCompositeKeys(t *testing.T, db driver.Persistence) {
	prefix := "\x00iou\x00"
	require.NoError(t, db.BeginUpdate())
	require.NoError(t, db.SetState(ns, prefix+"a\x00", []byte("1")))
	require.NoError(t, db.SetState(ns, prefix+"b\x00", []byte("2")))
	require.NoError(t, db.SetState(ns, "\x00cash\x00a\x00", []byte("3")))
	require.NoError(t, db.Commit())

	assert.Equal(t, []string{prefix + "a\x00", prefix + "b\x00"}, scan(t, db, prefix, prefix+string(rune(0x10FFFF))))
	v, err := db.GetState(ns, prefix+"b\x00")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}

func TTestConcurrentUpdates(t *testing.T, db driver.Persistence) {
	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, db.BeginUpdate())
			assert.NoError(t, db.SetState(ns, fmt.Sprintf("key%02d", i), []byte{byte(i + 1)}))
			assert.NoError(t, db.Commit())
		}(i)
	}
	wg.Wait()
	assert.Len(t, scan(t, db, "key", ""), n)
}

func scan(t *testing.T, db driver.Persistence, start, end string) []string {
	it, err := db.GetStateRangeScanIterator(ns, start, end)
	require.NoError(t, err)
	defer it.Close()
	var res []string
	for {
		r, err := it.Next()
		require.NoError(t, err)
		if r == nil {
			return res
		}
		res = append(res, r.Key)
	}
}
