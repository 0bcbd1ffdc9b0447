/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sqlite

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/dbtest"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqlite(t *testing.T) {
	dbtest.TestCases(t, func(t *testing.T) driver.Persistence {
		p, err := NewPersistence(common.Opts{
			DataSource:   filepath.Join(t.TempDir(), "test.sqlite"),
			MaxOpenConns: 4,
		}, "test_kvs")
		require.NoError(t, err)
		return p
	})
}

type config map[string]common.Opts

func (c config) IsSet(key string) bool { _, ok := c[key]; return ok }

func (c config) UnmarshalKey(key string, rawVal interface{}) error {
	*(rawVal.(*common.Opts)) = c[key]
	return nil
}

func TestDriverReplacesName(t *testing.T) {
	dir := t.TempDir()
	p, err := (&Driver{}).New("alice-node", config{"opts": {DataSource: fmt.Sprintf("%s/%%s.sqlite", dir)}})
	require.NoError(t, err)
	defer p.Close()
	assert.FileExists(t, filepath.Join(dir, "alice-node.sqlite"))

	require.NoError(t, p.BeginUpdate())
	require.NoError(t, p.SetState("ns", "k", []byte("v")))
	require.NoError(t, p.Commit())

	// a second handle on the same file sees the data
	p2, err := NewPersistence(common.Opts{DataSource: filepath.Join(dir, "alice-node.sqlite")}, "alice_node_kvs")
	require.NoError(t, err)
	defer p2.Close()
	v, err := p2.GetState("ns", "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestInvalidTable(t *testing.T) {
	_, err := NewPersistence(common.Opts{DataSource: filepath.Join(t.TempDir(), "x.sqlite")}, "bad;name")
	assert.Error(t, err)
}

func TestWithPragmas(t *testing.T) {
	assert.Equal(t, "file:a.db?"+defaultPragmas, withPragmas("a.db"))
	assert.Equal(t, "file:a.db?cache=shared&"+defaultPragmas, withPragmas("file:a.db?cache=shared"))
	assert.Equal(t, ":memory:", withPragmas(":memory:"))
}
