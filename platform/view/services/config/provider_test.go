/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type persistenceOpts struct {
	DataSource   string
	MaxOpenConns int
}

type cash struct {
	Currency string
	Amount   decimal.Decimal
}

type node struct {
	Name    string
	Cash    []cash
	Parties []string
}

func TestReadFile(t *testing.T) {
	p, err := NewProvider("./testdata")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:10000", p.GetString("web.address"))
	assert.Equal(t, 5*time.Second, p.GetDuration("session.timeout"))
	assert.Equal(t, "sqlite", p.GetString("persistence.type"))
	assert.True(t, p.IsSet("notary.name"))
	assert.False(t, p.IsSet("kvs.cache.size"))

	var opts persistenceOpts
	require.NoError(t, p.UnmarshalKey("persistence.opts", &opts))
	assert.Equal(t, "./data/%s.sqlite", opts.DataSource)
	assert.Equal(t, 4, opts.MaxOpenConns)

	var nodes []node
	require.NoError(t, p.UnmarshalKey("nodes", &nodes))
	require.Len(t, nodes, 2)
	assert.Equal(t, "alice", nodes[0].Name)
	require.Len(t, nodes[0].Cash, 1)
	assert.True(t, decimal.RequireFromString("100.5").Equal(nodes[0].Cash[0].Amount))
	assert.Equal(t, []string{"alice", "charlie"}, nodes[1].Parties)

	abs, _ := filepath.Abs("testdata/data")
	assert.Equal(t, abs, mustAbs(t, p.TranslatePath("data")))
}

func TestConfigFile(t *testing.T) {
	p, err := NewProvider("./testdata/iou.yaml")
	require.NoError(t, err)
	assert.Equal(t, "notary", p.GetString("notary.name"))
}

func TestEnvSubstitution(t *testing.T) {
	t.Setenv("IOU_WEB_ADDRESS", "0.0.0.0:9000")
	t.Setenv("IOU_SESSION_TIMEOUT", "1m")
	t.Setenv("IOU_PERSISTENCE_OPTS_DATASOURCE", "postgres://localhost/%s")
	t.Setenv("IOU_NOTARY_NAME", "")

	p, err := NewProvider("./testdata")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", p.GetString("web.address"))
	assert.Equal(t, time.Minute, p.GetDuration("session.timeout"))
	assert.Equal(t, "notary", p.GetString("notary.name"))

	var opts persistenceOpts
	require.NoError(t, p.UnmarshalKey("persistence.opts", &opts))
	assert.Equal(t, "postgres://localhost/%s", opts.DataSource)
	assert.Equal(t, 4, opts.MaxOpenConns)
}

func TestMissingConfig(t *testing.T) {
	_, err := NewProvider(t.TempDir())
	assert.Error(t, err)
}

func mustAbs(t *testing.T, p string) string {
	a, err := filepath.Abs(p)
	require.NoError(t, err)
	return a
}
