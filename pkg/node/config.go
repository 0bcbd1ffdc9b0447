/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/config"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db"
	dbdriver "github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver"
	mem "github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver/memory"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/kvs"
	"github.com/pkg/errors"
)

const DefaultNotary = "notary"

// Cash is an amount a node self issues when it is created
type Cash struct {
	Currency string `mapstructure:"currency"`
	Amount   string `mapstructure:"amount"`
}

// NodeConfig describes one party of the network
type NodeConfig struct {
	Name string `mapstructure:"name"`
	Cash []Cash `mapstructure:"cash"`
}

// Config describes an in-process network
type Config struct {
	Notary string
	Nodes  []NodeConfig
	// Persistence is the name of the db driver, memory if empty
	Persistence string
	// PersistenceConfig is passed to the db driver, it may be nil
	PersistenceConfig dbdriver.Config
	CacheSize         int
	// Provider is registered on every node, if set
	Provider *config.Provider
}

// ConfigFrom reads the network description from the passed configuration
func ConfigFrom(p *config.Provider) (*Config, error) {
	c := &Config{
		Notary:      p.GetString("notary.name"),
		Persistence: p.GetString("persistence.type"),
		Provider:    p,
	}
	if p.IsSet("persistence") {
		c.PersistenceConfig = db.NewPrefixConfig(p, "persistence")
	}
	cacheSize, err := kvs.CacheSizeFromConfig(p)
	if err != nil {
		return nil, err
	}
	c.CacheSize = cacheSize
	if err := p.UnmarshalKey("nodes", &c.Nodes); err != nil {
		return nil, errors.Wrap(err, "failed reading nodes")
	}
	return c, c.validate()
}

func (c *Config) validate() error {
	if len(c.Nodes) == 0 {
		return errors.New("no nodes configured")
	}
	seen := map[string]bool{c.notary(): true}
	for _, n := range c.Nodes {
		if len(n.Name) == 0 {
			return errors.New("node without name")
		}
		if seen[n.Name] {
			return errors.Errorf("duplicate node name [%s]", n.Name)
		}
		seen[n.Name] = true
		for _, cash := range n.Cash {
			if _, err := states.ParseAmount(cash.Amount, cash.Currency); err != nil {
				return errors.WithMessagef(err, "invalid cash for node [%s]", n.Name)
			}
		}
	}
	return nil
}

func (c *Config) persistence() string {
	if len(c.Persistence) == 0 {
		return mem.Persistence
	}
	return c.Persistence
}

func (c *Config) notary() string {
	if len(c.Notary) == 0 {
		return DefaultNotary
	}
	return c.Notary
}
