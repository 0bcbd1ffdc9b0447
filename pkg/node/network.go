/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"context"

	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services/notary"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/comm"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db"
	dbdriver "github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/id/ecdsa"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/kvs"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/metrics/prometheus"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/sig"
	"github.com/pkg/errors"
	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// Network is a set of nodes running in the same process.
// They talk over a shared hub and finalize their transactions with a shared notary.
type Network struct {
	hub      *comm.Hub
	notary   *notary.Notary
	nodes    map[string]*Node
	names    []string
	registry *prom.Registry

	notaryPersistence dbdriver.Persistence
}

func NewNetwork(cfg *Config) (*Network, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	n := &Network{
		hub:      comm.NewHub(),
		nodes:    map[string]*Node{},
		registry: prometheus.NewRegistry(),
	}

	notaryName := cfg.notary()
	identity, signer, _, err := ecdsa.NewSigner()
	if err != nil {
		return nil, errors.WithMessage(err, "failed generating the notary keys")
	}
	n.notaryPersistence, err = db.Open(cfg.persistence(), notaryName, cfg.PersistenceConfig)
	if err != nil {
		return nil, err
	}
	store, err := kvs.New(n.notaryPersistence, "notary", cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	n.notary = notary.New(identity, signer, sig.NewService(), store, prometheus.NewProvider(n.registry, notaryName))

	for _, c := range cfg.Nodes {
		node, err := newNode(c, cfg, n.hub, n.notary, prometheus.NewProvider(n.registry, c.Name))
		if err != nil {
			return nil, errors.WithMessagef(err, "failed creating node [%s]", c.Name)
		}
		n.nodes[c.Name] = node
		n.names = append(n.names, c.Name)
	}
	return n, nil
}

// Node returns the node with the passed name
func (n *Network) Node(name string) (*Node, bool) {
	node, ok := n.nodes[name]
	return node, ok
}

// Names returns the node names in configuration order
func (n *Network) Names() []string {
	return n.names
}

func (n *Network) Notary() *notary.Notary {
	return n.notary
}

// Metrics returns the registry every node reports to
func (n *Network) Metrics() *prom.Registry {
	return n.registry
}

func (n *Network) Start(ctx context.Context) {
	for _, name := range n.names {
		n.nodes[name].Start(ctx)
	}
}

// Stop stops every node and closes their persistence
func (n *Network) Stop() error {
	var g errgroup.Group
	for _, name := range n.names {
		node := n.nodes[name]
		g.Go(node.Stop)
	}
	err := g.Wait()
	if cerr := n.notaryPersistence.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
