/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/sdk"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services/cash"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services/vault"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/views"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/core/manager"
	registry2 "github.com/hyperledger-labs/obligation-smart-client/platform/view/core/registry"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/assert"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/comm"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db"
	dbdriver "github.com/hyperledger-labs/obligation-smart-client/platform/view/services/db/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/events/simple"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/id"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/id/ecdsa"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/kvs"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/metrics"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/registry"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/sig"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("osc.node")

// Node is one party of the network: its keys, its vault, its wallet and the views it runs
type Node struct {
	name     string
	identity view.Identity

	hub         *comm.Hub
	registry    *registry.ServiceProvider
	manager     *manager.Manager
	idProvider  *id.Provider
	sdk         *sdk.SDK
	persistence dbdriver.Persistence
	vault       *vault.Vault
	wallet      *cash.Wallet

	lock    sync.RWMutex
	context context.Context
	cancel  context.CancelFunc
}

func newNode(c NodeConfig, cfg *Config, hub *comm.Hub, notary services.Notary, metricsProvider metrics.Provider) (*Node, error) {
	identity, signer, verifier, err := ecdsa.NewSigner()
	if err != nil {
		return nil, errors.WithMessagef(err, "failed generating the keys of [%s]", c.Name)
	}
	sigService := sig.NewService()
	if err := sigService.RegisterSigner(identity, signer, verifier); err != nil {
		return nil, err
	}
	endpoint, err := hub.NewEndpoint(c.Name, identity, metricsProvider)
	if err != nil {
		return nil, err
	}
	idProvider := id.NewProvider(c.Name, identity, hub)

	persistence, err := db.Open(cfg.persistence(), c.Name, cfg.PersistenceConfig)
	if err != nil {
		return nil, err
	}
	vaultKVS, err := kvs.New(persistence, "vault", cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	cashKVS, err := kvs.New(persistence, "cash", cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	sp := registry.New()
	bus := simple.NewEventBus()
	m := manager.New(sp, endpoint, hub, idProvider, sigService, nil, metricsProvider)
	n := &Node{
		name:        c.Name,
		identity:    identity,
		hub:         hub,
		registry:    sp,
		manager:     m,
		idProvider:  idProvider,
		persistence: persistence,
		vault:       vault.New(vaultKVS, sigService, bus),
		wallet:      cash.New(cashKVS),
	}

	if cfg.Provider != nil {
		assert.NoError(sp.RegisterService(cfg.Provider), "failed registering config provider")
	}
	assert.NoError(sp.RegisterService(sigService), "failed registering sig service")
	assert.NoError(sp.RegisterService(idProvider), "failed registering identity provider")
	assert.NoError(sp.RegisterService(hub), "failed registering endpoint service")
	assert.NoError(sp.RegisterService(m), "failed registering view manager")
	assert.NoError(sp.RegisterService(metricsProvider), "failed registering metrics provider")
	assert.NoError(sp.RegisterService(bus), "failed registering event bus")
	assert.NoError(sp.RegisterService(n.vault), "failed registering vault")
	assert.NoError(sp.RegisterService(n.wallet), "failed registering wallet")
	assert.NoError(sp.RegisterService(notary), "failed registering notary")

	n.sdk = sdk.NewSDK(sp, m)
	if err := n.sdk.Install(); err != nil {
		return nil, errors.WithMessagef(err, "failed installing [%s]", c.Name)
	}

	for _, entry := range c.Cash {
		amount, err := states.ParseAmount(entry.Amount, entry.Currency)
		if err != nil {
			return nil, err
		}
		if err := n.wallet.Issue(amount); err != nil {
			return nil, err
		}
	}
	logger.Infof("node [%s] ready with identity [%s]", c.Name, identity)
	return n, nil
}

func (n *Node) Name() string {
	return n.name
}

func (n *Node) Identity() view.Identity {
	return n.identity
}

// Start runs the responders of the node until ctx is done or Stop is called
func (n *Node) Start(ctx context.Context) {
	n.lock.Lock()
	defer n.lock.Unlock()
	if n.cancel != nil {
		return
	}
	n.context, n.cancel = context.WithCancel(ctx)
	go n.manager.Start(n.context)
	logger.Infof("node [%s] started", n.name)
}

func (n *Node) Stop() error {
	n.lock.Lock()
	defer n.lock.Unlock()
	if n.cancel != nil {
		n.cancel()
	}
	n.sdk.Stop()
	logger.Infof("node [%s] stopped", n.name)
	return n.persistence.Close()
}

// InitiateView runs v on behalf of the node
func (n *Node) InitiateView(v view.View) (interface{}, error) {
	n.lock.RLock()
	ctx := n.context
	n.lock.RUnlock()
	if ctx == nil {
		return nil, errors.Errorf("node [%s] not started", n.name)
	}
	return n.manager.InitiateView(v, ctx)
}

// CallView instantiates the view registered under fid with the passed input and runs it
func (n *Node) CallView(fid string, in interface{}) (interface{}, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, errors.Wrapf(err, "failed marshalling input of [%s]", fid)
	}
	vp, err := registry2.GetViewProvider(n.registry)
	if err != nil {
		return nil, err
	}
	v, err := vp.NewView(fid, raw)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed instantiating view [%s]", fid)
	}
	return n.InitiateView(v)
}

func (n *Node) RegisterResponder(responder view.View, initiatedBy interface{}) error {
	return n.manager.RegisterResponder(responder, initiatedBy)
}

func (n *Node) RegisterService(service interface{}) error {
	return n.registry.RegisterService(service)
}

func (n *Node) GetService(v interface{}) (interface{}, error) {
	return n.registry.GetService(v)
}

// ResolveIdentity returns the identity of the party with the passed name, nil if unknown
func (n *Node) ResolveIdentity(name string) view.Identity {
	return n.idProvider.Identity(name)
}

// Peers returns the names of the other parties reachable from this node
func (n *Node) Peers() []string {
	var peers []string
	for _, name := range n.hub.Parties() {
		if name != n.name {
			peers = append(peers, name)
		}
	}
	return peers
}

// NameOf returns the name bound to the passed identity, the identity itself if unknown
func (n *Node) NameOf(identity view.Identity) string {
	name, err := n.hub.Name(identity)
	if err != nil {
		return identity.String()
	}
	return name
}

func (n *Node) Vault() *vault.Vault {
	return n.vault
}

func (n *Node) Wallet() *cash.Wallet {
	return n.wallet
}

func (n *Node) Notifier() *views.Notifier {
	s, err := n.registry.GetService(&views.Notifier{})
	if err != nil {
		panic(err)
	}
	return s.(*views.Notifier)
}
