/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sdk

import (
	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services/vault"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/views"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/core/registry"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/assert"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/events"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/metrics"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("iou.sdk")

// Ids of the view factories installed by the SDK
const (
	IssueIOU      = "issue"
	TransferIOU   = "transfer"
	SettleIOU     = "settle"
	QueryIOU      = "query"
	ListIOUs      = "list"
	SelfIssueCash = "self-issue-cash"
	CashBalances  = "balances"
	Cash          = "cash"
)

type Registry interface {
	GetService(v interface{}) (interface{}, error)

	RegisterService(service interface{}) error
}

type ResponderRegistry interface {
	RegisterResponder(responder view.View, initiatedBy interface{}) error
}

// SDK installs the obligation views, their responders and the vault notifications.
// The vault, the wallet, the notary and the event system must be registered already.
type SDK struct {
	registry   Registry
	responders ResponderRegistry
	notifier   *views.Notifier
	logs       *views.LogListener
	subscriber events.Subscriber
}

func NewSDK(registry Registry, responders ResponderRegistry) *SDK {
	return &SDK{registry: registry, responders: responders}
}

func (p *SDK) Install() error {
	logger.Infof("IOU platform enabled, installing...")

	assert.NoError(p.registry.RegisterService(views.NewMetrics(metrics.GetProvider(p.registry))), "failed registering iou metrics")

	vp := registry.NewViewProvider()
	factories := map[string]driver.Factory{
		IssueIOU:      &views.IssueIOUViewFactory{},
		TransferIOU:   &views.TransferIOUViewFactory{},
		SettleIOU:     &views.SettleIOUViewFactory{},
		QueryIOU:      &views.QueryViewFactory{},
		ListIOUs:      &views.ListViewFactory{},
		SelfIssueCash: &views.SelfIssueCashViewFactory{},
		CashBalances:  &views.BalancesViewFactory{},
		Cash:          &views.CashViewFactory{},
	}
	for id, factory := range factories {
		if err := vp.RegisterFactory(id, factory); err != nil {
			return errors.WithMessagef(err, "failed registering factory [%s]", id)
		}
	}
	assert.NoError(p.registry.RegisterService(vp), "failed registering view provider")

	responders := []struct {
		responder, initiator view.View
	}{
		{&views.IssueIOUResponderView{}, &views.IssueIOUView{}},
		{&views.TransferIOUResponderView{}, &views.TransferIOUView{}},
		{&views.SettleIOUResponderView{}, &views.SettleIOUView{}},
	}
	for _, r := range responders {
		if err := p.responders.RegisterResponder(r.responder, r.initiator); err != nil {
			return errors.WithMessage(err, "failed registering responder")
		}
	}

	subscriber, err := events.GetSubscriber(p.registry)
	if err != nil {
		return err
	}
	p.subscriber = subscriber
	p.notifier = views.NewNotifier(subscriber)
	p.logs = &views.LogListener{}
	subscriber.Subscribe(vault.CommittedTopic, p.logs)
	assert.NoError(p.registry.RegisterService(p.notifier), "failed registering notifier")

	logger.Infof("IOU platform enabled, installing...done")
	return nil
}

// Stop detaches the notifications from the event bus
func (p *SDK) Stop() {
	if p.notifier == nil {
		return
	}
	p.subscriber.Unsubscribe(vault.CommittedTopic, p.logs)
	p.notifier.Close()
}
