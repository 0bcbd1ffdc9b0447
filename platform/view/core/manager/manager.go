/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package manager

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/hyperledger-labs/obligation-smart-client/pkg/utils"
	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/metrics"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/registry"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zapcore"
)

const (
	SuccessLabel       = "success"
	ViewLabel          = "view"
	InitiatorViewLabel = "initiator_view"
)

var logger = logging.MustGetLogger("view-sdk.manager")

type viewEntry struct {
	View      view.View
	Initiator bool
}

// Manager runs views on behalf of the node's default identity and
// starts the registered responders when remote initiators open sessions
type Manager struct {
	sp               driver.ServiceProvider
	commLayer        driver.CommLayer
	endpointService  driver.EndpointService
	identityProvider driver.IdentityProvider
	sigService       driver.SigService

	ctx context.Context

	viewsSync    sync.RWMutex
	contextsSync sync.RWMutex

	contexts   map[string]disposableContext
	views      map[string][]*viewEntry
	initiators map[string]string

	viewTracer trace.Tracer
	m          *Metrics
}

func New(serviceProvider driver.ServiceProvider, commLayer driver.CommLayer, endpointService driver.EndpointService, identityProvider driver.IdentityProvider, sigService driver.SigService, provider trace.TracerProvider, metricsProvider metrics.Provider) *Manager {
	if provider == nil {
		provider = noop.NewTracerProvider()
	}
	return &Manager{
		sp:               serviceProvider,
		commLayer:        commLayer,
		endpointService:  endpointService,
		identityProvider: identityProvider,
		sigService:       sigService,

		contexts:   map[string]disposableContext{},
		views:      map[string][]*viewEntry{},
		initiators: map[string]string{},

		viewTracer: provider.Tracer("view"),
		m:          newMetrics(metricsProvider),
	}
}

func (cm *Manager) GetService(v interface{}) (interface{}, error) {
	return cm.sp.GetService(v)
}

// RegisterResponder binds the responder to the passed initiator, either a view or its identifier
func (cm *Manager) RegisterResponder(responder view.View, initiatedBy interface{}) error {
	initiatedByID, err := initiatorID(initiatedBy)
	if err != nil {
		return err
	}
	cm.registerResponder(responder, initiatedByID)
	return nil
}

// GetResponder returns the responder bound to the passed initiator
func (cm *Manager) GetResponder(initiatedBy interface{}) (view.View, error) {
	initiatedByID, err := initiatorID(initiatedBy)
	if err != nil {
		return nil, err
	}
	return cm.existResponderForCaller(initiatedByID)
}

func initiatorID(initiatedBy interface{}) (string, error) {
	switch t := initiatedBy.(type) {
	case view.View:
		return GetIdentifier(t), nil
	case string:
		return t, nil
	default:
		return "", errors.Errorf("initiatedBy must be a view or a string, got [%T]", initiatedBy)
	}
}

func (cm *Manager) registerResponder(responder view.View, initiatedByID string) {
	cm.viewsSync.Lock()
	defer cm.viewsSync.Unlock()

	responderID := GetIdentifier(responder)
	logger.Debugf("registering responder [%s] for initiator [%s]", responderID, initiatedByID)
	cm.views[responderID] = append(cm.views[responderID], &viewEntry{View: responder, Initiator: len(initiatedByID) == 0})
	if len(initiatedByID) != 0 {
		cm.initiators[initiatedByID] = responderID
	}
}

// InitiateView runs the passed view as initiator in a fresh context
func (cm *Manager) InitiateView(v view.View, c context.Context) (interface{}, error) {
	return cm.InitiateViewWithIdentity(v, cm.me(), c)
}

func (cm *Manager) InitiateViewWithIdentity(v view.View, id view.Identity, c context.Context) (interface{}, error) {
	if c == nil {
		c = cm.context()
	}
	newCtx, span := cm.viewTracer.Start(c, "initiate_view", trace.WithAttributes(attribute.String(ViewLabel, GetIdentifier(v))))
	defer span.End()

	viewContext := cm.newContext(newCtx, contextOpts{id: utils.GenerateUUID(), me: id, initiator: v})
	cm.putContext(viewContext)
	defer cm.deleteContext(id, viewContext.ID())

	if logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("[%s] InitiateView [view:%s], [ContextID:%s]", id, GetIdentifier(v), viewContext.ID())
	}
	res, err := viewContext.RunView(v)
	span.SetAttributes(attribute.Bool(SuccessLabel, err == nil))
	cm.m.Views.With(ViewLabel, registry.GetName(v), SuccessLabel, boolLabel(err == nil)).Add(1)
	if err != nil {
		if logger.IsEnabledFor(zapcore.DebugLevel) {
			logger.Debugf("[%s] InitiateView [view:%s], [ContextID:%s] failed [%s]", id, GetIdentifier(v), viewContext.ID(), err)
		}
		return nil, err
	}
	return res, nil
}

// Start listens on the master session and runs responders until the passed context is done
func (cm *Manager) Start(ctx context.Context) {
	cm.contextsSync.Lock()
	cm.ctx = ctx
	cm.contextsSync.Unlock()

	session, err := cm.commLayer.MasterSession()
	if err != nil {
		logger.Errorf("failed getting master session [%s]", err)
		return
	}
	for {
		select {
		case msg := <-session.Receive():
			go cm.callView(msg)
		case <-ctx.Done():
			logger.Debugf("received done signal, stopping listening to messages on the master session")
			return
		}
	}
}

func (cm *Manager) Context(contextID string) (view.Context, error) {
	cm.contextsSync.RLock()
	defer cm.contextsSync.RUnlock()

	c, ok := cm.contexts[contextID]
	if !ok {
		return nil, errors.Errorf("context %s not found", contextID)
	}
	return c, nil
}

func (cm *Manager) existResponderForCaller(caller string) (view.View, error) {
	cm.viewsSync.RLock()
	defer cm.viewsSync.RUnlock()

	label, ok := cm.initiators[caller]
	if !ok {
		return nil, errors.Errorf("no view found initiatable by [%s]", caller)
	}
	for _, entry := range cm.views[label] {
		if !entry.Initiator {
			return entry.View, nil
		}
	}
	return nil, errors.Errorf("responder not found for [%s]", label)
}

func (cm *Manager) callView(msg *view.Message) {
	responder, err := cm.existResponderForCaller(msg.Caller)
	if err != nil {
		logger.Errorf("[%s] no responder exists for [%s]: [%s]", cm.me(), msg, err)
		return
	}
	id := cm.me()

	c, _, err := cm.respond(responder, id, msg)
	if c != nil {
		// sessions are disposed only once the error, if any, reached the caller
		defer cm.deleteContext(id, c.ID())
	}
	if err != nil {
		logger.Errorf("failed responding [%v, %v], err: [%s]", GetIdentifier(responder), msg, err)
		if c == nil || c.Session() == nil {
			return
		}
		// return the error to the caller
		if err := c.Session().SendError([]byte(err.Error())); err != nil {
			logger.Errorf("failed returning error to the caller [%s]", err)
		}
	}
}

func (cm *Manager) respond(responder view.View, id view.Identity, msg *view.Message) (c view.Context, res interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("respond triggered panic: %s\n%s\n", r, debug.Stack())
			err = errors.Errorf("failed responding [%s]", r)
		}
	}()

	if logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("[%s] respond [from:%s], [sessionID:%s], [contextID:%s], [view:%s]", id, msg.FromEndpoint, msg.SessionID, msg.ContextID, GetIdentifier(responder))
	}
	caller, err := cm.endpointService.GetIdentity(msg.FromEndpoint, msg.FromPKID)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "failed getting caller identity for [%s]", msg)
	}
	backend, err := cm.commLayer.NewSessionWithID(msg.SessionID, msg.ContextID, msg.FromEndpoint, msg.FromPKID, caller, msg)
	if err != nil {
		return nil, nil, err
	}
	viewContext := cm.newContext(cm.context(), contextOpts{id: msg.ContextID, me: id, session: backend, caller: caller})
	cm.putContext(viewContext)
	c = viewContext

	res, err = viewContext.RunView(responder)
	cm.m.Views.With(ViewLabel, registry.GetName(responder), SuccessLabel, boolLabel(err == nil)).Add(1)
	if err != nil && logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("[%s] respond failure [from:%s], [sessionID:%s], [contextID:%s] [%s]", id, msg.FromEndpoint, msg.SessionID, msg.ContextID, err)
	}
	return viewContext, res, err
}

func (cm *Manager) context() context.Context {
	cm.contextsSync.RLock()
	defer cm.contextsSync.RUnlock()
	if cm.ctx == nil {
		return context.Background()
	}
	return cm.ctx
}

func (cm *Manager) putContext(c disposableContext) {
	cm.contextsSync.Lock()
	defer cm.contextsSync.Unlock()
	cm.contexts[c.ID()] = c
	cm.m.Contexts.Set(float64(len(cm.contexts)))
}

func (cm *Manager) deleteContext(id view.Identity, contextID string) {
	cm.contextsSync.Lock()
	defer cm.contextsSync.Unlock()

	if logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("[%s] delete context [contextID:%s]", id, contextID)
	}
	if c, ok := cm.contexts[contextID]; ok {
		c.Dispose()
		delete(cm.contexts, contextID)
		cm.m.Contexts.Set(float64(len(cm.contexts)))
	}
}

func (cm *Manager) me() view.Identity {
	return cm.identityProvider.DefaultIdentity()
}

// GetIdentifier returns the identifier responders are registered against
func GetIdentifier(f view.View) string {
	if f == nil {
		return "<nil view>"
	}
	return registry.GetIdentifier(f)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
