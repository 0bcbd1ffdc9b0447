/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package manager

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/registry"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
)

type disposableContext interface {
	view.Context
	Dispose()
}

// localContext is a context views can be run on.
// cleanup runs the OnError callbacks registered on that very context.
type localContext interface {
	disposableContext
	cleanup()
}

// contextOpts carries what distinguishes one view context from another
type contextOpts struct {
	id        string
	me        view.Identity
	initiator view.View
	// session and caller are set when responding
	session view.Session
	caller  view.Identity
}

// ctx is the root context of an initiator or responder run.
// It owns the sessions opened by the views running on it.
type ctx struct {
	contextOpts
	goCtx   context.Context
	manager *Manager

	mu        sync.Mutex
	sessions  map[string]view.Session
	callbacks []func()
}

func (cm *Manager) newContext(goCtx context.Context, o contextOpts) *ctx {
	c := &ctx{
		contextOpts: o,
		goCtx:       goCtx,
		manager:     cm,
		sessions:    map[string]view.Session{},
	}
	if o.session != nil {
		c.sessions[o.caller.UniqueID()] = o.session
	}
	return c
}

func (c *ctx) StartSpanFrom(parent context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return c.manager.viewTracer.Start(parent, name, opts...)
}

func (c *ctx) GetService(v interface{}) (interface{}, error) { return c.manager.sp.GetService(v) }

func (c *ctx) ID() string { return c.id }

func (c *ctx) Me() view.Identity { return c.me }

func (c *ctx) Initiator() view.View { return c.initiator }

func (c *ctx) Session() view.Session { return c.session }

func (c *ctx) Context() context.Context { return c.goCtx }

func (c *ctx) IsMe(id view.Identity) bool {
	return c.me.Equal(id) || (c.manager.sigService != nil && c.manager.sigService.IsMe(id))
}

func (c *ctx) RunView(v view.View, opts ...view.RunViewOption) (interface{}, error) {
	return runViewOn(v, opts, c)
}

// GetSession returns the session to party, opening it on behalf of caller if needed.
// Views running in the same context share one session per party.
func (c *ctx) GetSession(caller view.View, party view.Identity) (view.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := party.UniqueID()
	if s, ok := c.sessions[key]; ok {
		if !s.Info().Closed {
			return s, nil
		}
		logger.Debugf("[%s] session to [%s] is closed, opening a new one", c.id, party)
		delete(c.sessions, key)
	}
	if caller == nil {
		return nil, errors.Errorf("no session to [%s] and no caller view to open one", party)
	}

	endpoint, pkid, err := c.manager.endpointService.Resolve(party)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed resolving [%s]", party)
	}
	trace.SpanFromContext(c.goCtx).AddEvent("open session to " + endpoint)
	if logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("[%s] opening session to [%s]", c.me, endpoint)
	}
	s, err := c.manager.commLayer.NewSession(registry.GetIdentifier(caller), c.id, endpoint, pkid)
	if err != nil {
		return nil, err
	}
	c.sessions[key] = s
	return s, nil
}

func (c *ctx) OnError(callback func()) {
	c.mu.Lock()
	c.callbacks = append(c.callbacks, callback)
	c.mu.Unlock()
}

// Dispose closes every session opened in this context
func (c *ctx) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := map[string]struct{}{}
	if c.session != nil {
		ids[c.session.Info().ID] = struct{}{}
	}
	for _, s := range c.sessions {
		ids[s.Info().ID] = struct{}{}
	}
	for id := range ids {
		c.manager.commLayer.DeleteSessions(c.goCtx, id)
	}
	c.sessions = map[string]view.Session{}
}

func (c *ctx) cleanup() {
	c.mu.Lock()
	callbacks := c.callbacks
	c.mu.Unlock()
	runCallbacks(c.id, callbacks)
}

// childContext runs a nested view: it may override session, initiator and
// context.Context of its parent and keeps its own error callbacks
type childContext struct {
	localContext
	session   view.Session
	initiator view.View
	goCtx     context.Context
	callbacks []func()
}

func (w *childContext) Context() context.Context { return w.goCtx }

func (w *childContext) Session() view.Session {
	if w.session != nil {
		return w.session
	}
	return w.localContext.Session()
}

func (w *childContext) Initiator() view.View {
	if w.initiator != nil {
		return w.initiator
	}
	return w.localContext.Initiator()
}

func (w *childContext) OnError(f func()) { w.callbacks = append(w.callbacks, f) }

func (w *childContext) RunView(v view.View, opts ...view.RunViewOption) (interface{}, error) {
	return runViewOn(v, opts, w)
}

func (w *childContext) cleanup() { runCallbacks(w.ID(), w.callbacks) }

// sameContext shares everything with its parent but the context.Context
type sameContext struct {
	localContext
	goCtx context.Context
}

func (c *sameContext) Context() context.Context { return c.goCtx }

func (c *sameContext) RunView(v view.View, opts ...view.RunViewOption) (interface{}, error) {
	return runViewOn(v, opts, c)
}

func runViewOn(v view.View, opts []view.RunViewOption, parent localContext) (res interface{}, err error) {
	options, err := view.CompileRunViewOptions(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed compiling options")
	}
	if v == nil && options.Call == nil {
		return nil, errors.Errorf("no view passed")
	}
	var initiator view.View
	if options.AsInitiator {
		initiator = v
	}
	goCtx := parent.Context()
	if options.Ctx != nil {
		goCtx = options.Ctx
	}
	goCtx, span := parent.StartSpanFrom(goCtx, registry.GetName(v), trace.WithSpanKind(trace.SpanKindInternal), trace.WithAttributes(
		attribute.String(ViewLabel, registry.GetIdentifier(v)),
		attribute.String(InitiatorViewLabel, registry.GetIdentifier(initiator)),
	))
	defer span.End()

	var cc localContext = &childContext{localContext: parent, session: options.Session, initiator: initiator, goCtx: goCtx}
	if options.SameContext {
		cc = &sameContext{localContext: parent, goCtx: goCtx}
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		cc.cleanup()
		logger.Errorf("view [%s] panicked: [%v]\n%s", registry.GetName(v), r, debug.Stack())
		res = nil
		switch e := r.(type) {
		case error:
			err = errors.WithMessage(e, "caught panic")
		case string:
			err = errors.New(e)
		default:
			err = errors.Errorf("caught panic [%v]", e)
		}
	}()

	if options.Call != nil {
		res, err = options.Call(cc)
	} else {
		res, err = v.Call(cc)
	}
	span.SetAttributes(attribute.Bool(SuccessLabel, err == nil))
	if err != nil {
		cc.cleanup()
		return nil, err
	}
	return res, nil
}

func runCallbacks(contextID string, callbacks []func()) {
	logger.Debugf("[%s] running [%d] error callbacks", contextID, len(callbacks))
	for _, f := range callbacks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Debugf("[%s] error callback panicked [%v]", contextID, r)
				}
			}()
			f()
		}()
	}
}
