/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package manager

import (
	"context"
	"testing"
	"time"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/comm"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/metrics/disabled"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/registry"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/session"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idProvider struct{ id view.Identity }

func (p *idProvider) DefaultIdentity() view.Identity { return p.id }
func (p *idProvider) Identity(string) view.Identity  { return p.id }

type noSigs struct{}

func (n *noSigs) GetSigner(view.Identity) (driver.Signer, error) { return nil, errors.New("no signer") }
func (n *noSigs) GetVerifier(view.Identity) (driver.Verifier, error) {
	return nil, errors.New("no verifier")
}
func (n *noSigs) IsMe(view.Identity) bool { return false }

type pingView struct {
	to      view.Identity
	payload string
}

func (p *pingView) Call(context view.Context) (interface{}, error) {
	s, err := session.NewJSON(context, p, p.to)
	if err != nil {
		return nil, err
	}
	if err := s.Send(p.payload); err != nil {
		return nil, err
	}
	var answer string
	if err := s.ReceiveWithTimeout(&answer, 2*time.Second); err != nil {
		return nil, err
	}
	return answer, nil
}

type pongView struct{}

func (p *pongView) Call(context view.Context) (interface{}, error) {
	s := session.JSON(context)
	var question string
	if err := s.Receive(&question); err != nil {
		return nil, err
	}
	if question == "boom" {
		panic("cannot answer")
	}
	if question != "ping" {
		return nil, errors.Errorf("unexpected question [%s]", question)
	}
	return nil, s.Send("pong")
}

type node struct {
	id view.Identity
	m  *Manager
}

func newNode(t *testing.T, hub *comm.Hub, name string) *node {
	id := view.Identity(name + "-id")
	endpoint, err := hub.NewEndpoint(name, id, &disabled.Provider{})
	require.NoError(t, err)
	sp := registry.New()
	m := New(sp, endpoint, hub, &idProvider{id: id}, &noSigs{}, nil, &disabled.Provider{})
	require.NoError(t, sp.RegisterService(m))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go m.Start(ctx)
	return &node{id: id, m: m}
}

func TestInitiateAndRespond(t *testing.T) {
	hub := comm.NewHub()
	alice := newNode(t, hub, "alice")
	bob := newNode(t, hub, "bob")
	require.NoError(t, bob.m.RegisterResponder(&pongView{}, &pingView{}))

	responder, err := bob.m.GetResponder(&pingView{})
	require.NoError(t, err)
	assert.IsType(t, &pongView{}, responder)

	res, err := alice.m.InitiateView(&pingView{to: bob.id, payload: "ping"}, context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pong", res)
}

func TestResponderErrorsReachTheInitiator(t *testing.T) {
	hub := comm.NewHub()
	alice := newNode(t, hub, "alice")
	bob := newNode(t, hub, "bob")
	require.NoError(t, bob.m.RegisterResponder(&pongView{}, &pingView{}))

	_, err := alice.m.InitiateView(&pingView{to: bob.id, payload: "hello"}, context.Background())
	var remote *session.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Contains(t, remote.Reason, "unexpected question [hello]")

	_, err = alice.m.InitiateView(&pingView{to: bob.id, payload: "boom"}, context.Background())
	require.True(t, errors.As(err, &remote))
	assert.Contains(t, remote.Reason, "cannot answer")
}

type panickingView struct{ cleaned *bool }

func (p *panickingView) Call(context view.Context) (interface{}, error) {
	context.OnError(func() { *p.cleaned = true })
	panic(errors.New("kaboom"))
}

func TestPanicsAreRecovered(t *testing.T) {
	hub := comm.NewHub()
	alice := newNode(t, hub, "alice")

	cleaned := false
	_, err := alice.m.InitiateView(&panickingView{cleaned: &cleaned}, context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.True(t, cleaned)
}

func TestRegisterResponderRejectsUnknownInitiator(t *testing.T) {
	m := New(registry.New(), nil, nil, &idProvider{}, nil, nil, &disabled.Provider{})
	assert.Error(t, m.RegisterResponder(&pongView{}, 42))
	_, err := m.GetResponder("unknown")
	assert.Error(t, err)
}
