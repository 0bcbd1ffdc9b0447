/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/sdk"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services/cash"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/views"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/server/web"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/view"
	"github.com/pkg/errors"
)

var logger = logging.MustGetLogger("iou.api")

var (
	// ErrBadRequest marks malformed query parameters
	ErrBadRequest = errors.New("bad request")
	// ErrUnknownNode is returned when the path names no node of the network
	ErrUnknownNode = errors.New("unknown node")
)

// Node is the part of a node the api drives
type Node interface {
	Name() string
	Identity() view.Identity
	Peers() []string
	NameOf(identity view.Identity) string
	ResolveIdentity(name string) view.Identity
	CallView(fid string, in interface{}) (interface{}, error)
	Notifier() *views.Notifier
}

// NodeResolver returns the node with the passed name
type NodeResolver func(name string) (Node, bool)

// Install registers the routes of every node on h, the node is the first path element
func Install(h *web.HttpHandler, nodes NodeResolver) {
	a := &api{nodes: nodes}

	h.RegisterURI("/{node}/me", http.MethodGet, a.route(a.me))
	h.RegisterURI("/{node}/peers", http.MethodGet, a.route(a.peers))
	h.RegisterURI("/{node}/ious", http.MethodGet, a.route(a.ious))
	h.RegisterURI("/{node}/ious/{id}", http.MethodGet, a.route(a.iou))
	h.RegisterURI("/{node}/cash-balances", http.MethodGet, a.route(a.balances))
	h.RegisterURI("/{node}/cash", http.MethodGet, a.route(a.cash))
	h.RegisterURI("/{node}/issue-iou", http.MethodPost, a.created(a.issue))
	h.RegisterURI("/{node}/transfer-iou", http.MethodPost, a.route(a.transfer))
	h.RegisterURI("/{node}/settle-iou", http.MethodPost, a.route(a.settle))
	h.RegisterURI("/{node}/self-issue-cash", http.MethodPost, a.route(a.selfIssueCash))
	h.RegisterStream("/{node}/events", a.events)

	web.NewDispatcher(h, StatusOf).WireViewCaller("/{node}/views/{View}", web.ViewCallerFunc(a.callView))
}

// StatusOf maps the error of an operation to an http status code
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, driver.ErrPrecondition):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownNode), errors.Is(err, driver.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, driver.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, driver.ErrRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, driver.ErrTransport):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type api struct {
	nodes NodeResolver
}

type operation func(n Node, ctx *web.ReqContext) (interface{}, error)

// route adapts an operation to a web.RequestHandler, parameters come from the path and the query
type route struct {
	a      *api
	op     operation
	status int
}

func (a *api) route(op operation) *route {
	return &route{a: a, op: op, status: http.StatusOK}
}

func (a *api) created(op operation) *route {
	return &route{a: a, op: op, status: http.StatusCreated}
}

func (r *route) ParsePayload([]byte) (interface{}, error) {
	return nil, nil
}

func (r *route) HandleRequest(ctx *web.ReqContext) (interface{}, int) {
	n, err := r.a.node(ctx.Vars["node"])
	if err != nil {
		return &web.ResponseErr{Reason: err.Error()}, StatusOf(err)
	}
	res, err := r.op(n, ctx)
	if err != nil {
		logger.Debugf("[%s] %s %s failed: %s", n.Name(), ctx.Req.Method, ctx.Req.URL.Path, err)
		return &web.ResponseErr{Reason: err.Error()}, StatusOf(err)
	}
	return res, r.status
}

func (a *api) node(name string) (Node, error) {
	n, ok := a.nodes(name)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNode, "[%s]", name)
	}
	return n, nil
}

func (a *api) me(n Node, _ *web.ReqContext) (interface{}, error) {
	return map[string]string{"me": n.Name()}, nil
}

func (a *api) peers(n Node, _ *web.ReqContext) (interface{}, error) {
	peers := n.Peers()
	if peers == nil {
		peers = []string{}
	}
	return map[string][]string{"peers": peers}, nil
}

func (a *api) ious(n Node, _ *web.ReqContext) (interface{}, error) {
	res, err := n.CallView(sdk.ListIOUs, nil)
	if err != nil {
		return nil, err
	}
	all := res.([]*states.StateAndRef)
	out := make([]Obligation, 0, len(all))
	for _, s := range all {
		out = append(out, toObligation(n, s))
	}
	return out, nil
}

func (a *api) iou(n Node, ctx *web.ReqContext) (interface{}, error) {
	res, err := n.CallView(sdk.QueryIOU, &views.Query{LinearID: ctx.Vars["id"]})
	if err != nil {
		return nil, err
	}
	return toObligation(n, res.(*states.StateAndRef)), nil
}

func (a *api) balances(n Node, _ *web.ReqContext) (interface{}, error) {
	res, err := n.CallView(sdk.CashBalances, nil)
	if err != nil {
		return nil, err
	}
	balances := res.([]cash.Balance)
	if balances == nil {
		balances = []cash.Balance{}
	}
	return balances, nil
}

func (a *api) cash(n Node, _ *web.ReqContext) (interface{}, error) {
	return n.CallView(sdk.Cash, nil)
}

// issue records that the node borrows amount from party
func (a *api) issue(n Node, ctx *web.ReqContext) (interface{}, error) {
	amount, err := amountParam(ctx)
	if err != nil {
		return nil, err
	}
	lender, err := partyParam(n, ctx)
	if err != nil {
		return nil, err
	}
	res, err := n.CallView(sdk.IssueIOU, &views.Issue{
		Amount:   amount,
		Lender:   lender,
		Borrower: n.Identity(),
	})
	if err != nil {
		return nil, err
	}
	return map[string]string{"linearId": res.(string)}, nil
}

func (a *api) transfer(n Node, ctx *web.ReqContext) (interface{}, error) {
	linearID, err := requiredParam(ctx, "id")
	if err != nil {
		return nil, err
	}
	newLender, err := partyParam(n, ctx)
	if err != nil {
		return nil, err
	}
	res, err := n.CallView(sdk.TransferIOU, &views.Transfer{LinearID: linearID, NewLender: newLender})
	if err != nil {
		return nil, err
	}
	return map[string]string{"txId": res.(string)}, nil
}

func (a *api) settle(n Node, ctx *web.ReqContext) (interface{}, error) {
	linearID, err := requiredParam(ctx, "id")
	if err != nil {
		return nil, err
	}
	amount, err := amountParam(ctx)
	if err != nil {
		return nil, err
	}
	res, err := n.CallView(sdk.SettleIOU, &views.Settle{LinearID: linearID, Amount: amount})
	if err != nil {
		return nil, err
	}
	return map[string]string{"txId": res.(string)}, nil
}

func (a *api) selfIssueCash(n Node, ctx *web.ReqContext) (interface{}, error) {
	amount, err := amountParam(ctx)
	if err != nil {
		return nil, err
	}
	return n.CallView(sdk.SelfIssueCash, &views.SelfIssueCash{Amount: amount})
}

// callView runs any registered view on the raw request body
func (a *api) callView(ctx *web.ReqContext, vid string, input []byte) (interface{}, error) {
	n, err := a.node(ctx.Vars["node"])
	if err != nil {
		return nil, err
	}
	var in interface{}
	if len(input) != 0 {
		if !json.Valid(input) {
			return nil, errors.Wrapf(ErrBadRequest, "input of [%s] is not valid json", vid)
		}
		in = json.RawMessage(input)
	}
	return n.CallView(vid, in)
}

func requiredParam(ctx *web.ReqContext, name string) (string, error) {
	v := ctx.Req.URL.Query().Get(name)
	if len(v) == 0 {
		return "", errors.Wrapf(ErrBadRequest, "query parameter [%s] missing", name)
	}
	return v, nil
}

func amountParam(ctx *web.ReqContext) (states.Amount, error) {
	quantity, err := requiredParam(ctx, "amount")
	if err != nil {
		return states.Amount{}, err
	}
	code, err := requiredParam(ctx, "currency")
	if err != nil {
		return states.Amount{}, err
	}
	amount, err := states.ParseAmount(quantity, code)
	if err != nil {
		return states.Amount{}, errors.Wrapf(ErrBadRequest, "%s", err)
	}
	return amount, nil
}

func partyParam(n Node, ctx *web.ReqContext) (view.Identity, error) {
	name, err := requiredParam(ctx, "party")
	if err != nil {
		return nil, err
	}
	party := n.ResolveIdentity(name)
	if party.IsNone() {
		return nil, errors.Wrapf(ErrBadRequest, "unknown party [%s]", name)
	}
	return party, nil
}

// events streams the committed transactions of the node over a websocket
func (a *api) events(w http.ResponseWriter, r *http.Request) {
	n, err := a.node(mux.Vars(r)["node"])
	if err != nil {
		web.SendError(w, StatusOf(err), err.Error())
		return
	}
	committed, cancel := n.Notifier().Subscribe()
	defer cancel()

	stream, err := web.NewWSStream(logger, w, r)
	if err != nil {
		logger.Warnf("[%s] failed upgrading events stream: %s", n.Name(), err)
		return
	}
	defer stream.Close()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, err := stream.Read(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case c, ok := <-committed:
			if !ok {
				return
			}
			if err := stream.Send(toEvent(n, c)); err != nil {
				return
			}
		}
	}
}
