/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package web_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/server/web"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Fruit struct {
	Name     string
	Quantity int
}

type FruitBasket struct {
	Fruits []string
}

type fruitHandler struct {
	t *testing.T
}

func (h *fruitHandler) HandleRequest(ctx *web.ReqContext) (interface{}, int) {
	query := ctx.Query.(*Fruit)
	if query.Quantity < 0 {
		return &web.ResponseErr{Reason: "negative quantity"}, http.StatusBadRequest
	}

	var res FruitBasket
	for i := 0; i < query.Quantity; i++ {
		res.Fruits = append(res.Fruits, query.Name)
	}
	require.Equal(h.t, "pineapple", ctx.Vars["Fruit"])
	return res, http.StatusOK
}

func (h *fruitHandler) ParsePayload(payload []byte) (interface{}, error) {
	var f Fruit
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func newHandler(t *testing.T, conf web.Config) *web.HttpHandler {
	l, _ := logging.NewTestLogger(t)
	h := web.NewHttpHandler(l, conf)
	h.RegisterURI("/test/{Fruit}", http.MethodPut, &fruitHandler{t: t})
	return h
}

func TestHttpHandler(t *testing.T) {
	h := newHandler(t, web.Config{})

	resp := httptest.NewRecorder()
	pineappleRequest := bytes.NewBufferString(`{"Name": "pineapple", "Quantity": 3}`)
	req := httptest.NewRequest(http.MethodPut, "/api/test/pineapple", pineappleRequest)
	h.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))
	expectedPineappleResponse := FruitBasket{Fruits: []string{"pineapple", "pineapple", "pineapple"}}
	var actualResponse FruitBasket
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &actualResponse))
	assert.Equal(t, expectedPineappleResponse, actualResponse)
}

func TestHttpHandlerErrors(t *testing.T) {
	h := newHandler(t, web.Config{MaxReqSize: 64})

	send := func(body string, accept string) (*httptest.ResponseRecorder, web.ResponseErr) {
		resp := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/test/pineapple", strings.NewReader(body))
		if len(accept) != 0 {
			req.Header.Set("Accept", accept)
		}
		h.ServeHTTP(resp, req)
		var e web.ResponseErr
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &e))
		return resp, e
	}

	resp, e := send(`{"Name": "pineapple", "Quantity": -1}`, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "negative quantity", e.Reason)

	resp, e = send(`{"Name": `, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "failed parsing request", e.Reason)

	resp, e = send(`{"Name": "pineapple", "Quantity": 3}`, "text/html")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "bad content type", e.Reason)

	resp, e = send(`{"Name": "`+strings.Repeat("a", 100)+`"}`, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "failed reading request", e.Reason)

	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/test/pineapple", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}

var errUnknown = errors.New("unknown view")

func TestDispatcher(t *testing.T) {
	l, _ := logging.NewTestLogger(t)
	h := web.NewHttpHandler(l, web.Config{})
	d := web.NewDispatcher(h, func(err error) int {
		if errors.Is(err, errUnknown) {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	})
	d.WireViewCaller("/{Node}/views/{View}", web.ViewCallerFunc(func(ctx *web.ReqContext, vid string, input []byte) (interface{}, error) {
		if vid != "echo" {
			return nil, errors.Wrapf(errUnknown, "view [%s]", vid)
		}
		return map[string]string{"node": ctx.Vars["Node"], "input": string(input)}, nil
	}))

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/api/alice/views/echo", strings.NewReader("hello")))
	require.Equal(t, http.StatusOK, resp.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, map[string]string{"node": "alice", "input": "hello"}, out)

	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/api/alice/views/missing", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, resp.Body.String(), "view [missing]: unknown view")
}
