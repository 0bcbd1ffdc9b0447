/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hyperledger-labs/obligation-smart-client/pkg/node"
	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/api"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/driver"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/services/cash"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/states"
	"github.com/hyperledger-labs/obligation-smart-client/platform/iou/views"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/server/web"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t   *testing.T
	url string
}

func (c *client) do(method, path string, body string, out interface{}) int {
	c.t.Helper()
	req, err := http.NewRequest(method, c.url+"/api"+path, strings.NewReader(body))
	require.NoError(c.t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if out != nil && resp.StatusCode/100 == 2 {
		require.NoError(c.t, json.Unmarshal(raw, out), "body: %s", raw)
	}
	return resp.StatusCode
}

func (c *client) get(path string, out interface{}) int {
	return c.do(http.MethodGet, path, "", out)
}

func (c *client) post(path string, out interface{}) int {
	return c.do(http.MethodPost, path, "", out)
}

func setup(t *testing.T) (*client, *node.Network, *httptest.Server) {
	network, err := node.NewNetwork(&node.Config{Nodes: []node.NodeConfig{
		{Name: "alice"},
		{Name: "bob", Cash: []node.Cash{{Currency: "USD", Amount: "150"}}},
		{Name: "charlie"},
	}})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	network.Start(ctx)

	l, _ := logging.NewTestLogger(t)
	h := web.NewHttpHandler(l, web.Config{})
	api.Install(h, func(name string) (api.Node, bool) {
		n, ok := network.Node(name)
		if !ok {
			return nil, false
		}
		return n, true
	})
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		srv.Close()
		assert.NoError(t, network.Stop())
	})
	return &client{t: t, url: srv.URL}, network, srv
}

func usd(q string) states.Amount {
	return states.MustAmount(q, "USD")
}

func TestLifecycleOverHTTP(t *testing.T) {
	c, _, _ := setup(t)

	var me map[string]string
	require.Equal(t, http.StatusOK, c.get("/alice/me", &me))
	assert.Equal(t, "alice", me["me"])

	var peers map[string][]string
	require.Equal(t, http.StatusOK, c.get("/alice/peers", &peers))
	assert.Equal(t, []string{"bob", "charlie"}, peers["peers"])

	assert.Equal(t, http.StatusNotFound, c.get("/zed/me", nil))

	var issued map[string]string
	require.Equal(t, http.StatusCreated, c.post("/bob/issue-iou?amount=100&currency=USD&party=alice", &issued))
	linearID := issued["linearId"]
	require.NotEmpty(t, linearID)

	var ious []api.Obligation
	require.Equal(t, http.StatusOK, c.get("/alice/ious", &ious))
	require.Len(t, ious, 1)
	assert.Equal(t, linearID, ious[0].LinearID)
	assert.Equal(t, "alice", ious[0].Lender)
	assert.Equal(t, "bob", ious[0].Borrower)
	assert.True(t, ious[0].Outstanding.Equal(usd("100")))

	var settled map[string]string
	require.Equal(t, http.StatusOK, c.post(fmt.Sprintf("/bob/settle-iou?id=%s&amount=40&currency=USD", linearID), &settled))
	assert.NotEmpty(t, settled["txId"])

	var obligation api.Obligation
	require.Equal(t, http.StatusOK, c.get("/bob/ious/"+linearID, &obligation))
	assert.True(t, obligation.Paid.Equal(usd("40")))
	assert.Equal(t, settled["txId"], obligation.Ref.TxID)

	var balances []cash.Balance
	require.Equal(t, http.StatusOK, c.get("/alice/cash-balances", &balances))
	require.Len(t, balances, 1)
	assert.Equal(t, "USD", balances[0].Currency)
	assert.Equal(t, "40", balances[0].Available.String())

	var balance states.Amount
	require.Equal(t, http.StatusOK, c.post("/alice/self-issue-cash?amount=10&currency=USD", &balance))
	assert.True(t, balance.Equal(usd("50")))

	var transferred map[string]string
	require.Equal(t, http.StatusOK, c.post(fmt.Sprintf("/alice/transfer-iou?id=%s&party=charlie", linearID), &transferred))
	assert.NotEmpty(t, transferred["txId"])
	require.Equal(t, http.StatusOK, c.get("/alice/ious", &ious))
	assert.Empty(t, ious)
	require.Equal(t, http.StatusOK, c.get("/bob/ious/"+linearID, &obligation))
	assert.Equal(t, "charlie", obligation.Lender)
}

func TestErrorMapping(t *testing.T) {
	c, _, _ := setup(t)

	var issued map[string]string
	require.Equal(t, http.StatusCreated, c.post("/bob/issue-iou?amount=100&currency=USD&party=alice", &issued))
	linearID := issued["linearId"]

	// parameters
	assert.Equal(t, http.StatusBadRequest, c.post("/bob/issue-iou?amount=abc&currency=USD&party=alice", nil))
	assert.Equal(t, http.StatusBadRequest, c.post("/bob/issue-iou?amount=10&currency=US&party=alice", nil))
	assert.Equal(t, http.StatusBadRequest, c.post("/bob/issue-iou?amount=10&currency=USD&party=zed", nil))
	assert.Equal(t, http.StatusBadRequest, c.post("/bob/settle-iou?amount=10&currency=USD", nil))

	// preconditions
	assert.Equal(t, http.StatusBadRequest, c.post(fmt.Sprintf("/alice/settle-iou?id=%s&amount=10&currency=USD", linearID), nil))
	assert.Equal(t, http.StatusBadRequest, c.post(fmt.Sprintf("/bob/transfer-iou?id=%s&party=alice", linearID), nil))

	// contract
	assert.Equal(t, http.StatusUnprocessableEntity, c.post("/bob/issue-iou?amount=10&currency=USD&party=bob", nil))

	// lookups
	assert.Equal(t, http.StatusNotFound, c.get("/bob/ious/unknown", nil))
	assert.Equal(t, http.StatusNotFound, c.post("/zed/self-issue-cash?amount=10&currency=USD", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, c.get("/bob/issue-iou", nil))
}

func TestViewDispatcher(t *testing.T) {
	c, _, _ := setup(t)

	var issued map[string]string
	require.Equal(t, http.StatusCreated, c.post("/bob/issue-iou?amount=100&currency=USD&party=alice", &issued))

	var found states.StateAndRef
	require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/alice/views/query", fmt.Sprintf(`{"LinearID": %q}`, issued["linearId"]), &found))
	assert.Equal(t, issued["linearId"], found.State.LinearID)

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPut, "/alice/views/query", `{"LinearID": `, nil))
	assert.Equal(t, http.StatusInternalServerError, c.do(http.MethodPut, "/alice/views/unknown", "", nil))
}

func TestEventStream(t *testing.T) {
	c, _, srv := setup(t)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/alice/events", nil)
	require.NoError(t, err)
	defer ws.Close()

	var issued map[string]string
	require.Equal(t, http.StatusCreated, c.post("/bob/issue-iou?amount=100&currency=USD&party=alice", &issued))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var e api.Event
	require.NoError(t, ws.ReadJSON(&e))
	assert.Equal(t, "issue", e.Command)
	assert.Equal(t, issued["linearId"], e.LinearID)
	require.Len(t, e.Produced, 1)
	assert.Equal(t, "alice", e.Produced[0].Lender)
	assert.Equal(t, "bob", e.Produced[0].Borrower)

	resp, err := http.Get(srv.URL + "/api/zed/events")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusOf(t *testing.T) {
	for _, tc := range []struct {
		err    error
		status int
	}{
		{errors.Wrap(api.ErrBadRequest, "x"), http.StatusBadRequest},
		{driver.Preconditionf("x"), http.StatusBadRequest},
		{errors.Wrap(driver.ErrRejected, "x"), http.StatusUnprocessableEntity},
		{errors.Wrap(driver.ErrConflict, "x"), http.StatusConflict},
		{errors.Wrap(driver.ErrTransport, "x"), http.StatusGatewayTimeout},
		{errors.Wrap(driver.ErrNotFound, "x"), http.StatusNotFound},
		{errors.Wrap(api.ErrUnknownNode, "x"), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	} {
		assert.Equal(t, tc.status, api.StatusOf(tc.err), "%s", tc.err)
	}
}

func TestCashOverHTTP(t *testing.T) {
	c, network, _ := setup(t)
	bob, ok := network.Node("bob")
	require.True(t, ok)

	var content views.Cash
	require.Equal(t, http.StatusOK, c.get("/alice/cash", &content))
	assert.Empty(t, content.Balances)
	assert.NotNil(t, content.Holds)
	assert.Empty(t, content.Holds)

	require.NoError(t, bob.Wallet().Hold("settle-1", usd("30")))
	require.Equal(t, http.StatusOK, c.get("/bob/cash", &content))
	require.Len(t, content.Balances, 1)
	assert.Equal(t, "USD", content.Balances[0].Currency)
	assert.Equal(t, "120", content.Balances[0].Available.String())
	assert.Equal(t, "30", content.Balances[0].OnHold.String())
	require.Len(t, content.Holds, 1)
	assert.Equal(t, "settle-1", content.Holds[0].Ref)
	assert.True(t, content.Holds[0].Amount.Equal(usd("30")))

	require.NoError(t, bob.Wallet().Release("settle-1"))
	content = views.Cash{}
	require.Equal(t, http.StatusOK, c.get("/bob/cash", &content))
	assert.Empty(t, content.Holds)
	assert.Equal(t, "150", content.Balances[0].Available.String())

	assert.Equal(t, http.StatusNotFound, c.get("/zed/cash", nil))
}
