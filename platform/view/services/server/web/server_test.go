/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package web_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/server/web"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/server/web/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer(t *testing.T) {
	l, _ := logging.NewTestLogger(t)
	s := web.NewServer(web.Options{ListenAddress: "127.0.0.1:0", Logger: l})
	s.RegisterHandler("/hello", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello " + middleware.RequestID(r.Context())))
	}))

	assert.Empty(t, s.Addr())
	require.NoError(t, s.Start())
	require.Error(t, s.Start())

	req, err := http.NewRequest(http.MethodGet, "http://"+s.Addr()+"/hello", nil)
	require.NoError(t, err)
	req.Header.Set(middleware.RequestIDHeader, "42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "hello 42", string(body))
	assert.Equal(t, "42", resp.Header.Get(middleware.RequestIDHeader))

	require.NoError(t, s.Stop())
	assert.Empty(t, s.Addr())
	require.NoError(t, s.Stop())
}

func TestWSStream(t *testing.T) {
	l, _ := logging.NewTestLogger(t)
	type message struct {
		Text string `json:"text"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stream, err := web.NewWSStream(l, w, r)
		if err != nil {
			return
		}
		defer stream.Close()
		var m message
		if err := stream.Recv(&m); err != nil {
			return
		}
		_ = stream.Send(&message{Text: strings.ToUpper(m.Text)})
	}))
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.WriteJSON(&message{Text: "ping"}))
	var reply message
	require.NoError(t, ws.ReadJSON(&reply))
	assert.Equal(t, "PING", reply.Text)

	_, _, err = ws.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}
