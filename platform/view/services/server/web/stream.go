/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// WSStream exchanges JSON values over a websocket upgraded from an http request
type WSStream struct {
	ws     *websocket.Conn
	logger logger
}

func NewWSStream(l logger, w http.ResponseWriter, req *http.Request) (*WSStream, error) {
	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed upgrading [%s] to websocket", req.URL.Path)
	}
	l.Debugf("upgraded [%s] to websocket", req.URL.Path)
	return &WSStream{ws: ws, logger: l}, nil
}

// Recv blocks until the next message arrives and decodes it into p
func (c *WSStream) Recv(p any) error {
	raw, err := c.Read()
	if err != nil {
		return err
	}
	return errors.Wrap(json.Unmarshal(raw, p), "failed decoding message")
}

func (c *WSStream) Send(p any) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "failed encoding message")
	}
	return c.Write(raw)
}

func (c *WSStream) Read() ([]byte, error) {
	_, raw, err := c.ws.ReadMessage()
	if err != nil {
		c.logger.Debugf("websocket read ended: %v", err)
		return nil, err
	}
	return raw, nil
}

func (c *WSStream) Write(raw []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, raw); err != nil {
		c.logger.Errorf("failed writing to websocket: %v", err)
		return err
	}
	return nil
}

// Close sends a normal closure frame, then closes the connection
func (c *WSStream) Close() error {
	closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.ws.WriteControl(websocket.CloseMessage, closing, time.Now().Add(writeWait)); err != nil {
		c.logger.Debugf("failed sending close frame: %v", err)
	}
	return c.ws.Close()
}
