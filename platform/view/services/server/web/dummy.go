/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"net/http"
)

// DummyServer is used when no listen address is configured
type DummyServer struct{}

func NewDummyServer() *DummyServer {
	return &DummyServer{}
}

func (d *DummyServer) RegisterHandler(string, http.Handler) {}

func (d *DummyServer) Start() error {
	return nil
}

func (d *DummyServer) Stop() error {
	return nil
}

func (d *DummyServer) Addr() string {
	return ""
}
