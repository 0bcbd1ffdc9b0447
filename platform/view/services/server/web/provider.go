/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"net/http"

	"github.com/hyperledger-labs/obligation-smart-client/platform/common/services/logging"
	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/config"
)

var webLogger = logging.MustGetLogger("view-sdk.server.web")

type WebServer interface {
	RegisterHandler(pattern string, handler http.Handler)
	Start() error
	Stop() error
	Addr() string
}

// New returns the server configured under web, a DummyServer if web.address is not set.
// The returned handler serves the /api routes and is already registered.
func New(configProvider *config.Provider) (WebServer, *HttpHandler) {
	h := NewHttpHandler(webLogger, Config{MaxReqSize: int64(configProvider.GetInt("web.maxRequestSize"))})

	listenAddr := configProvider.GetString("web.address")
	if len(listenAddr) == 0 {
		webLogger.Infof("web.address not set, the web server is disabled")
		return NewDummyServer(), h
	}

	webServer := NewServer(Options{
		ListenAddress:     listenAddr,
		Logger:            webLogger,
		ReadHeaderTimeout: configProvider.GetDuration("web.readHeaderTimeout"),
		ShutdownTimeout:   configProvider.GetDuration("web.shutdownTimeout"),
	})
	webServer.RegisterHandler(apiPrefix+"/", h)
	return webServer, h
}
