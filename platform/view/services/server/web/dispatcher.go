/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"net/http"
	"strings"
)

type ViewCaller interface {
	CallView(context *ReqContext, vid string, input []byte) (interface{}, error)
}

type ViewCallerFunc func(context *ReqContext, vid string, input []byte) (interface{}, error)

func (f ViewCallerFunc) CallView(context *ReqContext, vid string, input []byte) (interface{}, error) {
	return f(context, vid, input)
}

// StatusFunc maps the error of a view to an http status code
type StatusFunc func(err error) int

func NewDispatcher(h *HttpHandler, status StatusFunc) *Dispatcher {
	if status == nil {
		status = func(error) int { return http.StatusInternalServerError }
	}
	return &Dispatcher{Logger: h.Logger, Handler: h, status: status}
}

// Dispatcher runs the view named by the View path variable on the raw request body
type Dispatcher struct {
	vc      ViewCaller
	status  StatusFunc
	Logger  logger
	Handler *HttpHandler
}

func (rd *Dispatcher) HandleRequest(context *ReqContext) (response interface{}, statusCode int) {
	rd.Logger.Debugf("Received request from %s", context.Req.RemoteAddr)

	if rd.vc == nil {
		rd.Logger.Errorf("ViewCaller has not been initialized yet")
		return &ResponseErr{Reason: "internal error"}, http.StatusInternalServerError
	}

	viewID := context.Vars["View"]
	escapedViewID := strings.ReplaceAll(viewID, "\n", "")
	escapedViewID = strings.ReplaceAll(escapedViewID, "\r", "")

	res, err := rd.vc.CallView(context, escapedViewID, context.Query.([]byte))
	if err != nil {
		rd.Logger.Debugf("view [%s] failed: %s", escapedViewID, err)
		return &ResponseErr{Reason: err.Error()}, rd.status(err)
	}

	return res, http.StatusOK
}

func (rd *Dispatcher) ParsePayload(bytes []byte) (interface{}, error) {
	return bytes, nil
}

// WireViewCaller serves vc under uri with PUT, uri must carry the {View} variable
func (rd *Dispatcher) WireViewCaller(uri string, vc ViewCaller) {
	rd.vc = vc
	rd.Handler.RegisterURI(uri, http.MethodPut, rd)
}
