/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

const (
	apiPrefix = "/api"
)

type ResponseErr struct {
	Reason string `json:"reason"`
}

type Config struct {
	// MaxReqSize bounds the request body, zero means no bound
	MaxReqSize int64
}

type HttpHandler struct {
	conf   Config
	r      *mux.Router
	Logger logger
}

type logger interface {
	Debugf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

type ReqContext struct {
	Req   *http.Request
	Vars  map[string]string
	Query interface{}
}

type RequestHandler interface {
	// HandleRequest dispatches the request in the backend by parsing the given request context
	// and returning a status code and a response back to the client.
	HandleRequest(*ReqContext) (response interface{}, statusCode int)

	// ParsePayload parses the payload to handler specific form or returns an error
	ParsePayload([]byte) (interface{}, error)
}

func NewHttpHandler(l logger, conf Config) *HttpHandler {
	return &HttpHandler{conf: conf, r: mux.NewRouter(), Logger: l}
}

func (h *HttpHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.r.ServeHTTP(w, req)
}

func (h *HttpHandler) RegisterURI(uri string, method string, rh RequestHandler) {
	h.r.HandleFunc(apiPrefix+uri, func(w http.ResponseWriter, req *http.Request) {
		h.handle(w, req, rh)
	}).Methods(method)
}

// RegisterStream binds a raw handler, websocket endpoints need the response writer
func (h *HttpHandler) RegisterStream(uri string, handler http.HandlerFunc) {
	h.r.HandleFunc(apiPrefix+uri, handler).Methods(http.MethodGet)
}

func (h *HttpHandler) handle(w http.ResponseWriter, req *http.Request, rh RequestHandler) {
	if !acceptsJSON(req.Header.Get("Accept")) {
		h.fail(w, http.StatusBadRequest, "bad content type", errors.Errorf("cannot answer [%s] with application/json", req.Header.Get("Accept")))
		return
	}

	body := req.Body
	if h.conf.MaxReqSize > 0 {
		body = http.MaxBytesReader(w, req.Body, h.conf.MaxReqSize)
	}
	payload, err := io.ReadAll(body)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "failed reading request", err)
		return
	}
	query, err := rh.ParsePayload(payload)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "failed parsing request", err)
		return
	}

	result, status := rh.HandleRequest(&ReqContext{Req: req, Vars: mux.Vars(req), Query: query})
	raw, err := json.Marshal(result)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "failed encoding response from backend", err)
		return
	}
	writeJSON(w, status, raw, h.Logger)
}

func (h *HttpHandler) fail(w http.ResponseWriter, code int, reason string, cause error) {
	h.Logger.Warnf("failed processing request: %v", cause)
	SendError(w, code, reason)
}

// SendError answers with a ResponseErr carrying reason
func SendError(w http.ResponseWriter, code int, reason string) {
	raw, err := json.Marshal(&ResponseErr{Reason: reason})
	if err != nil {
		webLogger.Warnf("failed encoding error response: %v", err)
		return
	}
	writeJSON(w, code, raw, webLogger)
}

func writeJSON(w http.ResponseWriter, code int, raw []byte, l logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(append(raw, '\n')); err != nil {
		l.Warnf("failed writing response: %v", err)
	}
}

// acceptsJSON is true when the Accept header is empty or admits application/json
func acceptsJSON(accept string) bool {
	if len(accept) == 0 {
		return true
	}
	for _, opt := range strings.Split(accept, ",") {
		mediaType := strings.TrimSpace(strings.SplitN(opt, ";", 2)[0])
		switch mediaType {
		case "application/json", "application/*", "*/*":
			return true
		}
	}
	return false
}
