/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hyperledger-labs/obligation-smart-client/platform/view/services/server/web/middleware"
	"github.com/pkg/errors"
)

type Options struct {
	ListenAddress     string
	Logger            Logger
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

type Logger interface {
	Debugf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// Server serves the registered handlers on a single listener.
// Every request goes through the request id and request logger middlewares.
type Server struct {
	logger     Logger
	options    Options
	mux        *http.ServeMux
	httpServer *http.Server

	lock     sync.Mutex
	listener net.Listener
	done     chan struct{}
}

func NewServer(o Options) *Server {
	if o.Logger == nil {
		o.Logger = webLogger
	}
	if o.ReadHeaderTimeout == 0 {
		o.ReadHeaderTimeout = 5 * time.Second
	}
	if o.ShutdownTimeout == 0 {
		o.ShutdownTimeout = 5 * time.Second
	}
	mux := http.NewServeMux()
	chain := middleware.NewChain(
		middleware.WithRequestID(),
		middleware.WithRequestLogger(o.Logger),
	)
	return &Server{
		logger:  o.Logger,
		options: o,
		mux:     mux,
		httpServer: &http.Server{
			Handler:           chain.Handler(mux),
			ReadHeaderTimeout: o.ReadHeaderTimeout,
		},
	}
}

// RegisterHandler binds handler to the pattern, patterns ending with / match every sub path
func (s *Server) RegisterHandler(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

func (s *Server) Start() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.listener != nil {
		return errors.New("server already started")
	}

	listener, err := net.Listen("tcp", s.options.ListenAddress)
	if err != nil {
		return errors.Wrapf(err, "failed listening on [%s]", s.options.ListenAddress)
	}
	s.listener = listener
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		if err := s.httpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("web server on [%s] exited: %s", listener.Addr(), err)
		}
	}(s.done)
	s.logger.Infof("web server listening on [%s]", listener.Addr())
	return nil
}

// Stop waits for in-flight requests up to the shutdown timeout
func (s *Server) Stop() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.listener == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)
	<-s.done
	s.listener = nil
	if err != nil {
		return errors.Wrap(err, "failed shutting down web server")
	}
	s.logger.Infof("web server stopped")
	return nil
}

// Addr returns the address the server listens on, empty if not started
func (s *Server) Addr() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
