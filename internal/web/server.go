// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package web is the UI-facing HTTP gateway over the auth service. It
// exposes the four auth operations plus session state and a
// server-sent-events stream of session changes.
package web

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/authgate/internal/auth"
	"github.com/holomush/authgate/internal/observability"
)

// Server serves the gateway HTTP API.
type Server struct {
	addr       string
	service    *auth.Service
	logger     *slog.Logger
	metrics    *observability.Metrics
	certFile   string
	keyFile    string
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates a gateway server. metrics may be nil when the
// observability server is disabled.
func NewServer(addr string, service *auth.Service, metrics *observability.Metrics, logger *slog.Logger) (*Server, error) {
	if addr == "" {
		return nil, oops.Code("WEB_CONFIG_INVALID").Errorf("listen address is required")
	}
	if service == nil {
		return nil, oops.Code("WEB_CONFIG_INVALID").Errorf("auth service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:    addr,
		service: service,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// SetTLS enables HTTPS using the given certificate pair. Must be
// called before Start.
func (s *Server) SetTLS(certFile, keyFile string) {
	s.certFile = certFile
	s.keyFile = keyFile
}

// Start begins serving the gateway API. It returns an error channel
// that receives any server error after startup; the channel is closed
// on graceful stop.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("gateway server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		var serveErr error
		if s.certFile != "" {
			serveErr = httpSrv.ServeTLS(listener, s.certFile, s.keyFile)
		} else {
			serveErr = httpSrv.Serve(listener)
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("gateway server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("gateway server started",
		"addr", listener.Addr().String(),
		"tls", s.certFile != "")
	return errCh, nil
}

// Stop gracefully shuts down the gateway server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_gateway_server").Wrap(err)
		}
	}

	s.logger.Info("gateway server stopped")
	return nil
}

// Addr returns the address the server is listening on, or empty when
// not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// routes builds the gateway mux. Exposed for handler tests.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/signup", s.handleSignUp)
	mux.HandleFunc("POST /v1/signin", s.handleSignIn)
	mux.HandleFunc("GET /v1/signin/{provider}", s.handleSignInWithProvider)
	mux.HandleFunc("POST /v1/signout", s.handleSignOut)
	mux.HandleFunc("GET /v1/session", s.handleSession)
	mux.HandleFunc("GET /v1/session/watch", s.handleSessionWatch)
	return mux
}
