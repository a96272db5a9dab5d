// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package prelogin

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"
)

// Server exposes a Listener over HTTP.
type Server struct {
	addr       string
	handler    http.Handler
	logger     *slog.Logger
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool

	writeTimeout time.Duration
}

const (
	// defaultResolveTimeout applies when NewServer is given no bound.
	defaultResolveTimeout = 10 * time.Second

	// writeSlack covers request decoding, cache work and the reply itself on
	// top of the session server lookup.
	writeSlack = 20 * time.Second
)

// NewServer creates a pre-login server for listener on addr ("host:port").
// resolveTimeout is the longest a single resolution may take, normally the
// session server timeout; replies get that long plus slack to be written.
func NewServer(addr string, listener *Listener, resolveTimeout time.Duration) *Server {
	if resolveTimeout <= 0 {
		resolveTimeout = defaultResolveTimeout
	}
	mux := http.NewServeMux()
	mux.Handle(Path, listener.Handler())
	return &Server{
		addr:         addr,
		handler:      mux,
		logger:       listener.logger,
		writeTimeout: resolveTimeout + writeSlack,
	}
}

// Start binds the listen address and serves in the background.
// The returned channel receives a serve error, if any, and is closed when
// the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("pre-login server already running")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = ln

	httpSrv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       2 * time.Minute,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("pre-login server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("pre-login server started", "addr", ln.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts the server down, waiting for in-flight attempts.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.running.Store(true)
		return oops.With("operation", "shutdown_prelogin_server").Wrap(err)
	}

	s.logger.Info("pre-login server stopped")
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Ready reports whether the server is accepting attempts.
func (s *Server) Ready() bool {
	return s.running.Load()
}
