package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/voice-control/vcc/internal/auth"
)

// shutdownGrace bounds how long Stop waits for in-flight requests to drain.
const shutdownGrace = 30 * time.Second

// Server serves the v1 engine API over HTTP.
type Server struct {
	telemetryHub   TelemetryPort
	orchestrator   OrchestratorPort
	resolver       ResolverPort
	authMiddleware *auth.Middleware
	startTime      time.Time

	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration

	httpServer *http.Server
}

// Option adjusts a Server at construction time.
type Option func(*Server)

// WithAuth enables bearer-token enforcement on protected routes.
func WithAuth(middleware *auth.Middleware) Option {
	return func(s *Server) { s.authMiddleware = middleware }
}

// WithTimeouts overrides the HTTP read, write and idle timeouts.
func WithTimeouts(read, write, idle time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
		s.idleTimeout = idle
	}
}

// NewServer builds a server around the engine ports. Without options it
// listens with 30s read/write and 120s idle timeouts and no auth.
func NewServer(telemetryHub TelemetryPort, orchestrator OrchestratorPort, resolver ResolverPort, opts ...Option) *Server {
	s := &Server{
		telemetryHub: telemetryHub,
		orchestrator: orchestrator,
		resolver:     resolver,
		startTime:    time.Now(),
		readTimeout:  30 * time.Second,
		writeTimeout: 30 * time.Second,
		idleTimeout:  120 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler tree, usable without a listening
// server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

// Start listens on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  s.idleTimeout,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests and shuts the listener down. Stop before
// Start is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// GetServer returns the underlying HTTP server for testing.
func (s *Server) GetServer() *http.Server {
	return s.httpServer
}
