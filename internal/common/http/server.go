// Package http hosts the API server and its middleware.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"house-price-api/internal/common/config"
	apperrors "house-price-api/internal/common/errors"
	"house-price-api/internal/common/logger"
)

// Server owns the listener and the middleware-wrapped mux.
type Server struct {
	server          *http.Server
	log             logger.Logger
	shutdownTimeout time.Duration
}

// NewServer wraps mux with the standard chain: request id, access log,
// metrics, recovery and body limit, outermost first. A panic becomes a 500
// before the access log and metrics see the response.
func NewServer(cfg config.ServerConfig, mux *http.ServeMux, log logger.Logger) *Server {
	chain := Chain(
		RequestID,
		AccessLog(log),
		Metrics(RouteOf(mux)),
		Recovery(log, apperrors.NewErrorHandler(log)),
		MaxBytes(cfg.MaxBodyBytes),
	)

	return &Server{
		server: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      chain(mux),
			ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
			WriteTimeout: config.GetDuration(cfg.WriteTimeout),
			IdleTimeout:  config.GetDuration(cfg.IdleTimeout),
		},
		log:             log,
		shutdownTimeout: config.GetDuration(cfg.ShutdownTimeout),
	}
}

// Handler returns the wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start blocks serving on the configured address until Stop is called.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	return s.Serve(ln)
}

// Serve blocks serving on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("HTTP server listening", map[string]interface{}{"addr": ln.Addr().String()})
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests, bounded by the configured shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}

	s.log.Info("Shutting down HTTP server", nil)
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
