// Package server implements the HTTP server for the application.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sevigo/shiny-updates/internal/config"
)

// Server wraps an HTTP server with graceful shutdown capabilities.
type Server struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// NewServer creates a new HTTP server serving the given handlers.
func NewServer(cfg *config.Config, h *Handlers, logger *slog.Logger) *Server {
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Server{
		server: &http.Server{
			Addr:         ":" + cfg.ServerPort,
			Handler:      NewRouter(h),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 70 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		shutdownTimeout: timeout,
		logger:          logger,
	}
}

// Start starts the HTTP server and blocks until shutdown or error.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "address", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}
