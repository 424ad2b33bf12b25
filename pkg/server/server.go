// Package server wraps an http.Handler in a listener with a
// signal-driven graceful-shutdown lifecycle, taking any http.Handler
// (pkg/api's chi router, in BPX's case) instead of being tied to a
// specific runtime type.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/buyukakyuz/bpx/internal/logger"
)

// Config holds the listener's tunables, mirroring config.ServerConfig.
type Config struct {
	ListenAddr      string
	ShutdownTimeout time.Duration
}

// Server owns an http.Server and its graceful-shutdown lifecycle.
type Server struct {
	httpServer *http.Server
	shutdownTO time.Duration
}

// New constructs a Server serving handler on cfg.ListenAddr.
func New(cfg Config, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTO: cfg.ShutdownTimeout,
	}
}

// Run starts the listener and blocks until ctx is canceled or an interrupt
// signal (SIGINT/SIGTERM) is received, then shuts down gracefully within
// the configured timeout. It returns nil on a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested via context cancellation")
		return s.shutdown()

	case <-sigChan:
		logger.Info("shutdown signal received, initiating graceful shutdown")
		return s.shutdown()

	case err := <-serveErr:
		if err != nil {
			logger.Error("server error", "error", err)
		}
		return err
	}
}

// shutdown drains in-flight requests within the configured timeout, then
// closes the listener.
func (s *Server) shutdown() error {
	timeout := s.shutdownTO
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}
