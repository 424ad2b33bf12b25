// Package api assembles BPX's HTTP surface: the chi middleware stack and
// control endpoints (health, stats), plus the mount point for the
// negotiation Handler (internal/bpx/handler).
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/buyukakyuz/bpx/internal/bpx/session"
	"github.com/buyukakyuz/bpx/internal/logger"
	"github.com/buyukakyuz/bpx/pkg/api/handlers"
)

// NewRouter builds the chi router. negotiator is the handler.Handler (or
// any http.Handler) that serves negotiable resources; it is mounted at
// the root so BPX can sit transparently in front of an arbitrary
// resource namespace, per spec.md §1's "sits directly in front of"
// framing.
//
// Routes:
//   - GET  /health       - liveness probe
//   - GET  /health/ready - readiness probe
//   - GET  /api/v1/stats - State Manager occupancy snapshot
//   - *    /*            - negotiator (everything else)
func NewRouter(negotiator http.Handler, sessions *session.Manager) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(sessions)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	statsHandler := handlers.NewStatsHandler(sessions)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", statsHandler.Get)
	})

	r.Handle("/*", negotiator)

	return r
}

func isHealthPath(path string) bool {
	return path == "/health" || (len(path) > 7 && path[:8] == "/health/")
}

// requestLogger is a custom chi middleware: structured start/completion
// logging via internal/logger, healthcheck noise pushed to DEBUG.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		duration := time.Since(start)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}

		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}
