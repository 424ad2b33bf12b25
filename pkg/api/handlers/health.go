package handlers

import (
	"net/http"
	"time"

	"github.com/buyukakyuz/bpx/internal/bpx/session"
)

// HealthHandler serves BPX's unauthenticated liveness/readiness probes,
// narrowed to the one piece of runtime state BPX has to report on: the
// State Manager's session count.
type HealthHandler struct {
	sessions  *session.Manager
	startTime time.Time
}

// NewHealthHandler constructs a HealthHandler. sessions may be nil, in
// which case Readiness reports unhealthy.
func NewHealthHandler(sessions *session.Manager) *HealthHandler {
	return &HealthHandler{sessions: sessions, startTime: time.Now()}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	writeJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"service":    "bpx",
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// Readiness handles GET /health/ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("state manager not initialized"))
		return
	}
	writeJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"sessions": h.sessions.SessionCount(),
	}))
}
