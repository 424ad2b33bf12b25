package handlers

import (
	"net/http"

	"github.com/buyukakyuz/bpx/internal/bpx/session"
)

// StatsHandler serves a snapshot of State Manager occupancy for the
// cmd/bpx "stats" subcommand to poll, since the spec's session/version
// state is otherwise only observable through Prometheus counters (which
// report rates and totals, not current occupancy).
type StatsHandler struct {
	sessions *session.Manager
}

// NewStatsHandler constructs a StatsHandler.
func NewStatsHandler(sessions *session.Manager) *StatsHandler {
	return &StatsHandler{sessions: sessions}
}

// Get handles GET /api/v1/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"active_sessions": h.sessions.SessionCount(),
	}))
}
