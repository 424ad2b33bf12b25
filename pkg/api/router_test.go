package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/buyukakyuz/bpx/internal/bpx/session"
)

func TestNewRouter_HealthEndpoints(t *testing.T) {
	mgr := session.NewManager(session.Config{MaxSessions: 10, MaxResourcesPerSession: 10, SessionTTL: time.Minute})
	negotiator := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	router := NewRouter(negotiator, mgr)

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestNewRouter_FallsThroughToNegotiator(t *testing.T) {
	mgr := session.NewManager(session.Config{MaxSessions: 10, MaxResourcesPerSession: 10, SessionTTL: time.Minute})
	negotiator := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	router := NewRouter(negotiator, mgr)

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/some/resource/path")
	if err != nil {
		t.Fatalf("GET /some/resource/path: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("expected 418, got %d", resp.StatusCode)
	}
}
