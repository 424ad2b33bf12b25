package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRecorder_CreatesAllMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := NewRecorder(registry)

	if r == nil {
		t.Fatal("NewRecorder returned nil")
	}
	if r.sessionsResolved == nil {
		t.Error("sessionsResolved not initialized")
	}
	if r.sessionsCreated == nil {
		t.Error("sessionsCreated not initialized")
	}
	if r.sessionEvictions == nil {
		t.Error("sessionEvictions not initialized")
	}
	if r.diffDecisions == nil {
		t.Error("diffDecisions not initialized")
	}
	if r.diffOriginalBytes == nil {
		t.Error("diffOriginalBytes not initialized")
	}
	if r.diffPatchBytes == nil {
		t.Error("diffPatchBytes not initialized")
	}
	if r.resourceStoreOps == nil {
		t.Error("resourceStoreOps not initialized")
	}
}

func TestSessionResolved_NewIncrementsSessionsCreated(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := NewRecorder(registry)

	r.SessionResolved(true)
	r.SessionResolved(false)
	r.SessionResolved(true)

	mfs, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	foundCreated := false
	for _, mf := range mfs {
		if mf.GetName() == "bpx_sessions_created_total" {
			foundCreated = true
			if len(mf.GetMetric()) > 0 && mf.GetMetric()[0].GetCounter().GetValue() != 2 {
				t.Errorf("expected 2 sessions created, got %v", mf.GetMetric()[0].GetCounter().GetValue())
			}
		}
	}
	if !foundCreated {
		t.Error("expected bpx_sessions_created_total metric")
	}
}

func TestDiffAccepted_RecordsHistogramsAndCounter(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := NewRecorder(registry)

	r.DiffAccepted(6, 13)

	mfs, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"bpx_diff_decisions_total",
		"bpx_diff_original_size_bytes",
		"bpx_diff_patch_size_bytes",
		"bpx_diff_compression_ratio",
	} {
		if !names[want] {
			t.Errorf("expected metric %q to be present", want)
		}
	}
}

func TestDiffFallback_RecordsReasonLabel(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := NewRecorder(registry)

	r.DiffFallback("below_min_compression_ratio")
	r.DiffFallback("unknown_base_version")

	mfs, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() == "bpx_diff_decisions_total" {
			if len(mf.GetMetric()) != 2 {
				t.Errorf("expected 2 distinct diff decision labels, got %d", len(mf.GetMetric()))
			}
			return
		}
	}
	t.Error("expected bpx_diff_decisions_total metric")
}

func TestSessionEvicted_RecordsReason(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := NewRecorder(registry)

	r.SessionEvicted("ttl_expired")
	r.SessionEvicted("lru_capacity")
	r.SessionEvicted("ttl_expired")

	mfs, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() == "bpx_session_evictions_total" {
			return
		}
	}
	t.Error("expected bpx_session_evictions_total metric")
}

func TestResourceStoreOp_RecordsLatency(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := NewRecorder(registry)

	r.ResourceStoreOp("Get", "ok", 2*time.Millisecond)
	r.ResourceStoreOp("Put", "error", 5*time.Millisecond)

	mfs, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	if !names["bpx_resourcestore_operations_total"] {
		t.Error("expected bpx_resourcestore_operations_total metric")
	}
	if !names["bpx_resourcestore_operation_duration_seconds"] {
		t.Error("expected bpx_resourcestore_operation_duration_seconds metric")
	}
}

func TestNilRecorder_NoPanic(t *testing.T) {
	var r *Recorder

	r.SessionResolved(true)
	r.DiffAccepted(100, 20)
	r.DiffFallback("store_error")
	r.SessionEvicted("ttl_expired")
	r.ResourceStoreOp("Get", "ok", time.Millisecond)
}
