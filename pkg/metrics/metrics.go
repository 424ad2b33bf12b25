// Package metrics exposes BPX's Prometheus instrumentation: counters and
// histograms for session lifecycle, diff acceptance/rejection, and patch
// sizes. BPX has a single set of metrics with a single pair of consumers
// (internal/bpx/handler's Metrics interface and internal/bpx/session's
// eviction callback), so Recorder is defined and wired directly in one
// package rather than split across sub-packages.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements internal/bpx/handler.Metrics and is also used
// directly by internal/bpx/session and by InstrumentedStore (store.go) for
// eviction and store-latency observations. A nil *Recorder is valid and every method on
// it is a no-op, so components can be constructed with a nil Recorder when
// metrics are disabled (metrics.enabled: false) without a branch at every
// call site.
type Recorder struct {
	sessionsResolved   *prometheus.CounterVec
	sessionsCreated    prometheus.Counter
	sessionEvictions   *prometheus.CounterVec
	diffDecisions      *prometheus.CounterVec
	diffOriginalBytes  prometheus.Histogram
	diffPatchBytes     prometheus.Histogram
	diffCompressRatio  prometheus.Histogram
	resourceStoreOps   *prometheus.CounterVec
	resourceStoreBytes *prometheus.HistogramVec
}

// NewRecorder constructs a Recorder registered against reg. Pass
// prometheus.NewRegistry() for an isolated registry (tests) or
// prometheus.DefaultRegisterer to expose metrics on the default /metrics
// handler.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		sessionsResolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bpx_sessions_resolved_total",
				Help: "Total number of session resolutions by whether a new session was minted.",
			},
			[]string{"outcome"}, // "new", "existing"
		),
		sessionsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bpx_sessions_created_total",
				Help: "Total number of sessions minted by the State Manager.",
			},
		),
		sessionEvictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bpx_session_evictions_total",
				Help: "Total number of sessions evicted by the State Manager, by reason.",
			},
			[]string{"reason"}, // "ttl_expired", "lru_capacity"
		),
		diffDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bpx_diff_decisions_total",
				Help: "Total number of diff eligibility decisions, by outcome.",
			},
			[]string{"outcome"}, // "accepted" or a fallback reason
		),
		diffOriginalBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bpx_diff_original_size_bytes",
				Help:    "Size in bytes of the current resource body when a diff is accepted.",
				Buckets: prometheus.ExponentialBuckets(64, 4, 10),
			},
		),
		diffPatchBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bpx_diff_patch_size_bytes",
				Help:    "Size in bytes of the accepted binary patch.",
				Buckets: prometheus.ExponentialBuckets(16, 4, 10),
			},
		),
		diffCompressRatio: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bpx_diff_compression_ratio",
				Help:    "1 - (patch_size / original_size) for accepted diffs.",
				Buckets: []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 0.95, 0.99, 1},
			},
		),
		resourceStoreOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bpx_resourcestore_operations_total",
				Help: "Total number of ResourceStore operations, by method and outcome.",
			},
			[]string{"method", "outcome"},
		),
		resourceStoreBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bpx_resourcestore_operation_duration_seconds",
				Help:    "Latency of ResourceStore operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

// SessionResolved implements handler.Metrics.
func (r *Recorder) SessionResolved(isNew bool) {
	if r == nil {
		return
	}
	outcome := "existing"
	if isNew {
		outcome = "new"
		r.sessionsCreated.Inc()
	}
	r.sessionsResolved.WithLabelValues(outcome).Inc()
}

// DiffAccepted implements handler.Metrics.
func (r *Recorder) DiffAccepted(originalSize, diffSize int) {
	if r == nil {
		return
	}
	r.diffDecisions.WithLabelValues("accepted").Inc()
	r.diffOriginalBytes.Observe(float64(originalSize))
	r.diffPatchBytes.Observe(float64(diffSize))
	if originalSize > 0 {
		r.diffCompressRatio.Observe(1 - float64(diffSize)/float64(originalSize))
	}
}

// DiffFallback implements handler.Metrics.
func (r *Recorder) DiffFallback(reason string) {
	if r == nil {
		return
	}
	r.diffDecisions.WithLabelValues(reason).Inc()
}

// SessionEvicted records a State Manager eviction. reason is
// "ttl_expired" or "lru_capacity".
func (r *Recorder) SessionEvicted(reason string) {
	if r == nil {
		return
	}
	r.sessionEvictions.WithLabelValues(reason).Inc()
}

// ResourceStoreOp records a ResourceStore call's outcome and latency.
// outcome is "ok" or "error".
func (r *Recorder) ResourceStoreOp(method, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.resourceStoreOps.WithLabelValues(method, outcome).Inc()
	r.resourceStoreBytes.WithLabelValues(method).Observe(d.Seconds())
}
