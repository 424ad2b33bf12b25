package metrics

import (
	"context"
	"time"

	"github.com/buyukakyuz/bpx/pkg/resourcestore"
)

// InstrumentedStore wraps a resourcestore.Store, recording call latency and
// outcome on Recorder without requiring pkg/resourcestore to know about
// Prometheus at all.
type InstrumentedStore struct {
	Store   resourcestore.Store
	Metrics *Recorder
}

// NewInstrumentedStore wraps store, recording through r. A nil r is safe
// (every Recorder method is a no-op on a nil receiver).
func NewInstrumentedStore(store resourcestore.Store, r *Recorder) *InstrumentedStore {
	return &InstrumentedStore{Store: store, Metrics: r}
}

func (s *InstrumentedStore) Get(ctx context.Context, path string) (resourcestore.Snapshot, bool, error) {
	start := time.Now()
	snap, ok, err := s.Store.Get(ctx, path)
	s.Metrics.ResourceStoreOp("Get", outcome(err), time.Since(start))
	return snap, ok, err
}

func (s *InstrumentedStore) GetAt(ctx context.Context, path, version string) ([]byte, bool, error) {
	start := time.Now()
	bytes, ok, err := s.Store.GetAt(ctx, path, version)
	s.Metrics.ResourceStoreOp("GetAt", outcome(err), time.Since(start))
	return bytes, ok, err
}

func (s *InstrumentedStore) Put(ctx context.Context, path string, bytes []byte) (resourcestore.Snapshot, error) {
	start := time.Now()
	snap, err := s.Store.Put(ctx, path, bytes)
	s.Metrics.ResourceStoreOp("Put", outcome(err), time.Since(start))
	return snap, err
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
