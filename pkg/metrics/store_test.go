package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/buyukakyuz/bpx/pkg/resourcestore"
)

func TestInstrumentedStore_RecordsOperations(t *testing.T) {
	registry := prometheus.NewRegistry()
	r := NewRecorder(registry)
	mem := resourcestore.NewMemory(4)
	store := NewInstrumentedStore(mem, r)

	ctx := context.Background()
	snap, err := store.Put(ctx, "/r", []byte("hello"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}

	if _, ok, err := store.Get(ctx, "/r"); err != nil || !ok {
		t.Fatalf("get failed: ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.GetAt(ctx, "/r", snap.Version); err != nil || !ok {
		t.Fatalf("get_at failed: ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.Get(ctx, "/missing"); err != nil || ok {
		t.Fatalf("expected missing path to be not-ok, got ok=%v err=%v", ok, err)
	}

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

func TestInstrumentedStore_NilMetricsNoPanic(t *testing.T) {
	mem := resourcestore.NewMemory(4)
	store := NewInstrumentedStore(mem, nil)

	ctx := context.Background()
	if _, err := store.Put(ctx, "/r", []byte("hello")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if _, _, err := store.Get(ctx, "/r"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
}
