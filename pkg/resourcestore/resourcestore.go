// Package resourcestore defines the ResourceStore contract the BPX
// Request Handler consumes as an external collaborator (spec.md §6), plus
// a default in-memory implementation with bounded per-path history.
package resourcestore

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/crypto/blake2b"
)

// Snapshot is the Go shape of the spec's ResourceSnapshot: the bytes
// currently served for a path, and the opaque version token identifying
// them.
type Snapshot struct {
	Bytes   []byte
	Version string
}

// Store is the ResourceStore contract from spec.md §6: current snapshot
// lookup, and historical lookup by version. Implementations may retain a
// bounded history; policy is theirs.
type Store interface {
	// Get returns the current bytes and version for path, or ok=false if
	// the path does not exist.
	Get(ctx context.Context, path string) (snapshot Snapshot, ok bool, err error)

	// GetAt returns the bytes previously associated with version for path,
	// or ok=false if that version is no longer retained.
	GetAt(ctx context.Context, path, version string) (bytes []byte, ok bool, err error)

	// Put publishes new bytes for path, minting and returning a fresh
	// version token. This is glue, not part of the spec's core contract:
	// it is how demo content generators and tests populate a store.
	Put(ctx context.Context, path string, bytes []byte) (Snapshot, error)
}

var versionCounter atomic.Uint64

// NewVersionToken mints an opaque, content-addressed version token of the
// form v:<blake2b-256 prefix>-<counter>. The counter guarantees distinct
// tokens even across repeated puts of identical bytes, trivially
// satisfying the "never reused" invariant without weakening the
// content-equality guarantee the format's prefix still documents for
// debugging.
func NewVersionToken(content []byte) string {
	sum := blake2b.Sum256(content)
	seq := versionCounter.Add(1)
	return fmt.Sprintf("v:%s-%d", hex.EncodeToString(sum[:8]), seq)
}

// memoryEntry is one retained historical snapshot for a path.
type memoryEntry struct {
	version string
	bytes   []byte
}

// Memory is the default ResourceStore backend: an in-process map from path
// to a bounded ring of historical snapshots. Zero external dependencies
// beyond the version-token hash.
type Memory struct {
	mu           sync.RWMutex
	history      map[string][]memoryEntry // oldest first, capped at historyLimit
	historyLimit int
}

// NewMemory constructs a Memory store retaining at most historyLimit
// versions per path (minimum 1).
func NewMemory(historyLimit int) *Memory {
	if historyLimit < 1 {
		historyLimit = 1
	}
	return &Memory{
		history:      make(map[string][]memoryEntry),
		historyLimit: historyLimit,
	}
}

func (m *Memory) Get(_ context.Context, path string) (Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, ok := m.history[path]
	if !ok || len(entries) == 0 {
		return Snapshot{}, false, nil
	}
	latest := entries[len(entries)-1]
	return Snapshot{Bytes: latest.bytes, Version: latest.version}, true, nil
}

func (m *Memory) GetAt(_ context.Context, path, version string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.history[path] {
		if e.version == version {
			return e.bytes, true, nil
		}
	}
	return nil, false, nil
}

func (m *Memory) Put(_ context.Context, path string, bytes []byte) (Snapshot, error) {
	version := NewVersionToken(bytes)

	m.mu.Lock()
	defer m.mu.Unlock()

	entries := append(m.history[path], memoryEntry{version: version, bytes: bytes})
	if len(entries) > m.historyLimit {
		entries = entries[len(entries)-m.historyLimit:]
	}
	m.history[path] = entries

	return Snapshot{Bytes: bytes, Version: version}, nil
}
