// Package session implements the BPX State Manager: a concurrent,
// in-memory registry mapping session ids to per-resource version state,
// with TTL reclamation and LRU capacity enforcement.
//
// The session table and each session's inner resource table are both
// sync.Map, following the lock-free concurrent map pattern used by the
// SMB adapter's session manager: reads and writes on distinct sessions
// never block each other, and no coarse lock is ever held across a
// suspension point.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/buyukakyuz/bpx/internal/logger"
)

// resourceEntry tracks the version last served for one path within a
// session.
type resourceEntry struct {
	path         string
	version      atomic.Value // string
	lastAccessed atomic.Int64 // unix nanos
}

// sessionEntry is one live session: its resource table plus bookkeeping.
type sessionEntry struct {
	id            string
	resources     sync.Map // path -> *resourceEntry
	resourceCount atomic.Int64
	lastAccessed  atomic.Int64 // unix nanos
}

func (e *sessionEntry) touch() {
	e.lastAccessed.Store(time.Now().UnixNano())
}

// Config holds the capacity and lifetime limits the manager enforces.
// Per SPEC_FULL.md §4.4, caps are always enforced — never optional.
type Config struct {
	MaxSessions            int
	MaxResourcesPerSession int
	SessionTTL             time.Duration
	CleanupInterval        time.Duration
	SigningKey             string // optional; empty disables signed session ids
}

// Metrics is the minimal observer the manager reports evictions to. Defined
// here rather than imported from pkg/metrics so this package stays free of
// an upward dependency; pkg/metrics.Recorder satisfies it.
type Metrics interface {
	SessionEvicted(reason string)
}

type nopMetrics struct{}

func (nopMetrics) SessionEvicted(string) {}

// Manager is the concurrent session/version registry described in
// spec.md §4.3.
type Manager struct {
	cfg     Config
	metrics Metrics

	sessions     sync.Map // id -> *sessionEntry
	sessionCount atomic.Int64

	signingKey []byte

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager constructs a Manager. It does not start the background
// sweeper; call StartSweeper for that.
func NewManager(cfg Config) *Manager {
	return NewManagerWithMetrics(cfg, nil)
}

// NewManagerWithMetrics constructs a Manager reporting evictions to m. A nil
// m behaves like NewManager.
func NewManagerWithMetrics(cfg Config, m Metrics) *Manager {
	if m == nil {
		m = nopMetrics{}
	}
	mgr := &Manager{cfg: cfg, metrics: m}
	if cfg.SigningKey != "" {
		mgr.signingKey = []byte(cfg.SigningKey)
	}
	return mgr
}

// GetOrCreateSession resolves id to a live session, touching its
// last-accessed time, or mints a fresh one if id is empty, unknown, or
// fails signature verification. Returns the resolved SessionId and whether
// it was newly created.
func (m *Manager) GetOrCreateSession(id string) (string, bool) {
	if id != "" {
		if subject, ok := m.verify(id); ok {
			if v, found := m.sessions.Load(subject); found {
				v.(*sessionEntry).touch()
				return id, false
			}
		}
	}
	return m.createSession(), true
}

func (m *Manager) createSession() string {
	for {
		count := m.sessionCount.Load()
		if count < int64(m.cfg.MaxSessions) {
			if m.sessionCount.CompareAndSwap(count, count+1) {
				break
			}
			continue
		}
		m.evictLRUSession()
	}

	subject := uuid.NewString()
	entry := &sessionEntry{id: subject}
	entry.touch()
	m.sessions.Store(subject, entry)
	return m.mint(subject)
}

// evictLRUSession removes the least-recently-accessed session, freeing
// capacity for a new one. Eviction is silent: a client later presenting
// the evicted id is simply treated as UnknownSession.
func (m *Manager) evictLRUSession() {
	var oldestID string
	var oldestAt int64 = -1

	m.sessions.Range(func(key, value any) bool {
		entry := value.(*sessionEntry)
		at := entry.lastAccessed.Load()
		if oldestAt == -1 || at < oldestAt {
			oldestAt = at
			oldestID = key.(string)
		}
		return true
	})

	if oldestID == "" {
		return
	}
	if _, deleted := m.sessions.LoadAndDelete(oldestID); deleted {
		m.sessionCount.Add(-1)
		m.metrics.SessionEvicted("lru_capacity")
		logger.Debug("session evicted", logger.EvictionKind("lru_session"), logger.SessionID(oldestID))
	}
}

// GetVersion returns the version last recorded for (sessionID, path), or
// ("", false) if the session or path is unknown.
func (m *Manager) GetVersion(sessionID, path string) (string, bool) {
	subject, ok := m.verify(sessionID)
	if !ok {
		return "", false
	}
	v, found := m.sessions.Load(subject)
	if !found {
		return "", false
	}
	entry := v.(*sessionEntry)
	entry.touch()

	r, found := entry.resources.Load(path)
	if !found {
		return "", false
	}
	res := r.(*resourceEntry)
	res.lastAccessed.Store(time.Now().UnixNano())
	version, _ := res.version.Load().(string)
	return version, version != ""
}

// RecordVersion upserts the (sessionID, path) -> version mapping. The
// session must already exist (callers always call GetOrCreateSession
// first); recording against an unknown session is a no-op, matching the
// "eviction is silent" capacity policy.
func (m *Manager) RecordVersion(sessionID, path, version string) {
	subject, ok := m.verify(sessionID)
	if !ok {
		return
	}
	v, found := m.sessions.Load(subject)
	if !found {
		return
	}
	entry := v.(*sessionEntry)
	entry.touch()

	if r, found := entry.resources.Load(path); found {
		res := r.(*resourceEntry)
		res.version.Store(version)
		res.lastAccessed.Store(time.Now().UnixNano())
		return
	}

	for {
		count := entry.resourceCount.Load()
		if count < int64(m.cfg.MaxResourcesPerSession) {
			if entry.resourceCount.CompareAndSwap(count, count+1) {
				break
			}
			continue
		}
		m.evictLRUResource(entry)
	}

	res := &resourceEntry{path: path}
	res.version.Store(version)
	res.lastAccessed.Store(time.Now().UnixNano())
	entry.resources.Store(path, res)
}

func (m *Manager) evictLRUResource(entry *sessionEntry) {
	var oldestPath string
	var oldestAt int64 = -1

	entry.resources.Range(func(key, value any) bool {
		res := value.(*resourceEntry)
		at := res.lastAccessed.Load()
		if oldestAt == -1 || at < oldestAt {
			oldestAt = at
			oldestPath = key.(string)
		}
		return true
	})

	if oldestPath == "" {
		return
	}
	if _, deleted := entry.resources.LoadAndDelete(oldestPath); deleted {
		entry.resourceCount.Add(-1)
		logger.Debug("resource entry evicted", logger.EvictionKind("lru_resource"), logger.SessionID(entry.id))
	}
}

// Sweep removes every session whose last-accessed time is older than the
// configured TTL. It runs a bounded scan per call so the background
// sweeper never holds a long critical region.
func (m *Manager) Sweep() int {
	deadline := time.Now().Add(-m.cfg.SessionTTL).UnixNano()
	var toPurge []string

	m.sessions.Range(func(key, value any) bool {
		entry := value.(*sessionEntry)
		if entry.lastAccessed.Load() < deadline {
			toPurge = append(toPurge, key.(string))
		}
		return true
	})

	for _, id := range toPurge {
		if _, deleted := m.sessions.LoadAndDelete(id); deleted {
			m.sessionCount.Add(-1)
			m.metrics.SessionEvicted("ttl_expired")
		}
	}
	if len(toPurge) > 0 {
		logger.Debug("session sweep reclaimed idle sessions",
			logger.EvictionKind("ttl"), logger.Evicted(len(toPurge)))
	}
	return len(toPurge)
}

// StartSweeper launches the background TTL reaper on a fixed interval,
// grounded on the same start/ticker/cancel/WaitGroup lifecycle as the
// cache flusher: a final sweep runs when ctx is cancelled before the
// goroutine exits.
func (m *Manager) StartSweeper(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				m.Sweep()
				return
			case <-ticker.C:
				m.Sweep()
			}
		}
	}()
}

// StopSweeper cancels the background reaper and waits for it to exit.
func (m *Manager) StopSweeper() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// SessionCount returns the number of live sessions, for metrics and stats
// reporting.
func (m *Manager) SessionCount() int {
	return int(m.sessionCount.Load())
}

// mint turns a bare session uuid into the opaque SessionId the client
// sees: the bare uuid when no signing key is configured, or an HS256 JWT
// whose subject is the uuid otherwise.
func (m *Manager) mint(subject string) string {
	if m.signingKey == nil {
		return subject
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: subject})
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		// Signing cannot fail for HS256 with a non-empty key; fall back to
		// the bare uuid rather than surface an error from a minting path
		// the handler always expects to succeed.
		return subject
	}
	return signed
}

// verify recovers the session uuid from an opaque SessionId: itself, when
// unsigned, or the verified subject claim of a signed token. Returns
// ("", false) for anything that does not parse or verify.
func (m *Manager) verify(id string) (string, bool) {
	if m.signingKey == nil {
		return id, true
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(id, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.signingKey, nil
	})
	if err != nil || !token.Valid {
		return "", false
	}
	return claims.Subject, true
}
