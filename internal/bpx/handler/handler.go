// Package handler implements the BPX Request Handler: the HTTP-facing
// negotiation described in spec.md §4.4, wired atop the State Manager
// (internal/bpx/session), the Diff Engine (internal/bpx/diff), and a
// pluggable ResourceStore (pkg/resourcestore).
package handler

import (
	"context"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/buyukakyuz/bpx/internal/bpx/codec"
	"github.com/buyukakyuz/bpx/internal/bpx/diff"
	"github.com/buyukakyuz/bpx/internal/bpx/session"
	"github.com/buyukakyuz/bpx/internal/logger"
	"github.com/buyukakyuz/bpx/internal/telemetry"
	"github.com/buyukakyuz/bpx/pkg/problem"
	"github.com/buyukakyuz/bpx/pkg/resourcestore"
)

const (
	headerSession  = "X-BPX-Session"
	headerBaseVer  = "X-Base-Version"
	headerAccept   = "Accept-Diff"
	headerResVer   = "X-Resource-Version"
	headerDiffType = "X-Diff-Type"
	headerOrigSize = "X-Original-Size"
	headerDiffSize = "X-Diff-Size"
	headerCacheTTL = "X-BPX-Cache-TTL"

	diffTypeFull  = "full"
	diffTypeDelta = "binary-delta"

	acceptTokenDelta = "binary-delta"
)

// Metrics is the minimal observer the handler reports decisions to. It is
// defined here, not imported from pkg/metrics, so pkg/metrics can depend on
// this package's types without an import cycle; pkg/metrics.Recorder
// satisfies it.
type Metrics interface {
	SessionResolved(isNew bool)
	DiffAccepted(originalSize, diffSize int)
	DiffFallback(reason string)
}

// nopMetrics discards every observation; used when no Metrics is supplied.
type nopMetrics struct{}

func (nopMetrics) SessionResolved(bool)  {}
func (nopMetrics) DiffAccepted(int, int) {}
func (nopMetrics) DiffFallback(string)   {}

// Config holds the per-deployment tunables from spec.md §6 that the
// handler itself consults (session/store capacity limits live in their
// respective components' Config).
type Config struct {
	MaxDiffSize         int
	MinCompressionRatio float64
	CacheTTL            time.Duration // 0 disables X-BPX-Cache-TTL
}

// Handler is an http.Handler implementing handle_request. It is mounted by
// pkg/api under the paths that serve negotiable resources; the router
// framework itself is out of this package's scope, per spec.md §1.
type Handler struct {
	Store    resourcestore.Store
	Sessions *session.Manager
	Config   Config
	Metrics  Metrics
}

// New constructs a Handler with a no-op Metrics if m is nil.
func New(store resourcestore.Store, sessions *session.Manager, cfg Config, m Metrics) *Handler {
	if m == nil {
		m = nopMetrics{}
	}
	return &Handler{Store: store, Sessions: sessions, Config: cfg, Metrics: m}
}

// ServeHTTP implements handle_request from spec.md §4.4.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lc := logger.FromContext(ctx)

	path := canonicalizePath(r.URL.Path)
	ctx, span := telemetry.StartRequestSpan(ctx, path)
	defer span.End()

	baseVersion := strings.TrimSpace(r.Header.Get(headerBaseVer))
	acceptTokens := parseAcceptDiff(r.Header.Get(headerAccept))
	if baseVersion != "" {
		span.SetAttributes(telemetry.BaseVersion(baseVersion))
	}

	if lc != nil {
		lc = lc.WithOperation("parsing").WithResource(path)
	}

	// Step 2: resolve session.
	sessionID, created := h.Sessions.GetOrCreateSession(r.Header.Get(headerSession))
	h.Metrics.SessionResolved(created)
	span.SetAttributes(telemetry.SessionID(sessionID), telemetry.SessionNew(created))
	if lc != nil {
		lc = lc.WithSession(sessionID)
		ctx = logger.WithContext(ctx, lc.WithOperation("resolved"))
	}
	logger.DebugCtx(ctx, "session resolved", logger.SessionNew(created))

	// Step 3: fetch current snapshot.
	snapshot, ok, err := h.Store.Get(ctx, path)
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "resource store get failed", logger.Err(err))
		problem.InternalServerError(w, "resource store lookup failed")
		return
	}
	if !ok {
		logger.DebugCtx(ctx, "resource not found")
		problem.NotFound(w, "no such resource: "+path)
		return
	}

	// Step 4: diff eligibility.
	recordedVersion, hasRecorded := h.Sessions.GetVersion(sessionID, path)
	eligible := hasRecorded &&
		baseVersion != "" &&
		baseVersion == recordedVersion &&
		acceptTokens[acceptTokenDelta] &&
		snapshot.Version != baseVersion

	diffType := diffTypeFull
	body := snapshot.Bytes
	diffSize := 0

	if eligible {
		if accepted, patch, reason := h.tryDiff(ctx, path, baseVersion, snapshot.Bytes); accepted {
			diffType = diffTypeDelta
			body = patch
			diffSize = len(patch)
			h.Metrics.DiffAccepted(len(snapshot.Bytes), diffSize)
		} else {
			h.Metrics.DiffFallback(reason)
			span.SetAttributes(telemetry.DiffRefused(reason))
			logger.DebugCtx(ctx, "diff fallback", logger.DiffRefused(reason))
		}
	} else if baseVersion != "" {
		h.Metrics.DiffFallback("not_eligible")
	}

	span.SetAttributes(
		telemetry.DiffType(diffType),
		telemetry.OriginalSize(len(snapshot.Bytes)),
		telemetry.DiffSize(diffSize),
		telemetry.ResourceVersion(snapshot.Version),
	)

	// Step 6: assemble response.
	header := w.Header()
	header.Set(headerSession, sessionID)
	header.Set(headerResVer, snapshot.Version)
	header.Set(headerDiffType, diffType)
	header.Set(headerOrigSize, strconv.Itoa(len(snapshot.Bytes)))
	if diffType == diffTypeDelta {
		header.Set(headerDiffSize, strconv.Itoa(diffSize))
	}
	if h.Config.CacheTTL > 0 {
		header.Set(headerCacheTTL, strconv.Itoa(int(h.Config.CacheTTL.Seconds())))
	}

	// Step 7: record the version this response commits the client to.
	h.Sessions.RecordVersion(sessionID, path, snapshot.Version)

	logger.InfoCtx(ctx, "request served",
		logger.DiffType(diffType),
		logger.OriginalSize(len(snapshot.Bytes)),
		logger.DiffSize(diffSize),
		logger.ResourceVersion(snapshot.Version))

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// tryDiff computes and validates a patch for the Eligible state, returning
// (accepted, patchBytes, refusalReason). Every failure here is absorbed
// into a full-response fallback per spec.md §7's governing principle; none
// of them surface as an HTTP error.
func (h *Handler) tryDiff(ctx context.Context, path, baseVersion string, currentBytes []byte) (bool, []byte, string) {
	ctx, span := telemetry.StartDiffSpan(ctx, path)
	defer span.End()

	baseBytes, ok, err := h.Store.GetAt(ctx, path, baseVersion)
	if err != nil {
		logger.WarnCtx(ctx, "resource store get_at failed", logger.Err(err))
		return false, nil, "store_error"
	}
	if !ok {
		return false, nil, "unknown_base_version"
	}

	result := diff.Diff(baseBytes, currentBytes, h.Config.MaxDiffSize)
	if result.Refused {
		return false, nil, result.RefusedReason
	}

	patch := codec.Encode(result.Stream)
	if h.Config.MinCompressionRatio > 0 {
		maxAllowed := float64(len(currentBytes)) * (1 - h.Config.MinCompressionRatio)
		if float64(len(patch)) > maxAllowed {
			return false, nil, "below_min_compression_ratio"
		}
	}
	if h.Config.MaxDiffSize > 0 && len(patch) > h.Config.MaxDiffSize {
		return false, nil, "exceeds_max_diff_size"
	}

	return true, patch, ""
}

// canonicalizePath normalizes a request path to the form the ResourceStore
// and State Manager key by: a leading slash, no trailing slash (except
// root), collapsed via path.Clean.
func canonicalizePath(p string) string {
	if p == "" {
		return "/"
	}
	clean := path.Clean(p)
	if !strings.HasPrefix(clean, "/") {
		clean = "/" + clean
	}
	if len(clean) > 1 {
		clean = strings.TrimSuffix(clean, "/")
	}
	return clean
}

// parseAcceptDiff parses the Accept-Diff header into a set of
// case-insensitive, whitespace-trimmed tokens. Unrecognized tokens are
// retained in the set but never matched by any eligibility check.
func parseAcceptDiff(header string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Split(header, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok != "" {
			tokens[tok] = true
		}
	}
	return tokens
}
