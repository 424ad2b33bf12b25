package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these keys consistently
// across all log statements so aggregation and querying stay predictable.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Negotiation & Resource Identity
	// ========================================================================
	KeyOperation = "operation" // negotiation stage: parsing, resolved, eligible, fallback, diff_accepted
	KeyPath      = "path"      // canonicalized resource path
	KeyStatus    = "status"    // HTTP status code
	KeyStatusMsg = "status_msg"

	// ========================================================================
	// Session & Version State
	// ========================================================================
	KeySessionID   = "session_id"   // BPX session identifier
	KeySessionNew  = "session_new"  // whether the session was just minted
	KeyBaseVersion = "base_version" // version token supplied by the client
	KeyResourceVer = "resource_ver" // current version token served

	// ========================================================================
	// Diff Decision
	// ========================================================================
	KeyDiffType        = "diff_type" // full | binary-delta
	KeyDiffSize        = "diff_size"
	KeyOriginalSize    = "original_size"
	KeyCompressedRatio = "compression_ratio"
	KeyDiffRefused     = "diff_refused_reason"

	// ========================================================================
	// Client Identification
	// ========================================================================
	KeyClientIP   = "client_ip"   // client IP address
	KeyClientPort = "client_port" // client source port

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message
	KeyErrorCode  = "error_code"  // sentinel error code
	KeySource     = "source"      // subsystem that produced the log line

	// ========================================================================
	// State Manager Capacity
	// ========================================================================
	KeySessionCount  = "session_count"
	KeyResourceCount = "resource_count"
	KeyEvicted       = "evicted"
	KeyEvictionKind  = "eviction_kind" // lru_session | lru_resource | ttl
)

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Negotiation & Resource Identity
// ----------------------------------------------------------------------------

// Operation returns a slog.Attr for the current negotiation stage
func Operation(stage string) slog.Attr {
	return slog.String(KeyOperation, stage)
}

// Path returns a slog.Attr for the resource path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Status returns a slog.Attr for HTTP status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// StatusMsg returns a slog.Attr for human-readable status message
func StatusMsg(msg string) slog.Attr {
	return slog.String(KeyStatusMsg, msg)
}

// ----------------------------------------------------------------------------
// Session & Version State
// ----------------------------------------------------------------------------

// SessionID returns a slog.Attr for the session identifier
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// SessionNew returns a slog.Attr marking whether the session was just minted
func SessionNew(created bool) slog.Attr {
	return slog.Bool(KeySessionNew, created)
}

// BaseVersion returns a slog.Attr for the client-supplied base version
func BaseVersion(v string) slog.Attr {
	return slog.String(KeyBaseVersion, v)
}

// ResourceVersion returns a slog.Attr for the current version served
func ResourceVersion(v string) slog.Attr {
	return slog.String(KeyResourceVer, v)
}

// ----------------------------------------------------------------------------
// Diff Decision
// ----------------------------------------------------------------------------

// DiffType returns a slog.Attr for the response kind: full or binary-delta
func DiffType(kind string) slog.Attr {
	return slog.String(KeyDiffType, kind)
}

// DiffSize returns a slog.Attr for the encoded patch size
func DiffSize(n int) slog.Attr {
	return slog.Int(KeyDiffSize, n)
}

// OriginalSize returns a slog.Attr for the current resource size
func OriginalSize(n int) slog.Attr {
	return slog.Int(KeyOriginalSize, n)
}

// CompressionRatio returns a slog.Attr for the fraction of bytes saved
func CompressionRatio(ratio float64) slog.Attr {
	return slog.Float64(KeyCompressedRatio, ratio)
}

// DiffRefused returns a slog.Attr naming why a patch was not accepted
func DiffRefused(reason string) slog.Attr {
	return slog.String(KeyDiffRefused, reason)
}

// ----------------------------------------------------------------------------
// Client Identification
// ----------------------------------------------------------------------------

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// ClientPort returns a slog.Attr for client source port
func ClientPort(port int) slog.Attr {
	return slog.Int(KeyClientPort, port)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a sentinel error code
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}

// Source returns a slog.Attr for the subsystem that produced the log line
func Source(src string) slog.Attr {
	return slog.String(KeySource, src)
}

// ----------------------------------------------------------------------------
// State Manager Capacity
// ----------------------------------------------------------------------------

// SessionCount returns a slog.Attr for the number of live sessions
func SessionCount(n int) slog.Attr {
	return slog.Int(KeySessionCount, n)
}

// ResourceCount returns a slog.Attr for the number of tracked resources in a session
func ResourceCount(n int) slog.Attr {
	return slog.Int(KeyResourceCount, n)
}

// Evicted returns a slog.Attr for number of entries evicted
func Evicted(n int) slog.Attr {
	return slog.Int(KeyEvicted, n)
}

// EvictionKind returns a slog.Attr naming what kind of eviction occurred
func EvictionKind(kind string) slog.Attr {
	return slog.String(KeyEvictionKind, kind)
}
