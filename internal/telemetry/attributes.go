package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for BPX's negotiation vocabulary: the fields the Request
// Handler decides on for every request (spec.md §4.4), carried as span
// attributes instead of (or alongside) the structured log fields
// internal/logger attaches.
const (
	AttrSessionID        = "bpx.session_id"
	AttrSessionNew       = "bpx.session_new"
	AttrResourcePath     = "bpx.resource_path"
	AttrBaseVersion      = "bpx.base_version"
	AttrResourceVersion  = "bpx.resource_version"
	AttrDiffType         = "bpx.diff_type"
	AttrDiffRefused      = "bpx.diff_refused_reason"
	AttrOriginalSize     = "bpx.original_size"
	AttrDiffSize         = "bpx.diff_size"
	AttrCompressionRatio = "bpx.compression_ratio"
)

// Span names for BPX's pipeline stages.
const (
	SpanHandleRequest = "bpx.handle_request"
	SpanDiffCompute   = "bpx.diff.compute"
	SpanStoreGet      = "bpx.resourcestore.get"
	SpanStoreGetAt    = "bpx.resourcestore.get_at"
)

// SessionID returns an attribute for the resolved session id.
func SessionID(id string) attribute.KeyValue {
	return attribute.String(AttrSessionID, id)
}

// SessionNew returns an attribute for whether the session was newly minted.
func SessionNew(isNew bool) attribute.KeyValue {
	return attribute.Bool(AttrSessionNew, isNew)
}

// ResourcePath returns an attribute for the canonicalized request path.
func ResourcePath(path string) attribute.KeyValue {
	return attribute.String(AttrResourcePath, path)
}

// BaseVersion returns an attribute for the client-asserted base version.
func BaseVersion(version string) attribute.KeyValue {
	return attribute.String(AttrBaseVersion, version)
}

// ResourceVersion returns an attribute for the version served in the
// response.
func ResourceVersion(version string) attribute.KeyValue {
	return attribute.String(AttrResourceVersion, version)
}

// DiffType returns an attribute for the response's diff type ("full" or
// "binary-delta").
func DiffType(diffType string) attribute.KeyValue {
	return attribute.String(AttrDiffType, diffType)
}

// DiffRefused returns an attribute naming why a diff was refused in favor
// of a full-response fallback.
func DiffRefused(reason string) attribute.KeyValue {
	return attribute.String(AttrDiffRefused, reason)
}

// OriginalSize returns an attribute for the current resource's byte size.
func OriginalSize(size int) attribute.KeyValue {
	return attribute.Int(AttrOriginalSize, size)
}

// DiffSize returns an attribute for the encoded patch's byte size.
func DiffSize(size int) attribute.KeyValue {
	return attribute.Int(AttrDiffSize, size)
}

// CompressionRatio returns an attribute for 1 - (diff_size / original_size).
func CompressionRatio(ratio float64) attribute.KeyValue {
	return attribute.Float64(AttrCompressionRatio, ratio)
}

// StartRequestSpan starts the root span for one handled request.
func StartRequestSpan(ctx context.Context, path string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanHandleRequest, trace.WithAttributes(ResourcePath(path)))
}

// StartDiffSpan starts a span around the Diff Engine's compute step.
func StartDiffSpan(ctx context.Context, path string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanDiffCompute, trace.WithAttributes(ResourcePath(path)))
}
