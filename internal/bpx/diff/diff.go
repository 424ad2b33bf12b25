// Package diff computes an edit script between two byte sequences and
// emits it as a codec.PatchStream. It treats base/target as line-terminated
// text when both decode as valid UTF-8, and falls back to byte-granularity
// otherwise, per the line-anchored-with-fallback algorithm in the spec.
package diff

import (
	"unicode/utf8"

	"github.com/buyukakyuz/bpx/internal/bpx/codec"
)

// lcsCap bounds the token-count product (len(mid a) * len(mid b)) for which
// the engine runs the full O(n*m) LCS table. Beyond this, the remaining
// (already prefix/suffix-trimmed) middle is emitted as a single
// delete-then-insert pair — still correct, just not minimal. Large binary
// blobs with no shared prefix/suffix hit this path; text content rarely
// does.
const lcsCap = 2_000_000

// Result is the outcome of a Diff call.
type Result struct {
	Stream        codec.PatchStream
	EncodedSize   int
	Refused       bool
	RefusedReason string
}

// Diff computes a PatchStream transforming base into target. If maxDiffSize
// is positive and the encoded patch would exceed it, Diff reports refusal
// instead of returning an unusable stream; the caller (Request Handler)
// decides what to do with that, per spec.md §4.2's "worthwhileness" split
// of responsibility.
func Diff(base, target []byte, maxDiffSize int) Result {
	// Trim a common byte-level prefix/suffix before tokenizing: this is what
	// lets a single-line edit (no line boundaries to anchor on) still land
	// as a tight COPY/INSERT/DELETE run instead of a whole-line replacement.
	prefix := commonPrefixLen(base, target)
	suffix := commonSuffixLen(base[prefix:], target[prefix:])

	midBase, midTarget := base[prefix:len(base)-suffix], target[prefix:len(target)-suffix]

	var midMerged []mergedOp
	if utf8.Valid(midBase) && utf8.Valid(midTarget) {
		midMerged = mergeRuns(diffTokens(toLineTokens(splitLines(midBase)), toLineTokens(splitLines(midTarget))))
	} else {
		midMerged = mergeRuns(diffTokens(toByteTokens(midBase), toByteTokens(midTarget)))
	}

	merged := make([]mergedOp, 0, len(midMerged)+2)
	if prefix > 0 {
		merged = append(merged, mergedOp{kind: editEqual, length: prefix})
	}
	merged = append(merged, midMerged...)
	if suffix > 0 {
		merged = append(merged, mergedOp{kind: editEqual, length: suffix})
	}

	stream := opsToPatchStream(merged)
	encoded := codec.Encode(stream)

	if maxDiffSize > 0 && len(encoded) > maxDiffSize {
		return Result{Refused: true, RefusedReason: "patch exceeds max_diff_size", EncodedSize: len(encoded)}
	}
	return Result{Stream: stream, EncodedSize: len(encoded)}
}

// Apply reconstructs target bytes from base and a previously computed
// PatchStream. It is a thin pass-through to the codec so callers of this
// package do not need to import codec directly just to close the loop in
// tests.
func Apply(base []byte, stream codec.PatchStream) ([]byte, error) {
	return codec.Apply(base, stream)
}

// commonPrefixLen returns the length of the longest common byte prefix of a
// and b.
func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// commonSuffixLen returns the length of the longest common byte suffix of a
// and b.
func commonSuffixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return i
}

// splitLines splits b into lines, each retaining its trailing '\n' except
// possibly the last fragment if b does not end in a newline.
func splitLines(b []byte) []string {
	if len(b) == 0 {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(b); i++ {
		if b[i] == '\n' {
			lines = append(lines, string(b[start:i+1]))
			start = i + 1
		}
	}
	if start < len(b) {
		lines = append(lines, string(b[start:]))
	}
	return lines
}
