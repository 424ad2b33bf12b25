package diff

import "github.com/buyukakyuz/bpx/internal/bpx/codec"

// diffToken is a unit the edit script operates over: a line (text mode) or
// a single byte (binary fallback mode).
type diffToken interface {
	comparable
	byteLen() int
	bytes() []byte
}

type lineToken string

func (l lineToken) byteLen() int  { return len(l) }
func (l lineToken) bytes() []byte { return []byte(l) }

type byteToken byte

func (b byteToken) byteLen() int  { return 1 }
func (b byteToken) bytes() []byte { return []byte{byte(b)} }

func toLineTokens(lines []string) []lineToken {
	tokens := make([]lineToken, len(lines))
	for i, l := range lines {
		tokens[i] = lineToken(l)
	}
	return tokens
}

func toByteTokens(b []byte) []byteToken {
	tokens := make([]byteToken, len(b))
	for i, c := range b {
		tokens[i] = byteToken(c)
	}
	return tokens
}

type editKind int

const (
	editEqual editKind = iota
	editInsert
	editDelete
)

type editOp[T diffToken] struct {
	kind editKind
	tok  T
}

// mergedOp is a run of same-kind single-token ops collapsed into one
// operation with a total byte length, satisfying the coalescing rule:
// adjacent INSERTs fuse, adjacent COPYs fuse.
type mergedOp struct {
	kind   editKind
	length int
	data   []byte // populated only for editInsert
}

// diffTokens computes an edit script turning a into b: common prefix and
// suffix are trimmed first (cheap, and the dominant case for incremental
// updates), then the remaining middle is solved with a full LCS table when
// small enough, or degraded to delete-all-then-insert-all when not.
func diffTokens[T diffToken](a, b []T) []editOp[T] {
	n, m := len(a), len(b)

	prefix := 0
	for prefix < n && prefix < m && a[prefix] == b[prefix] {
		prefix++
	}

	suffixLimit := n - prefix
	if m-prefix < suffixLimit {
		suffixLimit = m - prefix
	}
	suffix := 0
	for suffix < suffixLimit && a[n-1-suffix] == b[m-1-suffix] {
		suffix++
	}

	ops := make([]editOp[T], 0, n+m)
	for i := 0; i < prefix; i++ {
		ops = append(ops, editOp[T]{kind: editEqual, tok: a[i]})
	}

	midA, midB := a[prefix:n-suffix], b[prefix:m-suffix]
	if len(midA)*len(midB) <= lcsCap {
		ops = append(ops, lcsEditScript(midA, midB)...)
	} else {
		for _, t := range midA {
			ops = append(ops, editOp[T]{kind: editDelete, tok: t})
		}
		for _, t := range midB {
			ops = append(ops, editOp[T]{kind: editInsert, tok: t})
		}
	}

	for i := 0; i < suffix; i++ {
		ops = append(ops, editOp[T]{kind: editEqual, tok: a[n-suffix+i]})
	}
	return ops
}

// lcsEditScript produces a minimal edit script via a classic longest-common-
// subsequence table: dp[i][j] holds the LCS length of a[i:] and b[j:],
// computed bottom-up, then the script is read off by walking forward and
// always preferring the direction that preserves the longest remaining
// subsequence.
func lcsEditScript[T diffToken](a, b []T) []editOp[T] {
	n, m := len(a), len(b)
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	ops := make([]editOp[T], 0, n+m)
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			ops = append(ops, editOp[T]{kind: editEqual, tok: a[i]})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			ops = append(ops, editOp[T]{kind: editDelete, tok: a[i]})
			i++
		default:
			ops = append(ops, editOp[T]{kind: editInsert, tok: b[j]})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, editOp[T]{kind: editDelete, tok: a[i]})
	}
	for ; j < m; j++ {
		ops = append(ops, editOp[T]{kind: editInsert, tok: b[j]})
	}
	return ops
}

// mergeRuns collapses consecutive same-kind single-token ops into one
// mergedOp carrying a total byte length (and concatenated data, for
// inserts).
func mergeRuns[T diffToken](ops []editOp[T]) []mergedOp {
	var merged []mergedOp
	for _, op := range ops {
		if n := len(merged); n > 0 && merged[n-1].kind == op.kind {
			merged[n-1].length += op.tok.byteLen()
			if op.kind == editInsert {
				merged[n-1].data = append(merged[n-1].data, op.tok.bytes()...)
			}
			continue
		}
		m := mergedOp{kind: op.kind, length: op.tok.byteLen()}
		if op.kind == editInsert {
			m.data = append([]byte(nil), op.tok.bytes()...)
		}
		merged = append(merged, m)
	}
	return merged
}

// opsToPatchStream lowers merged runs to wire-ready PatchOps, splitting any
// run whose length exceeds the codec's 24-bit field into successive frames
// of the same kind, and terminating with exactly one END.
func opsToPatchStream(merged []mergedOp) codec.PatchStream {
	var stream codec.PatchStream
	for _, run := range merged {
		switch run.kind {
		case editEqual:
			for _, chunk := range codec.SplitLength(run.length) {
				stream.Ops = append(stream.Ops, codec.PatchOp{Op: codec.OpCopy, Len: chunk})
			}
		case editDelete:
			for _, chunk := range codec.SplitLength(run.length) {
				stream.Ops = append(stream.Ops, codec.PatchOp{Op: codec.OpDelete, Len: chunk})
			}
		case editInsert:
			offset := 0
			for _, chunk := range codec.SplitLength(run.length) {
				stream.Ops = append(stream.Ops, codec.PatchOp{
					Op:   codec.OpInsert,
					Len:  chunk,
					Data: run.data[offset : offset+int(chunk)],
				})
				offset += int(chunk)
			}
		}
	}
	stream.Ops = append(stream.Ops, codec.PatchOp{Op: codec.OpEnd})
	return stream
}
