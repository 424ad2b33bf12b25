package diff

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buyukakyuz/bpx/internal/bpx/codec"
)

func TestDiffRoundTrip(t *testing.T) {
	cases := []struct {
		name          string
		base, target  []byte
	}{
		{"Identical", []byte("hello"), []byte("hello")},
		{"SmallAppend", []byte("hello"), []byte("hello!")},
		{"SmallEdit", []byte("hello world"), []byte("hellp world")},
		{"Empty", []byte(""), []byte("")},
		{"BaseEmpty", []byte(""), []byte("new content")},
		{"TargetEmpty", []byte("old content"), []byte("")},
		{"Multiline", []byte("line1\nline2\nline3\n"), []byte("line1\nlineX\nline3\nline4\n")},
		{"CompletelyDifferent", []byte("aaaaaaaaaa"), []byte("bbbbbbbbbb")},
		{"BinaryNonUTF8", []byte{0xff, 0xfe, 0x00, 0x01, 0x02}, []byte{0xff, 0x00, 0x00, 0x01, 0x02, 0x03}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Diff(tc.base, tc.target, 0)
			require.False(t, result.Refused)

			out, err := Apply(tc.base, result.Stream)
			require.NoError(t, err)
			assert.Equal(t, tc.target, out)
		})
	}
}

func TestDiffIdentityIsSingleCopy(t *testing.T) {
	x := bytes.Repeat([]byte("the quick brown fox\n"), 50)
	result := Diff(x, x, 0)

	require.Len(t, result.Stream.Ops, 2) // one COPY, one END
	assert.Equal(t, codec.OpCopy, result.Stream.Ops[0].Op)
	assert.Equal(t, uint32(len(x)), result.Stream.Ops[0].Len)
	assert.Equal(t, codec.OpEnd, result.Stream.Ops[1].Op)
}

func TestDiffRefusesOversizedPatch(t *testing.T) {
	base := []byte("hello")
	target := []byte("goodbye cruel world, this is entirely different content")

	result := Diff(base, target, 4) // impossibly small cap
	assert.True(t, result.Refused)
	assert.NotEmpty(t, result.RefusedReason)
}

func TestDiffDeterminism(t *testing.T) {
	base := []byte("hello world, this is a test of determinism")
	target := []byte("hello there world, this is a test of determinism!")

	first := Diff(base, target, 0)
	second := Diff(base, target, 0)

	assert.Equal(t, codec.Encode(first.Stream), codec.Encode(second.Stream))
}

func TestDiffCoalescesAdjacentRuns(t *testing.T) {
	base := []byte("aaaa")
	target := []byte("aaaabbbb")

	result := Diff(base, target, 0)
	// Expect exactly COPY(4), INSERT(4,"bbbb"), END - not four separate inserts.
	require.Len(t, result.Stream.Ops, 3)
	assert.Equal(t, codec.OpCopy, result.Stream.Ops[0].Op)
	assert.Equal(t, codec.OpInsert, result.Stream.Ops[1].Op)
	assert.Equal(t, []byte("bbbb"), result.Stream.Ops[1].Data)
	assert.Equal(t, codec.OpEnd, result.Stream.Ops[2].Op)
}

func TestDiffOversizedRunSplitsAtFrameBoundary(t *testing.T) {
	big := bytes.Repeat([]byte("x"), codec.MaxOpLength+10)
	result := Diff(big, big, 0)

	require.Len(t, result.Stream.Ops, 3) // two COPY chunks + END
	assert.Equal(t, uint32(codec.MaxOpLength), result.Stream.Ops[0].Len)
	assert.Equal(t, uint32(10), result.Stream.Ops[1].Len)
}

func TestDiffRandomizedRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		base := randomBytes(rng, rng.Intn(500))
		target := mutate(rng, base)

		result := Diff(base, target, 0)
		out, err := Apply(base, result.Stream)
		require.NoError(t, err)
		assert.Equal(t, target, out)
	}
}

func randomBytes(rng *rand.Rand, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + rng.Intn(26))
	}
	return b
}

func mutate(rng *rand.Rand, base []byte) []byte {
	out := append([]byte(nil), base...)
	ops := rng.Intn(10)
	for i := 0; i < ops; i++ {
		switch rng.Intn(3) {
		case 0: // insert
			pos := rng.Intn(len(out) + 1)
			out = append(out[:pos], append(randomBytes(rng, rng.Intn(10)+1), out[pos:]...)...)
		case 1: // delete
			if len(out) == 0 {
				continue
			}
			pos := rng.Intn(len(out))
			n := rng.Intn(len(out) - pos)
			out = append(out[:pos], out[pos+n:]...)
		case 2: // replace
			if len(out) == 0 {
				continue
			}
			pos := rng.Intn(len(out))
			out[pos] = byte('a' + rng.Intn(26))
		}
	}
	return out
}
