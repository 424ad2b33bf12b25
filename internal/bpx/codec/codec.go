// Package codec implements the BPX binary patch wire format: pure
// encode/decode/apply functions with no I/O beyond the byte slices passed in.
//
// Frame layout (4 header bytes, optionally followed by data):
//
//	[opcode:1][length:3 big-endian]{data if INSERT}
//
// A well-formed stream contains exactly one END frame with a zero length,
// and is otherwise a sequence of COPY/INSERT/DELETE frames in target order.
package codec

import "fmt"

// Opcode identifies the kind of a patch frame.
type Opcode byte

const (
	OpCopy   Opcode = 0x01
	OpInsert Opcode = 0x02
	OpDelete Opcode = 0x03
	OpEnd    Opcode = 0x04
)

// MaxOpLength is the largest length a single frame's 24-bit field can hold.
const MaxOpLength = 1<<24 - 1

// headerSize is the fixed 4-byte frame header: 1 opcode byte + 3 length bytes.
const headerSize = 4

func (o Opcode) String() string {
	switch o {
	case OpCopy:
		return "COPY"
	case OpInsert:
		return "INSERT"
	case OpDelete:
		return "DELETE"
	case OpEnd:
		return "END"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02x)", byte(o))
	}
}

// PatchOp is a single operation in a PatchStream.
type PatchOp struct {
	Op   Opcode
	Len  uint32 // 1..MaxOpLength; must be 0 for OpEnd
	Data []byte // only meaningful for OpInsert, len(Data) == Len
}

// PatchStream is an ordered sequence of PatchOp ending in exactly one OpEnd.
type PatchStream struct {
	Ops []PatchOp
}

// DecodeError reports a violation of the wire format's framing discipline.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "bpx codec: " + e.Reason
}

func decodeErrorf(format string, args ...any) error {
	return &DecodeError{Reason: fmt.Sprintf(format, args...)}
}

// Encode serializes a PatchStream to its wire representation. The caller is
// responsible for ensuring the stream ends in exactly one OpEnd; Encode does
// not validate structure, it only serializes what it is given.
func Encode(stream PatchStream) []byte {
	size := 0
	for _, op := range stream.Ops {
		size += headerSize + len(op.Data)
	}

	out := make([]byte, 0, size)
	for _, op := range stream.Ops {
		out = appendFrame(out, op)
	}
	return out
}

func appendFrame(out []byte, op PatchOp) []byte {
	out = append(out, byte(op.Op),
		byte(op.Len>>16), byte(op.Len>>8), byte(op.Len))
	if op.Op == OpInsert {
		out = append(out, op.Data...)
	}
	return out
}

// Decode parses a wire-format byte slice into a PatchStream, enforcing frame
// discipline: exactly one END frame with zero length, terminating the
// stream; INSERT frames must carry exactly their declared length of data.
func Decode(patch []byte) (PatchStream, error) {
	var stream PatchStream
	cursor := 0
	seenEnd := false

	for cursor < len(patch) {
		if seenEnd {
			return PatchStream{}, decodeErrorf("data follows END frame at offset %d", cursor)
		}
		if len(patch)-cursor < headerSize {
			return PatchStream{}, decodeErrorf("truncated frame header at offset %d", cursor)
		}

		op := Opcode(patch[cursor])
		length := uint32(patch[cursor+1])<<16 | uint32(patch[cursor+2])<<8 | uint32(patch[cursor+3])
		cursor += headerSize

		switch op {
		case OpCopy, OpDelete:
			stream.Ops = append(stream.Ops, PatchOp{Op: op, Len: length})
		case OpInsert:
			if uint32(len(patch)-cursor) < length {
				return PatchStream{}, decodeErrorf("insert of %d bytes exceeds remaining patch data", length)
			}
			data := make([]byte, length)
			copy(data, patch[cursor:cursor+int(length)])
			stream.Ops = append(stream.Ops, PatchOp{Op: op, Len: length, Data: data})
			cursor += int(length)
		case OpEnd:
			if length != 0 {
				return PatchStream{}, decodeErrorf("END frame must have zero length, got %d", length)
			}
			stream.Ops = append(stream.Ops, PatchOp{Op: OpEnd})
			seenEnd = true
		default:
			return PatchStream{}, decodeErrorf("unknown opcode 0x%02x at offset %d", byte(op), cursor-headerSize)
		}
	}

	if !seenEnd {
		return PatchStream{}, decodeErrorf("patch stream missing END frame")
	}
	return stream, nil
}

// Apply reconstructs target bytes by replaying a decoded (or raw, via
// ApplyPatch) patch stream against base. It enforces that COPY and DELETE
// together account for every byte of base, per the base-accounting
// invariant: cursor must equal len(base) at END.
func Apply(base []byte, stream PatchStream) ([]byte, error) {
	var out []byte
	cursor := 0

	for i, op := range stream.Ops {
		switch op.Op {
		case OpCopy:
			end := cursor + int(op.Len)
			if end > len(base) {
				return nil, decodeErrorf("COPY(%d) at cursor %d overflows base of length %d", op.Len, cursor, len(base))
			}
			out = append(out, base[cursor:end]...)
			cursor = end
		case OpInsert:
			if uint32(len(op.Data)) != op.Len {
				return nil, decodeErrorf("INSERT length %d does not match data length %d", op.Len, len(op.Data))
			}
			out = append(out, op.Data...)
		case OpDelete:
			end := cursor + int(op.Len)
			if end > len(base) {
				return nil, decodeErrorf("DELETE(%d) at cursor %d overflows base of length %d", op.Len, cursor, len(base))
			}
			cursor = end
		case OpEnd:
			if i != len(stream.Ops)-1 {
				return nil, decodeErrorf("END frame is not the final operation")
			}
			if cursor != len(base) {
				return nil, decodeErrorf("END reached with cursor %d, expected base length %d", cursor, len(base))
			}
		default:
			return nil, decodeErrorf("unknown opcode 0x%02x in stream", byte(op.Op))
		}
	}

	if len(stream.Ops) == 0 || stream.Ops[len(stream.Ops)-1].Op != OpEnd {
		return nil, decodeErrorf("patch stream missing END frame")
	}

	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// ApplyPatch decodes raw wire-format bytes and applies them to base in one
// step, the shape of the contract named in spec.md: apply(base, patch) -> new.
func ApplyPatch(base, patch []byte) ([]byte, error) {
	stream, err := Decode(patch)
	if err != nil {
		return nil, err
	}
	return Apply(base, stream)
}

// SplitLength breaks n into a sequence of chunk lengths each <= MaxOpLength,
// used by the diff engine when an edit script operation exceeds the 24-bit
// field.
func SplitLength(n int) []uint32 {
	if n <= 0 {
		return nil
	}
	chunks := make([]uint32, 0, n/MaxOpLength+1)
	for n > 0 {
		chunk := n
		if chunk > MaxOpLength {
			chunk = MaxOpLength
		}
		chunks = append(chunks, uint32(chunk))
		n -= chunk
	}
	return chunks
}
