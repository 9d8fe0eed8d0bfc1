// Package structdecode implements a small declarative binary-struct
// decoder modeled on Python's struct mini-language: a sequence of
// (format code, field name) pairs describing fixed-width fields packed
// back to back in a byte slice, with an explicit endianness prefix.
//
// It exists so classifier headers (uboot, squashfs, cramfs, bzip2, zip)
// can be declared as data rather than hand-rolled binary.Read calls
// scattered across each classifier.
package structdecode

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Code identifies a single field's wire format, matching the subset of
// Python's struct format characters the classifier headers need.
type Code byte

const (
	Uint32  Code = 'L'
	Uint16  Code = 'H'
	Uint64  Code = 'Q'
	Uint8   Code = 'B'
	Int32   Code = 'l'
	Int16   Code = 'h'
	Int8    Code = 'b'
	Bytes   Code = 's' // fixed-width byte string, length carried in Field.N
)

// Field describes one member of a Spec: its wire format, its name (used
// as the map key in the decoded result), and — for Bytes fields only —
// the fixed width N.
type Field struct {
	Code Code
	Name string
	N    int
}

// Spec is an ordered list of fields sharing one endianness.
type Spec struct {
	Order  binary.ByteOrder
	Fields []Field
}

// Size returns the total byte width the spec occupies.
func (s Spec) Size() int {
	n := 0
	for _, f := range s.Fields {
		n += fieldSize(f)
	}
	return n
}

func fieldSize(f Field) int {
	switch f.Code {
	case Uint64:
		return 8
	case Uint32, Int32:
		return 4
	case Uint16, Int16:
		return 2
	case Uint8, Int8:
		return 1
	case Bytes:
		return f.N
	default:
		panic(fmt.Sprintf("structdecode: unknown field code %q", f.Code))
	}
}

// Unpack decodes b according to the spec, returning one entry per field
// keyed by Field.Name. b must be at least Size() bytes long.
func (s Spec) Unpack(b []byte) (map[string]any, error) {
	want := s.Size()
	if len(b) < want {
		return nil, fmt.Errorf("structdecode: need %d bytes, got %d: %w", want, len(b), ErrShortBuffer)
	}

	out := make(map[string]any, len(s.Fields))
	off := 0
	for _, f := range s.Fields {
		n := fieldSize(f)
		chunk := b[off : off+n]
		off += n

		switch f.Code {
		case Uint64:
			out[f.Name] = s.Order.Uint64(chunk)
		case Uint32:
			out[f.Name] = s.Order.Uint32(chunk)
		case Int32:
			out[f.Name] = int32(s.Order.Uint32(chunk))
		case Uint16:
			out[f.Name] = s.Order.Uint16(chunk)
		case Int16:
			out[f.Name] = int16(s.Order.Uint16(chunk))
		case Uint8:
			out[f.Name] = chunk[0]
		case Int8:
			out[f.Name] = int8(chunk[0])
		case Bytes:
			cp := make([]byte, n)
			copy(cp, chunk)
			out[f.Name] = cp
		}
	}
	return out, nil
}

// ErrShortBuffer is returned when the input is too small to hold the spec.
var ErrShortBuffer = errors.New("structdecode: short buffer")
