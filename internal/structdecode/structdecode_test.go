package structdecode

import (
	"encoding/binary"
	"testing"
)

func TestUnpackLittleEndian(t *testing.T) {
	spec := Spec{
		Order: binary.LittleEndian,
		Fields: []Field{
			{Code: Uint32, Name: "magic"},
			{Code: Uint16, Name: "flags"},
			{Code: Bytes, Name: "name", N: 4},
		},
	}

	b := []byte{0x45, 0x3d, 0xcd, 0x28, 0x01, 0x00, 'a', 'b', 'c', 'd'}
	got, err := spec.Unpack(b)
	if err != nil {
		t.Fatal(err)
	}
	if got["magic"].(uint32) != 0x28cd3d45 {
		t.Errorf("magic = %#x", got["magic"])
	}
	if got["flags"].(uint16) != 1 {
		t.Errorf("flags = %v", got["flags"])
	}
	if string(got["name"].([]byte)) != "abcd" {
		t.Errorf("name = %q", got["name"])
	}
}

func TestUnpackShortBuffer(t *testing.T) {
	spec := Spec{Order: binary.BigEndian, Fields: []Field{{Code: Uint32, Name: "x"}}}
	if _, err := spec.Unpack([]byte{1, 2}); err == nil {
		t.Fatal("expected error on short buffer")
	}
}

func TestSize(t *testing.T) {
	spec := Spec{Fields: []Field{
		{Code: Uint64, Name: "a"},
		{Code: Uint32, Name: "b"},
		{Code: Bytes, Name: "c", N: 16},
	}}
	if spec.Size() != 28 {
		t.Errorf("Size() = %d, want 28", spec.Size())
	}
}
