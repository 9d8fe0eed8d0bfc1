package hexintel

import (
	"errors"
	"strings"
	"testing"
)

func TestReassembleSimple(t *testing.T) {
	// Two adjacent data records.
	input := ":04000000DEADBEEFC4\n:02000400CAFE32\n"
	chunks, err := Reassemble(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Address != 0 {
		t.Errorf("address = %#x, want 0", chunks[0].Address)
	}
	want := []byte{0xde, 0xad, 0xbe, 0xef, 0xca, 0xfe}
	if string(chunks[0].Data) != string(want) {
		t.Errorf("data = % x, want % x", chunks[0].Data, want)
	}
}

func TestReassembleExtendedLinearAddress(t *testing.T) {
	input := ":020000040001F9\n:04000000DEADBEEFC4\n"
	chunks, err := Reassemble(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Address != 0x00010000 {
		t.Errorf("address = %#x, want 0x10000", chunks[0].Address)
	}
}

func TestReassembleBadChecksum(t *testing.T) {
	input := ":04000000DEADBEEF00\n"
	if _, err := Reassemble(strings.NewReader(input)); err == nil {
		t.Fatal("expected checksum error")
	}
}

func TestReassembleUnsupportedRecord(t *testing.T) {
	input := ":0000000AF6\n"
	_, err := Reassemble(strings.NewReader(input))
	if !errors.Is(err, ErrUnsupportedRecord) {
		t.Fatalf("got %v, want unsupported record error", err)
	}
}
