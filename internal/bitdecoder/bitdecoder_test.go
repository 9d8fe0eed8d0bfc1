package bitdecoder

import "testing"

func TestGetIntByteAligned(t *testing.T) {
	d := New([]byte{0xab, 0xcd}, MSBFirst, BigEndian)
	v, err := d.GetInt(16)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xabcd {
		t.Errorf("got %#x, want 0xabcd", v)
	}
}

func TestGetIntUnaligned(t *testing.T) {
	// 0xF0 = 11110000. The right shift depends only on the start bit
	// position: the read at bit 0 shifts by 0 and masks to the low nibble
	// (0x0); the read at bit 4 shifts by 4 and yields 0b1111 = 0xf.
	d := New([]byte{0xf0}, MSBFirst, BigEndian)
	v, err := d.GetInt(4)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Errorf("got %#x, want 0", v)
	}
	v2, err := d.GetInt(4)
	if err != nil {
		t.Fatal(err)
	}
	if v2 != 0xf {
		t.Errorf("got %#x, want 0xf", v2)
	}
}

func TestGetIntLittleEndian(t *testing.T) {
	d := New([]byte{0x01, 0x02}, MSBFirst, LittleEndian)
	v, err := d.GetInt(16)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x0201 {
		t.Errorf("got %#x, want 0x0201", v)
	}
}

func TestEncodeBitstreamMSB(t *testing.T) {
	got := EncodeBitstream("1010", MSBFirst)
	want := []byte{0b10100000}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("got %08b, want %08b", got, want)
	}
}

func TestEncodeBitstreamLSB(t *testing.T) {
	got := EncodeBitstream("1010", LSBFirst)
	want := []byte{0b00000101}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("got %08b, want %08b", got, want)
	}
}
