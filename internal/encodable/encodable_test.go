package encodable

import (
	"bytes"
	"testing"
)

func check(t *testing.T, value, typ string, want []byte) {
	t.Helper()
	got, err := EncodeTyped(value, typ)
	if err != nil {
		t.Fatalf("EncodeTyped(%q, %q): %v", value, typ, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeTyped(%q, %q) = % x, want % x", value, typ, got, want)
	}
}

func TestEncodeInt(t *testing.T) {
	check(t, "1234", "uint16", []byte{0xd2, 0x04})
	check(t, "1234", "uint32", []byte{0xd2, 0x04, 0x00, 0x00})
	check(t, "1234", "uint16-be", []byte{0x04, 0xd2})
	check(t, "-1", "sint8", []byte{0xff})
	check(t, "127", "sint8", []byte{0x7f})
	check(t, "-128", "sint8", []byte{0x80})
	check(t, "-1", "sint16", []byte{0xff, 0xff})
	check(t, "-2", "sint16", []byte{0xfe, 0xff})
}

func TestEncodeIntOverflow(t *testing.T) {
	if _, err := EncodeTyped("256", "uint8"); err == nil {
		t.Fatal("expected overflow error")
	}
	if _, err := EncodeTyped("128", "sint8"); err == nil {
		t.Fatal("expected overflow error")
	}
}

func TestEncodeStr(t *testing.T) {
	check(t, "1234", "str", []byte("1234"))
	check(t, "1234", "str-u16-le", []byte{'1', 0, '2', 0, '3', 0, '4', 0})
}

func TestEncodeHex(t *testing.T) {
	check(t, "aabbcc", "hex", []byte{0xaa, 0xbb, 0xcc})
}

func TestEncodeBase64(t *testing.T) {
	check(t, "Zm9vYmFy", "b64", []byte("foobar"))
}

func TestEncodeFloat(t *testing.T) {
	check(t, "12.34", "float32-le", []byte{0xa4, 0x70, 0x45, 0x41})
	check(t, "12.34", "float64-le", []byte{0xae, 0x47, 0xe1, 0x7a, 0x14, 0xae, 0x28, 0x40})
}

func TestEncodeIP(t *testing.T) {
	got, err := EncodeTyped("192.168.1.1", "ipv4-be")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{192, 168, 1, 1}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}

	got, err = EncodeTyped("192.168.1.1", "ipv4-le")
	if err != nil {
		t.Fatal(err)
	}
	want = []byte{1, 1, 168, 192}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}
