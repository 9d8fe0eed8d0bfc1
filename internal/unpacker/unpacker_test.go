package unpacker

import (
	"bytes"
	"io"
	"testing"
)

func TestExcluded(t *testing.T) {
	cases := map[string]bool{
		"/a/b/.hidden":   true,
		"/a/b/backup.bak": true,
		"/a/b/notes~":     true,
		"/a/b/firmware.bin": false,
	}
	for path, want := range cases {
		if got := excluded(path); got != want {
			t.Errorf("excluded(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestLimitedReaderAt(t *testing.T) {
	data := []byte("0123456789")
	r := bytes.NewReader(data)
	lr := limitedReaderAt(io.NewSectionReader(r, 0, int64(len(data))), 5)

	buf := make([]byte, 10)
	n, err := lr.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("n = %d, want 5", n)
	}
	if string(buf[:n]) != "01234" {
		t.Errorf("got %q, want %q", buf[:n], "01234")
	}
}

func TestLimitedReaderAtPassthroughWhenZero(t *testing.T) {
	data := []byte("hello")
	r := bytes.NewReader(data)
	src := io.NewSectionReader(r, 0, int64(len(data)))
	if limitedReaderAt(src, 0) != io.ReaderAt(src) {
		t.Error("expected passthrough when limit is 0")
	}
}
