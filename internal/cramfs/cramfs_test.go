package cramfs

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
)

// buildImage constructs a minimal synthetic cramfs image containing a
// single root directory with one regular file, "hello.txt", holding
// content.
func buildImage(t *testing.T, content []byte) []byte {
	t.Helper()

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	const (
		rootInodeOffset  = headerSize
		childInodeOffset = rootInodeOffset + inodeSize // root has no name bytes
		childNameOffset  = childInodeOffset + inodeSize
		childName        = "hello.txt"
	)
	childWidth := inodeByteWidth(uint32(len(childName)))
	pointerOffset := childInodeOffset + childWidth
	dataOffset := pointerOffset + 4 // one block

	buf := make([]byte, dataOffset+int64(compressed.Len()))

	// header
	binary.LittleEndian.PutUint32(buf[0:4], magicNumber)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(buf)))

	// root inode: mode=dir 0755, size=childWidth, offset=childInodeOffset
	putInode(buf, rootInodeOffset, 0o040755, uint32(childWidth), uint32(childInodeOffset), "")

	// child inode: mode=regular 0644, size=len(content), offset=pointerOffset
	putInode(buf, childInodeOffset, 0o100644, uint32(len(content)), uint32(pointerOffset), childName)

	// block pointer array: one entry, the end offset of the compressed block
	binary.LittleEndian.PutUint32(buf[pointerOffset:pointerOffset+4], uint32(dataOffset+int64(compressed.Len())))

	copy(buf[dataOffset:], compressed.Bytes())

	return buf
}

func putInode(buf []byte, offset int64, mode uint32, size, dataOffset uint32, name string) {
	modeUID := mode // uid = 0
	sizeGID := size // gid = 0
	namelenOffset := (uint32((len(name)+3)/4) & 0x3f) | ((dataOffset / 4) << 6)

	binary.LittleEndian.PutUint32(buf[offset:offset+4], modeUID)
	binary.LittleEndian.PutUint32(buf[offset+4:offset+8], sizeGID)
	binary.LittleEndian.PutUint32(buf[offset+8:offset+12], namelenOffset)
	copy(buf[offset+12:], name)
}

type byteReaderAt []byte

func (b byteReaderAt) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, b[off:])
	if n < len(p) {
		return n, os.ErrClosed
	}
	return n, nil
}

func TestUncramSimpleFile(t *testing.T) {
	content := []byte("hello world")
	img := buildImage(t, content)

	dir := t.TempDir()
	if err := Uncram(byteReaderAt(img), dir); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "hello.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content = %q, want %q", got, content)
	}
}

func TestReadHeaderBadMagic(t *testing.T) {
	buf := make([]byte, headerSize)
	if _, err := ReadHeader(byteReaderAt(buf)); err == nil {
		t.Fatal("expected magic error")
	}
}
