package classifier

import (
	"fmt"
	"io"
	"os"

	"github.com/nwestfall/retools/internal/cramfs"
	"github.com/nwestfall/retools/internal/structdecode"
)

func init() { Register(cramfsClassifier{}) }

type cramfsClassifier struct{}

func (cramfsClassifier) Name() string          { return "cramfs" }
func (cramfsClassifier) ContainsPayload() bool { return true }

var cramfsSignature = []byte{0x45, 0x3d, 0xcd, 0x28}

// cramfsHeaderSpec is the 64-byte little-endian cramfs superblock.
var cramfsHeaderSpec = structdecode.Spec{
	Order: byteOrderLE,
	Fields: []structdecode.Field{
		{Code: structdecode.Uint32, Name: "magic"},
		{Code: structdecode.Uint32, Name: "size"},
		{Code: structdecode.Uint32, Name: "flags"},
		{Code: structdecode.Uint32, Name: "future"},
		{Code: structdecode.Bytes, Name: "signature", N: 16},
		{Code: structdecode.Uint32, Name: "fsid_crc"},
		{Code: structdecode.Uint32, Name: "fsid_edition"},
		{Code: structdecode.Uint32, Name: "fsid_blocks"},
		{Code: structdecode.Uint32, Name: "fsid_files"},
		{Code: structdecode.Bytes, Name: "name", N: 16},
	},
}

func (cramfsClassifier) Scan(chunk []byte) []int {
	return findAll(chunk, cramfsSignature)
}

func (cramfsClassifier) Investigate(r io.ReaderAt, offset int64) (int64, *int64, error) {
	buf := make([]byte, cramfsHeaderSpec.Size())
	if _, err := r.ReadAt(buf, offset); err != nil {
		return 0, nil, fmt.Errorf("cramfs: read superblock at %d: %w", offset, err)
	}
	header, err := cramfsHeaderSpec.Unpack(buf)
	if err != nil {
		return 0, nil, err
	}
	size := int64(header["size"].(uint32))
	return offset, &size, nil
}

// Extract carves the matched region to a temporary file and hands it to
// the in-process CramFS reader, the same carve-then-decode shape the
// reference tool uses (a temp file under a scoped destination
// directory, here decoded directly instead of shelled out to an
// external tool).
func (cramfsClassifier) Extract(r io.ReaderAt, start, length int64, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("cramfs: mkdir %s: %w", destDir, err)
	}

	tmp, err := os.CreateTemp("", "cramfs-*.img")
	if err != nil {
		return fmt.Errorf("cramfs: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	src := sectionReader(r, start, length)
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("cramfs: carve to temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cramfs: close temp file: %w", err)
	}

	f, err := os.Open(tmpName)
	if err != nil {
		return fmt.Errorf("cramfs: reopen carved image: %w", err)
	}
	defer f.Close()

	if err := cramfs.Uncram(f, destDir); err != nil {
		os.RemoveAll(destDir)
		return fmt.Errorf("cramfs: uncram: %w", err)
	}
	return nil
}
