package classifier

import (
	"fmt"
	"io"
	"os/exec"

	"github.com/nwestfall/retools/internal/structdecode"
)

func init() { Register(squashfsClassifier{}) }

type squashfsClassifier struct{}

func (squashfsClassifier) Name() string          { return "squashfs" }
func (squashfsClassifier) ContainsPayload() bool { return true }

var squashfsSignature = []byte("hsqs")

// squashfsHeaderSpec is the little-endian squashfs 4.0 superblock.
var squashfsHeaderSpec = structdecode.Spec{
	Order: byteOrderLE,
	Fields: []structdecode.Field{
		{Code: structdecode.Bytes, Name: "magic", N: 4},
		{Code: structdecode.Uint32, Name: "inode_count"},
		{Code: structdecode.Int32, Name: "modification_time"},
		{Code: structdecode.Uint32, Name: "block_size"},
		{Code: structdecode.Uint32, Name: "fragment_entry_count"},
		{Code: structdecode.Uint16, Name: "compression_id"},
		{Code: structdecode.Uint16, Name: "block_log"},
		{Code: structdecode.Uint16, Name: "flags"},
		{Code: structdecode.Uint16, Name: "id_count"},
		{Code: structdecode.Uint16, Name: "version_major"},
		{Code: structdecode.Uint16, Name: "version_minor"},
		{Code: structdecode.Uint64, Name: "root_inode_ref"},
		{Code: structdecode.Uint64, Name: "bytes_used"},
		{Code: structdecode.Uint64, Name: "id_table_start"},
		{Code: structdecode.Uint64, Name: "xattr_id_table_start"},
		{Code: structdecode.Uint64, Name: "inode_table_start"},
		{Code: structdecode.Uint64, Name: "directory_table_start"},
		{Code: structdecode.Uint64, Name: "fragment_table_start"},
		{Code: structdecode.Uint64, Name: "export_table_start"},
	},
}

func (squashfsClassifier) Scan(chunk []byte) []int {
	return findAll(chunk, squashfsSignature)
}

func (squashfsClassifier) Investigate(r io.ReaderAt, offset int64) (int64, *int64, error) {
	buf := make([]byte, squashfsHeaderSpec.Size())
	if _, err := r.ReadAt(buf, offset); err != nil {
		return 0, nil, fmt.Errorf("squashfs: read superblock at %d: %w", offset, err)
	}
	header, err := squashfsHeaderSpec.Unpack(buf)
	if err != nil {
		return 0, nil, err
	}
	bytesUsed := int64(header["bytes_used"].(uint64))
	total := int64(squashfsHeaderSpec.Size()) + bytesUsed
	return offset, &total, nil
}

func (squashfsClassifier) Extract(r io.ReaderAt, start, length int64, destDir string) error {
	return carveToTempAndRun(r, start, length, destDir, ".squashfs", func(tempName string) *exec.Cmd {
		return exec.Command("unsquashfs", tempName)
	})
}
