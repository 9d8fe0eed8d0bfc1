package classifier

import (
	"fmt"
	"io"
	"os/exec"

	"github.com/nwestfall/retools/internal/structdecode"
)

func init() { Register(zipClassifier{}) }

type zipClassifier struct{}

func (zipClassifier) Name() string          { return "zip" }
func (zipClassifier) ContainsPayload() bool { return true }

var zipEOCDSignature = []byte{'P', 'K', 0x05, 0x06}

// eocdSpec decodes the end-of-central-directory record that follows
// the 4-byte signature.
var eocdSpec = structdecode.Spec{
	Order: byteOrderLE,
	Fields: []structdecode.Field{
		{Code: structdecode.Uint16, Name: "disk_number"},
		{Code: structdecode.Uint16, Name: "disk_number_with_cd"},
		{Code: structdecode.Uint16, Name: "disk_entries"},
		{Code: structdecode.Uint16, Name: "total_entries"},
		{Code: structdecode.Uint32, Name: "central_directory_size"},
		{Code: structdecode.Uint32, Name: "offset_of_central_directory"},
		{Code: structdecode.Uint16, Name: "comment_length"},
	},
}

// centralDirectorySpec decodes a single central-directory file header
// following its own 4-byte signature, used only to sanity-check that
// the region the EOCD points back to really is a central directory.
var centralDirectorySpec = structdecode.Spec{
	Order: byteOrderLE,
	Fields: []structdecode.Field{
		{Code: structdecode.Uint16, Name: "version"},
		{Code: structdecode.Uint16, Name: "version_needed"},
		{Code: structdecode.Uint16, Name: "flags"},
		{Code: structdecode.Uint16, Name: "compression"},
		{Code: structdecode.Uint16, Name: "mod_time"},
		{Code: structdecode.Uint16, Name: "mod_date"},
		{Code: structdecode.Uint32, Name: "crc32"},
		{Code: structdecode.Uint32, Name: "compressed_size"},
		{Code: structdecode.Uint32, Name: "uncompressed_size"},
	},
}

const centralDirectorySignature = 0x02014b50

func (zipClassifier) Scan(chunk []byte) []int {
	return findAll(chunk, zipEOCDSignature)
}

func (zipClassifier) Investigate(r io.ReaderAt, offset int64) (int64, *int64, error) {
	buf := make([]byte, eocdSpec.Size())
	if _, err := r.ReadAt(buf, offset+4); err != nil {
		return 0, nil, fmt.Errorf("zip: read EOCD at %d: %w", offset, err)
	}
	eocd, err := eocdSpec.Unpack(buf)
	if err != nil {
		return 0, nil, err
	}

	cdSize := int64(eocd["central_directory_size"].(uint32))
	cdOffset := int64(eocd["offset_of_central_directory"].(uint32))
	commentLength := int64(eocd["comment_length"].(uint16))

	fileEnd := offset + 0x16 + commentLength
	cdAbsolute := offset - cdSize

	cdHeader := make([]byte, 4)
	if _, err := r.ReadAt(cdHeader, cdAbsolute); err != nil {
		return 0, nil, fmt.Errorf("zip: read central directory at %d: %w", cdAbsolute, err)
	}
	if byteOrderLE.Uint32(cdHeader) != centralDirectorySignature {
		return 0, nil, fmt.Errorf("zip: no central directory signature at %d", cdAbsolute)
	}

	cdBody := make([]byte, centralDirectorySpec.Size())
	if _, err := r.ReadAt(cdBody, cdAbsolute+4); err != nil {
		return 0, nil, fmt.Errorf("zip: read central directory header at %d: %w", cdAbsolute+4, err)
	}
	if _, err := centralDirectorySpec.Unpack(cdBody); err != nil {
		return 0, nil, err
	}

	fileStart := offset - cdSize - cdOffset
	fileLength := fileEnd - fileStart

	return fileStart, &fileLength, nil
}

func (zipClassifier) Extract(r io.ReaderAt, start, length int64, destDir string) error {
	return carveToTempAndRun(r, start, length, destDir, ".zip", func(tempName string) *exec.Cmd {
		return exec.Command("unzip", "-n", tempName)
	})
}
