package classifier

import (
	"bytes"
	"fmt"
	"io"

	"github.com/nwestfall/retools/internal/structdecode"
)

func init() { Register(bzip2Classifier{}) }

type bzip2Classifier struct{}

func (bzip2Classifier) Name() string          { return "bzip2" }
func (bzip2Classifier) ContainsPayload() bool { return true }

var bzip2Signature = []byte("BZh")

// bzip2HeaderSpec decodes the 14-byte stream header: "BZ" + the 'h'
// version byte + a single ASCII digit block size ('1'-'9') + the 6-byte
// compressed-block magic + a 4-byte CRC.
var bzip2HeaderSpec = structdecode.Spec{
	Order: byteOrderBE,
	Fields: []structdecode.Field{
		{Code: structdecode.Bytes, Name: "magic", N: 2},
		{Code: structdecode.Bytes, Name: "version", N: 1},
		{Code: structdecode.Bytes, Name: "blocksize", N: 1},
		{Code: structdecode.Bytes, Name: "compressed_magic", N: 6},
		{Code: structdecode.Uint32, Name: "crc"},
	},
}

func (bzip2Classifier) Scan(chunk []byte) []int {
	return findAll(chunk, bzip2Signature)
}

func (bzip2Classifier) Investigate(r io.ReaderAt, offset int64) (int64, *int64, error) {
	buf := make([]byte, bzip2HeaderSpec.Size())
	if _, err := r.ReadAt(buf, offset); err != nil {
		return 0, nil, fmt.Errorf("bzip2: read header at %d: %w", offset, err)
	}
	fields, err := bzip2HeaderSpec.Unpack(buf)
	if err != nil {
		return 0, nil, err
	}
	if !bytes.Equal(fields["compressed_magic"].([]byte), []byte("1AY&SY")) {
		return 0, nil, fmt.Errorf("bzip2: not a real stream at %d", offset)
	}
	return offset, nil, nil
}

func (bzip2Classifier) Extract(r io.ReaderAt, start, length int64, destDir string) error {
	path := outputPath(destDir, "payload.bz2.out")
	return pipeThroughSubprocess(r, start, length, path, []int{0}, "bzcat", "--decompress")
}
