package classifier

import (
	"fmt"
	"io"

	"github.com/nwestfall/retools/internal/structdecode"
)

func init() { Register(ubootClassifier{}) }

type ubootClassifier struct{}

func (ubootClassifier) Name() string          { return "uboot" }
func (ubootClassifier) ContainsPayload() bool { return true }

var ubootSignature = []byte{0x27, 0x05, 0x19, 0x56}

// ubootHeaderSpec is the 64-byte big-endian legacy U-Boot image header.
var ubootHeaderSpec = structdecode.Spec{
	Order: byteOrderBE,
	Fields: []structdecode.Field{
		{Code: structdecode.Uint32, Name: "magic"},
		{Code: structdecode.Uint32, Name: "hdr_crc"},
		{Code: structdecode.Uint32, Name: "time"},
		{Code: structdecode.Uint32, Name: "size"},
		{Code: structdecode.Uint32, Name: "load_addr"},
		{Code: structdecode.Uint32, Name: "entry_point"},
		{Code: structdecode.Uint32, Name: "data_crc"},
		{Code: structdecode.Uint8, Name: "os"},
		{Code: structdecode.Uint8, Name: "arch"},
		{Code: structdecode.Uint8, Name: "img_type"},
		{Code: structdecode.Uint8, Name: "compression"},
		{Code: structdecode.Bytes, Name: "img_name", N: 32},
	},
}

func (ubootClassifier) Scan(chunk []byte) []int {
	return findAll(chunk, ubootSignature)
}

func (ubootClassifier) Investigate(r io.ReaderAt, offset int64) (int64, *int64, error) {
	buf := make([]byte, ubootHeaderSpec.Size())
	if _, err := r.ReadAt(buf, offset); err != nil {
		return 0, nil, fmt.Errorf("uboot: read header at %d: %w", offset, err)
	}
	header, err := ubootHeaderSpec.Unpack(buf)
	if err != nil {
		return 0, nil, err
	}
	size := int64(header["size"].(uint32))
	total := int64(ubootHeaderSpec.Size()) + size
	return offset, &total, nil
}

// Extract re-carves the header to recover the payload size (legacy
// U-Boot images are self-extracting framing: the signature marks the
// start of a header immediately followed by the payload, so extraction
// strips the header rather than invoking any external tool).
func (ubootClassifier) Extract(r io.ReaderAt, start, length int64, destDir string) error {
	headerSize := int64(ubootHeaderSpec.Size())
	buf := make([]byte, ubootHeaderSpec.Size())
	if _, err := r.ReadAt(buf, start); err != nil {
		return fmt.Errorf("uboot: re-read header at %d: %w", start, err)
	}
	header, err := ubootHeaderSpec.Unpack(buf)
	if err != nil {
		return err
	}
	size := int64(header["size"].(uint32))

	out, err := createOutput(destDir, "payload.uboot.out")
	if err != nil {
		return err
	}
	defer out.Close()

	src := io.NewSectionReader(r, start+headerSize, size)
	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("uboot: extract payload: %w", err)
	}
	return nil
}
