package classifier

import (
	"fmt"
	"io"

	"github.com/therootcompany/xz"
)

func init() { Register(xzClassifier{}) }

type xzClassifier struct{}

func (xzClassifier) Name() string          { return "xz" }
func (xzClassifier) ContainsPayload() bool { return true }

var xzSignature = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

func (xzClassifier) Scan(chunk []byte) []int {
	return findAll(chunk, xzSignature)
}

func (xzClassifier) Investigate(r io.ReaderAt, offset int64) (int64, *int64, error) {
	src := io.NewSectionReader(r, offset, 1<<62-offset)
	rdr, err := xz.NewReader(src, 0)
	if err != nil {
		return 0, nil, fmt.Errorf("xz: investigate at %d: %w", offset, err)
	}
	if _, err := io.CopyN(io.Discard, rdr, 1); err != nil && err != io.EOF {
		return 0, nil, fmt.Errorf("xz: decode probe at %d: %w", offset, err)
	}
	return offset, nil, nil
}

// Extract decodes the xz stream entirely in-process via
// therootcompany/xz rather than shelling out, matching the teacher's
// probe.go use of xz.NewReader for descending into .xz payloads.
func (xzClassifier) Extract(r io.ReaderAt, start, length int64, destDir string) error {
	src := sectionReader(r, start, length)
	rdr, err := xz.NewReader(src, 0)
	if err != nil {
		return fmt.Errorf("xz: extract: %w", err)
	}

	out, err := createOutput(destDir, "payload.xz.out")
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, rdr); err != nil {
		return fmt.Errorf("xz: decompress: %w", err)
	}
	return nil
}
