package classifier

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

func init() { Register(zlibClassifier{}) }

type zlibClassifier struct{}

func (zlibClassifier) Name() string          { return "zlib" }
func (zlibClassifier) ContainsPayload() bool { return true }

// zlib streams begin with a CMF byte (0x78 for the deflate method with
// a 32K window, the overwhelming majority of real streams) followed by
// one of three common FLG bytes for the no-dictionary case: 0x01 (fastest),
// 0x9c (default), 0xda (best compression).
var zlibSignatures = [][]byte{{0x78, 0x01}, {0x78, 0x9c}, {0x78, 0xda}}

func (zlibClassifier) Scan(chunk []byte) []int {
	var all []int
	for _, sig := range zlibSignatures {
		all = append(all, findAll(chunk, sig)...)
	}
	return all
}

func (zlibClassifier) Investigate(r io.ReaderAt, offset int64) (int64, *int64, error) {
	src := io.NewSectionReader(r, offset, 1<<62-offset)
	rdr, err := zlib.NewReader(src)
	if err != nil {
		return 0, nil, fmt.Errorf("zlib: investigate at %d: %w", offset, err)
	}
	defer rdr.Close()
	if _, err := io.CopyN(io.Discard, rdr, 1); err != nil && err != io.EOF {
		return 0, nil, fmt.Errorf("zlib: decode probe at %d: %w", offset, err)
	}
	return offset, nil, nil
}

func (zlibClassifier) Extract(r io.ReaderAt, start, length int64, destDir string) error {
	src := sectionReader(r, start, length)
	rdr, err := zlib.NewReader(src)
	if err != nil {
		return fmt.Errorf("zlib: extract: %w", err)
	}
	defer rdr.Close()

	out, err := createOutput(destDir, "payload.zlib.out")
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, rdr); err != nil {
		return fmt.Errorf("zlib: decompress: %w", err)
	}
	return nil
}
