package classifier

import (
	"fmt"
	"io"
	"os/exec"
)

func init() { Register(gzipClassifier{}) }

type gzipClassifier struct{}

func (gzipClassifier) Name() string          { return "gzip" }
func (gzipClassifier) ContainsPayload() bool { return true }

var gzipSignature = []byte{0x1f, 0x8b}

func (gzipClassifier) Scan(chunk []byte) []int {
	return findAll(chunk, gzipSignature)
}

func (gzipClassifier) Investigate(r io.ReaderAt, offset int64) (int64, *int64, error) {
	cmd := exec.Command("gunzip", "-l")
	cmd.Stdin = io.NewSectionReader(r, offset, 1<<62-offset)
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			if exitErr.ExitCode() == 2 {
				return offset, nil, nil
			}
		}
		return 0, nil, fmt.Errorf("gzip: investigate at %d: %w", offset, err)
	}
	return offset, nil, nil
}

func (gzipClassifier) Extract(r io.ReaderAt, start, length int64, destDir string) error {
	path := outputPath(destDir, "payload.gz.out")
	return pipeThroughSubprocess(r, start, length, path, []int{0, 2}, "gunzip", "-c")
}
