package classifier

import (
	"io"
	"os/exec"
)

func init() { Register(tarClassifier{}) }

type tarClassifier struct{}

func (tarClassifier) Name() string          { return "tar" }
func (tarClassifier) ContainsPayload() bool { return true }

var tarSignature = []byte("ustar")

// ustarHeaderOffset is the byte offset of the "ustar" magic within a
// tar header block; the file itself begins 0x101 bytes earlier.
const ustarHeaderOffset = 0x101

func (tarClassifier) Scan(chunk []byte) []int {
	hits := findAll(chunk, tarSignature)
	out := make([]int, 0, len(hits))
	for _, h := range hits {
		out = append(out, h-ustarHeaderOffset)
	}
	return out
}

func (tarClassifier) Investigate(r io.ReaderAt, offset int64) (int64, *int64, error) {
	if offset < 0 {
		return 0, nil, errShortCandidate
	}
	magic := make([]byte, len(tarSignature))
	if _, err := r.ReadAt(magic, offset+ustarHeaderOffset); err != nil {
		return 0, nil, err
	}
	// length is unknown ahead of time; tar is carved to a temp file and
	// handed to the external tar binary, which reads until its own
	// end-of-archive marker.
	return offset, nil, nil
}

func (tarClassifier) Extract(r io.ReaderAt, start, length int64, destDir string) error {
	return carveToTempAndRun(r, start, length, destDir, ".tar", func(tempName string) *exec.Cmd {
		return exec.Command("tar", "-x", "-f", tempName)
	})
}
