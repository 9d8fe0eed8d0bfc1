package classifier

import (
	"fmt"
	"io"
	"os/exec"
)

func init() { Register(dexClassifier{}) }

type dexClassifier struct{}

func (dexClassifier) Name() string          { return "dex" }
func (dexClassifier) ContainsPayload() bool { return true }

var dexSignature = []byte("dex\n")

func (dexClassifier) Scan(chunk []byte) []int {
	return findAll(chunk, dexSignature)
}

// dexFileSizeOffset is the byte offset, relative to the signature,
// of the u32 little-endian file_size header field.
const dexFileSizeOffset = 0x20

func (dexClassifier) Investigate(r io.ReaderAt, offset int64) (int64, *int64, error) {
	version := make([]byte, 3)
	if _, err := r.ReadAt(version, offset+4); err != nil {
		return 0, nil, fmt.Errorf("dex: read version at %d: %w", offset, err)
	}
	for _, b := range version {
		if b < '0' || b > '9' {
			return 0, nil, fmt.Errorf("dex: version field at %d is not ASCII digits", offset+4)
		}
	}

	sizeBuf := make([]byte, 4)
	if _, err := r.ReadAt(sizeBuf, offset+dexFileSizeOffset); err != nil {
		return 0, nil, fmt.Errorf("dex: read file_size at %d: %w", offset+dexFileSizeOffset, err)
	}
	size := int64(byteOrderLE.Uint32(sizeBuf))
	return offset, &size, nil
}

func (dexClassifier) Extract(r io.ReaderAt, start, length int64, destDir string) error {
	return carveToTempAndRun(r, start, length, destDir, ".dex", func(tempName string) *exec.Cmd {
		return exec.Command("dex2jar", "-o", ".", tempName)
	})
}
