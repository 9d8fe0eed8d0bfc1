package classifier

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/nwestfall/retools/internal/sectionreader"
	"github.com/nwestfall/retools/internal/wdguard"
)

// pipeThroughSubprocess streams the region [start,start+length) of r
// into cmd's stdin and writes cmd's stdout to destPath. It is the shape
// shared by gzip/bzip2: no intermediate file, the external decoder
// reads a compressed stream and writes a decompressed one.
// successRC lists the process exit codes that count as success (gzip's
// gunzip -c accepts both 0 and 2 — "trailing garbage" warnings).
func pipeThroughSubprocess(r io.ReaderAt, start, length int64, destPath string, successRC []int, name string, args ...string) error {
	src := sectionReader(r, start, length)

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("classifier: mkdir %s: %w", filepath.Dir(destPath), err)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("classifier: create %s: %w", destPath, err)
	}
	defer out.Close()

	cmd := exec.Command(name, args...)
	cmd.Stdin = src
	cmd.Stdout = out

	runErr := cmd.Run()
	if runErr == nil {
		return nil
	}

	exitErr, ok := runErr.(*exec.ExitError)
	if !ok {
		return fmt.Errorf("classifier: run %s: %w", name, runErr)
	}
	code := exitErr.ExitCode()
	for _, rc := range successRC {
		if code == rc {
			return nil
		}
	}
	return fmt.Errorf("classifier: %s exited %d: %w", name, code, runErr)
}

// carveToTempAndRun carves [start,start+length) of r into a temporary
// file under a scoped working directory, then invokes build to turn
// that temp file's name into a command line to run inside destDir. It
// is the shape shared by tar/zip/squashfs/dex: the external tool needs
// a real file to operate on and a directory to unpack into.
func carveToTempAndRun(r io.ReaderAt, start, length int64, destDir, suffix string, build func(tempName string) *exec.Cmd) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("classifier: mkdir %s: %w", destDir, err)
	}

	restore, err := wdguard.Guard(destDir)
	if err != nil {
		return err
	}
	defer restore()

	tmp, err := os.CreateTemp(".", "carve-*"+suffix)
	if err != nil {
		return fmt.Errorf("classifier: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	src := sectionReader(r, start, length)
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("classifier: carve to temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("classifier: close temp file: %w", err)
	}

	cmd := build(tmpName)
	if err := cmd.Run(); err != nil {
		os.Remove(destDir)
		return fmt.Errorf("classifier: run %s: %w", cmd.Path, err)
	}
	return nil
}

// sectionReader returns a Reader bounded to [start,start+length) of r.
// It goes through internal/sectionreader rather than io.NewSectionReader
// directly so that a region of an r that is itself a *io.SectionReader
// gets flattened to the underlying reader instead of stacking section
// readers arbitrarily deep.
func sectionReader(r io.ReaderAt, start, length int64) io.Reader {
	if length < 0 {
		length = 1<<62 - start
	}
	bounded := sectionreader.Section(r, start, length)
	return io.NewSectionReader(bounded, 0, bounded.Size())
}

func outputPath(destDir, name string) string {
	return filepath.Join(destDir, name)
}

// createOutput opens the named file under destDir for writing,
// creating destDir first if necessary.
func createOutput(destDir, name string) (*os.File, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("classifier: mkdir %s: %w", destDir, err)
	}
	f, err := os.Create(outputPath(destDir, name))
	if err != nil {
		return nil, fmt.Errorf("classifier: create output: %w", err)
	}
	return f, nil
}
