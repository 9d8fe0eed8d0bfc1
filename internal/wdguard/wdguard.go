//go:build unix

// Package wdguard provides a scoped working-directory change for the
// classifiers that must shell out to external tools (tar, unzip,
// unsquashfs, dex2jar) expecting to run inside a destination directory.
// It mirrors the file-identity packages' per-platform split: on Unix it
// opens the current directory once before changing to the target and
// restores it by fd, avoiding the TOCTOU race of a path-based restore.
package wdguard

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Guard changes the process working directory to dir and returns a
// function that restores the previous directory. The process working
// directory is shared process-wide, so callers must not run Guard
// concurrently with other directory-sensitive work; the unpacker
// driver's single-threaded design (processing one candidate archive at
// a time) guarantees this.
func Guard(dir string) (restore func() error, err error) {
	prev, err := unix.Open(".", unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		return nil, fmt.Errorf("wdguard: open current directory: %w", err)
	}

	if err := os.Chdir(dir); err != nil {
		unix.Close(prev)
		return nil, fmt.Errorf("wdguard: chdir %s: %w", dir, err)
	}

	return func() error {
		defer unix.Close(prev)
		if err := unix.Fchdir(prev); err != nil {
			return fmt.Errorf("wdguard: restore previous directory: %w", err)
		}
		return nil
	}, nil
}
