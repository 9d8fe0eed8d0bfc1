//go:build !unix

package wdguard

import (
	"fmt"
	"os"
)

// Guard is the non-Unix fallback: a plain path-based chdir pair. It is
// not immune to concurrent directory changes from elsewhere in the
// process, but the unpacker driver never runs two of these
// concurrently.
func Guard(dir string) (restore func() error, err error) {
	prev, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("wdguard: getwd: %w", err)
	}

	if err := os.Chdir(dir); err != nil {
		return nil, fmt.Errorf("wdguard: chdir %s: %w", dir, err)
	}

	return func() error {
		if err := os.Chdir(prev); err != nil {
			return fmt.Errorf("wdguard: restore previous directory: %w", err)
		}
		return nil
	}, nil
}
