package wdguard

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGuardRestores(t *testing.T) {
	start, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	tmp := t.TempDir()
	restore, err := Guard(tmp)
	if err != nil {
		t.Fatal(err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	resolvedTmp, err := filepath.EvalSymlinks(tmp)
	if err != nil {
		t.Fatal(err)
	}
	resolvedCwd, err := filepath.EvalSymlinks(cwd)
	if err != nil {
		t.Fatal(err)
	}
	if resolvedCwd != resolvedTmp {
		t.Errorf("cwd = %s, want %s", resolvedCwd, resolvedTmp)
	}

	if err := restore(); err != nil {
		t.Fatal(err)
	}

	after, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if after != start {
		t.Errorf("after restore cwd = %s, want %s", after, start)
	}
}
