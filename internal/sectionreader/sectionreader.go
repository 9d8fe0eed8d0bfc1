// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package sectionreader bounds an io.ReaderAt to a byte range the way
// internal/classifier carves a candidate match out of the input file
// before piping or copying it to an extractor. When the reader being
// carved is itself an *io.SectionReader, Section flattens that case
// onto the original reader instead of stacking bounded views
// arbitrarily deep.
package sectionreader

import (
	"io"
	"math"
)

// Section returns a read-only view of r bounded to [off, off+n). If r
// is itself an *io.SectionReader whose own window fully covers
// [off, off+n), the returned Window is rebased onto r's underlying
// reader rather than wrapping r directly.
func Section(r io.ReaderAt, off, n int64) *Window {
	for {
		outer, ok := r.(*io.SectionReader)
		if !ok {
			break
		}
		base, baseOff, baseN := outer.Outer()
		if off+n > baseN {
			break
		}
		r, off = base, off+baseOff
	}

	return &Window{r: r, off: off, n: n}
}

// Window is a bounded, read-only view over a byte range of another
// io.ReaderAt.
type Window struct {
	r      io.ReaderAt
	off, n int64
}

// Outer exposes the reader this Window was carved from, and the range
// within it, so a further Section call can flatten through it.
func (w *Window) Outer() (io.ReaderAt, int64, int64) { return w.r, w.off, w.n }

// Size returns the window's length in bytes.
func (w *Window) Size() int64 { return w.n }

func (w *Window) ReadAt(p []byte, off int64) (n int, err error) {
	if w.n < 0 || w.off < 0 || off < 0 || w.off+off < 0 || off >= w.n {
		return 0, io.EOF
	}

	limit := w.off + w.n
	if limit < w.off { // integer overflow
		limit = math.MaxInt64
	}

	off += w.off
	if max := limit - off; int64(len(p)) > max {
		p = p[:max]
		n, err = w.r.ReadAt(p, off)
		if err == nil {
			err = io.EOF
		}
		return n, err
	}
	return w.r.ReadAt(p, off)
}
