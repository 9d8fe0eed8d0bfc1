// Package unpacker implements the streaming driver that ties the
// classifier registry and the interval set together: it scans an input
// file in overlapping chunks with every registered classifier, asks
// each candidate match to confirm and delimit itself, carves and/or
// extracts non-overlapping matches, and optionally recurses into what
// it just extracted.
package unpacker

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"

	"github.com/nwestfall/retools/internal/classifier"
	"github.com/nwestfall/retools/internal/intervalset"
)

const (
	chunkSize   = 1 << 20 // 1 MiB
	overlapSize = 64 << 10
)

// Options configures one unpacking run, corresponding to the CLI flags
// of the unpack command in main.go.
type Options struct {
	// Destination is the output directory for a single top-level input
	// file. Defaults to "unpacked". Ignored for a directory input under
	// RecurseMultifiles, where each walked file gets its own
	// "<file>_content" destination instead.
	Destination string

	// Carve, if true, always writes the matched byte range verbatim to
	// a carved_* file, even for formats that know their own extractor.
	Carve bool

	// NoExtract disables running any format's Extract step. Carve still
	// applies independently.
	NoExtract bool

	// Recurse re-runs the whole pipeline over successfully extracted
	// content.
	Recurse bool

	// RecurseMultifiles treats a directory input as many independent
	// files to unpack, each into its own "<name>_content" directory.
	RecurseMultifiles bool

	// ArchiveLimit caps the number of bytes, counted from a match's
	// start offset, that a classifier's Extract may read from the input;
	// zero means unlimited.
	ArchiveLimit int64

	// Logger receives progress and diagnostic messages. If nil,
	// slog.Default() is used.
	Logger *slog.Logger
}

// Unpacker runs the scan/investigate/extract pipeline over input files.
type Unpacker struct {
	opts        Options
	classifiers []classifier.Classifier
	log         *slog.Logger
}

func New(opts Options) *Unpacker {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Unpacker{opts: opts, classifiers: classifier.All(), log: log}
}

// UnpackAll dispatches on whether path is a file or a directory. A
// directory is only accepted when RecurseMultifiles is set, in which
// case every regular file beneath it (excluding dotfiles and backup
// files) is unpacked independently into "<file>_content".
func (u *Unpacker) UnpackAll(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("unpacker: stat %s: %w", path, err)
	}

	if !info.IsDir() {
		return u.unpackFile(path, u.destination())
	}

	if !u.opts.RecurseMultifiles {
		return fmt.Errorf("unpacker: %s is a directory; pass --recurse-multifiles to walk it", path)
	}

	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			u.log.Warn("walk error, skipping", "path", p, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if excluded(p) {
			return nil
		}
		if uerr := u.unpackFile(p, p+"_content"); uerr != nil {
			u.log.Warn("unpack failed, continuing", "path", p, "error", uerr)
		}
		return nil
	})
}

// destination returns the configured output directory for a
// single-file input, defaulting to "unpacked".
func (u *Unpacker) destination() string {
	if u.opts.Destination != "" {
		return u.opts.Destination
	}
	return "unpacked"
}

// excluded matches the dotfile/backup exclusion doublestar applies
// while walking a directory tree for --recurse-multifiles.
func excluded(p string) bool {
	base := filepath.Base(p)
	for _, pattern := range []string{".*", "*~", "*.bak"} {
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// unpackFile runs the full pipeline over a single input file.
func (u *Unpacker) unpackFile(path, destDir string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unpacker: open %s: %w", path, err)
	}
	defer f.Close()

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("unpacker: seek %s: %w", path, err)
	}

	found := intervalset.New(false, false)

	for _, c := range u.classifiers {
		if err := u.scanWithClassifier(f, size, c, found, destDir); err != nil {
			u.log.Warn("classifier scan failed, continuing", "classifier", c.Name(), "path", path, "error", err)
		}
	}

	return nil
}

func (u *Unpacker) scanWithClassifier(f *os.File, size int64, c classifier.Classifier, found *intervalset.Set, destDir string) error {
	baseOffset := int64(0)
	for baseOffset < size {
		want := chunkSize
		if remaining := size - baseOffset; remaining < int64(want) {
			want = int(remaining)
		}
		chunk := make([]byte, want)
		if _, err := f.ReadAt(chunk, baseOffset); err != nil && err != io.EOF {
			return fmt.Errorf("read chunk at %d: %w", baseOffset, err)
		}

		for _, rel := range c.Scan(chunk) {
			candidate := baseOffset + int64(rel)
			if candidate < 0 || candidate >= size {
				continue
			}
			u.considerMatch(f, c, candidate, found, destDir)
		}

		if baseOffset+int64(want) >= size {
			break
		}
		baseOffset += int64(chunkSize - overlapSize)
	}
	return nil
}

func (u *Unpacker) considerMatch(f *os.File, c classifier.Classifier, candidate int64, found *intervalset.Set, destDir string) {
	start, length, err := c.Investigate(f, candidate)
	if err != nil {
		u.log.Debug("candidate rejected on investigation", "classifier", c.Name(), "offset", candidate, "error", err)
		return
	}

	if length == nil {
		u.log.Info("match found, length undetermined until extraction", "classifier", c.Name(), "offset", start)
		u.extractMatch(f, c, start, -1, destDir)
		return
	}

	iv := intervalset.BeginLength(start, *length)
	if err := found.Add(iv); err != nil {
		if errors.Is(err, intervalset.ErrOverlap) || errors.Is(err, intervalset.ErrIdentical) {
			u.log.Debug("discarding overlapping/duplicate match", "classifier", c.Name(), "offset", start, "error", err)
			return
		}
		u.log.Warn("interval rejected", "classifier", c.Name(), "offset", start, "error", err)
		return
	}

	u.log.Info("match found", "classifier", c.Name(), "offset", start, "length", *length)
	u.extractMatch(f, c, start, *length, destDir)
}

func (u *Unpacker) extractMatch(f *os.File, c classifier.Classifier, start, length int64, destDir string) {
	shouldCarve := u.opts.Carve || (!c.ContainsPayload() && length >= 0)
	shouldExtract := !u.opts.NoExtract && c.ContainsPayload()

	if shouldCarve {
		name := fmt.Sprintf("carved_%#010x.%s", start, c.Name())
		path := filepath.Join(destDir, name)
		if err := u.carveTo(f, start, length, path); err != nil {
			u.log.Warn("carve failed", "classifier", c.Name(), "offset", start, "error", err)
		}
	}

	if !shouldExtract {
		return
	}

	payloadDir := filepath.Join(destDir, fmt.Sprintf("payload_%#010x.%s", start, c.Name()))
	limit := u.opts.ArchiveLimit
	if limit > 0 {
		limit += start
	}
	src := limitedReaderAt(f, limit)
	if err := c.Extract(src, start, length, payloadDir); err != nil {
		u.log.Warn("extract failed", "classifier", c.Name(), "offset", start, "error", err)
		return
	}

	if u.opts.Recurse {
		contentDir := filepath.Join(destDir, fmt.Sprintf("content_%#010x.%s", start, c.Name()))
		if rerr := u.recurseInto(payloadDir, contentDir); rerr != nil {
			u.log.Warn("recursion failed", "dir", payloadDir, "error", rerr)
		}
	}
}

func (u *Unpacker) carveTo(f *os.File, start, length int64, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	var src io.Reader
	if length < 0 {
		src = io.NewSectionReader(f, start, 1<<62-start)
	} else {
		src = io.NewSectionReader(f, start, length)
	}
	_, err = io.Copy(out, src)
	return err
}

// recurseInto mirrors the original unpacker's own recursion dispatch:
// a single-file artifact (gzip/bzip2/xz/zlib/uboot each write one
// "payload.<format>.out" file into the payload directory) is always
// re-unpacked into contentDir under plain Recurse, since there is only
// ever one thing to recurse into. A directory artifact (tar/zip/
// squashfs/cramfs/dex write whatever their extractor produces) is
// a multi-file archive; its entries are only walked and recursed into
// individually when RecurseMultifiles is also set, each into its own
// "<entry>_content" sibling rather than under contentDir.
func (u *Unpacker) recurseInto(artifactPath, contentDir string) error {
	info, err := os.Stat(artifactPath)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return u.unpackFile(artifactPath, contentDir)
	}
	if outs, _ := filepath.Glob(filepath.Join(artifactPath, "payload.*.out")); len(outs) == 1 {
		return u.unpackFile(outs[0], contentDir)
	}

	if !u.opts.RecurseMultifiles {
		return nil
	}

	seen := make(map[uint64]bool)
	return filepath.WalkDir(artifactPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if excluded(p) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() == 0 {
			return nil
		}

		digest, err := fingerprint(p)
		if err != nil || seen[digest] {
			return nil
		}
		seen[digest] = true

		if uerr := u.unpackFile(p, p+"_content"); uerr != nil {
			u.log.Warn("unpack failed, continuing", "path", p, "error", uerr)
		}
		return nil
	})
}

func fingerprint(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// limitedReaderAt caps reads at limit bytes from the start of r when
// limit is positive, matching the original tool's archive-limit flag.
func limitedReaderAt(r io.ReaderAt, limit int64) io.ReaderAt {
	if limit <= 0 {
		return r
	}
	return &boundedReaderAt{r: r, limit: limit}
}

type boundedReaderAt struct {
	r     io.ReaderAt
	limit int64
}

func (b *boundedReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= b.limit {
		return 0, io.EOF
	}
	if off+int64(len(p)) > b.limit {
		p = p[:b.limit-off]
	}
	return b.r.ReadAt(p, off)
}
