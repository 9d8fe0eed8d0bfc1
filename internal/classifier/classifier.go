// Package classifier implements the pluggable scan/investigate/extract
// pipeline: each supported container or compression format registers a
// Classifier that can recognize its signature inside an arbitrary byte
// stream, confirm and delimit a candidate match, and extract the
// payload to a destination directory.
//
// Classifiers are tried in descending priority order (§ Priority),
// mirroring the distilled format table: self-extracting firmware
// containers before general-purpose archives before raw compression
// streams, so a uboot image embedding a squashfs isn't mistaken for a
// bare squashfs first.
package classifier

import "io"

// Classifier recognizes one archive or compression format.
type Classifier interface {
	// Name identifies the format for logging and output filenames.
	Name() string

	// ContainsPayload reports whether Extract produces a separate
	// artifact the driver may extract and recurse into. Every classifier
	// in this package reports true; a format reporting false is only
	// ever carved verbatim, when its length is known (the driver's
	// carve-vs-extract decision described in the unpacker package).
	ContainsPayload() bool

	// Scan returns every byte offset within chunk where this format's
	// signature appears, or, for a format whose signature sits at a
	// fixed distance into its header (tar's "ustar" field), where that
	// header would begin; such an offset may be negative. Offsets are
	// relative to the start of chunk.
	Scan(chunk []byte) []int

	// Investigate is called with an absolute candidate offset inside r
	// (a signature match found by Scan, already translated to absolute
	// file coordinates). It confirms the match and returns the
	// confirmed start offset (which may differ from offset, as with the
	// zip end-of-central-directory record) and, if
	// determinable, the total byte length of the matched region. A
	// nil length means "extends to EOF or is unknown until extraction".
	// Investigate returns an error if the candidate does not hold up to
	// closer inspection (not a real match).
	Investigate(r io.ReaderAt, offset int64) (start int64, length *int64, err error)

	// Extract decodes or unpacks the region [start,start+length) of r
	// into destDir. If length is negative, Extract reads until EOF.
	Extract(r io.ReaderAt, start, length int64, destDir string) error
}

// priority mirrors the distilled format table: formats earlier in this
// list are tried first. Formats not listed fall back to priority 0 and
// are tried in registration order after all named ones, matching the
// reference tool's reversed-enumerate construction.
var priorityOrder = []string{
	"uboot",
	"squashfs",
	"cramfs",
	"tar",
	"zip",
	"gzip",
}

func priorityOf(name string) int {
	for i, n := range priorityOrder {
		if n == name {
			return len(priorityOrder) - i
		}
	}
	return 0
}

// registry holds every registered Classifier, kept sorted by
// descending priority.
var registry []Classifier

// Register adds c to the global registry. It is called from each
// format's init function.
func Register(c Classifier) {
	registry = append(registry, c)
	sortByPriority(registry)
}

func sortByPriority(cs []Classifier) {
	// insertion sort: the registry is small (one entry per format) and
	// Register is only ever called from package init functions.
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && priorityOf(cs[j].Name()) > priorityOf(cs[j-1].Name()); j-- {
			cs[j], cs[j-1] = cs[j-1], cs[j]
		}
	}
}

// All returns the registered classifiers in descending priority order.
func All() []Classifier {
	out := make([]Classifier, len(registry))
	copy(out, registry)
	return out
}
