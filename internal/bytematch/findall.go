// Package bytematch provides the byte-string primitive the classifier
// pipeline builds on: signature search within a chunk.
package bytematch

import "bytes"

// FindAll returns every offset in haystack where needle occurs, including
// overlapping occurrences. It is the Go analogue of the original tool's
// repeated bytes.find(haystack, needle, start) loop: each match advances
// the search window by one byte rather than by len(needle), so adjacent
// or overlapping signatures are never missed.
func FindAll(haystack, needle []byte) []int {
	if len(needle) == 0 {
		return nil
	}
	var offsets []int
	start := 0
	for {
		idx := bytes.Index(haystack[start:], needle)
		if idx == -1 {
			break
		}
		offset := start + idx
		offsets = append(offsets, offset)
		start = offset + 1
		if start >= len(haystack) {
			break
		}
	}
	return offsets
}
