// Package hexdump is a thin pretty-printer for byte ranges, used when
// logging a match or an encodable-type result at verbose log levels.
// It is intentionally minimal: an external collaborator's concern, not
// a subsystem of its own.
package hexdump

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a canonical 16-bytes-per-line hex dump of data to w,
// with each line labeled by its offset from baseOffset and a printable
// ASCII column on the right.
func Dump(w io.Writer, data []byte, baseOffset int64) error {
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		line := data[off:end]

		hexCols := make([]string, 16)
		for i := range hexCols {
			if i < len(line) {
				hexCols[i] = fmt.Sprintf("%02x", line[i])
			} else {
				hexCols[i] = "  "
			}
		}

		var ascii strings.Builder
		for _, b := range line {
			if b >= 0x20 && b < 0x7f {
				ascii.WriteByte(b)
			} else {
				ascii.WriteByte('.')
			}
		}

		if _, err := fmt.Fprintf(w, "%08x  %s  |%s|\n",
			baseOffset+int64(off), strings.Join(hexCols, " "), ascii.String()); err != nil {
			return err
		}
	}
	return nil
}

// String returns Dump's output as a string, for callers that just want
// to embed it in a log field.
func String(data []byte, baseOffset int64) string {
	var b strings.Builder
	Dump(&b, data, baseOffset)
	return b.String()
}
