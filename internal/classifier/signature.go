package classifier

import "github.com/nwestfall/retools/internal/bytematch"

// findAll is a thin forwarding helper so each format file doesn't need
// its own import of internal/bytematch.
func findAll(chunk, needle []byte) []int {
	return bytematch.FindAll(chunk, needle)
}
