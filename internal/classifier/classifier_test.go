package classifier

import "testing"

func TestRegistryPriorityOrder(t *testing.T) {
	names := make([]string, 0)
	for _, c := range All() {
		names = append(names, c.Name())
	}

	rank := make(map[string]int, len(names))
	for i, n := range names {
		rank[n] = i
	}

	// uboot must come before squashfs, squashfs before cramfs, cramfs
	// before tar, tar before zip, zip before gzip.
	order := []string{"uboot", "squashfs", "cramfs", "tar", "zip", "gzip"}
	for i := 1; i < len(order); i++ {
		if rank[order[i-1]] >= rank[order[i]] {
			t.Errorf("%s (rank %d) should come before %s (rank %d)",
				order[i-1], rank[order[i-1]], order[i], rank[order[i]])
		}
	}
}

func TestGzipScan(t *testing.T) {
	c := gzipClassifier{}
	chunk := []byte{0x00, 0x1f, 0x8b, 0x08, 0x00}
	offsets := c.Scan(chunk)
	if len(offsets) != 1 || offsets[0] != 1 {
		t.Errorf("got %v, want [1]", offsets)
	}
}
