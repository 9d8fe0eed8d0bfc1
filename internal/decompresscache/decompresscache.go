// Package decompresscache caches decompressed CramFS block ranges so
// that a block requested more than once while one Cache is open (for
// instance, one reached through more than one hard link) doesn't re-run
// zlib inflation. It generalizes the checkpoint-cache idea from the
// teacher's decompression cache into two layers: a small in-memory
// admission-filtered cache (go-tinylfu) in front of an on-disk store
// (pebble) kept in a temporary directory that Close removes, so nothing
// is kept across runs.
//
// Both layers are used synchronously from the caller's goroutine. The
// unpacker processes one candidate file at a time, so there is no
// concurrent access to guard against and no need for the background
// multiplexer the teacher's spinner package builds for its own,
// streaming-reader use case.
package decompresscache

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/pebble/v2"
	"github.com/dgryski/go-tinylfu"
	"github.com/klauspost/compress/zlib"
)

const memCacheSize = 256

// Cache decompresses and remembers CramFS block ranges. The zero value
// is not usable; construct one with New.
type Cache struct {
	mem  *tinylfu.T
	db   *pebble.DB
	dir  string
}

// New opens a fresh on-disk cache backed by a temporary pebble store.
// Close removes the store when the caller is done with it.
func New() *Cache {
	dir, err := os.MkdirTemp("", "retools-decompresscache-*")
	if err != nil {
		// Caching is an optimization, not a correctness requirement:
		// fall back to no persistent layer rather than failing the
		// whole extraction.
		return &Cache{mem: tinylfu.New(memCacheSize, memCacheSize*10)}
	}

	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		os.RemoveAll(dir)
		return &Cache{mem: tinylfu.New(memCacheSize, memCacheSize*10)}
	}

	return &Cache{
		mem: tinylfu.New(memCacheSize, memCacheSize*10),
		db:  db,
		dir: dir,
	}
}

// Close releases the on-disk store.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	os.RemoveAll(c.dir)
	return err
}

func blockKey(r io.ReaderAt, start, end int64) string {
	return fmt.Sprintf("%p|%d|%d", r, start, end)
}

// Get returns the decompressed contents of the zlib stream spanning
// [start,end) in r, consulting the in-memory layer, then the on-disk
// layer, before falling back to decompressing from r directly.
func (c *Cache) Get(r io.ReaderAt, start, end int64) ([]byte, error) {
	key := blockKey(r, start, end)

	if v, ok := c.mem.Get(key); ok {
		if b, ok := v.([]byte); ok {
			return b, nil
		}
	}

	if c.db != nil {
		if b, closer, err := c.db.Get([]byte(key)); err == nil {
			out := make([]byte, len(b))
			copy(out, b)
			closer.Close()
			c.mem.Add(key, out)
			return out, nil
		}
	}

	block, err := decompressBlock(r, start, end)
	if err != nil {
		return nil, err
	}

	c.mem.Add(key, block)
	if c.db != nil {
		_ = c.db.Set([]byte(key), block, pebble.NoSync)
	}
	return block, nil
}

func decompressBlock(r io.ReaderAt, start, end int64) ([]byte, error) {
	src := io.NewSectionReader(r, start, end-start)
	zr, err := zlib.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("decompresscache: zlib reader: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
