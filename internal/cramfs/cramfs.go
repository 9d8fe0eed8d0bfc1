// Package cramfs decodes CramFS filesystem images: it parses the
// superblock and packed inode table, walks the directory tree, and
// retrieves zlib-compressed file data block by block.
//
// The bitfield layout (mode/uid/size/gid/namelen/offset packing inside
// two and three 32-bit little-endian words) is not self-describing, so
// this package follows the reference decoder's exact arithmetic rather
// than any Go cramfs library, there being none in the example corpus.
package cramfs

import (
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zlib"

	"github.com/nwestfall/retools/internal/decompresscache"
	"github.com/nwestfall/retools/internal/fskeleton"
	"github.com/nwestfall/retools/internal/structdecode"
)

const (
	headerSize = 64
	inodeSize  = 12
	blockSize  = 4096
)

// ErrMagic is returned when the input does not begin with the cramfs
// magic number.
var ErrMagic = fmt.Errorf("cramfs: bad magic")

// ErrInvariant is returned when the image violates a structural
// invariant the decoder relies on: a directory's child inodes do not
// exactly fill its declared size, or a file's block pointer lies before
// the end of the previous block.
var ErrInvariant = fmt.Errorf("cramfs: invariant violation")

var headerSpec = structdecode.Spec{
	Order: binary.LittleEndian,
	Fields: []structdecode.Field{
		{Code: structdecode.Uint32, Name: "magic"},
		{Code: structdecode.Uint32, Name: "size"},
		{Code: structdecode.Uint32, Name: "flags"},
		{Code: structdecode.Uint32, Name: "future"},
		{Code: structdecode.Bytes, Name: "signature", N: 16},
		{Code: structdecode.Uint32, Name: "fsid_crc"},
		{Code: structdecode.Uint32, Name: "fsid_edition"},
		{Code: structdecode.Uint32, Name: "fsid_blocks"},
		{Code: structdecode.Uint32, Name: "fsid_files"},
		{Code: structdecode.Bytes, Name: "name", N: 16},
	},
}

const magicNumber = 0x28cd3d45

// Header is the decoded cramfs superblock.
type Header struct {
	Size    uint32
	Flags   uint32
	Name    string
	CRC     uint32
	Edition uint32
	Blocks  uint32
	Files   uint32
}

// Inode is a single decoded directory-entry header: the fixed 12-byte
// packed fields plus the variable-length name that follows it.
type Inode struct {
	// byte offset of this inode's own 12-byte header within the image.
	selfOffset int64

	Mode    uint16
	Perms   fs.FileMode
	Type    uint8 // top nibble of the raw mode field
	UID     uint16
	GID     uint8
	Size    uint32
	NameLen uint32
	Offset  uint32 // byte offset of data (file) or first child inode (dir), in bytes
	Name    string
}

const (
	typeSocket  = 0xc
	typeSymlink = 0xa
	typeFile    = 0x8
	typeBlock   = 0x6
	typeDir     = 0x4
	typeChar    = 0x2
	typeFIFO    = 0x1
)

// ReadHeader parses and validates the 64-byte superblock at the start
// of r.
func ReadHeader(r io.ReaderAt) (Header, error) {
	buf := make([]byte, headerSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return Header{}, fmt.Errorf("cramfs: read superblock: %w", err)
	}
	fields, err := headerSpec.Unpack(buf)
	if err != nil {
		return Header{}, err
	}
	if fields["magic"].(uint32) != magicNumber {
		return Header{}, ErrMagic
	}
	name := fields["name"].([]byte)
	return Header{
		Size:    fields["size"].(uint32),
		Flags:   fields["flags"].(uint32),
		Name:    cString(name),
		CRC:     fields["fsid_crc"].(uint32),
		Edition: fields["fsid_edition"].(uint32),
		Blocks:  fields["fsid_blocks"].(uint32),
		Files:   fields["fsid_files"].(uint32),
	}, nil
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// readInode decodes the 12-byte packed header at byteOffset plus its
// following, 4-byte-aligned name.
func readInode(r io.ReaderAt, byteOffset int64) (Inode, error) {
	buf := make([]byte, inodeSize)
	if _, err := r.ReadAt(buf, byteOffset); err != nil {
		return Inode{}, fmt.Errorf("cramfs: read inode at %d: %w", byteOffset, err)
	}
	modeUID := binary.LittleEndian.Uint32(buf[0:4])
	sizeGID := binary.LittleEndian.Uint32(buf[4:8])
	namelenOffset := binary.LittleEndian.Uint32(buf[8:12])

	mode := uint16(modeUID & 0xffff)
	uid := uint16(modeUID >> 16)
	size := sizeGID & 0xffffff
	gid := uint8(sizeGID >> 24)
	namelen := 4 * (namelenOffset & 0x3f)
	offset := 4 * (namelenOffset >> 6)

	nameBuf := make([]byte, namelen)
	if namelen > 0 {
		if _, err := r.ReadAt(nameBuf, byteOffset+inodeSize); err != nil {
			return Inode{}, fmt.Errorf("cramfs: read inode name at %d: %w", byteOffset+inodeSize, err)
		}
	}

	return Inode{
		selfOffset: byteOffset,
		Mode:       mode,
		Type:       uint8(mode >> 12),
		Perms:      fs.FileMode(mode & 0o7777),
		UID:        uid,
		GID:        gid,
		Size:       size,
		NameLen:    namelen,
		Offset:     offset,
		Name:       cString(nameBuf),
	}, nil
}

// inodeByteWidth is the total size, in bytes, an inode plus its padded
// name occupies in the sequential inode table.
func inodeByteWidth(namelen uint32) int64 {
	return inodeSize + int64((namelen+3)&^3)
}

// listChildren returns the child inodes of a directory inode by
// scanning the sequential inode table starting at dir.Offset until
// dir.Size bytes have been consumed.
func listChildren(r io.ReaderAt, dir Inode) ([]Inode, error) {
	var children []Inode
	pos := int64(dir.Offset)
	end := int64(dir.Offset) + int64(dir.Size)
	for pos < end {
		child, err := readInode(r, pos)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		pos += inodeByteWidth(child.NameLen)
	}
	if pos != end {
		return nil, fmt.Errorf("cramfs: directory at offset %d: %w", dir.Offset, ErrInvariant)
	}
	return children, nil
}

// Uncram decodes the cramfs image in r and writes its contents under
// destDir, preserving the tree structure and regular-file permission
// bits.
func Uncram(r io.ReaderAt, destDir string) error {
	if _, err := ReadHeader(r); err != nil {
		return err
	}

	root, err := readInode(r, headerSize)
	if err != nil {
		return err
	}
	root.Name = "."

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("cramfs: mkdir %s: %w", destDir, err)
	}

	cache := decompresscache.New()
	defer cache.Close()
	return walkDir(r, root, destDir, cache)
}

func walkDir(r io.ReaderAt, dir Inode, destPath string, cache *decompresscache.Cache) error {
	children, err := listChildren(r, dir)
	if err != nil {
		return err
	}

	for _, child := range children {
		out := filepath.Join(destPath, child.Name)
		switch child.Type {
		case typeDir:
			if err := os.MkdirAll(out, 0o755|child.Perms); err != nil {
				return fmt.Errorf("cramfs: mkdir %s: %w", out, err)
			}
			if err := walkDir(r, child, out, cache); err != nil {
				return err
			}
		case typeFile:
			if err := writeFile(r, child, out, cache); err != nil {
				return err
			}
		case typeSymlink:
			target, err := readSymlinkTarget(r, child)
			if err != nil {
				return err
			}
			os.Remove(out)
			if err := os.Symlink(target, out); err != nil {
				return fmt.Errorf("cramfs: symlink %s: %w", out, err)
			}
		default:
			// device nodes, fifos, sockets: skipped, not
			// materialized on disk, matching the reference decoder's
			// file-content-only scope.
		}
	}
	return nil
}

func readSymlinkTarget(r io.ReaderAt, inode Inode) (string, error) {
	data, err := retrieveChunkedFile(r, inode, nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func writeFile(r io.ReaderAt, inode Inode, outPath string, cache *decompresscache.Cache) error {
	f, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644|inode.Perms)
	if err != nil {
		return fmt.Errorf("cramfs: create %s: %w", outPath, err)
	}
	defer f.Close()

	data, err := retrieveChunkedFile(r, inode, cache)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("cramfs: write %s: %w", outPath, err)
	}
	return nil
}

// retrieveChunkedFile reads the nblocks little-endian end-pointer array
// immediately at inode.Offset, then decompresses each
// [prevEnd,pointer) span as an independent zlib stream.
func retrieveChunkedFile(r io.ReaderAt, inode Inode, cache *decompresscache.Cache) ([]byte, error) {
	if inode.Size == 0 {
		return nil, nil
	}
	nblocks := (int64(inode.Size) - 1) / blockSize + 1

	ptrBuf := make([]byte, 4*nblocks)
	if _, err := r.ReadAt(ptrBuf, int64(inode.Offset)); err != nil {
		return nil, fmt.Errorf("cramfs: read block pointers at %d: %w", inode.Offset, err)
	}

	out := make([]byte, 0, inode.Size)
	prevEnd := int64(inode.Offset) + 4*nblocks
	for i := int64(0); i < nblocks; i++ {
		pointer := int64(binary.LittleEndian.Uint32(ptrBuf[4*i : 4*i+4]))
		if pointer < prevEnd {
			return nil, fmt.Errorf("cramfs: block %d pointer %d before previous end %d: %w", i, pointer, prevEnd, ErrInvariant)
		}

		var block []byte
		var err error
		if cache != nil {
			block, err = cache.Get(r, prevEnd, pointer)
		} else {
			block, err = decompressBlock(r, prevEnd, pointer)
		}
		if err != nil {
			return nil, fmt.Errorf("cramfs: decompress block %d [%d,%d): %w", i, prevEnd, pointer, err)
		}
		out = append(out, block...)
		prevEnd = pointer
	}

	if int64(len(out)) > int64(inode.Size) {
		out = out[:inode.Size]
	}
	return out, nil
}

func decompressBlock(r io.ReaderAt, start, end int64) ([]byte, error) {
	src := io.NewSectionReader(r, start, end-start)
	zr, err := zlib.NewReader(src)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// ToFS decodes the image into an in-memory fskeleton.FS instead of
// writing to disk, for callers that want a browsable fs.FS (tests,
// future --dry-run style inspection).
func ToFS(r io.ReaderAt) (fskeleton.FS, error) {
	if _, err := ReadHeader(r); err != nil {
		return fskeleton.FS{}, err
	}
	root, err := readInode(r, headerSize)
	if err != nil {
		return fskeleton.FS{}, err
	}

	fsys := fskeleton.New()
	if err := buildFS(r, root, ".", fsys); err != nil {
		return fskeleton.FS{}, err
	}
	fsys.NoMore()
	return fsys, nil
}

func buildFS(r io.ReaderAt, dir Inode, dirPath string, fsys fskeleton.FS) error {
	children, err := listChildren(r, dir)
	if err != nil {
		return err
	}

	for _, child := range children {
		childPath := path.Join(dirPath, child.Name)
		switch child.Type {
		case typeDir:
			if err := fsys.CreateDir(childPath, fs.ModeDir|child.Perms, zeroTime, nil); err != nil {
				return err
			}
			if err := buildFS(r, child, childPath, fsys); err != nil {
				return err
			}
		case typeFile:
			data, err := retrieveChunkedFile(r, child, nil)
			if err != nil {
				return err
			}
			if err := fsys.CreateFile(childPath, staticFileOpener(data), int64(len(data)), child.Perms, zeroTime, nil); err != nil {
				return err
			}
		case typeSymlink:
			target, err := readSymlinkTarget(r, child)
			if err != nil {
				return err
			}
			if err := fsys.CreateSymlink(childPath, target, fs.ModeSymlink|child.Perms, zeroTime, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

var zeroTime time.Time

// staticFileOpener returns an fskeleton.OpenFunc that serves data from
// memory, for the ToFS in-memory rendering path.
func staticFileOpener(data []byte) fskeleton.OpenFunc {
	return func(stub fs.File) (fs.File, error) {
		return &staticFile{stub: stub, data: data}, nil
	}
}

type staticFile struct {
	stub fs.File
	data []byte
	pos  int
}

func (s *staticFile) Stat() (fs.FileInfo, error) { return s.stub.Stat() }

func (s *staticFile) Read(p []byte) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += n
	return n, nil
}

func (s *staticFile) Close() error { return nil }
