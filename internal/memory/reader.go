package memory

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultStringCacheSize bounds the number of cached C strings.
	DefaultStringCacheSize = 16384

	// MaxStringLength is the longest C string the reader will follow.
	MaxStringLength = 1 << 16

	stringChunk = 64
)

// Reader provides fixed-size block reads and C string reads over a Space.
// Type names are shared by many records, so strings are cached by address.
// All multi-byte values are little-endian.
type Reader struct {
	space   Space
	strings *lru.Cache[uint64, string]
}

// NewReader wraps space with a string cache of the default size.
func NewReader(space Space) *Reader {
	r, _ := NewReaderSize(space, DefaultStringCacheSize)
	return r
}

// NewReaderSize wraps space with a string cache holding up to size entries.
func NewReaderSize(space Space, size int) (*Reader, error) {
	cache, err := lru.New[uint64, string](size)
	if err != nil {
		return nil, fmt.Errorf("memory: failed to create string cache: %w", err)
	}
	return &Reader{space: space, strings: cache}, nil
}

// Space returns the underlying address space.
func (r *Reader) Space() Space {
	return r.space
}

// Block reads size bytes at addr.
func (r *Reader) Block(addr uint64, size int) (Block, error) {
	data := make([]byte, size)
	if _, err := r.space.ReadAt(data, addr); err != nil {
		return Block{}, err
	}
	return Block{Addr: addr, data: data}, nil
}

// CString reads a NUL-terminated string at addr. A zero address yields "".
func (r *Reader) CString(addr uint64) (string, error) {
	if addr == 0 {
		return "", nil
	}
	if s, ok := r.strings.Get(addr); ok {
		return s, nil
	}

	var buf []byte
	chunk := make([]byte, stringChunk)
	for len(buf) < MaxStringLength {
		n, err := r.space.ReadAt(chunk, addr+uint64(len(buf)))
		if i := bytes.IndexByte(chunk[:n], 0); i >= 0 {
			buf = append(buf, chunk[:i]...)
			s := string(buf)
			r.strings.Add(addr, s)
			return s, nil
		}
		buf = append(buf, chunk[:n]...)
		if err != nil {
			if errors.Is(err, ErrUnmapped) {
				return "", fmt.Errorf("%w at 0x%x", ErrUnterminated, addr)
			}
			return "", err
		}
	}
	return "", fmt.Errorf("%w at 0x%x: longer than %d bytes", ErrUnterminated, addr, MaxStringLength)
}

// Block is a copy of a fixed-size record read from the target. Accessors take
// offsets relative to the start of the record; an offset outside the block is
// a layout bug and panics.
type Block struct {
	Addr uint64
	data []byte
}

// NewBlock wraps data read from addr.
func NewBlock(addr uint64, data []byte) Block {
	return Block{Addr: addr, data: data}
}

// Len returns the block size.
func (b Block) Len() int {
	return len(b.data)
}

// U8 reads an unsigned 8-bit integer.
func (b Block) U8(off int) uint8 {
	return b.data[off]
}

// U16 reads an unsigned 16-bit integer.
func (b Block) U16(off int) uint16 {
	return binary.LittleEndian.Uint16(b.data[off:])
}

// U32 reads an unsigned 32-bit integer.
func (b Block) U32(off int) uint32 {
	return binary.LittleEndian.Uint32(b.data[off:])
}

// U64 reads an unsigned 64-bit integer.
func (b Block) U64(off int) uint64 {
	return binary.LittleEndian.Uint64(b.data[off:])
}

// Uint reads an unsigned integer of width 0, 1, 2, 4 or 8 bytes.
// Width 0 stands for a field the record does not carry and reads as 0.
func (b Block) Uint(off, width int) uint64 {
	switch width {
	case 0:
		return 0
	case 1:
		return uint64(b.U8(off))
	case 2:
		return uint64(b.U16(off))
	case 4:
		return uint64(b.U32(off))
	case 8:
		return b.U64(off)
	default:
		panic(fmt.Sprintf("memory: unsupported field width %d", width))
	}
}

// Int reads a signed integer of the given width, sign-extending it.
func (b Block) Int(off, width int) int64 {
	switch width {
	case 0:
		return 0
	case 1:
		return int64(int8(b.U8(off)))
	case 2:
		return int64(int16(b.U16(off)))
	case 4:
		return int64(int32(b.U32(off)))
	case 8:
		return int64(b.U64(off))
	default:
		panic(fmt.Sprintf("memory: unsupported field width %d", width))
	}
}
