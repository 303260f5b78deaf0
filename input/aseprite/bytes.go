package aseprite

import (
	"errors"

	"github.com/npillmayer/asefont/core"
)

// Reading bytes from an Aseprite file's binary representation.
// Aseprite stores all numbers little-endian.

var errBufferBounds = errors.New("buffer bounds error")

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler
	return uint16(b[0]) | uint16(b[1])<<8
}

func u32(b []byte) uint32 {
	_ = b[3] // Bounds check hint to compiler
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// binarySegm is a segment of byte data, positioned at an absolute offset
// within the file.
type binarySegm struct {
	data []byte
	base int64 // file offset of data[0]
}

// view returns n bytes at the given relative offset.
// The byte segment returned is a sub-slice of b.
func (b binarySegm) view(offset, n int) (binarySegm, error) {
	if offset < 0 || n < 0 || offset+n > len(b.data) {
		return binarySegm{}, errBufferBounds
	}
	return binarySegm{data: b.data[offset : offset+n], base: b.base + int64(offset)}, nil
}

// cursor reads sequentially from a segment. The first bounds error sticks:
// all subsequent reads return zero values, and err reports the position of
// the failing read.
type cursor struct {
	segm binarySegm
	pos  int
	err  error
	what string // what is being read, for error messages
}

func newCursor(segm binarySegm, what string) *cursor {
	return &cursor{segm: segm, what: what}
}

// offset returns the absolute file offset of the cursor.
func (c *cursor) offset() int64 {
	return c.segm.base + int64(c.pos)
}

func (c *cursor) bytes(n int) []byte {
	if c.err != nil {
		return nil
	}
	v, err := c.segm.view(c.pos, n)
	if err != nil {
		c.err = core.FormatError(c.offset(), "truncated %s: need %d bytes, have %d",
			c.what, n, len(c.segm.data)-c.pos)
		return nil
	}
	c.pos += n
	return v.data
}

func (c *cursor) skip(n int) {
	c.bytes(n)
}

func (c *cursor) u8() uint8 {
	if b := c.bytes(1); b != nil {
		return b[0]
	}
	return 0
}

func (c *cursor) u16() uint16 {
	if b := c.bytes(2); b != nil {
		return u16(b)
	}
	return 0
}

func (c *cursor) i16() int16 {
	return int16(c.u16())
}

func (c *cursor) u32() uint32 {
	if b := c.bytes(4); b != nil {
		return u32(b)
	}
	return 0
}

// str reads a string, stored as a 16 bit length followed by UTF-8 bytes.
func (c *cursor) str() string {
	n := int(c.u16())
	return string(c.bytes(n))
}

// rest returns the remaining bytes of the segment.
func (c *cursor) rest() []byte {
	if c.err != nil {
		return nil
	}
	return c.bytes(len(c.segm.data) - c.pos)
}
