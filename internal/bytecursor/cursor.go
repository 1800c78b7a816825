// Package bytecursor implements a little-endian positional reader over a
// fixed byte buffer, plus Bitcoin's CompactSize wire-format integer.
package bytecursor

import (
	"encoding/binary"
	"errors"
)

// ErrReadPastEnd is returned whenever a read would run past the end of the
// underlying buffer.
var ErrReadPastEnd = errors.New("bytecursor: read past end of buffer")

// Cursor is a pure positional reader: (bytes, offset). It is scoped to one
// parse and never shared across goroutines.
type Cursor struct {
	buf []byte
	off int
}

// New wraps buf for sequential reading starting at offset 0.
func New(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Offset returns the current read position.
func (c *Cursor) Offset() int { return c.off }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.off }

// Bytes returns the underlying buffer (not a copy).
func (c *Cursor) Bytes() []byte { return c.buf }

// Advance moves the cursor forward n bytes without returning them. It fails
// if that would read past the end.
func (c *Cursor) Advance(n int) error {
	if n < 0 || c.Remaining() < n {
		return ErrReadPastEnd
	}
	c.off += n
	return nil
}

// Peek returns the next n bytes without advancing the cursor.
func (c *Cursor) Peek(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, ErrReadPastEnd
	}
	return c.buf[c.off : c.off+n], nil
}

// ReadBytes reads and returns the next n raw bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	b, err := c.Peek(n)
	if err != nil {
		return nil, err
	}
	c.off += n
	return b, nil
}

// ReadHash reads a 32-byte hash (no reversal; caller decides display order).
func (c *Cursor) ReadHash() ([32]byte, error) {
	var h [32]byte
	b, err := c.ReadBytes(32)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

// ReadU8 reads a single unsigned byte.
func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16LE reads a little-endian uint16.
func (c *Cursor) ReadU16LE() (uint16, error) {
	b, err := c.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32LE reads a little-endian uint32.
func (c *Cursor) ReadU32LE() (uint32, error) {
	b, err := c.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadI32LE reads a little-endian int32 (used for tx/block version fields).
func (c *Cursor) ReadI32LE() (int32, error) {
	u, err := c.ReadU32LE()
	if err != nil {
		return 0, err
	}
	return int32(u), nil
}

// ReadU64LE reads a little-endian uint64.
func (c *Cursor) ReadU64LE() (uint64, error) {
	b, err := c.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadCompactSize reads Bitcoin's CompactSize variable-length integer:
// first byte b; b<0xFD -> b; 0xFD -> next u16; 0xFE -> next u32; 0xFF -> next u64.
// This is distinct from the Core varint used in undo records (see wireformat.ReadCoreVarint).
func (c *Cursor) ReadCompactSize() (uint64, error) {
	b, err := c.ReadU8()
	if err != nil {
		return 0, err
	}
	switch b {
	case 0xfd:
		v, err := c.ReadU16LE()
		return uint64(v), err
	case 0xfe:
		v, err := c.ReadU32LE()
		return uint64(v), err
	case 0xff:
		return c.ReadU64LE()
	default:
		return uint64(b), nil
	}
}
