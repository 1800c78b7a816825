// Package wireformat implements Bitcoin Core's on-disk varint and compressed
// amount encodings used by rev*.dat undo records. Both are distinct from the
// CompactSize format used in transaction/block wire serialization
// (see internal/bytecursor), a distinction implementers of this decoder must
// not blur: substituting a LEB128-style varint here silently corrupts every
// value and script that follows it in the same undo record.
package wireformat

import "errors"

// ErrReadPastEnd mirrors bytecursor.ErrReadPastEnd for ReadCoreVarint,
// which reads from a plain byte slice and offset rather than a Cursor
// (see internal/undo).
var ErrReadPastEnd = errors.New("wireformat: read past end of buffer")

// ReadCoreVarint reads one Bitcoin Core "CVarInt" value from buf starting at
// offset off, returning the value and the offset just past it.
//
// Encoding: read bytes left to right; for each byte b, n = (n<<7)|(b&0x7F);
// if b&0x80 is set, increment n by 1 and continue; otherwise stop. The
// "+1 on continuation" step is what makes the encoding canonical (every
// value has exactly one representation) and must not be dropped.
func ReadCoreVarint(buf []byte, off int) (uint64, int, error) {
	var n uint64
	for {
		if off >= len(buf) {
			return 0, 0, ErrReadPastEnd
		}
		b := buf[off]
		off++
		n = (n << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			return n, off, nil
		}
		n++
	}
}
