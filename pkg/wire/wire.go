// Package wire holds the byte-level primitives shared by the boconv codecs:
// little-endian length words, the [len][payload] envelope and a bounds-checked
// cursor for walking a fixed buffer.
//
// Every multi-byte quantity on the wire is little-endian. A length word is
// always 4 bytes (uint32).
package wire

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// LengthSize is the size of every length prefix on the wire
const LengthSize = 4

// ErrShortBuffer is returned when a read runs past the end of the buffer
var ErrShortBuffer = errors.New("short buffer")

// AppendUint32 appends v as 4 little-endian bytes
func AppendUint32(dst []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, v)
}

// PutUint32 writes v as 4 little-endian bytes at the start of b
func PutUint32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

// Uint32 reads 4 little-endian bytes from the start of b
func Uint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// AppendEnvelope appends payload preceded by its own 4-byte length
func AppendEnvelope(dst, payload []byte) []byte {
	dst = AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...)
}

// Envelope returns payload preceded by its own 4-byte length
func Envelope(payload []byte) []byte {
	return AppendEnvelope(make([]byte, 0, LengthSize+len(payload)), payload)
}

// Reserve appends a zeroed length word and returns the offset where it starts,
// so the caller can backfill it with Backfill once the payload is written.
func Reserve(dst []byte) ([]byte, int) {
	at := len(dst)
	return append(dst, 0, 0, 0, 0), at
}

// Backfill writes v into the length word reserved at offset at
func Backfill(dst []byte, at int, v uint32) {
	PutUint32(dst[at:at+LengthSize], v)
}

// Cursor walks a fixed buffer front to back. Every successful read advances
// the cursor by exactly the number of bytes consumed, so loops driven by
// Remaining always terminate.
type Cursor struct {
	data []byte
	off  int
}

// NewCursor creates a cursor positioned at the start of data
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Offset returns the number of bytes consumed so far
func (c *Cursor) Offset() int {
	return c.off
}

// Remaining returns the number of unread bytes
func (c *Cursor) Remaining() int {
	return len(c.data) - c.off
}

// Done reports whether the buffer is fully consumed
func (c *Cursor) Done() bool {
	return c.off >= len(c.data)
}

// ReadByte reads a single byte
func (c *Cursor) ReadByte() (byte, error) {
	if c.Remaining() < 1 {
		return 0, c.short(1)
	}
	b := c.data[c.off]
	c.off++
	return b, nil
}

// ReadUint32 reads a 4-byte little-endian word
func (c *Cursor) ReadUint32() (uint32, error) {
	b, err := c.Next(LengthSize)
	if err != nil {
		return 0, err
	}
	return Uint32(b), nil
}

// Next returns the next n bytes without copying
func (c *Cursor) Next(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, c.short(n)
	}
	b := c.data[c.off : c.off+n : c.off+n]
	c.off += n
	return b, nil
}

// ReadEnvelope reads a 4-byte length followed by that many bytes
func (c *Cursor) ReadEnvelope() ([]byte, error) {
	n, err := c.ReadUint32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(c.Remaining()) {
		return nil, c.short(int(n))
	}
	return c.Next(int(n))
}

func (c *Cursor) short(need int) error {
	return errors.Wrapf(ErrShortBuffer, "need %d bytes at offset %d, have %d", need, c.off, c.Remaining())
}
