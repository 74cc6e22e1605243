package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope(t *testing.T) {
	out := Envelope([]byte("Hello"))

	require.Len(t, out, LengthSize+5)
	assert.Equal(t, []byte{0x05, 0x00, 0x00, 0x00}, out[:4])
	assert.Equal(t, "Hello", string(out[4:]))
}

func TestReserveBackfill(t *testing.T) {
	buf, at := Reserve([]byte{0xAA})
	buf = append(buf, 1, 2, 3)
	Backfill(buf, at, 3)

	assert.Equal(t, []byte{0xAA, 0x03, 0x00, 0x00, 0x00, 1, 2, 3}, buf)
}

func TestCursor(t *testing.T) {
	data := []byte{0x01, 0x02, 0x00, 0x00, 0x00, 'h', 'i', 0x07}
	c := NewCursor(data)

	b, err := c.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), b)

	payload, err := c.ReadEnvelope()
	require.NoError(t, err)
	assert.Equal(t, "hi", string(payload))
	assert.Equal(t, 7, c.Offset())
	assert.Equal(t, 1, c.Remaining())

	rest, err := c.Next(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x07}, rest)
	assert.True(t, c.Done())
}

func TestCursor_ShortBuffer(t *testing.T) {
	t.Run("byte past end", func(t *testing.T) {
		_, err := NewCursor(nil).ReadByte()
		assert.ErrorIs(t, err, ErrShortBuffer)
	})

	t.Run("truncated length word", func(t *testing.T) {
		_, err := NewCursor([]byte{0x01, 0x00}).ReadUint32()
		assert.ErrorIs(t, err, ErrShortBuffer)
	})

	t.Run("envelope longer than buffer", func(t *testing.T) {
		c := NewCursor([]byte{0xFF, 0xFF, 0xFF, 0x7F, 0x00})
		_, err := c.ReadEnvelope()
		assert.ErrorIs(t, err, ErrShortBuffer)
	})

	t.Run("negative length", func(t *testing.T) {
		_, err := NewCursor([]byte{1}).Next(-1)
		assert.ErrorIs(t, err, ErrShortBuffer)
	})
}
