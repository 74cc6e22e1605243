package frame

import (
	"encoding/binary"
	"hash/crc32"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/ksuid"
)

// HeaderSize is the fixed part of an encoded frame:
// CRC32(4) TypeSize(4) PayloadSize(4) RawSize(4) Timestamp(8) Flags(1) ID(20)
const HeaderSize = 45

// FlagTombstone marks a frame that deletes the object with its ID
const FlagTombstone uint8 = 0x80

const compressionMask uint8 = 0x0f

// MaxBodySize bounds the type name plus the record bytes of one frame.
// Readers treat a larger header as corruption.
const MaxBodySize = 256 << 20

var (
	// ErrCorrupt is returned when a frame fails its CRC check
	ErrCorrupt = errors.New("frame checksum mismatch")
	// ErrTruncated is returned when the buffer is shorter than the frame
	ErrTruncated = errors.New("frame truncated")
	// ErrTooLarge is returned by New for a body over MaxBodySize
	ErrTooLarge = errors.New("frame too large")
)

// Frame is one stored object: an encoded record plus the metadata needed
// to find and decode it again.
type Frame struct {
	CRC32       uint32
	TypeSize    uint32
	PayloadSize uint32 // stored bytes, after compression
	RawSize     uint32 // encoded record bytes, before compression
	Timestamp   uint64 // Unix nanoseconds
	Flags       uint8
	ID          ksuid.KSUID
	Type        string
	Payload     []byte // stored bytes
}

// Compression returns the algorithm the payload is stored with
func (f *Frame) Compression() Compression {
	return Compression(f.Flags & compressionMask)
}

// IsTombstone reports whether the frame deletes its object
func (f *Frame) IsTombstone() bool {
	return f.Flags&FlagTombstone != 0
}

// Size returns the encoded size of the frame
func (f *Frame) Size() int {
	return HeaderSize + len(f.Type) + len(f.Payload)
}

// Time returns the frame timestamp
func (f *Frame) Time() time.Time {
	return time.Unix(0, int64(f.Timestamp))
}

// Validate checks the frame against its CRC32
func (f *Frame) Validate() error {
	if sum := f.checksum(); f.CRC32 != sum {
		return errors.Wrapf(ErrCorrupt, "%08x != %08x", f.CRC32, sum)
	}
	return nil
}

// checksum covers every field after the CRC itself
func (f *Frame) checksum() uint32 {
	var hdr [HeaderSize - 4]byte
	f.putHeader(hdr[:])
	crc := crc32.NewIEEE()
	_, _ = crc.Write(hdr[:])
	_, _ = crc.Write([]byte(f.Type))
	_, _ = crc.Write(f.Payload)
	return crc.Sum32()
}

// putHeader writes the header without the CRC into b
func (f *Frame) putHeader(b []byte) {
	binary.LittleEndian.PutUint32(b[0:], f.TypeSize)
	binary.LittleEndian.PutUint32(b[4:], f.PayloadSize)
	binary.LittleEndian.PutUint32(b[8:], f.RawSize)
	binary.LittleEndian.PutUint64(b[12:], f.Timestamp)
	b[20] = f.Flags
	copy(b[21:], f.ID[:])
}

// Codec builds and parses frames. It is safe for concurrent use.
type Codec struct {
	compression Compression
	now         func() time.Time
}

// NewCodec returns a codec that compresses new payloads with c
func NewCodec(c Compression) *Codec {
	return &Codec{compression: c, now: time.Now}
}

// Compression returns the algorithm used for new frames
func (c *Codec) Compression() Compression {
	return c.compression
}

// New builds a frame around an encoded record. A payload that does not
// shrink under compression is stored as is.
func (c *Codec) New(id ksuid.KSUID, typeName string, payload []byte) (*Frame, error) {
	if size := uint64(len(typeName)) + uint64(len(payload)); size > MaxBodySize {
		return nil, errors.Wrapf(ErrTooLarge, "body of %d bytes exceeds %d", size, uint64(MaxBodySize))
	}
	flags := uint8(CompressionNone)
	stored := payload
	if c.compression != CompressionNone && len(payload) > 0 {
		out, err := compress(payload, c.compression)
		switch {
		case err == nil:
			stored = out
			flags = uint8(c.compression)
		case !errors.Is(err, errIncompressible):
			return nil, err
		}
	}

	f := &Frame{
		TypeSize:    uint32(len(typeName)),
		PayloadSize: uint32(len(stored)),
		RawSize:     uint32(len(payload)),
		Timestamp:   uint64(c.now().UnixNano()),
		Flags:       flags,
		ID:          id,
		Type:        typeName,
		Payload:     stored,
	}
	f.CRC32 = f.checksum()
	return f, nil
}

// Tombstone builds a frame recording the deletion of id
func (c *Codec) Tombstone(id ksuid.KSUID, typeName string) *Frame {
	f := &Frame{
		TypeSize:  uint32(len(typeName)),
		Timestamp: uint64(c.now().UnixNano()),
		Flags:     FlagTombstone,
		ID:        id,
		Type:      typeName,
	}
	f.CRC32 = f.checksum()
	return f
}

// Encode builds a frame and returns its bytes
func (c *Codec) Encode(id ksuid.KSUID, typeName string, payload []byte) ([]byte, error) {
	f, err := c.New(id, typeName, payload)
	if err != nil {
		return nil, err
	}
	return Marshal(f), nil
}

// Marshal writes f in its binary form
func Marshal(f *Frame) []byte {
	buf := make([]byte, f.Size())
	binary.LittleEndian.PutUint32(buf[0:], f.CRC32)
	f.putHeader(buf[4:HeaderSize])
	copy(buf[HeaderSize:], f.Type)
	copy(buf[HeaderSize+len(f.Type):], f.Payload)
	return buf
}

// Decode parses one frame from the start of data. The returned frame
// references data; it is not validated.
func (c *Codec) Decode(data []byte) (*Frame, error) {
	return Unmarshal(data)
}

// Unmarshal parses one frame from the start of data
func Unmarshal(data []byte) (*Frame, error) {
	if len(data) < HeaderSize {
		return nil, errors.Wrapf(ErrTruncated, "%d bytes, header needs %d", len(data), HeaderSize)
	}
	f := &Frame{
		CRC32:       binary.LittleEndian.Uint32(data[0:]),
		TypeSize:    binary.LittleEndian.Uint32(data[4:]),
		PayloadSize: binary.LittleEndian.Uint32(data[8:]),
		RawSize:     binary.LittleEndian.Uint32(data[12:]),
		Timestamp:   binary.LittleEndian.Uint64(data[16:]),
		Flags:       data[24],
	}
	copy(f.ID[:], data[25:HeaderSize])

	end := uint64(HeaderSize) + uint64(f.TypeSize) + uint64(f.PayloadSize)
	if uint64(len(data)) < end {
		return nil, errors.Wrapf(ErrTruncated, "%d bytes, frame needs %d", len(data), end)
	}
	typeEnd := HeaderSize + int(f.TypeSize)
	f.Type = string(data[HeaderSize:typeEnd])
	f.Payload = data[typeEnd:int(end)]
	return f, nil
}

// Record returns the encoded record held by f, decompressing if needed.
// A tombstone holds no record.
func (f *Frame) Record() ([]byte, error) {
	if f.IsTombstone() {
		return nil, nil
	}
	return decompress(f.Payload, f.Compression(), int(f.RawSize))
}
