// Package frame provides the persistence envelope for encoded records.
//
// A frame wraps one encoded record with the name of its record type, a
// KSUID object id, a timestamp and an optional compressed form of the
// payload. Frames are what the object log and the keyed storage write.
//
// # Frame Format
//
//	[CRC32(4)][TypeSize(4)][PayloadSize(4)][RawSize(4)][Timestamp(8)][Flags(1)][ID(20)][Type][Payload]
//
// Fields:
//   - CRC32: IEEE checksum of every byte after it (little-endian)
//   - TypeSize: length of the record type name
//   - PayloadSize: length of the stored payload
//   - RawSize: length of the encoded record before compression
//   - Timestamp: Unix nanoseconds (little-endian)
//   - Flags: compression in the low 4 bits, bit 7 marks a tombstone
//   - ID: 20-byte KSUID
//
// The header is 45 bytes.
//
// # Compression
//
// New frames are compressed with the codec's algorithm (none, lz4 or zstd).
// When the compressed form is not smaller than the record it is stored
// uncompressed and the flags say so, so readers never need to know the
// writer's setting.
//
// # Usage
//
//	fc := frame.NewCodec(frame.CompressionZstd)
//
//	data, err := fc.Encode(ksuid.New(), "Food", encoded)
//	if err != nil {
//	    return err
//	}
//
//	f, err := frame.Unmarshal(data)
//	if err != nil {
//	    return err
//	}
//	if err := f.Validate(); err != nil {
//	    return err // corrupted
//	}
//	encoded, err = f.Record()
package frame
