package codec

import (
	"encoding/binary"
	"math"
	"math/bits"
	"reflect"
	"strings"
)

// EpochOffsetMillis is 1990-01-01T00:00:00Z in Unix milliseconds. Timestamps
// are stored as whole seconds since this instant.
const EpochOffsetMillis int64 = 631152000000

// TimestampMode selects how the timestamp encoder lays out the seconds count
type TimestampMode uint8

const (
	// TimestampModeLegacy reproduces the historical encoder: seconds that
	// need fewer than 8 hex digits are shifted left by the missing nibbles
	// before being written. Existing data was written this way.
	TimestampModeLegacy TimestampMode = iota
	// TimestampModeCorrected writes the seconds count as a plain LE uint32
	TimestampModeCorrected
)

func (m TimestampMode) String() string {
	if m == TimestampModeCorrected {
		return "corrected"
	}
	return "legacy"
}

// ParseTimestampMode resolves a configuration value. The empty string
// selects legacy mode.
func ParseTimestampMode(s string) (TimestampMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "legacy":
		return TimestampModeLegacy, nil
	case "corrected":
		return TimestampModeCorrected, nil
	}
	return TimestampModeLegacy, Errorf(ErrInvalidValue, "unknown timestamp mode %q", s)
}

// Timestamp encodes epoch milliseconds as a 4 byte seconds count relative
// to EpochOffsetMillis. Zero, and anything at or before the offset, is
// written as four zero bytes and reads back as 0.
//
// Both modes share one decoder, so legacy-encoded values before roughly
// 1998 do not round trip.
type Timestamp struct {
	Mode TimestampMode
	kind Kind
}

// NewTimestamp returns the timestamp codec for the given encoder mode
func NewTimestamp(mode TimestampMode) Timestamp {
	return Timestamp{Mode: mode, kind: KindTimestamp}
}

// NewLegacyTimestamp returns a codec that always uses the legacy encoder,
// whatever the registry's default mode is.
func NewLegacyTimestamp() Timestamp {
	return Timestamp{Mode: TimestampModeLegacy, kind: KindTimestampLegacy}
}

func (t Timestamp) Kind() Kind {
	if t.kind == KindInvalid {
		return KindTimestamp
	}
	return t.kind
}

func (Timestamp) Width() uint32           { return 4 }
func (Timestamp) ValueType() reflect.Type { return typeInt64 }
func (Timestamp) Default() any            { return int64(0) }

func (t Timestamp) Encode(v any, _ uint32) ([]byte, error) {
	ms, err := value[int64](t, v)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 4)
	if ms <= EpochOffsetMillis {
		return out, nil
	}
	secs := (ms - EpochOffsetMillis) / 1000
	if secs > math.MaxUint32 {
		return out, nil
	}
	s := uint32(secs)
	if t.Mode == TimestampModeLegacy {
		s = legacyPad(s)
	}
	binary.LittleEndian.PutUint32(out, s)
	return out, nil
}

func (t Timestamp) Decode(data []byte, _ uint32) Result {
	if err := exact(t, data); err != nil {
		return Fatal(err)
	}
	secs := binary.LittleEndian.Uint32(data)
	if secs == 0 {
		return Ok(int64(0))
	}
	return Ok(int64(secs)*1000 + EpochOffsetMillis)
}

// legacyPad mirrors right-padding the hex form of s with '0' to 8 digits,
// which multiplies s by 16 for every missing digit.
func legacyPad(s uint32) uint32 {
	if s == 0 {
		return 0
	}
	digits := (bits.Len32(s) + 3) / 4
	return s << (4 * (8 - digits))
}
