package codec

import (
	"bytes"
	"reflect"
	"strings"
	"unicode/utf8"
)

// String encodes UTF-8 text. With width 0 the payload is the raw bytes and
// the caller envelopes it. With a fixed width the payload is exactly width
// bytes, padded with NUL, so text holding a NUL only encodes at width 0.
type String struct{}

func (String) Kind() Kind              { return KindString }
func (String) Width() uint32           { return 0 }
func (String) ValueType() reflect.Type { return typeString }
func (String) Default() any            { return "" }

func (c String) Encode(v any, width uint32) ([]byte, error) {
	s, err := value[string](c, v)
	if err != nil {
		return nil, err
	}
	if !utf8.ValidString(s) {
		return nil, Errorf(ErrInvalidValue, "string is not valid UTF-8")
	}
	if width == 0 {
		return []byte(s), nil
	}
	if strings.IndexByte(s, 0) >= 0 {
		return nil, Errorf(ErrInvalidValue, "fixed-width string holds a NUL byte")
	}
	if uint32(len(s)) > width {
		return nil, Errorf(ErrInvalidValue, "string of %d bytes exceeds width %d", len(s), width)
	}
	out := make([]byte, width)
	copy(out, s)
	return out, nil
}

// Decode returns Absent, not an error, when a fixed-width payload has the
// wrong length.
func (String) Decode(data []byte, width uint32) Result {
	if width == 0 {
		return Ok(string(data))
	}
	if uint32(len(data)) != width {
		return Absent()
	}
	return Ok(string(bytes.TrimRight(data, "\x00")))
}
