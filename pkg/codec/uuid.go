package codec

import (
	"reflect"

	"github.com/google/uuid"
)

// nilUUID is the default for a required UUID field
var nilUUID = uuid.Nil.String()

// UUID encodes a canonical UUID string as 16 bytes in fully reversed order:
// the last byte of the parsed UUID is written first. This is not the
// field-wise RFC 4122 mixed-endian swap.
type UUID struct{}

func (UUID) Kind() Kind              { return KindUUID }
func (UUID) Width() uint32           { return 16 }
func (UUID) ValueType() reflect.Type { return typeString }
func (UUID) Default() any            { return nilUUID }

func (c UUID) Encode(v any, _ uint32) ([]byte, error) {
	s, err := value[string](c, v)
	if err != nil {
		return nil, err
	}
	if s == "" {
		return make([]byte, 16), nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, Errorf(ErrInvalidValue, "uuid %q: %v", s, err)
	}
	out := make([]byte, 16)
	for i := range id {
		out[15-i] = id[i]
	}
	return out, nil
}

// Decode accepts 15 or 16 bytes. A 15 byte payload is read as if the
// final byte were zero.
func (c UUID) Decode(data []byte, _ uint32) Result {
	if len(data) < 15 || len(data) > 16 {
		return Fatal(Errorf(ErrMalformedLength, "uuid needs 16 bytes, got %d", len(data)))
	}
	var id uuid.UUID
	for i, b := range data {
		id[15-i] = b
	}
	return Ok(id.String())
}
