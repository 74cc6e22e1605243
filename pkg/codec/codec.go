package codec

import (
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/ssargent/boconv/pkg/wire"
)

// Codec converts one kind of value to and from its wire payload.
//
// Encode returns the payload only. Framing a self-describing value with its
// length word is the caller's job (see Serialize), so the same codec can
// serve both a record field and an array element. Decode receives exactly the
// payload bytes. Implementations are stateless and safe for concurrent use.
type Codec interface {
	Kind() Kind
	// Width is the natural payload width; 0 means self-describing
	Width() uint32
	// ValueType is the only Go type this codec operates on
	ValueType() reflect.Type
	// Default is encoded for a required field whose value is absent
	Default() any
	Encode(v any, width uint32) ([]byte, error)
	Decode(data []byte, width uint32) Result
}

// Serialize encodes v and, when width is 0, prefixes the payload with its
// own 4-byte little-endian length.
func Serialize(c Codec, v any, width uint32) ([]byte, error) {
	payload, err := c.Encode(v, width)
	if err != nil {
		return nil, err
	}
	if width == 0 {
		return wire.Envelope(payload), nil
	}
	return payload, nil
}

// Deserialize is the inverse of Serialize. The whole buffer must be consumed.
func Deserialize(c Codec, data []byte, width uint32) Result {
	if width == 0 {
		cur := wire.NewCursor(data)
		payload, err := cur.ReadEnvelope()
		if err != nil {
			return Fatal(errors.Wrapf(ErrMalformedLength, "%v", err))
		}
		if !cur.Done() {
			return Fatal(Errorf(ErrMalformedLength, "%d trailing bytes after %s payload", cur.Remaining(), c.Kind()))
		}
		data = payload
	}
	return c.Decode(data, width)
}

// Indirect returns the value held by rv, following one pointer. A nil
// pointer, slice or interface yields nil, which codecs encode as their
// default value.
func Indirect(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
	case reflect.Invalid:
		return nil
	}
	return rv.Interface()
}

// Assign stores v into dst, allocating when dst is a pointer to the value's
// type. A nil v resets dst to its zero value.
func Assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	src := reflect.ValueOf(v)
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}
	if dst.Kind() == reflect.Pointer && src.Type().AssignableTo(dst.Type().Elem()) {
		p := reflect.New(dst.Type().Elem())
		p.Elem().Set(src)
		dst.Set(p)
		return nil
	}
	return Errorf(ErrIncompatible, "cannot assign %s to %s", src.Type(), dst.Type())
}

// value extracts a T from v, substituting the codec default for nil
func value[T any](c Codec, v any) (T, error) {
	if v == nil {
		return c.Default().(T), nil
	}
	switch t := v.(type) {
	case T:
		return t, nil
	case *T:
		if t == nil {
			return c.Default().(T), nil
		}
		return *t, nil
	}
	var zero T
	return zero, Errorf(ErrIncompatible, "%s codec cannot encode %T", c.Kind(), v)
}

// exact checks that a fixed-width payload has the codec's natural width
func exact(c Codec, data []byte) error {
	if uint32(len(data)) != c.Width() {
		return Errorf(ErrMalformedLength, "%s needs %d bytes, got %d", c.Kind(), c.Width(), len(data))
	}
	return nil
}
