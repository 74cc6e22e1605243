package codec

import (
	"reflect"

	"github.com/ssargent/boconv/pkg/wire"
)

// Array wraps an element codec. The declared width passed to Encode, Frame
// and Decode is the per-element width.
//
// When Framed is set every element is written as [len:u32][payload] and the
// declared width must be 0. Otherwise every element is exactly width bytes
// and width must be nonzero.
type Array struct {
	Elem Codec
	// ElemType is the Go element type of the slice, defaults to
	// Elem.ValueType(). It may be a pointer to that type.
	ElemType reflect.Type
	Framed   bool
}

// NewArray builds an array codec whose framing follows the declared element
// width: width 0 means framed elements.
func NewArray(elem Codec, elemType reflect.Type, width uint32) *Array {
	return &Array{Elem: elem, ElemType: elemType, Framed: width == 0}
}

func (a *Array) Kind() Kind    { return KindArray }
func (a *Array) Width() uint32 { return 0 }

func (a *Array) elemType() reflect.Type {
	if a.ElemType != nil {
		return a.ElemType
	}
	return a.Elem.ValueType()
}

func (a *Array) ValueType() reflect.Type { return reflect.SliceOf(a.elemType()) }

// Default is an empty slice, which encodes as a zero prefix
func (a *Array) Default() any {
	return reflect.MakeSlice(a.ValueType(), 0, 0).Interface()
}

func (a *Array) check(width uint32) error {
	if a.Framed && width != 0 {
		return Errorf(ErrWidthMismatch, "framed %s elements declared with width %d", a.Elem.Kind(), width)
	}
	if !a.Framed && width == 0 {
		return Errorf(ErrWidthMismatch, "unframed %s elements need a nonzero width", a.Elem.Kind())
	}
	return nil
}

// Encode returns the concatenated element encodings without the array prefix
func (a *Array) Encode(v any, width uint32) ([]byte, error) {
	out, _, err := a.appendElems(nil, v, width)
	return out, err
}

// Frame appends [prefix:u32][elements] to dst. The prefix is count×width for
// fixed-width elements and the payload byte count for framed ones.
func (a *Array) Frame(dst []byte, v any, width uint32) ([]byte, error) {
	dst, at := wire.Reserve(dst)
	dst, n, err := a.appendElems(dst, v, width)
	if err != nil {
		return nil, err
	}
	prefix := uint32(len(dst) - at - wire.LengthSize)
	if width != 0 {
		prefix = uint32(n) * width
	}
	wire.Backfill(dst, at, prefix)
	return dst, nil
}

func (a *Array) appendElems(dst []byte, v any, width uint32) ([]byte, int, error) {
	if err := a.check(width); err != nil {
		return nil, 0, err
	}
	if v == nil {
		return dst, 0, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return dst, 0, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, 0, Errorf(ErrIncompatible, "array codec cannot encode %T", v)
	}
	n := rv.Len()
	for i := 0; i < n; i++ {
		payload, err := a.Elem.Encode(Indirect(rv.Index(i)), width)
		if err != nil {
			return nil, 0, Errorf(err, "element %d", i)
		}
		if a.Framed {
			dst = wire.AppendEnvelope(dst, payload)
			continue
		}
		if uint32(len(payload)) != width {
			return nil, 0, Errorf(ErrWidthMismatch, "element %d encoded to %d bytes, want %d", i, len(payload), width)
		}
		dst = append(dst, payload...)
	}
	return dst, n, nil
}

// Decode reads elements until data is exhausted. data is the array payload
// without its prefix. An Absent element becomes the element zero value.
func (a *Array) Decode(data []byte, width uint32) Result {
	if err := a.check(width); err != nil {
		return Fatal(err)
	}
	et := a.elemType()
	out := reflect.MakeSlice(reflect.SliceOf(et), 0, 0)
	cur := wire.NewCursor(data)
	for !cur.Done() {
		var (
			chunk []byte
			err   error
		)
		if a.Framed {
			chunk, err = cur.ReadEnvelope()
		} else {
			chunk, err = cur.Next(int(width))
		}
		if err != nil {
			return Fatal(Errorf(ErrMalformedLength, "element %d: %v", out.Len(), err))
		}
		res := a.Elem.Decode(chunk, width)
		elem := reflect.New(et).Elem()
		switch res.Status {
		case StatusFatal:
			return Fatal(Errorf(res.Err, "element %d", out.Len()))
		case StatusOK:
			if err := Assign(elem, res.Value); err != nil {
				return Fatal(err)
			}
		}
		out = reflect.Append(out, elem)
	}
	return Ok(out.Interface())
}
