package record

import (
	"reflect"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/ssargent/boconv/pkg/codec"
	"github.com/ssargent/boconv/pkg/schema"
	"github.com/ssargent/boconv/pkg/wire"
)

// Observer is told about every top-level encode and decode
type Observer interface {
	ObserveEncode(typeName string, size int, elapsed time.Duration, err error)
	ObserveDecode(typeName string, size int, elapsed time.Duration, err error)
}

// Option configures a Codec
type Option func(*Codec)

// WithLogger sets the logger used for failed encodes and decodes
func WithLogger(logger *zap.Logger) Option {
	return func(c *Codec) {
		c.logger = logger
	}
}

// WithObserver reports encode and decode outcomes to o
func WithObserver(o Observer) Option {
	return func(c *Codec) {
		c.observer = o
	}
}

// Codec encodes and decodes records using the schemas of a type registry
type Codec struct {
	types     *schema.Registry
	validator *codec.Validator
	logger    *zap.Logger
	observer  Observer
}

// New creates a record codec over types
func New(types *schema.Registry, opts ...Option) *Codec {
	c := &Codec{
		types:     types,
		validator: types.Validator(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Types returns the type registry the codec resolves schemas from
func (c *Codec) Types() *schema.Registry {
	return c.types
}

// Encode writes v, a struct or pointer to struct, as a tag/payload stream
func (c *Codec) Encode(v any) ([]byte, error) {
	start := time.Now()
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, errors.Wrap(codec.ErrInvalidValue, "encode of nil record")
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, errors.Wrap(codec.ErrInvalidValue, "encode of nil record")
		}
		rv = rv.Elem()
	}

	s, err := c.types.For(rv.Type())
	if err != nil {
		return nil, err
	}
	out, err := c.encodeRecord(nil, s, rv)
	c.observeEncode(s, len(out), start, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Decode reads a stream of the record type out points to. out must be a
// non-nil pointer to a struct; it is reset to its zero value first, so
// fields missing from the stream are left zero.
func (c *Codec) Decode(data []byte, out any) error {
	start := time.Now()
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.Wrapf(codec.ErrInvalidValue, "decode target must be a non-nil pointer, got %T", out)
	}
	rv = rv.Elem()

	s, err := c.types.For(rv.Type())
	if err != nil {
		return err
	}
	rv.Set(reflect.Zero(rv.Type()))
	err = c.decodeRecord(data, s, rv)
	c.observeDecode(s, len(data), start, err)
	return err
}

// DecodeAs decodes data into a new T
func DecodeAs[T any](c *Codec, data []byte) (*T, error) {
	out := new(T)
	if err := c.Decode(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeNamed decodes data as the record type registered under name and
// returns a pointer to the new record.
func (c *Codec) DecodeNamed(name string, data []byte) (any, error) {
	out, err := c.types.New(name)
	if err != nil {
		return nil, err
	}
	if err := c.Decode(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Codec) encodeRecord(dst []byte, s *schema.Schema, rv reflect.Value) ([]byte, error) {
	var err error
	for _, f := range s.Fields() {
		fv := rv.FieldByIndex(f.Index)
		absent := f.Nullable() && fv.IsNil()
		if absent && !f.Required {
			continue
		}
		if err = c.check(f); err != nil {
			return nil, fieldError("encode", s, f, err)
		}

		dst = append(dst, f.Tag)
		switch {
		case f.IsRecord():
			var at int
			dst, at = wire.Reserve(dst)
			child := reflect.Zero(f.Child.Type)
			if !absent {
				child = reflect.Indirect(fv)
			}
			if dst, err = c.encodeRecord(dst, f.Child, child); err != nil {
				return nil, err
			}
			wire.Backfill(dst, at, uint32(len(dst)-at-wire.LengthSize))

		case f.IsArray():
			var val any
			if !absent {
				val = fv.Interface()
			}
			if dst, err = c.array(f).Frame(dst, val, f.Width); err != nil {
				return nil, fieldError("encode", s, f, err)
			}

		default:
			val := codec.Indirect(fv)
			if val == nil {
				val = f.Codec.Default()
			}
			payload, err := f.Codec.Encode(val, f.Width)
			if err != nil {
				return nil, fieldError("encode", s, f, err)
			}
			if f.Width == 0 {
				dst = wire.AppendEnvelope(dst, payload)
				continue
			}
			if uint32(len(payload)) != f.Width {
				return nil, fieldError("encode", s, f, codec.Errorf(codec.ErrWidthMismatch,
					"encoded %d bytes, declared %d", len(payload), f.Width))
			}
			dst = append(dst, payload...)
		}
	}
	return dst, nil
}

func (c *Codec) decodeRecord(data []byte, s *schema.Schema, rv reflect.Value) error {
	cur := wire.NewCursor(data)
	for !cur.Done() {
		tag, err := cur.ReadByte()
		if err != nil {
			return recordError("decode", s, codec.Errorf(codec.ErrMalformedLength, "%v", err))
		}
		f, ok := s.Field(tag)
		if !ok {
			return &codec.Error{Op: "decode", Type: s.Name, Tag: int(tag),
				Err: codec.Errorf(codec.ErrUnknownTag, "at offset %d", cur.Offset()-1)}
		}

		var payload []byte
		if f.Enveloped() {
			payload, err = cur.ReadEnvelope()
		} else {
			payload, err = cur.Next(int(f.Width))
		}
		if err != nil {
			return fieldError("decode", s, f, codec.Errorf(codec.ErrMalformedLength, "%v", err))
		}
		if err := c.check(f); err != nil {
			return fieldError("decode", s, f, err)
		}

		fv := rv.FieldByIndex(f.Index)
		if f.IsRecord() {
			child := reflect.New(f.Child.Type)
			if err := c.decodeRecord(payload, f.Child, child.Elem()); err != nil {
				return err
			}
			if fv.Kind() == reflect.Pointer {
				fv.Set(child)
			} else {
				fv.Set(child.Elem())
			}
			continue
		}

		var res codec.Result
		if f.IsArray() {
			res = c.array(f).Decode(payload, f.Width)
		} else {
			res = f.Codec.Decode(payload, f.Width)
		}
		switch res.Status {
		case codec.StatusFatal:
			var cerr *codec.Error
			if errors.As(res.Err, &cerr) {
				return res.Err
			}
			return fieldError("decode", s, f, res.Err)
		case codec.StatusAbsent:
			c.logger.Debug("field decoded as absent",
				zap.String("type", s.Name),
				zap.String("field", f.Name),
				zap.Uint8("tag", f.Tag),
				zap.Int("length", len(payload)))
			fv.Set(reflect.Zero(fv.Type()))
		default:
			if err := codec.Assign(fv, res.Value); err != nil {
				return fieldError("decode", s, f, err)
			}
		}
	}
	return nil
}

// check consults the compatibility table for the field and, for arrays,
// for the element type.
func (c *Codec) check(f *schema.Field) error {
	if err := c.validator.Check(f.Kind, f.Type); err != nil {
		return err
	}
	if f.IsArray() {
		return c.validator.Check(f.Elem, f.ElemType())
	}
	return nil
}

// array returns the array codec of f. Arrays of records get an element
// codec that recurses into this Codec.
func (c *Codec) array(f *schema.Field) *codec.Array {
	if arr, ok := f.Codec.(*codec.Array); ok {
		return arr
	}
	return &codec.Array{
		Elem:     &element{codec: c, schema: f.Child},
		ElemType: f.ElemType(),
		Framed:   f.ElemFramed,
	}
}

func (c *Codec) observeEncode(s *schema.Schema, size int, start time.Time, err error) {
	if err != nil {
		c.logger.Debug("encode failed", zap.String("type", s.Name), zap.Error(err))
	}
	if c.observer != nil {
		c.observer.ObserveEncode(s.Name, size, time.Since(start), err)
	}
}

func (c *Codec) observeDecode(s *schema.Schema, size int, start time.Time, err error) {
	if err != nil {
		c.logger.Debug("decode failed", zap.String("type", s.Name), zap.Int("size", size), zap.Error(err))
	}
	if c.observer != nil {
		c.observer.ObserveDecode(s.Name, size, time.Since(start), err)
	}
}

func fieldError(op string, s *schema.Schema, f *schema.Field, err error) error {
	return &codec.Error{Op: op, Type: s.Name, Field: f.Name, Tag: int(f.Tag), Err: err}
}

func recordError(op string, s *schema.Schema, err error) error {
	return &codec.Error{Op: op, Type: s.Name, Tag: -1, Err: err}
}
