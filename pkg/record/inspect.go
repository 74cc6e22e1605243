package record

import (
	"reflect"

	"github.com/ssargent/boconv/pkg/codec"
	"github.com/ssargent/boconv/pkg/schema"
	"github.com/ssargent/boconv/pkg/wire"
)

// FieldDump describes one tag/payload unit found in a stream
type FieldDump struct {
	Tag      uint8       `json:"tag" yaml:"tag"`
	Field    string      `json:"field" yaml:"field"`
	Kind     string      `json:"kind" yaml:"kind"`
	Offset   int         `json:"offset" yaml:"offset"`
	Length   int         `json:"length" yaml:"length"`
	Value    any         `json:"value,omitempty" yaml:"value,omitempty"`
	Absent   bool        `json:"absent,omitempty" yaml:"absent,omitempty"`
	Children []FieldDump `json:"children,omitempty" yaml:"children,omitempty"`
}

// Inspect walks a stream of record type t and reports every unit in wire
// order. On a malformed stream it returns the units read so far along with
// the error.
func (c *Codec) Inspect(data []byte, t reflect.Type) ([]FieldDump, error) {
	s, err := c.types.For(t)
	if err != nil {
		return nil, err
	}
	return c.inspect(data, s, 0)
}

func (c *Codec) inspect(data []byte, s *schema.Schema, base int) ([]FieldDump, error) {
	var dumps []FieldDump
	cur := wire.NewCursor(data)
	for !cur.Done() {
		offset := base + cur.Offset()
		tag, _ := cur.ReadByte()
		f, ok := s.Field(tag)
		if !ok {
			return dumps, &codec.Error{Op: "inspect", Type: s.Name, Tag: int(tag),
				Err: codec.Errorf(codec.ErrUnknownTag, "at offset %d", offset)}
		}

		var (
			payload []byte
			err     error
		)
		if f.Enveloped() {
			payload, err = cur.ReadEnvelope()
		} else {
			payload, err = cur.Next(int(f.Width))
		}
		if err != nil {
			return dumps, fieldError("inspect", s, f, codec.Errorf(codec.ErrMalformedLength, "%v", err))
		}

		d := FieldDump{
			Tag:    tag,
			Field:  f.Name,
			Kind:   c.types.Codecs().Name(f.Kind),
			Offset: offset,
			Length: len(payload),
		}
		if f.IsArray() {
			d.Kind += "<" + c.types.Codecs().Name(f.Elem) + ">"
		}

		if f.IsRecord() {
			payloadAt := base + cur.Offset() - len(payload)
			d.Children, err = c.inspect(payload, f.Child, payloadAt)
			dumps = append(dumps, d)
			if err != nil {
				return dumps, err
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
			return dumps, fieldError("inspect", s, f, res.Err)
		case codec.StatusAbsent:
			d.Absent = true
		default:
			d.Value = res.Value
		}
		dumps = append(dumps, d)
	}
	return dumps, nil
}
