package record

import (
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/ssargent/boconv/pkg/codec"
	"github.com/ssargent/boconv/pkg/schema"
)

// element adapts a nested record schema to codec.Codec so the array codec
// can carry records as elements.
type element struct {
	codec  *Codec
	schema *schema.Schema
}

func (e *element) Kind() codec.Kind        { return codec.KindRecord }
func (e *element) Width() uint32           { return 0 }
func (e *element) ValueType() reflect.Type { return e.schema.Type }
func (e *element) Default() any            { return reflect.Zero(e.schema.Type).Interface() }

func (e *element) Encode(v any, _ uint32) ([]byte, error) {
	rv := reflect.Zero(e.schema.Type)
	if v != nil {
		rv = reflect.Indirect(reflect.ValueOf(v))
	}
	if rv.Type() != e.schema.Type {
		return nil, errors.Wrapf(codec.ErrIncompatible, "element of type %s in array of %s", rv.Type(), e.schema.Type)
	}
	return e.codec.encodeRecord(nil, e.schema, rv)
}

func (e *element) Decode(data []byte, _ uint32) codec.Result {
	out := reflect.New(e.schema.Type).Elem()
	if err := e.codec.decodeRecord(data, e.schema, out); err != nil {
		return codec.Fatal(err)
	}
	return codec.Ok(out.Interface())
}
