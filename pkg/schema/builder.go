package schema

import (
	"reflect"
)

// FieldOption adjusts a field declared with Builder.Field
type FieldOption func(*decl)

// Width sets the declared byte width. For arrays it is the element width.
func Width(n uint32) FieldOption {
	return func(d *decl) {
		d.width = n
		d.hasWidth = true
	}
}

// Required encodes the codec default when the field is absent
func Required() FieldOption {
	return func(d *decl) {
		d.required = true
	}
}

// Elem sets the element codec of an array field
func Elem(codecName string) FieldOption {
	return func(d *decl) {
		d.elem = codecName
	}
}

// Builder declares a schema in code, for types that cannot carry struct
// tags. Fields are kept in the order they are declared.
type Builder struct {
	typ   reflect.Type
	decls []decl
}

// NewBuilder starts a schema for the struct type of v (a value or pointer)
func NewBuilder(v any) *Builder {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return &Builder{typ: t}
}

// Field binds the struct field named name to a wire tag and codec
func (b *Builder) Field(name string, tag uint8, codecName string, opts ...FieldOption) *Builder {
	d := decl{field: name, tag: tag, codec: codecName}
	for _, opt := range opts {
		opt(&d)
	}
	b.decls = append(b.decls, d)
	return b
}

// Type returns the record type being declared
func (b *Builder) Type() reflect.Type {
	return b.typ
}
