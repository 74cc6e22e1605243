package schema

import (
	"fmt"
	"reflect"

	"github.com/ssargent/boconv/pkg/codec"
)

// Field describes one record field. Fields are built at registration and
// never modified afterwards.
type Field struct {
	Tag      uint8
	Kind     codec.Kind
	Width    uint32 // per element for arrays; 0 means self-describing
	Required bool

	// Elem is the element codec of an array field
	Elem codec.Kind
	// ElemFramed marks array elements that carry their own length word.
	// It is set when Width is 0 and read by both encode and decode.
	ElemFramed bool

	Name  string
	Index []int
	Type  reflect.Type

	// Codec is the scalar codec, or the *codec.Array of a scalar array.
	// It is nil for records and arrays of records.
	Codec codec.Codec
	// Child is the schema of a nested record or of array elements
	Child *Schema
}

// IsArray reports whether the field holds a sequence
func (f *Field) IsArray() bool {
	return f.Kind == codec.KindArray
}

// IsRecord reports whether the field is a nested record
func (f *Field) IsRecord() bool {
	return f.Kind == codec.KindRecord
}

// Enveloped reports whether the payload on the wire starts with a length word
func (f *Field) Enveloped() bool {
	return f.Width == 0 || f.Kind.IsContainer()
}

// ElemType returns the Go element type of an array field
func (f *Field) ElemType() reflect.Type {
	if f.Type.Kind() == reflect.Slice {
		return f.Type.Elem()
	}
	return nil
}

// Nullable reports whether the field can hold an absent value
func (f *Field) Nullable() bool {
	switch f.Type.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Interface:
		return true
	}
	return false
}

func (f *Field) String() string {
	s := fmt.Sprintf("0x%02x %s %s", f.Tag, f.Name, f.Kind)
	if f.IsArray() {
		s += fmt.Sprintf("<%s>", f.Elem)
	}
	if f.Width != 0 {
		s += fmt.Sprintf(" width=%d", f.Width)
	}
	if f.Required {
		s += " required"
	}
	return s
}
