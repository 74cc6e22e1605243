package schema

import (
	"reflect"
)

// Schema is the ordered field list of one record type. It is safe for
// concurrent use.
type Schema struct {
	Name string
	Type reflect.Type

	fields []*Field
	byTag  [256]*Field
}

// Fields returns the fields in declaration order. The slice must not be
// modified.
func (s *Schema) Fields() []*Field {
	return s.fields
}

// Len returns the number of fields
func (s *Schema) Len() int {
	return len(s.fields)
}

// Field looks up a field by wire tag
func (s *Schema) Field(tag uint8) (*Field, bool) {
	f := s.byTag[tag]
	return f, f != nil
}

// FieldByName looks up a field by Go struct field name
func (s *Schema) FieldByName(name string) (*Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// New returns a pointer to a new zero value of the record type
func (s *Schema) New() any {
	return reflect.New(s.Type).Interface()
}
