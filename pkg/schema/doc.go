// Package schema turns Go struct types into the immutable field descriptor
// lists that drive the record codec.
//
// A record type declares its fields either with `bo` struct tags:
//
//	type Area struct {
//		Name  *string  `bo:"0x88,string"`
//		Value *float64 `bo:"0x89,double,required"`
//	}
//
// or programmatically with a Builder keyed on struct field names. The tag
// value is a comma separated list: the wire tag (decimal or 0x hex), the
// codec name, then any of width=N, required and elem=<codec>.
//
// A field whose Go type is a pointer or slice is absent when nil. Any other
// field is always present.
package schema
