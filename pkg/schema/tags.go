package schema

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/ssargent/boconv/pkg/codec"
)

// TagName is the struct tag key read by the registry
const TagName = "bo"

// decl is one field declaration before it is resolved against the codec
// registry and the Go type.
type decl struct {
	field    string
	tag      uint8
	codec    string
	width    uint32
	hasWidth bool
	required bool
	elem     string
}

// parseTags reads the `bo` struct tags of t in field order. Fields without
// a tag, or tagged "-", are not part of the schema.
func parseTags(t reflect.Type) ([]decl, error) {
	var decls []decl
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		raw, ok := sf.Tag.Lookup(TagName)
		if !ok || raw == "-" {
			continue
		}
		d, err := parseTag(raw)
		if err != nil {
			return nil, &codec.Error{Op: "register", Type: t.Name(), Field: sf.Name, Tag: -1, Err: err}
		}
		d.field = sf.Name
		decls = append(decls, d)
	}
	return decls, nil
}

func parseTag(raw string) (decl, error) {
	var d decl
	parts := strings.Split(raw, ",")
	if len(parts) < 2 {
		return d, codec.Errorf(codec.ErrUnsupportedType, "tag %q needs a wire tag and a codec", raw)
	}

	tag, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 0, 8)
	if err != nil {
		return d, codec.Errorf(codec.ErrInvalidValue, "wire tag %q: %v", parts[0], err)
	}
	d.tag = uint8(tag)
	d.codec = strings.TrimSpace(parts[1])

	for _, opt := range parts[2:] {
		key, val, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch key {
		case "required":
			d.required = true
		case "width":
			w, err := strconv.ParseUint(val, 0, 32)
			if err != nil {
				return d, codec.Errorf(codec.ErrInvalidValue, "width %q: %v", val, err)
			}
			d.width = uint32(w)
			d.hasWidth = true
		case "elem":
			d.elem = val
		case "":
		default:
			return d, codec.Errorf(codec.ErrInvalidValue, "unknown option %q", key)
		}
	}
	return d, nil
}
