package schema

import (
	"reflect"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/ssargent/boconv/pkg/codec"
)

// Registry builds and caches the schema of every record type. Schemas are
// built on first use and read-only afterwards.
type Registry struct {
	codecs *codec.Registry

	mu       sync.RWMutex
	byType   map[reflect.Type]*Schema
	byName   map[string]*Schema
	builders map[reflect.Type]*Builder
}

// NewRegistry creates a type registry resolving codec names against codecs
func NewRegistry(codecs *codec.Registry) *Registry {
	if codecs == nil {
		codecs = codec.NewRegistry()
	}
	return &Registry{
		codecs:   codecs,
		byType:   make(map[reflect.Type]*Schema),
		byName:   make(map[string]*Schema),
		builders: make(map[reflect.Type]*Builder),
	}
}

// Codecs returns the codec registry used to resolve field codecs
func (r *Registry) Codecs() *codec.Registry {
	return r.codecs
}

// Validator returns the compatibility table consulted by the record codec
func (r *Registry) Validator() *codec.Validator {
	return r.codecs.Validator()
}

// Register builds the schema of v's struct type from its struct tags and
// makes it available under the type name.
func (r *Registry) Register(v any) (*Schema, error) {
	t, err := structType(reflect.TypeOf(v))
	if err != nil {
		return nil, err
	}
	return r.RegisterNamed(t.Name(), v)
}

// RegisterNamed is Register with an explicit lookup name
func (r *Registry) RegisterNamed(name string, v any) (*Schema, error) {
	t, err := structType(reflect.TypeOf(v))
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.build(t, map[reflect.Type]bool{})
	if err != nil {
		return nil, err
	}
	return s, r.name(name, s)
}

// Define registers a schema declared with a Builder under name. Nested
// record fields of other types are resolved the usual way.
func (r *Registry) Define(name string, b *Builder) (*Schema, error) {
	t, err := structType(b.typ)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byType[t]; ok {
		return nil, &codec.Error{Op: "register", Type: t.Name(), Tag: -1,
			Err: codec.Errorf(codec.ErrInvalidValue, "schema already built")}
	}
	r.builders[t] = b
	s, err := r.build(t, map[reflect.Type]bool{})
	if err != nil {
		delete(r.builders, t)
		return nil, err
	}
	return s, r.name(name, s)
}

func (r *Registry) name(name string, s *Schema) error {
	if name == "" {
		return nil
	}
	if existing, ok := r.byName[name]; ok && existing != s {
		return &codec.Error{Op: "register", Type: name, Tag: -1,
			Err: codec.Errorf(codec.ErrInvalidValue, "name already bound to %s", existing.Type)}
	}
	r.byName[name] = s
	if s.Name == "" || s.Name == s.Type.Name() {
		s.Name = name
	}
	return nil
}

// For returns the schema of t, building it from struct tags when needed
func (r *Registry) For(t reflect.Type) (*Schema, error) {
	t, err := structType(t)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	s, ok := r.byType[t]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.build(t, map[reflect.Type]bool{})
}

// Lookup returns the schema registered under name
func (r *Registry) Lookup(name string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	return s, ok
}

// New returns a pointer to a new zero record of the named type
func (r *Registry) New(name string) (any, error) {
	s, ok := r.Lookup(name)
	if !ok {
		return nil, errors.Wrapf(codec.ErrUnsupportedType, "no record type named %q", name)
	}
	return s.New(), nil
}

// Names returns the registered type names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// build must be called with mu held. visiting holds the types whose schema
// is being built further up the stack.
func (r *Registry) build(t reflect.Type, visiting map[reflect.Type]bool) (*Schema, error) {
	if s, ok := r.byType[t]; ok {
		return s, nil
	}
	if visiting[t] {
		return nil, &codec.Error{Op: "register", Type: t.Name(), Tag: -1,
			Err: codec.Errorf(codec.ErrCyclicSchema, "%s", t)}
	}
	visiting[t] = true
	defer delete(visiting, t)

	var decls []decl
	if b, ok := r.builders[t]; ok {
		decls = b.decls
	} else {
		var err error
		if decls, err = parseTags(t); err != nil {
			return nil, err
		}
	}

	s := &Schema{Name: t.Name(), Type: t, fields: make([]*Field, 0, len(decls))}
	for _, d := range decls {
		f, err := r.compile(t, d, visiting)
		if err != nil {
			var cerr *codec.Error
			if errors.As(err, &cerr) {
				return nil, err
			}
			return nil, &codec.Error{Op: "register", Type: t.Name(), Field: d.field, Tag: int(d.tag), Err: err}
		}
		if prev := s.byTag[f.Tag]; prev != nil {
			return nil, &codec.Error{Op: "register", Type: t.Name(), Field: f.Name, Tag: int(f.Tag),
				Err: codec.Errorf(codec.ErrDuplicateTag, "already used by %s", prev.Name)}
		}
		s.byTag[f.Tag] = f
		s.fields = append(s.fields, f)
	}

	r.byType[t] = s
	return s, nil
}

func (r *Registry) compile(t reflect.Type, d decl, visiting map[reflect.Type]bool) (*Field, error) {
	sf, ok := t.FieldByName(d.field)
	if !ok {
		return nil, codec.Errorf(codec.ErrMissingFieldMapping, "%s has no field %s", t, d.field)
	}
	if !sf.IsExported() {
		return nil, codec.Errorf(codec.ErrMissingFieldMapping, "field %s is not exported", d.field)
	}
	kind, err := r.codecs.KindOf(d.codec)
	if err != nil {
		return nil, err
	}
	validator := r.codecs.Validator()
	if err := validator.Check(kind, sf.Type); err != nil {
		return nil, err
	}

	f := &Field{
		Tag:      d.tag,
		Kind:     kind,
		Width:    d.width,
		Required: d.required,
		Name:     sf.Name,
		Index:    sf.Index,
		Type:     sf.Type,
	}

	switch kind {
	case codec.KindRecord:
		if d.width != 0 {
			return nil, codec.Errorf(codec.ErrWidthMismatch, "record fields are always enveloped, got width %d", d.width)
		}
		if f.Child, err = r.child(sf.Type, visiting); err != nil {
			return nil, err
		}

	case codec.KindArray:
		if d.elem == "" {
			return nil, codec.Errorf(codec.ErrUnsupportedType, "array field needs an elem codec")
		}
		if f.Elem, err = r.codecs.KindOf(d.elem); err != nil {
			return nil, err
		}
		if sf.Type.Kind() != reflect.Slice {
			return nil, codec.Errorf(codec.ErrIncompatible, "array field must be a slice, is %s", sf.Type)
		}
		et := sf.Type.Elem()
		if err := validator.Check(f.Elem, et); err != nil {
			return nil, err
		}
		switch f.Elem {
		case codec.KindRecord:
			if d.width != 0 {
				return nil, codec.Errorf(codec.ErrWidthMismatch, "record elements are always enveloped, got width %d", d.width)
			}
			if f.Child, err = r.child(et, visiting); err != nil {
				return nil, err
			}
		case codec.KindArray:
			return nil, codec.Errorf(codec.ErrUnsupportedType, "arrays of arrays")
		default:
			elem, err := r.codecs.Lookup(f.Elem)
			if err != nil {
				return nil, err
			}
			if f.Width, err = width(elem, d); err != nil {
				return nil, err
			}
			f.Codec = codec.NewArray(elem, et, f.Width)
		}
		f.ElemFramed = f.Width == 0

	default:
		c, err := r.codecs.Lookup(kind)
		if err != nil {
			return nil, err
		}
		if f.Width, err = width(c, d); err != nil {
			return nil, err
		}
		f.Codec = c
	}
	return f, nil
}

func (r *Registry) child(t reflect.Type, visiting map[reflect.Type]bool) (*Schema, error) {
	ct, err := structType(t)
	if err != nil {
		return nil, err
	}
	return r.build(ct, visiting)
}

// width resolves the declared width against the codec's natural width.
// Fixed-width codecs accept only their own width; self-describing codecs
// accept any.
func width(c codec.Codec, d decl) (uint32, error) {
	natural := c.Width()
	if !d.hasWidth {
		return natural, nil
	}
	if natural != 0 && d.width != natural {
		return 0, codec.Errorf(codec.ErrWidthMismatch, "%s is %d bytes wide, declared %d", c.Kind(), natural, d.width)
	}
	return d.width, nil
}

func structType(t reflect.Type) (reflect.Type, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, errors.Wrapf(codec.ErrIncompatible, "%v is not a struct type", t)
	}
	return t, nil
}
