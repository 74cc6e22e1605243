package codec

import (
	"reflect"
	"sync"
)

// rule is the value type a kind may be bound to. Exactly one of typ and
// kind is set: typ for scalars, kind for containers whose element type
// varies per field.
type rule struct {
	typ  reflect.Type
	kind reflect.Kind
}

func (r rule) String() string {
	if r.typ != nil {
		return r.typ.String()
	}
	return "any " + r.kind.String()
}

// Validator is the table of codec kinds and the single Go type each may
// operate on. It is filled at startup and read on every encode and decode
// dispatch.
type Validator struct {
	mu    sync.RWMutex
	rules map[Kind]rule
}

// NewValidator returns a validator holding the built-in kinds
func NewValidator() *Validator {
	v := &Validator{rules: make(map[Kind]rule)}
	for _, c := range builtinCodecs(TimestampModeLegacy) {
		v.rules[c.Kind()] = rule{typ: c.ValueType()}
	}
	v.rules[KindArray] = rule{kind: reflect.Slice}
	v.rules[KindRecord] = rule{kind: reflect.Struct}
	return v
}

// set binds kind to t, replacing any earlier entry
func (v *Validator) set(kind Kind, t reflect.Type) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rules[kind] = rule{typ: t}
}

// Supports reports whether kind has an entry
func (v *Validator) Supports(kind Kind) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.rules[kind]
	return ok
}

// ValueType returns the exact type bound to a scalar kind, or nil for
// containers and unknown kinds.
func (v *Validator) ValueType(kind Kind) reflect.Type {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.rules[kind].typ
}

// Check fails with ErrUnsupportedType when kind has no entry and with
// ErrIncompatible when t does not match it. A pointer type is checked on
// its element.
func (v *Validator) Check(kind Kind, t reflect.Type) error {
	v.mu.RLock()
	r, ok := v.rules[kind]
	v.mu.RUnlock()
	if !ok {
		return Errorf(ErrUnsupportedType, "%s", kind)
	}
	if t == nil {
		return Errorf(ErrIncompatible, "%s codec given no type", kind)
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if r.typ != nil && t == r.typ {
		return nil
	}
	if r.typ == nil && t.Kind() == r.kind {
		return nil
	}
	return Errorf(ErrIncompatible, "%s codec operates on %s, field is %s", kind, r, t)
}
