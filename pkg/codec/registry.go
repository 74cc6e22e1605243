package codec

import (
	"strings"
	"sync"
)

// Factory builds a codec. It is called once, when the codec is registered.
type Factory func() Codec

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithTimestampMode selects the encoder used by the "timestamp" kind
func WithTimestampMode(mode TimestampMode) RegistryOption {
	return func(r *Registry) {
		r.tsMode = mode
	}
}

// WithValidator shares an existing compatibility table with the registry.
// Custom codecs registered later are added to it.
func WithValidator(v *Validator) RegistryOption {
	return func(r *Registry) {
		r.validator = v
	}
}

// Registry maps codec kinds and their tag names to codec instances
type Registry struct {
	mu        sync.RWMutex
	codecs    map[Kind]Codec
	names     map[string]Kind
	validator *Validator
	tsMode    TimestampMode
}

func builtinCodecs(mode TimestampMode) []Codec {
	return []Codec{
		Integer{},
		Long{},
		LongFrom4{},
		Short{},
		Float{},
		Double{},
		Boolean{},
		ByteInt{},
		UUID{},
		String{},
		NewTimestamp(mode),
		NewLegacyTimestamp(),
		Location{},
	}
}

// NewRegistry returns a registry holding every built-in scalar codec
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		codecs: make(map[Kind]Codec),
		names:  make(map[string]Kind),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.validator == nil {
		r.validator = NewValidator()
	}
	for _, c := range builtinCodecs(r.tsMode) {
		r.codecs[c.Kind()] = c
	}
	for k, name := range kindNames {
		r.names[name] = k
	}
	return r
}

// Register adds an application codec under name and kind. The factory is
// invoked immediately; a nil factory, a nil codec or a panic fails with
// ErrCodecConstruction. The codec's value type is added to the validator.
func (r *Registry) Register(name string, kind Kind, factory Factory) (err error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if kind < KindCustom {
		return Errorf(ErrUnsupportedType, "kind %d is reserved for built-in codecs", kind)
	}
	if name == "" {
		return Errorf(ErrUnsupportedType, "codec name is empty")
	}
	if factory == nil {
		return Errorf(ErrCodecConstruction, "%s: no factory", name)
	}
	c, err := construct(name, factory)
	if err != nil {
		return err
	}
	if c.Kind() != kind {
		return Errorf(ErrCodecConstruction, "%s: factory built a %s codec, registered as %s", name, c.Kind(), kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.names[name]; ok {
		return Errorf(ErrCodecConstruction, "%s is already registered as kind %d", name, uint8(existing))
	}
	if _, ok := r.codecs[kind]; ok {
		return Errorf(ErrCodecConstruction, "kind %d is already registered", uint8(kind))
	}
	r.codecs[kind] = c
	r.names[name] = kind
	r.validator.set(kind, c.ValueType())
	return nil
}

func construct(name string, factory Factory) (c Codec, err error) {
	defer func() {
		if p := recover(); p != nil {
			c = nil
			err = Errorf(ErrCodecConstruction, "%s: %v", name, p)
		}
	}()
	c = factory()
	if c == nil {
		return nil, Errorf(ErrCodecConstruction, "%s: factory returned nil", name)
	}
	return c, nil
}

// Lookup returns the scalar codec for kind. Arrays and records are built
// per field and are not held here.
func (r *Registry) Lookup(kind Kind) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[kind]
	if !ok {
		return nil, Errorf(ErrUnsupportedType, "%s", kind)
	}
	return c, nil
}

// KindOf resolves a codec name as used in struct tags
func (r *Registry) KindOf(name string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	defer r.mu.RUnlock()
	if k, ok := r.names[key]; ok {
		return k, nil
	}
	return KindInvalid, Errorf(ErrUnsupportedType, "no codec named %q", name)
}

// Names lists the registered codec names
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.names))
	for name := range r.names {
		out = append(out, name)
	}
	return out
}

// Validator returns the compatibility table shared with this registry
func (r *Registry) Validator() *Validator {
	return r.validator
}

// TimestampMode returns the encoder mode of the "timestamp" kind
func (r *Registry) TimestampMode() TimestampMode {
	return r.tsMode
}

// Name returns the tag name of kind, including application codecs
func (r *Registry) Name(kind Kind) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, k := range r.names {
		if k == kind {
			return name
		}
	}
	return kind.String()
}
