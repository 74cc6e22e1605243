package storage

import (
	"reflect"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/boconv/pkg/codec"
	"github.com/ssargent/boconv/pkg/record"
)

// ErrTypeMismatch is returned when a stored object is read into a record of
// another type
var ErrTypeMismatch = errors.New("stored type does not match target")

// Observer is notified after every storage operation
type Observer interface {
	ObserveStorage(op, typeName string, size int, elapsed time.Duration, err error)
}

// ObjectStore couples a record codec with a frame store: values go in as
// structs and are kept as encoded records.
type ObjectStore struct {
	frames   FrameStore
	records  *record.Codec
	observer Observer
}

// ObjectOption configures an ObjectStore
type ObjectOption func(*ObjectStore)

// WithObserver reports every operation to o
func WithObserver(o Observer) ObjectOption {
	return func(s *ObjectStore) { s.observer = o }
}

func NewObjectStore(frames FrameStore, records *record.Codec, opts ...ObjectOption) *ObjectStore {
	s := &ObjectStore{frames: frames, records: records}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Records returns the record codec
func (s *ObjectStore) Records() *record.Codec {
	return s.records
}

// typeName resolves the registered name of v's record type
func (s *ObjectStore) typeName(v any) (string, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return "", errors.Wrap(codec.ErrInvalidValue, "nil record")
	}
	sch, err := s.records.Types().For(t)
	if err != nil {
		return "", err
	}
	if _, ok := s.records.Types().Lookup(sch.Name); !ok {
		return "", errors.Wrapf(codec.ErrUnsupportedType, "%s is not registered by name", t)
	}
	return sch.Name, nil
}

// Put encodes v and stores it under a new id
func (s *ObjectStore) Put(v any) (ksuid.KSUID, error) {
	start := time.Now()
	name, err := s.typeName(v)
	if err != nil {
		return ksuid.Nil, err
	}
	data, err := s.records.Encode(v)
	if err != nil {
		s.observe("put", name, 0, start, err)
		return ksuid.Nil, err
	}
	id, err := s.frames.Create(name, data)
	s.observe("put", name, len(data), start, err)
	return id, err
}

// PutRaw stores an already encoded record after checking it decodes as typeName
func (s *ObjectStore) PutRaw(typeName string, data []byte) (ksuid.KSUID, error) {
	start := time.Now()
	if _, err := s.records.DecodeNamed(typeName, data); err != nil {
		s.observe("put", typeName, len(data), start, err)
		return ksuid.Nil, err
	}
	id, err := s.frames.Create(typeName, data)
	s.observe("put", typeName, len(data), start, err)
	return id, err
}

// Update replaces the object stored under id with v
func (s *ObjectStore) Update(id ksuid.KSUID, v any) error {
	start := time.Now()
	name, err := s.typeName(v)
	if err != nil {
		return err
	}
	data, err := s.records.Encode(v)
	if err == nil {
		err = s.frames.Update(id, name, data)
	}
	s.observe("update", name, len(data), start, err)
	return err
}

// Raw returns the type name and encoded record stored under id
func (s *ObjectStore) Raw(id ksuid.KSUID) (string, []byte, error) {
	f, err := s.frames.Read(id)
	if err != nil {
		return "", nil, err
	}
	data, err := f.Record()
	if err != nil {
		return "", nil, err
	}
	return f.Type, data, nil
}

// Get decodes the object stored under id into out, which must point to a
// record of the stored type
func (s *ObjectStore) Get(id ksuid.KSUID, out any) error {
	start := time.Now()
	typeName, data, err := s.Raw(id)
	if err != nil {
		s.observe("get", typeName, 0, start, err)
		return err
	}
	want, err := s.typeName(out)
	if err != nil {
		return err
	}
	if want != typeName {
		err = errors.Wrapf(ErrTypeMismatch, "%s holds %s, not %s", id, typeName, want)
	} else {
		err = s.records.Decode(data, out)
	}
	s.observe("get", typeName, len(data), start, err)
	return err
}

// Load decodes the object stored under id as whatever type it was stored as
func (s *ObjectStore) Load(id ksuid.KSUID) (string, any, error) {
	start := time.Now()
	typeName, data, err := s.Raw(id)
	if err != nil {
		s.observe("get", typeName, 0, start, err)
		return "", nil, err
	}
	v, err := s.records.DecodeNamed(typeName, data)
	s.observe("get", typeName, len(data), start, err)
	return typeName, v, err
}

// Delete removes the object stored under id
func (s *ObjectStore) Delete(id ksuid.KSUID) error {
	start := time.Now()
	err := s.frames.Delete(id)
	s.observe("delete", "", 0, start, err)
	return err
}

// List returns the ids of stored objects of a type; "" lists all
func (s *ObjectStore) List(typeName string) ([]ksuid.KSUID, error) {
	return s.frames.List(typeName)
}

// Close closes the underlying frame store
func (s *ObjectStore) Close() error {
	return s.frames.Close()
}

func (s *ObjectStore) observe(op, typeName string, size int, start time.Time, err error) {
	if s.observer != nil {
		s.observer.ObserveStorage(op, typeName, size, time.Since(start), err)
	}
}
