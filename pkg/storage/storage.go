package storage

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/boconv/pkg/frame"
	"github.com/ssargent/boconv/pkg/store"
)

// ErrNotFound is returned for ids with no live object
var ErrNotFound = store.ErrNotFound

// FrameStore persists framed records keyed by object id
type FrameStore interface {
	Create(typeName string, payload []byte) (ksuid.KSUID, error)
	Read(id ksuid.KSUID) (*frame.Frame, error)
	Update(id ksuid.KSUID, typeName string, payload []byte) error
	Delete(id ksuid.KSUID) error
	List(typeName string) ([]ksuid.KSUID, error)
	Close() error
}

// DefaultStorage keeps one frame per object in pebble, keyed by the raw id
type DefaultStorage struct {
	db     *pebble.DB
	frames *frame.Codec
}

func NewDefaultStorage(path string, compression frame.Compression) (*DefaultStorage, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &DefaultStorage{db: db, frames: frame.NewCodec(compression)}, nil
}

func (s *DefaultStorage) Create(typeName string, payload []byte) (ksuid.KSUID, error) {
	id := ksuid.New()
	if err := s.set(id, typeName, payload); err != nil {
		return ksuid.Nil, err
	}
	return id, nil
}

func (s *DefaultStorage) set(id ksuid.KSUID, typeName string, payload []byte) error {
	data, err := s.frames.Encode(id, typeName, payload)
	if err != nil {
		return err
	}
	return s.db.Set(id.Bytes(), data, pebble.NoSync)
}

func (s *DefaultStorage) Read(id ksuid.KSUID) (*frame.Frame, error) {
	data, closer, err := s.db.Get(id.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, errors.Wrapf(ErrNotFound, "%s", id)
		}
		return nil, err
	}
	defer closer.Close()

	// data is only valid until closer is closed
	f, err := frame.Unmarshal(append([]byte(nil), data...))
	if err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *DefaultStorage) Update(id ksuid.KSUID, typeName string, payload []byte) error {
	f, err := s.Read(id)
	if err != nil {
		return err
	}
	if f.Type != typeName {
		return errors.Wrapf(ErrTypeMismatch, "%s holds %s, not %s", id, f.Type, typeName)
	}
	return s.set(id, typeName, payload)
}

func (s *DefaultStorage) Delete(id ksuid.KSUID) error {
	if _, err := s.Read(id); err != nil {
		return err
	}
	return s.db.Delete(id.Bytes(), pebble.NoSync)
}

// List returns the ids of stored objects of a type in key order. An empty
// type name lists every object.
func (s *DefaultStorage) List(typeName string) ([]ksuid.KSUID, error) {
	iter, err := s.db.NewIter(nil)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var ids []ksuid.KSUID
	for iter.First(); iter.Valid(); iter.Next() {
		f, err := frame.Unmarshal(iter.Value())
		if err != nil {
			return nil, err
		}
		if typeName != "" && f.Type != typeName {
			continue
		}
		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, iter.Error()
}

func (s *DefaultStorage) Close() error {
	return s.db.Close()
}

// LogStorage serves the FrameStore interface from an append-only object log
type LogStorage struct {
	log *store.ObjectLog
}

// NewLogStorage opens an object log in dir
func NewLogStorage(config store.ObjectLogConfig) (*LogStorage, *store.RecoveryResult, error) {
	log, err := store.NewObjectLog(config)
	if err != nil {
		return nil, nil, err
	}
	recovery, err := log.Open()
	if err != nil {
		return nil, nil, err
	}
	return &LogStorage{log: log}, recovery, nil
}

// Log returns the underlying object log
func (s *LogStorage) Log() *store.ObjectLog {
	return s.log
}

func (s *LogStorage) Create(typeName string, payload []byte) (ksuid.KSUID, error) {
	return s.log.Put(typeName, payload)
}

func (s *LogStorage) Read(id ksuid.KSUID) (*frame.Frame, error) {
	return s.log.Get(id)
}

func (s *LogStorage) Update(id ksuid.KSUID, typeName string, payload []byte) error {
	err := s.log.Update(id, typeName, payload)
	if errors.Is(err, store.ErrTypeChange) {
		return errors.Mark(err, ErrTypeMismatch)
	}
	return err
}

func (s *LogStorage) Delete(id ksuid.KSUID) error {
	return s.log.Delete(id)
}

func (s *LogStorage) List(typeName string) ([]ksuid.KSUID, error) {
	return s.log.IDs(typeName)
}

func (s *LogStorage) Close() error {
	return s.log.Close()
}
