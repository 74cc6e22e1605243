package store

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/ksuid"
	"github.com/ssargent/boconv/pkg/frame"
	"go.uber.org/zap"
)

// DataFileName is the name of the active log inside the data directory
const DataFileName = "objects.log"

// ObjectLog is an append-only file of frames with an in-memory id index.
// Every Put appends a frame; Delete appends a tombstone.
type ObjectLog struct {
	config   ObjectLogConfig
	frames   *frame.Codec
	writer   *LogWriter
	reader   *LogReader
	index    *HashIndex
	logger   *zap.Logger
	dataFile string
	mutex    sync.RWMutex
	isOpen   bool
	openedAt time.Time

	frameCount int64
	tombstones int64
}

// NewObjectLog creates an object log instance. Call Open before use.
func NewObjectLog(config ObjectLogConfig) (*ObjectLog, error) {
	if config.DataDir == "" {
		return nil, errors.New("data directory is required")
	}
	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ObjectLog{
		config:   config,
		frames:   frame.NewCodec(config.Compression),
		index:    NewHashIndex(),
		logger:   logger.Named("objectlog"),
		dataFile: filepath.Join(config.DataDir, DataFileName),
	}, nil
}

// Open validates the data file, truncates a damaged tail and rebuilds the index
func (l *ObjectLog) Open() (*RecoveryResult, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.isOpen {
		return &RecoveryResult{}, nil
	}

	recovery, err := l.validateLogFile(l.dataFile)
	if err != nil {
		return nil, err
	}

	writer, err := NewLogWriter(LogWriterConfig{
		FilePath:      l.dataFile,
		FsyncInterval: l.config.FsyncInterval,
	})
	if err != nil {
		return nil, err
	}
	l.writer = writer

	reader, err := NewLogReader(LogReaderConfig{FilePath: l.dataFile})
	if err != nil {
		_ = l.writer.Close()
		return nil, err
	}
	l.reader = reader

	stats, err := l.index.BuildFromLog(l.reader)
	if err != nil {
		_ = l.reader.Close()
		_ = l.writer.Close()
		return nil, err
	}
	l.frameCount = int64(stats.Frames)
	l.tombstones = int64(stats.Tombstones)
	recovery.IndexRebuilt = true

	l.isOpen = true
	l.openedAt = time.Now()
	l.logger.Info("object log opened",
		zap.String("path", l.dataFile),
		zap.Int("objects", stats.LiveObjects),
		zap.Int("frames", stats.Frames),
		zap.Duration("recovery", recovery.RecoveryTime))
	return recovery, nil
}

// Put appends a new object and returns its generated id
func (l *ObjectLog) Put(typeName string, payload []byte) (ksuid.KSUID, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return ksuid.Nil, err
	}
	if err := l.write(id, typeName, payload, false); err != nil {
		return ksuid.Nil, err
	}
	return id, nil
}

// Update appends a new version of an existing object
func (l *ObjectLog) Update(id ksuid.KSUID, typeName string, payload []byte) error {
	return l.write(id, typeName, payload, true)
}

func (l *ObjectLog) write(id ksuid.KSUID, typeName string, payload []byte, mustExist bool) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if !l.isOpen {
		return ErrClosed
	}
	if id == ksuid.Nil {
		return ErrInvalidID
	}
	if mustExist {
		entry, ok := l.index.Get(id)
		if !ok {
			return errors.Wrapf(ErrNotFound, "%s", id)
		}
		if entry.Type != typeName {
			return errors.Wrapf(ErrTypeChange, "%s holds %s, not %s", id, entry.Type, typeName)
		}
	}

	f, err := l.frames.New(id, typeName, payload)
	if err != nil {
		return err
	}
	offset, err := l.writer.Append(f)
	if err != nil {
		return err
	}

	l.index.Put(id, &IndexEntry{
		Offset:    offset,
		Size:      uint32(f.Size()),
		Timestamp: f.Timestamp,
		Type:      typeName,
	})
	l.frameCount++
	return nil
}

// Get returns the live frame stored for id
func (l *ObjectLog) Get(id ksuid.KSUID) (*frame.Frame, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if !l.isOpen {
		return nil, ErrClosed
	}
	return l.get(id)
}

func (l *ObjectLog) get(id ksuid.KSUID) (*frame.Frame, error) {
	entry, exists := l.index.Get(id)
	if !exists {
		return nil, errors.Wrapf(ErrNotFound, "%s", id)
	}

	// Buffered frames are not visible to ReadAt until flushed
	if err := l.writer.Flush(); err != nil {
		return nil, err
	}
	return l.reader.ReadAt(entry.Offset)
}

// Record returns the type name and decompressed record bytes for id
func (l *ObjectLog) Record(id ksuid.KSUID) (string, []byte, error) {
	f, err := l.Get(id)
	if err != nil {
		return "", nil, err
	}
	data, err := f.Record()
	if err != nil {
		return "", nil, err
	}
	return f.Type, data, nil
}

// Delete appends a tombstone for id and drops it from the index
func (l *ObjectLog) Delete(id ksuid.KSUID) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if !l.isOpen {
		return ErrClosed
	}

	entry, exists := l.index.Get(id)
	if !exists {
		return errors.Wrapf(ErrNotFound, "%s", id)
	}

	if _, err := l.writer.Append(l.frames.Tombstone(id, entry.Type)); err != nil {
		return err
	}
	l.index.Delete(id)
	l.frameCount++
	l.tombstones++
	return nil
}

// IDs lists live objects of a type in id order; "" lists all
func (l *ObjectLog) IDs(typeName string) ([]ksuid.KSUID, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if !l.isOpen {
		return nil, ErrClosed
	}
	return l.index.IDsOfType(typeName), nil
}

// Scan calls fn for each live object of a type in id order. An
// empty type name visits every object. Scanning stops at the first error.
// fn runs under the read lock and must not call back into the log.
func (l *ObjectLog) Scan(typeName string, fn func(f *frame.Frame) error) error {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if !l.isOpen {
		return ErrClosed
	}

	for _, id := range l.index.IDsOfType(typeName) {
		f, err := l.get(id)
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// Sync flushes and fsyncs the active file
func (l *ObjectLog) Sync() error {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if !l.isOpen {
		return ErrClosed
	}
	return l.writer.Sync()
}

// Close shuts down the log
func (l *ObjectLog) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if !l.isOpen {
		return nil
	}
	l.isOpen = false

	// Close writer first (ensures all data is flushed)
	if err := l.writer.Close(); err != nil {
		_ = l.reader.Close()
		return err
	}
	return l.reader.Close()
}

// Path returns the active data file
func (l *ObjectLog) Path() string {
	return l.dataFile
}

// validateLogFile walks the log and truncates it after the last valid frame
func (l *ObjectLog) validateLogFile(filePath string) (*RecoveryResult, error) {
	startTime := time.Now()

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &RecoveryResult{RecoveryTime: time.Since(startTime)}, nil
		}
		return nil, err
	}
	fileSizeBefore := fileInfo.Size()

	reader, err := NewLogReader(LogReaderConfig{FilePath: filePath})
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var validated int64
	var cause error
	for {
		_, err := reader.ReadNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			cause = err
			break
		}
		validated++
	}

	result := &RecoveryResult{
		FramesValidated: validated,
		FileSizeBefore:  fileSizeBefore,
		FileSizeAfter:   fileSizeBefore,
	}

	if cause != nil {
		if !errors.Is(cause, ErrCorruption) {
			return nil, cause
		}
		lastValid := reader.Offset()
		if err := os.Truncate(filePath, lastValid); err != nil {
			return nil, err
		}
		result.FileSizeAfter = lastValid
		result.FramesTruncated = 1
		l.logger.Warn("truncated damaged log tail",
			zap.String("path", filePath),
			zap.Int64("offset", lastValid),
			zap.Int64("bytes", fileSizeBefore-lastValid),
			zap.Error(cause))
	}

	result.RecoveryTime = time.Since(startTime)
	return result, nil
}

// Stats returns log statistics
func (l *ObjectLog) Stats() *LogStats {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if !l.isOpen {
		return &LogStats{}
	}

	return &LogStats{
		Objects:    l.index.Size(),
		Frames:     l.frameCount,
		Tombstones: l.tombstones,
		DataSize:   l.writer.Size(),
	}
}

// LogStats holds statistics about the log
type LogStats struct {
	Objects    int   `json:"objects" yaml:"objects"`
	Frames     int64 `json:"frames" yaml:"frames"`
	Tombstones int64 `json:"tombstones" yaml:"tombstones"`
	DataSize   int64 `json:"data_size" yaml:"data_size"`
}
