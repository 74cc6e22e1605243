package store

import (
	"time"

	"github.com/ssargent/boconv/pkg/frame"
	"go.uber.org/zap"
)

// IndexEntry represents the location of a live object in the log
type IndexEntry struct {
	Offset    int64  // Byte offset of the frame within the file
	Size      uint32 // Size of the encoded frame in bytes
	Timestamp uint64 // Frame timestamp
	Type      string // Registered record type name
}

// LogWriterConfig holds configuration for the log writer
type LogWriterConfig struct {
	FilePath      string        // Path to the active data file
	FsyncInterval time.Duration // How often to fsync (0 = every write)
	BufferSize    int           // Write buffer size
}

// LogReaderConfig holds configuration for the log reader
type LogReaderConfig struct {
	FilePath    string // Path to the data file
	StartOffset int64  // Offset to start reading from
}

// ObjectLogConfig holds configuration for the object log
type ObjectLogConfig struct {
	DataDir       string            // Directory for data files
	FsyncInterval time.Duration     // Fsync interval for durability
	Compression   frame.Compression // Compression for new frames
	Logger        *zap.Logger
}

// FrameIterator provides streaming access to frames
type FrameIterator interface {
	Next() bool
	Frame() *frame.Frame
	Offset() int64
	Err() error
	Close() error
}

// RecoveryResult describes what Open found in the data file
type RecoveryResult struct {
	FramesValidated int64
	FramesTruncated int64
	FileSizeBefore  int64
	FileSizeAfter   int64
	IndexRebuilt    bool
	RecoveryTime    time.Duration
}

// Errors
var (
	ErrNotFound   = &StoreError{"object not found"}
	ErrInvalidID  = &StoreError{"invalid object id"}
	ErrCorruption = &StoreError{"data corruption detected"}
	ErrClosed     = &StoreError{"store is not open"}
	ErrTypeChange = &StoreError{"object type cannot change"}
)

// StoreError represents an object log error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}
