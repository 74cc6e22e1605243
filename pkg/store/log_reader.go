package store

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/ssargent/boconv/pkg/frame"
)

// LogReader provides sequential and random access to frames in a log file
type LogReader struct {
	file   *os.File
	reader *bufio.Reader
	offset int64
	config LogReaderConfig
}

// NewLogReader creates a new log reader for the specified file
func NewLogReader(config LogReaderConfig) (*LogReader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return &LogReader{
		file:   file,
		reader: bufio.NewReader(file),
		offset: config.StartOffset,
		config: config,
	}, nil
}

// bodySize reads the type and payload sizes out of a frame header
func bodySize(header []byte) (int, error) {
	typeSize := binary.LittleEndian.Uint32(header[4:])
	payloadSize := binary.LittleEndian.Uint32(header[8:])
	size := uint64(typeSize) + uint64(payloadSize)
	if size > frame.MaxBodySize {
		return 0, errors.Wrapf(ErrCorruption, "frame body of %d bytes", size)
	}
	return int(size), nil
}

// parse decodes and checks a complete frame
func parse(data []byte, offset int64) (*frame.Frame, error) {
	f, err := frame.Unmarshal(data)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruption, "offset %d: %v", offset, err)
	}
	if err := f.Validate(); err != nil {
		return nil, errors.Wrapf(ErrCorruption, "offset %d: %v", offset, err)
	}
	return f, nil
}

// ReadNext reads the next frame from the current offset. It returns io.EOF
// at a clean end of file and ErrCorruption for a torn or damaged frame.
func (r *LogReader) ReadNext() (*frame.Frame, error) {
	start := r.offset
	header := make([]byte, frame.HeaderSize)
	n, err := io.ReadFull(r.reader, header)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return nil, errors.Wrapf(ErrCorruption, "offset %d: torn header of %d bytes", start, n)
		}
		return nil, err
	}

	size, err := bodySize(header)
	if err != nil {
		return nil, err
	}

	data := make([]byte, frame.HeaderSize+size)
	copy(data, header)
	if _, err := io.ReadFull(r.reader, data[frame.HeaderSize:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.Wrapf(ErrCorruption, "offset %d: torn frame", start)
		}
		return nil, err
	}

	f, err := parse(data, start)
	if err != nil {
		return nil, err
	}
	r.offset += int64(len(data))
	return f, nil
}

// ReadAt reads the frame at a specific offset without moving the
// sequential position
func (r *LogReader) ReadAt(offset int64) (*frame.Frame, error) {
	header := make([]byte, frame.HeaderSize)
	if _, err := r.file.ReadAt(header, offset); err != nil {
		if err == io.EOF {
			return nil, errors.Wrapf(ErrCorruption, "offset %d: short header", offset)
		}
		return nil, err
	}

	size, err := bodySize(header)
	if err != nil {
		return nil, err
	}

	data := make([]byte, frame.HeaderSize+size)
	copy(data, header)
	if size > 0 {
		if _, err := r.file.ReadAt(data[frame.HeaderSize:], offset+frame.HeaderSize); err != nil {
			if err == io.EOF {
				return nil, errors.Wrapf(ErrCorruption, "offset %d: short frame", offset)
			}
			return nil, err
		}
	}

	return parse(data, offset)
}

// Seek sets the read offset
func (r *LogReader) Seek(offset int64) error {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	r.reader.Reset(r.file)
	r.offset = offset
	return nil
}

// Offset returns the current read offset
func (r *LogReader) Offset() int64 {
	return r.offset
}

// Iterator returns a streaming iterator over frames from the current offset
func (r *LogReader) Iterator() FrameIterator {
	return &logFrameIterator{reader: r}
}

// Close closes the log reader
func (r *LogReader) Close() error {
	return r.file.Close()
}

// logFrameIterator implements FrameIterator for streaming access
type logFrameIterator struct {
	reader *LogReader
	frame  *frame.Frame
	offset int64
	err    error
}

func (it *logFrameIterator) Next() bool {
	it.offset = it.reader.Offset()
	it.frame, it.err = it.reader.ReadNext()
	return it.err == nil
}

func (it *logFrameIterator) Frame() *frame.Frame {
	return it.frame
}

// Offset returns where the current frame starts
func (it *logFrameIterator) Offset() int64 {
	return it.offset
}

// Err returns the error that stopped iteration, or nil at a clean end
func (it *logFrameIterator) Err() error {
	if it.err == io.EOF {
		return nil
	}
	return it.err
}

func (it *logFrameIterator) Close() error {
	// The underlying reader is owned by the caller
	return nil
}
