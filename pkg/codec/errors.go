package codec

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Schema and registration failures. These surface when a record type is
// registered or first used and are never retried.
var (
	ErrUnsupportedType     = errors.New("unsupported codec type")
	ErrIncompatible        = errors.New("codec incompatible with field type")
	ErrCodecConstruction   = errors.New("codec construction failed")
	ErrWidthMismatch       = errors.New("declared width does not match codec width")
	ErrMissingFieldMapping = errors.New("no field mapped for descriptor")
	ErrDuplicateTag        = errors.New("duplicate wire tag")
	ErrCyclicSchema        = errors.New("record type contains itself")
)

// Stream failures. A stream that produces one of these cannot be resumed.
var (
	ErrUnknownTag      = errors.New("unknown wire tag")
	ErrMalformedLength = errors.New("malformed length")
	ErrInvalidValue    = errors.New("invalid value")
)

// Error attaches the record type, field and tag to a codec failure
type Error struct {
	Op    string // "encode", "decode" or "register"
	Type  string // Go record type name
	Field string // struct field name, empty when unknown
	Tag   int    // wire tag, -1 when unknown
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Type != "" {
		b.WriteString(" ")
		b.WriteString(e.Type)
	}
	if e.Field != "" {
		b.WriteString(".")
		b.WriteString(e.Field)
	}
	if e.Tag >= 0 {
		fmt.Fprintf(&b, " (tag 0x%02x)", e.Tag)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf wraps one of the sentinel errors with a formatted detail message
func Errorf(sentinel error, format string, args ...any) error {
	return errors.Wrapf(sentinel, format, args...)
}
