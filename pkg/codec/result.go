package codec

// Status classifies the outcome of a Decode call
type Status uint8

const (
	// StatusOK means Value holds the decoded value
	StatusOK Status = iota
	// StatusAbsent is an expected "no value" outcome. The surrounding
	// record decode continues and the field keeps its zero value.
	StatusAbsent
	// StatusFatal means the stream is corrupt and Err says why
	StatusFatal
)

// Result is the outcome of decoding a single value. It keeps a soft absent
// value apart from a corrupt stream.
type Result struct {
	Value  any
	Status Status
	Err    error
}

// Ok wraps a successfully decoded value
func Ok(v any) Result {
	return Result{Value: v, Status: StatusOK}
}

// Absent reports that the payload decodes to no value
func Absent() Result {
	return Result{Status: StatusAbsent}
}

// Fatal reports an unrecoverable decode failure
func Fatal(err error) Result {
	return Result{Status: StatusFatal, Err: err}
}

// IsOK reports whether the result carries a value
func (r Result) IsOK() bool { return r.Status == StatusOK }

// IsAbsent reports whether the result is a soft absent value
func (r Result) IsAbsent() bool { return r.Status == StatusAbsent }

// Get returns the value, nil for an absent result, or the fatal error
func (r Result) Get() (any, error) {
	if r.Status == StatusFatal {
		return nil, r.Err
	}
	return r.Value, nil
}
