package query

import (
	"context"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/boconv/pkg/record"
)

var (
	ErrFieldNotFound = errors.New("field not present")
	ErrNotComparable = errors.New("values are not comparable")
	ErrInvalidQuery  = errors.New("invalid query")
)

// FieldExtractor defines how to extract a top-level field value from an
// encoded record
type FieldExtractor interface {
	Extract(typeName string, data []byte, field string) (interface{}, error)
}

// RecordFieldExtractor walks the encoded units of a record and returns the
// decoded value of one field without decoding the rest
type RecordFieldExtractor struct {
	records *record.Codec
}

// NewRecordFieldExtractor creates an extractor over the types known to records
func NewRecordFieldExtractor(records *record.Codec) *RecordFieldExtractor {
	return &RecordFieldExtractor{records: records}
}

// Extract implements FieldExtractor. field is a Go field name, matched
// case-insensitively, or a wire tag such as "0x10".
func (e *RecordFieldExtractor) Extract(typeName string, data []byte, field string) (interface{}, error) {
	sch, ok := e.records.Types().Lookup(typeName)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidQuery, "unknown record type %q", typeName)
	}
	dumps, err := e.records.Inspect(data, sch.Type)
	if err != nil {
		return nil, err
	}

	tag, isTag := parseTag(field)
	for _, d := range dumps {
		if (isTag && d.Tag == tag) || strings.EqualFold(d.Field, field) {
			if d.Absent || d.Value == nil {
				return nil, errors.Wrapf(ErrFieldNotFound, "%s.%s", typeName, field)
			}
			return d.Value, nil
		}
	}
	return nil, errors.Wrapf(ErrFieldNotFound, "%s.%s", typeName, field)
}

func parseTag(field string) (uint8, bool) {
	if !strings.HasPrefix(field, "0x") && !strings.HasPrefix(field, "0X") {
		return 0, false
	}
	v, err := strconv.ParseUint(field[2:], 16, 8)
	if err != nil {
		return 0, false
	}
	return uint8(v), true
}

// Comparison operators
const (
	OpEqual        = "="
	OpNotEqual     = "!="
	OpGreater      = ">"
	OpLess         = "<"
	OpGreaterEqual = ">="
	OpLessEqual    = "<="
)

// FieldQuery represents a single field-based query condition
type FieldQuery struct {
	Field    string      // Field name or wire tag to query (e.g., "Name", "0x10")
	Operator string      // Comparison operator: "=", "!=", ">", "<", ">=", "<="
	Value    interface{} // Value to compare against; text is read as the field's type
}

// Validate checks if the query is properly formed
func (q *FieldQuery) Validate() error {
	if q.Field == "" {
		return errors.Wrap(ErrInvalidQuery, "field name cannot be empty")
	}
	if q.Operator == "" {
		return errors.Wrap(ErrInvalidQuery, "operator cannot be empty")
	}
	switch q.Operator {
	case OpEqual, OpNotEqual, OpGreater, OpLess, OpGreaterEqual, OpLessEqual:
	default:
		return errors.Wrapf(ErrInvalidQuery, "invalid operator: %s", q.Operator)
	}
	if q.Value == nil {
		return errors.Wrap(ErrInvalidQuery, "value cannot be nil")
	}
	return nil
}

// Matches reports whether a field value satisfies the condition
func (q *FieldQuery) Matches(v interface{}) (bool, error) {
	c, err := compare(v, q.Value)
	if err != nil {
		return false, err
	}
	switch q.Operator {
	case OpEqual:
		return c == 0, nil
	case OpNotEqual:
		return c != 0, nil
	case OpGreater:
		return c > 0, nil
	case OpLess:
		return c < 0, nil
	case OpGreaterEqual:
		return c >= 0, nil
	case OpLessEqual:
		return c <= 0, nil
	}
	return false, errors.Wrapf(ErrInvalidQuery, "invalid operator: %s", q.Operator)
}

// QueryResult represents a single query result
type QueryResult struct {
	ID     ksuid.KSUID `json:"id" yaml:"id"`
	Type   string      `json:"type" yaml:"type"`
	Object interface{} `json:"object" yaml:"object"`
}

// QueryIterator provides streaming access to query results
type QueryIterator interface {
	Next() bool
	Result() QueryResult
	Close() error
}

// QueryEngine handles query execution
type QueryEngine interface {
	ExecuteQuery(ctx context.Context, typeName string, query FieldQuery) (QueryIterator, error)
	ExecuteRangeQuery(ctx context.Context, typeName string, startQuery, endQuery FieldQuery) (QueryIterator, error)
}
