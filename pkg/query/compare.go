package query

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// compare orders a against b. Numbers compare by value whatever their Go
// type; strings compare bytewise; booleans only compare for equality
// (false < true). Text in b is read as whatever type a holds, so a query
// typed on a command line compares against the field it names.
func compare(a, b interface{}) (int, error) {
	if s, ok := b.(string); ok {
		v, err := coerce(a, s)
		if err != nil {
			return 0, err
		}
		b = v
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1, nil
			case fa > fb:
				return 1, nil
			}
			return 0, nil
		}
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), nil
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0, nil
			case bv:
				return -1, nil
			}
			return 1, nil
		}
	}
	return 0, errors.Wrapf(ErrNotComparable, "%T and %T", a, b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// coerce parses text into the kind of value field holds
func coerce(field interface{}, text string) (interface{}, error) {
	if _, ok := toFloat(field); ok {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrNotComparable, "%T and %q", field, text)
		}
		return f, nil
	}
	if _, ok := field.(bool); ok {
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, errors.Wrapf(ErrNotComparable, "%T and %q", field, text)
		}
		return b, nil
	}
	return text, nil
}
