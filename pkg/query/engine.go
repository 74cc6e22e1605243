package query

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/boconv/pkg/record"
)

// Source is the object storage a query scans
type Source interface {
	List(typeName string) ([]ksuid.KSUID, error)
	Raw(id ksuid.KSUID) (string, []byte, error)
	Records() *record.Codec
}

// ScanEngine answers field queries by scanning every stored object of a type.
// Only the queried field is decoded until an object matches.
type ScanEngine struct {
	source    Source
	extractor FieldExtractor
}

// NewScanEngine creates a new query engine
func NewScanEngine(source Source) *ScanEngine {
	return &ScanEngine{
		source:    source,
		extractor: NewRecordFieldExtractor(source.Records()),
	}
}

// ExecuteQuery executes a single field query
func (qe *ScanEngine) ExecuteQuery(ctx context.Context, typeName string, query FieldQuery) (QueryIterator, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return qe.scan(ctx, typeName, query.Field, func(v interface{}) (bool, error) {
		return query.Matches(v)
	})
}

// ExecuteRangeQuery returns objects whose field satisfies both conditions
func (qe *ScanEngine) ExecuteRangeQuery(ctx context.Context, typeName string, startQuery, endQuery FieldQuery) (QueryIterator, error) {
	if err := startQuery.Validate(); err != nil {
		return nil, errors.Wrap(err, "start")
	}
	if err := endQuery.Validate(); err != nil {
		return nil, errors.Wrap(err, "end")
	}

	// Ensure both queries are for the same field
	if startQuery.Field != endQuery.Field {
		return nil, errors.Wrapf(ErrInvalidQuery, "range query fields must match: %s != %s", startQuery.Field, endQuery.Field)
	}

	return qe.scan(ctx, typeName, startQuery.Field, func(v interface{}) (bool, error) {
		ok, err := startQuery.Matches(v)
		if err != nil || !ok {
			return false, err
		}
		return endQuery.Matches(v)
	})
}

func (qe *ScanEngine) scan(ctx context.Context, typeName, field string, match func(interface{}) (bool, error)) (QueryIterator, error) {
	records := qe.source.Records()
	if _, ok := records.Types().Lookup(typeName); !ok {
		return nil, errors.Wrapf(ErrInvalidQuery, "unknown record type %q", typeName)
	}

	ids, err := qe.source.List(typeName)
	if err != nil {
		return nil, err
	}

	var results []QueryResult
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stored, data, err := qe.source.Raw(id)
		if err != nil {
			return nil, errors.Wrapf(err, "object %s", id)
		}

		v, err := qe.extractor.Extract(stored, data, field)
		if errors.Is(err, ErrFieldNotFound) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "object %s", id)
		}
		ok, err := match(v)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", field)
		}
		if !ok {
			continue
		}

		obj, err := records.DecodeNamed(stored, data)
		if err != nil {
			return nil, errors.Wrapf(err, "object %s", id)
		}
		results = append(results, QueryResult{ID: id, Type: stored, Object: obj})
	}

	return &simpleIterator{results: results}, nil
}

// Collect drains an iterator into a slice and closes it
func Collect(it QueryIterator) []QueryResult {
	defer it.Close()
	var out []QueryResult
	for it.Next() {
		out = append(out, it.Result())
	}
	return out
}

// simpleIterator implements QueryIterator over buffered results
type simpleIterator struct {
	results []QueryResult
	index   int
}

func (it *simpleIterator) Next() bool {
	if it.index < len(it.results) {
		it.index++
		return true
	}
	return false
}

func (it *simpleIterator) Result() QueryResult {
	if it.index > 0 && it.index <= len(it.results) {
		return it.results[it.index-1]
	}
	return QueryResult{}
}

func (it *simpleIterator) Close() error {
	return nil
}
