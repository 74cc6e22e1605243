package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/boconv/pkg/codec"
	"github.com/ssargent/boconv/pkg/frame"
	"github.com/ssargent/boconv/pkg/models"
	"github.com/ssargent/boconv/pkg/record"
	"github.com/ssargent/boconv/pkg/schema"
	"github.com/ssargent/boconv/pkg/storage"
	"github.com/ssargent/boconv/pkg/store"
)

func TestFieldQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   FieldQuery
		wantErr bool
	}{
		{
			name:    "valid equality query",
			query:   FieldQuery{Field: "Area", Operator: "=", Value: 25},
			wantErr: false,
		},
		{
			name:    "valid range query",
			query:   FieldQuery{Field: "Area", Operator: ">", Value: 18},
			wantErr: false,
		},
		{
			name:    "valid tag query",
			query:   FieldQuery{Field: "0x88", Operator: "!=", Value: "x"},
			wantErr: false,
		},
		{
			name:    "empty field",
			query:   FieldQuery{Field: "", Operator: "=", Value: 25},
			wantErr: true,
		},
		{
			name:    "invalid operator",
			query:   FieldQuery{Field: "Area", Operator: "invalid", Value: 25},
			wantErr: true,
		},
		{
			name:    "nil value",
			query:   FieldQuery{Field: "Area", Operator: "="},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("FieldQuery.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFieldQuery_Matches(t *testing.T) {
	tests := []struct {
		name  string
		query FieldQuery
		value interface{}
		want  bool
	}{
		{"int32 equals float", FieldQuery{Operator: "=", Value: 42.0}, int32(42), true},
		{"int64 greater", FieldQuery{Operator: ">", Value: 10.0}, int64(11), true},
		{"double less equal", FieldQuery{Operator: "<=", Value: 2.5}, 2.5, true},
		{"string not equal", FieldQuery{Operator: "!=", Value: "a"}, "b", true},
		{"string ordering", FieldQuery{Operator: "<", Value: "b"}, "a", true},
		{"bool equals", FieldQuery{Operator: "=", Value: true}, true, true},
		{"bool mismatch", FieldQuery{Operator: "=", Value: false}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.query.Matches(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	q := FieldQuery{Operator: "=", Value: "x"}
	_, err := q.Matches(int32(1))
	assert.ErrorIs(t, err, ErrNotComparable)
}

func TestFieldQuery_MatchesText(t *testing.T) {
	tests := []struct {
		name  string
		query FieldQuery
		value interface{}
		want  bool
	}{
		{"number text against double", FieldQuery{Operator: ">=", Value: "2"}, 2.0, true},
		{"number text against int32", FieldQuery{Operator: "=", Value: "42"}, int32(42), true},
		{"bool text against bool", FieldQuery{Operator: "=", Value: "t"}, true, true},
		{"number text against string", FieldQuery{Operator: "=", Value: "123"}, "123", true},
		{"bool text against string", FieldQuery{Operator: "=", Value: "false"}, "false", true},
		{"text against string", FieldQuery{Operator: "<", Value: "b"}, "a", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.query.Matches(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	q := FieldQuery{Operator: "=", Value: "maybe"}
	_, err := q.Matches(true)
	assert.ErrorIs(t, err, ErrNotComparable)
}

func newObjects(t *testing.T) *storage.ObjectStore {
	t.Helper()
	types := schema.NewRegistry(codec.NewRegistry())
	require.NoError(t, models.Register(types))
	records := record.New(types)

	frames, _, err := storage.NewLogStorage(store.ObjectLogConfig{DataDir: t.TempDir(), Compression: frame.CompressionNone})
	require.NoError(t, err)
	objects := storage.NewObjectStore(frames, records)
	t.Cleanup(func() { _ = objects.Close() })
	return objects
}

func TestRecordFieldExtractor(t *testing.T) {
	objects := newObjects(t)
	extractor := NewRecordFieldExtractor(objects.Records())

	data, err := objects.Records().Encode(models.SampleFood())
	require.NoError(t, err)

	v, err := extractor.Extract("Food", data, "name")
	require.NoError(t, err)
	assert.Equal(t, "Alu vorta", v)

	v, err = extractor.Extract("Food", data, "0x11")
	require.NoError(t, err)
	assert.Equal(t, int32(42), v)

	data, err = objects.Records().Encode(&models.Area{Name: models.Ptr("Bare")})
	require.NoError(t, err)
	_, err = extractor.Extract("Area", data, "Area")
	assert.ErrorIs(t, err, ErrFieldNotFound)

	_, err = extractor.Extract("Nope", data, "Area")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestScanEngine_ExecuteQuery(t *testing.T) {
	objects := newObjects(t)
	for i := 0; i < 5; i++ {
		a := models.SampleArea(i)
		_, err := objects.Put(&a)
		require.NoError(t, err)
	}
	_, err := objects.Put(&models.Area{Name: models.Ptr("Unmeasured")})
	require.NoError(t, err)
	_, err = objects.Put(models.SampleFood())
	require.NoError(t, err)

	engine := NewScanEngine(objects)
	ctx := context.Background()

	it, err := engine.ExecuteQuery(ctx, "Area", FieldQuery{Field: "Name", Operator: "=", Value: "Area3"})
	require.NoError(t, err)
	results := Collect(it)
	require.Len(t, results, 1)
	assert.Equal(t, "Area", results[0].Type)
	assert.Equal(t, "Area3", *results[0].Object.(*models.Area).Name)

	it, err = engine.ExecuteQuery(ctx, "Area", FieldQuery{Field: "Area", Operator: ">=", Value: 2.0})
	require.NoError(t, err)
	assert.Len(t, Collect(it), 3)

	it, err = engine.ExecuteRangeQuery(ctx, "Area",
		FieldQuery{Field: "Area", Operator: ">", Value: 0.0},
		FieldQuery{Field: "Area", Operator: "<", Value: 4.0})
	require.NoError(t, err)
	assert.Len(t, Collect(it), 3)

	_, err = engine.ExecuteRangeQuery(ctx, "Area",
		FieldQuery{Field: "Area", Operator: ">", Value: 0.0},
		FieldQuery{Field: "Name", Operator: "<", Value: "z"})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = engine.ExecuteQuery(ctx, "Area", FieldQuery{Field: "Area", Operator: "=", Value: "text"})
	assert.ErrorIs(t, err, ErrNotComparable)

	_, err = engine.ExecuteQuery(ctx, "Nope", FieldQuery{Field: "Area", Operator: "=", Value: 1.0})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = engine.ExecuteQuery(cancelled, "Area", FieldQuery{Field: "Area", Operator: "=", Value: 1.0})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanEngine_TextValueOnStringField(t *testing.T) {
	objects := newObjects(t)
	for _, name := range []string{"123", "Porch", "t"} {
		_, err := objects.Put(&models.Area{Name: models.Ptr(name)})
		require.NoError(t, err)
	}
	engine := NewScanEngine(objects)

	for _, name := range []string{"123", "Porch", "t"} {
		it, err := engine.ExecuteQuery(context.Background(), "Area", FieldQuery{Field: "Name", Operator: "=", Value: name})
		require.NoError(t, err, name)
		results := Collect(it)
		require.Len(t, results, 1, name)
		assert.Equal(t, name, *results[0].Object.(*models.Area).Name)
	}
}

func TestSimpleIterator(t *testing.T) {
	it := &simpleIterator{}
	assert.False(t, it.Next())
	assert.Equal(t, QueryResult{}, it.Result())
	assert.NoError(t, it.Close())
}
