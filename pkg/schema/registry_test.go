package schema

import (
	"reflect"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/boconv/pkg/codec"
)

type zone struct {
	Name   *string  `bo:"0x10,string"`
	Cal    *int32   `bo:"0x11,int,required"`
	Fixed  *string  `bo:"0x12,string,width=8"`
	Ignore string   `bo:"-"`
	Plain  int64    `bo:"20,long"`
	Notes  []string `bo:"0x13,array,elem=string"`
}

type food struct {
	Name  *string   `bo:"0x10,string,required"`
	List  []float64 `bo:"0x13,array,elem=double,width=8"`
	Zone  *zone     `bo:"0x14,record"`
	Zones []zone    `bo:"0x15,array,elem=record"`
	skip  int
}

func newTestRegistry() *Registry {
	return NewRegistry(codec.NewRegistry())
}

func TestRegistry_FromTags(t *testing.T) {
	r := newTestRegistry()
	s, err := r.Register(food{})
	require.NoError(t, err)

	assert.Equal(t, "food", s.Name)
	require.Equal(t, 4, s.Len())

	name, ok := s.Field(0x10)
	require.True(t, ok)
	assert.Equal(t, "Name", name.Name)
	assert.Equal(t, codec.KindString, name.Kind)
	assert.Equal(t, uint32(0), name.Width)
	assert.True(t, name.Required)
	assert.True(t, name.Enveloped())

	list, ok := s.FieldByName("List")
	require.True(t, ok)
	assert.True(t, list.IsArray())
	assert.Equal(t, codec.KindDouble, list.Elem)
	assert.Equal(t, uint32(8), list.Width)
	assert.False(t, list.ElemFramed)
	assert.IsType(t, &codec.Array{}, list.Codec)

	z, ok := s.Field(0x14)
	require.True(t, ok)
	assert.True(t, z.IsRecord())
	require.NotNil(t, z.Child)
	assert.Equal(t, reflect.TypeOf(zone{}), z.Child.Type)

	zones, ok := s.Field(0x15)
	require.True(t, ok)
	assert.True(t, zones.ElemFramed)
	assert.Same(t, z.Child, zones.Child)
	assert.Nil(t, zones.Codec)

	_, ok = s.Field(0x99)
	assert.False(t, ok)
}

func TestRegistry_NestedFields(t *testing.T) {
	r := newTestRegistry()
	s, err := r.For(reflect.TypeOf(&zone{}))
	require.NoError(t, err)

	names := make([]string, 0, s.Len())
	for _, f := range s.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Name", "Cal", "Fixed", "Plain", "Notes"}, names)

	cal, _ := s.FieldByName("Cal")
	assert.Equal(t, uint32(4), cal.Width)
	assert.False(t, cal.Enveloped())

	fixed, _ := s.FieldByName("Fixed")
	assert.Equal(t, uint32(8), fixed.Width)

	plain, _ := s.Field(20)
	assert.Equal(t, "Plain", plain.Name)
	assert.False(t, plain.Nullable())

	notes, _ := s.FieldByName("Notes")
	assert.True(t, notes.ElemFramed)
	assert.Equal(t, reflect.TypeOf(""), notes.ElemType())

	again, err := r.For(reflect.TypeOf(zone{}))
	require.NoError(t, err)
	assert.Same(t, s, again)
}

func TestRegistry_Failures(t *testing.T) {
	type badCodec struct {
		A *int32 `bo:"0x01,decimal"`
	}
	type incompatible struct {
		A *int64 `bo:"0x01,int"`
	}
	type wrongWidth struct {
		A *int32 `bo:"0x01,int,width=8"`
	}
	type duplicate struct {
		A *int32 `bo:"0x01,int"`
		B *int32 `bo:"0x01,int"`
	}
	type noElem struct {
		A []int32 `bo:"0x01,array"`
	}
	type framedFixed struct {
		A []zone `bo:"0x01,array,elem=record,width=4"`
	}
	type recordWidth struct {
		A *zone `bo:"0x01,record,width=4"`
	}
	type badTag struct {
		A *int32 `bo:"0x100,int"`
	}
	type badOption struct {
		A *int32 `bo:"0x01,int,packed"`
	}
	type sliceOfPointer struct {
		A *[]int32 `bo:"0x01,array,elem=int"`
	}

	testCases := []struct {
		name string
		v    any
		want error
	}{
		{"unknown codec", badCodec{}, codec.ErrUnsupportedType},
		{"incompatible type", incompatible{}, codec.ErrIncompatible},
		{"width mismatch", wrongWidth{}, codec.ErrWidthMismatch},
		{"duplicate tag", duplicate{}, codec.ErrDuplicateTag},
		{"array without elem", noElem{}, codec.ErrUnsupportedType},
		{"fixed record elements", framedFixed{}, codec.ErrWidthMismatch},
		{"fixed record", recordWidth{}, codec.ErrWidthMismatch},
		{"tag out of range", badTag{}, codec.ErrInvalidValue},
		{"unknown option", badOption{}, codec.ErrInvalidValue},
		{"pointer to slice", sliceOfPointer{}, codec.ErrIncompatible},
		{"not a struct", 42, codec.ErrIncompatible},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestRegistry().Register(tc.v)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

type node struct {
	Value *int32 `bo:"0x01,int"`
	Next  *node  `bo:"0x02,record"`
}

type left struct {
	R *right `bo:"0x01,record"`
}

type right struct {
	L []left `bo:"0x01,array,elem=record"`
}

func TestRegistry_RejectsCycles(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Register(node{})
	assert.True(t, errors.Is(err, codec.ErrCyclicSchema), "got %v", err)

	_, err = r.Register(left{})
	assert.True(t, errors.Is(err, codec.ErrCyclicSchema), "got %v", err)

	var cerr *codec.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "register", cerr.Op)
}

func TestRegistry_ErrorContext(t *testing.T) {
	type incompatible struct {
		Amount *int64 `bo:"0x12,double"`
	}
	_, err := newTestRegistry().Register(incompatible{})

	var cerr *codec.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "incompatible", cerr.Type)
	assert.Equal(t, "Amount", cerr.Field)
	assert.Equal(t, 0x12, cerr.Tag)
}

type untagged struct {
	Name   *string
	Amount *float64
	Zone   *zone
}

func TestRegistry_Builder(t *testing.T) {
	r := newTestRegistry()
	b := NewBuilder(&untagged{}).
		Field("Amount", 0x02, "double", Required()).
		Field("Name", 0x01, "string", Width(16)).
		Field("Zone", 0x03, "record")

	s, err := r.Define("Untagged", b)
	require.NoError(t, err)
	assert.Equal(t, "Untagged", s.Name)
	assert.Equal(t, reflect.TypeOf(untagged{}), b.Type())

	fields := s.Fields()
	require.Len(t, fields, 3)
	assert.Equal(t, "Amount", fields[0].Name)
	assert.True(t, fields[0].Required)
	assert.Equal(t, uint32(16), fields[1].Width)
	assert.NotNil(t, fields[2].Child)

	got, ok := r.Lookup("Untagged")
	require.True(t, ok)
	assert.Same(t, s, got)

	v, err := r.New("Untagged")
	require.NoError(t, err)
	assert.IsType(t, &untagged{}, v)

	_, err = r.Define("Again", b)
	assert.Error(t, err)
}

func TestRegistry_BuilderMissingField(t *testing.T) {
	b := NewBuilder(untagged{}).Field("Missing", 0x01, "int")
	_, err := newTestRegistry().Define("Untagged", b)
	assert.True(t, errors.Is(err, codec.ErrMissingFieldMapping), "got %v", err)

	b = NewBuilder(food{}).Field("skip", 0x01, "int")
	_, err = newTestRegistry().Define("Food", b)
	assert.True(t, errors.Is(err, codec.ErrMissingFieldMapping), "got %v", err)
}

func TestRegistry_Names(t *testing.T) {
	r := newTestRegistry()
	_, err := r.RegisterNamed("Zone", zone{})
	require.NoError(t, err)
	_, err = r.Register(food{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Zone", "food"}, r.Names())

	_, err = r.New("nope")
	assert.True(t, errors.Is(err, codec.ErrUnsupportedType))

	_, err = r.RegisterNamed("Zone", food{})
	assert.Error(t, err)
}

type span [2]int32

type spanCodec struct{ codec.Integer }

func (spanCodec) Kind() codec.Kind        { return codec.KindCustom }
func (spanCodec) Width() uint32           { return 8 }
func (spanCodec) ValueType() reflect.Type { return reflect.TypeOf(span{}) }
func (spanCodec) Default() any            { return span{} }

func TestRegistry_CustomCodec(t *testing.T) {
	type withSpan struct {
		S *span `bo:"0x01,span"`
	}

	codecs := codec.NewRegistry()
	require.NoError(t, codecs.Register("span", codec.KindCustom, func() codec.Codec { return spanCodec{} }))

	s, err := NewRegistry(codecs).Register(withSpan{})
	require.NoError(t, err)
	f, _ := s.Field(0x01)
	assert.Equal(t, codec.KindCustom, f.Kind)
	assert.Equal(t, uint32(8), f.Width)

	_, err = NewRegistry(codec.NewRegistry()).Register(withSpan{})
	assert.True(t, errors.Is(err, codec.ErrUnsupportedType))
}

func TestRegistry_ConcurrentFor(t *testing.T) {
	r := newTestRegistry()
	var wg sync.WaitGroup
	results := make([]*Schema, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := r.For(reflect.TypeOf(food{}))
			assert.NoError(t, err)
			results[i] = s
		}(i)
	}
	wg.Wait()
	for _, s := range results[1:] {
		assert.Same(t, results[0], s)
	}
}

func TestField_String(t *testing.T) {
	s, err := newTestRegistry().Register(food{})
	require.NoError(t, err)
	f, _ := s.FieldByName("List")
	assert.Equal(t, "0x13 List array<double> width=8", f.String())
}
