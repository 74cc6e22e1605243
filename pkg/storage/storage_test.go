package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/ssargent/boconv/pkg/codec"
	"github.com/ssargent/boconv/pkg/frame"
	"github.com/ssargent/boconv/pkg/models"
	"github.com/ssargent/boconv/pkg/record"
	"github.com/ssargent/boconv/pkg/schema"
	"github.com/ssargent/boconv/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecords(t *testing.T) *record.Codec {
	t.Helper()
	types := schema.NewRegistry(codec.NewRegistry())
	require.NoError(t, models.Register(types))
	return record.New(types)
}

// backends opens every FrameStore implementation in its own temp dir
func backends(t *testing.T) map[string]FrameStore {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "storage_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	pebbleStore, err := NewDefaultStorage(filepath.Join(tmpDir, "pebble"), frame.CompressionZstd)
	require.NoError(t, err)

	logStore, _, err := NewLogStorage(store.ObjectLogConfig{
		DataDir:     filepath.Join(tmpDir, "log"),
		Compression: frame.CompressionLZ4,
	})
	require.NoError(t, err)

	return map[string]FrameStore{"pebble": pebbleStore, "log": logStore}
}

func TestFrameStore_CRUD(t *testing.T) {
	for name, fs := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer fs.Close()

			id, err := fs.Create("Area", []byte("first"))
			require.NoError(t, err)

			f, err := fs.Read(id)
			require.NoError(t, err)
			assert.Equal(t, id, f.ID)
			assert.Equal(t, "Area", f.Type)
			data, err := f.Record()
			require.NoError(t, err)
			assert.Equal(t, []byte("first"), data)

			require.NoError(t, fs.Update(id, "Area", []byte("second")))
			f, err = fs.Read(id)
			require.NoError(t, err)
			data, err = f.Record()
			require.NoError(t, err)
			assert.Equal(t, []byte("second"), data)

			require.NoError(t, fs.Delete(id))
			_, err = fs.Read(id)
			assert.ErrorIs(t, err, ErrNotFound)

			assert.ErrorIs(t, fs.Delete(id), ErrNotFound)
			assert.ErrorIs(t, fs.Update(id, "Area", nil), ErrNotFound)
		})
	}
}

func TestFrameStore_List(t *testing.T) {
	for name, fs := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer fs.Close()

			var foods []ksuid.KSUID
			for i := 0; i < 3; i++ {
				id, err := fs.Create("Food", []byte{byte(i)})
				require.NoError(t, err)
				foods = append(foods, id)
				_, err = fs.Create("Area", []byte{byte(i)})
				require.NoError(t, err)
			}

			got, err := fs.List("Food")
			require.NoError(t, err)
			assert.ElementsMatch(t, foods, got)

			all, err := fs.List("")
			require.NoError(t, err)
			assert.Len(t, all, 6)

			none, err := fs.List("ZoneType")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestDefaultStorage_Reopen(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "storage_reopen_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	s, err := NewDefaultStorage(tmpDir, frame.CompressionNone)
	require.NoError(t, err)
	id, err := s.Create("Food", []byte("kept"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewDefaultStorage(tmpDir, frame.CompressionNone)
	require.NoError(t, err)
	defer s.Close()

	f, err := s.Read(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), f.Payload)
}

type recordingObserver struct {
	ops  []string
	errs int
}

func (r *recordingObserver) ObserveStorage(op, _ string, _ int, _ time.Duration, err error) {
	r.ops = append(r.ops, op)
	if err != nil {
		r.errs++
	}
}

func TestObjectStore_RoundTrip(t *testing.T) {
	records := newRecords(t)
	for name, fs := range backends(t) {
		t.Run(name, func(t *testing.T) {
			obs := &recordingObserver{}
			objects := NewObjectStore(fs, records, WithObserver(obs))
			defer objects.Close()

			food := models.SampleFood()
			id, err := objects.Put(food)
			require.NoError(t, err)

			var got models.Food
			require.NoError(t, objects.Get(id, &got))
			assert.Equal(t, *food.Name, *got.Name)
			assert.Equal(t, food.List, got.List)
			require.NotNil(t, got.Zone)
			assert.Equal(t, food.Zone.Zones, got.Zone.Zones)
			assert.Len(t, got.Zone.Areas, 3)

			typeName, raw, err := objects.Raw(id)
			require.NoError(t, err)
			assert.Equal(t, "Food", typeName)
			encoded, err := records.Encode(food)
			require.NoError(t, err)
			assert.Equal(t, encoded, raw)

			typeName, v, err := objects.Load(id)
			require.NoError(t, err)
			assert.Equal(t, "Food", typeName)
			assert.IsType(t, &models.Food{}, v)

			var area models.Area
			assert.ErrorIs(t, objects.Get(id, &area), ErrTypeMismatch)

			food.Name = models.Ptr("Dal")
			require.NoError(t, objects.Update(id, food))
			require.NoError(t, objects.Get(id, &got))
			assert.Equal(t, "Dal", *got.Name)

			ids, err := objects.List("Food")
			require.NoError(t, err)
			assert.Equal(t, []ksuid.KSUID{id}, ids)

			require.NoError(t, objects.Delete(id))
			assert.ErrorIs(t, objects.Get(id, &got), ErrNotFound)

			assert.Equal(t, []string{"put", "get", "get", "get", "update", "get", "delete", "get"}, obs.ops)
			assert.Equal(t, 2, obs.errs)
		})
	}
}

func TestObjectStore_UpdateKeepsType(t *testing.T) {
	records := newRecords(t)
	for name, fs := range backends(t) {
		t.Run(name, func(t *testing.T) {
			objects := NewObjectStore(fs, records)
			defer objects.Close()

			id, err := objects.Put(models.SampleFood())
			require.NoError(t, err)

			area := models.SampleArea(1)
			assert.ErrorIs(t, objects.Update(id, &area), ErrTypeMismatch)

			var got models.Food
			require.NoError(t, objects.Get(id, &got))
			assert.Equal(t, *models.SampleFood().Name, *got.Name)
		})
	}
}

func TestObjectStore_PutRaw(t *testing.T) {
	records := newRecords(t)
	for name, fs := range backends(t) {
		t.Run(name, func(t *testing.T) {
			objects := NewObjectStore(fs, records)
			defer objects.Close()

			data, err := records.Encode(models.SampleArea(7))
			require.NoError(t, err)

			id, err := objects.PutRaw("Area", data)
			require.NoError(t, err)

			var area models.Area
			require.NoError(t, objects.Get(id, &area))
			assert.Equal(t, "Area7", *area.Name)

			_, err = objects.PutRaw("Area", []byte{0x7f, 0x00})
			assert.ErrorIs(t, err, codec.ErrUnknownTag)

			_, err = objects.PutRaw("Nope", data)
			assert.ErrorIs(t, err, codec.ErrUnsupportedType)
		})
	}
}

func TestObjectStore_RejectsUnregisteredTypes(t *testing.T) {
	records := newRecords(t)
	for name, fs := range backends(t) {
		t.Run(name, func(t *testing.T) {
			objects := NewObjectStore(fs, records)
			defer objects.Close()

			type loose struct {
				N *int32 `bo:"0x01,int"`
			}
			_, err := objects.Put(&loose{})
			assert.ErrorIs(t, err, codec.ErrUnsupportedType)

			_, err = objects.Put(nil)
			assert.ErrorIs(t, err, codec.ErrInvalidValue)
		})
	}
}
