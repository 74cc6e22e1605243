package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/ssargent/boconv/pkg/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func openLog(t *testing.T, dir string, compression frame.Compression) *ObjectLog {
	t.Helper()
	log, err := NewObjectLog(ObjectLogConfig{DataDir: dir, Compression: compression})
	require.NoError(t, err)
	_, err = log.Open()
	require.NoError(t, err)
	return log
}

func tempDir(t *testing.T, prefix string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", prefix)
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

func TestNewObjectLog(t *testing.T) {
	_, err := NewObjectLog(ObjectLogConfig{})
	assert.Error(t, err)

	dir := tempDir(t, "object_log_new")
	log, err := NewObjectLog(ObjectLogConfig{DataDir: dir})
	require.NoError(t, err)

	// Not usable until opened
	_, err = log.Put("Food", []byte{0x01})
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, &LogStats{}, log.Stats())
	assert.NoError(t, log.Close())
}

func TestObjectLog_PutGet(t *testing.T) {
	for _, c := range []frame.Compression{frame.CompressionNone, frame.CompressionLZ4, frame.CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			log := openLog(t, tempDir(t, "object_log_put"), c)
			defer log.Close()

			payload := bytes.Repeat([]byte{0x01, 0x2a, 0x00, 0x00, 0x00}, 100)
			id, err := log.Put("Food", payload)
			require.NoError(t, err)
			assert.NotEqual(t, ksuid.Nil, id)

			f, err := log.Get(id)
			require.NoError(t, err)
			assert.Equal(t, id, f.ID)
			assert.Equal(t, "Food", f.Type)

			typeName, data, err := log.Record(id)
			require.NoError(t, err)
			assert.Equal(t, "Food", typeName)
			assert.Equal(t, payload, data)
		})
	}
}

func TestObjectLog_GetMissing(t *testing.T) {
	log := openLog(t, tempDir(t, "object_log_missing"), frame.CompressionNone)
	defer log.Close()

	_, err := log.Get(ksuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	err = log.Delete(ksuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	err = log.Update(ksuid.New(), "Food", []byte{0x01})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestObjectLog_UpdateAndDelete(t *testing.T) {
	log := openLog(t, tempDir(t, "object_log_update"), frame.CompressionNone)
	defer log.Close()

	id, err := log.Put("Area", []byte("v1"))
	require.NoError(t, err)
	require.NoError(t, log.Update(id, "Area", []byte("v2")))
	assert.ErrorIs(t, log.Update(id, "Food", []byte("v3")), ErrTypeChange)

	typeName, data, err := log.Record(id)
	require.NoError(t, err)
	assert.Equal(t, "Area", typeName)
	assert.Equal(t, []byte("v2"), data)

	require.NoError(t, log.Delete(id))
	_, err = log.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)

	stats := log.Stats()
	assert.Equal(t, 0, stats.Objects)
	assert.Equal(t, int64(3), stats.Frames)
	assert.Equal(t, int64(1), stats.Tombstones)
	assert.Greater(t, stats.DataSize, int64(0))
}

func TestObjectLog_EmptyRecordIsNotATombstone(t *testing.T) {
	dir := tempDir(t, "object_log_empty")
	log := openLog(t, dir, frame.CompressionNone)

	id, err := log.Put("Food", nil)
	require.NoError(t, err)
	require.NoError(t, log.Close())

	log = openLog(t, dir, frame.CompressionNone)
	defer log.Close()

	_, data, err := log.Record(id)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestObjectLog_Reopen(t *testing.T) {
	dir := tempDir(t, "object_log_reopen")
	log := openLog(t, dir, frame.CompressionZstd)

	ids := make(map[ksuid.KSUID][]byte)
	for i := 0; i < 50; i++ {
		payload := []byte(fmt.Sprintf("record-%03d", i))
		id, err := log.Put("Food", payload)
		require.NoError(t, err)
		ids[id] = payload
	}
	var deleted ksuid.KSUID
	for id := range ids {
		deleted = id
		break
	}
	require.NoError(t, log.Delete(deleted))
	delete(ids, deleted)
	require.NoError(t, log.Close())

	log, err := NewObjectLog(ObjectLogConfig{DataDir: dir})
	require.NoError(t, err)
	recovery, err := log.Open()
	require.NoError(t, err)
	defer log.Close()

	assert.Equal(t, int64(51), recovery.FramesValidated)
	assert.Zero(t, recovery.FramesTruncated)
	assert.True(t, recovery.IndexRebuilt)

	for id, payload := range ids {
		_, data, err := log.Record(id)
		require.NoError(t, err)
		assert.Equal(t, payload, data)
	}
	_, err = log.Get(deleted)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, len(ids), log.Stats().Objects)
}

func TestObjectLog_RejectsOversizedFrame(t *testing.T) {
	dir := tempDir(t, "object_log_oversized")
	log := openLog(t, dir, frame.CompressionNone)

	before, err := log.Put("Food", []byte("before"))
	require.NoError(t, err)
	_, err = log.Put("Food", make([]byte, frame.MaxBodySize))
	assert.ErrorIs(t, err, frame.ErrTooLarge)
	assert.ErrorIs(t, log.Update(before, "Food", make([]byte, frame.MaxBodySize)), frame.ErrTooLarge)
	after, err := log.Put("Food", []byte("after"))
	require.NoError(t, err)
	require.NoError(t, log.Close())

	log, err = NewObjectLog(ObjectLogConfig{DataDir: dir})
	require.NoError(t, err)
	recovery, err := log.Open()
	require.NoError(t, err)
	defer log.Close()

	assert.Equal(t, int64(2), recovery.FramesValidated)
	assert.Zero(t, recovery.FramesTruncated)
	for id, want := range map[ksuid.KSUID]string{before: "before", after: "after"} {
		_, data, err := log.Record(id)
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	}
}

func TestObjectLog_ScanByType(t *testing.T) {
	log := openLog(t, tempDir(t, "object_log_scan"), frame.CompressionNone)
	defer log.Close()

	for i := 0; i < 3; i++ {
		_, err := log.Put("Food", []byte{byte(i)})
		require.NoError(t, err)
		_, err = log.Put("Area", []byte{byte(i)})
		require.NoError(t, err)
	}

	var foods int
	err := log.Scan("Food", func(f *frame.Frame) error {
		assert.Equal(t, "Food", f.Type)
		foods++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, foods)

	var all int
	require.NoError(t, log.Scan("", func(*frame.Frame) error { all++; return nil }))
	assert.Equal(t, 6, all)

	stop := fmt.Errorf("stop")
	err = log.Scan("", func(*frame.Frame) error { return stop })
	assert.ErrorIs(t, err, stop)

	ids, err := log.IDs("Area")
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}

func TestObjectLog_BufferedReadAfterWrite(t *testing.T) {
	log, err := NewObjectLog(ObjectLogConfig{
		DataDir:       tempDir(t, "object_log_buffered"),
		FsyncInterval: time.Hour,
	})
	require.NoError(t, err)
	_, err = log.Open()
	require.NoError(t, err)
	defer log.Close()

	for i := 0; i < 20; i++ {
		payload := []byte(fmt.Sprintf("value-%d", i))
		id, err := log.Put("Food", payload)
		require.NoError(t, err)

		_, data, err := log.Record(id)
		require.NoError(t, err, "read immediately after write %d", i)
		assert.Equal(t, payload, data)
	}
}

func TestObjectLog_ConcurrentReadWrite(t *testing.T) {
	log := openLog(t, tempDir(t, "object_log_concurrent"), frame.CompressionLZ4)
	defer log.Close()

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				payload := []byte(fmt.Sprintf("g%d-i%d", g, i))
				id, err := log.Put("Food", payload)
				if !assert.NoError(t, err) {
					return
				}
				_, data, err := log.Record(id)
				assert.NoError(t, err)
				assert.Equal(t, payload, data)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 200, log.Stats().Objects)
}

func TestObjectLog_RecoveryTruncatesTornTail(t *testing.T) {
	dir := tempDir(t, "object_log_recovery")
	log := openLog(t, dir, frame.CompressionNone)
	id, err := log.Put("Food", []byte("survives"))
	require.NoError(t, err)
	require.NoError(t, log.Close())

	info, err := os.Stat(log.Path())
	require.NoError(t, err)
	validSize := info.Size()

	torn := frame.Marshal(newTestFrame(t, "Food", []byte("half written")))
	file, err := os.OpenFile(log.Path(), os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = file.Write(torn[:frame.HeaderSize+2])
	require.NoError(t, err)
	require.NoError(t, file.Close())

	core, logs := observer.New(zap.WarnLevel)
	log, err = NewObjectLog(ObjectLogConfig{DataDir: dir, Logger: zap.New(core)})
	require.NoError(t, err)
	recovery, err := log.Open()
	require.NoError(t, err)
	defer log.Close()

	assert.Equal(t, int64(1), recovery.FramesValidated)
	assert.Equal(t, int64(1), recovery.FramesTruncated)
	assert.Equal(t, validSize, recovery.FileSizeAfter)
	assert.Greater(t, recovery.FileSizeBefore, recovery.FileSizeAfter)
	assert.Equal(t, 1, logs.FilterMessage("truncated damaged log tail").Len())

	info, err = os.Stat(log.Path())
	require.NoError(t, err)
	assert.Equal(t, validSize, info.Size())

	_, data, err := log.Record(id)
	require.NoError(t, err)
	assert.Equal(t, []byte("survives"), data)

	// New writes land after the truncation point
	next, err := log.Put("Food", []byte("after recovery"))
	require.NoError(t, err)
	_, data, err = log.Record(next)
	require.NoError(t, err)
	assert.Equal(t, []byte("after recovery"), data)
}

func TestObjectLog_RecoveryDropsCorruptFrame(t *testing.T) {
	dir := tempDir(t, "object_log_corrupt")
	log := openLog(t, dir, frame.CompressionNone)
	first, err := log.Put("Food", []byte("first"))
	require.NoError(t, err)
	second, err := log.Put("Food", []byte("second"))
	require.NoError(t, err)
	require.NoError(t, log.Close())

	data, err := os.ReadFile(log.Path())
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, os.WriteFile(log.Path(), data, 0600))

	log = openLog(t, dir, frame.CompressionNone)
	defer log.Close()

	_, err = log.Get(first)
	assert.NoError(t, err)
	_, err = log.Get(second)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestObjectLog_Explain(t *testing.T) {
	log := openLog(t, tempDir(t, "object_log_explain"), frame.CompressionNone)
	defer log.Close()

	for i := 0; i < 4; i++ {
		_, err := log.Put("Food", bytes.Repeat([]byte{byte(i)}, 64))
		require.NoError(t, err)
	}
	area, err := log.Put("Area", []byte("area"))
	require.NoError(t, err)
	require.NoError(t, log.Delete(area))

	res, err := log.Explain(context.Background(), ExplainOptions{WithSamples: 2})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Global.LiveObjects)
	assert.Equal(t, int64(6), res.Global.Frames)
	assert.Equal(t, int64(1), res.Global.Tombstones)
	assert.Greater(t, res.Global.TotalSizeMB, res.Global.LiveSizeMB)
	assert.Greater(t, res.Global.DeadPct, 0.0)
	assert.Equal(t, []string{"Food"}, res.TypeNames())
	assert.Equal(t, 4, res.Types["Food"].Objects)
	assert.Len(t, res.Samples, 2)

	res, err = log.Explain(context.Background(), ExplainOptions{Type: "Area"})
	require.NoError(t, err)
	assert.Zero(t, res.Global.LiveObjects)
	assert.NotEmpty(t, res.Warnings)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = log.Explain(ctx, ExplainOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseID(t *testing.T) {
	id := ksuid.New()
	got, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseID("not-an-id")
	assert.ErrorIs(t, err, ErrInvalidID)
}
