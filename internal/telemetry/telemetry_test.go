package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "mirrorfs", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Should be able to call shutdown without error
	err = shutdown(ctx)
	assert.NoError(t, err)

	// Should not be enabled
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	// Reset state
	tracer = nil
	enabled = false

	// Without initialization, should return no-op tracer
	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	// Even without initialization, StartSpan should work (no-op)
	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)

	// Should be able to end the span
	span.End()
}

func TestSpanFromContext(t *testing.T) {
	ctx := context.Background()

	// Should return a span even without active span
	span := SpanFromContext(ctx)
	require.NotNil(t, span)
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()

	// Should not panic with no active span
	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()

	// Should not panic with nil error
	require.NotPanics(t, func() {
		RecordError(ctx, nil)
	})

	// Should not panic with error
	require.NotPanics(t, func() {
		RecordError(ctx, errors.New("test error"))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Ok, "success")
	})

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Error, "failed")
	})
}

func TestSetAttributes(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetAttributes(ctx, FSPath("/data"))
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	traceID := TraceID(ctx)
	assert.Equal(t, "", traceID)
}

func TestSpanID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	spanID := SpanID(ctx)
	assert.Equal(t, "", spanID)
}

func TestAttributeHelpers(t *testing.T) {
	t.Run("FSOperation", func(t *testing.T) {
		attr := FSOperation("get_status")
		assert.Equal(t, AttrOperation, string(attr.Key))
		assert.Equal(t, "get_status", attr.Value.AsString())
	})

	t.Run("FSPath", func(t *testing.T) {
		attr := FSPath("/data/reports")
		assert.Equal(t, AttrPath, string(attr.Key))
		assert.Equal(t, "/data/reports", attr.Value.AsString())
	})

	t.Run("FSSize", func(t *testing.T) {
		attr := FSSize(1048576)
		assert.Equal(t, AttrSize, string(attr.Key))
		assert.Equal(t, int64(1048576), attr.Value.AsInt64())
	})

	t.Run("FSMode", func(t *testing.T) {
		attr := FSMode(0o755)
		assert.Equal(t, AttrMode, string(attr.Key))
		assert.Equal(t, int64(0o755), attr.Value.AsInt64())
	})

	t.Run("SyncPassID", func(t *testing.T) {
		attr := SyncPassID("pass-42")
		assert.Equal(t, AttrSyncPassID, string(attr.Key))
		assert.Equal(t, "pass-42", attr.Value.AsString())
	})

	t.Run("SyncPolicy", func(t *testing.T) {
		attr := SyncPolicy("all")
		assert.Equal(t, AttrSyncPolicy, string(attr.Key))
		assert.Equal(t, "all", attr.Value.AsString())
	})

	t.Run("SyncStatus", func(t *testing.T) {
		attr := SyncStatus("ok")
		assert.Equal(t, AttrSyncStatus, string(attr.Key))
		assert.Equal(t, "ok", attr.Value.AsString())
	})

	t.Run("SyncCounters", func(t *testing.T) {
		assert.Equal(t, int64(3), SyncCreated(3).Value.AsInt64())
		assert.Equal(t, int64(2), SyncUpdated(2).Value.AsInt64())
		assert.Equal(t, int64(1), SyncDeleted(1).Value.AsInt64())
		assert.Equal(t, int64(0), SyncFailed(0).Value.AsInt64())
	})

	t.Run("JournalEntries", func(t *testing.T) {
		attr := JournalEntries(100)
		assert.Equal(t, AttrJournalEntries, string(attr.Key))
		assert.Equal(t, int64(100), attr.Value.AsInt64())
	})

	t.Run("UFSName", func(t *testing.T) {
		attr := UFSName("s3")
		assert.Equal(t, AttrUFSName, string(attr.Key))
		assert.Equal(t, "s3", attr.Value.AsString())
	})

	t.Run("Bucket", func(t *testing.T) {
		attr := Bucket("my-bucket")
		assert.Equal(t, AttrBucket, string(attr.Key))
		assert.Equal(t, "my-bucket", attr.Value.AsString())
	})

	t.Run("StorageKey", func(t *testing.T) {
		attr := StorageKey("path/to/object")
		assert.Equal(t, AttrKey, string(attr.Key))
		assert.Equal(t, "path/to/object", attr.Value.AsString())
	})
}

func TestStartMasterSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartMasterSpan(ctx, "get_status", "/data/file.txt")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// With additional attributes
	newCtx2, span2 := StartMasterSpan(ctx, "delete", "/data", SyncPolicy("all"))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartSyncSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartSyncSpan(ctx, "pass-1", "/data", "one")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestStartUFSSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartUFSSpan(ctx, "s3", "list_status", "/data")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// With additional attributes
	newCtx2, span2 := StartUFSSpan(ctx, "fs", "get_status", "/data/f", FSSize(42))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}
