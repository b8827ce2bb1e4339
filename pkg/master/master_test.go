package master

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/mirrorfs/pkg/journal"
	jmemory "github.com/marmos91/mirrorfs/pkg/journal/memory"
	"github.com/marmos91/mirrorfs/pkg/namespace"
	"github.com/marmos91/mirrorfs/pkg/ufs"
	umemory "github.com/marmos91/mirrorfs/pkg/ufs/memory"
)

func TestNewValidation(t *testing.T) {
	_, err := New(DefaultConfig(), nil, jmemory.New())
	assert.Error(t, err)

	_, err = New(DefaultConfig(), umemory.New(), nil)
	assert.Error(t, err)

	m, err := New(Config{}, umemory.New(), jmemory.New())
	require.NoError(t, err)
	assert.NotNil(t, m.Tree())
	assert.NotNil(t, m.Syncer())
}

func TestGetStatusDiscoversStoreObjects(t *testing.T) {
	inner := umemory.New()
	inner.Put("/docs/readme.md", ufs.Status{Size: 42, ContentHash: "abc", Owner: "alice"})

	m, _ := newTestMaster(t, inner, DefaultConfig())

	attr, err := m.GetStatus(context.Background(), "/docs/readme.md")
	require.NoError(t, err)
	assert.Equal(t, namespace.TypeFile, attr.Type)
	assert.Equal(t, uint64(42), attr.Size)
	assert.Equal(t, "abc", attr.ContentHash)
}

func TestGetStatusNotFound(t *testing.T) {
	m, _ := newTestMaster(t, umemory.New(), DefaultConfig())

	_, err := m.GetStatus(context.Background(), "/missing.txt")
	assert.ErrorIs(t, err, namespace.ErrNotFound)
}

func TestGetStatusServesCachedOnStoreFailure(t *testing.T) {
	inner := umemory.New()
	inner.Put("/f.txt", ufs.Status{ContentHash: "h", Owner: "alice"})

	m, _ := newTestMaster(t, inner, DefaultConfig())
	ctx := context.Background()

	attr, err := m.GetStatus(ctx, "/f.txt")
	require.NoError(t, err)
	require.Equal(t, "alice", attr.Owner)

	require.NoError(t, inner.Close())

	// The pass fails but the cached answer survives.
	attr, err = m.GetStatus(ctx, "/f.txt")
	require.NoError(t, err)
	assert.Equal(t, "alice", attr.Owner)

	// Nothing cached means nothing to serve.
	_, err = m.GetStatus(ctx, "/other.txt")
	assert.ErrorIs(t, err, ErrSyncRequired)
}

func TestListStatus(t *testing.T) {
	inner := umemory.New()
	inner.Put("/data/b.txt", ufs.Status{ContentHash: "b"})
	inner.Put("/data/a.txt", ufs.Status{ContentHash: "a"})
	inner.PutDir("/data/nested", ufs.Status{})

	m, _ := newTestMaster(t, inner, DefaultConfig())

	entries, err := m.ListStatus(context.Background(), "/data")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.Equal(t, "b.txt", entries[1].Name)
	assert.Equal(t, "nested", entries[2].Name)
	assert.Equal(t, namespace.TypeDirectory, entries[2].Attr.Type)
}

func TestDelete(t *testing.T) {
	t.Run("NonEmptyRequiresRecursive", func(t *testing.T) {
		inner := umemory.New()
		inner.Put("/data/f.txt", ufs.Status{ContentHash: "h"})
		m, _ := newTestMaster(t, inner, DefaultConfig())
		ctx := context.Background()

		require.Equal(t, SyncOK, m.Sync(ctx, "/", DescendantAll, 0).Status)

		err := m.Delete(ctx, "/data", DeleteOptions{})
		assert.ErrorIs(t, err, namespace.ErrNotEmpty)
	})

	t.Run("RecursiveJournalsChildrenFirst", func(t *testing.T) {
		inner := umemory.New()
		inner.Put("/data/f.txt", ufs.Status{ContentHash: "h"})
		m, jsys := newTestMaster(t, inner, DefaultConfig())
		ctx := context.Background()

		require.Equal(t, SyncOK, m.Sync(ctx, "/", DescendantAll, 0).Status)
		jsys.Reset()

		require.NoError(t, m.Delete(ctx, "/data", DeleteOptions{Recursive: true}))
		assert.False(t, m.Tree().Exists("/data"))

		var deletes []string
		for _, e := range jsys.Entries() {
			if e.Op == journal.OpDelete {
				deletes = append(deletes, e.Path)
			}
		}
		assert.Equal(t, []string{"/data/f.txt", "/data"}, deletes)
	})

	t.Run("FailsWhenStoreUnreachable", func(t *testing.T) {
		inner := umemory.New()
		inner.Put("/data/f.txt", ufs.Status{ContentHash: "h"})
		m, _ := newTestMaster(t, inner, DefaultConfig())
		ctx := context.Background()

		require.Equal(t, SyncOK, m.Sync(ctx, "/", DescendantAll, 0).Status)
		require.NoError(t, inner.Close())

		err := m.Delete(ctx, "/data", DeleteOptions{Recursive: true})
		assert.ErrorIs(t, err, ErrSyncRequired)
		assert.True(t, m.Tree().Exists("/data"), "failed delete leaves the namespace intact")
	})
}

func TestRename(t *testing.T) {
	inner := umemory.New()
	inner.Put("/data/f.txt", ufs.Status{ContentHash: "h", Owner: "alice"})

	m, jsys := newTestMaster(t, inner, DefaultConfig())
	ctx := context.Background()

	require.Equal(t, SyncOK, m.Sync(ctx, "/", DescendantAll, 0).Status)
	jsys.Reset()

	require.NoError(t, m.Rename(ctx, "/data", "/archive"))

	assert.False(t, m.Tree().Exists("/data"))
	attr, err := m.Tree().GetAttr("/archive/f.txt")
	require.NoError(t, err)
	assert.Equal(t, "alice", attr.Owner)

	ops := map[string]journal.Op{}
	for _, e := range jsys.Entries() {
		ops[fmt.Sprintf("%s %s", e.Op, e.Path)] = e.Op
	}
	assert.Contains(t, ops, "delete /data")
	assert.Contains(t, ops, "delete /data/f.txt")
	assert.Contains(t, ops, "create /archive")
	assert.Contains(t, ops, "create /archive/f.txt")
}

func TestRecoverRebuildsNamespace(t *testing.T) {
	inner := umemory.New()
	inner.Put("/data/a.txt", ufs.Status{ContentHash: "a", Owner: "alice"})
	inner.Put("/data/b.txt", ufs.Status{ContentHash: "b"})

	first, jsys := newTestMaster(t, inner, DefaultConfig())
	ctx := context.Background()

	require.Equal(t, SyncOK, first.Sync(ctx, "/", DescendantAll, 0).Status)
	require.NoError(t, first.Delete(ctx, "/data/b.txt", DeleteOptions{}))

	// A replacement master replays the published entries and converges
	// to the same namespace.
	second, _ := newTestMaster(t, umemory.New(), DefaultConfig())
	require.NoError(t, second.Recover(jsys.Entries()))

	assert.Equal(t, first.Tree().Len(), second.Tree().Len())
	assert.True(t, second.Tree().Exists("/data/a.txt"))
	assert.False(t, second.Tree().Exists("/data/b.txt"))

	want, err := first.Tree().GetAttr("/data/a.txt")
	require.NoError(t, err)
	got, err := second.Tree().GetAttr("/data/a.txt")
	require.NoError(t, err)
	assert.Equal(t, want.Owner, got.Owner)
	assert.Equal(t, want.ContentHash, got.ContentHash)
	assert.Equal(t, want.Fingerprint, got.Fingerprint)
}

func TestRecoverRejectsCorruptPayload(t *testing.T) {
	m, _ := newTestMaster(t, umemory.New(), DefaultConfig())

	err := m.Recover([]journal.Entry{
		{Op: journal.OpCreate, Path: "/x", Payload: []byte("not json")},
	})
	assert.Error(t, err)
}

// A small threshold on a wide sync forces intermediate drains, and the
// result reports them.
func TestSyncForcedFlushesReported(t *testing.T) {
	inner := umemory.New()
	for i := 0; i < 10; i++ {
		inner.Put(fmt.Sprintf("/data/f%02d.txt", i), ufs.Status{ContentHash: fmt.Sprintf("h%d", i)})
	}

	cfg := DefaultConfig()
	cfg.MergeThreshold = 3
	m, jsys := newTestMaster(t, inner, cfg)

	result := m.Sync(context.Background(), "/", DescendantAll, 0)
	require.Equal(t, SyncOK, result.Status)
	assert.Greater(t, result.ForcedFlushes, uint64(0))

	// Every create still reached the journal exactly once.
	creates := 0
	for _, e := range jsys.Entries() {
		if e.Op == journal.OpCreate {
			creates++
		}
	}
	assert.Equal(t, 11, creates) // 10 files plus /data
}

func TestMasterClose(t *testing.T) {
	m, _ := newTestMaster(t, umemory.New(), DefaultConfig())
	require.NoError(t, m.Close())

	result := m.Sync(context.Background(), "/", DescendantNone, 0)
	assert.Equal(t, SyncFailed, result.Status)
}

func TestCloseErrorPrecedence(t *testing.T) {
	m, err := New(DefaultConfig(), &failingCloseStore{Store: umemory.New()}, jmemory.New())
	require.NoError(t, err)
	assert.Error(t, m.Close())
}

type failingCloseStore struct {
	ufs.Store
}

func (f *failingCloseStore) Close() error { return errors.New("close failed") }
