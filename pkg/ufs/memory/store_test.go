package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/mirrorfs/pkg/ufs"
)

func TestStoreRootAlwaysExists(t *testing.T) {
	s := New()
	ctx := context.Background()

	status, err := s.GetStatus(ctx, "/")
	require.NoError(t, err)
	assert.True(t, status.IsDir)
}

func TestStorePutCreatesParents(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Put("/a/b/c.txt", ufs.Status{Size: 10, ContentHash: "h1"})

	for _, dir := range []string{"/a", "/a/b"} {
		status, err := s.GetStatus(ctx, dir)
		require.NoError(t, err, "parent %s should exist", dir)
		assert.True(t, status.IsDir)
	}

	status, err := s.GetStatus(ctx, "/a/b/c.txt")
	require.NoError(t, err)
	assert.False(t, status.IsDir)
	assert.Equal(t, "c.txt", status.Name)
	assert.Equal(t, uint64(10), status.Size)
}

func TestStoreListStatusDirectChildrenOnly(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Put("/a/f1.txt", ufs.Status{})
	s.Put("/a/f2.txt", ufs.Status{})
	s.Put("/a/sub/deep.txt", ufs.Status{})

	children, err := s.ListStatus(ctx, "/a")
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, "f1.txt", children[0].Name)
	assert.Equal(t, "f2.txt", children[1].Name)
	assert.Equal(t, "sub", children[2].Name)
}

func TestStoreListStatusOnFile(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Put("/f.txt", ufs.Status{Size: 5})

	children, err := s.ListStatus(ctx, "/f.txt")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "f.txt", children[0].Name)
}

func TestStoreNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.GetStatus(ctx, "/missing")
	assert.ErrorIs(t, err, ufs.ErrNotFound)

	_, err = s.ListStatus(ctx, "/missing")
	assert.ErrorIs(t, err, ufs.ErrNotFound)

	exists, err := s.Exists(ctx, "/missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStoreRemoveSubtree(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Put("/a/f.txt", ufs.Status{})
	s.Put("/a/sub/g.txt", ufs.Status{})
	s.Put("/b/h.txt", ufs.Status{})

	s.Remove("/a")

	_, err := s.GetStatus(ctx, "/a")
	assert.ErrorIs(t, err, ufs.ErrNotFound)
	_, err = s.GetStatus(ctx, "/a/sub/g.txt")
	assert.ErrorIs(t, err, ufs.ErrNotFound)

	_, err = s.GetStatus(ctx, "/b/h.txt")
	assert.NoError(t, err)
}

func TestStoreReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Put("/f.txt", ufs.Status{Owner: "alice"})

	status, err := s.GetStatus(ctx, "/f.txt")
	require.NoError(t, err)
	status.Owner = "mallory"

	again, err := s.GetStatus(ctx, "/f.txt")
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Owner)
}

func TestStoreClosed(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Close())

	_, err := s.GetStatus(ctx, "/")
	assert.ErrorIs(t, err, ufs.ErrUnavailable)
}
