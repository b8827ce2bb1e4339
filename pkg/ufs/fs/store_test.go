package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/mirrorfs/pkg/ufs"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	return s, dir
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestNewRejectsMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestNewRejectsFileRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := New(file)
	assert.Error(t, err)
}

func TestGetStatusFile(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, "data/report.csv", "hello")

	status, err := s.GetStatus(context.Background(), "/data/report.csv")
	require.NoError(t, err)

	assert.Equal(t, "report.csv", status.Name)
	assert.False(t, status.IsDir)
	assert.Equal(t, uint64(5), status.Size)
	assert.NotEmpty(t, status.ContentHash)
	assert.Equal(t, uint32(0o644), status.Mode)
}

func TestGetStatusNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.GetStatus(context.Background(), "/missing")
	assert.ErrorIs(t, err, ufs.ErrNotFound)
}

func TestContentHashTracksContent(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, "f.txt", "version one")

	before, err := s.GetStatus(context.Background(), "/f.txt")
	require.NoError(t, err)

	// Same length, different bytes.
	writeFile(t, dir, "f.txt", "version two")
	after, err := s.GetStatus(context.Background(), "/f.txt")
	require.NoError(t, err)

	assert.NotEqual(t, before.ContentHash, after.ContentHash)
}

func TestListStatusSorted(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, "data/b.txt", "b")
	writeFile(t, dir, "data/a.txt", "a")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data", "sub"), 0o755))

	children, err := s.ListStatus(context.Background(), "/data")
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, "a.txt", children[0].Name)
	assert.Equal(t, "b.txt", children[1].Name)
	assert.Equal(t, "sub", children[2].Name)
	assert.True(t, children[2].IsDir)
}

func TestListStatusOnFile(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, "f.txt", "x")

	children, err := s.ListStatus(context.Background(), "/f.txt")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "f.txt", children[0].Name)
}

func TestResolveCannotEscapeRoot(t *testing.T) {
	s, dir := newTestStore(t)

	outside := filepath.Join(filepath.Dir(dir), "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))
	defer func() { _ = os.Remove(outside) }()

	_, err := s.GetStatus(context.Background(), "/../outside.txt")
	assert.ErrorIs(t, err, ufs.ErrNotFound)
}

func TestExists(t *testing.T) {
	s, dir := newTestStore(t)
	writeFile(t, dir, "f.txt", "x")

	ok, err := s.Exists(context.Background(), "/f.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(context.Background(), "/nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContextCancellation(t *testing.T) {
	s, _ := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetStatus(ctx, "/")
	assert.ErrorIs(t, err, context.Canceled)
}
