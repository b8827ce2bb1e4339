// Package fs implements an under-store backed by a local filesystem
// directory. Content identity is a SHA-256 digest of the file bytes,
// so edits made behind the master's back change the fingerprint even
// when size and mtime are preserved.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/marmos91/mirrorfs/pkg/ufs"
)

// Store serves under-store metadata from a directory tree rooted at a
// local path. Safe for concurrent use; it holds no mutable state.
type Store struct {
	root string
}

var _ ufs.Store = (*Store)(nil)

// New creates a store rooted at dir. The directory must exist.
func New(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat root %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", dir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", dir, err)
	}
	return &Store{root: abs}, nil
}

// Name identifies the store kind.
func (s *Store) Name() string { return "fs" }

// Exists reports whether path exists under the root.
func (s *Store) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(s.resolve(p))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetStatus stats a single path.
func (s *Store) GetStatus(ctx context.Context, p string) (*ufs.Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	local := s.resolve(p)
	info, err := os.Stat(local)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ufs.ErrNotFound
		}
		return nil, fmt.Errorf("stat %q: %w", p, err)
	}
	return s.statusFromInfo(local, info)
}

// ListStatus returns the direct children of path sorted by name.
// Listing a file returns the file's own status.
func (s *Store) ListStatus(ctx context.Context, p string) ([]*ufs.Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	local := s.resolve(p)
	info, err := os.Stat(local)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ufs.ErrNotFound
		}
		return nil, fmt.Errorf("stat %q: %w", p, err)
	}
	if !info.IsDir() {
		status, err := s.statusFromInfo(local, info)
		if err != nil {
			return nil, err
		}
		return []*ufs.Status{status}, nil
	}

	entries, err := os.ReadDir(local)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", p, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	statuses := make([]*ufs.Status, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		childInfo, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue // removed between ReadDir and Info
			}
			return nil, fmt.Errorf("stat child %q: %w", entry.Name(), err)
		}
		status, err := s.statusFromInfo(filepath.Join(local, entry.Name()), childInfo)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Close is a no-op for the local filesystem.
func (s *Store) Close() error { return nil }

// resolve maps a namespace path to a local path under the root.
// The leading clean keeps ".." segments from escaping the root.
func (s *Store) resolve(p string) string {
	p = path.Clean("/" + p)
	return filepath.Join(s.root, filepath.FromSlash(p))
}

func (s *Store) statusFromInfo(local string, info os.FileInfo) (*ufs.Status, error) {
	status := &ufs.Status{
		Name:    info.Name(),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
		Mode:    uint32(info.Mode().Perm()),
	}
	status.Owner, status.Group = ownership(info)

	if !info.IsDir() {
		status.Size = uint64(info.Size())
		hash, err := hashFile(local)
		if err != nil {
			return nil, err
		}
		status.ContentHash = hash
	}
	return status, nil
}

func hashFile(local string) (string, error) {
	f, err := os.Open(local)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ufs.ErrNotFound
		}
		return "", fmt.Errorf("open %q: %w", local, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %q: %w", local, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
