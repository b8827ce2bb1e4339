// Package memory implements an in-memory under-store.
//
// Used in tests and as a reference implementation of store semantics:
// mutations through Put and Remove are immediately visible, making it
// easy to simulate out-of-band changes between sync passes.
package memory

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/marmos91/mirrorfs/pkg/ufs"
)

// Store is a map-backed under-store. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	objects map[string]*ufs.Status
	closed  bool
}

var _ ufs.Store = (*Store)(nil)

// New creates an empty store containing only the root directory.
func New() *Store {
	s := &Store{objects: make(map[string]*ufs.Status)}
	s.objects["/"] = &ufs.Status{Name: "/", IsDir: true, ModTime: time.Now()}
	return s
}

// Name identifies the store kind.
func (s *Store) Name() string { return "memory" }

// Put stores a file status at path, creating missing parent
// directories. The status Name field is derived from the path.
func (s *Store) Put(p string, status ufs.Status) {
	p = clean(p)
	status.Name = path.Base(p)
	status.IsDir = false
	if status.ModTime.IsZero() {
		status.ModTime = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureParentsLocked(p)
	s.objects[p] = &status
}

// PutDir stores a directory status at path, creating missing parents.
func (s *Store) PutDir(p string, status ufs.Status) {
	p = clean(p)
	status.Name = path.Base(p)
	status.IsDir = true
	status.Size = 0
	if status.ModTime.IsZero() {
		status.ModTime = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureParentsLocked(p)
	s.objects[p] = &status
}

// Remove deletes path and everything under it. Removing the root
// clears the store back to an empty root directory.
func (s *Store) Remove(p string) {
	p = clean(p)

	s.mu.Lock()
	defer s.mu.Unlock()
	if p == "/" {
		s.objects = map[string]*ufs.Status{
			"/": {Name: "/", IsDir: true, ModTime: time.Now()},
		}
		return
	}
	prefix := p + "/"
	for k := range s.objects {
		if k == p || strings.HasPrefix(k, prefix) {
			delete(s.objects, k)
		}
	}
}

// Exists reports whether path exists.
func (s *Store) Exists(_ context.Context, p string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, ufs.ErrUnavailable
	}
	_, ok := s.objects[clean(p)]
	return ok, nil
}

// GetStatus returns the status of a single path.
func (s *Store) GetStatus(_ context.Context, p string) (*ufs.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ufs.ErrUnavailable
	}
	status, ok := s.objects[clean(p)]
	if !ok {
		return nil, ufs.ErrNotFound
	}
	cp := *status
	return &cp, nil
}

// ListStatus returns the direct children of path in lexical order of
// their keys. Listing a file returns the file's own status.
func (s *Store) ListStatus(_ context.Context, p string) ([]*ufs.Status, error) {
	p = clean(p)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ufs.ErrUnavailable
	}
	status, ok := s.objects[p]
	if !ok {
		return nil, ufs.ErrNotFound
	}
	if !status.IsDir {
		cp := *status
		return []*ufs.Status{&cp}, nil
	}

	prefix := p + "/"
	if p == "/" {
		prefix = "/"
	}
	var children []*ufs.Status
	for k, v := range s.objects {
		if k == p || !strings.HasPrefix(k, prefix) {
			continue
		}
		if strings.Contains(k[len(prefix):], "/") {
			continue // not a direct child
		}
		cp := *v
		children = append(children, &cp)
	}
	sortStatuses(children)
	return children, nil
}

// Close marks the store unavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ensureParentsLocked creates missing directories above p.
func (s *Store) ensureParentsLocked(p string) {
	for dir := path.Dir(p); ; dir = path.Dir(dir) {
		if _, ok := s.objects[dir]; !ok {
			s.objects[dir] = &ufs.Status{
				Name:    path.Base(dir),
				IsDir:   true,
				ModTime: time.Now(),
			}
		}
		if dir == "/" {
			return
		}
	}
}

func clean(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func sortStatuses(statuses []*ufs.Status) {
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})
}
