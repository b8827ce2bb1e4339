package namespace

import "sync"

// PathLocks hands out one mutex per namespace path so concurrent sync
// workers can serialize compare-and-mutate sequences on the same
// object while proceeding independently on different ones.
//
// Locks are never reclaimed; the table grows with the set of paths
// touched. Acceptable for metadata-sized namespaces.
type PathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPathLocks creates an empty lock table.
func NewPathLocks() *PathLocks {
	return &PathLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock for path, creating it on first use.
// The returned function releases it.
func (pl *PathLocks) Lock(path string) (unlock func()) {
	pl.mu.Lock()
	l, ok := pl.locks[path]
	if !ok {
		l = &sync.Mutex{}
		pl.locks[path] = l
	}
	pl.mu.Unlock()

	l.Lock()
	return l.Unlock
}
