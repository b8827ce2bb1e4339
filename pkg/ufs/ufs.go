// Package ufs defines the under-store interface the master syncs
// namespace metadata against, plus the fingerprint encoding used to
// detect out-of-band changes.
//
// An under-store is the authoritative home of the data: a local
// filesystem, an S3 bucket, or an in-memory store for tests. The master
// never caches under-store content, only metadata about it.
package ufs

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a path does not exist in the under-store.
	ErrNotFound = errors.New("ufs: path not found")

	// ErrUnavailable is returned when the under-store cannot be reached.
	ErrUnavailable = errors.New("ufs: store unavailable")
)

// Status describes a single object in the under-store.
type Status struct {
	// Name is the base name of the object within its parent.
	Name string

	// IsDir reports whether the object is a directory.
	IsDir bool

	// Size is the object size in bytes. Zero for directories.
	Size uint64

	// ContentHash identifies the object content. Stores report whatever
	// cheap content identity they have (ETag, checksum); it is treated
	// as opaque and compared only for equality.
	ContentHash string

	// ModTime is the last modification time reported by the store.
	ModTime time.Time

	// Owner and Group are the owning principal names. Empty when the
	// store has no ownership concept.
	Owner string
	Group string

	// Mode holds permission bits. Zero when the store has no permission
	// concept.
	Mode uint32
}

// Store is the read-side interface to an under-store.
//
// Implementations must be safe for concurrent use: the sync
// orchestrator fans listings and status probes out across worker
// goroutines.
type Store interface {
	// Name identifies the store kind (s3, fs, memory). Used in
	// fingerprints, logs and metrics.
	Name() string

	// Exists reports whether path exists in the store.
	Exists(ctx context.Context, path string) (bool, error)

	// GetStatus returns the status of a single path.
	// Returns ErrNotFound when the path does not exist.
	GetStatus(ctx context.Context, path string) (*Status, error)

	// ListStatus returns the statuses of the direct children of path.
	// Returns ErrNotFound when the path does not exist. Listing a file
	// returns a single-element slice with the file's own status.
	ListStatus(ctx context.Context, path string) ([]*Status, error)

	// Close releases any resources held by the store.
	Close() error
}
