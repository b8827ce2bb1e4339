// Package journal defines the mutation journal that makes namespace changes
// durable and replicable.
//
// Every namespace mutation produces an Entry. Entries flow through a Context,
// which forwards them to a durable backend (see the memory and badger
// subpackages). A MergeContext wraps a Context and collapses entries that
// target the same path so that followers replaying the journal never observe
// an intermediate state of a multi-step operation.
package journal

import (
	"errors"
)

// Journal errors.
var (
	// ErrUnavailable is returned when the durable journal backend cannot
	// accept writes (closed database, lost leadership, disk failure).
	ErrUnavailable = errors.New("journal unavailable")

	// ErrContextClosed is returned when operations are attempted on a
	// closed journal context.
	ErrContextClosed = errors.New("journal context closed")
)

// Context is the contract a durable journal backend must provide.
//
// Append forwards an entry to the backend's writer. Entries become durable
// only after Flush returns. Close releases the context; implementations must
// tolerate Close after a failed Flush.
//
// Thread Safety:
// Implementations are not required to be safe for concurrent use. Callers
// that share a context across goroutines must serialize access (MergeContext
// does this).
type Context interface {
	// Append forwards an entry to the journal writer.
	Append(entry Entry) error

	// Flush makes all previously appended entries durable.
	Flush() error

	// Close releases the context. Entries appended but not flushed may be
	// lost depending on the backend.
	Close() error
}

// System creates journal contexts. One System backs all operations of a
// master instance; each logical operation or sync pass gets its own Context.
type System interface {
	// NewContext returns a fresh journal context.
	NewContext() (Context, error)

	// Close releases the system and its backing resources.
	Close() error
}
