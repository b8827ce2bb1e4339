// Package memory provides an in-memory journal system.
//
// It backs unit tests and standalone runs where durability is not required.
// Appended entries become visible through the system immediately (the writer
// is the store); Flush is a synchronization barrier that only bumps a
// counter, mirroring the async-writer semantics of the durable backends.
package memory

import (
	"sync"

	"github.com/marmos91/mirrorfs/pkg/journal"
)

// System is an in-memory implementation of journal.System.
//
// Thread Safety: safe for concurrent use.
type System struct {
	mu      sync.Mutex
	entries []journal.Entry
	flushes int
	closed  bool
}

// New creates an empty in-memory journal system.
func New() *System {
	return &System{}
}

// NewContext returns a context writing into this system.
func (s *System) NewContext() (journal.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, journal.ErrUnavailable
	}
	return &context{system: s}, nil
}

// Close marks the system closed. Further appends fail with ErrUnavailable.
func (s *System) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Entries returns a copy of all committed entries in append order.
func (s *System) Entries() []journal.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]journal.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Flushes returns how many times a context flushed.
func (s *System) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

// Reset drops all committed entries and counters.
func (s *System) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.flushes = 0
}

// context is a journal.Context writing into the parent system.
type context struct {
	system *System
	closed bool
}

func (c *context) Append(entry journal.Entry) error {
	c.system.mu.Lock()
	defer c.system.mu.Unlock()
	if c.closed {
		return journal.ErrContextClosed
	}
	if c.system.closed {
		return journal.ErrUnavailable
	}
	c.system.entries = append(c.system.entries, entry)
	return nil
}

func (c *context) Flush() error {
	c.system.mu.Lock()
	defer c.system.mu.Unlock()
	if c.closed {
		return journal.ErrContextClosed
	}
	if c.system.closed {
		return journal.ErrUnavailable
	}
	c.system.flushes++
	return nil
}

func (c *context) Close() error {
	c.system.mu.Lock()
	defer c.system.mu.Unlock()
	c.closed = true
	return nil
}

var (
	_ journal.System  = (*System)(nil)
	_ journal.Context = (*context)(nil)
)
