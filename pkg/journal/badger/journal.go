// Package badger provides a BadgerDB-backed durable journal system.
//
// Entries are stored under monotonically increasing sequence keys, so a scan
// in key order replays the journal in commit order. Each context buffers its
// appends and commits them in a single Badger transaction on Flush, which
// gives the flush its durability barrier.
package badger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/mirrorfs/internal/logger"
	"github.com/marmos91/mirrorfs/pkg/journal"
)

// entryKeyPrefix namespaces journal entry keys inside the database.
var entryKeyPrefix = []byte("j/")

// Config holds configuration for the Badger journal system.
type Config struct {
	// Dir is the directory holding the Badger database.
	Dir string

	// SyncWrites forces fsync on every commit. Slower, but a flush that
	// returned success survives a power failure.
	// Default: true
	SyncWrites bool

	// InMemory runs Badger without touching disk. Test use only.
	InMemory bool
}

// DefaultConfig returns the default configuration for the given directory.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:        dir,
		SyncWrites: true,
	}
}

// System is a BadgerDB-backed implementation of journal.System.
//
// Thread Safety: safe for concurrent use.
type System struct {
	mu     sync.Mutex
	db     *badger.DB
	seq    uint64
	closed bool
}

// Open opens (or creates) the journal database described by cfg.
func Open(cfg Config) (*System, error) {
	opts := badger.DefaultOptions(cfg.Dir).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithInMemory(true).WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	s := &System{db: db}
	if err := s.loadSequence(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("journal database opened", logger.KeyDir, cfg.Dir, "next_seq", s.seq)
	return s, nil
}

// NewContext returns a context that commits its entries to Badger on Flush.
func (s *System) NewContext() (journal.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, journal.ErrUnavailable
	}
	return &context{system: s}, nil
}

// Close closes the backing database.
func (s *System) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close journal database: %w", err)
	}
	return nil
}

// Entries scans all committed entries in commit order. Used on startup to
// rebuild the namespace via replay.
func (s *System) Entries() ([]journal.Entry, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, journal.ErrUnavailable
	}
	db := s.db
	s.mu.Unlock()

	var entries []journal.Entry
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = entryKeyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var e journal.Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return fmt.Errorf("decode journal entry: %w", err)
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// loadSequence positions the sequence counter after the last committed entry.
func (s *System) loadSequence() error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = entryKeyPrefix
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		// Seek past the prefix range, then step back to the last key.
		seek := append(append([]byte{}, entryKeyPrefix...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		it.Seek(seek)
		if !it.Valid() {
			s.seq = 0
			return nil
		}
		key := it.Item().Key()
		s.seq = binary.BigEndian.Uint64(key[len(entryKeyPrefix):]) + 1
		return nil
	})
}

// context buffers appended entries and commits them on Flush.
type context struct {
	mu      sync.Mutex
	system  *System
	pending []journal.Entry
	closed  bool
}

func (c *context) Append(entry journal.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return journal.ErrContextClosed
	}
	c.pending = append(c.pending, entry)
	return nil
}

func (c *context) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return journal.ErrContextClosed
	}
	return c.commitLocked()
}

func (c *context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	// Best-effort commit of the residue so a close-triggered flush attempt
	// does not silently drop entries.
	return c.commitLocked()
}

// commitLocked writes all pending entries in one transaction. Callers must
// hold c.mu.
func (c *context) commitLocked() error {
	if len(c.pending) == 0 {
		return nil
	}

	s := c.system
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return journal.ErrUnavailable
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		seq := s.seq
		for _, e := range c.pending {
			val, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("encode journal entry: %w", err)
			}
			key := make([]byte, len(entryKeyPrefix)+8)
			copy(key, entryKeyPrefix)
			binary.BigEndian.PutUint64(key[len(entryKeyPrefix):], seq)
			if err := txn.Set(key, val); err != nil {
				return err
			}
			seq++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("commit journal entries: %w", err)
	}

	s.seq += uint64(len(c.pending))
	c.pending = c.pending[:0]
	return nil
}

var (
	_ journal.System  = (*System)(nil)
	_ journal.Context = (*context)(nil)
)
