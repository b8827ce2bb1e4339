package journal

import (
	"errors"
	"sync"

	"github.com/marmos91/mirrorfs/internal/logger"
)

// DefaultMergeThreshold is the buffered-entry count at which a MergeContext
// force-drains its buffer into the underlying context during Append.
const DefaultMergeThreshold = 100

// MergeContext wraps a durable journal Context and merges entries before
// forwarding them.
//
// A MergeContext is scoped to one logical operation or one metadata sync
// pass. A sync pass fans out worker goroutines that all append to the same
// MergeContext, so every operation takes an internal mutex: append, flush and
// close are mutually exclusive on the same instance.
//
// Memory bound: once the buffer reaches the configured threshold, Append
// drains the merged entries into the underlying context immediately. This
// keeps recursive operations from accumulating unbounded entries, at the
// documented cost that a follower may observe a partial logical operation if
// the primary fails between two forced drains. The relaxation is observable
// through ForcedFlushes, not just a log line.
type MergeContext struct {
	mu        sync.Mutex
	ctx       Context
	merger    *EntryMerger
	threshold int
	closed    bool

	forcedFlushes uint64
	appended      uint64
}

// NewMergeContext wraps the given journal context.
//
// threshold <= 0 selects DefaultMergeThreshold. A nil context or merger is a
// construction error; no mutation is attempted.
func NewMergeContext(ctx Context, merger *EntryMerger, threshold int) (*MergeContext, error) {
	if ctx == nil {
		return nil, errors.New("journal: merge context requires a journal context")
	}
	if merger == nil {
		return nil, errors.New("journal: merge context requires an entry merger")
	}
	if threshold <= 0 {
		threshold = DefaultMergeThreshold
	}
	return &MergeContext{
		ctx:       ctx,
		merger:    merger,
		threshold: threshold,
	}, nil
}

// Append merges the entry into the buffer.
//
// When the buffered count reaches the threshold, the merged entries are
// forced into the underlying context before Append returns and a diagnostic
// is emitted. A failure from the forced drain propagates to the caller.
func (m *MergeContext) Append(entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrContextClosed
	}

	m.merger.Add(entry)
	if m.merger.Len() < m.threshold {
		return nil
	}

	logger.Warn("merge context over threshold, forcing entries to journal writer",
		logger.KeyEntries, m.merger.Len(),
		logger.KeyThreshold, m.threshold,
		logger.KeyPath, entry.Path,
		logger.KeyOp, entry.Op.String())
	m.forcedFlushes++
	_, err := m.drainLocked()
	return err
}

// Flush appends all merged entries to the underlying context and flushes it.
// An empty buffer is a no-op: no durability barrier is forced for nothing.
func (m *MergeContext) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrContextClosed
	}
	return m.flushLocked()
}

// Close flushes any residue and releases the underlying context.
//
// The underlying context is closed on every exit path, even when the flush
// step fails; the flush failure is the error ultimately propagated. Close on
// an already-closed context is a no-op.
func (m *MergeContext) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	flushErr := m.flushLocked()
	closeErr := m.ctx.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// ForcedFlushes reports how many times the threshold safety valve fired on
// this context. A non-zero value means atomic visibility of the wrapped
// operation was relaxed.
func (m *MergeContext) ForcedFlushes() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forcedFlushes
}

// Appended reports how many entries were forwarded to the underlying context.
func (m *MergeContext) Appended() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appended
}

// MergedEntries exposes the current buffer, for inspection in tests and
// diagnostics.
func (m *MergeContext) MergedEntries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.merger.MergedEntries()
}

// UnderlyingContext returns the wrapped journal context.
func (m *MergeContext) UnderlyingContext() Context {
	return m.ctx
}

// flushLocked drains the buffer and, if anything was drained, flushes the
// underlying context. Callers must hold m.mu.
func (m *MergeContext) flushLocked() error {
	drained, err := m.drainLocked()
	if err != nil {
		return err
	}
	if !drained {
		return nil
	}
	return m.ctx.Flush()
}

// drainLocked appends all merged entries to the underlying context and clears
// the buffer. Reports whether any entries were drained. Callers must hold
// m.mu.
func (m *MergeContext) drainLocked() (bool, error) {
	entries := m.merger.MergedEntries()
	if len(entries) == 0 {
		return false, nil
	}

	for _, entry := range entries {
		if err := m.ctx.Append(entry); err != nil {
			return true, err
		}
		m.appended++
	}
	m.merger.Clear()
	return true, nil
}
