package master

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marmos91/mirrorfs/internal/logger"
	"github.com/marmos91/mirrorfs/internal/telemetry"
	"github.com/marmos91/mirrorfs/pkg/journal"
	"github.com/marmos91/mirrorfs/pkg/metrics"
	"github.com/marmos91/mirrorfs/pkg/namespace"
	"github.com/marmos91/mirrorfs/pkg/ufs"
)

// ErrSyncRequired is returned when an operation needs a successful
// sync and the under-store could not be reached.
var ErrSyncRequired = errors.New("master: sync failed and operation requires fresh metadata")

// Config holds master tunables.
type Config struct {
	// MergeThreshold is the buffered-entry count that force-drains a
	// merge context. Zero selects journal.DefaultMergeThreshold.
	MergeThreshold int

	// DefaultSyncInterval is the freshness window applied when an
	// operation does not specify one. Zero syncs on every operation;
	// negative disables syncing.
	DefaultSyncInterval time.Duration

	// SyncWorkers bounds the fan-out of one sync pass.
	SyncWorkers int

	// OnSync, when set, observes every sync pass the master runs.
	OnSync SyncHook
}

// DefaultConfig returns the default master configuration.
func DefaultConfig() Config {
	return Config{
		MergeThreshold:      journal.DefaultMergeThreshold,
		DefaultSyncInterval: 0,
		SyncWorkers:         4,
	}
}

// Master serves namespace operations. Each operation reconciles its
// target path against the under-store first, then reads or mutates the
// namespace, publishing all mutations through one merge context per
// operation.
type Master struct {
	cfg     Config
	tree    *namespace.Tree
	store   ufs.Store
	journal journal.System
	syncer  *Syncer
	metrics *metrics.SyncMetrics
}

// New creates a master over the given under-store and journal system.
func New(cfg Config, store ufs.Store, jsystem journal.System) (*Master, error) {
	if store == nil {
		return nil, errors.New("master: under-store is required")
	}
	if jsystem == nil {
		return nil, errors.New("master: journal system is required")
	}
	if cfg.SyncWorkers <= 0 {
		cfg.SyncWorkers = DefaultConfig().SyncWorkers
	}

	tree := namespace.NewTree()
	m := metrics.NewSyncMetrics()
	return &Master{
		cfg:     cfg,
		tree:    tree,
		store:   store,
		journal: jsystem,
		syncer:  NewSyncer(tree, store, cfg.SyncWorkers, m),
		metrics: m,
	}, nil
}

// Tree exposes the namespace for replay and inspection.
func (m *Master) Tree() *namespace.Tree { return m.tree }

// Syncer exposes the sync orchestrator.
func (m *Master) Syncer() *Syncer { return m.syncer }

// GetStatus returns the attributes of a path, reconciling it against
// the under-store first.
func (m *Master) GetStatus(ctx context.Context, p string) (namespace.Attr, error) {
	ctx, span := telemetry.StartMasterSpan(ctx, "get_status", p)
	defer span.End()

	if err := m.syncBeforeRead(ctx, p, DescendantNone); err != nil {
		return namespace.Attr{}, err
	}
	return m.tree.GetAttr(normalizePath(p))
}

// ListStatus returns the children of a directory, reconciling the
// directory and its immediate children first.
func (m *Master) ListStatus(ctx context.Context, p string) ([]namespace.DirEntry, error) {
	ctx, span := telemetry.StartMasterSpan(ctx, "list_status", p)
	defer span.End()

	if err := m.syncBeforeRead(ctx, p, DescendantOne); err != nil {
		return nil, err
	}
	return m.tree.Children(normalizePath(p))
}

// DeleteOptions scopes a Delete call.
type DeleteOptions struct {
	// Recursive deletes non-empty directories.
	Recursive bool

	// NamespaceOnly drops the cached metadata without consulting the
	// under-store at all: no comparisons, no listings, no sync.
	NamespaceOnly bool
}

// Delete removes a path from the namespace. Unless NamespaceOnly is
// set, the target is reconciled first so the delete acts on fresh
// metadata.
func (m *Master) Delete(ctx context.Context, p string, opts DeleteOptions) error {
	ctx, span := telemetry.StartMasterSpan(ctx, "delete", p)
	defer span.End()
	p = normalizePath(p)

	if !opts.NamespaceOnly {
		policy := DescendantNone
		if opts.Recursive {
			policy = DescendantAll
		}
		result := m.sync(ctx, p, policy, m.cfg.DefaultSyncInterval)
		if result.Status == SyncFailed {
			return ErrSyncRequired
		}
	}

	jc, err := m.newMergeContext()
	if err != nil {
		return err
	}

	deleteErr := m.tree.Delete(jc, p, opts.Recursive)
	closeErr := jc.Close()
	if deleteErr != nil {
		return deleteErr
	}
	if closeErr != nil {
		return closeErr
	}

	// The cached freshness record describes an object that no longer
	// exists.
	m.syncer.Invalidate(p)
	logger.Info("deleted path",
		logger.KeyPath, p,
		logger.KeyOp, "delete",
		"recursive", opts.Recursive,
		"namespace_only", opts.NamespaceOnly)
	return nil
}

// Rename moves a path. The source subtree is reconciled first so the
// journaled create entries for the destination carry fresh state.
func (m *Master) Rename(ctx context.Context, oldPath, newPath string) error {
	ctx, span := telemetry.StartMasterSpan(ctx, "rename", oldPath,
		telemetry.FSPath(newPath))
	defer span.End()
	oldPath = normalizePath(oldPath)
	newPath = normalizePath(newPath)

	result := m.sync(ctx, oldPath, DescendantAll, m.cfg.DefaultSyncInterval)
	if result.Status == SyncFailed {
		return ErrSyncRequired
	}

	jc, err := m.newMergeContext()
	if err != nil {
		return err
	}

	renameErr := m.tree.Rename(jc, oldPath, newPath)
	closeErr := jc.Close()
	if renameErr != nil {
		return renameErr
	}
	if closeErr != nil {
		return closeErr
	}

	m.syncer.Invalidate(oldPath)
	logger.Info("renamed path",
		logger.KeyOldPath, oldPath,
		logger.KeyNewPath, newPath,
		logger.KeyOp, "rename")
	return nil
}

// Sync runs a standalone reconciliation pass, for the CLI and for
// periodic background refreshes.
func (m *Master) Sync(ctx context.Context, p string, policy DescendantPolicy, window time.Duration) SyncResult {
	return m.sync(ctx, normalizePath(p), policy, window)
}

// Recover replays journal entries into the namespace, typically at
// startup from a persistent journal backend.
func (m *Master) Recover(entries []journal.Entry) error {
	if err := m.tree.Replay(entries); err != nil {
		return fmt.Errorf("replay journal: %w", err)
	}
	logger.Info("namespace recovered from journal",
		logger.KeyEntries, len(entries),
		logger.KeyCount, m.tree.Len())
	return nil
}

// Close releases the journal system and the under-store.
func (m *Master) Close() error {
	jErr := m.journal.Close()
	sErr := m.store.Close()
	if jErr != nil {
		return jErr
	}
	return sErr
}

// syncBeforeRead reconciles a path ahead of a read operation. A failed
// sync degrades to serving cached state when the namespace still has
// the path, and errors only when it has nothing to serve.
func (m *Master) syncBeforeRead(ctx context.Context, p string, policy DescendantPolicy) error {
	p = normalizePath(p)
	result := m.sync(ctx, p, policy, m.cfg.DefaultSyncInterval)
	if result.Status == SyncFailed && !m.tree.Exists(p) {
		return ErrSyncRequired
	}
	return nil
}

// sync runs one pass with a fresh merge context.
func (m *Master) sync(ctx context.Context, p string, policy DescendantPolicy, window time.Duration) SyncResult {
	jc, err := m.newMergeContext()
	if err != nil {
		logger.Error("journal unavailable for sync",
			logger.KeyPath, p, logger.KeyError, err.Error())
		result := SyncResult{Path: p, Policy: policy, Status: SyncFailed}
		if m.cfg.OnSync != nil {
			m.cfg.OnSync(result)
		}
		return result
	}

	result := m.syncer.Sync(ctx, jc, p, policy, window, m.cfg.OnSync)
	if err := jc.Close(); err != nil {
		logger.Error("closing sync merge context failed",
			logger.KeyPath, p, logger.KeyError, err.Error())
	}
	m.metrics.RecordJournalEntries(int(jc.Appended()))
	for i := uint64(0); i < result.ForcedFlushes; i++ {
		m.metrics.RecordForcedFlush()
	}
	return result
}

// newMergeContext opens a fresh journal context wrapped in a merging
// layer with the configured threshold.
func (m *Master) newMergeContext() (*journal.MergeContext, error) {
	jc, err := m.journal.NewContext()
	if err != nil {
		return nil, err
	}
	mc, err := journal.NewMergeContext(jc, journal.NewEntryMerger(), m.cfg.MergeThreshold)
	if err != nil {
		_ = jc.Close()
		return nil, err
	}
	return mc, nil
}
