package master

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/mirrorfs/internal/logger"
	"github.com/marmos91/mirrorfs/internal/telemetry"
	"github.com/marmos91/mirrorfs/pkg/journal"
	"github.com/marmos91/mirrorfs/pkg/metrics"
	"github.com/marmos91/mirrorfs/pkg/namespace"
	"github.com/marmos91/mirrorfs/pkg/ufs"
)

// SyncResult reports what one sync pass did. It is handed to the
// SyncHook at the end of every Sync call, including short-circuited
// and failed ones.
type SyncResult struct {
	// PassID uniquely identifies the pass across logs, traces and
	// hook invocations.
	PassID string

	Path   string
	Policy DescendantPolicy
	Status SyncStatus

	// Namespace objects touched by the pass.
	Created int
	Updated int
	Deleted int

	// Failed counts subtrees whose reconciliation was abandoned.
	// Failures are isolated: sibling subtrees still complete.
	Failed int

	// Synced reports whether the pass performed any under-store
	// comparison at all. False when the freshness window short-circuits
	// or the caller requested a namespace-only mutation.
	Synced bool

	// ForcedFlushes is the number of times the journal threshold
	// safety valve fired during the pass.
	ForcedFlushes uint64

	Duration time.Duration
}

// SyncHook observes completed sync invocations. Hooks run synchronously
// on the syncing goroutine; keep them cheap.
type SyncHook func(SyncResult)

// Syncer reconciles namespace subtrees against the under-store.
//
// One Syncer serves all operations of a master; each Sync call is an
// independent pass with its own listing cache and pass ID. Safe for
// concurrent use.
type Syncer struct {
	tree    *namespace.Tree
	store   ufs.Store
	locks   *namespace.PathLocks
	workers int
	metrics *metrics.SyncMetrics

	mu       sync.Mutex
	lastSync map[string]time.Time
}

// NewSyncer creates a syncer with the given fan-out width. workers <= 0
// disables parallel descent.
func NewSyncer(tree *namespace.Tree, store ufs.Store, workers int, m *metrics.SyncMetrics) *Syncer {
	if workers <= 0 {
		workers = 1
	}
	return &Syncer{
		tree:     tree,
		store:    store,
		locks:    namespace.NewPathLocks(),
		workers:  workers,
		metrics:  m,
		lastSync: make(map[string]time.Time),
	}
}

// Sync reconciles the subtree rooted at p against the under-store.
//
// The freshness window governs whether the pass runs at all: zero
// forces it, negative disables it, positive skips it when the path was
// synced more recently than the window. All mutations go through jc;
// when any were produced the context is flushed before Sync returns,
// so a caller holding the path's lock publishes the reconciled state
// as one unit.
func (s *Syncer) Sync(ctx context.Context, jc *journal.MergeContext, p string, policy DescendantPolicy, window time.Duration, hook SyncHook) SyncResult {
	start := time.Now()
	result := SyncResult{
		PassID: uuid.NewString(),
		Path:   normalizePath(p),
		Policy: policy,
	}

	finish := func() SyncResult {
		result.Duration = time.Since(start)
		if jc != nil {
			result.ForcedFlushes = jc.ForcedFlushes()
		}
		s.metrics.ObserveSync(policy.String(), result.Status.String(), result.Duration)
		s.metrics.RecordSyncObjects(result.Created, result.Updated, result.Deleted, result.Failed)
		if hook != nil {
			hook(result)
		}
		return result
	}

	if window < 0 {
		result.Status = SyncNotNeeded
		return finish()
	}
	if window > 0 && time.Since(s.lastSyncTime(result.Path)) < window {
		result.Status = SyncNotNeeded
		return finish()
	}

	ctx, span := telemetry.StartSyncSpan(ctx, result.PassID, result.Path, policy.String())
	defer span.End()
	lc := logger.NewLogContext("sync", result.Path).WithPassID(result.PassID)
	ctx = logger.WithContext(ctx, lc)

	pass := &syncPass{
		syncer:   s,
		jc:       jc,
		listings: make(map[string][]*ufs.Status),
	}
	pass.syncRoot(ctx, result.Path, policy)

	result.Created = int(pass.created.Load())
	result.Updated = int(pass.updated.Load())
	result.Deleted = int(pass.deleted.Load())
	result.Failed = int(pass.failed.Load())
	result.Synced = pass.probes.Load() > 0

	mutations := result.Created + result.Updated + result.Deleted
	switch {
	case pass.rootFailed.Load():
		result.Status = SyncFailed
	case mutations > 0:
		if err := jc.Flush(); err != nil {
			logger.ErrorCtx(ctx, "sync flush failed", logger.KeyError, err.Error())
			result.Status = SyncFailed
		} else {
			result.Status = SyncOK
		}
	case result.Failed > 0:
		result.Status = SyncFailed
	default:
		result.Status = SyncNotNeeded
	}

	if result.Status != SyncFailed {
		s.markSynced(result.Path)
	}

	telemetry.SetAttributes(ctx,
		telemetry.SyncStatus(result.Status.String()),
		telemetry.SyncCreated(result.Created),
		telemetry.SyncUpdated(result.Updated),
		telemetry.SyncDeleted(result.Deleted),
		telemetry.SyncFailed(result.Failed),
	)
	logger.InfoCtx(ctx, "sync pass complete",
		logger.KeyPolicy, policy.String(),
		logger.KeySyncState, result.Status.String(),
		logger.KeyCreated, result.Created,
		logger.KeyUpdated, result.Updated,
		logger.KeyDeleted, result.Deleted,
		logger.KeyFailed, result.Failed,
		logger.KeyDurationMs, logger.Duration(start))

	return finish()
}

// LastSynced returns when the path last completed a pass, or the zero
// time if it never has.
func (s *Syncer) LastSynced(p string) time.Time {
	return s.lastSyncTime(normalizePath(p))
}

// Invalidate forgets the freshness record for a path, forcing the next
// windowed sync to run. Used after namespace-only mutations.
func (s *Syncer) Invalidate(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lastSync, normalizePath(p))
}

func (s *Syncer) lastSyncTime(p string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync[p]
}

func (s *Syncer) markSynced(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSync[p] = time.Now()
}

// syncPass carries the per-pass state: the shared merge context, the
// listing cache and the outcome counters. Worker goroutines of the
// same pass share one instance.
type syncPass struct {
	syncer *Syncer
	jc     *journal.MergeContext

	mu       sync.Mutex
	listings map[string][]*ufs.Status

	created atomic.Int64
	updated atomic.Int64
	deleted atomic.Int64
	failed  atomic.Int64

	// probes counts under-store calls; non-zero means the pass
	// actually compared against the store.
	probes     atomic.Int64
	rootFailed atomic.Bool
}

// syncRoot reconciles the pass target. The root's status is fetched
// exactly once per pass; descendants are reconciled from listings and
// never individually re-fetched.
func (p *syncPass) syncRoot(ctx context.Context, root string, policy DescendantPolicy) {
	status, err := p.getStatus(ctx, root)
	if err != nil {
		if errors.Is(err, ufs.ErrNotFound) {
			p.removeFromNamespace(ctx, root)
			return
		}
		logger.WarnCtx(ctx, "under-store unreachable", logger.KeyError, err.Error())
		p.rootFailed.Store(true)
		p.failed.Add(1)
		return
	}

	if err := p.reconcileNode(ctx, root, status); err != nil {
		p.rootFailed.Store(true)
		p.failed.Add(1)
		return
	}

	if status.IsDir && policy != DescendantNone {
		p.syncChildren(ctx, root, policy)
	}
}

// reconcileNode compares one object's recorded fingerprint against the
// live status and applies the single mutation the divergence calls
// for. The path lock is held only across this compare-and-mutate step.
func (p *syncPass) reconcileNode(ctx context.Context, nodePath string, status *ufs.Status) error {
	unlock := p.syncer.locks.Lock(nodePath)
	defer unlock()

	live := ufs.NewFingerprint(p.syncer.store.Name(), status)
	attr, err := p.syncer.tree.GetAttr(nodePath)
	if errors.Is(err, namespace.ErrNotFound) {
		if err := p.ensureAncestors(nodePath); err != nil {
			return err
		}
		if err := p.syncer.tree.Create(p.jc, nodePath, attrFromStatus(status, live)); err != nil {
			return err
		}
		p.created.Add(1)
		return nil
	}
	if err != nil {
		return err
	}

	liveType := namespace.TypeFile
	if status.IsDir {
		liveType = namespace.TypeDirectory
	}
	if attr.Type != liveType {
		// The object changed kind upstream; replace it wholesale.
		if err := p.syncer.tree.Delete(p.jc, nodePath, true); err != nil {
			return err
		}
		p.deleted.Add(1)
		if err := p.syncer.tree.Create(p.jc, nodePath, attrFromStatus(status, live)); err != nil {
			return err
		}
		p.created.Add(1)
		return nil
	}

	recorded, parseErr := ufs.ParseFingerprint(attr.Fingerprint)
	if parseErr == nil && recorded.Equal(live) {
		return nil // unchanged
	}
	if err := p.syncer.tree.Update(p.jc, nodePath, attrFromStatus(status, live)); err != nil {
		return err
	}
	p.updated.Add(1)
	return nil
}

// syncChildren reconciles a directory's children against exactly one
// listing of that directory. DescendantOne stops here; DescendantAll
// fans recursion out over child directories.
func (p *syncPass) syncChildren(ctx context.Context, dir string, policy DescendantPolicy) {
	children, err := p.listStatus(ctx, dir)
	if err != nil {
		logger.WarnCtx(ctx, "listing failed, skipping subtree",
			logger.KeyPath, dir, logger.KeyError, err.Error())
		p.failed.Add(1)
		return
	}

	upstream := make(map[string]*ufs.Status, len(children))
	for _, child := range children {
		upstream[child.Name] = child
	}

	// Namespace children absent upstream were deleted behind our back.
	nsChildren, err := p.syncer.tree.Children(dir)
	if err == nil {
		for _, nsChild := range nsChildren {
			if _, ok := upstream[nsChild.Name]; !ok {
				p.removeFromNamespace(ctx, joinChild(dir, nsChild.Name))
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.syncer.workers)
	for _, child := range children {
		childPath := joinChild(dir, child.Name)
		childStatus := child
		g.Go(func() error {
			if err := p.reconcileNode(gctx, childPath, childStatus); err != nil {
				logger.WarnCtx(gctx, "child reconciliation failed",
					logger.KeyPath, childPath, logger.KeyError, err.Error())
				p.failed.Add(1)
				return nil // failures are isolated per subtree
			}
			if policy == DescendantAll && childStatus.IsDir {
				p.syncChildren(gctx, childPath, DescendantAll)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// removeFromNamespace drops a subtree that no longer exists upstream.
// The root directory itself is never removed.
func (p *syncPass) removeFromNamespace(ctx context.Context, nodePath string) {
	if nodePath == "/" {
		return
	}
	unlock := p.syncer.locks.Lock(nodePath)
	defer unlock()

	if !p.syncer.tree.Exists(nodePath) {
		return
	}
	if err := p.syncer.tree.Delete(p.jc, nodePath, true); err != nil {
		logger.WarnCtx(ctx, "delete of upstream-removed path failed",
			logger.KeyPath, nodePath, logger.KeyError, err.Error())
		p.failed.Add(1)
		return
	}
	logger.DebugCtx(ctx, "removed path deleted upstream", logger.KeyPath, nodePath)
	p.deleted.Add(1)
}

// ensureAncestors materializes missing parent directories of nodePath
// in the namespace. The object is known to exist upstream, so its
// ancestors must be directories; no under-store calls are needed.
func (p *syncPass) ensureAncestors(nodePath string) error {
	parent := path.Dir(nodePath)
	if parent == "/" || p.syncer.tree.Exists(parent) {
		return nil
	}
	if err := p.ensureAncestors(parent); err != nil {
		return err
	}
	if err := p.syncer.tree.Create(p.jc, parent, namespace.Attr{Type: namespace.TypeDirectory}); err != nil {
		if errors.Is(err, namespace.ErrAlreadyExists) {
			return nil // raced with a concurrent worker
		}
		return err
	}
	p.created.Add(1)
	return nil
}

func (p *syncPass) getStatus(ctx context.Context, nodePath string) (*ufs.Status, error) {
	p.probes.Add(1)
	start := time.Now()
	status, err := p.syncer.store.GetStatus(ctx, nodePath)
	p.syncer.metrics.ObserveUFSOperation(p.syncer.store.Name(), "get_status", time.Since(start), err)
	return status, err
}

// listStatus lists a directory at most once per pass.
func (p *syncPass) listStatus(ctx context.Context, dir string) ([]*ufs.Status, error) {
	p.mu.Lock()
	if cached, ok := p.listings[dir]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	p.probes.Add(1)
	start := time.Now()
	children, err := p.syncer.store.ListStatus(ctx, dir)
	p.syncer.metrics.ObserveUFSOperation(p.syncer.store.Name(), "list_status", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.listings[dir] = children
	p.mu.Unlock()
	return children, nil
}

// attrFromStatus maps a live under-store status to namespace
// attributes. The content hash is always the store's freshly observed
// value; a previously recorded or client-asserted hash never survives
// a sync.
func attrFromStatus(status *ufs.Status, fp ufs.Fingerprint) namespace.Attr {
	attr := namespace.Attr{
		Type:        namespace.TypeFile,
		Owner:       status.Owner,
		Group:       status.Group,
		Mode:        status.Mode,
		Size:        status.Size,
		ModTime:     status.ModTime,
		ContentHash: status.ContentHash,
		Fingerprint: fp.String(),
	}
	if status.IsDir {
		attr.Type = namespace.TypeDirectory
		attr.Size = 0
	}
	return attr
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func joinChild(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}
