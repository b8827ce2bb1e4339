package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for master and sync operations.
// These follow OpenTelemetry semantic conventions where applicable.
// Namespace-level keys use "fs." prefix, sync-level use "sync.", journal
// activity uses "journal." and under-store access uses "ufs.".
const (
	// ========================================================================
	// Namespace attributes
	// ========================================================================
	AttrOperation = "fs.operation" // Master operation name
	AttrPath      = "fs.path"      // Namespace path
	AttrOldPath   = "fs.old_path"  // Source path for renames
	AttrNewPath   = "fs.new_path"  // Destination path for renames
	AttrSize      = "fs.size"      // Object size
	AttrType      = "fs.type"      // Object type (file, directory)
	AttrMode      = "fs.mode"      // Permission bits
	AttrOwner     = "fs.owner"     // Object owner
	AttrGroup     = "fs.group"     // Object group

	// ========================================================================
	// Metadata sync attributes
	// ========================================================================
	AttrSyncPassID  = "sync.pass_id"  // Sync pass identifier
	AttrSyncPolicy  = "sync.policy"   // Descendant policy: none, one, all
	AttrSyncStatus  = "sync.status"   // Outcome: not_needed, ok, failed
	AttrSyncCreated = "sync.created"  // Objects created during the pass
	AttrSyncUpdated = "sync.updated"  // Objects updated during the pass
	AttrSyncDeleted = "sync.deleted"  // Objects deleted during the pass
	AttrSyncFailed  = "sync.failed"   // Subtrees that failed during the pass
	AttrSyncWindow  = "sync.interval" // Freshness window in seconds

	// ========================================================================
	// Journal attributes
	// ========================================================================
	AttrJournalEntries = "journal.entries" // Entries appended or buffered
	AttrJournalSeq     = "journal.seq"     // Sequence number

	// ========================================================================
	// Under-store attributes
	// ========================================================================
	AttrUFSName   = "ufs.name"      // Under-store name: s3, fs, memory
	AttrUFSOp     = "ufs.operation" // get_status, list_status, exists
	AttrBucket    = "storage.bucket"
	AttrKey       = "storage.key"
	AttrRegion    = "storage.region"
)

// Span names for operations.
// Format: <component>.<operation>
const (
	// Master operations
	SpanMasterGetStatus  = "master.get_status"
	SpanMasterListStatus = "master.list_status"
	SpanMasterDelete     = "master.delete"
	SpanMasterRename     = "master.rename"

	// Sync orchestration
	SpanSyncPass    = "sync.pass"
	SpanSyncSubtree = "sync.subtree"

	// Journal operations
	SpanJournalFlush = "journal.flush"
	SpanJournalClose = "journal.close"

	// Under-store operations
	SpanUFSGetStatus  = "ufs.get_status"
	SpanUFSListStatus = "ufs.list_status"
)

// FSOperation returns an attribute for a master operation name
func FSOperation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// FSPath returns an attribute for a namespace path
func FSPath(path string) attribute.KeyValue {
	return attribute.String(AttrPath, path)
}

// FSSize returns an attribute for object size
func FSSize(size uint64) attribute.KeyValue {
	return attribute.Int64(AttrSize, int64(size))
}

// FSType returns an attribute for object type
func FSType(t string) attribute.KeyValue {
	return attribute.String(AttrType, t)
}

// FSMode returns an attribute for permission bits
func FSMode(mode uint32) attribute.KeyValue {
	return attribute.Int64(AttrMode, int64(mode))
}

// SyncPassID returns an attribute for a sync pass identifier
func SyncPassID(id string) attribute.KeyValue {
	return attribute.String(AttrSyncPassID, id)
}

// SyncPolicy returns an attribute for a descendant policy
func SyncPolicy(policy string) attribute.KeyValue {
	return attribute.String(AttrSyncPolicy, policy)
}

// SyncStatus returns an attribute for a sync outcome
func SyncStatus(status string) attribute.KeyValue {
	return attribute.String(AttrSyncStatus, status)
}

// SyncCreated returns an attribute for objects created during a pass
func SyncCreated(n int) attribute.KeyValue {
	return attribute.Int(AttrSyncCreated, n)
}

// SyncUpdated returns an attribute for objects updated during a pass
func SyncUpdated(n int) attribute.KeyValue {
	return attribute.Int(AttrSyncUpdated, n)
}

// SyncDeleted returns an attribute for objects deleted during a pass
func SyncDeleted(n int) attribute.KeyValue {
	return attribute.Int(AttrSyncDeleted, n)
}

// SyncFailed returns an attribute for failed subtrees during a pass
func SyncFailed(n int) attribute.KeyValue {
	return attribute.Int(AttrSyncFailed, n)
}

// JournalEntries returns an attribute for journal entry count
func JournalEntries(n int) attribute.KeyValue {
	return attribute.Int(AttrJournalEntries, n)
}

// JournalSeq returns an attribute for a journal sequence number
func JournalSeq(seq uint64) attribute.KeyValue {
	return attribute.Int64(AttrJournalSeq, int64(seq))
}

// UFSName returns an attribute for an under-store name
func UFSName(name string) attribute.KeyValue {
	return attribute.String(AttrUFSName, name)
}

// UFSOp returns an attribute for an under-store operation
func UFSOp(op string) attribute.KeyValue {
	return attribute.String(AttrUFSOp, op)
}

// Bucket returns an attribute for S3 bucket name
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StorageKey returns an attribute for S3 object key
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// Region returns an attribute for cloud region
func Region(region string) attribute.KeyValue {
	return attribute.String(AttrRegion, region)
}

// StartMasterSpan starts a span for a master operation.
// This is a convenience function that sets common attributes.
func StartMasterSpan(ctx context.Context, operation, path string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		FSOperation(operation),
		FSPath(path),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "master."+operation, trace.WithAttributes(allAttrs...))
}

// StartSyncSpan starts a span for a metadata sync pass.
func StartSyncSpan(ctx context.Context, passID, path, policy string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		SyncPassID(passID),
		FSPath(path),
		SyncPolicy(policy),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, SpanSyncPass, trace.WithAttributes(allAttrs...))
}

// StartUFSSpan starts a span for an under-store operation.
func StartUFSSpan(ctx context.Context, ufsName, operation, path string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		UFSName(ufsName),
		UFSOp(operation),
		FSPath(path),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "ufs."+operation, trace.WithAttributes(allAttrs...))
}

// StartJournalSpan starts a span for a journal operation.
func StartJournalSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "journal."+operation, trace.WithAttributes(attrs...))
}
