package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so sync passes,
// namespace mutations and journal activity can be correlated when
// aggregating and querying logs.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Namespace Operations
	// ========================================================================
	KeyOp      = "op"       // Operation name: get_status, list_status, delete, rename, sync
	KeyPath    = "path"     // Namespace path the operation targets
	KeyOldPath = "old_path" // Source path for rename operations
	KeyNewPath = "new_path" // Destination path for rename operations
	KeyType    = "type"     // Object type: file, directory
	KeySize    = "size"     // Object size in bytes
	KeyMode    = "mode"     // Permission bits (octal)
	KeyOwner   = "owner"    // Object owner
	KeyGroup   = "group"    // Object group

	// ========================================================================
	// Metadata Sync
	// ========================================================================
	KeyPassID    = "pass_id"    // Sync pass identifier (one per Sync invocation)
	KeyPolicy    = "policy"     // Descendant policy: none, one, all
	KeySyncState = "sync_state" // Sync outcome: not_needed, ok, failed
	KeyCreated   = "created"    // Namespace objects created during a pass
	KeyUpdated   = "updated"    // Namespace objects updated during a pass
	KeyDeleted   = "deleted"    // Namespace objects deleted during a pass
	KeyFailed    = "failed"     // Subtrees that failed during a pass
	KeyUFS       = "ufs"        // Under-store name: s3, fs, memory

	// ========================================================================
	// Journal
	// ========================================================================
	KeyEntries   = "entries"   // Buffered or appended journal entry count
	KeyThreshold = "threshold" // Forced-flush entry threshold
	KeySeq       = "seq"       // Journal sequence number

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyDir        = "dir"         // Directory path (journal database, config dir)
	KeyCount      = "count"       // Generic count
)

// ============================================================================
// Field constructors for type safety
// These functions provide type-safe construction of slog.Attr values.
// ============================================================================

// TraceID returns a slog.Attr for an OpenTelemetry trace ID.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for an OpenTelemetry span ID.
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Op returns a slog.Attr for an operation name.
func Op(op string) slog.Attr {
	return slog.String(KeyOp, op)
}

// Path returns a slog.Attr for a namespace path.
func Path(path string) slog.Attr {
	return slog.String(KeyPath, path)
}

// PassID returns a slog.Attr for a sync pass identifier.
func PassID(id string) slog.Attr {
	return slog.String(KeyPassID, id)
}

// Policy returns a slog.Attr for a descendant policy.
func Policy(policy string) slog.Attr {
	return slog.String(KeyPolicy, policy)
}

// UFS returns a slog.Attr for an under-store name.
func UFS(name string) slog.Attr {
	return slog.String(KeyUFS, name)
}

// Entries returns a slog.Attr for a journal entry count.
func Entries(n int) slog.Attr {
	return slog.Int(KeyEntries, n)
}

// Err returns a slog.Attr carrying an error message. Returns the empty Attr
// for a nil error so it disappears from output.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// OctalMode formats permission bits as a four-digit octal string.
func OctalMode(mode uint32) string {
	return fmt.Sprintf("%04o", mode)
}
