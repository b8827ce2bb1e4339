package journal

// Op identifies the kind of namespace mutation an entry carries.
type Op uint8

const (
	// OpCreate records the creation of a file or directory.
	OpCreate Op = iota + 1

	// OpUpdate records an in-place metadata update.
	OpUpdate

	// OpDelete records the removal of a file or directory.
	OpDelete
)

// String returns a human-readable operation name.
func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Entry is a single namespace mutation record.
//
// The Payload is an opaque snapshot of the target's full metadata state,
// encoded by the producer (the namespace package encodes inode attributes).
// Because payloads carry full state rather than deltas, the latest entry for
// a path is always the net effect of every earlier entry for that path, which
// is what makes entries mergeable.
type Entry struct {
	// Op is the mutation kind.
	Op Op

	// Path is the namespace path the mutation targets.
	Path string

	// Payload is the encoded metadata state after the mutation.
	// Nil for deletes.
	Payload []byte

	// NoMerge marks an entry that must never collapse with other entries
	// for the same path (used for mutations whose replay order matters
	// beyond last-write-wins).
	NoMerge bool
}

// MergeKey returns the key under which entries collapse in an EntryMerger.
// An empty key means the entry is buffered individually, unmerged.
func (e Entry) MergeKey() string {
	if e.NoMerge {
		return ""
	}
	return e.Path
}
