package journal

// EntryMerger buffers journal entries and collapses entries that share a
// merge key into the single entry representing their net effect.
//
// Merge contract: replaying the merged sequence against any namespace state
// produces the same final state as replaying every raw entry in order.
// Distinct keys keep their first-seen relative order, which matters when a
// later mutation causally depends on an earlier one (create before rename).
//
// Thread Safety:
// EntryMerger is NOT safe for concurrent use. MergeContext guards it.
type EntryMerger struct {
	// slots holds the buffered entries in first-seen key order.
	slots []Entry

	// index maps a merge key to its position in slots.
	index map[string]int
}

// NewEntryMerger creates an empty merger.
func NewEntryMerger() *EntryMerger {
	return &EntryMerger{
		index: make(map[string]int),
	}
}

// Add merges an entry into the buffer.
//
// Entries with a merge key replace any previously buffered entry for that
// key, keeping the key's original position. An earlier create followed by an
// update stays a create carrying the updated state, so replaying the merged
// entry on a follower that never saw the original create still succeeds.
// Entries without a merge key are appended individually.
func (m *EntryMerger) Add(entry Entry) {
	key := entry.MergeKey()
	if key == "" {
		m.slots = append(m.slots, entry)
		return
	}

	if i, ok := m.index[key]; ok {
		prev := m.slots[i]
		if prev.Op == OpCreate && entry.Op == OpUpdate {
			entry.Op = OpCreate
		}
		m.slots[i] = entry
		return
	}

	m.index[key] = len(m.slots)
	m.slots = append(m.slots, entry)
}

// MergedEntries returns a read-only snapshot of the buffered sequence in
// first-seen key order.
func (m *EntryMerger) MergedEntries() []Entry {
	out := make([]Entry, len(m.slots))
	copy(out, m.slots)
	return out
}

// Len returns the number of buffered entries.
func (m *EntryMerger) Len() int {
	return len(m.slots)
}

// Clear empties the buffer.
func (m *EntryMerger) Clear() {
	m.slots = m.slots[:0]
	clear(m.index)
}
