package namespace

import (
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/marmos91/mirrorfs/pkg/journal"
)

// Tree is the in-memory namespace. All mutations append full-state
// journal entries through the supplied journal context before the
// method returns, in the same order the mutations were applied.
//
// Safe for concurrent use. The tree lock is held across the journal
// append so entry order matches mutation order.
type Tree struct {
	mu   sync.RWMutex
	root *node
}

type node struct {
	attr     Attr
	children map[string]*node
}

func newDirNode(attr Attr) *node {
	attr.Type = TypeDirectory
	return &node{attr: attr, children: make(map[string]*node)}
}

// NewTree creates a namespace containing only the root directory.
func NewTree() *Tree {
	return &Tree{root: newDirNode(Attr{})}
}

// GetAttr returns the attributes of the object at path.
func (t *Tree) GetAttr(p string) (Attr, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, err := t.lookup(p)
	if err != nil {
		return Attr{}, err
	}
	return n.attr, nil
}

// Exists reports whether path is in the namespace.
func (t *Tree) Exists(p string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, err := t.lookup(p)
	return err == nil
}

// Children returns the direct children of a directory sorted by name.
func (t *Tree) Children(p string) ([]DirEntry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, err := t.lookup(p)
	if err != nil {
		return nil, err
	}
	if n.attr.Type != TypeDirectory {
		return nil, ErrNotDirectory
	}

	entries := make([]DirEntry, 0, len(n.children))
	for name, child := range n.children {
		entries = append(entries, DirEntry{Name: name, Attr: child.attr})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Len returns the number of objects in the namespace, excluding the
// root directory.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return countNodes(t.root) - 1
}

func countNodes(n *node) int {
	total := 1
	for _, child := range n.children {
		total += countNodes(child)
	}
	return total
}

// Create inserts a new object at path. The parent must exist and be a
// directory; the path itself must not exist.
func (t *Tree) Create(jc journal.Context, p string, attr Attr) error {
	parts, err := splitPath(p)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return ErrAlreadyExists // the root
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	parent, err := t.lookupParts(parts[:len(parts)-1])
	if err != nil {
		return err
	}
	if parent.attr.Type != TypeDirectory {
		return ErrNotDirectory
	}
	name := parts[len(parts)-1]
	if _, ok := parent.children[name]; ok {
		return ErrAlreadyExists
	}

	n := &node{attr: attr}
	if attr.Type == TypeDirectory {
		n.children = make(map[string]*node)
	}
	parent.children[name] = n

	return appendCreate(jc, joinParts(parts), attr)
}

// Update replaces the attributes of an existing object. The object
// type cannot change through Update.
func (t *Tree) Update(jc journal.Context, p string, attr Attr) error {
	parts, err := splitPath(p)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	n, err := t.lookupParts(parts)
	if err != nil {
		return err
	}
	if attr.Type != n.attr.Type {
		return ErrNotDirectory
	}
	n.attr = attr

	return appendUpdate(jc, joinParts(parts), attr)
}

// Delete removes the object at path. Deleting a non-empty directory
// requires recursive. Descendants journal before their parent so a
// replayed prefix of the entries never leaves orphans.
func (t *Tree) Delete(jc journal.Context, p string, recursive bool) error {
	parts, err := splitPath(p)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return ErrInvalidPath // the root cannot be deleted
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	parent, err := t.lookupParts(parts[:len(parts)-1])
	if err != nil {
		return err
	}
	name := parts[len(parts)-1]
	n, ok := parent.children[name]
	if !ok {
		return ErrNotFound
	}
	if n.attr.Type == TypeDirectory && len(n.children) > 0 && !recursive {
		return ErrNotEmpty
	}

	delete(parent.children, name)

	return journalDeletes(jc, joinParts(parts), n)
}

// journalDeletes appends delete entries for n's subtree, children first.
func journalDeletes(jc journal.Context, p string, n *node) error {
	names := sortedChildNames(n)
	for _, name := range names {
		if err := journalDeletes(jc, p+"/"+name, n.children[name]); err != nil {
			return err
		}
	}
	if jc == nil {
		return nil
	}
	return jc.Append(NewDeleteEntry(p))
}

// Rename moves the object at oldPath to newPath. The destination must
// not exist and its parent must be an existing directory. The journal
// records the move as deletes of the old subtree and creates of the
// new one, each carrying full state.
func (t *Tree) Rename(jc journal.Context, oldPath, newPath string) error {
	oldParts, err := splitPath(oldPath)
	if err != nil {
		return err
	}
	newParts, err := splitPath(newPath)
	if err != nil {
		return err
	}
	if len(oldParts) == 0 || len(newParts) == 0 {
		return ErrInvalidPath
	}
	// Renaming into the moved subtree would detach it from the tree.
	if strings.HasPrefix(joinParts(newParts)+"/", joinParts(oldParts)+"/") {
		return ErrInvalidPath
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	oldParent, err := t.lookupParts(oldParts[:len(oldParts)-1])
	if err != nil {
		return err
	}
	oldName := oldParts[len(oldParts)-1]
	n, ok := oldParent.children[oldName]
	if !ok {
		return ErrNotFound
	}

	newParent, err := t.lookupParts(newParts[:len(newParts)-1])
	if err != nil {
		return err
	}
	if newParent.attr.Type != TypeDirectory {
		return ErrNotDirectory
	}
	newName := newParts[len(newParts)-1]
	if _, ok := newParent.children[newName]; ok {
		return ErrAlreadyExists
	}

	delete(oldParent.children, oldName)
	newParent.children[newName] = n

	if err := journalDeletes(jc, joinParts(oldParts), n); err != nil {
		return err
	}
	return journalCreates(jc, joinParts(newParts), n)
}

// journalCreates appends create entries for n's subtree, parent first.
func journalCreates(jc journal.Context, p string, n *node) error {
	if jc != nil {
		if err := appendCreate(jc, p, n.attr); err != nil {
			return err
		}
	}
	for _, name := range sortedChildNames(n) {
		if err := journalCreates(jc, p+"/"+name, n.children[name]); err != nil {
			return err
		}
	}
	return nil
}

// Replay applies journal entries to rebuild the namespace. Creates and
// updates upsert, materializing missing ancestors as directories;
// deletes of absent paths are no-ops. Replaying a merged journal and
// the unmerged original produce the same tree.
func (t *Tree) Replay(entries []journal.Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range entries {
		parts, err := splitPath(e.Path)
		if err != nil {
			return err
		}

		switch e.Op {
		case journal.OpCreate, journal.OpUpdate:
			attr, err := DecodeAttr(e.Payload)
			if err != nil {
				return err
			}
			t.upsert(parts, attr)
		case journal.OpDelete:
			t.remove(parts)
		}
	}
	return nil
}

func (t *Tree) upsert(parts []string, attr Attr) {
	n := t.root
	for _, part := range parts[:max(len(parts)-1, 0)] {
		child, ok := n.children[part]
		if !ok || child.attr.Type != TypeDirectory {
			child = newDirNode(Attr{})
			n.children[part] = child
		}
		n = child
	}
	if len(parts) == 0 {
		t.root.attr = attr
		return
	}
	name := parts[len(parts)-1]
	child, ok := n.children[name]
	if !ok || child.attr.Type != attr.Type {
		child = &node{attr: attr}
		if attr.Type == TypeDirectory {
			child.children = make(map[string]*node)
		}
		n.children[name] = child
		return
	}
	child.attr = attr
}

func (t *Tree) remove(parts []string) {
	if len(parts) == 0 {
		return
	}
	n := t.root
	for _, part := range parts[:len(parts)-1] {
		child, ok := n.children[part]
		if !ok {
			return
		}
		n = child
	}
	delete(n.children, parts[len(parts)-1])
}

// lookup resolves a path to its node. Caller holds the lock.
func (t *Tree) lookup(p string) (*node, error) {
	parts, err := splitPath(p)
	if err != nil {
		return nil, err
	}
	return t.lookupParts(parts)
}

func (t *Tree) lookupParts(parts []string) (*node, error) {
	n := t.root
	for _, part := range parts {
		if n.attr.Type != TypeDirectory {
			return nil, ErrNotDirectory
		}
		child, ok := n.children[part]
		if !ok {
			return nil, ErrNotFound
		}
		n = child
	}
	return n, nil
}

func appendCreate(jc journal.Context, p string, attr Attr) error {
	if jc == nil {
		return nil
	}
	entry, err := NewCreateEntry(p, attr)
	if err != nil {
		return err
	}
	return jc.Append(entry)
}

func appendUpdate(jc journal.Context, p string, attr Attr) error {
	if jc == nil {
		return nil
	}
	entry, err := NewUpdateEntry(p, attr)
	if err != nil {
		return err
	}
	return jc.Append(entry)
}

func sortedChildNames(n *node) []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// splitPath validates and splits an absolute path into components.
// The root splits into an empty slice.
func splitPath(p string) ([]string, error) {
	if p == "" || !strings.HasPrefix(p, "/") {
		return nil, ErrInvalidPath
	}
	p = path.Clean(p)
	if p == "/" {
		return nil, nil
	}
	return strings.Split(p[1:], "/"), nil
}

func joinParts(parts []string) string {
	return "/" + strings.Join(parts, "/")
}
