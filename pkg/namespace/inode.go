// Package namespace implements the master's cached metadata tree.
//
// The tree mirrors the under-store's directory structure. Every
// mutation produces a journal entry carrying the object's full state,
// so replaying the journal on a follower reproduces the tree without
// reading the under-store.
package namespace

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a path is not in the namespace.
	ErrNotFound = errors.New("namespace: path not found")

	// ErrAlreadyExists is returned when creating over an existing path.
	ErrAlreadyExists = errors.New("namespace: path already exists")

	// ErrNotDirectory is returned when a path component is a file.
	ErrNotDirectory = errors.New("namespace: not a directory")

	// ErrNotEmpty is returned when deleting a non-empty directory
	// without the recursive flag.
	ErrNotEmpty = errors.New("namespace: directory not empty")

	// ErrInvalidPath is returned for paths that do not start with "/"
	// or target the root where the root is not allowed.
	ErrInvalidPath = errors.New("namespace: invalid path")
)

// FileType distinguishes files from directories.
type FileType uint8

const (
	TypeFile FileType = iota + 1
	TypeDirectory
)

func (t FileType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Attr holds the metadata cached for a namespace object. It is the
// full state published through the journal on every mutation.
type Attr struct {
	Type        FileType  `json:"type"`
	Owner       string    `json:"owner,omitempty"`
	Group       string    `json:"group,omitempty"`
	Mode        uint32    `json:"mode,omitempty"`
	Size        uint64    `json:"size,omitempty"`
	ModTime     time.Time `json:"mod_time,omitzero"`
	ContentHash string    `json:"content_hash,omitempty"`

	// Fingerprint is the serialized under-store fingerprint recorded
	// by the last sync pass that touched this object.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// DirEntry pairs a child name with its attributes.
type DirEntry struct {
	Name string
	Attr Attr
}
