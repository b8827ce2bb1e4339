package ufs

import (
	"fmt"
	"strings"
)

// Tag names a single dimension of a fingerprint.
type Tag string

// Fingerprint tags in canonical serialization order.
const (
	TagType        Tag = "type"
	TagUFS         Tag = "ufs"
	TagOwner       Tag = "owner"
	TagGroup       Tag = "group"
	TagMode        Tag = "mode"
	TagContentHash Tag = "hash"
)

// Placeholder stands in for an absent or unknown tag value. A
// placeholder never compares equal to a real value, so losing a tag
// forces a metadata refresh rather than masking a change.
const Placeholder = "_"

// tagOrder fixes the canonical serialization order. Two fingerprints
// built from the same status always serialize to the same string.
var tagOrder = []Tag{TagType, TagUFS, TagOwner, TagGroup, TagMode, TagContentHash}

// metadataTags are the tags compared by MatchMetadata.
var metadataTags = []Tag{TagOwner, TagGroup, TagMode}

// contentTags are the tags compared by MatchContent.
var contentTags = []Tag{TagType, TagContentHash}

const (
	typeFile      = "file"
	typeDirectory = "directory"

	kvSeparator  = "|"
	tagSeparator = " "
)

// Fingerprint is a compact encoding of an under-store object's identity
// and metadata, stored alongside the cached namespace object so a later
// sync pass can detect out-of-band changes without re-reading content.
type Fingerprint struct {
	tags map[Tag]string
}

// NewFingerprint builds a fingerprint from an under-store status.
// Absent fields encode as the placeholder.
func NewFingerprint(ufsName string, status *Status) Fingerprint {
	f := Fingerprint{tags: make(map[Tag]string, len(tagOrder))}
	if status == nil {
		for _, tag := range tagOrder {
			f.tags[tag] = Placeholder
		}
		return f
	}

	objType := typeFile
	if status.IsDir {
		objType = typeDirectory
	}
	f.set(TagType, objType)
	f.set(TagUFS, ufsName)
	f.set(TagOwner, status.Owner)
	f.set(TagGroup, status.Group)
	if status.Mode != 0 {
		f.set(TagMode, fmt.Sprintf("%04o", status.Mode))
	} else {
		f.set(TagMode, "")
	}
	f.set(TagContentHash, status.ContentHash)
	return f
}

// NewFingerprintWithHash builds a fingerprint from a status but with an
// explicit content hash, overriding whatever the status reports. Used
// when the caller has a better content identity than the store listing
// provides.
func NewFingerprintWithHash(ufsName string, status *Status, contentHash string) Fingerprint {
	f := NewFingerprint(ufsName, status)
	f.set(TagContentHash, contentHash)
	return f
}

// ParseFingerprint decodes the canonical string form. Unknown tags are
// rejected; missing tags decode as the placeholder.
func ParseFingerprint(s string) (Fingerprint, error) {
	f := Fingerprint{tags: make(map[Tag]string, len(tagOrder))}
	for _, tag := range tagOrder {
		f.tags[tag] = Placeholder
	}
	if s == "" {
		return f, nil
	}

	for _, pair := range strings.Split(s, tagSeparator) {
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, kvSeparator)
		if !ok {
			return Fingerprint{}, fmt.Errorf("malformed fingerprint pair %q", pair)
		}
		tag := Tag(k)
		if !knownTag(tag) {
			return Fingerprint{}, fmt.Errorf("unknown fingerprint tag %q", k)
		}
		f.tags[tag] = v
	}
	return f, nil
}

func knownTag(tag Tag) bool {
	for _, t := range tagOrder {
		if t == tag {
			return true
		}
	}
	return false
}

// set stores a sanitized tag value, mapping empty to the placeholder.
func (f Fingerprint) set(tag Tag, value string) {
	if value == "" {
		f.tags[tag] = Placeholder
		return
	}
	// Separator characters inside values would corrupt the encoding.
	value = strings.ReplaceAll(value, tagSeparator, "_")
	value = strings.ReplaceAll(value, kvSeparator, "_")
	f.tags[tag] = value
}

// Tag returns the value of a single tag, or the placeholder if the
// fingerprint is zero-valued.
func (f Fingerprint) Tag(tag Tag) string {
	if f.tags == nil {
		return Placeholder
	}
	if v, ok := f.tags[tag]; ok {
		return v
	}
	return Placeholder
}

// String serializes the fingerprint in canonical tag order.
func (f Fingerprint) String() string {
	var sb strings.Builder
	for i, tag := range tagOrder {
		if i > 0 {
			sb.WriteString(tagSeparator)
		}
		sb.WriteString(string(tag))
		sb.WriteString(kvSeparator)
		sb.WriteString(f.Tag(tag))
	}
	return sb.String()
}

// IsValid reports whether the fingerprint carries a real object type.
// A zero or placeholder-typed fingerprint never matches anything.
func (f Fingerprint) IsValid() bool {
	t := f.Tag(TagType)
	return t == typeFile || t == typeDirectory
}

// MatchMetadata reports whether owner, group and mode match.
// Placeholders on either side compare as real values: a store that
// stops reporting ownership is a metadata change.
func (f Fingerprint) MatchMetadata(other Fingerprint) bool {
	for _, tag := range metadataTags {
		if f.Tag(tag) != other.Tag(tag) {
			return false
		}
	}
	return true
}

// MatchContent reports whether object type and content hash match.
// Invalid fingerprints never match.
func (f Fingerprint) MatchContent(other Fingerprint) bool {
	if !f.IsValid() || !other.IsValid() {
		return false
	}
	for _, tag := range contentTags {
		if f.Tag(tag) != other.Tag(tag) {
			return false
		}
	}
	return true
}

// Equal reports whether all tags match.
func (f Fingerprint) Equal(other Fingerprint) bool {
	for _, tag := range tagOrder {
		if f.Tag(tag) != other.Tag(tag) {
			return false
		}
	}
	return true
}

// Diff returns the tags whose values differ, in canonical order.
func (f Fingerprint) Diff(other Fingerprint) []Tag {
	var diff []Tag
	for _, tag := range tagOrder {
		if f.Tag(tag) != other.Tag(tag) {
			diff = append(diff, tag)
		}
	}
	return diff
}
