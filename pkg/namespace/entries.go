package namespace

import (
	"encoding/json"
	"fmt"

	"github.com/marmos91/mirrorfs/pkg/journal"
)

// EncodeAttr serializes an Attr for use as a journal entry payload.
func EncodeAttr(attr Attr) ([]byte, error) {
	payload, err := json.Marshal(attr)
	if err != nil {
		return nil, fmt.Errorf("encode attr: %w", err)
	}
	return payload, nil
}

// DecodeAttr deserializes a journal entry payload back into an Attr.
func DecodeAttr(payload []byte) (Attr, error) {
	var attr Attr
	if err := json.Unmarshal(payload, &attr); err != nil {
		return Attr{}, fmt.Errorf("decode attr: %w", err)
	}
	return attr, nil
}

// NewCreateEntry builds a journal entry publishing a newly created
// object with its full state.
func NewCreateEntry(path string, attr Attr) (journal.Entry, error) {
	payload, err := EncodeAttr(attr)
	if err != nil {
		return journal.Entry{}, err
	}
	return journal.Entry{Op: journal.OpCreate, Path: path, Payload: payload}, nil
}

// NewUpdateEntry builds a journal entry publishing an object's updated
// full state.
func NewUpdateEntry(path string, attr Attr) (journal.Entry, error) {
	payload, err := EncodeAttr(attr)
	if err != nil {
		return journal.Entry{}, err
	}
	return journal.Entry{Op: journal.OpUpdate, Path: path, Payload: payload}, nil
}

// NewDeleteEntry builds a journal entry removing an object. Deletes
// carry no payload; the path is the whole state.
func NewDeleteEntry(path string) journal.Entry {
	return journal.Entry{Op: journal.OpDelete, Path: path}
}
