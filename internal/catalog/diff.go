package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/elliotchance/orderedmap/v2"
)

// SpecKey is the member holding the schema marker.
const SpecKey = "$spec"

// ErrNotCatalog is returned for documents that are not a top-level object.
var ErrNotCatalog = errors.New("catalog: document is not an object")

// Document is a parsed catalog with its entries in file order.
type Document struct {
	Spec  json.RawMessage
	Types *orderedmap.OrderedMap[string, json.RawMessage]
	// Duplicates lists names that appeared more than once; the last
	// occurrence wins.
	Duplicates []string
}

// Parse reads a catalog document.
func Parse(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrNotCatalog
	}

	doc := &Document{Types: orderedmap.NewOrderedMap[string, json.RawMessage]()}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("catalog: unexpected token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("catalog: entry %q: %w", name, err)
		}

		if name == SpecKey {
			doc.Spec = raw
			continue
		}
		if !doc.Types.Set(name, raw) {
			doc.Duplicates = append(doc.Duplicates, name)
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return doc, nil
}

// Kind returns the kind label of the named entry, or "" when absent.
func (d *Document) Kind(name string) string {
	raw, ok := d.Types.Get(name)
	if !ok {
		return ""
	}
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return ""
	}
	return head.Kind
}

// ChangeType classifies a difference between two catalogs.
type ChangeType string

const (
	Added   ChangeType = "added"
	Removed ChangeType = "removed"
	Changed ChangeType = "changed"
)

// Change is one entry that differs between two catalogs.
type Change struct {
	Name string
	Type ChangeType
	Old  json.RawMessage
	New  json.RawMessage
}

// Diff compares two catalogs entry by entry. Removed and changed entries come
// in the order of before, followed by added entries in the order of after. Formatting differences are ignored.
func Diff(before, after *Document) ([]Change, error) {
	var changes []Change

	for el := before.Types.Front(); el != nil; el = el.Next() {
		cur, ok := after.Types.Get(el.Key)
		if !ok {
			changes = append(changes, Change{Name: el.Key, Type: Removed, Old: el.Value})
			continue
		}
		same, err := equalJSON(el.Value, cur)
		if err != nil {
			return nil, fmt.Errorf("catalog: entry %q: %w", el.Key, err)
		}
		if !same {
			changes = append(changes, Change{Name: el.Key, Type: Changed, Old: el.Value, New: cur})
		}
	}

	for el := after.Types.Front(); el != nil; el = el.Next() {
		if _, ok := before.Types.Get(el.Key); !ok {
			changes = append(changes, Change{Name: el.Key, Type: Added, New: el.Value})
		}
	}

	return changes, nil
}

func equalJSON(a, b json.RawMessage) (bool, error) {
	var ca, cb bytes.Buffer
	if err := json.Compact(&ca, a); err != nil {
		return false, err
	}
	if err := json.Compact(&cb, b); err != nil {
		return false, err
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes()), nil
}
