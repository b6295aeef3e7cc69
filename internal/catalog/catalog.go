// Package catalog turns a discovered-set into the type catalog: a sorted,
// self-describing document with one entry per named type.
package catalog

import (
	"github.com/dbsmedya/rttidump/internal/rtti"
)

// Catalog is a frozen, sorted selection of exported records.
type Catalog struct {
	// SpecVersion is emitted as the document's schema marker.
	SpecVersion any
	Types       []*rtti.Type
}

// Build copies the exported records out of snapshot and sorts them.
// References, containers and PODs are left out.
func Build(snapshot []*rtti.Type, layout *rtti.Layout) *Catalog {
	types := make([]*rtti.Type, 0, len(snapshot))
	for _, t := range snapshot {
		if t.Kind().Exported() {
			types = append(types, t)
		}
	}
	Sort(types)
	return &Catalog{SpecVersion: layout.SpecVersion, Types: types}
}

// Entry is the serialized form of one type.
type Entry struct {
	Name string
	Kind rtti.Kind

	// Class fields.
	Version  uint32
	Flags    uint16
	Messages []string
	Bases    []BaseEntry
	Attrs    []AttrEntry

	// Enum fields.
	Size   uint8
	Values []ValueEntry

	// Primitive fields.
	BaseType string
}

// BaseEntry is a base class and the offset of its sub-object.
type BaseEntry struct {
	Name   string
	Offset uint64
}

// AttrEntry is a field or, when Marker is set, a category marker whose name
// is in Category.
type AttrEntry struct {
	Marker   bool
	Name     string
	Type     string
	Category string
	Offset   uint16
	Flags    uint16
	Property bool
	Min      string
	Max      string
}

// ValueEntry is one enumerator.
type ValueEntry struct {
	Name    string
	Value   int64
	Aliases []string
}

// Entries returns the catalog's entries in order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.Types))
	for _, t := range c.Types {
		out = append(out, NewEntry(t))
	}
	return out
}

// NewEntry builds the serialized form of t. Nested lists keep declaration
// order; fields after a category marker carry its name.
func NewEntry(t *rtti.Type) Entry {
	e := Entry{Name: rtti.DisplayName(t), Kind: t.Kind()}

	if c, ok := t.AsCompound(); ok {
		e.Version = c.Version
		e.Flags = c.Flags
		for _, m := range c.MessageHandlers {
			e.Messages = append(e.Messages, rtti.DisplayName(m.Message))
		}
		for _, b := range c.Bases {
			e.Bases = append(e.Bases, BaseEntry{Name: rtti.DisplayName(b.Type), Offset: b.Offset})
		}
		category := ""
		for _, a := range c.Attrs {
			if a.IsCategory() {
				category = a.Name
				e.Attrs = append(e.Attrs, AttrEntry{Marker: true, Category: a.Name})
				continue
			}
			e.Attrs = append(e.Attrs, AttrEntry{
				Name:     a.Name,
				Type:     rtti.DisplayName(a.Type),
				Category: category,
				Offset:   a.Offset,
				Flags:    a.Flags,
				Property: a.IsProperty(),
				Min:      a.MinValue,
				Max:      a.MaxValue,
			})
		}
	} else if en, ok := t.AsEnum(); ok {
		e.Size = en.Size
		e.Values = make([]ValueEntry, 0, len(en.Values))
		for _, v := range en.Values {
			e.Values = append(e.Values, ValueEntry{Name: v.Name, Value: v.Value, Aliases: v.Aliases})
		}
	} else if a, ok := t.AsAtom(); ok && a.Base != nil {
		e.BaseType = rtti.DisplayName(a.Base)
	}
	return e
}
