// Package rttitest builds synthetic target images laid out like the real
// records, for tests that exercise the decoder and everything above it.
package rttitest

import (
	"encoding/binary"
	"fmt"

	"github.com/dbsmedya/rttidump/internal/memory"
	"github.com/dbsmedya/rttidump/internal/rtti"
)

// Base is the address of the first allocation.
const Base = 0x140001000

// Image is an in-memory address space that records are written into.
// Every allocation is its own section, so reads past a record's end fail
// the same way they would on an unmapped page.
type Image struct {
	layout *rtti.Layout
	space  *memory.Sparse
	next   uint64
	blocks map[uint64][]byte
	count  int
}

// New returns an empty image for the given layout.
func New(layout *rtti.Layout) *Image {
	return &Image{
		layout: layout,
		space:  memory.NewSparse(),
		next:   Base,
		blocks: make(map[uint64][]byte),
	}
}

// Layout returns the image's record layout.
func (m *Image) Layout() *rtti.Layout { return m.layout }

// Space returns the image as an address space.
func (m *Image) Space() *memory.Sparse { return m.space }

// Decoder returns a fresh decoder over the image.
func (m *Image) Decoder() *rtti.Decoder {
	return rtti.NewDecoder(memory.NewReader(m.space), m.layout)
}

// Load decodes the record at addr with a fresh decoder and panics on error.
func (m *Image) Load(addr uint64) *rtti.Type {
	t, err := m.Decoder().Load(addr)
	if err != nil {
		panic(err)
	}
	return t
}

// Alloc maps size zeroed bytes and returns their address.
func (m *Image) Alloc(size int) uint64 {
	addr := m.next
	data := make([]byte, size)
	m.count++
	if err := m.space.Map(fmt.Sprintf(".r%d", m.count), addr, data); err != nil {
		panic(err)
	}
	m.blocks[addr] = data
	m.next += uint64((size + 15) &^ 15)
	if size == 0 {
		m.next += 16
	}
	return addr
}

// Put writes v into the allocation at addr.
func (m *Image) Put(addr uint64, f rtti.Field, v uint64) {
	if !f.Present() {
		return
	}
	data, ok := m.blocks[addr]
	if !ok {
		panic(fmt.Sprintf("rttitest: no allocation at 0x%x", addr))
	}
	b := data[f.Off : f.Off+f.Width]
	switch f.Width {
	case 1:
		b[0] = uint8(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, v)
	default:
		panic(fmt.Sprintf("rttitest: unsupported width %d", f.Width))
	}
}

// String maps a NUL-terminated copy of s and returns its address.
func (m *Image) String(s string) uint64 {
	addr := m.Alloc(len(s) + 1)
	copy(m.blocks[addr], s)
	return addr
}

func (m *Image) str(s string) uint64 {
	if s == "" {
		return 0
	}
	return m.String(s)
}

// Reserve allocates a record of the given kind with only its header set.
// Fill it later with the matching Set method; this is how cycles are built.
func (m *Image) Reserve(kind rtti.Kind, id uint32) uint64 {
	var size int
	switch kind {
	case rtti.KindCompound:
		size = m.layout.Compound.Size
	case rtti.KindEnum, rtti.KindEnumFlags:
		size = m.layout.Enum.Size
	case rtti.KindAtom:
		size = m.layout.Atom.Size
	case rtti.KindPointer:
		size = m.layout.Pointer.Size
	case rtti.KindContainer:
		size = m.layout.Container.Size
	default:
		size = 8
	}
	return m.header(size, uint8(kind), id)
}

// RawKind allocates a record whose kind byte is raw, valid or not.
func (m *Image) RawKind(raw uint8, id uint32) uint64 {
	return m.header(m.layout.Compound.Size, raw, id)
}

func (m *Image) header(size int, raw uint8, id uint32) uint64 {
	addr := m.Alloc(size)
	m.Put(addr, m.layout.Header.ID, uint64(id))
	m.Put(addr, m.layout.Header.Kind, uint64(raw))
	return addr
}

// BaseSpec is one base table entry.
type BaseSpec struct {
	Type   uint64
	Offset uint64
}

// AttrSpec is one attribute table entry. A zero Type makes a category marker.
type AttrSpec struct {
	Type   uint64
	Name   string
	Offset uint16
	Flags  uint16
	Getter uint64
	Setter uint64
	Min    string
	Max    string
}

// MessageSpec is one message handler entry.
type MessageSpec struct {
	Message uint64
	Handler uint64
}

// CompoundSpec describes a class record.
type CompoundSpec struct {
	ID                 uint32
	Name               string
	Version            uint32
	Flags              uint16
	Size               uint32
	Alignment          uint16
	Bases              []BaseSpec
	Attrs              []AttrSpec
	Messages           []MessageSpec
	MessageOrder       int
	Prev               uint64
	Next               uint64
	GetExportedSymbols uint64
	Constructor        uint64
}

// Compound writes a class record and returns its address.
func (m *Image) Compound(spec CompoundSpec) uint64 {
	addr := m.Reserve(rtti.KindCompound, spec.ID)
	m.SetCompound(addr, spec)
	return addr
}

// SetCompound fills a reserved class record.
func (m *Image) SetCompound(addr uint64, spec CompoundSpec) {
	l := m.layout.Compound
	m.Put(addr, m.layout.Header.ID, uint64(spec.ID))
	m.Put(addr, l.TypeName, m.str(spec.Name))
	m.Put(addr, l.Version, uint64(spec.Version))
	m.Put(addr, l.Flags, uint64(spec.Flags))
	m.Put(addr, l.TypeSize, uint64(spec.Size))
	m.Put(addr, l.Alignment, uint64(spec.Alignment))
	m.Put(addr, l.PrevType, spec.Prev)
	m.Put(addr, l.NextType, spec.Next)
	m.Put(addr, l.GetExportedSymbols, spec.GetExportedSymbols)
	m.Put(addr, l.Constructor, spec.Constructor)

	if n := len(spec.Bases); n > 0 {
		bl := m.layout.Base
		table := m.Alloc(n * bl.Size)
		for i, b := range spec.Bases {
			m.Put(table, shift(bl.Type, i*bl.Size), b.Type)
			m.Put(table, shift(bl.Offset, i*bl.Size), b.Offset)
		}
		m.Put(addr, l.NumBases, uint64(n))
		m.Put(addr, l.Bases, table)
	}

	if n := len(spec.Attrs); n > 0 {
		al := m.layout.Attr
		table := m.Alloc(n * al.Size)
		for i, a := range spec.Attrs {
			o := i * al.Size
			m.Put(table, shift(al.Type, o), a.Type)
			m.Put(table, shift(al.Name, o), m.str(a.Name))
			m.Put(table, shift(al.Offset, o), uint64(a.Offset))
			m.Put(table, shift(al.Flags, o), uint64(a.Flags))
			m.Put(table, shift(al.Getter, o), a.Getter)
			m.Put(table, shift(al.Setter, o), a.Setter)
			m.Put(table, shift(al.Min, o), m.str(a.Min))
			m.Put(table, shift(al.Max, o), m.str(a.Max))
		}
		m.Put(addr, l.NumAttrs, uint64(n))
		m.Put(addr, l.Attrs, table)
	}

	if n := len(spec.Messages); n > 0 {
		ml := m.layout.MessageHandler
		table := m.Alloc(n * ml.Size)
		for i, h := range spec.Messages {
			m.Put(table, shift(ml.Message, i*ml.Size), h.Message)
			m.Put(table, shift(ml.Handler, i*ml.Size), h.Handler)
		}
		m.Put(addr, l.NumMessageHandlers, uint64(n))
		m.Put(addr, l.MessageHandlers, table)
	}

	if spec.MessageOrder > 0 {
		table := m.Alloc(spec.MessageOrder * m.layout.MessageOrder)
		m.Put(addr, l.NumMessageOrder, uint64(spec.MessageOrder))
		m.Put(addr, l.MessageOrder, table)
	}
}

// ValueSpec is one enumerator.
type ValueSpec struct {
	Value   int64
	Name    string
	Aliases []string
}

// EnumSpec describes an enum record. Flags selects the enum flags kind.
type EnumSpec struct {
	ID        uint32
	Name      string
	Flags     bool
	Size      uint8
	Alignment uint8
	Values    []ValueSpec
}

// Enum writes an enum record and returns its address.
func (m *Image) Enum(spec EnumSpec) uint64 {
	kind := rtti.KindEnum
	if spec.Flags {
		kind = rtti.KindEnumFlags
	}
	addr := m.Reserve(kind, spec.ID)
	l := m.layout.Enum
	m.Put(addr, l.TypeName, m.str(spec.Name))
	m.Put(addr, l.TypeSize, uint64(spec.Size))
	m.Put(addr, l.Alignment, uint64(spec.Alignment))

	if n := len(spec.Values); n > 0 {
		vl := m.layout.Value
		table := m.Alloc(n * vl.Size)
		for i, v := range spec.Values {
			o := i * vl.Size
			m.Put(table, shift(vl.Value, o), uint64(v.Value))
			m.Put(table, shift(vl.Name, o), m.str(v.Name))
			for j, alias := range v.Aliases {
				if j >= vl.NumAliases {
					panic(fmt.Sprintf("rttitest: %d aliases exceed the layout's %d", len(v.Aliases), vl.NumAliases))
				}
				m.Put(table, shift(vl.Aliases, o+j*vl.Aliases.Width), m.str(alias))
			}
		}
		m.Put(addr, l.NumValues, uint64(n))
		m.Put(addr, l.Values, table)
	}
	return addr
}

// AtomSpec describes a primitive record.
type AtomSpec struct {
	ID         uint32
	Name       string
	Size       uint16
	Alignment  uint8
	Simple     bool
	Base       uint64
	FromString uint64
	ToString   uint64
}

// Atom writes a primitive record and returns its address.
func (m *Image) Atom(spec AtomSpec) uint64 {
	addr := m.Reserve(rtti.KindAtom, spec.ID)
	l := m.layout.Atom
	m.Put(addr, l.TypeName, m.str(spec.Name))
	m.Put(addr, l.TypeSize, uint64(spec.Size))
	m.Put(addr, l.Alignment, uint64(spec.Alignment))
	if spec.Simple {
		m.Put(addr, l.Simple, 1)
	}
	m.Put(addr, l.Base, spec.Base)
	m.Put(addr, l.FromString, spec.FromString)
	m.Put(addr, l.ToString, spec.ToString)
	return addr
}

// WrapperSpec describes a reference or container record. Info is the
// address of a side-table made by PointerInfo or ContainerInfo.
type WrapperSpec struct {
	ID   uint32
	Item uint64
	Info uint64
	Name string
}

// Pointer writes a reference record and returns its address.
func (m *Image) Pointer(spec WrapperSpec) uint64 {
	addr := m.Reserve(rtti.KindPointer, spec.ID)
	m.SetWrapper(addr, spec)
	return addr
}

// Container writes a container record and returns its address.
func (m *Image) Container(spec WrapperSpec) uint64 {
	addr := m.Reserve(rtti.KindContainer, spec.ID)
	m.SetWrapper(addr, spec)
	return addr
}

// SetWrapper fills a reserved reference or container record.
func (m *Image) SetWrapper(addr uint64, spec WrapperSpec) {
	l := m.layout.Pointer
	m.Put(addr, l.Item, spec.Item)
	m.Put(addr, l.Info, spec.Info)
	m.Put(addr, l.TypeName, m.str(spec.Name))
}

// PointerInfo writes a reference side-table and returns its address.
func (m *Image) PointerInfo(name string) uint64 {
	l := m.layout.PointerInfo
	addr := m.Alloc(l.Size)
	m.Put(addr, l.TypeName, m.str(name))
	m.Put(addr, l.TypeSize, 8)
	m.Put(addr, l.Alignment, 8)
	return addr
}

// ContainerInfo writes a container side-table and returns its address.
func (m *Image) ContainerInfo(name string) uint64 {
	l := m.layout.ContainerInfo
	addr := m.Alloc(l.Size)
	m.Put(addr, l.TypeName, m.str(name))
	m.Put(addr, l.TypeSize, 16)
	m.Put(addr, l.Alignment, 8)
	return addr
}

// POD writes a plain-old-data record and returns its address.
func (m *Image) POD(id uint32) uint64 {
	return m.Reserve(rtti.KindPOD, id)
}

func shift(f rtti.Field, off int) rtti.Field {
	return rtti.Field{Off: f.Off + off, Width: f.Width}
}
