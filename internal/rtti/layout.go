package rtti

import (
	"fmt"
	"sort"
)

// Field locates a scalar inside a record: a byte offset and a width in
// bytes. A zero width marks a field the layout does not carry.
type Field struct {
	Off   int
	Width int
}

func at(off, width int) Field { return Field{Off: off, Width: width} }

func ptr(off int) Field { return Field{Off: off, Width: 8} }

// Present reports whether the layout carries the field.
func (f Field) Present() bool { return f.Width > 0 }

// HeaderLayout is the prefix shared by every record.
type HeaderLayout struct {
	ID           Field
	Kind         Field
	FactoryFlags Field
}

// CompoundLayout describes a class record.
type CompoundLayout struct {
	Size int

	NumBases           Field
	NumAttrs           Field
	NumMessageHandlers Field
	NumMessageOrder    Field
	Version            Field
	TypeSize           Field
	Alignment          Field
	Flags              Field

	Constructor        Field
	Destructor         Field
	FromString         Field
	FromStringSlice    Field
	ToString           Field
	TypeName           Field
	PrevType           Field
	NextType           Field
	Bases              Field
	Attrs              Field
	MessageHandlers    Field
	MessageOrder       Field
	GetExportedSymbols Field
}

// BaseLayout describes one entry of a class's base table.
type BaseLayout struct {
	Size   int
	Type   Field
	Offset Field
}

// AttrLayout describes one entry of a class's attribute table.
type AttrLayout struct {
	Size   int
	Type   Field
	Offset Field
	Flags  Field
	Name   Field
	Getter Field
	Setter Field
	Min    Field
	Max    Field
}

// MessageHandlerLayout describes one entry of a class's handler table.
type MessageHandlerLayout struct {
	Size    int
	Message Field
	Handler Field
}

// EnumLayout describes an enum or enum flags record.
type EnumLayout struct {
	Size      int
	TypeSize  Field
	Alignment Field
	NumValues Field
	TypeName  Field
	Values    Field
}

// ValueLayout describes one enumerator. Aliases is the first of NumAliases
// consecutive string pointers.
type ValueLayout struct {
	Size       int
	Value      Field
	Name       Field
	Aliases    Field
	NumAliases int
}

// AtomLayout describes a primitive record.
type AtomLayout struct {
	Size       int
	TypeSize   Field
	Alignment  Field
	Simple     Field
	TypeName   Field
	Base       Field
	FromString Field
	ToString   Field
}

// WrapperLayout describes reference and container records, which share a
// shape: item type, side-table and an optional instantiation name.
type WrapperLayout struct {
	Size     int
	Item     Field
	Info     Field
	TypeName Field
}

// PointerInfoLayout describes the side-table of a reference kind.
type PointerInfoLayout struct {
	Size        int
	TypeName    Field
	TypeSize    Field
	Alignment   Field
	Constructor Field
	Destructor  Field
	Getter      Field
	Setter      Field
	Copier      Field
}

// ContainerInfoLayout describes the side-table of a container kind.
type ContainerInfoLayout struct {
	Size        int
	TypeName    Field
	TypeSize    Field
	Alignment   Field
	Constructor Field
	Destructor  Field
	Resize      Field
	Insert      Field
	Remove      Field
	GetSize     Field
	GetItem     Field
	ToString    Field
	FromString  Field
}

// Layout is the complete set of record offsets for one build of the target.
// Offsets are fixed per build; using the wrong profile yields garbage.
type Layout struct {
	Name string
	// SpecVersion is written as the catalog's schema version. Its JSON type
	// differs between profiles.
	SpecVersion any

	Header         HeaderLayout
	Compound       CompoundLayout
	Base           BaseLayout
	Attr           AttrLayout
	MessageHandler MessageHandlerLayout
	MessageOrder   int
	Enum           EnumLayout
	Value          ValueLayout
	Atom           AtomLayout
	Pointer        WrapperLayout
	Container      WrapperLayout
	PointerInfo    PointerInfoLayout
	ContainerInfo  ContainerInfoLayout
}

var header = HeaderLayout{
	ID:           at(0x0, 4),
	Kind:         at(0x4, 1),
	FactoryFlags: at(0x5, 1),
}

var attr = AttrLayout{
	Size:   0x38,
	Type:   ptr(0x0),
	Offset: at(0x8, 2),
	Flags:  at(0xA, 2),
	Name:   ptr(0x10),
	Getter: ptr(0x18),
	Setter: ptr(0x20),
	Min:    ptr(0x28),
	Max:    ptr(0x30),
}

var messageHandler = MessageHandlerLayout{
	Size:    0x10,
	Message: ptr(0x0),
	Handler: ptr(0x8),
}

// HFW is the layout of the 2022 build.
var HFW = &Layout{
	Name:        "hfw",
	SpecVersion: "5.0",
	Header:      header,
	Compound: CompoundLayout{
		Size:               0xB0,
		NumBases:           at(0x6, 1),
		NumAttrs:           at(0x7, 1),
		NumMessageHandlers: at(0x8, 1),
		NumMessageOrder:    at(0x9, 1),
		Version:            at(0xC, 4),
		TypeSize:           at(0x10, 4),
		Alignment:          at(0x14, 2),
		Flags:              at(0x16, 2),
		Constructor:        ptr(0x18),
		Destructor:         ptr(0x20),
		FromString:         ptr(0x28),
		FromStringSlice:    ptr(0x30),
		ToString:           ptr(0x38),
		TypeName:           ptr(0x40),
		PrevType:           ptr(0x48),
		NextType:           ptr(0x50),
		Bases:              ptr(0x58),
		Attrs:              ptr(0x60),
		MessageHandlers:    ptr(0x68),
		MessageOrder:       ptr(0x70),
		GetExportedSymbols: ptr(0x78),
	},
	Base:           BaseLayout{Size: 0x10, Type: ptr(0x0), Offset: at(0x8, 4)},
	Attr:           attr,
	MessageHandler: messageHandler,
	MessageOrder:   0x18,
	Enum: EnumLayout{
		Size:      0x28,
		TypeSize:  at(0x6, 1),
		Alignment: at(0x7, 1),
		NumValues: at(0x8, 2),
		TypeName:  ptr(0x10),
		Values:    ptr(0x18),
	},
	Value: ValueLayout{Size: 0x30, Value: at(0x0, 8), Name: ptr(0x8), Aliases: ptr(0x10), NumAliases: 4},
	Atom: AtomLayout{
		Size:       0x80,
		TypeSize:   at(0x6, 2),
		Alignment:  at(0x8, 1),
		Simple:     at(0x9, 1),
		TypeName:   ptr(0x10),
		Base:       ptr(0x18),
		FromString: ptr(0x20),
		ToString:   ptr(0x28),
	},
	Pointer:   WrapperLayout{Size: 0x20, Item: ptr(0x8), Info: ptr(0x10), TypeName: ptr(0x18)},
	Container: WrapperLayout{Size: 0x20, Item: ptr(0x8), Info: ptr(0x10), TypeName: ptr(0x18)},
	PointerInfo: PointerInfoLayout{
		Size:        0x38,
		TypeName:    ptr(0x0),
		TypeSize:    at(0x8, 4),
		Alignment:   at(0xC, 1),
		Constructor: ptr(0x10),
		Destructor:  ptr(0x18),
		Getter:      ptr(0x20),
		Setter:      ptr(0x28),
		Copier:      ptr(0x30),
	},
	ContainerInfo: ContainerInfoLayout{
		Size:        0x78,
		TypeName:    ptr(0x0),
		TypeSize:    at(0x8, 2),
		Alignment:   at(0xA, 1),
		Constructor: ptr(0x10),
		Destructor:  ptr(0x18),
		Resize:      ptr(0x20),
		Insert:      ptr(0x28),
		Remove:      ptr(0x30),
		GetSize:     ptr(0x38),
		GetItem:     ptr(0x40),
	},
}

// DS is the layout of the 2019 build.
var DS = &Layout{
	Name:        "ds",
	SpecVersion: 4,
	Header:      header,
	Compound: CompoundLayout{
		Size:               0x98,
		NumBases:           at(0x6, 1),
		NumAttrs:           at(0x7, 1),
		NumMessageHandlers: at(0x9, 1),
		NumMessageOrder:    at(0xA, 1),
		Version:            at(0xE, 2),
		TypeSize:           at(0x14, 4),
		Alignment:          at(0x18, 2),
		Flags:              at(0x1A, 2),
		Constructor:        ptr(0x20),
		Destructor:         ptr(0x28),
		FromString:         ptr(0x30),
		ToString:           ptr(0x38),
		TypeName:           ptr(0x40),
		NextType:           ptr(0x50),
		PrevType:           ptr(0x58),
		Bases:              ptr(0x60),
		Attrs:              ptr(0x68),
		MessageHandlers:    ptr(0x78),
		MessageOrder:       ptr(0x80),
		GetExportedSymbols: ptr(0x88),
	},
	Base:           BaseLayout{Size: 0x10, Type: ptr(0x0), Offset: at(0x8, 8)},
	Attr:           attr,
	MessageHandler: messageHandler,
	MessageOrder:   0x18,
	Enum: EnumLayout{
		Size:      0x28,
		TypeSize:  at(0x6, 1),
		NumValues: at(0x8, 2),
		Alignment: at(0xA, 1),
		TypeName:  ptr(0x10),
		Values:    ptr(0x18),
	},
	Value: ValueLayout{Size: 0x28, Value: at(0x0, 4), Name: ptr(0x8), Aliases: ptr(0x10), NumAliases: 3},
	Atom: AtomLayout{
		Size:       0x78,
		TypeSize:   at(0x6, 2),
		Alignment:  at(0x8, 1),
		Simple:     at(0x9, 1),
		TypeName:   ptr(0x10),
		Base:       ptr(0x18),
		FromString: ptr(0x20),
		ToString:   ptr(0x28),
	},
	Pointer:   WrapperLayout{Size: 0x18, Item: ptr(0x8), Info: ptr(0x10)},
	Container: WrapperLayout{Size: 0x18, Item: ptr(0x8), Info: ptr(0x10)},
	PointerInfo: PointerInfoLayout{
		Size:        0x38,
		TypeName:    ptr(0x0),
		TypeSize:    at(0x8, 4),
		Alignment:   at(0xC, 4),
		Constructor: ptr(0x10),
		Destructor:  ptr(0x18),
		Getter:      ptr(0x20),
		Setter:      ptr(0x28),
		Copier:      ptr(0x30),
	},
	ContainerInfo: ContainerInfoLayout{
		Size:        0xC0,
		TypeName:    ptr(0x0),
		TypeSize:    at(0x8, 2),
		Alignment:   at(0xA, 1),
		Constructor: ptr(0x10),
		Destructor:  ptr(0x18),
		Resize:      ptr(0x20),
		Insert:      ptr(0x28),
		Remove:      ptr(0x30),
		GetSize:     ptr(0x38),
		GetItem:     ptr(0x40),
		ToString:    ptr(0x98),
		FromString:  ptr(0xA0),
	},
}

var layouts = map[string]*Layout{
	HFW.Name: HFW,
	DS.Name:  DS,
}

// LayoutByName returns the profile registered under name.
func LayoutByName(name string) (*Layout, error) {
	l, ok := layouts[name]
	if !ok {
		return nil, fmt.Errorf("rtti: unknown layout %q (known: %v)", name, LayoutNames())
	}
	return l, nil
}

// LayoutNames returns the registered profile names in sorted order.
func LayoutNames() []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
