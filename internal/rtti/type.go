package rtti

// Func is the address of a function in the target. It is an opaque handle:
// the tool reports whether a slot is populated but never calls through it.
type Func uint64

// IsSet reports whether the slot holds a function.
func (f Func) IsSet() bool { return f != 0 }

// Header is the part of a record common to every kind.
type Header struct {
	Addr         uint64
	ID           uint32
	FactoryFlags uint8
}

// Type is a decoded RTTI record. The kind is fixed at construction and
// exactly one typed view matches it.
type Type struct {
	hdr  Header
	kind Kind

	compound  *Compound
	enum      *Enum
	atom      *Atom
	pointer   *Pointer
	container *Container
	pod       *POD
}

// Addr returns the address of the record in the target.
func (t *Type) Addr() uint64 { return t.hdr.Addr }

// ID returns the record's numeric identifier.
func (t *Type) ID() uint32 { return t.hdr.ID }

// Kind returns the record's kind tag.
func (t *Type) Kind() Kind { return t.kind }

// FactoryFlags returns the flags byte set by the type factory.
func (t *Type) FactoryFlags() uint8 { return t.hdr.FactoryFlags }

// Header returns the common record header.
func (t *Type) Header() Header { return t.hdr }

// NewCompound returns a class record.
func NewCompound(h Header, c *Compound) *Type {
	return &Type{hdr: h, kind: KindCompound, compound: c}
}

// NewEnum returns an enum record.
func NewEnum(h Header, e *Enum) *Type {
	return &Type{hdr: h, kind: KindEnum, enum: e}
}

// NewEnumFlags returns an enum flags record. It shares the enum view.
func NewEnumFlags(h Header, e *Enum) *Type {
	return &Type{hdr: h, kind: KindEnumFlags, enum: e}
}

// NewAtom returns a primitive record.
func NewAtom(h Header, a *Atom) *Type {
	return &Type{hdr: h, kind: KindAtom, atom: a}
}

// NewPointer returns a reference record.
func NewPointer(h Header, p *Pointer) *Type {
	return &Type{hdr: h, kind: KindPointer, pointer: p}
}

// NewContainer returns a container record.
func NewContainer(h Header, c *Container) *Type {
	return &Type{hdr: h, kind: KindContainer, container: c}
}

// NewPOD returns a plain-old-data record.
func NewPOD(h Header, p *POD) *Type {
	return &Type{hdr: h, kind: KindPOD, pod: p}
}

// AsCompound returns the class view when the record is a class.
func (t *Type) AsCompound() (*Compound, bool) {
	if t == nil || t.kind != KindCompound {
		return nil, false
	}
	return t.compound, true
}

// AsEnum returns the enum view for both enums and enum flags.
func (t *Type) AsEnum() (*Enum, bool) {
	if t == nil || (t.kind != KindEnum && t.kind != KindEnumFlags) {
		return nil, false
	}
	return t.enum, true
}

// AsAtom returns the primitive view.
func (t *Type) AsAtom() (*Atom, bool) {
	if t == nil || t.kind != KindAtom {
		return nil, false
	}
	return t.atom, true
}

// AsPointer returns the reference view.
func (t *Type) AsPointer() (*Pointer, bool) {
	if t == nil || t.kind != KindPointer {
		return nil, false
	}
	return t.pointer, true
}

// AsContainer returns the container view. References are not containers.
func (t *Type) AsContainer() (*Container, bool) {
	if t == nil || t.kind != KindContainer {
		return nil, false
	}
	return t.container, true
}

// AsPOD returns the POD view.
func (t *Type) AsPOD() (*POD, bool) {
	if t == nil || t.kind != KindPOD {
		return nil, false
	}
	return t.pod, true
}

// Compound is a class-like aggregate.
type Compound struct {
	TypeName  string
	Version   uint32
	Size      uint32
	Alignment uint16
	Flags     uint16

	Bases           []Base
	Attrs           []Attr
	MessageHandlers []MessageHandler

	// Sub-table addresses, kept for disassembler annotations.
	BasesAddr           uint64
	AttrsAddr           uint64
	MessageHandlersAddr uint64
	MessageOrderAddr    uint64
	MessageOrderCount   int

	// Neighbours in the factory's registration chain.
	PrevType uint64
	NextType uint64

	Constructor        Func
	Destructor         Func
	FromString         Func
	FromStringSlice    Func
	ToString           Func
	GetExportedSymbols Func
}

// Base is a supertype entry with the byte offset of its sub-object.
type Base struct {
	Type   *Type
	Offset uint64
}

// Attr is either a field or, when Type is nil, a category marker that labels
// the fields after it.
type Attr struct {
	Type     *Type
	Name     string
	Offset   uint16
	Flags    uint16
	Getter   Func
	Setter   Func
	MinValue string
	MaxValue string
}

// IsCategory reports whether the entry is a category marker.
func (a Attr) IsCategory() bool { return a.Type == nil }

// IsProperty reports whether the field is reached through accessors.
func (a Attr) IsProperty() bool { return a.Getter.IsSet() || a.Setter.IsSet() }

// MessageHandler binds a message type to its handler.
type MessageHandler struct {
	Message *Type
	Handler Func
}

// Enum is shared by enums and enum flags.
type Enum struct {
	TypeName   string
	Size       uint8
	Alignment  uint8
	Values     []Value
	ValuesAddr uint64
}

// Value is a named enumerator with up to four aliases.
type Value struct {
	Value   int64
	Name    string
	Aliases []string
}

// Atom is a primitive scalar, optionally defined in terms of a base atom.
type Atom struct {
	TypeName   string
	Size       uint16
	Alignment  uint8
	Simple     bool
	Base       *Type
	FromString Func
	ToString   Func
}

// PointerInfo is the side-table shared by every instantiation of a
// reference kind such as Ref or UUIDRef.
type PointerInfo struct {
	Addr        uint64
	TypeName    string
	Size        uint32
	Alignment   uint32
	Constructor Func
	Destructor  Func
	Getter      Func
	Setter      Func
	Copier      Func
}

// Pointer is a single-value indirection to Item.
type Pointer struct {
	Item *Type
	Info *PointerInfo
	// TypeName is the per-instantiation name; not every layout carries it.
	TypeName string
}

// ContainerInfo is the side-table shared by every instantiation of a
// container kind such as Array.
type ContainerInfo struct {
	Addr        uint64
	TypeName    string
	Size        uint16
	Alignment   uint8
	Constructor Func
	Destructor  Func
	Resize      Func
	Insert      Func
	Remove      Func
	GetSize     Func
	GetItem     Func
	ToString    Func
	FromString  Func
}

// Container is a dynamically sized sequence of Item.
type Container struct {
	Item     *Type
	Info     *ContainerInfo
	TypeName string
}

// POD is an opaque fixed-layout value type.
type POD struct{}
