package rtti

import (
	"sync"

	"github.com/dbsmedya/rttidump/internal/memory"
)

// Decoder reads records from an address space into Types. Every record is
// decoded once: loading the same address again returns the same *Type, so
// pointer identity in the target is preserved and reference cycles resolve
// to the already cached record.
type Decoder struct {
	mem    *memory.Reader
	layout *Layout

	mu             sync.Mutex
	types          map[uint64]*Type
	pointerInfos   map[uint64]*PointerInfo
	containerInfos map[uint64]*ContainerInfo
}

// NewDecoder returns a decoder reading mem with the given record layout.
func NewDecoder(mem *memory.Reader, layout *Layout) *Decoder {
	return &Decoder{
		mem:            mem,
		layout:         layout,
		types:          make(map[uint64]*Type),
		pointerInfos:   make(map[uint64]*PointerInfo),
		containerInfos: make(map[uint64]*ContainerInfo),
	}
}

// Layout returns the decoder's record layout.
func (d *Decoder) Layout() *Layout {
	return d.layout
}

// Len returns the number of records decoded so far.
func (d *Decoder) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.types)
}

// Load decodes the record at addr together with every record reachable from
// it. A zero address is an absent reference and yields (nil, nil).
//
// A read failure anywhere in the reachable graph returns a *DecodeError and
// leaves the cache as it was before the call. A kind tag outside the
// supported set panics with a *ContractError.
func (d *Decoder) Load(addr uint64) (*Type, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := &pass{d: d}
	committed := false
	defer func() {
		if !committed {
			p.rollback()
		}
	}()

	t, err := p.load(addr)
	if err != nil {
		return nil, err
	}
	committed = true
	return t, nil
}

// pass tracks the records added by one Load so a failed load can undo them.
type pass struct {
	d     *Decoder
	added []uint64
}

func (p *pass) rollback() {
	for _, addr := range p.added {
		delete(p.d.types, addr)
	}
}

func (p *pass) block(addr uint64, size int, field string) (memory.Block, error) {
	b, err := p.d.mem.Block(addr, size)
	if err != nil {
		return memory.Block{}, &DecodeError{Addr: addr, Field: field, Err: err}
	}
	return b, nil
}

func (p *pass) str(b memory.Block, f Field, field string) (string, error) {
	if !f.Present() {
		return "", nil
	}
	s, err := p.d.mem.CString(b.Uint(f.Off, f.Width))
	if err != nil {
		return "", &DecodeError{Addr: b.Addr, Field: field, Err: err}
	}
	return s, nil
}

func (p *pass) ref(b memory.Block, f Field) (*Type, error) {
	if !f.Present() {
		return nil, nil
	}
	return p.load(b.Uint(f.Off, f.Width))
}

func fn(b memory.Block, f Field) Func {
	return Func(b.Uint(f.Off, f.Width))
}

func (p *pass) load(addr uint64) (*Type, error) {
	if addr == 0 {
		return nil, nil
	}
	if t, ok := p.d.types[addr]; ok {
		return t, nil
	}

	l := p.d.layout
	headerSize := l.Header.FactoryFlags.Off + l.Header.FactoryFlags.Width
	hb, err := p.block(addr, headerSize, "header")
	if err != nil {
		return nil, err
	}
	raw := uint8(hb.Uint(l.Header.Kind.Off, l.Header.Kind.Width))
	kind := Kind(raw)

	var size int
	switch kind {
	case KindCompound:
		size = l.Compound.Size
	case KindEnum, KindEnumFlags:
		size = l.Enum.Size
	case KindAtom:
		size = l.Atom.Size
	case KindPointer:
		size = l.Pointer.Size
	case KindContainer:
		size = l.Container.Size
	case KindPOD:
		size = headerSize
	default:
		panic(&ContractError{Op: "decode", Addr: addr, RawKind: raw})
	}

	b, err := p.block(addr, size, kind.String())
	if err != nil {
		return nil, err
	}
	h := Header{
		Addr:         addr,
		ID:           uint32(b.Uint(l.Header.ID.Off, l.Header.ID.Width)),
		FactoryFlags: uint8(b.Uint(l.Header.FactoryFlags.Off, l.Header.FactoryFlags.Width)),
	}

	// The record is cached before its body is filled so that references
	// back to it resolve to this instance.
	var t *Type
	switch kind {
	case KindCompound:
		c := &Compound{}
		t = NewCompound(h, c)
		p.cache(t)
		err = p.compound(b, c)
	case KindEnum, KindEnumFlags:
		e := &Enum{}
		if kind == KindEnum {
			t = NewEnum(h, e)
		} else {
			t = NewEnumFlags(h, e)
		}
		p.cache(t)
		err = p.enum(b, e)
	case KindAtom:
		a := &Atom{}
		t = NewAtom(h, a)
		p.cache(t)
		err = p.atom(b, a)
	case KindPointer:
		pt := &Pointer{}
		t = NewPointer(h, pt)
		p.cache(t)
		pt.Item, pt.Info, pt.TypeName, err = p.pointer(b)
	case KindContainer:
		c := &Container{}
		t = NewContainer(h, c)
		p.cache(t)
		c.Item, c.Info, c.TypeName, err = p.container(b)
	case KindPOD:
		t = NewPOD(h, &POD{})
		p.cache(t)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (p *pass) cache(t *Type) {
	p.d.types[t.Addr()] = t
	p.added = append(p.added, t.Addr())
}

func (p *pass) compound(b memory.Block, c *Compound) error {
	l := p.d.layout.Compound
	var err error

	if c.TypeName, err = p.str(b, l.TypeName, "type name"); err != nil {
		return err
	}
	c.Version = uint32(b.Uint(l.Version.Off, l.Version.Width))
	c.Size = uint32(b.Uint(l.TypeSize.Off, l.TypeSize.Width))
	c.Alignment = uint16(b.Uint(l.Alignment.Off, l.Alignment.Width))
	c.Flags = uint16(b.Uint(l.Flags.Off, l.Flags.Width))

	c.Constructor = fn(b, l.Constructor)
	c.Destructor = fn(b, l.Destructor)
	c.FromString = fn(b, l.FromString)
	c.FromStringSlice = fn(b, l.FromStringSlice)
	c.ToString = fn(b, l.ToString)
	c.GetExportedSymbols = fn(b, l.GetExportedSymbols)
	c.PrevType = b.Uint(l.PrevType.Off, l.PrevType.Width)
	c.NextType = b.Uint(l.NextType.Off, l.NextType.Width)

	c.BasesAddr = b.Uint(l.Bases.Off, l.Bases.Width)
	c.AttrsAddr = b.Uint(l.Attrs.Off, l.Attrs.Width)
	c.MessageHandlersAddr = b.Uint(l.MessageHandlers.Off, l.MessageHandlers.Width)
	c.MessageOrderAddr = b.Uint(l.MessageOrder.Off, l.MessageOrder.Width)
	c.MessageOrderCount = int(b.Uint(l.NumMessageOrder.Off, l.NumMessageOrder.Width))

	if c.Bases, err = p.bases(c.BasesAddr, int(b.Uint(l.NumBases.Off, l.NumBases.Width))); err != nil {
		return err
	}
	if c.Attrs, err = p.attrs(c.AttrsAddr, int(b.Uint(l.NumAttrs.Off, l.NumAttrs.Width))); err != nil {
		return err
	}
	c.MessageHandlers, err = p.messageHandlers(c.MessageHandlersAddr, int(b.Uint(l.NumMessageHandlers.Off, l.NumMessageHandlers.Width)))
	return err
}

func (p *pass) bases(addr uint64, n int) ([]Base, error) {
	if addr == 0 || n == 0 {
		return nil, nil
	}
	l := p.d.layout.Base
	out := make([]Base, 0, n)
	for i := 0; i < n; i++ {
		b, err := p.block(addr+uint64(i*l.Size), l.Size, "base")
		if err != nil {
			return nil, err
		}
		t, err := p.ref(b, l.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, Base{Type: t, Offset: b.Uint(l.Offset.Off, l.Offset.Width)})
	}
	return out, nil
}

func (p *pass) attrs(addr uint64, n int) ([]Attr, error) {
	if addr == 0 || n == 0 {
		return nil, nil
	}
	l := p.d.layout.Attr
	out := make([]Attr, 0, n)
	for i := 0; i < n; i++ {
		b, err := p.block(addr+uint64(i*l.Size), l.Size, "attr")
		if err != nil {
			return nil, err
		}
		a := Attr{
			Offset: uint16(b.Uint(l.Offset.Off, l.Offset.Width)),
			Flags:  uint16(b.Uint(l.Flags.Off, l.Flags.Width)),
			Getter: fn(b, l.Getter),
			Setter: fn(b, l.Setter),
		}
		if a.Name, err = p.str(b, l.Name, "attr name"); err != nil {
			return nil, err
		}
		if a.MinValue, err = p.str(b, l.Min, "attr min"); err != nil {
			return nil, err
		}
		if a.MaxValue, err = p.str(b, l.Max, "attr max"); err != nil {
			return nil, err
		}
		if a.Type, err = p.ref(b, l.Type); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (p *pass) messageHandlers(addr uint64, n int) ([]MessageHandler, error) {
	if addr == 0 || n == 0 {
		return nil, nil
	}
	l := p.d.layout.MessageHandler
	out := make([]MessageHandler, 0, n)
	for i := 0; i < n; i++ {
		b, err := p.block(addr+uint64(i*l.Size), l.Size, "message handler")
		if err != nil {
			return nil, err
		}
		msg, err := p.ref(b, l.Message)
		if err != nil {
			return nil, err
		}
		out = append(out, MessageHandler{Message: msg, Handler: fn(b, l.Handler)})
	}
	return out, nil
}

func (p *pass) enum(b memory.Block, e *Enum) error {
	l := p.d.layout.Enum
	var err error

	if e.TypeName, err = p.str(b, l.TypeName, "type name"); err != nil {
		return err
	}
	e.Size = uint8(b.Uint(l.TypeSize.Off, l.TypeSize.Width))
	e.Alignment = uint8(b.Uint(l.Alignment.Off, l.Alignment.Width))
	e.ValuesAddr = b.Uint(l.Values.Off, l.Values.Width)

	n := int(b.Uint(l.NumValues.Off, l.NumValues.Width))
	if e.ValuesAddr == 0 || n == 0 {
		return nil
	}

	vl := p.d.layout.Value
	e.Values = make([]Value, 0, n)
	for i := 0; i < n; i++ {
		vb, err := p.block(e.ValuesAddr+uint64(i*vl.Size), vl.Size, "value")
		if err != nil {
			return err
		}
		v := Value{Value: vb.Int(vl.Value.Off, vl.Value.Width)}
		if v.Name, err = p.str(vb, vl.Name, "value name"); err != nil {
			return err
		}
		for j := 0; j < vl.NumAliases; j++ {
			f := Field{Off: vl.Aliases.Off + j*vl.Aliases.Width, Width: vl.Aliases.Width}
			if vb.Uint(f.Off, f.Width) == 0 {
				break
			}
			alias, err := p.str(vb, f, "value alias")
			if err != nil {
				return err
			}
			v.Aliases = append(v.Aliases, alias)
		}
		e.Values = append(e.Values, v)
	}
	return nil
}

func (p *pass) atom(b memory.Block, a *Atom) error {
	l := p.d.layout.Atom
	var err error

	if a.TypeName, err = p.str(b, l.TypeName, "type name"); err != nil {
		return err
	}
	a.Size = uint16(b.Uint(l.TypeSize.Off, l.TypeSize.Width))
	a.Alignment = uint8(b.Uint(l.Alignment.Off, l.Alignment.Width))
	a.Simple = b.Uint(l.Simple.Off, l.Simple.Width) != 0
	a.FromString = fn(b, l.FromString)
	a.ToString = fn(b, l.ToString)
	a.Base, err = p.ref(b, l.Base)
	return err
}

func (p *pass) pointer(b memory.Block) (*Type, *PointerInfo, string, error) {
	l := p.d.layout.Pointer
	name, err := p.str(b, l.TypeName, "type name")
	if err != nil {
		return nil, nil, "", err
	}
	info, err := p.pointerInfo(b.Uint(l.Info.Off, l.Info.Width))
	if err != nil {
		return nil, nil, "", err
	}
	item, err := p.ref(b, l.Item)
	if err != nil {
		return nil, nil, "", err
	}
	return item, info, name, nil
}

func (p *pass) container(b memory.Block) (*Type, *ContainerInfo, string, error) {
	l := p.d.layout.Container
	name, err := p.str(b, l.TypeName, "type name")
	if err != nil {
		return nil, nil, "", err
	}
	info, err := p.containerInfo(b.Uint(l.Info.Off, l.Info.Width))
	if err != nil {
		return nil, nil, "", err
	}
	item, err := p.ref(b, l.Item)
	if err != nil {
		return nil, nil, "", err
	}
	return item, info, name, nil
}

func (p *pass) pointerInfo(addr uint64) (*PointerInfo, error) {
	if addr == 0 {
		return nil, nil
	}
	if info, ok := p.d.pointerInfos[addr]; ok {
		return info, nil
	}
	l := p.d.layout.PointerInfo
	b, err := p.block(addr, l.Size, "pointer info")
	if err != nil {
		return nil, err
	}
	info := &PointerInfo{
		Addr:        addr,
		Size:        uint32(b.Uint(l.TypeSize.Off, l.TypeSize.Width)),
		Alignment:   uint32(b.Uint(l.Alignment.Off, l.Alignment.Width)),
		Constructor: fn(b, l.Constructor),
		Destructor:  fn(b, l.Destructor),
		Getter:      fn(b, l.Getter),
		Setter:      fn(b, l.Setter),
		Copier:      fn(b, l.Copier),
	}
	if info.TypeName, err = p.str(b, l.TypeName, "pointer info name"); err != nil {
		return nil, err
	}
	p.d.pointerInfos[addr] = info
	return info, nil
}

func (p *pass) containerInfo(addr uint64) (*ContainerInfo, error) {
	if addr == 0 {
		return nil, nil
	}
	if info, ok := p.d.containerInfos[addr]; ok {
		return info, nil
	}
	l := p.d.layout.ContainerInfo
	b, err := p.block(addr, l.Size, "container info")
	if err != nil {
		return nil, err
	}
	info := &ContainerInfo{
		Addr:        addr,
		Size:        uint16(b.Uint(l.TypeSize.Off, l.TypeSize.Width)),
		Alignment:   uint8(b.Uint(l.Alignment.Off, l.Alignment.Width)),
		Constructor: fn(b, l.Constructor),
		Destructor:  fn(b, l.Destructor),
		Resize:      fn(b, l.Resize),
		Insert:      fn(b, l.Insert),
		Remove:      fn(b, l.Remove),
		GetSize:     fn(b, l.GetSize),
		GetItem:     fn(b, l.GetItem),
		ToString:    fn(b, l.ToString),
		FromString:  fn(b, l.FromString),
	}
	if info.TypeName, err = p.str(b, l.TypeName, "container info name"); err != nil {
		return nil, err
	}
	p.d.containerInfos[addr] = info
	return info, nil
}
