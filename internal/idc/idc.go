// Package idc generates a disassembler script that names and types the RTTI
// records and their sub-tables inside the target image.
package idc

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dbsmedya/rttidump/internal/catalog"
	"github.com/dbsmedya/rttidump/internal/rtti"
)

// readBinaryMessage is the message whose handler deserializes a class.
const readBinaryMessage = "MsgReadBinary"

// Select returns the records the script annotates, in catalog order. PODs
// and wrappers without a side-table have no name and are skipped.
func Select(snapshot []*rtti.Type) []*rtti.Type {
	out := make([]*rtti.Type, 0, len(snapshot))
	for _, t := range snapshot {
		if p, ok := t.AsPointer(); ok && p.Info == nil {
			continue
		}
		if c, ok := t.AsContainer(); ok && c.Info == nil {
			continue
		}
		if t.Kind() == rtti.KindPOD {
			continue
		}
		out = append(out, t)
	}
	catalog.Sort(out)
	return out
}

// structName is the structure the script applies to a record of kind k.
func structName(k rtti.Kind) string {
	switch k {
	case rtti.KindAtom:
		return "RTTIAtom"
	case rtti.KindPointer:
		return "RTTIPointer"
	case rtti.KindContainer:
		return "RTTIContainer"
	case rtti.KindEnum, rtti.KindEnumFlags:
		return "RTTIEnum"
	case rtti.KindCompound:
		return "RTTICompound"
	default:
		return "RTTIPod"
	}
}

type script struct {
	w      *bufio.Writer
	layout *rtti.Layout
}

// Export writes the script for types, which should come from Select.
func Export(w io.Writer, types []*rtti.Type, layout *rtti.Layout) error {
	s := &script{w: bufio.NewWriter(w), layout: layout}

	s.w.WriteString("#include <idc.idc>\n\nstatic main()\n{")
	for _, t := range types {
		s.record(t)
	}
	s.w.WriteString("}\n")

	return s.w.Flush()
}

func (s *script) setName(addr uint64, name string) {
	fmt.Fprintf(s.w, "\tset_name(0x%016X, \"%s\");\n", addr, name)
}

func (s *script) applyType(addr uint64, typ string) {
	fmt.Fprintf(s.w, "\tapply_type(0x%016X, \"%s\");\n", addr, typ)
}

func (s *script) delItems(addr uint64, size int) {
	fmt.Fprintf(s.w, "\tdel_items(0x%016X, DELIT_SIMPLE, %d);\n", addr, size)
}

func (s *script) table(addr uint64, n, size int, name, elem string) {
	if addr == 0 {
		return
	}
	s.delItems(addr, n*size)
	s.setName(addr, name)
	s.applyType(addr, fmt.Sprintf("%s[%d]", elem, n))
}

func (s *script) record(t *rtti.Type) {
	name := rtti.Name(t)

	fmt.Fprintf(s.w, "\n\t// %s %s\n", t.Kind(), name)
	s.setName(t.Addr(), "RTTI_"+name)
	s.applyType(t.Addr(), structName(t.Kind()))

	switch t.Kind() {
	case rtti.KindCompound:
		c, _ := t.AsCompound()
		s.compound(name, c)
	case rtti.KindEnum, rtti.KindEnumFlags:
		e, _ := t.AsEnum()
		s.table(e.ValuesAddr, len(e.Values), s.layout.Value.Size, name+"::sValues", "RTTIValue")
	case rtti.KindContainer:
		c, _ := t.AsContainer()
		// Arrays share one side-table; other containers name it after
		// their instantiation when the layout records one.
		infoName := c.Info.TypeName
		if infoName != "Array" && c.TypeName != "" {
			infoName = c.TypeName
		}
		s.setName(c.Info.Addr, infoName+"::sInfo")
		s.applyType(c.Info.Addr, "RTTIContainerData")
	case rtti.KindPointer:
		p, _ := t.AsPointer()
		s.setName(p.Info.Addr, p.Info.TypeName+"::sInfo")
		s.applyType(p.Info.Addr, "RTTIPointerData")
	}
}

func (s *script) compound(name string, c *rtti.Compound) {
	l := s.layout

	s.table(c.BasesAddr, len(c.Bases), l.Base.Size, name+"::sBases", "RTTIBase")
	s.table(c.AttrsAddr, len(c.Attrs), l.Attr.Size, name+"::sAttrs", "RTTIAttr")
	s.table(c.MessageHandlersAddr, len(c.MessageHandlers), l.MessageHandler.Size, name+"::sMessageHandlers", "RTTIMessageHandler")

	for _, m := range c.MessageHandlers {
		if m.Message == nil || !m.Handler.IsSet() {
			continue
		}
		if rtti.Describe(m.Message) == readBinaryMessage {
			s.setName(uint64(m.Handler), name+"::OnReadBinary")
			s.applyType(uint64(m.Handler), "__int64 __fastcall f(void* this, MsgReadBinary* msg)")
		}
	}

	s.table(c.MessageOrderAddr, c.MessageOrderCount, l.MessageOrder, name+"::sInheritedMessageHandlers", "RTTIInheritedMessageHandler")

	if c.GetExportedSymbols.IsSet() {
		s.setName(uint64(c.GetExportedSymbols), name+"::GetExportedSymbols")
	}
}
