package rtti

import "strings"

// Name returns the declared name of a record. References and containers
// report the name of their shared side-table (for example "Array"), not the
// per-instantiation name. Name panics with a *ContractError when the kind
// has no name or the side-table is missing.
func Name(t *Type) string {
	switch t.Kind() {
	case KindCompound:
		return t.compound.TypeName
	case KindEnum, KindEnumFlags:
		return t.enum.TypeName
	case KindAtom:
		return t.atom.TypeName
	case KindPointer:
		if t.pointer.Info == nil {
			panic(violation("name", t, ErrNoSideTable))
		}
		return t.pointer.Info.TypeName
	case KindContainer:
		if t.container.Info == nil {
			panic(violation("name", t, ErrNoSideTable))
		}
		return t.container.Info.TypeName
	default:
		panic(violation("name", t, nil))
	}
}

// DisplayName returns the fully qualified name of a record. References and
// containers render as Outer<Inner>, recursing through the item type, so
// Array<Ref<Foo>> comes out with every level expanded. A wrapper without an
// item type renders as Outer<>.
func DisplayName(t *Type) string {
	var sb strings.Builder
	writeDisplayName(&sb, t)
	return sb.String()
}

func writeDisplayName(sb *strings.Builder, t *Type) {
	var item *Type
	switch t.Kind() {
	case KindPointer:
		item = t.pointer.Item
	case KindContainer:
		item = t.container.Item
	default:
		sb.WriteString(Name(t))
		return
	}

	sb.WriteString(Name(t))
	sb.WriteByte('<')
	if item != nil {
		writeDisplayName(sb, item)
	}
	sb.WriteByte('>')
}

// Describe returns a name for diagnostics. Unlike Name it accepts records
// that have no declared name.
func Describe(t *Type) string {
	switch t.Kind() {
	case KindPOD:
		return "<POD>"
	case KindPointer:
		if t.pointer.Info == nil {
			return "<reference>"
		}
	case KindContainer:
		if t.container.Info == nil {
			return "<container>"
		}
	}
	if !t.Kind().Valid() {
		return "<" + t.Kind().String() + ">"
	}
	return DisplayName(t)
}
