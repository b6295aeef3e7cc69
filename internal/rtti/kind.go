// Package rtti models the reflection metadata records of Decima-engine
// executables: their binary layouts, the kind-tagged sum type decoded from
// them, and name resolution.
package rtti

import "fmt"

// Kind is the tag stored in every record header. It selects the concrete
// layout of the rest of the record and never changes after registration.
type Kind uint8

const (
	KindAtom      Kind = 0
	KindPointer   Kind = 1
	KindContainer Kind = 2
	KindEnum      Kind = 3
	KindCompound  Kind = 4
	KindEnumFlags Kind = 5
	KindPOD       Kind = 6
)

// Kinds lists every supported kind in tag order.
var Kinds = []Kind{KindAtom, KindPointer, KindContainer, KindEnum, KindCompound, KindEnumFlags, KindPOD}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k <= KindPOD
}

// String returns the label used in catalogs. Unknown kinds render with their
// raw value so diagnostics can still print them.
func (k Kind) String() string {
	switch k {
	case KindAtom:
		return "primitive"
	case KindPointer:
		return "reference"
	case KindContainer:
		return "container"
	case KindEnum:
		return "enum"
	case KindCompound:
		return "class"
	case KindEnumFlags:
		return "enum flags"
	case KindPOD:
		return "pod"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Priority is the primary catalog sort key: classes first, then enums, enum
// flags, primitives and everything else.
func (k Kind) Priority() int {
	switch k {
	case KindCompound:
		return 0
	case KindEnum:
		return 1
	case KindEnumFlags:
		return 2
	case KindAtom:
		return 3
	default:
		return 4
	}
}

// Exported reports whether records of this kind get their own catalog entry.
// Pointers, containers and PODs are structural plumbing.
func (k Kind) Exported() bool {
	switch k {
	case KindPointer, KindContainer, KindPOD:
		return false
	default:
		return true
	}
}

// ParseKind resolves a catalog label back to its kind.
func ParseKind(label string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == label {
			return k, nil
		}
	}
	return 0, fmt.Errorf("rtti: unknown kind %q", label)
}
