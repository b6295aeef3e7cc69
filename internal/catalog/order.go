package catalog

import (
	"sort"

	"github.com/dbsmedya/rttidump/internal/rtti"
)

// Less orders records by kind priority, then declared name. Records that
// still tie fall back to display name, id and address so the order never
// depends on the input order.
func Less(a, b *rtti.Type) bool {
	if pa, pb := a.Kind().Priority(), b.Kind().Priority(); pa != pb {
		return pa < pb
	}
	if na, nb := rtti.Name(a), rtti.Name(b); na != nb {
		return na < nb
	}
	if da, db := rtti.DisplayName(a), rtti.DisplayName(b); da != db {
		return da < db
	}
	if a.ID() != b.ID() {
		return a.ID() < b.ID()
	}
	return a.Addr() < b.Addr()
}

// Sort orders types in place with Less.
func Sort(types []*rtti.Type) {
	sort.SliceStable(types, func(i, j int) bool {
		return Less(types[i], types[j])
	})
}
