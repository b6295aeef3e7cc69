package store

import (
	"strings"

	"github.com/dbsmedya/rttidump/internal/catalog"
	"github.com/dbsmedya/rttidump/internal/rtti"
	"github.com/dbsmedya/rttidump/internal/verifier"
)

// Rows is a catalog flattened into table rows, in column order.
type Rows map[string][][]any

// Flatten converts catalog entries into rows keyed by catalogName. Positions
// keep catalog order for types and declaration order for nested lists.
func Flatten(catalogName string, entries []catalog.Entry) Rows {
	rows := make(Rows, len(Tables))
	for i, e := range entries {
		rows[TypesTable] = append(rows[TypesTable], typeRow(catalogName, i, e))

		for j, a := range e.Attrs {
			rows[AttrsTable] = append(rows[AttrsTable], []any{
				catalogName, e.Name, j,
				nullString(a.Name), nullString(a.Type), nullString(a.Category), a.Marker,
				nullIf(a.Marker, a.Offset), nullIf(a.Marker, a.Flags), a.Property,
				nullString(a.Min), nullString(a.Max),
			})
		}
		for j, b := range e.Bases {
			rows[BasesTable] = append(rows[BasesTable], []any{catalogName, e.Name, j, b.Name, b.Offset})
		}
		for j, v := range e.Values {
			rows[ValuesTable] = append(rows[ValuesTable], []any{
				catalogName, e.Name, j, v.Name, v.Value, nullString(strings.Join(v.Aliases, ",")),
			})
		}
	}
	return rows
}

func typeRow(catalogName string, pos int, e catalog.Entry) []any {
	var version, flags, size any
	switch e.Kind {
	case rtti.KindCompound:
		version, flags = e.Version, e.Flags
	case rtti.KindEnum, rtti.KindEnumFlags:
		size = e.Size
	}
	return []any{
		catalogName, pos, e.Name, e.Kind.String(),
		version, flags, size,
		nullString(e.BaseType), nullString(strings.Join(e.Messages, ",")),
	}
}

// Expectations returns the row count per table for verification.
func (r Rows) Expectations() []verifier.Expectation {
	out := make([]verifier.Expectation, 0, len(Tables))
	for _, table := range Tables {
		out = append(out, verifier.Expectation{Table: table, Rows: int64(len(r[table]))})
	}
	return out
}

// Len returns the total number of rows.
func (r Rows) Len() int {
	n := 0
	for _, rows := range r {
		n += len(rows)
	}
	return n
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIf(null bool, v uint16) any {
	if null {
		return nil
	}
	return v
}
