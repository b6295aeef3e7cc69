package catalog

import (
	"io"

	"github.com/dbsmedya/rttidump/internal/jsonw"
	"github.com/dbsmedya/rttidump/internal/rtti"
)

// Encode writes the catalog document to w. The schema marker comes first,
// then one member per entry keyed by display name.
func (c *Catalog) Encode(w io.Writer) error {
	jw := jsonw.New(w)

	jw.BeginObject()
	jw.NameCompactObject("$spec")
	jw.Name("version")
	jw.Scalar(c.SpecVersion)
	jw.EndObject()

	for _, e := range c.Entries() {
		writeEntry(jw, e)
	}

	jw.EndObject()
	return jw.Flush()
}

func writeEntry(jw *jsonw.Writer, e Entry) {
	jw.NameObject(e.Name)
	jw.NameString("kind", e.Kind.String())

	switch e.Kind {
	case rtti.KindCompound:
		jw.NameUint("version", uint64(e.Version))
		jw.NameUint("flags", uint64(e.Flags))

		if len(e.Messages) > 0 {
			jw.NameArray("messages")
			for _, m := range e.Messages {
				jw.String(m)
			}
			jw.EndArray()
		}

		if len(e.Bases) > 0 {
			jw.NameArray("bases")
			for _, b := range e.Bases {
				jw.BeginCompactObject()
				jw.NameString("name", b.Name)
				jw.NameUint("offset", b.Offset)
				jw.EndObject()
			}
			jw.EndArray()
		}

		if len(e.Attrs) > 0 {
			jw.NameArray("attrs")
			for _, a := range e.Attrs {
				writeAttr(jw, a)
			}
			jw.EndArray()
		}

	case rtti.KindEnum, rtti.KindEnumFlags:
		jw.NameUint("size", uint64(e.Size))
		jw.NameArray("values")
		for _, v := range e.Values {
			jw.BeginCompactObject()
			jw.NameString("name", v.Name)
			jw.NameInt("value", v.Value)
			if len(v.Aliases) > 0 {
				jw.NameCompactArray("alias")
				for _, alias := range v.Aliases {
					jw.String(alias)
				}
				jw.EndArray()
			}
			jw.EndObject()
		}
		jw.EndArray()

	default:
		if e.BaseType != "" {
			jw.NameString("base_type", e.BaseType)
		}
	}

	jw.EndObject()
}

func writeAttr(jw *jsonw.Writer, a AttrEntry) {
	jw.BeginCompactObject()
	defer jw.EndObject()

	if a.Marker {
		jw.NameString("category", a.Category)
		return
	}

	jw.NameString("name", a.Name)
	jw.NameString("type", a.Type)
	jw.NameString("category", a.Category)
	jw.NameUint("offset", uint64(a.Offset))
	jw.NameUint("flags", uint64(a.Flags))
	jw.NameBool("property", a.Property)
	if a.Min != "" {
		jw.NameString("min", a.Min)
	}
	if a.Max != "" {
		jw.NameString("max", a.Max)
	}
}
