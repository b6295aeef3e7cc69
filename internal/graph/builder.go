package graph

import (
	"github.com/dbsmedya/rttidump/internal/rtti"
)

// FromTypes builds the inheritance graph of the classes in types. Other
// kinds are ignored. A base that is not itself in types still becomes a
// node, so the graph is closed over the bases it mentions.
func FromTypes(types []*rtti.Type) *Graph {
	g := NewGraph()
	for _, t := range types {
		c, ok := t.AsCompound()
		if !ok {
			continue
		}
		name := rtti.DisplayName(t)
		g.AddNode(name, t.Addr())
		for _, b := range c.Bases {
			if b.Type == nil || b.Type.Kind() != rtti.KindCompound {
				continue
			}
			g.AddNode(rtti.DisplayName(b.Type), b.Type.Addr())
			g.AddEdge(rtti.DisplayName(b.Type), name)
		}
	}
	return g
}
