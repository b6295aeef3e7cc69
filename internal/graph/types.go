// Package graph provides the class inheritance graph of a scan.
package graph

import "sort"

// Node is one class. Records that share a display name share a node.
type Node struct {
	Name  string
	Addrs []uint64
}

// Edge is a base -> derived relationship.
type Edge struct {
	From string // base class
	To   string // derived class
}

// Graph is the inheritance structure of a set of classes. Edges point from a
// base to the classes deriving from it.
type Graph struct {
	Nodes    map[string]*Node    // class name -> node
	Children map[string][]string // base -> derived classes (outgoing edges)
	Parents  map[string][]string // derived -> bases, in declaration order
	edges    map[Edge]bool
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:    make(map[string]*Node),
		Children: make(map[string][]string),
		Parents:  make(map[string][]string),
		edges:    make(map[Edge]bool),
	}
}

// AddNode adds a class, or records another address for an existing one.
// A zero address only makes sure the node exists.
func (g *Graph) AddNode(name string, addr uint64) *Node {
	n, ok := g.Nodes[name]
	if !ok {
		n = &Node{Name: name}
		g.Nodes[name] = n
	}
	if addr != 0 {
		for _, a := range n.Addrs {
			if a == addr {
				return n
			}
		}
		n.Addrs = append(n.Addrs, addr)
	}
	return n
}

// AddEdge adds a base -> derived relationship. Both ends are added as nodes
// and a repeated edge is ignored.
func (g *Graph) AddEdge(base, derived string) {
	g.AddNode(base, 0)
	g.AddNode(derived, 0)

	e := Edge{From: base, To: derived}
	if g.edges[e] {
		return
	}
	g.edges[e] = true
	g.Children[base] = append(g.Children[base], derived)
	g.Parents[derived] = append(g.Parents[derived], base)
}

// GetChildren returns the classes deriving directly from base.
func (g *Graph) GetChildren(base string) []string {
	return g.Children[base]
}

// GetParents returns the direct bases of a class in declaration order.
func (g *Graph) GetParents(derived string) []string {
	return g.Parents[derived]
}

// GetNode returns the node for a class name, or nil if not found.
func (g *Graph) GetNode(name string) *Node {
	return g.Nodes[name]
}

// HasNode returns true if the graph contains the class.
func (g *Graph) HasNode(name string) bool {
	_, exists := g.Nodes[name]
	return exists
}

// HasEdge returns true if derived inherits directly from base.
func (g *Graph) HasEdge(base, derived string) bool {
	return g.edges[Edge{From: base, To: derived}]
}

// NodeCount returns the number of classes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// EdgeCount returns the number of inheritance edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Roots returns the classes without bases, sorted by name.
func (g *Graph) Roots() []string {
	var roots []string
	for name := range g.Nodes {
		if len(g.Parents[name]) == 0 {
			roots = append(roots, name)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns the classes nothing derives from, sorted by name.
func (g *Graph) Leaves() []string {
	var leaves []string
	for name := range g.Nodes {
		if len(g.Children[name]) == 0 {
			leaves = append(leaves, name)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// sortedNames returns every node name in lexical order.
func (g *Graph) sortedNames() []string {
	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
