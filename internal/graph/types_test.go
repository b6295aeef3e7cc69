package graph

import (
	"reflect"
	"testing"
)

func TestAddNode_MergesAddresses(t *testing.T) {
	g := NewGraph()
	g.AddNode("Object", 0x1000)
	g.AddNode("Object", 0x2000)
	g.AddNode("Object", 0x1000)
	g.AddNode("Object", 0)

	if g.NodeCount() != 1 {
		t.Fatalf("Expected 1 node, got %d", g.NodeCount())
	}
	want := []uint64{0x1000, 0x2000}
	if got := g.GetNode("Object").Addrs; !reflect.DeepEqual(got, want) {
		t.Errorf("Expected addrs %v, got %v", want, got)
	}
}

func TestAddEdge(t *testing.T) {
	g := NewGraph()
	g.AddEdge("RTTIObject", "Object")
	g.AddEdge("RTTIObject", "Object")
	g.AddEdge("Object", "Entity")

	if g.NodeCount() != 3 {
		t.Errorf("Expected 3 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 2 {
		t.Errorf("Expected 2 edges after the repeated one, got %d", g.EdgeCount())
	}
	if !g.HasEdge("RTTIObject", "Object") {
		t.Error("Expected edge RTTIObject -> Object")
	}
	if g.HasEdge("Object", "RTTIObject") {
		t.Error("Edge direction should be base -> derived")
	}
	if got := g.GetChildren("RTTIObject"); !reflect.DeepEqual(got, []string{"Object"}) {
		t.Errorf("Unexpected children %v", got)
	}
	if got := g.GetParents("Entity"); !reflect.DeepEqual(got, []string{"Object"}) {
		t.Errorf("Unexpected parents %v", got)
	}
}

func TestParents_DeclarationOrder(t *testing.T) {
	g := NewGraph()
	g.AddEdge("Zeta", "Mixed")
	g.AddEdge("Alpha", "Mixed")

	want := []string{"Zeta", "Alpha"}
	if got := g.GetParents("Mixed"); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected parents %v, got %v", want, got)
	}
}

func TestRootsAndLeaves(t *testing.T) {
	g := NewGraph()
	g.AddEdge("RTTIObject", "Object")
	g.AddEdge("Object", "Entity")
	g.AddEdge("Object", "Resource")
	g.AddNode("Standalone", 0x10)

	if got, want := g.Roots(), []string{"RTTIObject", "Standalone"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Expected roots %v, got %v", want, got)
	}
	if got, want := g.Leaves(), []string{"Entity", "Resource", "Standalone"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Expected leaves %v, got %v", want, got)
	}
	if !g.HasNode("Standalone") || g.HasNode("Missing") {
		t.Error("HasNode mismatch")
	}
}
