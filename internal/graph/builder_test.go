package graph

import (
	"reflect"
	"testing"

	"github.com/dbsmedya/rttidump/internal/rtti"
	"github.com/dbsmedya/rttidump/internal/rtti/rttitest"
	"github.com/dbsmedya/rttidump/internal/scanner"
)

func TestFromTypes(t *testing.T) {
	img := rttitest.New(rtti.HFW)
	integer := img.Atom(rttitest.AtomSpec{ID: 1, Name: "int"})
	root := img.Compound(rttitest.CompoundSpec{ID: 2, Name: "RTTIObject"})
	mixin := img.Compound(rttitest.CompoundSpec{ID: 3, Name: "IStreamable"})
	object := img.Compound(rttitest.CompoundSpec{
		ID:    4,
		Name:  "Object",
		Bases: []rttitest.BaseSpec{{Type: root}, {Type: mixin, Offset: 8}},
		Attrs: []rttitest.AttrSpec{{Type: integer, Name: "Count"}},
	})
	entity := img.Compound(rttitest.CompoundSpec{
		ID:    5,
		Name:  "Entity",
		Bases: []rttitest.BaseSpec{{Type: object}},
	})

	set := scanner.NewSet()
	scanner.Visit(img.Load(entity), set)
	g := FromTypes(set.Snapshot())

	if g.NodeCount() != 4 {
		t.Errorf("Expected 4 classes, got %d", g.NodeCount())
	}
	if g.HasNode("int") {
		t.Error("Primitives should not be in the inheritance graph")
	}
	if got, want := g.GetParents("Object"), []string{"RTTIObject", "IStreamable"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Expected bases %v, got %v", want, got)
	}
	if got := g.GetNode("Entity").Addrs; !reflect.DeepEqual(got, []uint64{entity}) {
		t.Errorf("Unexpected Entity addrs %v", got)
	}

	levels, err := g.Levels()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := []Level{
		{Name: "IStreamable", Depth: 0},
		{Name: "RTTIObject", Depth: 0},
		{Name: "Object", Depth: 1},
		{Name: "Entity", Depth: 2},
	}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("Expected %v, got %v", want, levels)
	}
}

func TestFromTypes_Empty(t *testing.T) {
	if g := FromTypes(nil); g.NodeCount() != 0 {
		t.Errorf("Expected empty graph, got %d nodes", g.NodeCount())
	}
}
