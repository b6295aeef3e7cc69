package cmd

import (
	"fmt"

	"github.com/dbsmedya/rttidump/internal/rtti"
	"github.com/dbsmedya/rttidump/internal/rtti/rttitest"
)

// fixture builds:
//
//	Object : RTTIObject
//	  Count int32, Mode EMode, Parent Ref<Object>
//	int32 based on int
func fixture() (*rttitest.Image, map[string]uint64) {
	img := rttitest.New(rtti.HFW)
	a := map[string]uint64{}

	a["int"] = img.Atom(rttitest.AtomSpec{ID: 1, Name: "int", Size: 4})
	a["int32"] = img.Atom(rttitest.AtomSpec{ID: 2, Name: "int32", Size: 4, Base: a["int"]})
	a["EMode"] = img.Enum(rttitest.EnumSpec{ID: 3, Name: "EMode", Size: 1, Values: []rttitest.ValueSpec{
		{Name: "Off"}, {Name: "On", Value: 1},
	}})
	a["RTTIObject"] = img.Compound(rttitest.CompoundSpec{ID: 4, Name: "RTTIObject"})
	a["Object"] = img.Reserve(rtti.KindCompound, 5)
	a["Ref"] = img.Pointer(rttitest.WrapperSpec{ID: 6, Item: a["Object"], Info: img.PointerInfo("Ref")})
	img.SetCompound(a["Object"], rttitest.CompoundSpec{
		ID:    5,
		Name:  "Object",
		Bases: []rttitest.BaseSpec{{Type: a["RTTIObject"]}},
		Attrs: []rttitest.AttrSpec{
			{Type: a["int32"], Name: "Count"},
			{Type: a["EMode"], Name: "Mode", Offset: 4},
			{Type: a["Ref"], Name: "Parent", Offset: 8},
		},
	})
	return img, a
}

func hexAddr(addr uint64) string {
	return fmt.Sprintf("0x%x", addr)
}
