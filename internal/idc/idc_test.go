package idc

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/rttidump/internal/rtti"
	"github.com/dbsmedya/rttidump/internal/rtti/rttitest"
	"github.com/dbsmedya/rttidump/internal/scanner"
)

func export(t *testing.T, types []*rtti.Type, layout *rtti.Layout) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, Select(types), layout))
	return buf.String()
}

func TestExport_Compound(t *testing.T) {
	img := rttitest.New(rtti.HFW)
	i32 := img.Atom(rttitest.AtomSpec{ID: 1, Name: "int32"})
	obj := img.Compound(rttitest.CompoundSpec{ID: 2, Name: "RTTIObject"})
	msg := img.Compound(rttitest.CompoundSpec{ID: 3, Name: "MsgReadBinary"})
	vec := img.Compound(rttitest.CompoundSpec{
		ID:                 4,
		Name:               "Vector",
		Bases:              []rttitest.BaseSpec{{Type: obj}},
		Attrs:              []rttitest.AttrSpec{{Type: i32, Name: "X"}, {Type: i32, Name: "Y", Offset: 4}},
		Messages:           []rttitest.MessageSpec{{Message: msg, Handler: 0x140900000}},
		MessageOrder:       1,
		GetExportedSymbols: 0x140A00000,
	})

	root := img.Load(vec)
	c, _ := root.AsCompound()
	set := scanner.NewSet()
	scanner.Visit(root, set)

	out := export(t, set.Snapshot(), rtti.HFW)

	assert.True(t, strings.HasPrefix(out, "#include <idc.idc>\n\nstatic main()\n{\n\t// class MsgReadBinary\n"))
	assert.True(t, strings.HasSuffix(out, "}\n"))

	addr := func(v uint64) string { return "0x" + leftPad(v) }

	assert.Contains(t, out, "\t// class Vector\n"+
		"\tset_name("+addr(vec)+", \"RTTI_Vector\");\n"+
		"\tapply_type("+addr(vec)+", \"RTTICompound\");\n")
	assert.Contains(t, out, "\tdel_items("+addr(c.BasesAddr)+", DELIT_SIMPLE, 16);\n"+
		"\tset_name("+addr(c.BasesAddr)+", \"Vector::sBases\");\n"+
		"\tapply_type("+addr(c.BasesAddr)+", \"RTTIBase[1]\");\n")
	assert.Contains(t, out, "\tdel_items("+addr(c.AttrsAddr)+", DELIT_SIMPLE, 112);\n")
	assert.Contains(t, out, "\tapply_type("+addr(c.AttrsAddr)+", \"RTTIAttr[2]\");\n")
	assert.Contains(t, out, "\tset_name("+addr(c.MessageHandlersAddr)+", \"Vector::sMessageHandlers\");\n")
	assert.Contains(t, out, "\tset_name(0x0000000140900000, \"Vector::OnReadBinary\");\n"+
		"\tapply_type(0x0000000140900000, \"__int64 __fastcall f(void* this, MsgReadBinary* msg)\");\n")
	assert.Contains(t, out, "\tset_name("+addr(c.MessageOrderAddr)+", \"Vector::sInheritedMessageHandlers\");\n")
	assert.Contains(t, out, "\tapply_type("+addr(c.MessageOrderAddr)+", \"RTTIInheritedMessageHandler[1]\");\n")
	assert.Contains(t, out, "\tset_name(0x0000000140A00000, \"Vector::GetExportedSymbols\");\n")
	assert.Contains(t, out, "\t// primitive int32\n")

	// Classes without sub-tables get only the record lines.
	assert.Contains(t, out, "\tapply_type("+addr(obj)+", \"RTTICompound\");\n\n")
}

func TestExport_EnumAndWrappers(t *testing.T) {
	img := rttitest.New(rtti.HFW)
	foo := img.Atom(rttitest.AtomSpec{ID: 1, Name: "Foo"})
	mode := img.Enum(rttitest.EnumSpec{ID: 2, Name: "EMode", Values: []rttitest.ValueSpec{{Name: "A"}, {Name: "B", Value: 1}}})
	arrInfo := img.ContainerInfo("Array")
	hashInfo := img.ContainerInfo("HashMap")
	refInfo := img.PointerInfo("Ref")
	arr := img.Container(rttitest.WrapperSpec{ID: 3, Item: foo, Info: arrInfo, Name: "Array<Foo>"})
	hash := img.Container(rttitest.WrapperSpec{ID: 4, Item: foo, Info: hashInfo, Name: "HashMap_Foo"})
	ref := img.Pointer(rttitest.WrapperSpec{ID: 5, Item: foo, Info: refInfo})
	pod := img.POD(6)

	dec := img.Decoder()
	var types []*rtti.Type
	for _, a := range []uint64{mode, arr, hash, ref, pod} {
		r, err := dec.Load(a)
		require.NoError(t, err)
		types = append(types, r)
	}
	e, _ := types[0].AsEnum()

	out := export(t, types, rtti.HFW)

	assert.Contains(t, out, "\tset_name(0x"+leftPad(e.ValuesAddr)+", \"EMode::sValues\");\n"+
		"\tapply_type(0x"+leftPad(e.ValuesAddr)+", \"RTTIValue[2]\");\n")
	assert.Contains(t, out, "\tdel_items(0x"+leftPad(e.ValuesAddr)+", DELIT_SIMPLE, 96);\n")
	assert.Contains(t, out, "\tset_name(0x"+leftPad(arrInfo)+", \"Array::sInfo\");\n")
	assert.Contains(t, out, "\tset_name(0x"+leftPad(hashInfo)+", \"HashMap_Foo::sInfo\");\n")
	assert.Contains(t, out, "\tset_name(0x"+leftPad(refInfo)+", \"Ref::sInfo\");\n"+
		"\tapply_type(0x"+leftPad(refInfo)+", \"RTTIPointerData\");\n")
	assert.NotContains(t, out, "RTTIPod")
}

func TestSelect_Order(t *testing.T) {
	a := rtti.NewAtom(rtti.Header{Addr: 1}, &rtti.Atom{TypeName: "a"})
	c := rtti.NewCompound(rtti.Header{Addr: 2}, &rtti.Compound{TypeName: "z"})
	broken := rtti.NewPointer(rtti.Header{Addr: 3}, &rtti.Pointer{Item: a})
	got := Select([]*rtti.Type{a, broken, c})
	assert.Equal(t, []*rtti.Type{c, a}, got)
}

func leftPad(v uint64) string {
	return fmt.Sprintf("%016X", v)
}
