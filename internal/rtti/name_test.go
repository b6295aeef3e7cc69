package rtti

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atom(name string) *Type {
	return NewAtom(Header{Addr: 0x10}, &Atom{TypeName: name})
}

func ref(item *Type) *Type {
	return NewPointer(Header{Addr: 0x20}, &Pointer{
		Item:     item,
		Info:     &PointerInfo{TypeName: "Ref"},
		TypeName: "Ref<ignored>",
	})
}

func array(item *Type) *Type {
	return NewContainer(Header{Addr: 0x30}, &Container{
		Item: item,
		Info: &ContainerInfo{TypeName: "Array"},
	})
}

func TestName(t *testing.T) {
	assert.Equal(t, "int32", Name(atom("int32")))
	assert.Equal(t, "Vector", Name(NewCompound(Header{}, &Compound{TypeName: "Vector"})))
	assert.Equal(t, "EColor", Name(NewEnum(Header{}, &Enum{TypeName: "EColor"})))
	assert.Equal(t, "EMask", Name(NewEnumFlags(Header{}, &Enum{TypeName: "EMask"})))
}

func TestName_SideTable(t *testing.T) {
	// The per-instantiation name is not used.
	assert.Equal(t, "Ref", Name(ref(atom("Foo"))))
	assert.Equal(t, "Array", Name(array(atom("Foo"))))
}

func TestName_ContractViolations(t *testing.T) {
	pod := NewPOD(Header{Addr: 0xdead}, &POD{})
	assert.PanicsWithError(t, "rtti: name: record at 0xdead has kind 6", func() {
		Name(pod)
	})

	noInfo := NewPointer(Header{Addr: 0xbeef}, &Pointer{})
	defer func() {
		r := recover()
		require.NotNil(t, r)
		ce, ok := r.(*ContractError)
		require.True(t, ok)
		assert.Equal(t, uint64(0xbeef), ce.Addr)
		assert.Equal(t, uint8(KindPointer), ce.RawKind)
		assert.ErrorIs(t, ce, ErrNoSideTable)
	}()
	Name(noInfo)
}

func TestDisplayName(t *testing.T) {
	foo := atom("Foo")

	assert.Equal(t, "Foo", DisplayName(foo))
	assert.Equal(t, "Ref<Foo>", DisplayName(ref(foo)))
	assert.Equal(t, "Array<Ref<Foo>>", DisplayName(array(ref(foo))))
	assert.Equal(t, "Array<>", DisplayName(array(nil)))
}

func TestDisplayName_Pure(t *testing.T) {
	rec := array(ref(atom("Foo")))
	first := DisplayName(rec)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, DisplayName(rec))
	}
	assert.Equal(t, "Array", Name(rec))
}

func TestDisplayName_DeepNesting(t *testing.T) {
	const depth = 2000
	rec := atom("Leaf")
	for i := 0; i < depth; i++ {
		rec = array(rec)
	}

	got := DisplayName(rec)
	want := strings.Repeat("Array<", depth) + "Leaf" + strings.Repeat(">", depth)
	assert.Equal(t, want, got)
	assert.Greater(t, len(got), 4096)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "<POD>", Describe(NewPOD(Header{}, &POD{})))
	assert.Equal(t, "<reference>", Describe(NewPointer(Header{}, &Pointer{})))
	assert.Equal(t, "<container>", Describe(NewContainer(Header{}, &Container{})))
	assert.Equal(t, "Array<Foo>", Describe(array(atom("Foo"))))
}
