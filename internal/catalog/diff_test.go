package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/rttidump/internal/rtti"
)

func parse(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

func TestParse_EncodedCatalog(t *testing.T) {
	doc := parse(t, encode(t, Build(vectorScenario(), rtti.HFW)))

	assert.JSONEq(t, `{"version": "5.0"}`, string(doc.Spec))
	assert.Equal(t, 2, doc.Types.Len())

	var keys []string
	for el := doc.Types.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Key)
	}
	assert.Equal(t, []string{"Vector", "int32"}, keys)
	assert.Equal(t, "class", doc.Kind("Vector"))
	assert.Equal(t, "", doc.Kind("Missing"))
	assert.Empty(t, doc.Duplicates)
}

func TestParse_Duplicates(t *testing.T) {
	doc := parse(t, `{"A": {"kind": "enum"}, "A": {"kind": "class"}}`)
	assert.Equal(t, []string{"A"}, doc.Duplicates)
	assert.Equal(t, "class", doc.Kind("A"))
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(strings.NewReader(`[1, 2]`))
	assert.ErrorIs(t, err, ErrNotCatalog)

	_, err = Parse(strings.NewReader(`{"A": `))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader(``))
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	before := parse(t, `{
	"$spec": {"version": "5.0"},
	"Vector": {"kind": "class", "version": 1},
	"Gone": {"kind": "class"},
	"int32": {"kind": "primitive"}
}`)
	after := parse(t, `{"$spec": {"version": 4}, "Vector": {"kind": "class", "version": 2}, "int32": {
		"kind":   "primitive"
	}, "New": {"kind": "enum"}}`)

	changes, err := Diff(before, after)
	require.NoError(t, err)
	require.Len(t, changes, 3)

	assert.Equal(t, "Vector", changes[0].Name)
	assert.Equal(t, Changed, changes[0].Type)
	assert.JSONEq(t, `{"kind": "class", "version": 2}`, string(changes[0].New))

	assert.Equal(t, "Gone", changes[1].Name)
	assert.Equal(t, Removed, changes[1].Type)
	assert.Nil(t, changes[1].New)

	assert.Equal(t, "New", changes[2].Name)
	assert.Equal(t, Added, changes[2].Type)
}

func TestDiff_Identical(t *testing.T) {
	out := encode(t, Build(vectorScenario(), rtti.HFW))
	changes, err := Diff(parse(t, out), parse(t, out))
	require.NoError(t, err)
	assert.Empty(t, changes)
}
