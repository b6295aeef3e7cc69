package sqlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Simple table name", input: "rtti_types", expected: "`rtti_types`"},
		{name: "Mixed case", input: "RTTIObject", expected: "`RTTIObject`"},
		{name: "Empty string", input: "", expected: "``"},
		{name: "Single backtick", input: "my`table", expected: "`my``table`"},
		{name: "Injection attempt", input: "t`; DROP TABLE x; --", expected: "`t``; DROP TABLE x; --`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteIdentifier(tt.input))
		})
	}
}

func TestQuoteQualified(t *testing.T) {
	assert.Equal(t, "`rtti`.`rtti_types`", QuoteQualified("rtti", "rtti_types"))
	assert.Equal(t, "`rtti_types`", QuoteQualified("", "rtti_types"))
}

func TestIsValidIdentifier(t *testing.T) {
	for _, name := range []string{"rtti_types", "Types2", "_x"} {
		assert.True(t, IsValidIdentifier(name), name)
	}
	for _, name := range []string{"", "rtti-types", "a b", "t`x", "schema.table"} {
		assert.False(t, IsValidIdentifier(name), name)
	}
}

func TestQuoteIdentifierSafe(t *testing.T) {
	quoted, err := QuoteIdentifierSafe("rtti_attrs")
	require.NoError(t, err)
	assert.Equal(t, "`rtti_attrs`", quoted)

	_, err = QuoteIdentifierSafe("rtti;attrs")
	var invalid *InvalidIdentifierError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "rtti;attrs", invalid.Name)
	assert.Contains(t, err.Error(), "invalid identifier: rtti;attrs")
}

func TestColumnList(t *testing.T) {
	assert.Equal(t, "`catalog`, `name`, `kind`", ColumnList([]string{"catalog", "name", "kind"}))
	assert.Equal(t, "", ColumnList(nil))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "(?, ?, ?), (?, ?, ?)", Placeholders(2, 3))
	assert.Equal(t, "(?)", Placeholders(1, 1))
	assert.Equal(t, "", Placeholders(0, 3))
	assert.Equal(t, "", Placeholders(3, 0))
}
