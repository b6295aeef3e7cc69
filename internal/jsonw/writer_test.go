package jsonw

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_Layout(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.BeginObject()
	w.NameCompactObject("$spec")
	w.NameString("version", "5.0")
	w.EndObject()
	w.NameObject("Vector")
	w.NameString("kind", "class")
	w.NameArray("attrs")
	w.BeginCompactObject()
	w.NameString("category", "Position")
	w.EndObject()
	w.BeginCompactObject()
	w.NameString("name", "X")
	w.NameBool("property", false)
	w.EndObject()
	w.EndArray()
	w.EndObject()
	w.EndObject()
	require.NoError(t, w.Flush())

	want := "{\n" +
		"\t\"$spec\": {\"version\": \"5.0\"},\n" +
		"\t\"Vector\": {\n" +
		"\t\t\"kind\": \"class\",\n" +
		"\t\t\"attrs\": [\n" +
		"\t\t\t{\"category\": \"Position\"},\n" +
		"\t\t\t{\"name\": \"X\", \"property\": false}\n" +
		"\t\t]\n" +
		"\t}\n" +
		"}"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, 1, w.Depth())
}

func TestWriter_CompactArrayInCompactObject(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.BeginArray()
	w.BeginCompactObject()
	w.NameInt("value", -1)
	w.NameCompactArray("alias")
	w.String("a")
	w.String("b")
	w.EndArray()
	w.EndObject()
	w.Uint(7)
	w.EndArray()
	require.NoError(t, w.Flush())

	assert.Equal(t, "[\n\t{\"value\": -1, \"alias\": [\"a\", \"b\"]},\n\t7\n]", buf.String())
}

func TestWriter_EmptyScopes(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.BeginObject()
	w.NameArray("none")
	w.EndArray()
	w.NameObject("nothing")
	w.EndObject()
	w.EndObject()
	require.NoError(t, w.Flush())

	assert.Equal(t, "{\n\t\"none\": [],\n\t\"nothing\": {}\n}", buf.String())
}

func TestWriter_MinimalEscaping(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.String("a\"b\\c\nd\te")
	require.NoError(t, w.Flush())

	assert.Equal(t, "\"a\\\"b\\\\c\nd\te\"", buf.String())
}

func TestWriter_Scalar(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.BeginCompactArray()
	w.Scalar("5.0")
	w.Scalar(4)
	w.Scalar(true)
	w.Scalar(uint16(9))
	w.EndArray()
	require.NoError(t, w.Flush())

	assert.Equal(t, "[\"5.0\", 4, true, 9]", buf.String())
	assert.Panics(t, func() { New(&buf).Scalar(1.5) })
}

func TestWriter_NestingProblems(t *testing.T) {
	tests := []struct {
		name string
		fn   func(w *Writer)
	}{
		{"value without name in object", func(w *Writer) {
			w.BeginObject()
			w.String("x")
		}},
		{"name in array", func(w *Writer) {
			w.BeginArray()
			w.NameString("x", "y")
		}},
		{"two top-level values", func(w *Writer) {
			w.Int(1)
			w.Int(2)
		}},
		{"mismatched close", func(w *Writer) {
			w.BeginObject()
			w.EndArray()
		}},
		{"dangling name on close", func(w *Writer) {
			w.BeginObject()
			w.Name("x")
			w.EndObject()
		}},
		{"name at document level", func(w *Writer) {
			w.Name("x")
		}},
		{"close document", func(w *Writer) {
			w.EndObject()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(&bytes.Buffer{})
			assert.PanicsWithError(t, ErrNesting.Error(), func() { tt.fn(w) })
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriter_FlushError(t *testing.T) {
	w := New(failingWriter{})
	w.BeginObject()
	w.NameString("k", "v")
	w.EndObject()
	assert.EqualError(t, w.Flush(), "disk full")
}
