// Package jsonw is a streaming writer for the catalog's structured text
// format. The layout is fixed: tab indentation, one member per line, and
// compact scopes that keep short records on a single line with ", " and ": "
// separators.
//
// Strings are escaped minimally: only backslash and double quote get a
// preceding backslash. Control characters pass through unchanged, so the
// output is not general JSON when names carry them.
package jsonw

import (
	"bufio"
	"errors"
	"io"
	"strconv"
)

// ErrNesting is the panic value for calls that do not fit the current scope,
// such as a value directly inside an object without a name.
var ErrNesting = errors.New("jsonw: nesting problem")

type scope uint8

const (
	danglingName scope = iota
	emptyArray
	emptyDocument
	emptyObject
	nonEmptyArray
	nonEmptyDocument
	nonEmptyObject
)

type frame struct {
	scope scope
	// compact mode of the enclosing scope, restored on close
	restore bool
}

// Writer writes one document. Methods panic with ErrNesting on misuse; I/O
// errors are sticky and reported by Flush.
type Writer struct {
	w       *bufio.Writer
	stack   []frame
	compact bool
	name    string
	hasName bool
}

// New returns a Writer for a document written to w.
func New(w io.Writer) *Writer {
	return &Writer{
		w:     bufio.NewWriter(w),
		stack: []frame{{scope: emptyDocument}},
	}
}

// Flush writes buffered output and returns the first write error.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Depth returns the number of open scopes, including the document.
func (w *Writer) Depth() int {
	return len(w.stack)
}

func (w *Writer) top() scope {
	return w.stack[len(w.stack)-1].scope
}

func (w *Writer) replaceTop(s scope) {
	w.stack[len(w.stack)-1].scope = s
}

func (w *Writer) newline() {
	if w.compact {
		return
	}
	w.w.WriteByte('\n')
	for i := 1; i < len(w.stack); i++ {
		w.w.WriteByte('\t')
	}
}

func (w *Writer) separator() {
	if w.compact {
		w.w.WriteString(", ")
	} else {
		w.w.WriteByte(',')
	}
}

func (w *Writer) writeString(s string) {
	w.w.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			w.w.WriteByte('\\')
		}
		w.w.WriteByte(c)
	}
	w.w.WriteByte('"')
}

func (w *Writer) beforeName() {
	switch w.top() {
	case nonEmptyObject:
		w.separator()
	case emptyObject:
	default:
		panic(ErrNesting)
	}
	w.newline()
	w.replaceTop(danglingName)
}

func (w *Writer) beforeValue() {
	switch w.top() {
	case emptyDocument:
		w.replaceTop(nonEmptyDocument)
	case emptyArray:
		w.replaceTop(nonEmptyArray)
		w.newline()
	case nonEmptyArray:
		w.separator()
		w.newline()
	case danglingName:
		w.replaceTop(nonEmptyObject)
		w.w.WriteString(": ")
	default:
		panic(ErrNesting)
	}
}

func (w *Writer) writeDeferredName() {
	if !w.hasName {
		return
	}
	w.beforeName()
	w.writeString(w.name)
	w.name, w.hasName = "", false
}

func (w *Writer) open(empty scope, bracket byte, compact bool) {
	w.writeDeferredName()
	w.beforeValue()
	w.stack = append(w.stack, frame{scope: empty, restore: w.compact})
	w.w.WriteByte(bracket)
	if compact {
		w.compact = true
	}
}

func (w *Writer) close(empty, nonEmpty scope, bracket byte) {
	if len(w.stack) < 2 || w.hasName {
		panic(ErrNesting)
	}
	f := w.stack[len(w.stack)-1]
	if f.scope != empty && f.scope != nonEmpty {
		panic(ErrNesting)
	}
	w.stack = w.stack[:len(w.stack)-1]
	if f.scope == nonEmpty {
		w.newline()
	}
	w.w.WriteByte(bracket)
	w.compact = f.restore
}

// BeginObject opens an object.
func (w *Writer) BeginObject() { w.open(emptyObject, '{', false) }

// BeginCompactObject opens an object written on a single line.
func (w *Writer) BeginCompactObject() { w.open(emptyObject, '{', true) }

// EndObject closes the innermost object.
func (w *Writer) EndObject() { w.close(emptyObject, nonEmptyObject, '}') }

// BeginArray opens an array.
func (w *Writer) BeginArray() { w.open(emptyArray, '[', false) }

// BeginCompactArray opens an array written on a single line.
func (w *Writer) BeginCompactArray() { w.open(emptyArray, '[', true) }

// EndArray closes the innermost array.
func (w *Writer) EndArray() { w.close(emptyArray, nonEmptyArray, ']') }

// Name sets the member name for the next value. It is written only when the
// value is.
func (w *Writer) Name(name string) {
	if w.hasName || len(w.stack) < 2 {
		panic(ErrNesting)
	}
	w.name, w.hasName = name, true
}

// String writes a string value.
func (w *Writer) String(v string) {
	w.writeDeferredName()
	w.beforeValue()
	w.writeString(v)
}

// Int writes an integer value.
func (w *Writer) Int(v int64) {
	w.writeDeferredName()
	w.beforeValue()
	var buf [20]byte
	w.w.Write(strconv.AppendInt(buf[:0], v, 10))
}

// Uint writes an unsigned integer value.
func (w *Writer) Uint(v uint64) {
	w.writeDeferredName()
	w.beforeValue()
	var buf [20]byte
	w.w.Write(strconv.AppendUint(buf[:0], v, 10))
}

// Bool writes a boolean value.
func (w *Writer) Bool(v bool) {
	w.writeDeferredName()
	w.beforeValue()
	if v {
		w.w.WriteString("true")
	} else {
		w.w.WriteString("false")
	}
}

// Scalar writes a string, integer or boolean held in an interface. Other
// types panic.
func (w *Writer) Scalar(v any) {
	switch v := v.(type) {
	case string:
		w.String(v)
	case bool:
		w.Bool(v)
	case int:
		w.Int(int64(v))
	case int32:
		w.Int(int64(v))
	case int64:
		w.Int(v)
	case uint8:
		w.Uint(uint64(v))
	case uint16:
		w.Uint(uint64(v))
	case uint32:
		w.Uint(uint64(v))
	case uint64:
		w.Uint(v)
	default:
		panic("jsonw: unsupported scalar type")
	}
}

// NameString writes a named string member.
func (w *Writer) NameString(name, v string) {
	w.Name(name)
	w.String(v)
}

// NameInt writes a named integer member.
func (w *Writer) NameInt(name string, v int64) {
	w.Name(name)
	w.Int(v)
}

// NameUint writes a named unsigned integer member.
func (w *Writer) NameUint(name string, v uint64) {
	w.Name(name)
	w.Uint(v)
}

// NameBool writes a named boolean member.
func (w *Writer) NameBool(name string, v bool) {
	w.Name(name)
	w.Bool(v)
}

// NameObject opens a named object.
func (w *Writer) NameObject(name string) {
	w.Name(name)
	w.BeginObject()
}

// NameCompactObject opens a named single-line object.
func (w *Writer) NameCompactObject(name string) {
	w.Name(name)
	w.BeginCompactObject()
}

// NameArray opens a named array.
func (w *Writer) NameArray(name string) {
	w.Name(name)
	w.BeginArray()
}

// NameCompactArray opens a named single-line array.
func (w *Writer) NameCompactArray(name string) {
	w.Name(name)
	w.BeginCompactArray()
}
