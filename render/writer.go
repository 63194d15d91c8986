package render

import (
	"fmt"
	"strings"

	"github.com/petr590/NewYava-sub001/types"
)

// DefaultIndent is the indentation unit used when none is configured
const DefaultIndent = "    "

// Writer accumulates source text, inserting the indentation unit at the start of every line.
// A Writer belongs to a single class decompilation and is not safe for concurrent use.
type Writer struct {
	Class *ClassContext // Class resolves type names and records imports; nil renders qualified names

	buf         strings.Builder
	indent      string
	level       int
	atLineStart bool
}

// NewWriter creates a writer bound to a class context
func NewWriter(class *ClassContext, indent string) *Writer {
	if indent == "" {
		indent = DefaultIndent
	}
	return &Writer{Class: class, indent: indent, atLineStart: true}
}

// Write appends text, indenting if the writer is at the start of a line
func (w *Writer) Write(parts ...string) {
	for _, s := range parts {
		if s == "" {
			continue
		}
		if w.atLineStart {
			w.buf.WriteString(strings.Repeat(w.indent, w.level))
			w.atLineStart = false
		}
		w.buf.WriteString(s)
	}
}

// Writef appends formatted text
func (w *Writer) Writef(format string, args ...interface{}) {
	w.Write(fmt.Sprintf(format, args...))
}

// NewLine terminates the current line
func (w *Writer) NewLine() {
	w.buf.WriteByte('\n')
	w.atLineStart = true
}

// Indent increases the nesting level of the following lines
func (w *Writer) Indent() {
	w.level++
}

// Unindent decreases the nesting level of the following lines
func (w *Writer) Unindent() {
	if w.level > 0 {
		w.level--
	}
}

// TypeName returns the source name of t in the writer's class context
func (w *Writer) TypeName(t types.Type) string {
	if w.Class == nil {
		return QualifiedName(t)
	}
	return w.Class.TypeName(t)
}

// WriteType writes the source name of t
func (w *Writer) WriteType(t types.Type) {
	w.Write(w.TypeName(t))
}

// Len returns the number of bytes written so far
func (w *Writer) Len() int {
	return w.buf.Len()
}

func (w *Writer) String() string {
	return w.buf.String()
}

// QualifiedName returns the fully qualified source name of t
func QualifiedName(t types.Type) string {
	switch v := types.Resolve(t).(type) {
	case types.Primitive:
		return v.Keyword()
	case *types.Class:
		return v.QualifiedName()
	case *types.Array:
		return QualifiedName(v.Elem()) + "[]"
	}
	return t.String()
}
