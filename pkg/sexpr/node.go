// Package sexpr implements the parenthesised, tag-labelled text format used by
// the CCC client protocol.
//
// A document is a single top-level record:
//
//	(CCCclientRequest
//		:RequestHeader (
//			:id (2)
//			:type (UserPass)
//			:session_id ()
//		)
//	)
//
// Records are sequences of ":name (value)" fields. A value is either empty,
// an atom, or a nested record. Go values are mapped to records through the
// `sexpr` struct tag, in the same spirit as encoding/json.
package sexpr

import (
	"strconv"
	"strings"
)

// Kind identifies the shape of a Node.
type Kind int

const (
	// KindAtom is a scalar value. An empty "()" value is an atom with no text.
	KindAtom Kind = iota
	// KindRecord is a nested sequence of named fields.
	KindRecord
)

// Node is a parsed value.
type Node struct {
	Kind   Kind
	Value  string
	Fields []Field
}

// Field is a single ":name (value)" entry of a record.
type Field struct {
	Name  string
	Value *Node
}

// Atom returns an atom node holding s.
func Atom(s string) *Node {
	return &Node{Kind: KindAtom, Value: s}
}

// Record returns a record node with the given fields.
func Record(fields ...Field) *Node {
	return &Node{Kind: KindRecord, Fields: fields}
}

// Lookup returns the value of the first field called name.
func (n *Node) Lookup(name string) (*Node, bool) {
	if n == nil || n.Kind != KindRecord {
		return nil, false
	}
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// IsEmpty reports whether n is an empty "()" value.
func (n *Node) IsEmpty() bool {
	return n.Kind == KindAtom && n.Value == ""
}

// String renders n as a single-line value, including its enclosing parentheses.
func (n *Node) String() string {
	var b strings.Builder
	writeValue(&b, n, -1)
	return b.String()
}

// Document is a parsed top-level record together with its tag.
type Document struct {
	Tag  string
	Body *Node
}

// String renders the document in the indented form used on the wire.
func (d *Document) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(d.Tag)
	if d.Body != nil {
		writeFields(&b, d.Body.Fields, 1)
	}
	b.WriteString("\n)\n")
	return b.String()
}

// writeValue writes "(...)" for n. A negative depth renders on one line.
func writeValue(b *strings.Builder, n *Node, depth int) {
	if n == nil || n.IsEmpty() {
		b.WriteString("()")
		return
	}

	if n.Kind == KindAtom {
		b.WriteString("(")
		b.WriteString(quoteAtom(n.Value))
		b.WriteString(")")
		return
	}

	b.WriteString("(")
	if depth < 0 {
		for i, f := range n.Fields {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(":")
			b.WriteString(f.Name)
			b.WriteString(" ")
			writeValue(b, f.Value, depth)
		}
		b.WriteString(")")
		return
	}

	writeFields(b, n.Fields, depth+1)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("\t", depth))
	b.WriteString(")")
}

func writeFields(b *strings.Builder, fields []Field, depth int) {
	indent := strings.Repeat("\t", depth)
	for _, f := range fields {
		b.WriteString("\n")
		b.WriteString(indent)
		b.WriteString(":")
		b.WriteString(f.Name)
		b.WriteString(" ")
		writeValue(b, f.Value, depth)
	}
}

// quoteAtom quotes s when it cannot be read back as a bare atom.
func quoteAtom(s string) string {
	if needsQuoting(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuoting(s string) bool {
	if s == "" || s[0] == ':' {
		return true
	}
	for _, r := range s {
		if isDelimiter(r) || r == '"' {
			return true
		}
	}
	return false
}

func isDelimiter(r rune) bool {
	switch r {
	case '(', ')', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
