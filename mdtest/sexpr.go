// Package mdtest extracts compiler test cases from markdown corpus
// files and provides the s-expression reader used to compare expected
// ASTs structurally, independent of whitespace.
package mdtest

import (
	"fmt"
	"strings"
)

// NodeType is the type of an s-expression node.
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
	NodeList
)

// Node is one s-expression datum: an atom or a list.
type Node struct {
	Type  NodeType
	Text  string  // NodeSymbol, NodeString, NodeInteger
	Items []*Node // NodeList
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol, NodeInteger:
		return n.Text
	case NodeString:
		escaped := strings.ReplaceAll(n.Text, "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		return "\"" + escaped + "\""
	case NodeList:
		var parts []string
		for _, item := range n.Items {
			parts = append(parts, item.String())
		}
		return "(" + strings.Join(parts, " ") + ")"
	}
	return ""
}

// Equal compares two s-expressions structurally.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || a.Text != b.Text {
		return false
	}
	if len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		if !Equal(a.Items[i], b.Items[i]) {
			return false
		}
	}
	return true
}

type reader struct {
	input string
	pos   int
}

// Parse reads a single s-expression datum from input. Trailing content
// other than whitespace is an error.
func Parse(input string) (*Node, error) {
	r := &reader{input: input}
	node, err := r.readDatum()
	if err != nil {
		return nil, err
	}
	r.skipSpace()
	if r.pos < len(r.input) {
		return nil, fmt.Errorf("trailing content at offset %d", r.pos)
	}
	return node, nil
}

func (r *reader) skipSpace() {
	for r.pos < len(r.input) {
		switch r.input[r.pos] {
		case ' ', '\t', '\n', '\r':
			r.pos++
		default:
			return
		}
	}
}

func (r *reader) readDatum() (*Node, error) {
	r.skipSpace()
	if r.pos >= len(r.input) {
		return nil, fmt.Errorf("unexpected end of input")
	}
	switch c := r.input[r.pos]; {
	case c == '(':
		return r.readList()
	case c == '"':
		return r.readString()
	case c == '-' || ('0' <= c && c <= '9'):
		return r.readInteger()
	case c == ')':
		return nil, fmt.Errorf("unexpected ')' at offset %d", r.pos)
	default:
		return r.readSymbol()
	}
}

func (r *reader) readList() (*Node, error) {
	r.pos++ // consume '('
	var items []*Node
	for {
		r.skipSpace()
		if r.pos >= len(r.input) {
			return nil, fmt.Errorf("unterminated list")
		}
		if r.input[r.pos] == ')' {
			r.pos++
			return &Node{Type: NodeList, Items: items}, nil
		}
		item, err := r.readDatum()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func (r *reader) readString() (*Node, error) {
	start := r.pos
	r.pos++ // consume opening quote
	var sb strings.Builder
	for r.pos < len(r.input) {
		c := r.input[r.pos]
		if c == '"' {
			r.pos++
			return &Node{Type: NodeString, Text: sb.String()}, nil
		}
		if c == '\\' && r.pos+1 < len(r.input) {
			r.pos++
			switch r.input[r.pos] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(r.input[r.pos])
			}
			r.pos++
			continue
		}
		sb.WriteByte(c)
		r.pos++
	}
	return nil, fmt.Errorf("unterminated string at offset %d", start)
}

func (r *reader) readInteger() (*Node, error) {
	start := r.pos
	if r.input[r.pos] == '-' {
		r.pos++
	}
	for r.pos < len(r.input) && '0' <= r.input[r.pos] && r.input[r.pos] <= '9' {
		r.pos++
	}
	if r.pos == start || (r.pos == start+1 && r.input[start] == '-') {
		return nil, fmt.Errorf("malformed integer at offset %d", start)
	}
	return &Node{Type: NodeInteger, Text: r.input[start:r.pos]}, nil
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '"':
		return true
	}
	return false
}

func (r *reader) readSymbol() (*Node, error) {
	start := r.pos
	for r.pos < len(r.input) && !isDelimiter(r.input[r.pos]) {
		r.pos++
	}
	return &Node{Type: NodeSymbol, Text: r.input[start:r.pos]}, nil
}
