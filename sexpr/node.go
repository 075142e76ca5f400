// Package sexpr parses CIL's nested, comment-bearing s-expression syntax
// into a tree of Nodes.
package sexpr

import "strings"

// Kind distinguishes the two shapes a Node can take.
type Kind int

const (
	// KindAtom is a bare symbol or a quoted string, carried verbatim.
	KindAtom Kind = iota
	// KindList is an ordered list of child Nodes.
	KindList
)

// Node is a single s-expression: either an atom (kept as its exact source
// text, quotes included) or a list of child Nodes. It is a tagged union
// rather than an interface hierarchy so the normalizer's head-token
// dispatch stays a plain switch on Head()/Kind.
type Node struct {
	Kind     Kind
	Text     string // valid when Kind == KindAtom
	Children []Node // valid when Kind == KindList
}

// Atom builds a KindAtom node from verbatim source text.
func Atom(text string) Node {
	return Node{Kind: KindAtom, Text: text}
}

// List builds a KindList node from child nodes.
func List(children ...Node) Node {
	return Node{Kind: KindList, Children: children}
}

// IsQuoted reports whether an atom is a quoted string (begins with `"`).
func (n Node) IsQuoted() bool {
	return n.Kind == KindAtom && strings.HasPrefix(n.Text, `"`)
}

// Head returns the first child's atom text, or "" if n is not a non-empty
// list whose first child is an atom.
func (n Node) Head() string {
	if n.Kind != KindList || len(n.Children) == 0 {
		return ""
	}
	h := n.Children[0]
	if h.Kind != KindAtom {
		return ""
	}
	return h.Text
}

// String renders the canonical textual form: atoms verbatim, lists
// parenthesized with single-space-separated children. The normalizer uses
// it as its per-file dedup key (a record's canonical string uses a
// different, bracketed rendering), and it round-trips through Parse for
// any input without comments.
func (n Node) String() string {
	var b strings.Builder
	n.writeTo(&b)
	return b.String()
}

func (n Node) writeTo(b *strings.Builder) {
	switch n.Kind {
	case KindAtom:
		b.WriteString(n.Text)
	case KindList:
		b.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				b.WriteByte(' ')
			}
			c.writeTo(b)
		}
		b.WriteByte(')')
	}
}

// Equal reports deep structural equality, ignoring nothing — two nodes
// are equal iff their canonical string forms are identical.
func (n Node) Equal(other Node) bool {
	return n.String() == other.String()
}
