package cil

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cici0602/cilq/sexpr"
)

// canonicalString builds the dedup/display key for an expression under a
// conditional context: the context markers joined with the expression's
// Python-repr-style rendering. A boolean marker in optPath (always a
// JSON-encoded string or array, hence always starting with a quote or
// bracket character) consumes the next entry of boolVals and renders as
// "<condition>"==True|False; a plain optional name renders as-is.
func canonicalString(e sexpr.Node, optPath []string, boolVals []bool) string {
	parts := make([]string, 0, len(optPath)+1)
	bi := -1
	for _, o := range optPath {
		if strings.HasPrefix(o, `"`) || strings.HasPrefix(o, `[`) {
			bi++
			parts = append(parts, fmt.Sprintf("%s==%s", o, boolStr(boolVals[bi])))
		} else {
			parts = append(parts, o)
		}
	}
	parts = append(parts, pyRepr(e))
	return strings.Join(parts, " ")
}

func boolStr(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// pyRepr renders a Node the way Python's repr() renders the nested
// list-of-strings structure a parsimonious-style visitor would have
// produced from the same parse tree: atoms become single-quoted strings,
// lists become bracketed, comma-separated sequences. This (not sexpr's own
// parenthesized String()) is the expression representation the canonical
// string embeds, matching the indexer's original display format.
func pyRepr(n sexpr.Node) string {
	switch n.Kind {
	case sexpr.KindAtom:
		return pyReprAtom(n.Text)
	case sexpr.KindList:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = pyRepr(c)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return ""
}

func pyReprAtom(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		if r == '\\' || r == '\'' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('\'')
	return b.String()
}

// jsonEncodeCondition mirrors json.dumps() on the parsed boolean condition
// of a booleanif, so that a bare boolean name encodes as a quoted string
// and a compound condition such as (and b1 b2) encodes as a JSON array.
func jsonEncodeCondition(n sexpr.Node) (string, error) {
	v := conditionValue(n)
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode boolean condition: %w", err)
	}
	return string(b), nil
}

func conditionValue(n sexpr.Node) any {
	if n.Kind == sexpr.KindList {
		vals := make([]any, len(n.Children))
		for i, c := range n.Children {
			vals[i] = conditionValue(c)
		}
		return vals
	}
	return n.Text
}

func copyAppend(s []string, v string) []string {
	out := make([]string, len(s)+1)
	copy(out, s)
	out[len(s)] = v
	return out
}

func copyAppendBool(s []bool, v bool) []bool {
	out := make([]bool, len(s)+1)
	copy(out, s)
	out[len(s)] = v
	return out
}
