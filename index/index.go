// Package index builds the in-memory attribute forward/reverse maps the
// query engine expands symbol sets through.
package index

import (
	"iter"

	"github.com/cici0602/cilq/cil"
)

// Index is an immutable, build-once view over a TASet stream: Forward maps
// an attribute to its member types, Reverse maps a type to the attributes
// it belongs to. Logical TASet records (IsLogical) contribute to neither
// map, since their membership is a boolean expression this index does not
// evaluate.
type Index struct {
	forward map[string][]string
	reverse map[string][]string
}

// Build consumes tas once and returns a ready Index.
func Build(tas iter.Seq[cil.TASet]) *Index {
	idx := &Index{
		forward: make(map[string][]string),
		reverse: make(map[string][]string),
	}
	for r := range tas {
		if r.IsLogical {
			continue
		}
		idx.forward[r.Attr] = append(idx.forward[r.Attr], r.Members...)
		for _, m := range r.Members {
			idx.reverse[m] = append(idx.reverse[m], r.Attr)
		}
	}
	return idx
}

// Members returns attr's direct member types, or nil if attr is unknown or
// has no concrete members.
func (idx *Index) Members(attr string) []string {
	return idx.forward[attr]
}

// Attributes returns the attributes typ directly belongs to.
func (idx *Index) Attributes(typ string) []string {
	return idx.reverse[typ]
}

// Expand computes expand(S) = S ∪ {r.attr | m ∈ S, r ∈ reverse[m]}: every
// symbol in seed, plus every attribute any of those symbols is a direct
// member of. It does not recurse through multiple levels of attribute
// nesting — one pass of reverse-map lookups, matching the query engine's
// single-hop attribute-expansion rule.
func (idx *Index) Expand(seed []string) []string {
	seen := make(map[string]struct{}, len(seed))
	out := make([]string, 0, len(seed))
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, s := range seed {
		add(s)
	}
	for _, s := range seed {
		for _, attr := range idx.reverse[s] {
			add(attr)
		}
	}
	return out
}
