package query

import (
	"context"

	"github.com/cici0602/cilq/cil"
	"github.com/cici0602/cilq/store"
)

// SearchTAS returns every TASet record for the given attribute, verbatim
// (no expansion — this is the raw membership declaration, not a resolved
// query).
func (e *Engine) SearchTAS(ctx context.Context, attr string) ([]cil.TASet, error) {
	seq, err := e.Store.QueryTAS(ctx, store.Filter{Attr: attr})
	if err != nil {
		return nil, err
	}
	var out []cil.TASet
	for r := range seq {
		out = append(out, r)
	}
	return out, nil
}

// ResolveAttr answers "what does symbol resolve to?": if symbol is itself
// an attribute with concrete members, those members; otherwise symbol's
// one-hop attribute-expanded closure (itself plus every attribute it
// belongs to).
func (e *Engine) ResolveAttr(symbol string) []string {
	if members := e.Index.Members(symbol); len(members) > 0 {
		return members
	}
	return e.Index.Expand([]string{symbol})
}
