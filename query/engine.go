// Package query implements the searches a cilq deployment answers once
// its store is populated: TE rule search, type-transition search,
// attribute resolution, and from-diff comparison against a candidate file.
package query

import (
	"github.com/cici0602/cilq/index"
	"github.com/cici0602/cilq/store"
)

// Engine bundles the collaborators every search needs: the persisted
// record store and the attribute index built from its TASet stream.
type Engine struct {
	Store store.Store
	Index *index.Index
}

// New returns an Engine ready to serve searches against st, with idx
// already built from st's TASet stream (callers build idx once via
// index.Build and reuse it across many Engine calls in the same run).
func New(st store.Store, idx *index.Index) *Engine {
	return &Engine{Store: st, Index: idx}
}
