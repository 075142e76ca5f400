// Package store persists normalized CIL records and serves the filtered
// queries the query engine builds searches on top of.
package store

import (
	"context"
	"iter"

	"github.com/cici0602/cilq/cil"
)

// Filter narrows a query to rows matching the given symbol sets. A nil or
// empty slice means "no constraint on this field". Sources/Targets are
// typically pre-expanded through an attribute index by the caller before
// reaching Store — the store itself does no attribute reasoning, only
// membership/equality tests.
type Filter struct {
	Sources  []string
	Targets  []string
	Class    string
	Attr     string
	RuleKind string
}

// Store is the persistence boundary between the normalizer and the query
// engine. Implementations own how (file, mtime) freshness is tracked and
// how the three record streams are indexed for filtered retrieval.
type Store interface {
	// UpsertFile atomically replaces the records for path: it deletes any
	// existing rows for path and inserts recs, then records mtimeUS as the
	// file's last-seen modification time. Safe to call concurrently for
	// different paths; serializes writers of the same path.
	UpsertFile(ctx context.Context, path string, mtimeUS int64, recs cil.Records) error

	// FileFresh reports whether path is already indexed at exactly mtimeUS,
	// letting callers skip re-parsing and re-normalizing unchanged files.
	FileFresh(ctx context.Context, path string, mtimeUS int64) (bool, error)

	// ListFiles returns every path currently indexed, in no particular
	// order.
	ListFiles(ctx context.Context) ([]string, error)

	QueryTE(ctx context.Context, f Filter) (iter.Seq[cil.TERule], error)
	QueryTT(ctx context.Context, f Filter) (iter.Seq[cil.Typetransition], error)
	QueryTAS(ctx context.Context, f Filter) (iter.Seq[cil.TASet], error)
}
