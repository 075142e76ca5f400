package query

import (
	"context"
	"slices"

	"github.com/cici0602/cilq/cil"
	"github.com/cici0602/cilq/store"
)

// TTParams describes a type-transition search: does creating an object of
// Class under Subject/Source transition it to Target, optionally only for
// Filename? Subject, Source, and Target are each attribute-expanded before
// matching.
type TTParams struct {
	Subject     string
	Source      string
	Class       string
	Target      string
	Filename    string
	HasFilename bool
}

// SearchTT returns the aggregate verdict across every matching
// typetransition rule, plus every rule that matched on subject, source,
// class and target (including those whose filename verdict is FALSE). TRUE
// dominates: if any candidate matches exactly, the aggregate verdict is
// TRUE even if other candidates alone would only earn PARTIAL or MORE.
func (e *Engine) SearchTT(ctx context.Context, params TTParams) (Quad, []cil.Typetransition, error) {
	expSubject := e.Index.Expand([]string{params.Subject})
	expSource := e.Index.Expand([]string{params.Source})
	expTarget := e.Index.Expand([]string{params.Target})

	f := store.Filter{Sources: expSource, Class: params.Class}
	seq, err := e.Store.QueryTT(ctx, f)
	if err != nil {
		return FALSE, nil, err
	}

	var matches []cil.Typetransition
	verdict := FALSE
	sawTrue := false
	for r := range seq {
		if !slices.Contains(expSubject, r.Subject) {
			continue
		}
		if !slices.Contains(expTarget, r.Target) {
			continue
		}
		matches = append(matches, r)
		v := verdictFor(params.HasFilename, params.Filename, r)
		if v == TRUE {
			sawTrue = true
		}
		if !sawTrue && v > verdict {
			verdict = v
		}
	}
	if sawTrue {
		verdict = TRUE
	}
	return verdict, matches, nil
}

// verdictFor scores one candidate rule against a query's filename
// constraint.
func verdictFor(queryHasFilename bool, queryFilename string, r cil.Typetransition) Quad {
	if !queryHasFilename {
		if !r.HasFilename {
			return TRUE
		}
		return PARTIAL
	}
	if !r.HasFilename {
		return MORE
	}
	if r.Filename == queryFilename {
		return TRUE
	}
	return FALSE
}
