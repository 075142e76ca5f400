package query

import (
	"context"
	"slices"

	"github.com/cici0602/cilq/cil"
	"github.com/cici0602/cilq/store"
)

// TEParams describes a type-enforcement search. Sources/Targets/NotSources/
// NotTargets are attribute-expanded before matching: an entry may name a
// type or an attribute, and either way every type the attribute resolves
// to (plus every attribute the type itself belongs to) is eligible.
type TEParams struct {
	Sources    []string
	Targets    []string
	NotSources []string
	NotTargets []string
	Class      string
	RuleKind   string
	Perms      []string
}

// TEResult reports one matching rule plus the permission-set arithmetic
// between the search's wanted perms and what every matching rule together
// (not just this one) actually covers: Missing and GotAll/GotAny are the
// same aggregate value across every TEResult a single SearchTE call
// returns, since a wanted permission can be established by the union of
// several rules rather than any single one.
type TEResult struct {
	Rule    cil.TERule
	Wanted  []string
	Got     []string
	Missing []string
	GotAll  bool
	GotAny  bool
}

// SearchTE returns every TE rule matching params whose perms overlap the
// wanted set (rules with no overlap are dropped, not reported), most-
// permissive filters first (attribute expansion, then store equality,
// then exclusion sets). The permission coverage reported on every result
// is the union across all matching rules: a query for perms {p1, p2} is
// GotAll if one rule grants p1 and another grants p2, just as it would be
// if a single rule granted both.
func (e *Engine) SearchTE(ctx context.Context, params TEParams) ([]TEResult, error) {
	// expand adds each seed's owning attributes and, for an attribute seed,
	// its direct member types.
	expand := func(seed []string) []string {
		out := e.Index.Expand(seed)
		for _, s := range seed {
			for _, m := range e.Index.Members(s) {
				if !slices.Contains(out, m) {
					out = append(out, m)
				}
			}
		}
		return out
	}

	f := store.Filter{Class: params.Class, RuleKind: params.RuleKind}
	if len(params.Sources) > 0 {
		f.Sources = expand(params.Sources)
	}
	if len(params.Targets) > 0 {
		f.Targets = expand(params.Targets)
	}

	var notSources, notTargets []string
	if len(params.NotSources) > 0 {
		notSources = expand(params.NotSources)
	}
	if len(params.NotTargets) > 0 {
		notTargets = expand(params.NotTargets)
	}

	seq, err := e.Store.QueryTE(ctx, f)
	if err != nil {
		return nil, err
	}

	var candidates []cil.TERule
	for r := range seq {
		if len(notSources) > 0 && slices.Contains(notSources, r.Source) {
			continue
		}
		if len(notTargets) > 0 && slices.Contains(notTargets, r.Target) {
			continue
		}
		if len(params.Perms) > 0 && !permsOverlap(r.Perms, params.Perms) {
			continue
		}
		candidates = append(candidates, r)
	}

	missing := append([]string(nil), params.Perms...)
	gotAny := false
	for _, r := range candidates {
		gotAny = true
		missing = subtractPerms(missing, r.Perms)
	}
	gotAll := len(missing) == 0

	out := make([]TEResult, 0, len(candidates))
	for _, r := range candidates {
		out = append(out, TEResult{
			Rule:    r,
			Wanted:  params.Perms,
			Got:     r.Perms,
			Missing: missing,
			GotAll:  gotAll,
			GotAny:  gotAny,
		})
	}
	return out, nil
}

func permsOverlap(a, b []string) bool {
	for _, p := range a {
		if slices.Contains(b, p) {
			return true
		}
	}
	return false
}

func subtractPerms(missing, got []string) []string {
	if len(missing) == 0 {
		return missing
	}
	out := missing[:0:0]
	for _, m := range missing {
		if !slices.Contains(got, m) {
			out = append(out, m)
		}
	}
	return out
}
