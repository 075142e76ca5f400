package query

import (
	"context"
	"fmt"

	"github.com/cici0602/cilq/cil"
	"github.com/cici0602/cilq/store"
)

// Stats summarizes an indexed policy: per-kind counts plus any detected
// allow/neverallow conflicts over (source, target, class) triples.
type Stats struct {
	TECount  int
	TASCount int
	TTCount  int

	RuleKindCounts map[string]int
	ClassCounts    map[string]int

	Conflicts []Conflict
}

// Conflict records one allow rule and one neverallow rule that grant and
// forbid an overlapping set of permissions on the same (source, target,
// class) triple.
type Conflict struct {
	Allow      cil.TERule
	Neverallow cil.TERule
	Overlap    []string
}

// Analyze walks every TE/TAS/TT rule in the store and builds a Stats
// summary, including a pass that groups TE rules by (source, target,
// class) and flags allow/neverallow pairs whose permission sets overlap.
func Analyze(ctx context.Context, st store.Store) (Stats, error) {
	s := Stats{
		RuleKindCounts: make(map[string]int),
		ClassCounts:    make(map[string]int),
	}

	teSeq, err := st.QueryTE(ctx, store.Filter{})
	if err != nil {
		return Stats{}, err
	}
	grouped := make(map[string][]cil.TERule)
	for r := range teSeq {
		s.TECount++
		s.RuleKindCounts[r.RuleKind]++
		s.ClassCounts[r.Class]++
		key := groupKey(r.Source, r.Target, r.Class)
		grouped[key] = append(grouped[key], r)
	}

	tasSeq, err := st.QueryTAS(ctx, store.Filter{})
	if err != nil {
		return Stats{}, err
	}
	for range tasSeq {
		s.TASCount++
	}

	ttSeq, err := st.QueryTT(ctx, store.Filter{})
	if err != nil {
		return Stats{}, err
	}
	for range ttSeq {
		s.TTCount++
	}

	s.Conflicts = detectConflicts(grouped)
	return s, nil
}

func groupKey(source, target, class string) string {
	return fmt.Sprintf("%s\x00%s\x00%s", source, target, class)
}

// detectConflicts pairs up every allow and neverallow rule sharing a
// (source, target, class) group and records the ones whose permission
// sets intersect.
func detectConflicts(grouped map[string][]cil.TERule) []Conflict {
	var conflicts []Conflict
	for _, rules := range grouped {
		var allows, neverallows []cil.TERule
		for _, r := range rules {
			switch r.RuleKind {
			case "allow":
				allows = append(allows, r)
			case "neverallow":
				neverallows = append(neverallows, r)
			}
		}
		for _, a := range allows {
			for _, n := range neverallows {
				if overlap := permOverlap(a.Perms, n.Perms); len(overlap) > 0 {
					conflicts = append(conflicts, Conflict{Allow: a, Neverallow: n, Overlap: overlap})
				}
			}
		}
	}
	return conflicts
}

func permOverlap(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, p := range a {
		set[p] = struct{}{}
	}
	var out []string
	for _, p := range b {
		if _, ok := set[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
