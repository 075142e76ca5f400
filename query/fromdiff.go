package query

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/cici0602/cilq/cil"
	"github.com/cici0602/cilq/sexpr"
)

// TEDiffResult reports whether one rule from the candidate file is already
// covered by the indexed store.
type TEDiffResult struct {
	Rule    cil.TERule
	Outcome string // "found", "some", or "no"
	Matches []TEResult
}

// TTDiffResult reports the same for one typetransition rule.
type TTDiffResult struct {
	Rule    cil.Typetransition
	Outcome string // "found", "partial", "more", or "no"
	Matches []cil.Typetransition
}

// FromDiffReport is the full from-diff comparison of a candidate file
// against the indexed store.
type FromDiffReport struct {
	TE []TEDiffResult
	TT []TTDiffResult
}

// FromDiff parses src as a standalone CIL file (path is used only for
// self-exclusion and error reporting, not persisted) and, for every TE and
// typetransition rule it contains, searches the store for rules that
// already establish it — excluding matches that came from the same file,
// identified by exact path or basename, so a file being compared against
// itself never trivially "finds" its own rules.
func (e *Engine) FromDiff(ctx context.Context, path string, src []byte) (FromDiffReport, error) {
	exprs, err := sexpr.Parse(src)
	if err != nil {
		return FromDiffReport{}, err
	}
	recs, err := cil.Normalize(exprs, path)
	if err != nil {
		return FromDiffReport{}, err
	}

	base := filepath.Base(path)
	excludeSelf := func(file string) bool {
		return file == path || filepath.Base(file) == base
	}

	var report FromDiffReport
	for _, r := range recs.TE {
		results, err := e.SearchTE(ctx, TEParams{
			Sources:  []string{r.Source},
			Targets:  []string{r.Target},
			Class:    r.Class,
			RuleKind: r.RuleKind,
			Perms:    r.Perms,
		})
		if err != nil {
			return FromDiffReport{}, err
		}
		results = slices.DeleteFunc(results, func(res TEResult) bool { return excludeSelf(res.Rule.File) })
		report.TE = append(report.TE, TEDiffResult{Rule: r, Outcome: classifyTE(results), Matches: results})
	}

	for _, r := range recs.TT {
		_, matches, err := e.SearchTT(ctx, TTParams{
			Subject:     r.Subject,
			Source:      r.Source,
			Class:       r.Class,
			Target:      r.Target,
			Filename:    r.Filename,
			HasFilename: r.HasFilename,
		})
		if err != nil {
			return FromDiffReport{}, err
		}
		matches = slices.DeleteFunc(matches, func(m cil.Typetransition) bool { return excludeSelf(m.File) })
		verdict := FALSE
		for _, m := range matches {
			v := verdictFor(r.HasFilename, r.Filename, m)
			if v == TRUE || (verdict != TRUE && v > verdict) {
				verdict = v
			}
		}
		report.TT = append(report.TT, TTDiffResult{Rule: r, Outcome: classifyQuad(verdict), Matches: matches})
	}

	return report, nil
}

// classifyTE recomputes permission coverage from results alone, so rules
// already removed from results (self matches) do not count toward it.
func classifyTE(results []TEResult) string {
	if len(results) == 0 {
		return "no"
	}
	missing := results[0].Wanted
	for _, r := range results {
		missing = subtractPerms(missing, r.Got)
	}
	if len(missing) == 0 {
		return "found"
	}
	return "some"
}

func classifyQuad(v Quad) string {
	switch v {
	case TRUE:
		return "found"
	case PARTIAL:
		return "partial"
	case MORE:
		return "more"
	default:
		return "no"
	}
}
