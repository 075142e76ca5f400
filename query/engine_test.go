package query

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cici0602/cilq/cil"
	"github.com/cici0602/cilq/index"
	"github.com/cici0602/cilq/store"
)

func newEngine(t *testing.T, recs cil.Records) *Engine {
	t.Helper()
	st := store.NewNullStore()
	require.NoError(t, st.UpsertFile(context.Background(), "a.cil", 1, recs))
	idx := index.Build(slices.Values(recs.TAS))
	return New(st, idx)
}

// TestSearchTEExpandsAttributes exercises scenario S1: searching by an
// attribute finds rules declared against its concrete member types.
func TestSearchTEExpandsAttributes(t *testing.T) {
	recs := cil.Records{
		TAS: []cil.TASet{{Attr: "domain", Members: []string{"httpd_t"}}},
		TE: []cil.TERule{{
			Source: "httpd_t", Target: "http_port_t", Class: "tcp_socket",
			Perms: []string{"name_bind"}, RuleKind: "allow",
		}},
	}
	e := newEngine(t, recs)

	results, err := e.SearchTE(context.Background(), TEParams{
		Sources: []string{"domain"}, Class: "tcp_socket", Perms: []string{"name_bind"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].GotAll)
	assert.True(t, results[0].GotAny)
	assert.Empty(t, results[0].Missing)
}

// TestSearchTEReportsMissingPerms exercises scenario S2: a rule is found
// but does not grant every requested permission.
func TestSearchTEReportsMissingPerms(t *testing.T) {
	recs := cil.Records{TE: []cil.TERule{{
		Source: "t1", Target: "t2", Class: "c1", Perms: []string{"read"}, RuleKind: "allow",
	}}}
	e := newEngine(t, recs)

	results, err := e.SearchTE(context.Background(), TEParams{
		Sources: []string{"t1"}, Targets: []string{"t2"}, Class: "c1",
		Perms: []string{"read", "write"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].GotAll)
	assert.True(t, results[0].GotAny)
	assert.Equal(t, []string{"write"}, results[0].Missing)
}

// TestSearchTEAggregatesAcrossRules exercises the union-of-rules case: no
// single rule grants every wanted perm, but two together do.
func TestSearchTEAggregatesAcrossRules(t *testing.T) {
	recs := cil.Records{TE: []cil.TERule{
		{Source: "t1", Target: "t2", Class: "c1", Perms: []string{"read"}, RuleKind: "allow"},
		{Source: "t1", Target: "t2", Class: "c1", Perms: []string{"write"}, RuleKind: "allow"},
	}}
	e := newEngine(t, recs)

	results, err := e.SearchTE(context.Background(), TEParams{
		Sources: []string{"t1"}, Targets: []string{"t2"}, Class: "c1",
		Perms: []string{"read", "write"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.GotAll)
		assert.Empty(t, r.Missing)
	}
}

// TestSearchTEFiltersByRuleKind exercises scenario S1 with --type: an
// allow-only search must not surface a neverallow rule over the same
// (source, target, class).
func TestSearchTEFiltersByRuleKind(t *testing.T) {
	recs := cil.Records{TE: []cil.TERule{
		{Source: "t1", Target: "t2", Class: "c1", Perms: []string{"read"}, RuleKind: "allow"},
		{Source: "t1", Target: "t2", Class: "c1", Perms: []string{"read"}, RuleKind: "neverallow"},
	}}
	e := newEngine(t, recs)

	results, err := e.SearchTE(context.Background(), TEParams{
		Sources: []string{"t1"}, Targets: []string{"t2"}, Class: "c1", RuleKind: "allow",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "allow", results[0].Rule.RuleKind)
}

func TestSearchTENotSourceExcludes(t *testing.T) {
	recs := cil.Records{TE: []cil.TERule{
		{Source: "t1", Target: "t2", Class: "c1"},
		{Source: "t3", Target: "t2", Class: "c1"},
	}}
	e := newEngine(t, recs)

	results, err := e.SearchTE(context.Background(), TEParams{
		Targets: []string{"t2"}, Class: "c1", NotSources: []string{"t1"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "t3", results[0].Rule.Source)
}

// TestSearchTTVerdictTable exercises the four-way verdict: a query with no
// filename constraint against a filename-specific rule is PARTIAL, a
// filename-specific query against an unconditional rule is MORE, and
// TRUE dominates whichever of those two a weaker candidate would earn.
func TestSearchTTVerdictTable(t *testing.T) {
	cases := []struct {
		name        string
		rules       []cil.Typetransition
		hasFilename bool
		filename    string
		want        Quad
	}{
		{
			name:  "unconditional rule, unconditional query",
			rules: []cil.Typetransition{{Subject: "s", Source: "t1", Class: "c", Target: "t2"}},
			want:  TRUE,
		},
		{
			name:        "filename-specific rule, unconditional query",
			rules:       []cil.Typetransition{{Subject: "s", Source: "t1", Class: "c", Target: "t2", HasFilename: true, Filename: `"foo"`}},
			hasFilename: false,
			want:        PARTIAL,
		},
		{
			name:        "unconditional rule, filename-specific query",
			rules:       []cil.Typetransition{{Subject: "s", Source: "t1", Class: "c", Target: "t2"}},
			hasFilename: true,
			filename:    `"foo"`,
			want:        MORE,
		},
		{
			name:        "exact filename match",
			rules:       []cil.Typetransition{{Subject: "s", Source: "t1", Class: "c", Target: "t2", HasFilename: true, Filename: `"foo"`}},
			hasFilename: true,
			filename:    `"foo"`,
			want:        TRUE,
		},
		{
			name:        "mismatched filename",
			rules:       []cil.Typetransition{{Subject: "s", Source: "t1", Class: "c", Target: "t2", HasFilename: true, Filename: `"bar"`}},
			hasFilename: true,
			filename:    `"foo"`,
			want:        FALSE,
		},
		{
			name: "TRUE dominates PARTIAL across candidates",
			rules: []cil.Typetransition{
				{Subject: "s", Source: "t1", Class: "c", Target: "t2", HasFilename: true, Filename: `"bar"`},
				{Subject: "s", Source: "t1", Class: "c", Target: "t2"},
			},
			want: TRUE,
		},
		{
			name:  "no candidates at all",
			rules: nil,
			want:  FALSE,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEngine(t, cil.Records{TT: tc.rules})
			got, _, err := e.SearchTT(context.Background(), TTParams{
				Subject: "s", Source: "t1", Class: "c", Target: "t2",
				HasFilename: tc.hasFilename, Filename: tc.filename,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveAttrReturnsDirectMembers(t *testing.T) {
	recs := cil.Records{TAS: []cil.TASet{{Attr: "domain", Members: []string{"httpd_t", "sshd_t"}}}}
	e := newEngine(t, recs)
	assert.ElementsMatch(t, []string{"httpd_t", "sshd_t"}, e.ResolveAttr("domain"))
}

func TestResolveAttrOnTypeReturnsOwningAttributes(t *testing.T) {
	recs := cil.Records{TAS: []cil.TASet{{Attr: "domain", Members: []string{"httpd_t"}}}}
	e := newEngine(t, recs)
	assert.ElementsMatch(t, []string{"httpd_t", "domain"}, e.ResolveAttr("httpd_t"))
}

// TestFromDiffExcludesSelf exercises scenario S4/S5: a rule in the
// candidate file that is also present (verbatim) in the store, filed under
// the same path, is not reported as already found via itself.
func TestFromDiffExcludesSelf(t *testing.T) {
	rule := cil.TERule{File: "a.cil", Source: "t1", Target: "t2", Class: "c1", Perms: []string{"read"}, RuleKind: "allow"}
	e := newEngine(t, cil.Records{TE: []cil.TERule{rule}})

	report, err := e.FromDiff(context.Background(), "a.cil", []byte(`(allow t1 t2 (c1 (read)))`))
	require.NoError(t, err)
	require.Len(t, report.TE, 1)
	assert.Equal(t, "no", report.TE[0].Outcome)
}

func TestFromDiffFindsRuleFromAnotherFile(t *testing.T) {
	rule := cil.TERule{File: "other.cil", Source: "t1", Target: "t2", Class: "c1", Perms: []string{"read"}, RuleKind: "allow"}
	e := newEngine(t, cil.Records{TE: []cil.TERule{rule}})

	report, err := e.FromDiff(context.Background(), "a.cil", []byte(`(allow t1 t2 (c1 (read)))`))
	require.NoError(t, err)
	require.Len(t, report.TE, 1)
	assert.Equal(t, "found", report.TE[0].Outcome)
}

func TestAnalyzeDetectsAllowNeverallowConflict(t *testing.T) {
	st := store.NewNullStore()
	ctx := context.Background()
	require.NoError(t, st.UpsertFile(ctx, "a.cil", 1, cil.Records{TE: []cil.TERule{
		{RuleKind: "allow", Source: "t1", Target: "t2", Class: "c1", Perms: []string{"read", "write"}},
		{RuleKind: "neverallow", Source: "t1", Target: "t2", Class: "c1", Perms: []string{"write"}},
	}}))

	stats, err := Analyze(ctx, st)
	require.NoError(t, err)
	require.Len(t, stats.Conflicts, 1)
	assert.Equal(t, []string{"write"}, stats.Conflicts[0].Overlap)
}

func TestDiffRecordsAddedAndRemoved(t *testing.T) {
	old := cil.Records{TE: []cil.TERule{{String: "a"}, {String: "b"}}}
	next := cil.Records{TE: []cil.TERule{{String: "b"}, {String: "c"}}}

	d := DiffRecords(old, next)
	require.Len(t, d.TEAdded, 1)
	require.Len(t, d.TERemoved, 1)
	assert.Equal(t, "c", d.TEAdded[0].String)
	assert.Equal(t, "a", d.TERemoved[0].String)
}
