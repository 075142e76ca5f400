package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cici0602/cilq/cil"
)

func TestNullStoreFreshnessRoundTrip(t *testing.T) {
	s := NewNullStore()
	ctx := context.Background()

	fresh, err := s.FileFresh(ctx, "a.cil", 100)
	require.NoError(t, err)
	assert.False(t, fresh, "unindexed file is never fresh")

	require.NoError(t, s.UpsertFile(ctx, "a.cil", 100, cil.Records{}))

	fresh, err = s.FileFresh(ctx, "a.cil", 100)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = s.FileFresh(ctx, "a.cil", 200)
	require.NoError(t, err)
	assert.False(t, fresh, "stale mtime is not fresh")
}

func TestNullStoreUpsertIsIdempotentPerFile(t *testing.T) {
	s := NewNullStore()
	ctx := context.Background()
	recs := cil.Records{TE: []cil.TERule{{File: "a.cil", Source: "t1", Target: "t2", Class: "c1"}}}

	require.NoError(t, s.UpsertFile(ctx, "a.cil", 100, recs))
	require.NoError(t, s.UpsertFile(ctx, "a.cil", 100, recs))

	seq, err := s.QueryTE(ctx, Filter{})
	require.NoError(t, err)
	var got []cil.TERule
	for r := range seq {
		got = append(got, r)
	}
	assert.Len(t, got, 1, "re-upserting the same file replaces, not appends")
}

func TestNullStoreQueryFiltersBySourceAndClass(t *testing.T) {
	s := NewNullStore()
	ctx := context.Background()
	recs := cil.Records{TE: []cil.TERule{
		{File: "a.cil", Source: "t1", Target: "t2", Class: "c1"},
		{File: "a.cil", Source: "t3", Target: "t2", Class: "c2"},
	}}
	require.NoError(t, s.UpsertFile(ctx, "a.cil", 100, recs))

	seq, err := s.QueryTE(ctx, Filter{Sources: []string{"t1"}})
	require.NoError(t, err)
	var got []cil.TERule
	for r := range seq {
		got = append(got, r)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].Source)
}

func TestNullStoreListFiles(t *testing.T) {
	s := NewNullStore()
	ctx := context.Background()
	require.NoError(t, s.UpsertFile(ctx, "a.cil", 100, cil.Records{}))
	require.NoError(t, s.UpsertFile(ctx, "b.cil", 100, cil.Records{}))

	files, err := s.ListFiles(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.cil", "b.cil"}, files)
}
