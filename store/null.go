package store

import (
	"context"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/cici0602/cilq/cil"
)

// NullStore is an in-memory Store, map-backed and guarded by a single
// mutex. It exists for query-engine and CLI tests that want real Store
// semantics (freshness tracking, atomic per-file replace) without a
// Postgres dependency; PostgresStore is the only implementation meant for
// production use.
type NullStore struct {
	mu     sync.Mutex
	mtimes map[string]int64
	recs   map[string]cil.Records
}

// NewNullStore returns an empty NullStore.
func NewNullStore() *NullStore {
	return &NullStore{
		mtimes: make(map[string]int64),
		recs:   make(map[string]cil.Records),
	}
}

func (s *NullStore) UpsertFile(_ context.Context, path string, mtimeUS int64, recs cil.Records) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mtimes[path] = mtimeUS
	s.recs[path] = recs
	return nil
}

func (s *NullStore) FileFresh(_ context.Context, path string, mtimeUS int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.mtimes[path]
	return ok && existing == mtimeUS, nil
}

func (s *NullStore) ListFiles(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Collect(maps.Keys(s.mtimes)), nil
}

func (s *NullStore) QueryTE(_ context.Context, f Filter) (iter.Seq[cil.TERule], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []cil.TERule
	for _, recs := range s.recs {
		for _, r := range recs.TE {
			if matchTE(r, f) {
				all = append(all, r)
			}
		}
	}
	return slices.Values(all), nil
}

func (s *NullStore) QueryTT(_ context.Context, f Filter) (iter.Seq[cil.Typetransition], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []cil.Typetransition
	for _, recs := range s.recs {
		for _, r := range recs.TT {
			if matchTT(r, f) {
				all = append(all, r)
			}
		}
	}
	return slices.Values(all), nil
}

func (s *NullStore) QueryTAS(_ context.Context, f Filter) (iter.Seq[cil.TASet], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []cil.TASet
	for _, recs := range s.recs {
		for _, r := range recs.TAS {
			if matchTAS(r, f) {
				all = append(all, r)
			}
		}
	}
	return slices.Values(all), nil
}

func matchTE(r cil.TERule, f Filter) bool {
	if len(f.Sources) > 0 && !slices.Contains(f.Sources, r.Source) {
		return false
	}
	if len(f.Targets) > 0 && !slices.Contains(f.Targets, r.Target) {
		return false
	}
	if f.Class != "" && f.Class != r.Class {
		return false
	}
	if f.RuleKind != "" && f.RuleKind != r.RuleKind {
		return false
	}
	return true
}

func matchTT(r cil.Typetransition, f Filter) bool {
	if len(f.Sources) > 0 && !slices.Contains(f.Sources, r.Source) {
		return false
	}
	if len(f.Targets) > 0 && !slices.Contains(f.Targets, r.Target) {
		return false
	}
	if f.Class != "" && f.Class != r.Class {
		return false
	}
	return true
}

func matchTAS(r cil.TASet, f Filter) bool {
	if f.Attr != "" && f.Attr != r.Attr {
		return false
	}
	return true
}
