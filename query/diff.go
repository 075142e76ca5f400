package query

import "github.com/cici0602/cilq/cil"

// RecordsDiff is the set-difference between two Records snapshots of the
// same file (or the same store), keyed on each record's canonical String.
type RecordsDiff struct {
	TEAdded    []cil.TERule
	TERemoved  []cil.TERule
	TASAdded   []cil.TASet
	TASRemoved []cil.TASet
	TTAdded    []cil.Typetransition
	TTRemoved  []cil.Typetransition
}

// DiffRecords reports what changed between old and next: records whose
// canonical string appears in next but not old are Added, and vice versa
// for Removed. A record present in both (same canonical string) is
// unchanged and appears in neither list.
func DiffRecords(old, next cil.Records) RecordsDiff {
	var d RecordsDiff

	oldTE := keyByString(old.TE, func(r cil.TERule) string { return r.String })
	nextTE := keyByString(next.TE, func(r cil.TERule) string { return r.String })
	for k, r := range nextTE {
		if _, ok := oldTE[k]; !ok {
			d.TEAdded = append(d.TEAdded, r)
		}
	}
	for k, r := range oldTE {
		if _, ok := nextTE[k]; !ok {
			d.TERemoved = append(d.TERemoved, r)
		}
	}

	oldTAS := keyByString(old.TAS, func(r cil.TASet) string { return r.String })
	nextTAS := keyByString(next.TAS, func(r cil.TASet) string { return r.String })
	for k, r := range nextTAS {
		if _, ok := oldTAS[k]; !ok {
			d.TASAdded = append(d.TASAdded, r)
		}
	}
	for k, r := range oldTAS {
		if _, ok := nextTAS[k]; !ok {
			d.TASRemoved = append(d.TASRemoved, r)
		}
	}

	oldTT := keyByString(old.TT, func(r cil.Typetransition) string { return r.String })
	nextTT := keyByString(next.TT, func(r cil.Typetransition) string { return r.String })
	for k, r := range nextTT {
		if _, ok := oldTT[k]; !ok {
			d.TTAdded = append(d.TTAdded, r)
		}
	}
	for k, r := range oldTT {
		if _, ok := nextTT[k]; !ok {
			d.TTRemoved = append(d.TTRemoved, r)
		}
	}

	return d
}

func keyByString[T any](recs []T, key func(T) string) map[string]T {
	m := make(map[string]T, len(recs))
	for _, r := range recs {
		m[key(r)] = r
	}
	return m
}
