// Package cil holds the normalized record model for CIL policy statements:
// type-enforcement rules, type-attribute-sets, and type-transitions, plus
// the normalizer that extracts them from a parsed sexpr tree.
package cil

// TERuleKinds are the eight recognized type-enforcement rule heads.
var TERuleKinds = []string{
	"allow", "auditallow", "dontaudit", "neverallow",
	"allowxperm", "auditallowxperm", "dontauditxperm", "neverallowxperm",
}

func isTERuleKind(h string) bool {
	for _, k := range TERuleKinds {
		if h == k {
			return true
		}
	}
	return false
}

// TERule is a type-enforcement rule extracted from a CIL file.
type TERule struct {
	File   string
	String string // canonical form; (File, String) is the dedup/display key

	RuleKind      string
	Source        string
	Target        string
	Class         string
	Perms         []string
	OptionalPath  []string
	BooleanValues []bool
}

// TASet binds an attribute to a concrete set of member types, or — when
// the original expression began with and/or/not — is flagged IsLogical
// with an empty Members (the logical expression is recorded but not
// evaluated, per spec.md's non-goals).
type TASet struct {
	File   string
	String string

	Attr          string
	Members       []string
	IsLogical     bool
	OptionalPath  []string
	BooleanValues []bool
}

// Typetransition declares that an object created under Subject/Source/Class
// acquires Target, optionally only for a specific Filename.
type Typetransition struct {
	File   string
	String string

	Subject       string
	Source        string
	Class         string
	Target        string
	Filename      string
	HasFilename   bool
	OptionalPath  []string
	BooleanValues []bool
}

// Records bundles the three typed record streams produced by Normalize for
// a single source file (or for a from-diff file parsed standalone).
type Records struct {
	TE  []TERule
	TAS []TASet
	TT  []Typetransition
}

// Append merges src into r in place, preserving order.
func (r *Records) Append(src Records) {
	r.TE = append(r.TE, src.TE...)
	r.TAS = append(r.TAS, src.TAS...)
	r.TT = append(r.TT, src.TT...)
}
