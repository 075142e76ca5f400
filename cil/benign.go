package cil

// benignUnknownHeads are statement heads the normalizer recognizes but
// deliberately discards: they describe policy surface this index does not
// model (MLS, users/roles, file contexts, class declarations, ...). Any
// head not in this set and not one of the classified record kinds is a
// fatal NormalizerError. The list is carried over unchanged from the
// original indexer rather than re-derived from a formal CIL grammar.
var benignUnknownHeads = map[string]struct{}{
	"boolean":             {},
	"category":            {},
	"categoryorder":       {},
	"class":               {},
	"classcommon":         {},
	"classorder":          {},
	"common":              {},
	"defaultrange":        {},
	"filecon":             {},
	"fsuse":               {},
	"genfscon":            {},
	"handleunknown":       {},
	"mls":                 {},
	"mlsconstrain":        {},
	"policycap":           {},
	"portcon":             {},
	"rangetransition":     {},
	"role":                {},
	"roleallow":           {},
	"roleattribute":       {},
	"roleattributeset":    {},
	"roletransition":      {},
	"roletype":            {},
	"selinuxuser":         {},
	"selinuxuserdefault":  {},
	"sensitivity":         {},
	"sensitivitycategory": {},
	"sensitivityorder":    {},
	"sid":                 {},
	"sidcontext":          {},
	"sidorder":            {},
	"type":                {},
	"typealias":           {},
	"typealiasactual":     {},
	"typeattribute":       {},
	"typechange":          {},
	"typemember":          {},
	"user":                {},
	"userlevel":           {},
	"userprefix":          {},
	"userrange":           {},
	"userrole":            {},
}

func isBenignUnknownHead(h string) bool {
	_, ok := benignUnknownHeads[h]
	return ok
}
