package cil

import "github.com/cici0602/cilq/sexpr"

// Normalize walks a parsed CIL file's top-level expressions and extracts
// TE rules, type-attribute-sets, and type-transitions, flattening optional
// and booleanif wrappers into conditional context carried on each record.
//
// Traversal is depth-first. optional and booleanif bodies recurse into a
// fresh call with the context extended and a fresh per-call dedup set —
// the same surface statement under two different conditional contexts is
// two distinct records, but repeats within one context (one optional/
// booleanif body, or the top level) collapse to one.
func Normalize(exprs []sexpr.Node, file string) (Records, error) {
	return normalizeAt(exprs, file, nil, nil)
}

func normalizeAt(exprs []sexpr.Node, file string, optPath []string, boolVals []bool) (Records, error) {
	var out Records
	seen := make(map[string]struct{})

	for _, e := range exprs {
		head := e.Head()

		switch head {
		case "optional":
			if len(e.Children) < 2 {
				return Records{}, errShape(file, head, "expected a name and a body")
			}
			name := e.Children[1].Text
			sub, err := normalizeAt(e.Children[2:], file, copyAppend(optPath, name), boolVals)
			if err != nil {
				return Records{}, err
			}
			out.Append(sub)
			continue

		case "booleanif":
			if len(e.Children) < 2 {
				return Records{}, errShape(file, head, "expected a condition and branches")
			}
			cond, err := jsonEncodeCondition(e.Children[1])
			if err != nil {
				return Records{}, errShape(file, head, err.Error())
			}
			nestedOpt := copyAppend(optPath, cond)
			// Branches appear either directly, (booleanif c (true ...) (false ...)),
			// or grouped in one list, (booleanif c ((true ...) (false ...))).
			var branches []sexpr.Node
			for _, b := range e.Children[2:] {
				if b.Kind == sexpr.KindList && len(b.Children) > 0 && b.Children[0].Kind == sexpr.KindList {
					branches = append(branches, b.Children...)
					continue
				}
				branches = append(branches, b)
			}
			for _, branch := range branches {
				if branch.Kind != sexpr.KindList || len(branch.Children) == 0 {
					return Records{}, errShape(file, head, "branch must be (true|false body...)")
				}
				bv := branch.Children[0].Text == "true"
				sub, err := normalizeAt(branch.Children[1:], file, nestedOpt, copyAppendBool(boolVals, bv))
				if err != nil {
					return Records{}, err
				}
				out.Append(sub)
			}
			continue

		case "typeattributeset", "roleattributeset":
			if len(e.Children) > 1 && e.Children[1].Text == "cil_gen_require" {
				continue // auto-generated require scaffolding, never a real record
			}
		}

		key := e.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		switch {
		case isTERuleKind(head):
			r, err := newTERule(e, file, optPath, boolVals)
			if err != nil {
				return Records{}, err
			}
			out.TE = append(out.TE, r)

		case head == "typeattributeset":
			r, err := newTASet(e, file, optPath, boolVals)
			if err != nil {
				return Records{}, err
			}
			out.TAS = append(out.TAS, r)

		case head == "typetransition":
			r, err := newTypetransition(e, file, optPath, boolVals)
			if err != nil {
				return Records{}, err
			}
			out.TT = append(out.TT, r)

		case isBenignUnknownHead(head):
			// recognized but out of scope for this index

		default:
			return Records{}, errUnknownHead(file, head)
		}
	}

	return out, nil
}

func newTERule(e sexpr.Node, file string, optPath []string, boolVals []bool) (TERule, error) {
	c := e.Children
	if len(c) != 4 || c[3].Kind != sexpr.KindList || len(c[3].Children) != 2 {
		return TERule{}, errShape(file, e.Head(), "expected (kind source target (class (perms...)))")
	}
	classExpr := c[3]
	if classExpr.Children[1].Kind != sexpr.KindList {
		return TERule{}, errShape(file, e.Head(), "permission set must be a list")
	}
	perms := make([]string, 0, len(classExpr.Children[1].Children))
	for _, p := range classExpr.Children[1].Children {
		if p.Kind != sexpr.KindAtom {
			return TERule{}, errShape(file, e.Head(), "permission must be an atom")
		}
		perms = append(perms, p.Text)
	}
	return TERule{
		File:          file,
		String:        canonicalString(e, optPath, boolVals),
		RuleKind:      c[0].Text,
		Source:        c[1].Text,
		Target:        c[2].Text,
		Class:         classExpr.Children[0].Text,
		Perms:         perms,
		OptionalPath:  append([]string{}, optPath...),
		BooleanValues: append([]bool{}, boolVals...),
	}, nil
}

func newTASet(e sexpr.Node, file string, optPath []string, boolVals []bool) (TASet, error) {
	c := e.Children
	if len(c) != 3 || c[2].Kind != sexpr.KindList {
		return TASet{}, errShape(file, e.Head(), "expected (typeattributeset attr (members...))")
	}
	members := c[2].Children
	isLogical := len(members) > 0 && members[0].Kind == sexpr.KindAtom &&
		(members[0].Text == "and" || members[0].Text == "or" || members[0].Text == "not")

	var names []string
	if !isLogical {
		seen := make(map[string]struct{}, len(members))
		for _, m := range members {
			if m.Kind != sexpr.KindAtom {
				return TASet{}, errShape(file, e.Head(), "attribute member must be an atom")
			}
			if _, ok := seen[m.Text]; ok {
				continue
			}
			seen[m.Text] = struct{}{}
			names = append(names, m.Text)
		}
	}

	return TASet{
		File:          file,
		String:        canonicalString(e, optPath, boolVals),
		Attr:          c[1].Text,
		Members:       names,
		IsLogical:     isLogical,
		OptionalPath:  append([]string{}, optPath...),
		BooleanValues: append([]bool{}, boolVals...),
	}, nil
}

func newTypetransition(e sexpr.Node, file string, optPath []string, boolVals []bool) (Typetransition, error) {
	c := e.Children
	if len(c) != 5 && len(c) != 6 {
		return Typetransition{}, errShape(file, e.Head(), "expected 5 or 6 tokens")
	}
	t := Typetransition{
		File:          file,
		String:        canonicalString(e, optPath, boolVals),
		Subject:       c[1].Text,
		Source:        c[2].Text,
		Class:         c[3].Text,
		OptionalPath:  append([]string{}, optPath...),
		BooleanValues: append([]bool{}, boolVals...),
	}
	if len(c) == 6 {
		t.Filename = c[4].Text
		t.HasFilename = true
		t.Target = c[5].Text
	} else {
		t.Target = c[4].Text
	}
	return t, nil
}
