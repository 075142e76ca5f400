package store

import "strings"

// The three record tables persist variable-length fields (permission sets,
// conditional-context path/value pairs) as single space-joined text
// columns rather than child tables — matching the encoding the indexer's
// original sqlite schema used, and cheap to reconstruct since none of the
// stored tokens ever contain whitespace (CIL symbols, quoted filenames
// with escaped interiors, and JSON-encoded boolean conditions are all
// whitespace-free or already JSON-string-escaped).

func encodeStrings(ss []string) string {
	return strings.Join(ss, " ")
}

func decodeStrings(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}

func encodeBools(bs []bool) string {
	parts := make([]string, len(bs))
	for i, b := range bs {
		if b {
			parts[i] = "1"
		} else {
			parts[i] = "0"
		}
	}
	return strings.Join(parts, " ")
}

func decodeBools(s string) []bool {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	out := make([]bool, len(fields))
	for i, f := range fields {
		out[i] = f == "1"
	}
	return out
}
