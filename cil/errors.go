package cil

import "github.com/samber/oops"

// Error codes for the two fatal failure modes the normalizer can raise.
// ParseError (sexpr.ParseError) is the third taxonomy member and is raised
// by the parser, not here.
const (
	CodeNormalizerError = "NORMALIZER_ERROR"
	CodeShapeAssert     = "SHAPE_ASSERT_ERROR"
)

// errUnknownHead reports a statement head that is neither a recognized
// record kind nor on the benign-unknown whitelist. Fatal: the whole file is
// rejected.
func errUnknownHead(file, head string) error {
	return oops.Code(CodeNormalizerError).
		With("file", file).
		With("head", head).
		Errorf("unrecognized CIL statement head %q", head)
}

// errShape reports a whitelisted head whose expression has the wrong token
// arity or types for its kind.
func errShape(file, head, reason string) error {
	return oops.Code(CodeShapeAssert).
		With("file", file).
		With("head", head).
		Errorf("malformed %q expression: %s", head, reason)
}
