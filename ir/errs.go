package ir

import (
	"errors"

	"github.com/snrraptopack/slim/parse"
)

// ErrBuild is a sentinel for build-time failures. The Builder itself never
// returns or wraps it: it records diagnostics in Result.Diagnostics
// instead — type coercion is total and unresolved references are
// recorded, not fatal.
var ErrBuild = errors.New("ir build error")

// Diagnostic is a build-time IR note: a duplicate mapping key (recorded
// only when the Builder is strict) or an unresolved/cyclic reference.
// Path names the location the diagnostic refers to, one component per
// mapping key or "[i]" sequence index from the document root.
type Diagnostic struct {
	Message  string
	Severity parse.Severity
	Path     []string
}

// appendPath returns path with seg appended, always copying so that
// sibling recursive calls sharing a prefix never alias each other's
// backing array.
func appendPath(path []string, seg string) []string {
	np := make([]string, len(path)+1)
	copy(np, path)
	np[len(path)] = seg
	return np
}
