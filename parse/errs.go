package parse

import "errors"

// ErrParse is a sentinel for parse failures. The parser itself never
// returns or wraps it: structural issues are recorded as Diagnostics and
// read through Diagnostics(), since the parser never aborts on one.
var ErrParse = errors.New("parse error")
