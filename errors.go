package robotide

import (
	"cmp"
	"fmt"
)

// ParseError reports an unexpected failure while classifying a line.
// It aborts the parse of that file only; malformed input is never a
// ParseError but a [Diagnostic].
type ParseError struct {
	File string // name of the file being parsed
	Line int    // line number (1-indexed)
	Err  error  // underlying error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v", cmp.Or(e.File, "<unknown>"), e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
