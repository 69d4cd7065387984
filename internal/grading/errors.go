package grading

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Locator.Find when no file matches.
	ErrNotFound = errors.New("file not found in submission")

	// ErrFixtureMissing marks a grading environment problem, never a student one.
	ErrFixtureMissing = errors.New("reference fixture missing")

	// ErrBadReference wraps a FormatError found in a reference fixture.
	ErrBadReference = errors.New("reference fixture malformed")
)

// FormatError reports an output line that is not a list of integers.
type FormatError struct {
	Line int // 1-based
	Text string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d %q is not a list of integers: %v", e.Line, e.Text, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
