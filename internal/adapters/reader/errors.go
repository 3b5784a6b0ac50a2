package reader

import (
	"errors"
	"fmt"
)

// Sentinel kinds for reader errors.
var (
	// ErrFileAccess marks a source that is missing or unreadable.
	ErrFileAccess = errors.New("file access failed")
	// ErrParse marks a malformed line; the concrete error is *ParseError.
	ErrParse = errors.New("parse failed")
)

// ParseError reports the offending line of a result file.
type ParseError struct {
	Source string
	Line   int // 1-based
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s:%d: %s: %q", ErrParse, e.Source, e.Line, e.Reason, e.Text)
}

// Unwrap lets errors.Is(err, ErrParse) match.
func (e *ParseError) Unwrap() error {
	return ErrParse
}
