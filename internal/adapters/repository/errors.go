package repository

import "errors"

// Sentinel kinds for report store errors.
var (
	ErrInvalidLimit = errors.New("invalid report limit")
	ErrMissingID    = errors.New("report has no id")
)
