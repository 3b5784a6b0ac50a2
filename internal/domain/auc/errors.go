package auc

import "errors"

// Sentinel kinds for calculator errors.
var (
	// ErrInvalidInput marks input for which AUC is undefined: no samples,
	// mismatched lengths, labels outside {0,1}, NaN scores, or a single class.
	ErrInvalidInput = errors.New("invalid input")
)
