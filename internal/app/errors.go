package service

import "errors"

// ErrNoSources is returned when Evaluate is called without any input.
var ErrNoSources = errors.New("no sources to evaluate")
