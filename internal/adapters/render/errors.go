package render

import "errors"

// ErrUnknownFormat is returned for an output format other than text, json or yaml.
var ErrUnknownFormat = errors.New("unknown output format")
