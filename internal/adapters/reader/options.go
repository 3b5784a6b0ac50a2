package reader

import (
	"io"

	"github.com/okian/rocauc/pkg/logger"
)

// Option applies a configuration option to the Reader.
type Option func(*Reader)

// WithStdin sets the stream read when the source is "-".
func WithStdin(r io.Reader) Option {
	return func(rd *Reader) {
		if r != nil {
			rd.stdin = r
		}
	}
}

// WithMaxLineBytes bounds the length of a single line.
func WithMaxLineBytes(n int) Option {
	return func(rd *Reader) {
		if n > 0 {
			rd.maxLineBytes = n
		}
	}
}

// WithLogger sets a custom logger for the reader.
func WithLogger(l logger.Logger) Option {
	return func(rd *Reader) {
		if l != nil {
			rd.logger = l
		}
	}
}
