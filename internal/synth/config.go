// Package synth writes synthetic labelled result files.
package synth

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig marks a generator configuration that cannot produce a file.
var ErrInvalidConfig = errors.New("invalid generator config")

// Defaults used by the generate command.
const (
	DefaultN            = 1000
	DefaultPositiveRate = 0.5
	DefaultSeparation   = 1.0
	DefaultPrecision    = 6
)

// Config controls the shape of the generated data.
type Config struct {
	N            int     // number of lines
	PositiveRate float64 // fraction of positive labels, in (0,1)
	Separation   float64 // mean of the positive score distribution
	Seed         uint64  // equal seeds give equal output
	Precision    int     // significant digits per score; low values create ties
	SignedLabels bool    // write negatives as -1 instead of 0
}

// Stats summarises what Generate wrote.
type Stats struct {
	Lines     int
	Positives int
	Negatives int
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.N < 2 {
		return fmt.Errorf("%w: n must be at least 2, got %d", ErrInvalidConfig, c.N)
	}
	if !(c.PositiveRate > 0 && c.PositiveRate < 1) {
		return fmt.Errorf("%w: positive rate must be in (0,1), got %v", ErrInvalidConfig, c.PositiveRate)
	}
	if math.IsNaN(c.Separation) || math.IsInf(c.Separation, 0) {
		return fmt.Errorf("%w: separation must be finite", ErrInvalidConfig)
	}
	if c.Precision < 0 {
		return fmt.Errorf("%w: precision must not be negative, got %d", ErrInvalidConfig, c.Precision)
	}
	return nil
}
