// Package synth writes synthetic labelled result files.
package synth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/okian/rocauc/pkg/logger"
)

const ctxCheckInterval = 4096

// Generate writes cfg.N "<label> <score>" lines to w.
//
// Positive scores are drawn from N(Separation, 1) and negative scores from
// N(0, 1). The first line is always positive and the second negative so
// every output has both classes.
func Generate(ctx context.Context, w io.Writer, cfg Config) (Stats, error) {
	if cfg.Precision == 0 {
		cfg.Precision = DefaultPrecision
	}
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}

	src := rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)
	label := distuv.Bernoulli{P: cfg.PositiveRate, Src: src}
	posScore := distuv.Normal{Mu: cfg.Separation, Sigma: 1, Src: src}
	negScore := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	bw := bufio.NewWriter(w)

	negLabel := "0"
	if cfg.SignedLabels {
		negLabel = "-1"
	}

	var st Stats
	buf := make([]byte, 0, 32)
	for i := range cfg.N {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return st, fmt.Errorf("generate: %w", err)
			}
		}

		positive := i == 0 || (i != 1 && label.Rand() == 1)

		var score float64
		buf = buf[:0]
		if positive {
			score = posScore.Rand()
			buf = append(buf, '1')
			st.Positives++
		} else {
			score = negScore.Rand()
			buf = append(buf, negLabel...)
			st.Negatives++
		}
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, score, 'g', cfg.Precision, 64)
		buf = append(buf, '\n')

		if _, err := bw.Write(buf); err != nil {
			return st, fmt.Errorf("generate: %w", err)
		}
		st.Lines++
	}

	if err := bw.Flush(); err != nil {
		return st, fmt.Errorf("generate: %w", err)
	}

	logger.Get().Named("synth").Debug(ctx, "generated samples",
		logger.Int("lines", st.Lines),
		logger.Int("positives", st.Positives),
		logger.Int("negatives", st.Negatives),
	)
	return st, nil
}
