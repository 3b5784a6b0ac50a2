// Package auc computes the area under the ROC curve with the rank-sum
// (Mann-Whitney U) method. Tied scores share the average of the ranks they
// span, so each positive/negative tie contributes one half.
package auc

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/okian/rocauc/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// Summary describes one evaluated dataset.
type Summary struct {
	AUC          float64
	Samples      int
	Positives    int
	Negatives    int
	TiedGroups   int // score values shared by more than one sample
	PositiveMean float64
	NegativeMean float64
}

// Compute returns the AUC of scores against binary labels.
func Compute(labels []int, scores []float64) (float64, error) {
	r, err := rankSum(labels, scores)
	if err != nil {
		return 0, err
	}
	return r.auc(), nil
}

// Summarize computes the AUC together with class counts, tie statistics and
// per-class mean scores.
func Summarize(labels []int, scores []float64) (Summary, error) {
	r, err := rankSum(labels, scores)
	if err != nil {
		return Summary{}, err
	}

	pos := make([]float64, 0, r.positives)
	neg := make([]float64, 0, r.negatives)
	for i, l := range labels {
		if l == model.Positive {
			pos = append(pos, scores[i])
		} else {
			neg = append(neg, scores[i])
		}
	}

	return Summary{
		AUC:          r.auc(),
		Samples:      len(labels),
		Positives:    r.positives,
		Negatives:    r.negatives,
		TiedGroups:   r.tiedGroups,
		PositiveMean: stat.Mean(pos, nil),
		NegativeMean: stat.Mean(neg, nil),
	}, nil
}

// MidRanks returns the 1-indexed rank of every score in input order. Equal
// scores receive the mean of the positions they occupy once sorted.
func MidRanks(scores []float64) []float64 {
	ranks, _ := midRanks(scores)
	return ranks
}

type rankResult struct {
	sumPositive float64
	positives   int
	negatives   int
	tiedGroups  int
}

func (r rankResult) auc() float64 {
	np := float64(r.positives)
	nn := float64(r.negatives)
	return (r.sumPositive - np*(np+1)/2) / (np * nn)
}

func rankSum(labels []int, scores []float64) (rankResult, error) {
	if err := validate(labels, scores); err != nil {
		return rankResult{}, err
	}

	var r rankResult
	for _, l := range labels {
		if l == model.Positive {
			r.positives++
		} else {
			r.negatives++
		}
	}
	if r.positives == 0 {
		return rankResult{}, fmt.Errorf("%w: no positive samples among %d", ErrInvalidInput, len(labels))
	}
	if r.negatives == 0 {
		return rankResult{}, fmt.Errorf("%w: no negative samples among %d", ErrInvalidInput, len(labels))
	}

	ranks, tied := midRanks(scores)
	r.tiedGroups = tied
	for i, l := range labels {
		if l == model.Positive {
			r.sumPositive += ranks[i]
		}
	}
	return r, nil
}

func validate(labels []int, scores []float64) error {
	if len(labels) == 0 && len(scores) == 0 {
		return fmt.Errorf("%w: no samples", ErrInvalidInput)
	}
	if len(labels) != len(scores) {
		return fmt.Errorf("%w: %d labels but %d scores", ErrInvalidInput, len(labels), len(scores))
	}
	for i, l := range labels {
		if l != model.Positive && l != model.Negative {
			return fmt.Errorf("%w: label %d at index %d is not 0 or 1", ErrInvalidInput, l, i)
		}
		if math.IsNaN(scores[i]) {
			return fmt.Errorf("%w: score at index %d is NaN", ErrInvalidInput, i)
		}
	}
	return nil
}

func midRanks(scores []float64) ([]float64, int) {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(scores[a], scores[b])
	})

	ranks := make([]float64, len(scores))
	tied := 0
	for i := 0; i < len(order); {
		j := i + 1
		for j < len(order) && scores[order[j]] == scores[order[i]] {
			j++
		}
		// sorted positions i..j-1 hold ranks i+1..j
		r := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = r
		}
		if j-i > 1 {
			tied++
		}
		i = j
	}
	return ranks, tied
}
