// Package model contains domain models passed between layers.
package model

import "time"

// Class labels.
const (
	Negative = 0
	Positive = 1
)

// Sample is a single (label, score) observation.
type Sample struct {
	Label int     // 0 negative, 1 positive
	Score float64 // prediction strength
}

// Dataset holds parallel label and score sequences read from one source.
// Position i in Labels corresponds to position i in Scores.
type Dataset struct {
	Source string
	Labels []int
	Scores []float64
}

// NewDataset creates an empty dataset with room for capacity samples.
func NewDataset(source string, capacity int) *Dataset {
	if capacity < 0 {
		capacity = 0
	}
	return &Dataset{
		Source: source,
		Labels: make([]int, 0, capacity),
		Scores: make([]float64, 0, capacity),
	}
}

// Add appends a sample.
func (d *Dataset) Add(s Sample) {
	d.Labels = append(d.Labels, s.Label)
	d.Scores = append(d.Scores, s.Score)
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Labels)
}

// At returns the i-th sample.
func (d *Dataset) At(i int) Sample {
	return Sample{Label: d.Labels[i], Score: d.Scores[i]}
}

// Counts returns the number of positive and negative samples.
func (d *Dataset) Counts() (positives, negatives int) {
	for _, l := range d.Labels {
		switch l {
		case Positive:
			positives++
		case Negative:
			negatives++
		}
	}
	return positives, negatives
}

// Report is the outcome of evaluating one source.
type Report struct {
	ID           string        `json:"id" yaml:"id"`
	Index        int           `json:"-" yaml:"-"`
	Source       string        `json:"source" yaml:"source"`
	AUC          float64       `json:"auc" yaml:"auc"`
	Samples      int           `json:"samples" yaml:"samples"`
	Positives    int           `json:"positives" yaml:"positives"`
	Negatives    int           `json:"negatives" yaml:"negatives"`
	TiedGroups   int           `json:"tied_groups" yaml:"tied_groups"`
	PositiveMean float64       `json:"positive_mean" yaml:"positive_mean"`
	NegativeMean float64       `json:"negative_mean" yaml:"negative_mean"`
	Duration     time.Duration `json:"duration_ns" yaml:"duration"`
}
