package stats

import (
	"fmt"
	"sort"

	mstats "github.com/montanaflynn/stats"

	"goconcord/internal/errors"
)

// FoldScore is the C-index of one evaluated fold, kept at full precision
type FoldScore struct {
	Key       string     `json:"key"`
	TrainSize int        `json:"train_size"`
	TestSize  int        `json:"test_size"`
	CIndex    float64    `json:"c_index"`
	Counts    PairCounts `json:"counts"`
}

// SkippedFold records a fold that could not produce a defined C-index
type SkippedFold struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// PolicySummary aggregates the folds of one cross-validation policy
type PolicySummary struct {
	Policy    string        `json:"policy"`
	Folds     []FoldScore   `json:"folds"`
	Skipped   []SkippedFold `json:"skipped,omitempty"`
	Mean      float64       `json:"mean"`
	StdDev    float64       `json:"std_dev"`
	Evaluated int           `json:"evaluated"`
	// Pooled is the C-index over every held-out prediction of the policy
	// taken together; nil when that set is itself degenerate.
	Pooled *float64 `json:"pooled,omitempty"`
}

// Label is the name used in rendered output, e.g. "LODO-CV"
func (s PolicySummary) Label() string {
	return s.Policy + "-CV"
}

// SortFolds orders fold scores by key so that downstream sums do not depend
// on the order folds were evaluated in.
func SortFolds(scores []FoldScore) []FoldScore {
	sorted := make([]FoldScore, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	return sorted
}

// MeanScores returns the mean and population standard deviation of the fold
// C-indices, accumulated in key order.
func MeanScores(scores []FoldScore) (float64, float64, error) {
	if len(scores) == 0 {
		return 0, 0, errors.DegenerateInput("no evaluable folds to average")
	}
	sorted := SortFolds(scores)
	values := make(mstats.Float64Data, len(sorted))
	for i, s := range sorted {
		values[i] = s.CIndex
	}

	mean, err := mstats.Mean(values)
	if err != nil {
		return 0, 0, fmt.Errorf("mean of fold scores: %w", err)
	}
	std, err := mstats.StandardDeviationPopulation(values)
	if err != nil {
		return 0, 0, fmt.Errorf("std dev of fold scores: %w", err)
	}
	return mean, std, nil
}

// Summarize builds a PolicySummary from evaluated and skipped folds
func Summarize(policy string, scores []FoldScore, skipped []SkippedFold) (PolicySummary, error) {
	summary := PolicySummary{
		Policy:    policy,
		Folds:     SortFolds(scores),
		Skipped:   skipped,
		Evaluated: len(scores),
	}
	sort.SliceStable(summary.Skipped, func(i, j int) bool { return summary.Skipped[i].Key < summary.Skipped[j].Key })

	mean, std, err := MeanScores(scores)
	if err != nil {
		return summary, errors.Wrapf(err, "%s", summary.Label())
	}
	summary.Mean = mean
	summary.StdDev = std
	return summary, nil
}
