package dataset

import (
	"fmt"
	"sort"
	"strings"

	"goconcord/domain/core"
	"goconcord/internal/errors"
)

// Pairing is one row of the pairing table
type Pairing struct {
	Protein core.ProteinID `json:"protein"`
	Drug    core.DrugID    `json:"drug"`
}

// Key returns the pair key of the row
func (p Pairing) Key() core.PairKey {
	return core.PairKey{Protein: p.Protein, Drug: p.Drug}
}

// PairingTable is index-aligned 1:1 with the outcome vector
type PairingTable []Pairing

// Proteins returns the sorted distinct protein identifiers
func (t PairingTable) Proteins() []core.ProteinID {
	seen := make(map[core.ProteinID]struct{})
	out := make([]core.ProteinID, 0)
	for _, p := range t {
		if _, ok := seen[p.Protein]; ok {
			continue
		}
		seen[p.Protein] = struct{}{}
		out = append(out, p.Protein)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Drugs returns the sorted distinct drug identifiers
func (t PairingTable) Drugs() []core.DrugID {
	seen := make(map[core.DrugID]struct{})
	out := make([]core.DrugID, 0)
	for _, p := range t {
		if _, ok := seen[p.Drug]; ok {
			continue
		}
		seen[p.Drug] = struct{}{}
		out = append(out, p.Drug)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ObservedPairs returns the sorted distinct (protein, drug) combinations
func (t PairingTable) ObservedPairs() []core.PairKey {
	seen := make(map[core.PairKey]struct{})
	out := make([]core.PairKey, 0)
	for _, p := range t {
		k := p.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// SampleSet holds the aligned outcomes and pairings of one dataset.
// The feature matrix itself is not needed here, only its shape.
type SampleSet struct {
	Outcomes    []float64    `json:"outcomes"`
	Pairs       PairingTable `json:"pairs"`
	FeatureRows int          `json:"feature_rows"`
	FeatureCols int          `json:"feature_cols"`
}

// NewSampleSet builds a sample set, failing with a shape mismatch when the
// three inputs do not have the same number of rows.
func NewSampleSet(featureRows, featureCols int, outcomes []float64, pairs PairingTable) (*SampleSet, error) {
	if featureRows != len(outcomes) {
		return nil, errors.ShapeMismatch(fmt.Sprintf(
			"input and output data length mismatch: %d vs %d", featureRows, len(outcomes)))
	}
	if featureRows != len(pairs) {
		return nil, errors.ShapeMismatch(fmt.Sprintf(
			"input and pairs data length mismatch: %d vs %d", featureRows, len(pairs)))
	}
	for i, p := range pairs {
		if p.Protein == "" || p.Drug == "" {
			return nil, errors.ShapeMismatch(fmt.Sprintf("pairing row %d is missing a field", i+1))
		}
	}
	return &SampleSet{
		Outcomes:    outcomes,
		Pairs:       pairs,
		FeatureRows: featureRows,
		FeatureCols: featureCols,
	}, nil
}

// Len returns the number of samples
func (s *SampleSet) Len() int {
	return len(s.Outcomes)
}

// OutcomesAt returns the outcome values for the given row indices
func (s *SampleSet) OutcomesAt(indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = s.Outcomes[idx]
	}
	return out
}

// Expectations are the documented sizes of the dataset
type Expectations struct {
	Samples  int `json:"samples"`
	Proteins int `json:"proteins"`
	Drugs    int `json:"drugs"`
}

// DefaultExpectations matches the published drug–protein interaction dataset
func DefaultExpectations() Expectations {
	return Expectations{Samples: 400, Proteins: 59, Drugs: 77}
}

// Cardinality is what was actually observed in a sample set
type Cardinality struct {
	Samples  int `json:"samples"`
	Proteins int `json:"proteins"`
	Drugs    int `json:"drugs"`
	Pairs    int `json:"pairs"`
}

// Cardinality counts samples and distinct entities
func (s *SampleSet) Cardinality() Cardinality {
	return Cardinality{
		Samples:  s.Len(),
		Proteins: len(s.Pairs.Proteins()),
		Drugs:    len(s.Pairs.Drugs()),
		Pairs:    len(s.Pairs.ObservedPairs()),
	}
}

// CheckCardinality returns an advisory UnexpectedCardinality error listing
// every count that diverges from exp. A zero expectation is not checked.
func (s *SampleSet) CheckCardinality(exp Expectations) error {
	got := s.Cardinality()
	var problems []string
	if exp.Samples > 0 && got.Samples != exp.Samples {
		problems = append(problems, fmt.Sprintf("expected %d samples, got %d", exp.Samples, got.Samples))
	}
	if exp.Proteins > 0 && got.Proteins != exp.Proteins {
		problems = append(problems, fmt.Sprintf("expected %d proteins, got %d", exp.Proteins, got.Proteins))
	}
	if exp.Drugs > 0 && got.Drugs != exp.Drugs {
		problems = append(problems, fmt.Sprintf("expected %d drugs, got %d", exp.Drugs, got.Drugs))
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.UnexpectedCardinality(strings.Join(problems, "; "))
}
