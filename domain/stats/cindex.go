package stats

import (
	"fmt"
	"math"

	"goconcord/internal/errors"
)

// PairCounts is the breakdown of all i<j pairs of a sample set
type PairCounts struct {
	Concordant int `json:"concordant"`
	Discordant int `json:"discordant"`
	TiedTruth  int `json:"tied_truth"`
}

// Comparable is the number of pairs that entered the statistic
func (c PairCounts) Comparable() int {
	return c.Concordant + c.Discordant
}

// CIndex returns concordant / (concordant + discordant), or a
// DegenerateInput error when no pair is comparable
func (c PairCounts) CIndex() (float64, error) {
	if c.Comparable() == 0 {
		return 0, errors.DegenerateInput(fmt.Sprintf(
			"no comparable pairs (%d tied on truth)", c.TiedTruth))
	}
	return float64(c.Concordant) / float64(c.Comparable()), nil
}

// Concordance classifies every pair i<j. Pairs with tied truth are skipped.
// A pair is concordant only when the predicted difference has the same
// non-zero sign as the true difference, so a predicted tie against untied
// truth counts as discordant.
func Concordance(yTrue, yPred []float64) (PairCounts, error) {
	var counts PairCounts
	if len(yTrue) != len(yPred) {
		return counts, errors.ShapeMismatch(fmt.Sprintf(
			"y_true and y_pred length mismatch: %d vs %d", len(yTrue), len(yPred)))
	}

	if err := checkFinite("y_true", yTrue); err != nil {
		return counts, err
	}
	if err := checkFinite("y_pred", yPred); err != nil {
		return counts, err
	}

	n := len(yTrue)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if yTrue[i] == yTrue[j] {
				counts.TiedTruth++
				continue
			}
			if (yPred[i] > yPred[j] && yTrue[i] > yTrue[j]) ||
				(yPred[i] < yPred[j] && yTrue[i] < yTrue[j]) {
				counts.Concordant++
			} else {
				counts.Discordant++
			}
		}
	}
	return counts, nil
}

// CIndex returns concordant / (concordant + discordant). It fails with a
// DegenerateInput error when no pair is comparable, which includes N < 2
// and all-tied truth, and with InvalidInput on NaN or infinite values.
func CIndex(yTrue, yPred []float64) (float64, error) {
	counts, err := Concordance(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	c, err := counts.CIndex()
	if err != nil {
		return 0, errors.Wrapf(err, "%d samples", len(yTrue))
	}
	return c, nil
}

func checkFinite(name string, v []float64) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return errors.Newf(errors.CodeInvalidInput, "%s[%d] is not finite: %v", name, i, x)
		}
	}
	return nil
}
