package validation

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"goconcord/domain/stats"
	"goconcord/internal/errors"
)

const (
	selfTestDraws = 100
	randomLow     = 0.4
	randomHigh    = 0.6
)

// SelfTestResult holds the two reference C-index values
type SelfTestResult struct {
	Perfect float64
	Random  float64
	Err     error
}

// SelfTest checks the evaluator against known values: identical truth and
// predictions must score exactly 1, and independent standard normal draws
// must land near 0.5.
func SelfTest(seed int64) SelfTestResult {
	var res SelfTestResult

	ranks := []float64{1, 2, 3, 4, 5}
	perfect, err := stats.CIndex(ranks, ranks)
	if err != nil {
		res.Err = errors.Wrap(err, "perfect predictions")
		return res
	}
	res.Perfect = perfect
	if perfect != 1.0 {
		res.Err = errors.ValidationError(fmt.Sprintf("perfect predictions should give C-index=1.0, got %g", perfect))
		return res
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)}
	yTrue := make([]float64, selfTestDraws)
	yPred := make([]float64, selfTestDraws)
	for i := range yTrue {
		yTrue[i] = normal.Rand()
	}
	for i := range yPred {
		yPred[i] = normal.Rand()
	}

	random, err := stats.CIndex(yTrue, yPred)
	if err != nil {
		res.Err = errors.Wrap(err, "random predictions")
		return res
	}
	res.Random = random
	if random < randomLow || random > randomHigh {
		res.Err = errors.ValidationError(fmt.Sprintf("random predictions should give C-index≈0.5, got %.3f", random))
	}
	return res
}
