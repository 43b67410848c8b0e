package stats

import (
	"math"
	"math/rand"
	"testing"

	"goconcord/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCIndex_PerfectAgreement(t *testing.T) {
	y := []float64{1, 2, 3, 4, 5}

	c, err := CIndex(y, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, c)
}

func TestCIndex_ReversedOrder(t *testing.T) {
	c, err := CIndex([]float64{1, 2, 3, 4}, []float64{4, 3, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, c)
}

func TestConcordance_SkipsTiedTruth(t *testing.T) {
	predictions := [][]float64{
		{0, 0, 0},
		{1, 5, 2},
		{5, 1, 9},
		{-3, 7, 7},
	}
	for _, yPred := range predictions {
		counts, err := Concordance([]float64{1, 1, 2}, yPred)
		require.NoError(t, err)
		assert.Equal(t, 2, counts.Comparable(), "y_pred=%v", yPred)
		assert.Equal(t, 1, counts.TiedTruth, "y_pred=%v", yPred)
	}
}

func TestCIndex_PredictedTieIsDiscordant(t *testing.T) {
	counts, err := Concordance([]float64{1, 2}, []float64{5, 5})
	require.NoError(t, err)
	assert.Equal(t, PairCounts{Concordant: 0, Discordant: 1}, counts)

	c, err := CIndex([]float64{1, 2}, []float64{5, 5})
	require.NoError(t, err)
	assert.Equal(t, 0.0, c)
}

func TestCIndex_RandomNearHalf(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	yTrue := make([]float64, 100)
	yPred := make([]float64, 100)
	for i := range yTrue {
		yTrue[i] = rng.NormFloat64()
	}
	for i := range yPred {
		yPred[i] = rng.NormFloat64()
	}

	c, err := CIndex(yTrue, yPred)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, c, 0.4)
	assert.LessOrEqual(t, c, 0.6)
	t.Logf("random C-index: %.3f", c)
}

func TestCIndex_DegenerateInput(t *testing.T) {
	cases := map[string][2][]float64{
		"all tied":     {{3, 3, 3}, {1, 2, 3}},
		"single value": {{1}, {1}},
		"empty":        {{}, {}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c, err := CIndex(tc[0], tc[1])
			require.Error(t, err)
			assert.True(t, errors.IsDegenerateInput(err))
			assert.False(t, math.IsNaN(c))
		})
	}
}

func TestCIndex_LengthMismatch(t *testing.T) {
	_, err := CIndex([]float64{1, 2, 3}, []float64{1, 2})
	require.Error(t, err)
	assert.True(t, errors.IsShapeMismatch(err))
}

func TestCIndex_MixedPairs(t *testing.T) {
	// (0,1) concordant, (0,2) and (1,2) discordant
	c, err := CIndex([]float64{1, 2, 3}, []float64{1, 3, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, c, 1e-12)
}

func TestCIndex_RejectsNonFinite(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	cases := map[string][2][]float64{
		"NaN truth":       {{nan, nan, nan}, {1, 2, 3}},
		"infinite truth":  {{1, inf, 3}, {1, 2, 3}},
		"NaN prediction":  {{1, 2, 3}, {1, nan, 3}},
		"-Inf prediction": {{1, 2, 3}, {math.Inf(-1), 2, 3}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Concordance(tc[0], tc[1])
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

			_, err = CIndex(tc[0], tc[1])
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
		})
	}
}

func TestPairCounts_CIndex(t *testing.T) {
	c, err := PairCounts{Concordant: 3, Discordant: 1, TiedTruth: 2}.CIndex()
	require.NoError(t, err)
	assert.Equal(t, 0.75, c)

	_, err = PairCounts{TiedTruth: 3}.CIndex()
	require.Error(t, err)
	assert.True(t, errors.IsDegenerateInput(err))
}
