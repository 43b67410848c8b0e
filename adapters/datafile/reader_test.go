package datafile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goconcord/domain/core"
	"goconcord/internal/errors"
)

func writeFiles(t *testing.T, features, outcomes, pairs string) Paths {
	t.Helper()
	dir := t.TempDir()
	p := Paths{
		Features: filepath.Join(dir, "input.data"),
		Outcomes: filepath.Join(dir, "output.data"),
		Pairs:    filepath.Join(dir, "pairs.data"),
	}
	require.NoError(t, os.WriteFile(p.Features, []byte(features), 0o644))
	require.NoError(t, os.WriteFile(p.Outcomes, []byte(outcomes), 0o644))
	require.NoError(t, os.WriteFile(p.Pairs, []byte(pairs), 0o644))
	return p
}

func TestReadFeatures(t *testing.T) {
	m, err := ReadFeatures(strings.NewReader("1 2 3\n  4\t5   6 \n\n7 8 9\n"))
	require.NoError(t, err)

	r, c := m.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 5.0, m.At(1, 1))
}

func TestReadFeatures_Ragged(t *testing.T) {
	_, err := ReadFeatures(strings.NewReader("1 2 3\n4 5\n"))
	require.Error(t, err)
	assert.True(t, errors.IsShapeMismatch(err))
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadFeatures_BadNumber(t *testing.T) {
	_, err := ReadFeatures(strings.NewReader("1 x\n"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestReadOutcomes(t *testing.T) {
	out, err := ReadOutcomes(strings.NewReader("0.5\n# comment\n1e-3\n-2\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.001, -2}, out)
}

func TestReadOutcomes_RejectsNonFinite(t *testing.T) {
	for input, line := range map[string]string{
		"1.0\nNaN\n+Inf\n": "line 2",
		"1.0\n2.0\n-inf\n": "line 3",
	} {
		_, err := ReadOutcomes(strings.NewReader(input))
		require.Error(t, err, input)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
		assert.Contains(t, err.Error(), line)
	}
}

func TestReadFeatures_RejectsNonFinite(t *testing.T) {
	_, err := ReadFeatures(strings.NewReader("1 2\n3 NaN\n"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadPairs_QuoteTolerant(t *testing.T) {
	input := `"hsa:10" "D00001"
hsa:11   D00002
'heat shock protein' "D 3"
`
	table, err := ReadPairs(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, table, 3)
	assert.Equal(t, core.ProteinID("hsa:10"), table[0].Protein)
	assert.Equal(t, core.DrugID("D00001"), table[0].Drug)
	assert.Equal(t, core.DrugID("D00002"), table[1].Drug)
	assert.Equal(t, core.ProteinID("heat shock protein"), table[2].Protein)
	assert.Equal(t, core.DrugID("D 3"), table[2].Drug)
}

func TestReadPairs_MissingField(t *testing.T) {
	_, err := ReadPairs(strings.NewReader("p1 d1\np2\n"))
	require.Error(t, err)
	assert.True(t, errors.IsShapeMismatch(err))
}

func TestReadPairs_UnterminatedQuote(t *testing.T) {
	_, err := ReadPairs(strings.NewReader(`"p1 d1` + "\n"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestLoad(t *testing.T) {
	p := writeFiles(t,
		"1 0\n0 1\n1 1\n",
		"0.1\n0.2\n0.3\n",
		"p1 d1\np1 d2\np2 d1\n")

	data, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 3, data.Samples.Len())
	assert.Equal(t, 2, data.Samples.FeatureCols)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, data.Samples.Outcomes)
}

func TestLoad_RowCountMismatch(t *testing.T) {
	p := writeFiles(t,
		"1 0\n0 1\n1 1\n",
		"0.1\n0.2\n",
		"p1 d1\np1 d2\np2 d1\n")

	_, err := Load(p)
	require.Error(t, err)
	assert.True(t, errors.IsShapeMismatch(err))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(Paths{Features: filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}
