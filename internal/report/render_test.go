package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goconcord/adapters/notebook"
	"goconcord/domain/dataset"
	"goconcord/domain/stats"
)

func sampleReport() *Report {
	pooled := 0.6789
	r := New()
	r.Cardinality = &dataset.Cardinality{Samples: 400, Proteins: 59, Drugs: 77, Pairs: 400}
	r.Predictor = "ridge(lambda=1)"
	r.Add("data-files-integrity", CheckPass, "400 samples loaded", "input features: 12 dimensions")
	r.Add("protein-drug-mapping", CheckWarn, "expected 60 proteins, got 59")
	r.Summaries = []stats.PolicySummary{
		{Policy: "LODO", Mean: 0.712345, StdDev: 0.1, Evaluated: 77},
		{Policy: "LOPO", Mean: 0.654321, StdDev: 0.2, Evaluated: 58, Skipped: []stats.SkippedFold{{Key: "protein=P1", Reason: "tied"}}},
		{Policy: "LOOPD", Evaluated: 0, Skipped: make([]stats.SkippedFold, 400), Pooled: &pooled},
	}
	r.Finish()
	return r
}

func TestPassed(t *testing.T) {
	r := sampleReport()
	assert.True(t, r.Passed())

	r.Add("train-test-independence", CheckFail, "LODO: test drug found in training set")
	assert.False(t, r.Passed())
	assert.Len(t, r.Failed(), 1)
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "✓ data-files-integrity: 400 samples loaded")
	assert.Contains(t, out, "    input features: 12 dimensions")
	assert.Contains(t, out, "⚠ protein-drug-mapping")
	assert.Contains(t, out, "LODO-CV C-index: 0.712 ± 0.100 (77 folds, 0 skipped)")
	assert.Contains(t, out, "LOOPD-CV C-index: undefined (0 folds evaluated, 400 skipped)")
	assert.Contains(t, out, "pooled over held-out predictions: 0.679")
	assert.Contains(t, out, "✓ ALL VALIDATION TESTS PASSED")
}

func TestRenderText_RoundTripsThroughScraper(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, sampleReport()))

	res := notebook.CheckText("report", buf.String(), 0.5)
	assert.Equal(t, notebook.StatusValidated, res.Status)
	for _, m := range res.Metrics {
		require.True(t, m.Found(), m.Label)
	}
	assert.Equal(t, 0.712, res.Metrics[0].Value)
	assert.Equal(t, 0.654, res.Metrics[1].Value)
}

func TestMetrics(t *testing.T) {
	metrics := sampleReport().Metrics()
	require.Len(t, metrics, 3)
	assert.Equal(t, notebook.Metric{Label: "LODO", State: notebook.StateFound, Value: 0.712345}, metrics[0])
	assert.Equal(t, notebook.StateNotFound, metrics[2].State)
}

func TestRenderHTML(t *testing.T) {
	page := string(RenderHTML(sampleReport()))
	assert.True(t, strings.Contains(page, "<table>"))
	assert.Contains(t, page, "<td>LODO-CV</td>")
	assert.Contains(t, page, "<title>Validation run")
}

func TestWriteJSON_KeepsFullPrecision(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleReport()))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	s, ok := decoded.Summary("LODO")
	require.True(t, ok)
	assert.Equal(t, 0.712345, s.Mean)
	_, ok = decoded.Summary("KFOLD")
	assert.False(t, ok)
}

func TestMetrics_FoundZeroSurvivesJSON(t *testing.T) {
	r := New()
	r.Summaries = []stats.PolicySummary{{Policy: "LODO", Evaluated: 3, Mean: 0}}

	raw, err := json.Marshal(r.Metrics())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"label":"LODO","state":"found","value":0}]`, string(raw))
}
