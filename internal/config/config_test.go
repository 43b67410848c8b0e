package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goconcord/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "input.data", cfg.Data.Paths.Features)
	assert.Equal(t, "output.data", cfg.Data.Paths.Outcomes)
	assert.Equal(t, "pairs.data", cfg.Data.Paths.Pairs)
	assert.Equal(t, 59, cfg.Data.Expected.Proteins)
	assert.False(t, cfg.Data.StrictCardinality)
	assert.Equal(t, 4, cfg.Evaluation.FoldConcurrency)
	assert.Equal(t, 0.5, cfg.Evaluation.MinCIndex)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PAIRS_DATA", "/data/pairs.txt")
	t.Setenv("EXPECTED_PROTEINS", "60")
	t.Setenv("STRICT_CARDINALITY", "true")
	t.Setenv("RIDGE_LAMBDA", "0.25")
	t.Setenv("DATABASE_URL", "postgres://localhost/concord")
	t.Setenv("FOLD_CONCURRENCY", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/data/pairs.txt", cfg.Data.Paths.Pairs)
	assert.Equal(t, 60, cfg.Data.Expected.Proteins)
	assert.True(t, cfg.Data.StrictCardinality)
	assert.Equal(t, 0.25, cfg.Evaluation.RidgeLambda)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, 4, cfg.Evaluation.FoldConcurrency, "unparseable values fall back to the default")
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"FOLD_CONCURRENCY": "0",
		"RIDGE_LAMBDA":     "-1",
		"EXPECTED_DRUGS":   "-3",
		"MIN_C_INDEX":      "1.5",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
