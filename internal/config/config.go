package config

import (
	"os"
	"strconv"

	"goconcord/adapters/datafile"
	"goconcord/domain/dataset"
	"goconcord/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Data       DataConfig
	Evaluation EvaluationConfig
	Report     ReportConfig
	Database   DatabaseConfig
	Server     ServerConfig
	LogLevel   string
}

// DataConfig holds the experiment's input files and expected sizes
type DataConfig struct {
	Paths             datafile.Paths
	NotebookPath      string
	Expected          dataset.Expectations
	StrictCardinality bool
}

// EvaluationConfig holds cross-validation settings
type EvaluationConfig struct {
	FoldConcurrency int
	RidgeLambda     float64
	EvaluateModel   bool
	MinCIndex       float64
	SelfTestSeed    int64
}

// ReportConfig holds report export targets. Empty paths disable the export.
type ReportConfig struct {
	XLSXPath string
	HTMLPath string
}

// DatabaseConfig holds database connection settings. An empty URL disables persistence.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether reports should be persisted
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Data:       *loadDataConfig(),
		Evaluation: *loadEvaluationConfig(),
		Report: ReportConfig{
			XLSXPath: getEnvOrDefault("REPORT_XLSX", ""),
			HTMLPath: getEnvOrDefault("REPORT_HTML", ""),
		},
		Database: DatabaseConfig{URL: getEnvOrDefault("DATABASE_URL", "")},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadDataConfig() *DataConfig {
	defaults := dataset.DefaultExpectations()
	paths := datafile.DefaultPaths()
	return &DataConfig{
		Paths: datafile.Paths{
			Features: getEnvOrDefault("INPUT_DATA", paths.Features),
			Outcomes: getEnvOrDefault("OUTPUT_DATA", paths.Outcomes),
			Pairs:    getEnvOrDefault("PAIRS_DATA", paths.Pairs),
		},
		NotebookPath: getEnvOrDefault("NOTEBOOK_PATH", "executed_notebook.ipynb"),
		Expected: dataset.Expectations{
			Samples:  getEnvIntOrDefault("EXPECTED_SAMPLES", defaults.Samples),
			Proteins: getEnvIntOrDefault("EXPECTED_PROTEINS", defaults.Proteins),
			Drugs:    getEnvIntOrDefault("EXPECTED_DRUGS", defaults.Drugs),
		},
		StrictCardinality: getEnvBoolOrDefault("STRICT_CARDINALITY", false),
	}
}

func loadEvaluationConfig() *EvaluationConfig {
	return &EvaluationConfig{
		FoldConcurrency: getEnvIntOrDefault("FOLD_CONCURRENCY", 4),
		RidgeLambda:     getEnvFloatOrDefault("RIDGE_LAMBDA", 1.0),
		EvaluateModel:   getEnvBoolOrDefault("EVALUATE_MODEL", true),
		MinCIndex:       getEnvFloatOrDefault("MIN_C_INDEX", 0.5),
		SelfTestSeed:    int64(getEnvIntOrDefault("SELFTEST_SEED", 42)),
	}
}

func validateConfig(config *Config) error {
	if config.Data.Paths.Features == "" || config.Data.Paths.Outcomes == "" || config.Data.Paths.Pairs == "" {
		return errors.ConfigInvalid("data file paths must not be empty")
	}
	exp := config.Data.Expected
	if exp.Samples <= 0 || exp.Proteins <= 0 || exp.Drugs <= 0 {
		return errors.ConfigInvalid("expected cardinalities must be positive")
	}
	if config.Evaluation.FoldConcurrency < 1 {
		return errors.ConfigInvalid("FOLD_CONCURRENCY must be at least 1")
	}
	if config.Evaluation.RidgeLambda <= 0 {
		return errors.ConfigInvalid("RIDGE_LAMBDA must be positive")
	}
	if m := config.Evaluation.MinCIndex; m < 0 || m > 1 {
		return errors.ConfigInvalid("MIN_C_INDEX must be within [0, 1]")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
