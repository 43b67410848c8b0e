package migration

import (
	"context"

	"goconcord/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createValidationRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create validation_runs table")
	}

	if err := r.createFoldScoresTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create fold_scores table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

// Statements lists the DDL in execution order
func (r *MigrationRunner) Statements() []string {
	return []string{validationRunsDDL, foldScoresDDL, indexesDDL}
}

const validationRunsDDL = `
		CREATE TABLE IF NOT EXISTS validation_runs (
			id UUID PRIMARY KEY,
			started_at TIMESTAMP WITH TIME ZONE NOT NULL,
			finished_at TIMESTAMP WITH TIME ZONE,
			passed BOOLEAN NOT NULL,
			predictor VARCHAR(255),
			report JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`

const foldScoresDDL = `
		CREATE TABLE IF NOT EXISTS fold_scores (
			run_id UUID NOT NULL REFERENCES validation_runs(id) ON DELETE CASCADE,
			policy VARCHAR(16) NOT NULL,
			fold_key TEXT NOT NULL,
			train_size INTEGER NOT NULL,
			test_size INTEGER NOT NULL,
			c_index DOUBLE PRECISION,
			skipped_reason TEXT,
			PRIMARY KEY (run_id, policy, fold_key)
		)
	`

const indexesDDL = `
		CREATE INDEX IF NOT EXISTS idx_validation_runs_started_at ON validation_runs(started_at DESC)
	`

func (r *MigrationRunner) createValidationRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, validationRunsDDL)
	return err
}

func (r *MigrationRunner) createFoldScoresTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, foldScoresDDL)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, indexesDDL)
	return err
}
