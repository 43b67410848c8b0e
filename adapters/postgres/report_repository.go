package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"goconcord/domain/core"
	"goconcord/internal/errors"
	"goconcord/internal/report"
	"goconcord/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ReportRepositoryImpl implements ReportStore for PostgreSQL. The full
// report is kept as JSONB; fold scores are also written row by row so they
// can be queried across runs.
type ReportRepositoryImpl struct {
	db *sqlx.DB
}

// NewReportRepository creates a new PostgreSQL report repository
func NewReportRepository(db *sqlx.DB) ports.ReportStore {
	return &ReportRepositoryImpl{db: db}
}

// Connect opens a PostgreSQL connection with lib/pq and verifies it
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to connect: %v", err))
	}
	return db, nil
}

// FoldRow is one row of the fold_scores table
type FoldRow struct {
	RunID         string          `db:"run_id"`
	Policy        string          `db:"policy"`
	FoldKey       string          `db:"fold_key"`
	TrainSize     int             `db:"train_size"`
	TestSize      int             `db:"test_size"`
	CIndex        sql.NullFloat64 `db:"c_index"`
	SkippedReason sql.NullString  `db:"skipped_reason"`
}

// FoldRows flattens the evaluated and skipped folds of a report
func FoldRows(r *report.Report) []FoldRow {
	var rows []FoldRow
	for _, s := range r.Summaries {
		for _, f := range s.Folds {
			rows = append(rows, FoldRow{
				RunID:     r.RunID.String(),
				Policy:    s.Policy,
				FoldKey:   f.Key,
				TrainSize: f.TrainSize,
				TestSize:  f.TestSize,
				CIndex:    sql.NullFloat64{Float64: f.CIndex, Valid: true},
			})
		}
		for _, sk := range s.Skipped {
			rows = append(rows, FoldRow{
				RunID:         r.RunID.String(),
				Policy:        s.Policy,
				FoldKey:       sk.Key,
				SkippedReason: sql.NullString{String: sk.Reason, Valid: true},
			})
		}
	}
	return rows
}

// Save writes a run and its fold scores in one transaction
func (r *ReportRepositoryImpl) Save(ctx context.Context, rep *report.Report) error {
	payload, err := json.Marshal(rep)
	if err != nil {
		return errors.Wrap(err, "failed to encode report")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to begin transaction: %v", err))
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO validation_runs (id, started_at, finished_at, passed, predictor, report)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			passed = EXCLUDED.passed,
			predictor = EXCLUDED.predictor,
			report = EXCLUDED.report
	`, rep.RunID.String(), rep.StartedAt, rep.FinishedAt, rep.Passed(), rep.Predictor, payload)
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to save run %s: %v", rep.RunID, err))
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM fold_scores WHERE run_id = $1`, rep.RunID.String()); err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to clear fold scores: %v", err))
	}
	if rows := FoldRows(rep); len(rows) > 0 {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO fold_scores (run_id, policy, fold_key, train_size, test_size, c_index, skipped_reason)
			VALUES (:run_id, :policy, :fold_key, :train_size, :test_size, :c_index, :skipped_reason)
		`, rows)
		if err != nil {
			return errors.DatabaseError(fmt.Sprintf("failed to save fold scores: %v", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to commit run %s: %v", rep.RunID, err))
	}
	return nil
}

// Get retrieves a run by its ID
func (r *ReportRepositoryImpl) Get(ctx context.Context, runID core.RunID) (*report.Report, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload, `
		SELECT report
		FROM validation_runs
		WHERE id = $1
	`, runID.String())
	return decode(payload, err, fmt.Sprintf("run %s", runID))
}

// Latest retrieves the most recently started run
func (r *ReportRepositoryImpl) Latest(ctx context.Context) (*report.Report, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload, `
		SELECT report
		FROM validation_runs
		ORDER BY started_at DESC
		LIMIT 1
	`)
	return decode(payload, err, "validation run")
}

func decode(payload []byte, err error, notFound string) (*report.Report, error) {
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound(notFound)
	}
	if err != nil {
		return nil, errors.DatabaseError(err.Error())
	}
	var rep report.Report
	if err := json.Unmarshal(payload, &rep); err != nil {
		return nil, errors.Wrap(err, "failed to decode stored report")
	}
	return &rep, nil
}
