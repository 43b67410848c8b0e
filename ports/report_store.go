package ports

import (
	"context"

	"goconcord/domain/core"
	"goconcord/internal/report"
)

// ReportStore persists validation runs
type ReportStore interface {
	Save(ctx context.Context, r *report.Report) error
	Get(ctx context.Context, runID core.RunID) (*report.Report, error)
	Latest(ctx context.Context) (*report.Report, error)
}
