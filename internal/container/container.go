package container

import (
	"context"
	"os"

	"goconcord/adapters/excel"
	"goconcord/adapters/postgres"
	"goconcord/internal"
	"goconcord/internal/config"
	"goconcord/internal/errors"
	"goconcord/internal/migration"
	"goconcord/internal/report"
	"goconcord/internal/testkit"
	"goconcord/internal/validation"
	"goconcord/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure; nil when no database is configured
	DB *sqlx.DB

	// Reports are kept in PostgreSQL when configured, in memory otherwise
	Reports ports.ReportStore

	Orchestrator *validation.Orchestrator
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("config cannot be nil")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	c := &Container{
		Config:       cfg,
		Logger:       logger,
		Reports:      testkit.NewInMemoryReportStore(),
		Orchestrator: validation.NewOrchestrator(validation.OptionsFromConfig(cfg), logger),
	}
	return c, nil
}

// InitDatabase connects to PostgreSQL, runs migrations and switches report
// storage to the database. It is a no-op when DATABASE_URL is unset.
func (c *Container) InitDatabase(ctx context.Context) error {
	if !c.Config.Database.Enabled() {
		c.Logger.With("Container").Debug("DATABASE_URL not set, keeping reports in memory")
		return nil
	}

	db, err := postgres.Connect(ctx, c.Config.Database.URL)
	if err != nil {
		return errors.Wrap(err, "failed to initialize database")
	}
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return errors.Wrap(err, "database migration failed")
	}

	c.DB = db
	c.Reports = postgres.NewReportRepository(db)
	c.Logger.With("Container").Info("report storage: postgres")
	return nil
}

// Export writes the configured report artifacts and stores the run
func (c *Container) Export(ctx context.Context, r *report.Report) error {
	log := c.Logger.With("Export")

	if path := c.Config.Report.XLSXPath; path != "" {
		if err := excel.WriteReport(path, r); err != nil {
			return errors.Wrapf(err, "failed to write %s", path)
		}
		log.Info("wrote %s", path)
	}

	if path := c.Config.Report.HTMLPath; path != "" {
		if err := os.WriteFile(path, report.RenderHTML(r), 0o644); err != nil {
			return errors.Wrapf(err, "failed to write %s", path)
		}
		log.Info("wrote %s", path)
	}

	if err := c.Reports.Save(ctx, r); err != nil {
		return errors.Wrap(err, "failed to store report")
	}
	return nil
}

// Shutdown releases held resources
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
