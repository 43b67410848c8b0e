package testkit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"goconcord/adapters/datafile"
	"goconcord/domain/core"
	"goconcord/internal/errors"
	"goconcord/internal/report"
	"goconcord/ports"
)

// InMemoryReportStore implements ReportStore with in-memory storage. It
// backs the API and CLI when no database is configured.
type InMemoryReportStore struct {
	reports map[core.RunID]*report.Report
	order   []core.RunID
	mu      sync.RWMutex
}

var _ ports.ReportStore = (*InMemoryReportStore)(nil)

func NewInMemoryReportStore() *InMemoryReportStore {
	return &InMemoryReportStore{reports: make(map[core.RunID]*report.Report)}
}

func (s *InMemoryReportStore) Save(ctx context.Context, r *report.Report) error {
	if r == nil {
		return errors.InvalidInput("nil report")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[r.RunID]; !ok {
		s.order = append(s.order, r.RunID)
	}
	s.reports[r.RunID] = r
	return nil
}

func (s *InMemoryReportStore) Get(ctx context.Context, runID core.RunID) (*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[runID]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("run %s", runID))
	}
	return r, nil
}

func (s *InMemoryReportStore) Latest(ctx context.Context) (*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return nil, errors.NotFound("validation run")
	}
	return s.reports[s.order[len(s.order)-1]], nil
}

// Grid describes a synthetic experiment where every protein is paired with
// every drug once. The outcome rises with the protein index and the drug
// index so that a linear model ranks held-out rows well.
type Grid struct {
	Proteins int
	Drugs    int
}

// Rows is the number of samples in the grid
func (g Grid) Rows() int {
	return g.Proteins * g.Drugs
}

// Write lays out input.data, output.data and pairs.data under dir
func (g Grid) Write(dir string) (datafile.Paths, error) {
	var features, outcomes, pairs strings.Builder
	row := 0
	for p := 1; p <= g.Proteins; p++ {
		for d := 1; d <= g.Drugs; d++ {
			x1 := float64(p) + 0.1*float64(d)
			x2 := float64(d) - 0.05*float64(row%3)
			fmt.Fprintf(&features, "%g %g\n", x1, x2)
			fmt.Fprintf(&outcomes, "%g\n", 2*x1+x2+0.01*float64(row%5))
			fmt.Fprintf(&pairs, "\"P%d\" \"D%d\"\n", p, d)
			row++
		}
	}

	paths := datafile.Paths{
		Features: filepath.Join(dir, "input.data"),
		Outcomes: filepath.Join(dir, "output.data"),
		Pairs:    filepath.Join(dir, "pairs.data"),
	}
	files := map[string]string{
		paths.Features: features.String(),
		paths.Outcomes: outcomes.String(),
		paths.Pairs:    pairs.String(),
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return datafile.Paths{}, errors.Wrapf(err, "failed to write %s", path)
		}
	}
	return paths, nil
}
