package report

import (
	"time"

	"goconcord/adapters/notebook"
	"goconcord/domain/core"
	"goconcord/domain/dataset"
	"goconcord/domain/stats"
)

// CheckStatus is the outcome of one validation check
type CheckStatus string

const (
	CheckPass CheckStatus = "pass"
	CheckFail CheckStatus = "fail"
	CheckWarn CheckStatus = "warn"
	CheckSkip CheckStatus = "skip"
)

// CheckResult is one named validation check
type CheckResult struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Detail  string      `json:"detail"`
	Details []string    `json:"details,omitempty"`
}

// Report is the full result of a validation run
type Report struct {
	RunID       core.RunID            `json:"run_id"`
	StartedAt   time.Time             `json:"started_at"`
	FinishedAt  time.Time             `json:"finished_at"`
	Cardinality *dataset.Cardinality  `json:"cardinality,omitempty"`
	Predictor   string                `json:"predictor,omitempty"`
	Checks      []CheckResult         `json:"checks"`
	Summaries   []stats.PolicySummary `json:"summaries,omitempty"`
	Notebook    *notebook.Result      `json:"notebook,omitempty"`
}

// New starts an empty report
func New() *Report {
	return &Report{
		RunID:     core.NewRunID(),
		StartedAt: time.Now().UTC(),
		Checks:    make([]CheckResult, 0),
	}
}

// Add appends a check result
func (r *Report) Add(name string, status CheckStatus, detail string, details ...string) {
	r.Checks = append(r.Checks, CheckResult{Name: name, Status: status, Detail: detail, Details: details})
}

// Finish stamps the end time
func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// Passed is false when any check failed. Warnings and skips do not fail a run.
func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if c.Status == CheckFail {
			return false
		}
	}
	return true
}

// Failed returns the failed checks
func (r *Report) Failed() []CheckResult {
	var out []CheckResult
	for _, c := range r.Checks {
		if c.Status == CheckFail {
			out = append(out, c)
		}
	}
	return out
}

// Summary returns the summary of a policy, if it was evaluated
func (r *Report) Summary(policy string) (stats.PolicySummary, bool) {
	for _, s := range r.Summaries {
		if s.Policy == policy {
			return s, true
		}
	}
	return stats.PolicySummary{}, false
}

// Metrics emits the cross-validation results as labelled values so that
// consumers do not need to scrape rendered text.
func (r *Report) Metrics() []notebook.Metric {
	out := make([]notebook.Metric, 0, len(r.Summaries))
	for _, s := range r.Summaries {
		if s.Evaluated == 0 {
			out = append(out, notebook.Metric{Label: s.Policy, State: notebook.StateNotFound, Reason: "no fold produced a defined C-index"})
			continue
		}
		out = append(out, notebook.Metric{Label: s.Policy, State: notebook.StateFound, Value: s.Mean})
	}
	return out
}
