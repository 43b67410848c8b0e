package validation

import (
	"context"
	"fmt"
	"time"

	"goconcord/adapters/datafile"
	"goconcord/adapters/model"
	"goconcord/adapters/notebook"
	"goconcord/domain/crossval"
	"goconcord/domain/dataset"
	"goconcord/internal"
	"goconcord/internal/config"
	"goconcord/internal/evaluation"
	"goconcord/internal/report"
	"goconcord/ports"
)

// Check names, in the order they run
const (
	CheckDataFiles       = "data-files-integrity"
	CheckMapping         = "protein-drug-mapping"
	CheckFoldCounts      = "cv-fold-counts"
	CheckIndependence    = "train-test-independence"
	CheckCIndex          = "c-index-calculation"
	CheckCrossValidation = "cross-validation"
	CheckNotebook        = "notebook-results"
)

// Options configures a validation run
type Options struct {
	Paths             datafile.Paths
	Expected          dataset.Expectations
	StrictCardinality bool

	// EvaluateModel runs the aggregate protocol with Predictor, or with a
	// ridge model over the loaded features when Predictor is nil.
	EvaluateModel   bool
	Predictor       ports.PredictorPort
	RidgeLambda     float64
	FoldConcurrency int

	// NotebookPath is scraped when non-empty
	NotebookPath string
	MinCIndex    float64
	SelfTestSeed int64
}

// OptionsFromConfig maps application configuration onto run options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Paths:             cfg.Data.Paths,
		Expected:          cfg.Data.Expected,
		StrictCardinality: cfg.Data.StrictCardinality,
		EvaluateModel:     cfg.Evaluation.EvaluateModel,
		RidgeLambda:       cfg.Evaluation.RidgeLambda,
		FoldConcurrency:   cfg.Evaluation.FoldConcurrency,
		NotebookPath:      cfg.Data.NotebookPath,
		MinCIndex:         cfg.Evaluation.MinCIndex,
		SelfTestSeed:      cfg.Evaluation.SelfTestSeed,
	}
}

// Orchestrator runs the validation checks and collects them into a report
type Orchestrator struct {
	opts   Options
	logger *internal.Logger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(opts Options, logger *internal.Logger) *Orchestrator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Orchestrator{opts: opts, logger: logger.With("Validation")}
}

// Run executes every check. Check failures are recorded in the report; the
// returned error is non-nil only when ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) (*report.Report, error) {
	r := report.New()
	defer r.Finish()
	start := time.Now()
	o.logger.Info("starting run %s", r.RunID)

	data := o.checkDataFiles(r)
	if data != nil {
		set := data.Samples
		c := set.Cardinality()
		r.Cardinality = &c
		o.checkMapping(r, set)
		folds := o.checkFoldCounts(r, set.Pairs)
		o.checkIndependence(r, set.Pairs, folds)
	} else {
		for _, name := range []string{CheckMapping, CheckFoldCounts, CheckIndependence} {
			r.Add(name, report.CheckSkip, "data files unavailable")
		}
	}

	o.checkCIndex(r)

	if o.opts.EvaluateModel {
		if data == nil {
			r.Add(CheckCrossValidation, report.CheckSkip, "data files unavailable")
		} else if err := o.crossValidate(ctx, r, data); err != nil {
			return r, err
		}
	}

	if o.opts.NotebookPath != "" {
		o.checkNotebook(r)
	}

	if err := ctx.Err(); err != nil {
		return r, err
	}
	o.logger.Info("run %s finished in %v: %d check(s), %d failed",
		r.RunID, time.Since(start), len(r.Checks), len(r.Failed()))
	return r, nil
}

// cardinalityStatus maps an advisory divergence onto warn, or fail in strict mode
func (o *Orchestrator) cardinalityStatus() report.CheckStatus {
	if o.opts.StrictCardinality {
		return report.CheckFail
	}
	return report.CheckWarn
}

func (o *Orchestrator) checkDataFiles(r *report.Report) *datafile.Data {
	data, err := datafile.Load(o.opts.Paths)
	if err != nil {
		o.logger.Error("data loading failed: %v", err)
		r.Add(CheckDataFiles, report.CheckFail, fmt.Sprintf("data loading failed: %v", err))
		return nil
	}

	n := data.Samples.Len()
	dims := fmt.Sprintf("input features: %d dimensions", data.Samples.FeatureCols)
	if want := o.opts.Expected.Samples; want > 0 && n != want {
		msg := fmt.Sprintf("expected %d samples, got %d", want, n)
		o.logger.Warn("%s", msg)
		r.Add(CheckDataFiles, o.cardinalityStatus(), msg, dims)
		return data
	}
	r.Add(CheckDataFiles, report.CheckPass, fmt.Sprintf("data files loaded successfully: %d samples", n), dims)
	return data
}

func (o *Orchestrator) checkMapping(r *report.Report, set *dataset.SampleSet) {
	// sample count was already judged by the integrity check
	exp := o.opts.Expected
	exp.Samples = set.Len()

	c := set.Cardinality()
	counts := []string{
		fmt.Sprintf("protein count: %d", c.Proteins),
		fmt.Sprintf("drug count: %d", c.Drugs),
	}
	if err := set.CheckCardinality(exp); err != nil {
		o.logger.Warn("%v", err)
		r.Add(CheckMapping, o.cardinalityStatus(), err.Error(), counts...)
		return
	}
	r.Add(CheckMapping, report.CheckPass, fmt.Sprintf("%d proteins, %d drugs", c.Proteins, c.Drugs), counts...)
}

func (o *Orchestrator) checkFoldCounts(r *report.Report, table dataset.PairingTable) map[crossval.Policy][]crossval.Fold {
	folds := make(map[crossval.Policy][]crossval.Fold, 3)
	var details, problems []string
	for _, p := range crossval.AllPolicies() {
		fs := crossval.Folds(table, p)
		folds[p] = fs
		want := crossval.ExpectedFoldCount(table, p)
		if len(fs) != want {
			problems = append(problems, fmt.Sprintf("%s should have %d folds, got %d", p, want, len(fs)))
			continue
		}
		if p == crossval.LOOPD {
			details = append(details, fmt.Sprintf("LOOPD will test %d unique protein-drug pairs", len(fs)))
		} else {
			details = append(details, fmt.Sprintf("%s will have %d folds", p, len(fs)))
		}
	}
	if len(problems) > 0 {
		r.Add(CheckFoldCounts, report.CheckFail, problems[0], append(problems[1:], details...)...)
		return folds
	}
	r.Add(CheckFoldCounts, report.CheckPass, "fold counts match the distinct keys", details...)
	return folds
}

func (o *Orchestrator) checkIndependence(r *report.Report, table dataset.PairingTable, folds map[crossval.Policy][]crossval.Fold) {
	var details []string
	var leaks []string
	for _, p := range crossval.AllPolicies() {
		fs := folds[p]
		var leak error
		for _, f := range fs {
			if err := crossval.CheckFold(table, f); err != nil {
				leak = err
				break
			}
		}
		if leak != nil {
			o.logger.Error("%v", leak)
			leaks = append(leaks, leak.Error())
			continue
		}
		details = append(details, fmt.Sprintf("%s maintains train-test independence (%d folds)", p, len(fs)))
	}
	if len(leaks) > 0 {
		r.Add(CheckIndependence, report.CheckFail, leaks[0], append(leaks[1:], details...)...)
		return
	}
	r.Add(CheckIndependence, report.CheckPass, "no held-out key appears in any training set", details...)
}

func (o *Orchestrator) checkCIndex(r *report.Report) {
	res := SelfTest(o.opts.SelfTestSeed)
	if res.Err != nil {
		r.Add(CheckCIndex, report.CheckFail, res.Err.Error())
		return
	}
	r.Add(CheckCIndex, report.CheckPass, "C-index calculation correct",
		"perfect predictions: 1.000",
		fmt.Sprintf("random predictions: %.3f", res.Random))
}

func (o *Orchestrator) crossValidate(ctx context.Context, r *report.Report, data *datafile.Data) error {
	predictor := o.opts.Predictor
	if predictor == nil {
		ridge, err := model.NewRidgePredictor(data.Features, o.opts.RidgeLambda)
		if err != nil {
			r.Add(CheckCrossValidation, report.CheckFail, err.Error())
			return nil
		}
		predictor = ridge
	}
	r.Predictor = predictor.Name()

	ev := evaluation.NewEvaluator(predictor, o.logger, o.opts.FoldConcurrency)
	summaries, err := ev.EvaluateAll(ctx, data.Samples)
	r.Summaries = summaries
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		r.Add(CheckCrossValidation, report.CheckFail, err.Error())
		return nil
	}

	status := report.CheckPass
	var details []string
	for _, s := range summaries {
		if s.Evaluated == 0 {
			status = report.CheckWarn
			details = append(details, fmt.Sprintf("%s: undefined, all %d folds degenerate", s.Label(), len(s.Skipped)))
			continue
		}
		details = append(details, fmt.Sprintf("%s: %.3f over %d folds", s.Label(), s.Mean, s.Evaluated))
	}
	r.Add(CheckCrossValidation, status, fmt.Sprintf("%d policies evaluated with %s", len(summaries), predictor.Name()), details...)
	return nil
}

func (o *Orchestrator) checkNotebook(r *report.Report) {
	res := notebook.CheckNotebook(o.opts.NotebookPath, o.opts.MinCIndex)
	r.Notebook = &res

	var details []string
	for _, m := range res.Metrics {
		if m.Found() {
			details = append(details, fmt.Sprintf("%s C-index found: %g", m.Label, m.Value))
		}
	}
	switch res.Status {
	case notebook.StatusValidated:
		r.Add(CheckNotebook, report.CheckPass, "notebook results validated", details...)
	case notebook.StatusFailed:
		r.Add(CheckNotebook, report.CheckFail, res.Reason, details...)
	default:
		o.logger.Warn("could not validate notebook: %s", res.Reason)
		r.Add(CheckNotebook, report.CheckWarn, "could not validate: "+res.Reason, details...)
	}
}
