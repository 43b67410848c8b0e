package evaluation

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"goconcord/domain/crossval"
	"goconcord/domain/dataset"
	"goconcord/domain/stats"
	"goconcord/internal"
	"goconcord/internal/errors"
	"goconcord/ports"
)

// Evaluator runs the aggregate protocol: for every fold of a policy it asks
// the predictor for test-row predictions trained on that fold's train rows,
// scores them with the C-index and averages across folds.
type Evaluator struct {
	predictor ports.PredictorPort
	logger    *internal.Logger
	sem       *semaphore.Weighted
}

// NewEvaluator creates an evaluator running at most concurrency folds at
// once. A non-positive concurrency uses GOMAXPROCS.
func NewEvaluator(predictor ports.PredictorPort, logger *internal.Logger, concurrency int) *Evaluator {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Evaluator{
		predictor: predictor,
		logger:    logger.With("Evaluator"),
		sem:       semaphore.NewWeighted(int64(concurrency)),
	}
}

type foldOutcome struct {
	score       stats.FoldScore
	predictions []float64
	skipped     *stats.SkippedFold
}

// EvaluatePolicy evaluates every fold of policy. Folds whose test rows have
// no comparable pair are excluded from the mean with a warning; any other
// failure aborts the policy.
func (e *Evaluator) EvaluatePolicy(ctx context.Context, set *dataset.SampleSet, policy crossval.Policy) (stats.PolicySummary, error) {
	start := time.Now()
	folds := crossval.Folds(set.Pairs, policy)
	if err := crossval.CheckFolds(set.Pairs, policy, folds); err != nil {
		return stats.PolicySummary{Policy: policy.String()}, errors.Wrapf(err, "%s partition check failed", policy)
	}

	outcomes := make([]foldOutcome, len(folds))
	g, gctx := errgroup.WithContext(ctx)
	for i := range folds {
		if err := e.sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer e.sem.Release(1)
			out, err := e.evaluateFold(gctx, set, folds[i])
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats.PolicySummary{Policy: policy.String()}, err
	}
	if err := ctx.Err(); err != nil {
		return stats.PolicySummary{Policy: policy.String()}, err
	}

	var scores []stats.FoldScore
	var skipped []stats.SkippedFold
	for _, out := range outcomes {
		if out.skipped != nil {
			skipped = append(skipped, *out.skipped)
			continue
		}
		scores = append(scores, out.score)
	}

	summary, err := stats.Summarize(policy.String(), scores, skipped)
	pooled := pooledCIndex(set, folds, outcomes)
	summary.Pooled = pooled
	if err != nil {
		e.logger.Warn("%s: no fold produced a defined C-index (%d skipped)", summary.Label(), len(skipped))
		return summary, err
	}

	e.logger.Info("%s: mean C-index %.3f over %d folds (%d skipped) in %v",
		summary.Label(), summary.Mean, summary.Evaluated, len(skipped), time.Since(start))
	return summary, nil
}

func (e *Evaluator) evaluateFold(ctx context.Context, set *dataset.SampleSet, fold crossval.Fold) (foldOutcome, error) {
	key := fold.Key()
	if len(fold.Train) == 0 {
		return e.skip(key, errors.DegenerateInput("empty training set")), nil
	}

	predictions, err := e.predictor.Predict(ctx, fold.Train, set.OutcomesAt(fold.Train), fold.Test)
	if err != nil {
		return foldOutcome{}, errors.Wrapf(err, "%s: predictor %s failed", key, e.predictor.Name())
	}
	if len(predictions) != len(fold.Test) {
		return foldOutcome{}, errors.ShapeMismatch(fmt.Sprintf(
			"%s: predictor returned %d predictions for %d test rows", key, len(predictions), len(fold.Test)))
	}

	yTrue := set.OutcomesAt(fold.Test)
	counts, err := stats.Concordance(yTrue, predictions)
	if err != nil {
		return foldOutcome{}, errors.Wrapf(err, "%s", key)
	}
	c, err := counts.CIndex()
	if err != nil {
		if errors.IsDegenerateInput(err) {
			out := e.skip(key, err)
			out.predictions = predictions
			return out, nil
		}
		return foldOutcome{}, errors.Wrapf(err, "%s", key)
	}

	e.logger.Debug("%s: C-index %.4f (train=%d test=%d)", key, c, len(fold.Train), len(fold.Test))
	if e.logger.GetLevel() >= internal.LogLevelTrace {
		e.logger.Trace("%s: %+v over predictions %v", key, counts, predictions)
	}
	return foldOutcome{
		score: stats.FoldScore{
			Key:       key,
			TrainSize: len(fold.Train),
			TestSize:  len(fold.Test),
			CIndex:    c,
			Counts:    counts,
		},
		predictions: predictions,
	}, nil
}

func (e *Evaluator) skip(key string, reason error) foldOutcome {
	e.logger.Warn("%s excluded from mean: %v", key, reason)
	return foldOutcome{skipped: &stats.SkippedFold{Key: key, Reason: reason.Error()}}
}

// pooledCIndex scores every held-out prediction together. Each row appears
// in the test set of at most one fold per policy.
func pooledCIndex(set *dataset.SampleSet, folds []crossval.Fold, outcomes []foldOutcome) *float64 {
	var yTrue, yPred []float64
	for i, f := range folds {
		if outcomes[i].predictions == nil {
			continue
		}
		yTrue = append(yTrue, set.OutcomesAt(f.Test)...)
		yPred = append(yPred, outcomes[i].predictions...)
	}
	c, err := stats.CIndex(yTrue, yPred)
	if err != nil {
		return nil
	}
	return &c
}

// EvaluateAll evaluates LODO, LOPO and LOOPD in that order. A policy that
// fails only because every fold was degenerate is returned with its skips
// and does not stop the others.
func (e *Evaluator) EvaluateAll(ctx context.Context, set *dataset.SampleSet) ([]stats.PolicySummary, error) {
	summaries := make([]stats.PolicySummary, 0, 3)
	for _, p := range crossval.AllPolicies() {
		summary, err := e.EvaluatePolicy(ctx, set, p)
		if err != nil && !errors.IsDegenerateInput(err) {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
