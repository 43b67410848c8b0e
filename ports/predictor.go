package ports

import (
	"context"
)

// PredictorPort supplies predictions for the test rows of one fold. It must
// only learn from the training rows it is given. The returned slice is
// aligned with test.
type PredictorPort interface {
	Name() string
	Predict(ctx context.Context, train []int, trainOutcomes []float64, test []int) ([]float64, error)
}
