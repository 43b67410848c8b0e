package model

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"goconcord/internal/errors"
)

// RidgePredictor fits a ridge regression on the rows of a feature matrix.
// Features and outcome are centred on the training rows so the intercept is
// not penalised.
type RidgePredictor struct {
	features *mat.Dense
	lambda   float64
}

// NewRidgePredictor creates a ridge predictor over features with penalty lambda
func NewRidgePredictor(features *mat.Dense, lambda float64) (*RidgePredictor, error) {
	if features == nil {
		return nil, errors.InvalidInput("ridge predictor needs a feature matrix")
	}
	if lambda <= 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("ridge lambda must be positive, got %g", lambda))
	}
	return &RidgePredictor{features: features, lambda: lambda}, nil
}

func (r *RidgePredictor) Name() string {
	return fmt.Sprintf("ridge(lambda=%g)", r.lambda)
}

// Predict trains on the train rows and returns predictions for the test rows
func (r *RidgePredictor) Predict(ctx context.Context, train []int, trainOutcomes []float64, test []int) ([]float64, error) {
	if len(train) != len(trainOutcomes) {
		return nil, errors.ShapeMismatch(fmt.Sprintf("%d training rows but %d outcomes", len(train), len(trainOutcomes)))
	}
	if len(train) == 0 {
		return nil, errors.DegenerateInput("no training rows")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, p := r.features.Dims()
	for _, idx := range append(append([]int(nil), train...), test...) {
		if idx < 0 || idx >= rows {
			return nil, errors.ShapeMismatch(fmt.Sprintf("row %d outside feature matrix of %d rows", idx, rows))
		}
	}

	x := mat.NewDense(len(train), p, nil)
	for i, idx := range train {
		x.SetRow(i, mat.Row(nil, idx, r.features))
	}
	colMeans := make([]float64, p)
	for j := 0; j < p; j++ {
		colMeans[j] = stat.Mean(mat.Col(nil, j, x), nil)
	}
	yMean := stat.Mean(trainOutcomes, nil)

	x.Apply(func(_, j int, v float64) float64 { return v - colMeans[j] }, x)
	y := mat.NewVecDense(len(trainOutcomes), nil)
	for i, v := range trainOutcomes {
		y.SetVec(i, v-yMean)
	}

	var gram mat.SymDense
	gram.SymOuterK(1, x.T())
	for j := 0; j < p; j++ {
		gram.SetSym(j, j, gram.At(j, j)+r.lambda)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return nil, errors.InternalError("ridge normal equations are not positive definite")
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), y)
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &xty); err != nil {
		return nil, errors.Wrap(err, "ridge solve failed")
	}

	out := make([]float64, len(test))
	row := make([]float64, p)
	for i, idx := range test {
		mat.Row(row, idx, r.features)
		pred := yMean
		for j := 0; j < p; j++ {
			pred += (row[j] - colMeans[j]) * w.AtVec(j)
		}
		out[i] = pred
	}
	return out, nil
}

// MeanPredictor predicts the training mean for every test row. Every test
// pair is therefore a predicted tie, which scores as discordant.
type MeanPredictor struct{}

func (MeanPredictor) Name() string { return "mean" }

func (MeanPredictor) Predict(_ context.Context, train []int, trainOutcomes []float64, test []int) ([]float64, error) {
	if len(trainOutcomes) == 0 {
		return nil, errors.DegenerateInput("no training rows")
	}
	m := stat.Mean(trainOutcomes, nil)
	out := make([]float64, len(test))
	for i := range out {
		out[i] = m
	}
	return out, nil
}
