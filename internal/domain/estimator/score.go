package estimator

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MAE returns the mean absolute error between y and pred.
func MAE(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	return floats.Distance(y, pred, 1) / float64(len(y))
}

// R2 returns the coefficient of determination. A constant target scores 1
// when predicted exactly and 0 otherwise.
func R2(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	if stat.Variance(y, nil) == 0 || len(y) == 1 {
		if floats.Distance(y, pred, 1) == 0 {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(pred, y, nil)
}

// Score predicts rows with est and returns MAE and R² against y.
func Score(ctx context.Context, est Estimator, rows []Features, y []float64) (mae, r2 float64, err error) {
	pred, err := est.Predict(ctx, rows)
	if err != nil {
		return 0, 0, err
	}
	if len(pred) != len(y) {
		return 0, 0, fmt.Errorf("%w: %d predictions for %d targets", ErrShapeMismatch, len(pred), len(y))
	}
	return MAE(y, pred), R2(y, pred), nil
}

// Scorecard records how a model scored on its training set.
type Scorecard struct {
	MAE      float64 `json:"mae"`
	R2       float64 `json:"r2"`
	Examples int     `json:"training_examples"`
}
