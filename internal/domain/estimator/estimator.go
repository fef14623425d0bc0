// Package estimator defines the regression contract used by prediction and
// retraining, the ridge implementation trained from feedback, and the
// atomically swappable handle to the serving model.
package estimator

import "context"

// Features is one input row. Column order is fixed: converted years, city,
// job level. Empty categorical values mean "not supplied".
type Features struct {
	Years    float64
	City     string
	JobLevel string
}

// Estimator predicts one salary per row in a single call.
type Estimator interface {
	Predict(ctx context.Context, rows []Features) ([]float64, error)
}

// Model is an estimator that can be persisted as an Artifact.
type Model interface {
	Estimator
	Artifact() Artifact
}

// Trainer fits a new model on labeled rows.
type Trainer interface {
	Fit(ctx context.Context, rows []Features, y []float64) (Model, error)
}
