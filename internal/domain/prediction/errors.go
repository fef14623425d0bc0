package prediction

import "errors"

// ErrPredictionFailure wraps any estimator-level failure. Callers log the
// wrapped detail and surface a generic internal error.
var ErrPredictionFailure = errors.New("prediction failed")
