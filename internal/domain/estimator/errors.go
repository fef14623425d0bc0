package estimator

import "errors"

// Sentinel kinds for estimator errors.
var (
	ErrNoTrainingData  = errors.New("no training data")
	ErrShapeMismatch   = errors.New("rows and targets differ in length")
	ErrNonPositive     = errors.New("log-target model requires positive targets")
	ErrSolve           = errors.New("ridge solve failed")
	ErrInvalidArtifact = errors.New("invalid model artifact")
	ErrNoModel         = errors.New("no model loaded")
)
