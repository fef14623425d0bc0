package retrain

import "errors"

var (
	// ErrNoSource is returned when the engine has no feedback source.
	ErrNoSource = errors.New("retrain: no feedback source")
	// ErrNoModelStore is returned when the engine has no model store.
	ErrNoModelStore = errors.New("retrain: no model store")
	// ErrInProgress is returned when a run is already executing.
	ErrInProgress = errors.New("retraining already in progress")
)
