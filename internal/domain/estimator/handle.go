package estimator

import (
	"sync/atomic"
	"time"
)

// Snapshot is an immutable pairing of a serving model and its version tag.
type Snapshot struct {
	Model    Estimator
	Version  string
	LoadedAt time.Time
}

// Handle publishes the serving model. Readers call Load once per operation
// and use that snapshot throughout, so a promotion never mixes two models
// inside one batch.
type Handle struct {
	current atomic.Pointer[Snapshot]
}

// NewHandle returns an empty handle.
func NewHandle() *Handle {
	return &Handle{}
}

// Load returns the current snapshot, or nil when no model is installed.
func (h *Handle) Load() *Snapshot {
	return h.current.Load()
}

// Swap installs model under version and returns the previous snapshot.
func (h *Handle) Swap(model Estimator, version string) *Snapshot {
	return h.current.Swap(&Snapshot{Model: model, Version: version, LoadedAt: time.Now()})
}

// Loaded reports whether a model is installed.
func (h *Handle) Loaded() bool {
	return h.current.Load() != nil
}
