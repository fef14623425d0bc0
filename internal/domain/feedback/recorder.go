// Package feedback attaches ground-truth salaries to recorded predictions.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okian/salaryd/internal/domain/history"
)

// Recorder validates and stores feedback.
type Recorder struct {
	store history.Store
}

// NewRecorder returns a recorder writing through store.
func NewRecorder(store history.Store) *Recorder {
	return &Recorder{store: store}
}

// Attach stores actual against the record id and returns the updated record.
func (r *Recorder) Attach(ctx context.Context, id int64, actual []float64) (history.Record, error) {
	if len(actual) == 0 {
		return history.Record{}, fmt.Errorf("%w: empty list", ErrInvalidSalary)
	}
	for i, v := range actual {
		if !(v > 0) || math.IsInf(v, 0) {
			return history.Record{}, fmt.Errorf("%w: actual_salary[%d]=%v", ErrInvalidSalary, i, v)
		}
	}

	rec, err := r.store.Get(ctx, id)
	if err != nil {
		return history.Record{}, mapStoreError(id, err)
	}
	if len(actual) != rec.DataCount {
		return history.Record{}, fmt.Errorf("%w: got %d, want %d", ErrCardinalityMismatch, len(actual), rec.DataCount)
	}
	if rec.HasFeedback() {
		return history.Record{}, fmt.Errorf("%w: id %d", ErrAlreadySubmitted, id)
	}

	updated, err := r.store.UpdateActualSalary(ctx, id, actual)
	if err != nil {
		return history.Record{}, mapStoreError(id, err)
	}
	return updated, nil
}

func mapStoreError(id int64, err error) error {
	switch {
	case errors.Is(err, history.ErrNotFound):
		return fmt.Errorf("%w: id %d: %w", ErrNotFound, id, err)
	case errors.Is(err, history.ErrFeedbackExists):
		return fmt.Errorf("%w: id %d: %w", ErrAlreadySubmitted, id, err)
	default:
		return err
	}
}
