// Package prediction turns a validated batch into salary predictions.
package prediction

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/salaryd/internal/domain/batch"
	"github.com/okian/salaryd/internal/domain/estimator"
	"github.com/okian/salaryd/internal/domain/experience"
)

// salaryScale rounds predictions to 2 decimal digits.
const salaryScale = 1e2

// Result is the structured output of one batch. All slices have the batch
// length; City and JobLevel are nil when the batch did not carry them.
type Result struct {
	InputYears      []float64 `json:"input_years"`
	ConvertedYears  []float64 `json:"converted_years"`
	City            []string  `json:"city,omitempty"`
	JobLevel        []string  `json:"job_level,omitempty"`
	PredictedSalary []float64 `json:"predicted_salary"`
	Message         string    `json:"message"`
}

// Len returns the number of predictions in r.
func (r Result) Len() int { return len(r.InputYears) }

// Predict converts b through the experience codec, runs est once over the
// whole batch and rounds every prediction to 2 decimals.
func Predict(ctx context.Context, est estimator.Estimator, b batch.Batch) (Result, error) {
	if est == nil {
		return Result{}, fmt.Errorf("%w: %w", ErrPredictionFailure, estimator.ErrNoModel)
	}

	n := b.Len()
	res := Result{
		InputYears:     make([]float64, n),
		ConvertedYears: make([]float64, n),
	}
	if b.HasCity {
		res.City = make([]string, n)
	}
	if b.HasJobLevel {
		res.JobLevel = make([]string, n)
	}

	rows := make([]estimator.Features, n)
	for i, c := range b.Candidates {
		years, err := experience.DecodeLiteral(c.Raw)
		if err != nil {
			return Result{}, err
		}
		res.InputYears[i] = c.Value
		res.ConvertedYears[i] = years
		rows[i] = estimator.Features{Years: years, City: c.City, JobLevel: c.JobLevel}
		if b.HasCity {
			res.City[i] = c.City
		}
		if b.HasJobLevel {
			res.JobLevel[i] = c.JobLevel
		}
	}

	raw, err := est.Predict(ctx, rows)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrPredictionFailure, err)
	}
	if len(raw) != n {
		return Result{}, fmt.Errorf("%w: estimator returned %d values for %d rows", ErrPredictionFailure, len(raw), n)
	}

	res.PredictedSalary = make([]float64, n)
	for i, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Result{}, fmt.Errorf("%w: non-finite prediction at row %d", ErrPredictionFailure, i)
		}
		res.PredictedSalary[i] = experience.Round(v, salaryScale)
	}
	res.Message = fmt.Sprintf("predicted %d salaries", n)
	return res, nil
}
