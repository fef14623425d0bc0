package retrain

import (
	"context"
	"fmt"

	"github.com/okian/salaryd/internal/domain/estimator"
)

var (
	seedYears  = []float64{0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5, 5, 5.5, 6, 6.5, 7, 7.5, 8, 9, 10, 11, 12}
	seedSalary = []float64{2.0, 2.3, 2.8, 3.4, 4.0, 4.1, 4.8, 5.8, 6.0, 6.1, 6.9, 7.9, 8.0, 8.2, 9.0, 9.9, 10.0, 11.2, 12.5, 13.5}
)

// SeedExamples returns the built-in bootstrap dataset, all in the default
// city and job level.
func SeedExamples() ([]estimator.Features, []float64) {
	rows := make([]estimator.Features, len(seedYears))
	y := make([]float64, len(seedSalary))
	for i, years := range seedYears {
		rows[i] = estimator.Features{Years: years, City: DefaultCity, JobLevel: DefaultJobLevel}
		y[i] = seedSalary[i]
	}
	return rows, y
}

// Bootstrap fits a model on the seed dataset and saves it as a new version
// regardless of any existing model.
func (e *Engine) Bootstrap(ctx context.Context) (Outcome, error) {
	if e.models == nil {
		return Outcome{}, ErrNoModelStore
	}
	rows, y := SeedExamples()
	m, err := e.trainer.Fit(ctx, rows, y)
	if err != nil {
		return Outcome{}, fmt.Errorf("train seed model: %w", err)
	}
	mae, r2, err := estimator.Score(ctx, m, rows, y)
	if err != nil {
		return Outcome{}, fmt.Errorf("score seed model: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	version, err := e.models.Promote(ctx, m, estimator.Scorecard{MAE: mae, R2: r2, Examples: len(rows)})
	if err != nil {
		return Outcome{}, fmt.Errorf("save seed model: %w", err)
	}
	if e.onPromote != nil {
		e.onPromote(m, version)
	}
	return Outcome{
		Status:        StatusCompleted,
		FeedbackCount: len(rows),
		ChallengerMAE: roundMetric(mae),
		ChallengerR2:  roundMetric(r2),
		Promoted:      true,
		ModelVersion:  version,
		Message:       "seed model saved",
	}, nil
}
