// Package retrain fits challenger models on feedback and promotes them when
// they beat the serving model.
package retrain

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/salaryd/internal/domain/estimator"
	"github.com/okian/salaryd/internal/domain/experience"
	"github.com/okian/salaryd/internal/domain/history"
)

// Outcome statuses.
const (
	StatusSkipped   = "skipped"
	StatusCompleted = "completed"
)

const metricScale = 1e4

func roundMetric(v float64) float64 {
	return experience.Round(v, metricScale)
}

// Source yields every history record that carries feedback.
type Source interface {
	FeedbackRecords(ctx context.Context) ([]history.Record, error)
}

// ModelStore persists promoted models.
type ModelStore interface {
	// Incumbent returns estimator.ErrNoModel when nothing was promoted yet.
	Incumbent(ctx context.Context) (estimator.Model, string, error)
	Promote(ctx context.Context, m estimator.Model, sc estimator.Scorecard) (string, error)
}

// Outcome reports one retraining run.
type Outcome struct {
	Status         string   `json:"status"`
	FeedbackCount  int      `json:"feedback_count"`
	SkippedRecords int      `json:"skipped_records,omitempty"`
	ChallengerMAE  float64  `json:"challenger_mae"`
	ChallengerR2   float64  `json:"challenger_r2"`
	IncumbentMAE   *float64 `json:"incumbent_mae,omitempty"`
	Promoted       bool     `json:"promoted"`
	ModelVersion   string   `json:"model_version,omitempty"`
	Message        string   `json:"message"`
}

// Engine runs retraining.
type Engine struct {
	source  Source
	models  ModelStore
	trainer estimator.Trainer

	minExamples     int
	defaultCity     string
	defaultJobLevel string
	onPromote       func(estimator.Model, string)
}

// NewEngine returns an engine reading feedback from source and saving
// promoted models to models.
func NewEngine(source Source, models ModelStore, trainer estimator.Trainer, opts ...Option) *Engine {
	e := &Engine{
		source:          source,
		models:          models,
		trainer:         trainer,
		minExamples:     DefaultMinExamples,
		defaultCity:     DefaultCity,
		defaultJobLevel: DefaultJobLevel,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Retrain runs one gather, train, evaluate, promote cycle. Cancelling ctx
// stops the run before the next phase, so an aborted run never promotes.
func (e *Engine) Retrain(ctx context.Context) (Outcome, error) {
	if e.source == nil {
		return Outcome{}, ErrNoSource
	}
	if e.models == nil {
		return Outcome{}, ErrNoModelStore
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	records, err := e.source.FeedbackRecords(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("gather feedback: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	rows, y, skipped := e.flatten(records)
	out := Outcome{FeedbackCount: len(rows), SkippedRecords: skipped}
	if len(rows) < e.minExamples {
		out.Status = StatusSkipped
		out.Message = fmt.Sprintf("need at least %d feedback examples, have %d", e.minExamples, len(rows))
		return out, nil
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	challenger, err := e.trainer.Fit(ctx, rows, y)
	if err != nil {
		return Outcome{}, fmt.Errorf("train challenger: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	mae, r2, err := estimator.Score(ctx, challenger, rows, y)
	if err != nil {
		return Outcome{}, fmt.Errorf("score challenger: %w", err)
	}
	out.Status = StatusCompleted
	out.ChallengerMAE = roundMetric(mae)
	out.ChallengerR2 = roundMetric(r2)

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	incumbent, _, err := e.models.Incumbent(ctx)
	switch {
	case errors.Is(err, estimator.ErrNoModel):
		// first model: promote unconditionally
	case err != nil:
		return Outcome{}, fmt.Errorf("load incumbent: %w", err)
	default:
		incMAE, _, err := estimator.Score(ctx, incumbent, rows, y)
		if err != nil {
			return Outcome{}, fmt.Errorf("score incumbent: %w", err)
		}
		rounded := roundMetric(incMAE)
		out.IncumbentMAE = &rounded
		if !(mae < incMAE) {
			out.Message = "challenger did not beat the serving model"
			return out, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	version, err := e.models.Promote(ctx, challenger, estimator.Scorecard{MAE: mae, R2: r2, Examples: len(rows)})
	if err != nil {
		return Outcome{}, fmt.Errorf("save challenger: %w", err)
	}
	if e.onPromote != nil {
		e.onPromote(challenger, version)
	}
	out.Promoted = true
	out.ModelVersion = version
	out.Message = "challenger promoted"
	return out, nil
}

// flatten expands records into one training row per prediction. Records whose
// arrays are shorter than DataCount are skipped and counted.
func (e *Engine) flatten(records []history.Record) ([]estimator.Features, []float64, int) {
	var (
		rows    []estimator.Features
		y       []float64
		skipped int
	)
	for _, r := range records {
		n := r.DataCount
		if n <= 0 || len(r.ConvertedYears) < n || len(r.ActualSalary) < n ||
			(r.City != nil && len(r.City) < n) || (r.JobLevel != nil && len(r.JobLevel) < n) {
			skipped++
			continue
		}
		for i := 0; i < n; i++ {
			row := estimator.Features{Years: r.ConvertedYears[i], City: e.defaultCity, JobLevel: e.defaultJobLevel}
			if r.City != nil && r.City[i] != "" {
				row.City = r.City[i]
			}
			if r.JobLevel != nil && r.JobLevel[i] != "" {
				row.JobLevel = r.JobLevel[i]
			}
			rows = append(rows, row)
			y = append(y, r.ActualSalary[i])
		}
	}
	return rows, y, skipped
}
