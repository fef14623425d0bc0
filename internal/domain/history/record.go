package history

import (
	"context"
	"time"
)

// Record is one persisted prediction batch and, once supplied, its ground truth.
type Record struct {
	ID              int64     `json:"id"`
	InputYears      []float64 `json:"input_years"`
	ConvertedYears  []float64 `json:"converted_years"`
	City            []string  `json:"city,omitempty"`
	JobLevel        []string  `json:"job_level,omitempty"`
	PredictedSalary []float64 `json:"predicted_salary"`
	ActualSalary    []float64 `json:"actual_salary,omitempty"`
	DataCount       int       `json:"data_count"`
	ModelVersion    string    `json:"model_version,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// HasFeedback reports whether actual salaries were attached.
func (r Record) HasFeedback() bool {
	return len(r.ActualSalary) > 0
}

// Query selects a page of records. City and JobLevel match case-insensitively
// against any element of the record's arrays; empty means no filter.
type Query struct {
	Page         int
	Size         int
	City         string
	JobLevel     string
	WithFeedback bool
}

// Page is one slice of a query result, newest first.
type Page struct {
	Items []Record
	Total int
}

// Store is the persistence port for prediction history.
type Store interface {
	// Create assigns ID and CreatedAt and persists r.
	Create(ctx context.Context, r Record) (Record, error)
	// Get returns ErrNotFound when id is absent.
	Get(ctx context.Context, id int64) (Record, error)
	Query(ctx context.Context, q Query) (Page, error)
	// UpdateActualSalary returns ErrFeedbackExists when the record already has feedback.
	UpdateActualSalary(ctx context.Context, id int64, actual []float64) (Record, error)
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	out.InputYears = cloneFloats(r.InputYears)
	out.ConvertedYears = cloneFloats(r.ConvertedYears)
	out.PredictedSalary = cloneFloats(r.PredictedSalary)
	out.ActualSalary = cloneFloats(r.ActualSalary)
	out.City = cloneStrings(r.City)
	out.JobLevel = cloneStrings(r.JobLevel)
	return out
}

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func cloneStrings(v []string) []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v))
	copy(out, v)
	return out
}
