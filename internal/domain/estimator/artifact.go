package estimator

import (
	"fmt"

	"github.com/okian/salaryd/internal/domain/category"
)

// Artifact is the serializable form of a fitted model.
type Artifact struct {
	Algorithm    string    `json:"algorithm"`
	Alpha        float64   `json:"alpha"`
	LogTarget    bool      `json:"log_target"`
	Cities       []string  `json:"cities"`
	JobLevels    []string  `json:"job_levels"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	TrainedOn    int       `json:"trained_on"`
}

// Artifact returns the persistable parameters of r.
func (r *Ridge) Artifact() Artifact {
	coef := make([]float64, len(r.coef))
	copy(coef, r.coef)
	return Artifact{
		Algorithm:    AlgorithmRidgeLog,
		Alpha:        r.alpha,
		LogTarget:    r.logTarget,
		Cities:       r.cities.Values(),
		JobLevels:    r.jobLevels.Values(),
		Coefficients: coef,
		Intercept:    r.intercept,
		TrainedOn:    r.trainedOn,
	}
}

// FromArtifact rebuilds a model from its persisted parameters.
func FromArtifact(a Artifact) (Model, error) {
	if a.Algorithm != AlgorithmRidgeLog {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidArtifact, a.Algorithm)
	}
	r := &Ridge{
		alpha:     a.Alpha,
		logTarget: a.LogTarget,
		cities:    category.New(a.Cities...),
		jobLevels: category.New(a.JobLevels...),
		intercept: a.Intercept,
		trainedOn: a.TrainedOn,
	}
	if len(a.Coefficients) != r.width() {
		return nil, fmt.Errorf("%w: %d coefficients for %d features", ErrInvalidArtifact, len(a.Coefficients), r.width())
	}
	r.coef = make([]float64, len(a.Coefficients))
	copy(r.coef, a.Coefficients)
	return r, nil
}
