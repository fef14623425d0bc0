package retrain

import (
	"strings"

	"github.com/okian/salaryd/internal/domain/estimator"
)

// Defaults applied when options are omitted.
const (
	DefaultMinExamples = 10
	DefaultCity        = "jakarta"
	DefaultJobLevel    = "mid"
)

// Option configures an Engine.
type Option func(*Engine)

// WithMinExamples sets how many flattened examples a run needs.
func WithMinExamples(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minExamples = n
		}
	}
}

// WithDefaults sets the city and job level used for rows that lack them.
func WithDefaults(city, jobLevel string) Option {
	return func(e *Engine) {
		if c := strings.ToLower(strings.TrimSpace(city)); c != "" {
			e.defaultCity = c
		}
		if l := strings.ToLower(strings.TrimSpace(jobLevel)); l != "" {
			e.defaultJobLevel = l
		}
	}
}

// WithOnPromote registers a hook called after a promoted model is saved.
func WithOnPromote(fn func(m estimator.Model, version string)) Option {
	return func(e *Engine) {
		e.onPromote = fn
	}
}
