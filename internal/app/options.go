package service

import (
	"time"

	"github.com/okian/salaryd/internal/domain/history"
	"github.com/okian/salaryd/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStorage selects the history backend ("memory" or "sqlite") and the
// SQLite database path.
func WithStorage(kind, sqlitePath string) Option {
	return func(s *Service) {
		if kind != "" {
			s.storageKind = kind
		}
		if sqlitePath != "" {
			s.sqlitePath = sqlitePath
		}
	}
}

// WithHistoryStore injects a ready history store; WithStorage is then ignored.
func WithHistoryStore(store history.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithModelDir sets where model versions are stored.
func WithModelDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.modelDir = dir
		}
	}
}

// WithEnumerations sets the accepted cities and job levels.
func WithEnumerations(cities, jobLevels []string) Option {
	return func(s *Service) {
		if len(cities) > 0 {
			s.cities = cities
		}
		if len(jobLevels) > 0 {
			s.jobLevels = jobLevels
		}
	}
}

// WithMinFeedbackExamples sets the retraining threshold.
func WithMinFeedbackExamples(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minExamples = n
		}
	}
}

// WithRidgeAlpha sets the challenger's L2 penalty.
func WithRidgeAlpha(alpha float64) Option {
	return func(s *Service) {
		if alpha > 0 {
			s.alpha = alpha
		}
	}
}

// WithRetrainInterval enables periodic retraining; 0 disables it.
func WithRetrainInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.retrainInterval = d
		}
	}
}

// WithRequireModel makes Start fail when no model has been saved.
func WithRequireModel(required bool) Option {
	return func(s *Service) {
		s.requireModel = required
	}
}

// WithAppVersion sets the version reported by Health.
func WithAppVersion(v string) Option {
	return func(s *Service) {
		if v != "" {
			s.appVersion = v
		}
	}
}

// WithRetrainOnFeedback queues a retraining run after each accepted feedback.
func WithRetrainOnFeedback(enabled bool) Option {
	return func(s *Service) {
		s.retrainOnFeed = enabled
	}
}
