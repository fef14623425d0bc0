// Package config defines service configuration and its loading.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/salaryd/internal/domain/category"
)

// Storage backends.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Storage selects the history backend: memory or sqlite.
	Storage    string `koanf:"storage"`
	SQLitePath string `koanf:"sqlite_path"`

	// ModelDir holds versioned model artifacts.
	ModelDir string `koanf:"model_dir"`
	// RequireModel makes serve exit when no model has been saved.
	RequireModel bool `koanf:"require_model"`

	// Cities and JobLevels are the closed categorical enumerations.
	Cities    []string `koanf:"cities"`
	JobLevels []string `koanf:"job_levels"`

	// PredictRatePerMinute and PredictBurst shape the /predict token bucket.
	// A rate of 0 disables limiting.
	PredictRatePerMinute int `koanf:"predict_rate_per_minute"`
	PredictBurst         int `koanf:"predict_burst"`

	// RetrainInterval schedules periodic retraining; 0 disables it.
	RetrainInterval     time.Duration `koanf:"retrain_interval"`
	MinFeedbackExamples int           `koanf:"min_feedback_examples"`
	RidgeAlpha          float64       `koanf:"ridge_alpha"`
	// RetrainOnFeedback queues a retraining run after each accepted feedback.
	RetrainOnFeedback bool `koanf:"retrain_on_feedback"`

	// AppVersion is reported by the health and info endpoints.
	AppVersion string `koanf:"app_version"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":8000",
		ShutdownTimeout:      10 * time.Second,
		Storage:              StorageSQLite,
		SQLitePath:           "data/salaryd.db",
		ModelDir:             "data/models",
		Cities:               append([]string(nil), category.DefaultCities...),
		JobLevels:            append([]string(nil), category.DefaultJobLevels...),
		PredictRatePerMinute: 20,
		PredictBurst:         20,
		MinFeedbackExamples:  10,
		RidgeAlpha:           1.0,
		AppVersion:           "1.0.0",
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "addr must not be empty")
	}
	switch c.Storage {
	case StorageMemory:
	case StorageSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			problems = append(problems, "sqlite_path must not be empty")
		}
	default:
		problems = append(problems, fmt.Sprintf("storage must be %q or %q, got %q", StorageMemory, StorageSQLite, c.Storage))
	}
	if strings.TrimSpace(c.ModelDir) == "" {
		problems = append(problems, "model_dir must not be empty")
	}
	if category.New(c.Cities...).Len() == 0 {
		problems = append(problems, "cities must not be empty")
	}
	if category.New(c.JobLevels...).Len() == 0 {
		problems = append(problems, "job_levels must not be empty")
	}
	if c.PredictRatePerMinute < 0 || c.PredictBurst < 0 {
		problems = append(problems, "predict rate and burst must not be negative")
	}
	if c.RetrainInterval < 0 {
		problems = append(problems, "retrain_interval must not be negative")
	}
	if c.MinFeedbackExamples < 1 {
		problems = append(problems, "min_feedback_examples must be at least 1")
	}
	if c.RidgeAlpha <= 0 {
		problems = append(problems, "ridge_alpha must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
