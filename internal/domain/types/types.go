// Package types contains request and response shapes shared by the service
// and its transports.
package types

import "github.com/okian/salaryd/internal/domain/prediction"

// PredictInput carries one prediction request. Experience values are the
// caller's decimal literals; nil City or JobLevel means the field was absent.
type PredictInput struct {
	Experience []string
	City       []string
	JobLevel   []string
}

// PredictOutput is a prediction plus the bookkeeping around it.
type PredictOutput struct {
	prediction.Result
	HistoryID    *int64 `json:"history_id,omitempty"`
	ModelVersion string `json:"model_version"`
}

// Health summarizes serving readiness.
type Health struct {
	Status       string `json:"status"`
	ModelLoaded  bool   `json:"model_loaded"`
	ModelVersion string `json:"model_version,omitempty"`
	Version      string `json:"version"`
}
