package api

import (
	"errors"
	"net/http"

	"github.com/okian/salaryd/internal/domain/batch"
	"github.com/okian/salaryd/internal/domain/estimator"
	"github.com/okian/salaryd/internal/domain/experience"
	"github.com/okian/salaryd/internal/domain/feedback"
	"github.com/okian/salaryd/internal/domain/history"
	"github.com/okian/salaryd/internal/domain/prediction"
	"github.com/okian/salaryd/internal/domain/retrain"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrInvalidID   = errors.New("history id must be a positive integer")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Response codes.
const (
	codeBadRequest   = "bad_request"
	codeInvalidInput = "invalid_input"
	codeNotFound     = "not_found"
	codeConflict     = "conflict"
	codeRateLimited  = "rate_limited"
	codeNoModel      = "model_unavailable"
	codeInternal     = "internal_error"
)

// classify maps a service error to a status, code, and client message.
// Internal failures get a generic message; details stay in the logs.
func classify(err error) (int, string, string) {
	var be *batch.Error
	switch {
	case errors.As(err, &be),
		errors.Is(err, experience.ErrInvalidFormat),
		errors.Is(err, history.ErrInvalidPage),
		errors.Is(err, feedback.ErrInvalidSalary),
		errors.Is(err, feedback.ErrCardinalityMismatch):
		return http.StatusUnprocessableEntity, codeInvalidInput, err.Error()
	case errors.Is(err, feedback.ErrNotFound), errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound, codeNotFound, err.Error()
	case errors.Is(err, feedback.ErrAlreadySubmitted), errors.Is(err, retrain.ErrInProgress):
		return http.StatusConflict, codeConflict, err.Error()
	case errors.Is(err, estimator.ErrNoModel):
		return http.StatusServiceUnavailable, codeNoModel, "model is not loaded"
	case errors.Is(err, prediction.ErrPredictionFailure):
		return http.StatusInternalServerError, codeInternal, "failed to estimate salaries"
	default:
		return http.StatusInternalServerError, codeInternal, "internal error"
	}
}
