// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/salaryd/internal/domain/history"
	"github.com/okian/salaryd/internal/domain/retrain"
	"github.com/okian/salaryd/internal/domain/types"
	"github.com/okian/salaryd/pkg/logger"
	"github.com/okian/salaryd/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Predict(ctx context.Context, in types.PredictInput) (types.PredictOutput, error)

	History(ctx context.Context, p history.ListParams) (history.Listing, error)
	HistoryRecord(ctx context.Context, id int64) (history.Record, error)
	SubmitFeedback(ctx context.Context, id int64, actual []float64) (history.Record, error)

	Retrain(ctx context.Context) (retrain.Outcome, error)
	Health(ctx context.Context) types.Health
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps    Dependencies
	stats   *StatsHandler
	limiter *RateLimiter
	version string
	log     logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:    deps,
		stats:   NewStatsHandler(statsProvider),
		limiter: NewRateLimiter(DefaultPredictPerMinute, DefaultPredictBurst),
		version: "dev",
		log:     logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", MetricsMiddleware(s.handleInfo, "info"))
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.handleLiveness, "healthz"))
	mux.HandleFunc("GET /health", MetricsMiddleware(s.handleHealth, "health"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.stats.HandleStats, "stats"))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /predict", MetricsMiddleware(s.limiter.Limit(s.handlePredict, "predict"), "predict"))

	mux.HandleFunc("GET /history", MetricsMiddleware(s.handleListHistory, "history"))
	mux.HandleFunc("GET /history/{id}", MetricsMiddleware(s.handleGetHistory, "history_item"))
	mux.HandleFunc("PUT /history/{id}/feedback", MetricsMiddleware(s.handleFeedback, "feedback"))

	mux.HandleFunc("POST /admin/retrain", MetricsMiddleware(s.handleRetrain, "retrain"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError classifies err and logs anything that is not the
// caller's fault.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
