// Package service wires the salary estimation core to its stores and exposes
// the operations the HTTP API and CLI depend on.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/salaryd/internal/adapters/modelstore"
	"github.com/okian/salaryd/internal/adapters/mq/queue"
	"github.com/okian/salaryd/internal/adapters/mq/worker"
	"github.com/okian/salaryd/internal/adapters/repository"
	"github.com/okian/salaryd/internal/domain/batch"
	"github.com/okian/salaryd/internal/domain/category"
	"github.com/okian/salaryd/internal/domain/estimator"
	"github.com/okian/salaryd/internal/domain/feedback"
	"github.com/okian/salaryd/internal/domain/history"
	"github.com/okian/salaryd/internal/domain/prediction"
	"github.com/okian/salaryd/internal/domain/retrain"
	"github.com/okian/salaryd/internal/domain/types"
	"github.com/okian/salaryd/pkg/logger"
	"github.com/okian/salaryd/pkg/metrics"
)

// workerShutdownTimeout bounds how long Stop waits for a retrain in progress.
const workerShutdownTimeout = 30 * time.Second

// Request and response shapes live in the types package.
type (
	PredictInput  = types.PredictInput
	PredictOutput = types.PredictOutput
	Health        = types.Health
)

// Service implements the API dependencies for salary estimation.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     history.Store
	models    *modelstore.FileStore
	handle    *estimator.Handle
	validator *batch.Validator
	history   *history.Adapter
	feedback  *feedback.Recorder
	engine    *retrain.Engine
	retrainMu sync.Mutex
	triggers  *queue.InMemoryQueue
	worker    *worker.InMemoryWorker

	// Configuration
	storageKind     string
	sqlitePath      string
	modelDir        string
	cities          []string
	jobLevels       []string
	minExamples     int
	alpha           float64
	retrainInterval time.Duration
	retrainOnFeed   bool
	requireModel    bool
	appVersion      string

	// State
	started   bool
	ownsStore bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storageKind: "memory",
		sqlitePath:  "data/salaryd.db",
		modelDir:    "data/models",
		cities:      category.DefaultCities,
		jobLevels:   category.DefaultJobLevels,
		minExamples: retrain.DefaultMinExamples,
		alpha:       estimator.DefaultAlpha,
		appVersion:  "dev",
		handle:      estimator.NewHandle(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the stores, loads the latest model, and starts the periodic
// retraining loop when configured.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting salary service...")

	if s.store == nil {
		store, err := s.openStore(ctx)
		if err != nil {
			return err
		}
		s.store = store
		s.ownsStore = true
	}

	models, err := modelstore.NewFileStore(s.modelDir)
	if err != nil {
		s.closeStore()
		return err
	}
	s.models = models

	cities, levels := category.New(s.cities...), category.New(s.jobLevels...)
	s.validator = batch.NewValidator(cities, levels)
	s.history = history.NewAdapter(s.store)
	s.feedback = feedback.NewRecorder(s.store)
	s.engine = retrain.NewEngine(s.history, s.models, estimator.NewRidgeTrainer(s.alpha, cities, levels),
		retrain.WithMinExamples(s.minExamples),
		retrain.WithOnPromote(s.install),
	)

	if err := s.loadLatest(ctx); err != nil {
		s.closeStore()
		return err
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	if s.retrainInterval > 0 || s.retrainOnFeed {
		s.triggers = queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(s.triggers, s, worker.WithLogger(s.logger.Named("retrain-worker")))
		s.worker = w
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			w.Run(loopCtx)
		}()
	}
	if s.retrainInterval > 0 {
		s.wg.Add(1)
		go s.retrainLoop(loopCtx)
	}

	s.started = true
	s.logger.Info(ctx, "salary service started",
		logger.String("storage", s.storageKind),
		logger.String("model_dir", s.modelDir),
		logger.Bool("model_loaded", s.handle.Loaded()),
		logger.Duration("retrain_interval", s.retrainInterval),
		logger.Bool("retrain_on_feedback", s.retrainOnFeed),
	)
	return nil
}

// Stop stops the retraining loop, waits for a run in progress and closes
// owned stores. The lock is released while waiting because a running
// retrain checks readiness.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.logger.Info(context.Background(), "stopping salary service...")
	s.started = false
	cancel, triggers, w := s.cancel, s.triggers, s.worker
	s.cancel, s.triggers, s.worker = nil, nil, nil
	s.mu.Unlock()

	if triggers != nil {
		_ = triggers.Close()
	}
	if cancel != nil {
		cancel()
	}
	if w != nil {
		ctx, done := context.WithTimeout(context.Background(), workerShutdownTimeout)
		if err := w.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "retrain worker did not stop in time", logger.Error(err))
		}
		done()
	}
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeStore()
	s.logger.Info(context.Background(), "salary service stopped")
}

func (s *Service) openStore(ctx context.Context) (history.Store, error) {
	switch s.storageKind {
	case "memory":
		s.logger.Info(ctx, "using in-memory history store")
		return repository.NewMemoryStore(), nil
	case "sqlite":
		s.logger.Info(ctx, "using sqlite history store", logger.String("path", s.sqlitePath))
		return repository.OpenSQLite(ctx, s.sqlitePath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStorage, s.storageKind)
	}
}

func (s *Service) closeStore() {
	if !s.ownsStore || s.store == nil {
		return
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing history store failed", logger.Error(err))
		}
	}
	s.store = nil
	s.ownsStore = false
}

func (s *Service) loadLatest(ctx context.Context) error {
	m, version, err := s.models.Incumbent(ctx)
	switch {
	case errors.Is(err, estimator.ErrNoModel):
		if s.requireModel {
			return fmt.Errorf("no saved model in %s: %w", s.modelDir, err)
		}
		s.logger.Warn(ctx, "no saved model; predictions unavailable until bootstrap or retrain",
			logger.String("model_dir", s.modelDir))
		metrics.UpdateModelLoaded(false)
		return nil
	case err != nil:
		return fmt.Errorf("load model: %w", err)
	}
	s.install(m, version)
	return nil
}

// install publishes m as the serving model.
func (s *Service) install(m estimator.Model, version string) {
	prev := s.handle.Swap(m, version)
	metrics.UpdateModelLoaded(true)
	fields := []logger.Field{logger.String("version", version), logger.Int("trained_on", m.Artifact().TrainedOn)}
	if prev != nil {
		fields = append(fields, logger.String("previous", prev.Version))
	}
	s.logger.Info(context.Background(), "model installed", fields...)
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Predict validates in, estimates salaries with the serving model, and
// records the result. A failed history write is logged and the prediction is
// still returned without a history ID.
func (s *Service) Predict(ctx context.Context, in PredictInput) (PredictOutput, error) {
	if err := s.ready(); err != nil {
		return PredictOutput{}, err
	}
	start := time.Now()

	b, err := s.validator.Validate(in.Experience, in.City, in.JobLevel)
	if err != nil {
		metrics.RecordPredictionError("validation")
		return PredictOutput{}, err
	}

	snap := s.handle.Load()
	if snap == nil {
		metrics.RecordPredictionError("no_model")
		return PredictOutput{}, estimator.ErrNoModel
	}

	res, err := prediction.Predict(ctx, snap.Model, b)
	if err != nil {
		metrics.RecordPredictionError("estimator")
		s.logger.Error(ctx, "prediction failed", logger.String("model_version", snap.Version), logger.Error(err))
		return PredictOutput{}, err
	}
	metrics.RecordPrediction(res.Len(), time.Since(start).Seconds())

	out := PredictOutput{Result: res, ModelVersion: snap.Version}
	rec, err := s.history.Record(ctx, res, snap.Version)
	if err != nil {
		metrics.RecordHistoryWriteError()
		s.logger.Error(ctx, "recording prediction history failed", logger.Int("rows", res.Len()), logger.Error(err))
		return out, nil
	}
	out.HistoryID = &rec.ID
	return out, nil
}

// History returns one page of recorded predictions.
func (s *Service) History(ctx context.Context, p history.ListParams) (history.Listing, error) {
	if err := s.ready(); err != nil {
		return history.Listing{}, err
	}
	return s.history.List(ctx, p)
}

// HistoryRecord returns one record or history.ErrNotFound.
func (s *Service) HistoryRecord(ctx context.Context, id int64) (history.Record, error) {
	if err := s.ready(); err != nil {
		return history.Record{}, err
	}
	r, ok, err := s.history.Get(ctx, id)
	if err != nil {
		return history.Record{}, err
	}
	if !ok {
		return history.Record{}, fmt.Errorf("%w: id %d", history.ErrNotFound, id)
	}
	return r, nil
}

// SubmitFeedback attaches actual salaries to a recorded prediction.
func (s *Service) SubmitFeedback(ctx context.Context, id int64, actual []float64) (history.Record, error) {
	if err := s.ready(); err != nil {
		return history.Record{}, err
	}
	r, err := s.feedback.Attach(ctx, id, actual)
	if err != nil {
		metrics.RecordFeedback(feedbackResult(err))
		return history.Record{}, err
	}
	metrics.RecordFeedback("accepted")
	s.logger.Info(ctx, "feedback recorded", logger.Int64("history_id", id), logger.Int("rows", len(actual)))
	if s.retrainOnFeed {
		s.trigger(ctx, queue.ReasonFeedback)
	}
	return r, nil
}

func feedbackResult(err error) string {
	switch {
	case errors.Is(err, feedback.ErrInvalidSalary):
		return "invalid"
	case errors.Is(err, feedback.ErrNotFound):
		return "not_found"
	case errors.Is(err, feedback.ErrCardinalityMismatch):
		return "mismatch"
	case errors.Is(err, feedback.ErrAlreadySubmitted):
		return "duplicate"
	default:
		return "error"
	}
}

// Retrain runs one retraining cycle. Concurrent calls get retrain.ErrInProgress.
func (s *Service) Retrain(ctx context.Context) (retrain.Outcome, error) {
	return s.runExclusive(ctx, "retrain", s.engine.Retrain)
}

// Bootstrap trains and installs the seed model.
func (s *Service) Bootstrap(ctx context.Context) (retrain.Outcome, error) {
	return s.runExclusive(ctx, "bootstrap", s.engine.Bootstrap)
}

func (s *Service) runExclusive(ctx context.Context, kind string, run func(context.Context) (retrain.Outcome, error)) (retrain.Outcome, error) {
	if err := s.ready(); err != nil {
		return retrain.Outcome{}, err
	}
	if !s.retrainMu.TryLock() {
		return retrain.Outcome{}, retrain.ErrInProgress
	}
	defer s.retrainMu.Unlock()

	runID := uuid.NewString()
	log := s.logger.With(logger.String("run_id", runID), logger.String("kind", kind))
	log.Info(ctx, "retraining started")
	start := time.Now()

	out, err := run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordRetrainRun("failed", elapsed.Seconds())
		log.Error(ctx, "retraining failed", logger.Duration("elapsed", elapsed), logger.Error(err))
		return retrain.Outcome{}, err
	}

	metrics.RecordRetrainRun(out.Status, elapsed.Seconds())
	if out.SkippedRecords > 0 {
		log.Warn(ctx, "skipped malformed feedback records", logger.Int("records", out.SkippedRecords))
	}
	if out.Status == retrain.StatusCompleted {
		_ = metrics.UpdateModelMAE(metrics.RoleChallenger, out.ChallengerMAE)
		if out.IncumbentMAE != nil {
			_ = metrics.UpdateModelMAE(metrics.RoleIncumbent, *out.IncumbentMAE)
		}
	}
	if out.Promoted {
		metrics.RecordPromotion()
	}
	log.Info(ctx, "retraining finished",
		logger.String("status", out.Status),
		logger.Int("examples", out.FeedbackCount),
		logger.Bool("promoted", out.Promoted),
		logger.String("model_version", out.ModelVersion),
		logger.Duration("elapsed", elapsed),
	)
	return out, nil
}

// retrainLoop posts a scheduled trigger on every tick; the worker runs it.
func (s *Service) retrainLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.retrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.trigger(ctx, queue.ReasonSchedule)
		}
	}
}

// trigger asks the retrain worker for a run. A full queue means a run is
// already pending, so the trigger is dropped.
func (s *Service) trigger(ctx context.Context, reason string) {
	s.mu.RLock()
	q := s.triggers
	s.mu.RUnlock()
	if q == nil {
		return
	}
	if !q.Enqueue(context.WithoutCancel(ctx), queue.Trigger{Reason: reason, At: time.Now()}) {
		s.logger.Debug(ctx, "retraining trigger coalesced", logger.String("reason", reason))
	}
}

// Health reports whether a model is serving.
func (s *Service) Health(_ context.Context) Health {
	h := Health{Status: "degraded", Version: s.appVersion}
	if snap := s.handle.Load(); snap != nil {
		h.Status = "ok"
		h.ModelLoaded = true
		h.ModelVersion = snap.Version
	}
	return h
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":           s.started,
		"storage":           s.storageKind,
		"modelLoaded":       s.handle.Loaded(),
		"retrainInterval":   s.retrainInterval.String(),
		"retrainOnFeedback": s.retrainOnFeed,
	}
	if s.triggers != nil {
		stats["retrainPending"] = s.triggers.Len(context.Background())
	}
	if snap := s.handle.Load(); snap != nil {
		stats["modelVersion"] = snap.Version
		stats["modelLoadedAt"] = snap.LoadedAt
	}
	if mem, ok := s.store.(*repository.MemoryStore); ok {
		n := mem.Count()
		stats["historyRecords"] = n
		metrics.UpdateHistoryRecordsTotal(n)
	}
	return stats
}
