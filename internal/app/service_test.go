package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/salaryd/internal/adapters/repository"
	"github.com/okian/salaryd/internal/domain/batch"
	"github.com/okian/salaryd/internal/domain/estimator"
	"github.com/okian/salaryd/internal/domain/experience"
	"github.com/okian/salaryd/internal/domain/feedback"
	"github.com/okian/salaryd/internal/domain/history"
	"github.com/okian/salaryd/internal/domain/retrain"
	"github.com/okian/salaryd/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// brokenStore accepts reads but fails every Create.
type brokenStore struct {
	history.Store
}

func (brokenStore) Create(context.Context, history.Record) (history.Record, error) {
	return history.Record{}, errors.New("disk full")
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	if err := logger.Init(); err != nil {
		t.Fatalf("logger init: %v", err)
	}
	base := []Option{
		WithLogger(logger.Get()),
		WithStorage("memory", ""),
		WithModelDir(filepath.Join(t.TempDir(), "models")),
	}
	return New(append(base, opts...)...)
}

func TestService(t *testing.T) {
	Convey("Given a started service without a model", t, func() {
		ctx := context.Background()
		svc := newTestService(t)
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		Convey("Health is degraded and prediction is unavailable", func() {
			h := svc.Health(ctx)
			So(h.Status, ShouldEqual, "degraded")
			So(h.ModelLoaded, ShouldBeFalse)

			_, err := svc.Predict(ctx, PredictInput{Experience: []string{"2.6"}})
			So(errors.Is(err, estimator.ErrNoModel), ShouldBeTrue)
		})

		Convey("Validation errors win over the missing model", func() {
			_, err := svc.Predict(ctx, PredictInput{Experience: []string{"2.12"}})
			So(errors.Is(err, experience.ErrInvalidFormat), ShouldBeTrue)
			var be *batch.Error
			So(errors.As(err, &be), ShouldBeTrue)
		})

		Convey("When the seed model is bootstrapped", func() {
			out, err := svc.Bootstrap(ctx)
			So(err, ShouldBeNil)
			So(out.ModelVersion, ShouldEqual, "v1")
			So(svc.Health(ctx).Status, ShouldEqual, "ok")

			Convey("Then predictions are served and recorded", func() {
				res, err := svc.Predict(ctx, PredictInput{
					Experience: []string{"2.6", "3.0", "0.11"},
					City:       []string{"Jakarta", "jakarta", "bandung"},
				})
				So(err, ShouldBeNil)
				So(res.ConvertedYears, ShouldResemble, []float64{2.5, 3.0, 0.9167})
				So(res.ModelVersion, ShouldEqual, "v1")
				So(res.HistoryID, ShouldNotBeNil)
				So(res.PredictedSalary[1], ShouldBeGreaterThan, res.PredictedSalary[2])

				rec, err := svc.HistoryRecord(ctx, *res.HistoryID)
				So(err, ShouldBeNil)
				So(rec.DataCount, ShouldEqual, 3)
				So(rec.City, ShouldResemble, []string{"jakarta", "jakarta", "bandung"})

				l, err := svc.History(ctx, history.ListParams{Page: 1, Size: 10, City: "BANDUNG"})
				So(err, ShouldBeNil)
				So(l.TotalData, ShouldEqual, 1)
			})

			Convey("And feedback can be attached exactly once", func() {
				res, _ := svc.Predict(ctx, PredictInput{Experience: []string{"1.0", "2.0"}})
				_, err := svc.SubmitFeedback(ctx, *res.HistoryID, []float64{3, 4})
				So(err, ShouldBeNil)
				_, err = svc.SubmitFeedback(ctx, *res.HistoryID, []float64{3, 4})
				So(errors.Is(err, feedback.ErrAlreadySubmitted), ShouldBeTrue)
				_, err = svc.SubmitFeedback(ctx, 9999, []float64{3})
				So(errors.Is(err, feedback.ErrNotFound), ShouldBeTrue)
			})

			Convey("And retraining with little feedback is skipped", func() {
				out, err := svc.Retrain(ctx)
				So(err, ShouldBeNil)
				So(out.Status, ShouldEqual, retrain.StatusSkipped)
				So(svc.Health(ctx).ModelVersion, ShouldEqual, "v1")
			})

			Convey("And a better challenger replaces the serving model", func() {
				for i := 0; i < 12; i++ {
					res, err := svc.Predict(ctx, PredictInput{Experience: []string{"1.0", "5.0"}})
					So(err, ShouldBeNil)
					_, err = svc.SubmitFeedback(ctx, *res.HistoryID, []float64{500, 900})
					So(err, ShouldBeNil)
				}
				out, err := svc.Retrain(ctx)
				So(err, ShouldBeNil)
				So(out.Promoted, ShouldBeTrue)
				So(out.ModelVersion, ShouldEqual, "v2")
				So(svc.Health(ctx).ModelVersion, ShouldEqual, "v2")

				res, err := svc.Predict(ctx, PredictInput{Experience: []string{"5.0"}})
				So(err, ShouldBeNil)
				So(res.ModelVersion, ShouldEqual, "v2")
				So(res.PredictedSalary[0], ShouldBeGreaterThan, 100)
			})

			Convey("And concurrent retraining is refused", func() {
				svc.retrainMu.Lock()
				_, err := svc.Retrain(ctx)
				svc.retrainMu.Unlock()
				So(errors.Is(err, retrain.ErrInProgress), ShouldBeTrue)
			})

			Convey("And a restarted service reloads the latest model", func() {
				again := newTestService(t, WithModelDir(svc.modelDir), WithRequireModel(true))
				So(again.Start(ctx), ShouldBeNil)
				defer again.Stop()
				So(again.Health(ctx).ModelVersion, ShouldEqual, "v1")
			})
		})

		Convey("GetStats reports the store size", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["historyRecords"], ShouldEqual, 0)
		})
	})
}

func TestServiceHistoryWriteFailureStillServes(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, WithHistoryStore(brokenStore{Store: repository.NewMemoryStore()}))
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer svc.Stop()
	if _, err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	res, err := svc.Predict(ctx, PredictInput{Experience: []string{"3.0"}})
	if err != nil {
		t.Fatalf("predict must succeed when history fails: %v", err)
	}
	if res.HistoryID != nil {
		t.Errorf("expected no history id, got %d", *res.HistoryID)
	}
}

func TestServiceRequireModel(t *testing.T) {
	svc := newTestService(t, WithRequireModel(true))
	err := svc.Start(context.Background())
	if !errors.Is(err, estimator.ErrNoModel) {
		t.Fatalf("expected ErrNoModel, got %v", err)
	}
}

func TestServiceNotStarted(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Predict(context.Background(), PredictInput{Experience: []string{"1"}}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
	if _, err := svc.Retrain(context.Background()); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
}

func TestServiceUnknownStorage(t *testing.T) {
	svc := newTestService(t, WithStorage("cassandra", ""))
	if err := svc.Start(context.Background()); !errors.Is(err, ErrUnknownStorage) {
		t.Errorf("expected ErrUnknownStorage, got %v", err)
	}
}

func TestServiceSQLiteAndPeriodicRetrain(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t,
		WithStorage("sqlite", filepath.Join(t.TempDir(), "history.db")),
		WithRetrainInterval(10*time.Millisecond),
		WithMinFeedbackExamples(1),
	)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	bootstrapRetrying(t, svc)
	res, err := svc.Predict(ctx, PredictInput{Experience: []string{"4.0"}})
	if err != nil || res.HistoryID == nil {
		t.Fatalf("predict: %v", err)
	}
	if _, err := svc.SubmitFeedback(ctx, *res.HistoryID, []float64{40}); err != nil {
		t.Fatalf("feedback: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for svc.Health(ctx).ModelVersion == "v1" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	svc.Stop()
	if v := svc.Health(ctx).ModelVersion; v == "v1" {
		t.Errorf("periodic retraining never promoted a challenger")
	}
}

// bootstrapRetrying bootstraps svc, waiting out scheduled runs that hold the
// retrain lock.
func bootstrapRetrying(t *testing.T, svc *Service) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := svc.Bootstrap(context.Background())
		if err == nil {
			return
		}
		if !errors.Is(err, retrain.ErrInProgress) || time.Now().After(deadline) {
			t.Fatalf("bootstrap: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServiceRetrainsOnFeedback(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t,
		WithRetrainOnFeedback(true),
		WithMinFeedbackExamples(1),
	)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer svc.Stop()
	if _, err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	res, err := svc.Predict(ctx, PredictInput{Experience: []string{"2.0", "7.0"}})
	if err != nil || res.HistoryID == nil {
		t.Fatalf("predict: %v", err)
	}
	if _, err := svc.SubmitFeedback(ctx, *res.HistoryID, []float64{20, 70}); err != nil {
		t.Fatalf("feedback: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for svc.Health(ctx).ModelVersion == "v1" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if v := svc.Health(ctx).ModelVersion; v != "v2" {
		t.Errorf("feedback-triggered retraining did not promote, serving %q", v)
	}
	if stats := svc.GetStats(); stats["retrainOnFeedback"] != true {
		t.Errorf("stats should report retrain_on_feedback, got %v", stats)
	}
}

func TestServiceStopWhileRetraining(t *testing.T) {
	svc := newTestService(t, WithRetrainInterval(time.Millisecond))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		svc.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return while scheduled retraining was active")
	}
	if _, err := svc.Retrain(context.Background()); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted after Stop, got %v", err)
	}
}
