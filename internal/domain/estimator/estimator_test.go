package estimator_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/okian/salaryd/internal/domain/category"
	"github.com/okian/salaryd/internal/domain/estimator"
	. "github.com/smartystreets/goconvey/convey"
)

func enumerations() (category.Enumeration, category.Enumeration) {
	return category.New(category.DefaultCities...), category.New(category.DefaultJobLevels...)
}

func logLinear(n int) ([]estimator.Features, []float64) {
	rows := make([]estimator.Features, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		years := float64(i)
		city := "jakarta"
		bump := 0.3
		if i%2 == 1 {
			city = "bandung"
			bump = 0
		}
		rows[i] = estimator.Features{Years: years, City: city, JobLevel: "mid"}
		y[i] = math.Exp(1 + 0.2*years + bump)
	}
	return rows, y
}

func TestRidgeTrainer(t *testing.T) {
	Convey("Given a ridge trainer with a negligible penalty", t, func() {
		cities, levels := enumerations()
		trainer := estimator.NewRidgeTrainer(1e-6, cities, levels)
		ctx := context.Background()

		Convey("When fit on exactly log-linear data", func() {
			rows, y := logLinear(20)
			model, err := trainer.Fit(ctx, rows, y)
			So(err, ShouldBeNil)

			Convey("Then it recovers the targets", func() {
				pred, err := model.Predict(ctx, rows)
				So(err, ShouldBeNil)
				So(len(pred), ShouldEqual, len(y))
				for i := range y {
					So(pred[i], ShouldAlmostEqual, y[i], y[i]*1e-4)
				}
				So(estimator.MAE(y, pred), ShouldBeLessThan, 1e-3)
				So(estimator.R2(y, pred), ShouldAlmostEqual, 1, 1e-6)
			})

			Convey("And unknown or missing categories encode as zeros instead of failing", func() {
				pred, err := model.Predict(ctx, []estimator.Features{
					{Years: 3, City: "atlantis", JobLevel: ""},
					{Years: 3},
				})
				So(err, ShouldBeNil)
				So(pred[0], ShouldEqual, pred[1])
				So(pred[0], ShouldBeGreaterThan, 0)
			})

			Convey("And the artifact rebuilds an identical model", func() {
				rebuilt, err := estimator.FromArtifact(model.Artifact())
				So(err, ShouldBeNil)
				a, _ := model.Predict(ctx, rows)
				b, _ := rebuilt.Predict(ctx, rows)
				So(b, ShouldResemble, a)
				So(rebuilt.Artifact().TrainedOn, ShouldEqual, 20)
			})
		})

		Convey("When targets are not positive", func() {
			_, err := trainer.Fit(ctx, []estimator.Features{{Years: 1}}, []float64{0})
			So(errors.Is(err, estimator.ErrNonPositive), ShouldBeTrue)
		})

		Convey("When rows and targets differ", func() {
			_, err := trainer.Fit(ctx, []estimator.Features{{Years: 1}}, []float64{1, 2})
			So(errors.Is(err, estimator.ErrShapeMismatch), ShouldBeTrue)
		})

		Convey("When there is no data", func() {
			_, err := trainer.Fit(ctx, nil, nil)
			So(errors.Is(err, estimator.ErrNoTrainingData), ShouldBeTrue)
		})
	})

	Convey("Given the default penalty", t, func() {
		cities, levels := enumerations()
		trainer := estimator.NewRidgeTrainer(0, cities, levels)
		rows, y := logLinear(12)

		Convey("Then fitting shrinks but keeps the experience trend", func() {
			model, err := trainer.Fit(context.Background(), rows, y)
			So(err, ShouldBeNil)
			So(model.Artifact().Alpha, ShouldEqual, estimator.DefaultAlpha)
			pred, err := model.Predict(context.Background(), []estimator.Features{{Years: 1, City: "jakarta"}, {Years: 9, City: "jakarta"}})
			So(err, ShouldBeNil)
			So(pred[1], ShouldBeGreaterThan, pred[0])
		})
	})
}

func TestFromArtifactRejectsMalformed(t *testing.T) {
	_, err := estimator.FromArtifact(estimator.Artifact{Algorithm: "forest"})
	if !errors.Is(err, estimator.ErrInvalidArtifact) {
		t.Errorf("expected ErrInvalidArtifact for unknown algorithm, got %v", err)
	}
	_, err = estimator.FromArtifact(estimator.Artifact{
		Algorithm:    estimator.AlgorithmRidgeLog,
		Cities:       []string{"jakarta"},
		Coefficients: []float64{1},
	})
	if !errors.Is(err, estimator.ErrInvalidArtifact) {
		t.Errorf("expected ErrInvalidArtifact for short coefficients, got %v", err)
	}
}

func TestScoreMetrics(t *testing.T) {
	tests := []struct {
		name    string
		y, pred []float64
		mae, r2 float64
	}{
		{"perfect", []float64{1, 2, 3}, []float64{1, 2, 3}, 0, 1},
		{"offset", []float64{1, 2, 3}, []float64{2, 3, 4}, 1, -0.5},
		{"constant target exact", []float64{5, 5}, []float64{5, 5}, 0, 1},
		{"constant target missed", []float64{5, 5}, []float64{4, 6}, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := estimator.MAE(tt.y, tt.pred); math.Abs(got-tt.mae) > 1e-12 {
				t.Errorf("MAE = %v, want %v", got, tt.mae)
			}
			if got := estimator.R2(tt.y, tt.pred); math.Abs(got-tt.r2) > 1e-12 {
				t.Errorf("R2 = %v, want %v", got, tt.r2)
			}
		})
	}
}

type constant float64

func (c constant) Predict(_ context.Context, rows []estimator.Features) ([]float64, error) {
	out := make([]float64, len(rows))
	for i := range out {
		out[i] = float64(c)
	}
	return out, nil
}

func TestHandleSwap(t *testing.T) {
	h := estimator.NewHandle()
	if h.Loaded() || h.Load() != nil {
		t.Fatal("new handle must be empty")
	}
	h.Swap(constant(1), "v1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap := h.Load()
				out, _ := snap.Model.Predict(context.Background(), make([]estimator.Features, 2))
				if (snap.Version == "v1" && out[0] != 1) || (snap.Version == "v2" && out[0] != 2) {
					t.Errorf("snapshot %s served %v", snap.Version, out[0])
				}
			}
		}()
	}
	prev := h.Swap(constant(2), "v2")
	wg.Wait()

	if prev.Version != "v1" || h.Load().Version != "v2" {
		t.Errorf("unexpected swap result prev=%s current=%s", prev.Version, h.Load().Version)
	}
}
