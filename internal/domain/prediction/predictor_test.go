package prediction_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/salaryd/internal/domain/batch"
	"github.com/okian/salaryd/internal/domain/category"
	"github.com/okian/salaryd/internal/domain/estimator"
	"github.com/okian/salaryd/internal/domain/prediction"
	. "github.com/smartystreets/goconvey/convey"
)

// recorder is an estimator that returns 1000*years + 0.004 and remembers
// every call.
type recorder struct {
	calls [][]estimator.Features
	err   error
	short bool
	nan   bool
}

func (r *recorder) Predict(_ context.Context, rows []estimator.Features) ([]float64, error) {
	r.calls = append(r.calls, rows)
	if r.err != nil {
		return nil, r.err
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = 1000*row.Years + 0.004
	}
	if r.nan {
		out[0] = math.NaN()
	}
	if r.short {
		return out[:len(out)-1], nil
	}
	return out, nil
}

func validator() *batch.Validator {
	return batch.NewValidator(category.New(category.DefaultCities...), category.New(category.DefaultJobLevels...))
}

func TestPredict(t *testing.T) {
	Convey("Given a validated batch without categorical fields", t, func() {
		b, err := validator().Validate([]string{"2.6", "3.0", "0.11"}, nil, nil)
		So(err, ShouldBeNil)
		est := &recorder{}

		Convey("When predicting", func() {
			res, err := prediction.Predict(context.Background(), est, b)

			Convey("Then experience is decoded and the estimator is called once", func() {
				So(err, ShouldBeNil)
				So(len(est.calls), ShouldEqual, 1)
				So(len(est.calls[0]), ShouldEqual, 3)
				So(res.InputYears, ShouldResemble, []float64{2.6, 3.0, 0.11})
				So(res.ConvertedYears, ShouldResemble, []float64{2.5, 3.0, 0.9167})
				So(res.City, ShouldBeNil)
				So(res.JobLevel, ShouldBeNil)
				So(res.Message, ShouldEqual, "predicted 3 salaries")
			})

			Convey("And predictions are rounded to 2 decimals", func() {
				So(res.PredictedSalary[0], ShouldEqual, 2500)
				So(res.PredictedSalary[2], ShouldEqual, 916.7)
			})
		})
	})

	Convey("Given a batch with city and job level", t, func() {
		b, err := validator().Validate([]string{"1.0", "4.6"}, []string{"Jakarta", "medan"}, []string{"junior", "LEAD"})
		So(err, ShouldBeNil)
		est := &recorder{}

		Convey("Then rows carry the normalized categories in fixed column order", func() {
			res, err := prediction.Predict(context.Background(), est, b)
			So(err, ShouldBeNil)
			So(est.calls[0][1], ShouldResemble, estimator.Features{Years: 4.5, City: "medan", JobLevel: "lead"})
			So(res.City, ShouldResemble, []string{"jakarta", "medan"})
			So(res.JobLevel, ShouldResemble, []string{"junior", "lead"})
		})
	})

	Convey("Given an estimator that fails", t, func() {
		b, _ := validator().Validate([]string{"1.0", "2.0"}, nil, nil)

		Convey("Then the error is a prediction failure", func() {
			_, err := prediction.Predict(context.Background(), &recorder{err: errors.New("matrix exploded")}, b)
			So(errors.Is(err, prediction.ErrPredictionFailure), ShouldBeTrue)

			_, err = prediction.Predict(context.Background(), &recorder{short: true}, b)
			So(errors.Is(err, prediction.ErrPredictionFailure), ShouldBeTrue)

			_, err = prediction.Predict(context.Background(), &recorder{nan: true}, b)
			So(errors.Is(err, prediction.ErrPredictionFailure), ShouldBeTrue)

			_, err = prediction.Predict(context.Background(), nil, b)
			So(errors.Is(err, prediction.ErrPredictionFailure), ShouldBeTrue)
		})
	})
}
