package estimator

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/salaryd/internal/domain/category"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// AlgorithmRidgeLog identifies ridge regression over a log-transformed target.
const AlgorithmRidgeLog = "ridge-log"

// DefaultAlpha is the L2 penalty used when none is configured.
const DefaultAlpha = 1.0

// Ridge is a fitted L2-regularized linear model. Inputs are encoded as
// [years, one-hot(city), one-hot(job level)]; unknown or missing categories
// encode as all zeros. When logTarget is set the model was fit on ln(y) and
// predictions are exponentiated back.
type Ridge struct {
	alpha     float64
	logTarget bool
	cities    category.Enumeration
	jobLevels category.Enumeration
	coef      []float64
	intercept float64
	trainedOn int
}

// RidgeTrainer fits Ridge models over fixed enumerations.
type RidgeTrainer struct {
	Alpha     float64
	LogTarget bool
	Cities    category.Enumeration
	JobLevels category.Enumeration
}

// NewRidgeTrainer returns a log-target trainer with the given penalty.
func NewRidgeTrainer(alpha float64, cities, jobLevels category.Enumeration) *RidgeTrainer {
	if alpha <= 0 {
		alpha = DefaultAlpha
	}
	return &RidgeTrainer{Alpha: alpha, LogTarget: true, Cities: cities, JobLevels: jobLevels}
}

// Fit solves (XcᵀXc + αI)w = Xcᵀyc on centered data; the intercept is not
// penalized.
func (t *RidgeTrainer) Fit(ctx context.Context, rows []Features, y []float64) (Model, error) {
	if len(rows) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(rows) != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(rows), len(y))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := &Ridge{
		alpha:     t.Alpha,
		logTarget: t.LogTarget,
		cities:    t.Cities,
		jobLevels: t.JobLevels,
		trainedOn: len(rows),
	}

	target := make([]float64, len(y))
	for i, v := range y {
		if !t.LogTarget {
			target[i] = v
			continue
		}
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: y[%d]=%v", ErrNonPositive, i, v)
		}
		target[i] = math.Log(v)
	}

	n, p := len(rows), r.width()
	x := mat.NewDense(n, p, nil)
	for i, row := range rows {
		r.encode(row, x.RawRowView(i))
	}

	means := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, x)
		means[j] = stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			x.Set(i, j, x.At(i, j)-means[j])
		}
	}
	yMean := stat.Mean(target, nil)
	yc := mat.NewVecDense(n, nil)
	for i, v := range target {
		yc.SetVec(i, v-yMean)
	}

	var gram mat.Dense
	gram.Mul(x.T(), x)
	for j := 0; j < p; j++ {
		gram.Set(j, j, gram.At(j, j)+r.alpha)
	}
	var rhs mat.VecDense
	rhs.MulVec(x.T(), yc)

	var w mat.VecDense
	if err := w.SolveVec(&gram, &rhs); err != nil {
		if _, ill := err.(mat.Condition); !ill {
			return nil, fmt.Errorf("%w: %v", ErrSolve, err)
		}
	}

	r.coef = make([]float64, p)
	r.intercept = yMean
	for j := 0; j < p; j++ {
		r.coef[j] = w.AtVec(j)
		r.intercept -= means[j] * r.coef[j]
	}
	for _, c := range r.coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: non-finite coefficient", ErrSolve)
		}
	}
	return r, nil
}

// Predict returns one prediction per row.
func (r *Ridge) Predict(ctx context.Context, rows []Features) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	buf := make([]float64, r.width())
	for i, row := range rows {
		r.encode(row, buf)
		v := r.intercept
		for j, c := range r.coef {
			v += c * buf[j]
		}
		if r.logTarget {
			v = math.Exp(v)
		}
		out[i] = v
	}
	return out, nil
}

func (r *Ridge) width() int {
	return 1 + r.cities.Len() + r.jobLevels.Len()
}

func (r *Ridge) encode(row Features, dst []float64) {
	dst[0] = row.Years
	nc := r.cities.Len()
	r.cities.OneHot(row.City, dst[1:1+nc])
	r.jobLevels.OneHot(row.JobLevel, dst[1+nc:])
}
