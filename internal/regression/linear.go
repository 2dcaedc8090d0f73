package regression

import (
	"log/slog"
	"math/rand"

	"github.com/born-ml/gradnet/internal/matrix"
)

// LinearRegression fits y ≈ x·w + b by minimising the mean squared error.
type LinearRegression struct {
	model
	cfg Config
}

// NewLinear creates an unfitted linear regression.
func NewLinear(cfg Config) *LinearRegression {
	return &LinearRegression{cfg: cfg.withDefaults()}
}

// Fit initialises w uniformly in [-1, 1) from rng and b to zero, then runs
// the configured number of gradient steps. Every LogEvery iterations the
// training R² is logged at Debug.
func (r *LinearRegression) Fit(x, y *matrix.Matrix, rng *rand.Rand) {
	checkTargets("LinearRegression.Fit", x, y)

	r.w = matrix.Random(x.Cols(), 1, -1, 1, rng)
	r.b = 0
	xt := x.Transpose()
	for i := 0; i < r.cfg.Iterations; i++ {
		r.descend(xt, r.Predict(x), y, r.cfg.LR)
		if i%r.cfg.LogEvery == 0 {
			r.cfg.Logger.Debug("linear regression",
				slog.Int("iteration", i),
				slog.Float64("r2", r.Score(x, y)),
			)
		}
	}
}

// Predict returns x·w + b, one row per sample.
func (r *LinearRegression) Predict(x *matrix.Matrix) *matrix.Matrix {
	return r.linear("LinearRegression.Predict", x)
}

// Score returns the coefficient of determination R² of the predictions for x
// against y. A constant y scores 1 when predicted exactly and 0 otherwise.
func (r *LinearRegression) Score(x, y *matrix.Matrix) float64 {
	checkTargets("LinearRegression.Score", x, y)
	pred := r.Predict(x)

	n := y.Rows()
	mean := y.Sum() / float64(n)
	var total, residual float64
	for i := 0; i < n; i++ {
		d := y.At(i, 0) - mean
		total += d * d
		e := y.At(i, 0) - pred.At(i, 0)
		residual += e * e
	}
	if total == 0 {
		if residual == 0 {
			return 1
		}
		return 0
	}
	return 1 - residual/total
}
