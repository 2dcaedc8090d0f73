// Package regression provides linear and logistic regression fitted by
// full-batch gradient descent.
//
// Both models take samples as rows of x and a single target column y. They
// are baselines for the networks in package network and share its
// conventions: shape violations panic with *matrix.Error, progress is
// logged at Debug.
package regression

import (
	"log/slog"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/gradnet/internal/matrix"
)

// Config holds the gradient descent settings shared by both models.
type Config struct {
	LR         float64      // Learning rate (default: 0.01)
	Iterations int          // Gradient steps per Fit (default: 1000)
	LogEvery   int          // Iterations between progress logs (default: 100)
	Logger     *slog.Logger // Progress logger (default: slog.Default())
}

func (c Config) withDefaults() Config {
	if c.LR == 0 {
		c.LR = 0.01
	}
	if c.Iterations == 0 {
		c.Iterations = 1000
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 100
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// model is the affine map x·w + b both regressions fit.
type model struct {
	w *matrix.Matrix // features x 1
	b float64
}

func (m *model) linear(op string, x *matrix.Matrix) *matrix.Matrix {
	if m.w == nil {
		panic(op + ": called before Fit")
	}
	if x.Cols() != m.w.Rows() {
		panic(matrix.DimensionError(op, "%d features, fitted on %d", x.Cols(), m.w.Rows()))
	}
	return x.Mul(m.w).AddScalar(m.b)
}

// descend applies one gradient step for the residual pred - y:
// dw = xᵀ·(pred - y)/n, db = mean(pred - y).
func (m *model) descend(xt, pred, y *matrix.Matrix, lr float64) {
	residual := pred.Sub(y)
	n := float64(y.Rows())
	dw := xt.Mul(residual)
	floats.AddScaled(m.w.Data(), -lr/n, dw.Data())
	m.b -= lr * floats.Sum(residual.Data()) / n
}

// Weights returns a copy of the fitted weights, features x 1.
func (m *model) Weights() *matrix.Matrix {
	if m.w == nil {
		return nil
	}
	return m.w.Clone()
}

// Bias returns the fitted intercept.
func (m *model) Bias() float64 { return m.b }

func checkTargets(op string, x, y *matrix.Matrix) {
	if y.Cols() != 1 {
		panic(matrix.DimensionError(op, "target has %d columns, want 1", y.Cols()))
	}
	if x.Rows() != y.Rows() {
		panic(matrix.DimensionError(op, "%d samples in x, %d in y", x.Rows(), y.Rows()))
	}
	if x.Rows() == 0 {
		panic(matrix.RangeError(op, "no samples"))
	}
}
