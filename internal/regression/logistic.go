package regression

import (
	"log/slog"
	"math"

	"github.com/born-ml/gradnet/internal/matrix"
	"github.com/born-ml/gradnet/internal/nn"
)

// logEps keeps log away from zero in the cross-entropy.
const logEps = 1e-15

// LogisticRegression is a binary classifier p = sigmoid(x·w + b). Targets
// are 0 or 1.
type LogisticRegression struct {
	model
	cfg Config
}

// NewLogistic creates an unfitted logistic regression.
func NewLogistic(cfg Config) *LogisticRegression {
	return &LogisticRegression{cfg: cfg.withDefaults()}
}

// Fit starts from zero weights and runs the configured number of gradient
// steps on the binary cross-entropy. Every LogEvery iterations the training
// loss is logged at Debug.
func (r *LogisticRegression) Fit(x, y *matrix.Matrix) {
	checkTargets("LogisticRegression.Fit", x, y)

	r.w = matrix.New(x.Cols(), 1)
	r.b = 0
	xt := x.Transpose()
	for i := 0; i < r.cfg.Iterations; i++ {
		r.descend(xt, r.PredictProba(x), y, r.cfg.LR)
		if i%r.cfg.LogEvery == 0 {
			r.cfg.Logger.Debug("logistic regression",
				slog.Int("iteration", i),
				slog.Float64("loss", r.Loss(x, y)),
			)
		}
	}
}

// PredictProba returns the probability of class 1 for each sample.
func (r *LogisticRegression) PredictProba(x *matrix.Matrix) *matrix.Matrix {
	return r.linear("LogisticRegression.PredictProba", x).Apply(nn.Sigmoid)
}

// Predict returns 1 where PredictProba >= 0.5 and 0 elsewhere.
func (r *LogisticRegression) Predict(x *matrix.Matrix) *matrix.Matrix {
	return r.PredictProba(x).Apply(func(p float64) float64 {
		if p >= 0.5 {
			return 1
		}
		return 0
	})
}

// Loss returns the mean binary cross-entropy of the predictions for x.
func (r *LogisticRegression) Loss(x, y *matrix.Matrix) float64 {
	checkTargets("LogisticRegression.Loss", x, y)
	p := r.PredictProba(x)
	var sum float64
	for i := 0; i < y.Rows(); i++ {
		t, q := y.At(i, 0), p.At(i, 0)
		sum -= t*math.Log(q+logEps) + (1-t)*math.Log(1-q+logEps)
	}
	return sum / float64(y.Rows())
}

// Score returns the fraction of samples whose predicted class equals y.
func (r *LogisticRegression) Score(x, y *matrix.Matrix) float64 {
	checkTargets("LogisticRegression.Score", x, y)
	pred := r.Predict(x)
	correct := 0
	for i := 0; i < y.Rows(); i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(y.Rows())
}
