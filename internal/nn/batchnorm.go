package nn

import (
	"math"

	"github.com/born-ml/gradnet/internal/matrix"
)

// BatchNorm defaults.
const (
	BatchNormMomentum = 0.9
	BatchNormEps      = 1e-8
)

// BatchNorm normalizes each feature column over the batch.
//
// Training:
//
//	μ, σ² = batch mean and (biased) variance per column
//	x̂ = (x - μ) / sqrt(σ² + eps)
//	y = g ⊙ x̂ + b
//	running = momentum·running + (1-momentum)·batch
//
// Inference uses the running statistics instead of the batch.
//
// Running mean starts at 0 and running variance at 1, so an untrained layer
// is the identity at inference.
type BatchNorm struct {
	features int
	gamma    *Parameter
	beta     *Parameter
	mean     *matrix.Matrix // running mean [1, features]
	variance *matrix.Matrix // running variance [1, features]
	momentum float64
	eps      float64
	training bool

	// Cache of the last forward.
	xhat     *matrix.Matrix
	stdInv   []float64
	batchFwd bool // last forward used batch statistics
}

// NewBatchNorm creates a batch-norm layer over features columns, in training mode.
func NewBatchNorm(features int) *BatchNorm {
	return &BatchNorm{
		features: features,
		gamma:    NewParameter("gamma", matrix.Ones(1, features)),
		beta:     NewParameter("beta", matrix.New(1, features)),
		mean:     matrix.New(1, features),
		variance: matrix.Ones(1, features),
		momentum: BatchNormMomentum,
		eps:      BatchNormEps,
		training: true,
	}
}

// SetTraining switches between batch statistics (true) and running statistics.
func (bn *BatchNorm) SetTraining(training bool) { bn.training = training }

// RunningMean returns the running mean.
func (bn *BatchNorm) RunningMean() *matrix.Matrix { return bn.mean }

// RunningVar returns the running variance.
func (bn *BatchNorm) RunningVar() *matrix.Matrix { return bn.variance }

// Forward normalizes input.
func (bn *BatchNorm) Forward(input *matrix.Matrix) *matrix.Matrix {
	checkCols("BatchNorm.Forward", input, bn.features)
	n, f := input.Rows(), bn.features
	x := input.Data()

	mu := make([]float64, f)
	v := make([]float64, f)
	if bn.training && n > 0 {
		for i := 0; i < n; i++ {
			for j := 0; j < f; j++ {
				mu[j] += x[i*f+j]
			}
		}
		for j := range mu {
			mu[j] /= float64(n)
		}
		for i := 0; i < n; i++ {
			for j := 0; j < f; j++ {
				d := x[i*f+j] - mu[j]
				v[j] += d * d
			}
		}
		rm, rv := bn.mean.Data(), bn.variance.Data()
		for j := range v {
			v[j] /= float64(n)
			rm[j] = bn.momentum*rm[j] + (1-bn.momentum)*mu[j]
			rv[j] = bn.momentum*rv[j] + (1-bn.momentum)*v[j]
		}
		bn.batchFwd = true
	} else {
		copy(mu, bn.mean.Data())
		copy(v, bn.variance.Data())
		bn.batchFwd = false
	}

	bn.stdInv = make([]float64, f)
	for j := range v {
		bn.stdInv[j] = 1 / math.Sqrt(v[j]+bn.eps)
	}

	bn.xhat = matrix.New(n, f)
	out := matrix.New(n, f)
	xh, o := bn.xhat.Data(), out.Data()
	g, b := bn.gamma.Value().Data(), bn.beta.Value().Data()
	for i := 0; i < n; i++ {
		for j := 0; j < f; j++ {
			k := i*f + j
			xh[k] = (x[k] - mu[j]) * bn.stdInv[j]
			o[k] = g[j]*xh[k] + b[j]
		}
	}
	return out
}

// Backward sets dg = Σ δ⊙x̂ and db = Σ δ, and returns
//
//	dx = g·stdInv/N · (N·δ - db - x̂·dg)
//
// which accounts for the batch mean and variance depending on x. After an
// inference forward the statistics are constants and dx = g·stdInv·δ.
func (bn *BatchNorm) Backward(delta *matrix.Matrix) *matrix.Matrix {
	if bn.xhat == nil {
		panic("BatchNorm.Backward: called before Forward")
	}
	checkShape("BatchNorm.Backward", delta, bn.xhat.Rows(), bn.features)
	n, f := delta.Rows(), bn.features
	d, xh := delta.Data(), bn.xhat.Data()

	dg := matrix.New(1, f)
	db := matrix.New(1, f)
	dgv, dbv := dg.Data(), db.Data()
	for i := 0; i < n; i++ {
		for j := 0; j < f; j++ {
			k := i*f + j
			dgv[j] += d[k] * xh[k]
			dbv[j] += d[k]
		}
	}

	prev := matrix.New(n, f)
	p := prev.Data()
	g := bn.gamma.Value().Data()
	nf := float64(n)
	for i := 0; i < n; i++ {
		for j := 0; j < f; j++ {
			k := i*f + j
			if bn.batchFwd {
				p[k] = g[j] * bn.stdInv[j] / nf * (nf*d[k] - dbv[j] - xh[k]*dgv[j])
			} else {
				p[k] = g[j] * bn.stdInv[j] * d[k]
			}
		}
	}

	bn.gamma.SetGrad(dg)
	bn.beta.SetGrad(db)
	return prev
}

// Parameters returns gamma and beta.
func (bn *BatchNorm) Parameters() []*Parameter {
	return []*Parameter{bn.gamma, bn.beta}
}

// State returns gamma, beta, running mean and running variance, in that order.
func (bn *BatchNorm) State() []Tensor {
	return []Tensor{
		{Name: "gamma", Value: bn.gamma.Value()},
		{Name: "beta", Value: bn.beta.Value()},
		{Name: "running_mean", Value: bn.mean},
		{Name: "running_var", Value: bn.variance},
	}
}
