package nn

import (
	"math/rand"

	"github.com/born-ml/gradnet/internal/matrix"
)

// Dropout zeroes each activation with probability rate during training.
//
// Kept activations are not rescaled. To keep expected magnitudes aligned,
// inference multiplies the whole input by 1-rate instead.
type Dropout struct {
	rate     float64
	rng      *rand.Rand
	mask     *matrix.Matrix
	training bool
}

// NewDropout creates a dropout layer in training mode drawing masks from rng.
func NewDropout(rate float64, rng *rand.Rand) *Dropout {
	if rate < 0 || rate >= 1 {
		panic(matrix.RangeError("nn.NewDropout", "rate %v not in [0, 1)", rate))
	}
	return &Dropout{rate: rate, rng: rng, training: true}
}

// SetTraining switches between masking (true) and scaling.
func (d *Dropout) SetTraining(training bool) { d.training = training }

// Forward applies a fresh Bernoulli(1-rate) mask, or scales by 1-rate at inference.
func (d *Dropout) Forward(input *matrix.Matrix) *matrix.Matrix {
	if !d.training {
		d.mask = matrix.New(input.Rows(), input.Cols())
		d.mask.Fill(1 - d.rate)
		return input.Scale(1 - d.rate)
	}

	d.mask = matrix.New(input.Rows(), input.Cols())
	m := d.mask.Data()
	for i := range m {
		if d.rng.Float64() >= d.rate {
			m[i] = 1
		}
	}
	return input.Hadamard(d.mask)
}

// Backward returns delta ⊙ mask.
func (d *Dropout) Backward(delta *matrix.Matrix) *matrix.Matrix {
	if d.mask == nil {
		panic("Dropout.Backward: called before Forward")
	}
	return delta.Hadamard(d.mask)
}
