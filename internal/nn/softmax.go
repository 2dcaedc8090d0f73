package nn

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/gradnet/internal/matrix"
)

// Softmax normalizes each row into a probability distribution.
//
// Backward passes delta through unchanged. That is only the correct gradient
// when delta is already prediction - target from a cross-entropy loss on the
// softmax output, which is what Network.Fit supplies. Pairing Softmax with any
// other loss gives wrong gradients.
type Softmax struct{}

// NewSoftmax creates a softmax layer.
func NewSoftmax() *Softmax { return &Softmax{} }

// Forward computes exp(x - max) / Σ exp(x - max) per row.
func (s *Softmax) Forward(input *matrix.Matrix) *matrix.Matrix {
	out := input.Clone()
	data := out.Data()
	cols := out.Cols()
	if cols == 0 {
		return out
	}
	for i := 0; i < out.Rows(); i++ {
		row := data[i*cols : (i+1)*cols]
		m := floats.Max(row)
		for j, v := range row {
			row[j] = math.Exp(v - m)
		}
		floats.Scale(1/floats.Sum(row), row)
	}
	return out
}

// Backward returns a copy of delta.
func (s *Softmax) Backward(delta *matrix.Matrix) *matrix.Matrix {
	return delta.Clone()
}
