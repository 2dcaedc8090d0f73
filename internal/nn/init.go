package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/gradnet/internal/matrix"
)

// ScaledUniform draws weights from U(-1, 1) scaled by sqrt(2/fanIn).
//
// This is the Dense initializer.
func ScaledUniform(rows, cols, fanIn int, rng *rand.Rand) *matrix.Matrix {
	return matrix.Random(rows, cols, -1, 1, rng).Scale(math.Sqrt(2.0 / float64(fanIn)))
}

// HeNormal draws weights from N(0, 2/fanIn).
//
// This is the Conv2D initializer, with fanIn = k*k*channels.
func HeNormal(rows, cols, fanIn int, rng *rand.Rand) *matrix.Matrix {
	std := math.Sqrt(2.0 / float64(fanIn))
	m := matrix.New(rows, cols)
	data := m.Data()
	for i := range data {
		data[i] = rng.NormFloat64() * std
	}
	return m
}

// Uniform draws weights from U(-bound, bound).
//
// Sequence models use bound = sqrt(1/hidden).
func Uniform(rows, cols int, bound float64, rng *rand.Rand) *matrix.Matrix {
	return matrix.Random(rows, cols, -bound, bound, rng)
}
