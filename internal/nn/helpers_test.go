package nn

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/gradnet/internal/matrix"
)

const gradTol = 1e-6

func newRand() *rand.Rand { return rand.New(rand.NewSource(7)) }

func dot(a, b *matrix.Matrix) float64 { return floats.Dot(a.Data(), b.Data()) }

// assertPanicsWith checks that f panics with a *matrix.Error of the given kind.
func assertPanicsWith(t *testing.T, kind error, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.True(t, errors.Is(err, kind), "got %v, want %v", err, kind)
	}()
	f()
}

// numericGrad differentiates loss with respect to the values in v, which it
// perturbs in place and restores.
func numericGrad(v []float64, loss func() float64) []float64 {
	orig := append([]float64(nil), v...)
	g := fd.Gradient(nil, func(w []float64) float64 {
		copy(v, w)
		return loss()
	}, orig, &fd.Settings{Formula: fd.Central})
	copy(v, orig)
	return g
}

// checkLayerGrads compares Backward against central differences of
// Σ Forward(x) ⊙ delta, for the input and every parameter.
func checkLayerGrads(t *testing.T, l Layer, x, delta *matrix.Matrix) {
	t.Helper()
	l.Forward(x)
	prev := l.Backward(delta)

	var params []*Parameter
	if tr, ok := l.(Trainable); ok {
		params = tr.Parameters()
	}
	grads := make([]*matrix.Matrix, len(params))
	for i, p := range params {
		require.NotNil(t, p.Grad(), p.Name())
		grads[i] = p.Grad().Clone()
	}

	in := x.Clone()
	loss := func() float64 { return dot(l.Forward(in), delta) }

	assert.InDeltaSlice(t, numericGrad(in.Data(), loss), prev.Data(), gradTol, "input gradient")
	for i, p := range params {
		assert.InDeltaSlice(t, numericGrad(p.Value().Data(), loss), grads[i].Data(), gradTol, p.Name())
	}
}

// checkSequenceGrads is checkLayerGrads for sequence models.
func checkSequenceGrads(t *testing.T, s Sequence, steps, deltas []*matrix.Matrix) {
	t.Helper()
	s.Forward(steps)
	prev := s.Backward(deltas)
	require.Len(t, prev, len(steps))

	params := s.Parameters()
	grads := make([]*matrix.Matrix, len(params))
	for i, p := range params {
		require.NotNil(t, p.Grad(), p.Name())
		grads[i] = p.Grad().Clone()
	}

	in := cloneAll(steps)
	loss := func() float64 {
		var sum float64
		for i, a := range s.Forward(in) {
			sum += dot(a, deltas[i])
		}
		return sum
	}

	for i := range in {
		assert.InDeltaSlice(t, numericGrad(in[i].Data(), loss), prev[i].Data(), gradTol, "step %d", i)
	}
	for i, p := range params {
		assert.InDeltaSlice(t, numericGrad(p.Value().Data(), loss), grads[i].Data(), gradTol, p.Name())
	}
}

func randomSteps(n, rows, cols int, rng *rand.Rand) []*matrix.Matrix {
	out := make([]*matrix.Matrix, n)
	for i := range out {
		out[i] = matrix.Random(rows, cols, -1, 1, rng)
	}
	return out
}
