package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/gradnet/internal/matrix"
)

// Sequence is a model unrolled over time steps.
//
// Each step is a column matrix [features, batch]; most callers use batch 1.
// Hidden state starts at zero for every Forward. Backward runs
// backpropagation through time over the whole rollout and leaves the summed
// gradients in Parameters; Update then applies a single optimizer step.
type Sequence interface {
	Forward(steps []*matrix.Matrix) []*matrix.Matrix
	Backward(deltas []*matrix.Matrix) []*matrix.Matrix
	Parameters() []*Parameter
	Update(u Updater)
}

// Recurrent is an Elman RNN:
//
//	a_t = tanh(Wax·x_t + Waa·a_{t-1} + ba)
//
// The hidden state a_t is the output of each step.
type Recurrent struct {
	input, hidden int
	wax, waa, ba  *Parameter

	xs, as []*matrix.Matrix
}

// NewRecurrent creates an RNN with weights drawn from U(±sqrt(1/hidden)) and a zero bias.
func NewRecurrent(input, hidden int, rng *rand.Rand) *Recurrent {
	s := math.Sqrt(1 / float64(hidden))
	return &Recurrent{
		input:  input,
		hidden: hidden,
		wax:    NewParameter("wax", Uniform(hidden, input, s, rng)),
		waa:    NewParameter("waa", Uniform(hidden, hidden, s, rng)),
		ba:     NewParameter("ba", matrix.New(hidden, 1)),
	}
}

// Hidden returns the hidden size.
func (r *Recurrent) Hidden() int { return r.hidden }

// Forward runs the rollout and returns the hidden state of every step.
func (r *Recurrent) Forward(steps []*matrix.Matrix) []*matrix.Matrix {
	r.xs = cloneAll(steps)
	r.as = make([]*matrix.Matrix, len(steps))

	var prev *matrix.Matrix
	for t, x := range steps {
		checkRows("Recurrent.Forward", x, r.input)
		if prev == nil {
			prev = matrix.New(r.hidden, x.Cols())
		}
		z := addColVector(r.wax.Value().Mul(x).Add(r.waa.Value().Mul(prev)), r.ba.Value())
		a := z.Apply(math.Tanh)
		r.as[t] = a
		prev = a
	}
	return cloneAll(r.as)
}

// Backward accumulates gradients over all steps and returns the gradient for each input step.
func (r *Recurrent) Backward(deltas []*matrix.Matrix) []*matrix.Matrix {
	if len(deltas) != len(r.as) {
		panic(matrix.DimensionError("Recurrent.Backward", "%d deltas for %d steps", len(deltas), len(r.as)))
	}
	dWax := matrix.New(r.hidden, r.input)
	dWaa := matrix.New(r.hidden, r.hidden)
	dba := matrix.New(r.hidden, 1)
	prev := make([]*matrix.Matrix, len(deltas))

	var daNext *matrix.Matrix
	for t := len(deltas) - 1; t >= 0; t-- {
		a := r.as[t]
		checkShape("Recurrent.Backward", deltas[t], a.Rows(), a.Cols())
		da := deltas[t]
		if daNext != nil {
			da = da.Add(daNext)
		}
		dz := da.Hadamard(tanhGrad(a))

		dWax = dWax.Add(dz.Mul(r.xs[t].Transpose()))
		if t > 0 {
			dWaa = dWaa.Add(dz.Mul(r.as[t-1].Transpose()))
		}
		dba = dba.Add(sumCols(dz))

		daNext = r.waa.Value().Transpose().Mul(dz)
		prev[t] = r.wax.Value().Transpose().Mul(dz)
	}

	r.wax.SetGrad(dWax)
	r.waa.SetGrad(dWaa)
	r.ba.SetGrad(dba)
	return prev
}

// Update applies one optimizer step to the accumulated gradients.
func (r *Recurrent) Update(u Updater) {
	u.Step(r.Parameters())
}

// Parameters returns Wax, Waa and ba.
func (r *Recurrent) Parameters() []*Parameter {
	return []*Parameter{r.wax, r.waa, r.ba}
}

// State returns Wax, Waa and ba.
func (r *Recurrent) State() []Tensor {
	return paramState(r.Parameters()...)
}

// addColVector adds the column vector v to every column of m.
func addColVector(m, v *matrix.Matrix) *matrix.Matrix {
	if v.Cols() != 1 || v.Rows() != m.Rows() {
		panic(matrix.DimensionError("nn.addColVector", "%dx%d column for %dx%d", v.Rows(), v.Cols(), m.Rows(), m.Cols()))
	}
	out := m.Clone()
	data, vd := out.Data(), v.Data()
	cols := out.Cols()
	for i := 0; i < out.Rows(); i++ {
		for j := 0; j < cols; j++ {
			data[i*cols+j] += vd[i]
		}
	}
	return out
}

// sumCols reduces the columns of m into one column.
func sumCols(m *matrix.Matrix) *matrix.Matrix {
	out := matrix.New(m.Rows(), 1)
	data, od := m.Data(), out.Data()
	cols := m.Cols()
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < cols; j++ {
			od[i] += data[i*cols+j]
		}
	}
	return out
}

// tanhGrad is 1 - a² for a = tanh(z).
func tanhGrad(a *matrix.Matrix) *matrix.Matrix {
	return a.Apply(func(v float64) float64 { return 1 - v*v })
}

// sigmoidGrad is s(1-s) for s = σ(z).
func sigmoidGrad(s *matrix.Matrix) *matrix.Matrix {
	return s.Apply(func(v float64) float64 { return v * (1 - v) })
}

func checkRows(op string, m *matrix.Matrix, rows int) {
	if m.Rows() != rows {
		panic(matrix.DimensionError(op, "step has %d rows, want %d", m.Rows(), rows))
	}
}

func cloneAll(ms []*matrix.Matrix) []*matrix.Matrix {
	out := make([]*matrix.Matrix, len(ms))
	for i, m := range ms {
		out[i] = m.Clone()
	}
	return out
}
