package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/gradnet/internal/matrix"
)

// LSTM is a long short-term memory layer.
//
// Per step:
//
//	f  = σ(Wfx·x + Wfa·a_{t-1} + bf)     forget gate
//	u  = σ(Wux·x + Wua·a_{t-1} + bu)     update gate
//	c~ = tanh(Wcx·x + Wca·a_{t-1} + bc)  candidate
//	o  = σ(Wox·x + Woa·a_{t-1} + bo)     output gate
//	c_t = f ⊙ c_{t-1} + u ⊙ c~
//	a_t = o ⊙ tanh(c_t)
//
// The hidden state a_t is the output of each step. bf starts at one so the
// cell remembers by default.
type LSTM struct {
	input, hidden int
	gates         [4]lstmGate

	xs    []*matrix.Matrix
	cache []lstmStep
}

// Gate order within LSTM.gates.
const (
	gateForget = iota
	gateUpdate
	gateCandidate
	gateOutput
)

type lstmGate struct {
	wx, wa, b *Parameter
}

type lstmStep struct {
	f, u, cand, o *matrix.Matrix
	c, a          *matrix.Matrix
}

// NewLSTM creates an LSTM with weights drawn from U(±sqrt(1/hidden)).
func NewLSTM(input, hidden int, rng *rand.Rand) *LSTM {
	s := math.Sqrt(1 / float64(hidden))
	l := &LSTM{input: input, hidden: hidden}
	for i, name := range []string{"f", "u", "c", "o"} {
		b := matrix.New(hidden, 1)
		if i == gateForget {
			b = matrix.Ones(hidden, 1)
		}
		l.gates[i] = lstmGate{
			wx: NewParameter("w"+name+"x", Uniform(hidden, input, s, rng)),
			wa: NewParameter("w"+name+"a", Uniform(hidden, hidden, s, rng)),
			b:  NewParameter("b"+name, b),
		}
	}
	return l
}

// Hidden returns the hidden size.
func (l *LSTM) Hidden() int { return l.hidden }

func (g *lstmGate) affine(x, a *matrix.Matrix) *matrix.Matrix {
	return addColVector(g.wx.Value().Mul(x).Add(g.wa.Value().Mul(a)), g.b.Value())
}

// Forward runs the rollout and returns the hidden state of every step.
func (l *LSTM) Forward(steps []*matrix.Matrix) []*matrix.Matrix {
	l.xs = cloneAll(steps)
	l.cache = make([]lstmStep, len(steps))
	out := make([]*matrix.Matrix, len(steps))

	var aPrev, cPrev *matrix.Matrix
	for t, x := range steps {
		checkRows("LSTM.Forward", x, l.input)
		if aPrev == nil {
			aPrev = matrix.New(l.hidden, x.Cols())
			cPrev = matrix.New(l.hidden, x.Cols())
		}
		var s lstmStep
		s.f = l.gates[gateForget].affine(x, aPrev).Apply(Sigmoid)
		s.u = l.gates[gateUpdate].affine(x, aPrev).Apply(Sigmoid)
		s.cand = l.gates[gateCandidate].affine(x, aPrev).Apply(math.Tanh)
		s.o = l.gates[gateOutput].affine(x, aPrev).Apply(Sigmoid)
		s.c = s.f.Hadamard(cPrev).Add(s.u.Hadamard(s.cand))
		s.a = s.o.Hadamard(s.c.Apply(math.Tanh))

		l.cache[t] = s
		out[t] = s.a.Clone()
		aPrev, cPrev = s.a, s.c
	}
	return out
}

// Backward accumulates gate gradients over all steps and returns the
// gradient for each input step.
func (l *LSTM) Backward(deltas []*matrix.Matrix) []*matrix.Matrix {
	if len(deltas) != len(l.cache) {
		panic(matrix.DimensionError("LSTM.Backward", "%d deltas for %d steps", len(deltas), len(l.cache)))
	}
	var dwx, dwa, db [4]*matrix.Matrix
	for i := range l.gates {
		dwx[i] = matrix.New(l.hidden, l.input)
		dwa[i] = matrix.New(l.hidden, l.hidden)
		db[i] = matrix.New(l.hidden, 1)
	}
	dx := make([]*matrix.Matrix, len(deltas))

	var daNext, dcNext *matrix.Matrix
	for t := len(deltas) - 1; t >= 0; t-- {
		s := l.cache[t]
		checkShape("LSTM.Backward", deltas[t], s.a.Rows(), s.a.Cols())

		cPrev := matrix.New(s.c.Rows(), s.c.Cols())
		if t > 0 {
			cPrev = l.cache[t-1].c
		}
		da := deltas[t]
		if daNext != nil {
			da = da.Add(daNext)
		}
		tanhC := s.c.Apply(math.Tanh)

		dc := da.Hadamard(s.o).Hadamard(tanhGrad(tanhC))
		if dcNext != nil {
			dc = dc.Add(dcNext)
		}

		var dz [4]*matrix.Matrix
		dz[gateOutput] = da.Hadamard(tanhC).Hadamard(sigmoidGrad(s.o))
		dz[gateCandidate] = dc.Hadamard(s.u).Hadamard(tanhGrad(s.cand))
		dz[gateUpdate] = dc.Hadamard(s.cand).Hadamard(sigmoidGrad(s.u))
		dz[gateForget] = dc.Hadamard(cPrev).Hadamard(sigmoidGrad(s.f))

		xT := l.xs[t].Transpose()
		var aPrevT *matrix.Matrix
		if t > 0 {
			aPrevT = l.cache[t-1].a.Transpose()
		}

		daNext = matrix.New(l.hidden, s.a.Cols())
		dx[t] = matrix.New(l.input, s.a.Cols())
		for i, g := range l.gates {
			dwx[i] = dwx[i].Add(dz[i].Mul(xT))
			if aPrevT != nil {
				dwa[i] = dwa[i].Add(dz[i].Mul(aPrevT))
			}
			db[i] = db[i].Add(sumCols(dz[i]))
			daNext = daNext.Add(g.wa.Value().Transpose().Mul(dz[i]))
			dx[t] = dx[t].Add(g.wx.Value().Transpose().Mul(dz[i]))
		}
		dcNext = dc.Hadamard(s.f)
	}

	for i, g := range l.gates {
		g.wx.SetGrad(dwx[i])
		g.wa.SetGrad(dwa[i])
		g.b.SetGrad(db[i])
	}
	return dx
}

// Update applies one optimizer step to the accumulated gradients.
func (l *LSTM) Update(u Updater) {
	u.Step(l.Parameters())
}

// Parameters returns, per gate in forget, update, candidate, output order,
// the input weights, recurrent weights and bias.
func (l *LSTM) Parameters() []*Parameter {
	out := make([]*Parameter, 0, 12)
	for _, g := range l.gates {
		out = append(out, g.wx, g.wa, g.b)
	}
	return out
}

// State returns Parameters as tensors.
func (l *LSTM) State() []Tensor {
	return paramState(l.Parameters()...)
}
