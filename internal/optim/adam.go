package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/gradnet/internal/matrix"
	"github.com/born-ml/gradnet/internal/nn"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule, per parameter:
//
//	t = t + 1
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)   // Parameter update
//
// The step counter t is kept per parameter, so parameters stepped at
// different rates (a sequence model updated on its own schedule, say) each
// get their own bias correction.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	state map[*nn.Parameter]*adamState
}

type adamState struct {
	m, v *matrix.Matrix
	t    int
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer. Zero config fields take their defaults.
func NewAdam(config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam{
		lr:    config.LR,
		beta1: config.Betas[0],
		beta2: config.Betas[1],
		eps:   config.Eps,
		state: make(map[*nn.Parameter]*adamState),
	}
}

// Step performs a single Adam update on every parameter with a gradient.
func (a *Adam) Step(params []*nn.Parameter) {
	for _, p := range params {
		grad := p.Grad()
		if grad == nil {
			continue
		}
		s := a.stateFor(p)
		s.t++
		bc1 := 1 - math.Pow(a.beta1, float64(s.t))
		bc2 := 1 - math.Pow(a.beta2, float64(s.t))

		g, m, v, w := grad.Data(), s.m.Data(), s.v.Data(), p.Value().Data()
		for i := range w {
			m[i] = a.beta1*m[i] + (1-a.beta1)*g[i]
			v[i] = a.beta2*v[i] + (1-a.beta2)*g[i]*g[i]
			mHat := m[i] / bc1
			vHat := v[i] / bc2
			w[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
		}
	}
}

func (a *Adam) stateFor(p *nn.Parameter) *adamState {
	s, ok := a.state[p]
	if !ok {
		rows, cols := p.Value().Shape()
		s = &adamState{m: matrix.New(rows, cols), v: matrix.New(rows, cols)}
		a.state[p] = s
	}
	return s
}

// ZeroGrad clears gradients for params.
func (a *Adam) ZeroGrad(params []*nn.Parameter) { zeroGrad(params) }

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 { return a.lr }

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) { a.lr = lr }

// Timestep returns how many updates p has received.
func (a *Adam) Timestep(p *nn.Parameter) int {
	if s, ok := a.state[p]; ok {
		return s.t
	}
	return 0
}

// StateDict exports moments and step counters of params that have been stepped.
//
// State keys: "m.{i}", "v.{i}" (parameter-shaped) and "t.{i}" (1x1).
func (a *Adam) StateDict(params []*nn.Parameter) map[string]*matrix.Matrix {
	out := make(map[string]*matrix.Matrix)
	for i, p := range params {
		s, ok := a.state[p]
		if !ok {
			continue
		}
		out[stateKey("m", i)] = s.m.Clone()
		out[stateKey("v", i)] = s.v.Clone()
		out[stateKey("t", i)] = matrix.FromSlice(1, 1, []float64{float64(s.t)})
	}
	return out
}

// LoadStateDict replaces the state of params with what StateDict exported.
// Parameters absent from state start fresh.
func (a *Adam) LoadStateDict(params []*nn.Parameter, state map[string]*matrix.Matrix) error {
	for i, p := range params {
		delete(a.state, p)
		m, err := loadBuffer(state, "m", i, p)
		if err != nil {
			return err
		}
		v, err := loadBuffer(state, "v", i, p)
		if err != nil {
			return err
		}
		t, ok := state[stateKey("t", i)]
		if m == nil && v == nil && !ok {
			continue
		}
		if m == nil || v == nil || !ok || t.Size() != 1 {
			return fmt.Errorf("incomplete adam state for parameter %d (%s)", i, p.Name())
		}
		a.state[p] = &adamState{m: m, v: v, t: int(t.Data()[0])}
	}
	return nil
}
