package optim

import (
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/gradnet/internal/matrix"
	"github.com/born-ml/gradnet/internal/nn"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Example:
//
//	opt := optim.NewSGD(optim.SGDConfig{LR: 0.01, Momentum: 0.9})
type SGD struct {
	lr         float64
	momentum   float64
	velocities map[*nn.Parameter]*matrix.Matrix
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter]*matrix.Matrix),
	}
}

// Step performs a single optimization step. Parameters with no gradient are skipped.
func (s *SGD) Step(params []*nn.Parameter) {
	for _, p := range params {
		grad := p.Grad()
		if grad == nil {
			continue
		}
		if s.momentum == 0 {
			floats.AddScaled(p.Value().Data(), -s.lr, grad.Data())
			continue
		}

		v, ok := s.velocities[p]
		if !ok {
			rows, cols := p.Value().Shape()
			v = matrix.New(rows, cols)
			s.velocities[p] = v
		}
		vd := v.Data()
		floats.Scale(s.momentum, vd)
		floats.Add(vd, grad.Data())
		floats.AddScaled(p.Value().Data(), -s.lr, vd)
	}
}

// ZeroGrad clears gradients for params.
func (s *SGD) ZeroGrad(params []*nn.Parameter) { zeroGrad(params) }

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 { return s.lr }

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float64) { s.lr = lr }

// StateDict returns the velocity buffers. Without momentum it is empty.
//
// State keys: "velocity.{i}".
func (s *SGD) StateDict(params []*nn.Parameter) map[string]*matrix.Matrix {
	out := make(map[string]*matrix.Matrix)
	if s.momentum == 0 {
		return out
	}
	for i, p := range params {
		if v, ok := s.velocities[p]; ok {
			out[stateKey("velocity", i)] = v.Clone()
		}
	}
	return out
}

// LoadStateDict restores velocity buffers. Without momentum it ignores state.
func (s *SGD) LoadStateDict(params []*nn.Parameter, state map[string]*matrix.Matrix) error {
	if s.momentum == 0 {
		return nil
	}
	for i, p := range params {
		delete(s.velocities, p)
		v, err := loadBuffer(state, "velocity", i, p)
		if err != nil {
			return err
		}
		if v != nil {
			s.velocities[p] = v
		}
	}
	return nil
}
