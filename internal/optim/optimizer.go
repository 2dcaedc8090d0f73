// Package optim implements the optimizers that apply layer gradients.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - Adam: Adaptive Moment Estimation (the default)
//   - SGD: Stochastic Gradient Descent with momentum
//
// Optimizers are not bound to a parameter list. Each Step receives the
// parameters to update and keeps per-parameter state keyed by the
// *nn.Parameter, so one optimizer can serve a whole network.
//
// Example usage:
//
//	opt := optim.NewAdam(optim.AdamConfig{LR: 0.001})
//
//	out := net.Predict(x)
//	... backward through the layers ...
//	opt.Step(net.Parameters())
//	opt.ZeroGrad(net.Parameters())
package optim

import (
	"fmt"

	"github.com/born-ml/gradnet/internal/matrix"
	"github.com/born-ml/gradnet/internal/nn"
)

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to parameters
//   - ZeroGrad: Clear gradients before next iteration
//   - GetLR/SetLR: Read and change the learning rate
//   - StateDict/LoadStateDict: Export and restore internal buffers
type Optimizer interface {
	// Step updates every parameter that has a gradient, in place.
	// Parameters with a nil Grad are skipped.
	Step(params []*nn.Parameter)

	// ZeroGrad clears the gradients of params.
	ZeroGrad(params []*nn.Parameter)

	// GetLR returns the current learning rate.
	GetLR() float64

	// SetLR changes the learning rate for subsequent steps.
	SetLR(lr float64)

	// StateDict returns the optimizer buffers for params, keyed by
	// "{buffer}.{index}" where index is the position in params.
	StateDict(params []*nn.Parameter) map[string]*matrix.Matrix

	// LoadStateDict restores buffers exported by StateDict for the same
	// parameter order.
	LoadStateDict(params []*nn.Parameter, state map[string]*matrix.Matrix) error
}

// Compile-time checks.
var (
	_ Optimizer  = (*Adam)(nil)
	_ Optimizer  = (*SGD)(nil)
	_ nn.Updater = (*Adam)(nil)
)

func zeroGrad(params []*nn.Parameter) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

// stateKey names buffer i in a state dict.
func stateKey(buffer string, i int) string {
	return fmt.Sprintf("%s.%d", buffer, i)
}

// loadBuffer fetches and shape-checks buffer i for p. A missing buffer returns nil.
func loadBuffer(state map[string]*matrix.Matrix, buffer string, i int, p *nn.Parameter) (*matrix.Matrix, error) {
	m, ok := state[stateKey(buffer, i)]
	if !ok {
		return nil, nil
	}
	v := p.Value()
	if m.Rows() != v.Rows() || m.Cols() != v.Cols() {
		return nil, fmt.Errorf("%s shape mismatch for parameter %d (%s): expected %dx%d, got %dx%d",
			buffer, i, p.Name(), v.Rows(), v.Cols(), m.Rows(), m.Cols())
	}
	return m.Clone(), nil
}
