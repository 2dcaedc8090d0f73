// Package nn implements the layers of a gradnet network.
//
// This package provides:
//   - Layer: the forward/backward contract every layer satisfies
//   - Parameter: trainable matrices with their gradients
//   - Layers: Activation, Dense, Conv2D, MaxPool, BatchNorm, Dropout, ZeroPad, Softmax
//   - Sequence models: Recurrent, LSTM
//   - Losses: MSE, CrossEntropy and their gradients
//
// Layers compute gradients but never apply them. After a backward sweep the
// caller hands every Parameter to an optimizer, which keeps the moment state.
//
// Samples are matrix rows. Image data is flattened channel-major into the
// columns: column c*h*w + i*w + j holds pixel (i, j) of channel c.
package nn

import (
	"github.com/born-ml/gradnet/internal/matrix"
)

// Layer is the contract every network layer satisfies.
//
// Forward caches whatever Backward needs, overwriting the previous cache.
// Backward takes the loss gradient with respect to the last Forward output,
// stores parameter gradients in the layer's Parameters, and returns the
// gradient with respect to that Forward's input.
type Layer interface {
	Forward(input *matrix.Matrix) *matrix.Matrix
	Backward(delta *matrix.Matrix) *matrix.Matrix
}

// Trainable is implemented by layers with parameters.
type Trainable interface {
	// Parameters returns the layer's parameters in a fixed order.
	Parameters() []*Parameter
}

// Stateful is implemented by layers with persisted buffers.
type Stateful interface {
	// State returns every persisted buffer in save order. Values are the
	// live matrices, so loading into them restores the layer.
	State() []Tensor
}

// ModeSetter is implemented by layers that behave differently at inference.
type ModeSetter interface {
	SetTraining(training bool)
}

// Updater applies one optimization step to a set of parameters.
// optim.Optimizer satisfies it.
type Updater interface {
	Step(params []*Parameter)
}

// Tensor names a persisted buffer.
type Tensor struct {
	Name  string
	Value *matrix.Matrix
}

// paramState lists parameters as tensors.
func paramState(params ...*Parameter) []Tensor {
	out := make([]Tensor, len(params))
	for i, p := range params {
		out[i] = Tensor{Name: p.Name(), Value: p.Value()}
	}
	return out
}

// checkCols panics unless m has the expected column count.
func checkCols(op string, m *matrix.Matrix, cols int) {
	if m.Cols() != cols {
		panic(matrix.DimensionError(op, "input has %d columns, want %d", m.Cols(), cols))
	}
}

// checkShape panics unless m is rows x cols.
func checkShape(op string, m *matrix.Matrix, rows, cols int) {
	if m.Rows() != rows || m.Cols() != cols {
		panic(matrix.DimensionError(op, "got %dx%d, want %dx%d", m.Rows(), m.Cols(), rows, cols))
	}
}
