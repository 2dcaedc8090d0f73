package nn

import (
	"github.com/born-ml/gradnet/internal/matrix"
)

// Parameter is a trainable matrix together with the gradient computed for it
// by the most recent backward pass.
//
// Layers own their parameters and fill Grad during Backward; an optimizer
// reads Grad and updates Value in place.
//
// Example:
//
//	w := nn.NewParameter("weight", matrix.Random(in, out, -1, 1, rng))
//	...
//	for _, p := range layer.Parameters() {
//	    fmt.Println(p.Name(), p.Grad())
//	}
type Parameter struct {
	name  string         // Parameter name (e.g., "weight", "bias")
	value *matrix.Matrix // Current value, updated in place by optimizers
	grad  *matrix.Matrix // Gradient from the last backward pass, nil before
}

// NewParameter creates a parameter. Gradient is allocated by the first backward pass.
func NewParameter(name string, value *matrix.Matrix) *Parameter {
	return &Parameter{name: name, value: value}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Value returns the parameter matrix. Optimizers update it in place.
func (p *Parameter) Value() *matrix.Matrix {
	return p.value
}

// Grad returns the gradient, or nil if no backward pass has run since the last ZeroGrad.
func (p *Parameter) Grad() *matrix.Matrix {
	return p.grad
}

// SetGrad replaces the gradient. It must have the parameter's shape.
func (p *Parameter) SetGrad(grad *matrix.Matrix) {
	p.checkShape("Parameter.SetGrad", grad)
	p.grad = grad
}

// AccumulateGrad adds grad to the current gradient.
func (p *Parameter) AccumulateGrad(grad *matrix.Matrix) {
	p.checkShape("Parameter.AccumulateGrad", grad)
	if p.grad == nil {
		p.grad = grad.Clone()
		return
	}
	p.grad = p.grad.Add(grad)
}

// ZeroGrad clears the gradient.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}

func (p *Parameter) checkShape(op string, grad *matrix.Matrix) {
	if grad.Rows() != p.value.Rows() || grad.Cols() != p.value.Cols() {
		panic(matrix.DimensionError(op, "%q is %dx%d, gradient %dx%d",
			p.name, p.value.Rows(), p.value.Cols(), grad.Rows(), grad.Cols()))
	}
}
