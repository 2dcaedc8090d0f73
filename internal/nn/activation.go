package nn

import (
	"math"

	"github.com/born-ml/gradnet/internal/matrix"
)

// Sigmoid computes σ(x) = 1 / (1 + exp(-x)).
func Sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// SigmoidPrime is the derivative of Sigmoid at x.
func SigmoidPrime(x float64) float64 {
	s := Sigmoid(x)
	return s * (1 - s)
}

// Tanh computes tanh(x).
func Tanh(x float64) float64 { return math.Tanh(x) }

// TanhPrime is the derivative of Tanh at x.
func TanhPrime(x float64) float64 {
	t := math.Tanh(x)
	return 1 - t*t
}

// ReLU computes max(0, x).
func ReLU(x float64) float64 { return math.Max(0, x) }

// ReLUPrime is the derivative of ReLU at x, taken as 0 at the origin.
func ReLUPrime(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

// LeakySlope is the negative-side slope of LeakyReLU.
const LeakySlope = 0.01

// LeakyReLU computes x for x > 0 and 0.01x otherwise.
func LeakyReLU(x float64) float64 {
	if x > 0 {
		return x
	}
	return LeakySlope * x
}

// LeakyReLUPrime is the derivative of LeakyReLU at x.
func LeakyReLUPrime(x float64) float64 {
	if x > 0 {
		return 1
	}
	return LeakySlope
}

// Activation applies an elementwise function f, with derivative df.
//
// Example:
//
//	act := nn.NewActivation("softplus",
//	    func(x float64) float64 { return math.Log1p(math.Exp(x)) },
//	    nn.Sigmoid,
//	)
type Activation struct {
	name  string
	f, df func(float64) float64
	input *matrix.Matrix
}

// NewActivation pairs a function with its derivative.
func NewActivation(name string, f, df func(float64) float64) *Activation {
	return &Activation{name: name, f: f, df: df}
}

// NewSigmoid returns a sigmoid activation layer.
func NewSigmoid() *Activation { return NewActivation("sigmoid", Sigmoid, SigmoidPrime) }

// NewTanh returns a tanh activation layer.
func NewTanh() *Activation { return NewActivation("tanh", Tanh, TanhPrime) }

// NewReLU returns a ReLU activation layer.
func NewReLU() *Activation { return NewActivation("relu", ReLU, ReLUPrime) }

// NewLeakyReLU returns a leaky ReLU activation layer.
func NewLeakyReLU() *Activation { return NewActivation("leaky_relu", LeakyReLU, LeakyReLUPrime) }

// Name returns the activation name.
func (a *Activation) Name() string { return a.name }

// Forward returns f applied to every element.
func (a *Activation) Forward(input *matrix.Matrix) *matrix.Matrix {
	a.input = input.Clone()
	return input.Apply(a.f)
}

// Backward returns delta ⊙ df(input).
func (a *Activation) Backward(delta *matrix.Matrix) *matrix.Matrix {
	if a.input == nil {
		panic("Activation.Backward: called before Forward")
	}
	return delta.Hadamard(a.input.Apply(a.df))
}
