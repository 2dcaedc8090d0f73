// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"io"
	"math/rand"

	"github.com/born-ml/gradnet/internal/matrix"
	"github.com/born-ml/gradnet/internal/nn"
)

// Layer maps a batch forward and its output gradient backward.
type Layer = nn.Layer

// Trainable is a layer with parameters.
type Trainable = nn.Trainable

// Stateful is a layer with persisted buffers.
type Stateful = nn.Stateful

// Persistent is a layer with its own binary encoding.
type Persistent = nn.Persistent

// ModeSetter is a layer that behaves differently in training and inference.
type ModeSetter = nn.ModeSetter

// Updater applies one optimization step. optim.Optimizer satisfies it.
type Updater = nn.Updater

// Sequence is a layer over a series of steps.
type Sequence = nn.Sequence

// Tensor names a persisted buffer.
type Tensor = nn.Tensor

// Parameter is a trainable matrix and its gradient.
type Parameter = nn.Parameter

// NewParameter creates a parameter with no gradient.
func NewParameter(name string, value *matrix.Matrix) *Parameter {
	return nn.NewParameter(name, value)
}

// Layers

// Activation applies an elementwise function and its derivative.
type Activation = nn.Activation

// NewActivation creates an activation from f and its derivative df.
func NewActivation(name string, f, df func(float64) float64) *Activation {
	return nn.NewActivation(name, f, df)
}

// NewSigmoid creates a logistic activation.
func NewSigmoid() *Activation { return nn.NewSigmoid() }

// NewTanh creates a hyperbolic tangent activation.
func NewTanh() *Activation { return nn.NewTanh() }

// NewReLU creates a rectified linear activation.
func NewReLU() *Activation { return nn.NewReLU() }

// NewLeakyReLU creates a leaky rectified linear activation with slope 0.01.
func NewLeakyReLU() *Activation { return nn.NewLeakyReLU() }

// Dense is a fully connected layer.
type Dense = nn.Dense

// NewDense creates an in -> out layer with uniform weights in ±sqrt(2/in)
// and zero bias.
//
// Example:
//
//	layer := nn.NewDense(784, 128, rand.New(rand.NewSource(1)))
func NewDense(in, out int, rng *rand.Rand) *Dense { return nn.NewDense(in, out, rng) }

// NewDenseFrom creates a dense layer with the given weight (in x out) and
// bias (1 x out).
func NewDenseFrom(weight, bias *matrix.Matrix) *Dense { return nn.NewDenseFrom(weight, bias) }

// Conv2D is a valid, stride-1 convolution over d x h x w inputs.
type Conv2D = nn.Conv2D

// NewConv2D creates f filters of k x k x d with He-normal weights.
func NewConv2D(h, w, d, f, k int, rng *rand.Rand) *Conv2D { return nn.NewConv2D(h, w, d, f, k, rng) }

// MaxPool takes the maximum of each pool x pool window per channel.
type MaxPool = nn.MaxPool

// NewMaxPool creates a pooling layer for d x h x w inputs.
func NewMaxPool(h, w, d, pool, stride int) *MaxPool { return nn.NewMaxPool(h, w, d, pool, stride) }

// BatchNorm normalizes every feature over the batch.
type BatchNorm = nn.BatchNorm

// NewBatchNorm creates a batch normalization layer over features columns.
func NewBatchNorm(features int) *BatchNorm { return nn.NewBatchNorm(features) }

// Dropout zeroes a random fraction of activations during training.
type Dropout = nn.Dropout

// NewDropout creates a dropout layer that drops with probability rate.
func NewDropout(rate float64, rng *rand.Rand) *Dropout { return nn.NewDropout(rate, rng) }

// ZeroPad surrounds every channel with pad zeros.
type ZeroPad = nn.ZeroPad

// NewZeroPad creates a padding layer for d x h x w inputs.
func NewZeroPad(h, w, d, pad int) *ZeroPad { return nn.NewZeroPad(h, w, d, pad) }

// Softmax normalizes every row into a probability distribution.
type Softmax = nn.Softmax

// NewSoftmax creates a softmax layer.
func NewSoftmax() *Softmax { return nn.NewSoftmax() }

// Sequence models

// Recurrent is an Elman recurrent layer.
type Recurrent = nn.Recurrent

// NewRecurrent creates a recurrent layer.
func NewRecurrent(input, hidden int, rng *rand.Rand) *Recurrent {
	return nn.NewRecurrent(input, hidden, rng)
}

// LSTM is a long short-term memory layer.
type LSTM = nn.LSTM

// NewLSTM creates an LSTM layer with the forget bias set to one.
func NewLSTM(input, hidden int, rng *rand.Rand) *LSTM { return nn.NewLSTM(input, hidden, rng) }

// Losses

// Loss scores predictions against targets.
type Loss = nn.Loss

// MSELoss is the mean squared error.
type MSELoss = nn.MSELoss

// CrossEntropyLoss is the categorical cross-entropy over probability rows.
type CrossEntropyLoss = nn.CrossEntropyLoss

// MSE returns sum((pred - target)²) / (2·size).
func MSE(pred, target *matrix.Matrix) float64 { return nn.MSE(pred, target) }

// DMSE returns the gradient of MSE with respect to pred.
func DMSE(pred, target *matrix.Matrix) *matrix.Matrix { return nn.DMSE(pred, target) }

// CrossEntropy returns the mean categorical cross-entropy per row.
func CrossEntropy(pred, target *matrix.Matrix) float64 { return nn.CrossEntropy(pred, target) }

// Accuracy returns the fraction of rows whose argmax matches the target's.
func Accuracy(pred, target *matrix.Matrix) float64 { return nn.Accuracy(pred, target) }

// Initialization

// ScaledUniform draws from ±sqrt(2/fanIn).
func ScaledUniform(rows, cols, fanIn int, rng *rand.Rand) *matrix.Matrix {
	return nn.ScaledUniform(rows, cols, fanIn, rng)
}

// HeNormal draws from a normal distribution with σ = sqrt(2/fanIn).
func HeNormal(rows, cols, fanIn int, rng *rand.Rand) *matrix.Matrix {
	return nn.HeNormal(rows, cols, fanIn, rng)
}

// Uniform draws from ±bound.
func Uniform(rows, cols int, bound float64, rng *rand.Rand) *matrix.Matrix {
	return nn.Uniform(rows, cols, bound, rng)
}

// Persistence

// Save writes layer's buffers to w.
func Save(w io.Writer, layer any) error { return nn.Save(w, layer) }

// Load reads buffers written by Save into layer.
func Load(r io.Reader, layer any) error { return nn.Load(r, layer) }
