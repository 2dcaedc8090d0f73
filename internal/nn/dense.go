package nn

import (
	"log/slog"
	"math/rand"

	"github.com/born-ml/gradnet/internal/accel"
	"github.com/born-ml/gradnet/internal/matrix"
)

// Dense is a fully connected layer: y = x·W + b.
//
// Shapes:
//   - Input: [batch, in]
//   - Weight: [in, out]
//   - Bias: [1, out], broadcast over rows
//   - Output: [batch, out]
//
// Example:
//
//	layer := nn.NewDense(784, 128, rng)
//	out := layer.Forward(x) // [batch, 128]
type Dense struct {
	in, out int
	weight  *Parameter
	bias    *Parameter
	input   *matrix.Matrix

	dev    device
	bufIn  accel.Buffer
	bufW   accel.Buffer
	bufOut accel.Buffer
}

// NewDense creates a dense layer with weights drawn from U(-1, 1)·sqrt(2/in)
// and a zero bias.
func NewDense(in, out int, rng *rand.Rand) *Dense {
	return NewDenseFrom(ScaledUniform(in, out, in, rng), matrix.New(1, out))
}

// NewDenseFrom creates a dense layer from explicit weights [in, out] and bias [1, out].
// The matrices are copied.
func NewDenseFrom(weight, bias *matrix.Matrix) *Dense {
	if bias.Rows() != 1 || bias.Cols() != weight.Cols() {
		panic(matrix.DimensionError("nn.NewDenseFrom", "bias %dx%d for weight %dx%d",
			bias.Rows(), bias.Cols(), weight.Rows(), weight.Cols()))
	}
	return &Dense{
		in:     weight.Rows(),
		out:    weight.Cols(),
		weight: NewParameter("weight", weight.Clone()),
		bias:   NewParameter("bias", bias.Clone()),
	}
}

// UseAccelerator runs the forward product on a.
// Device failures are logged to logger (slog.Default when nil).
func (d *Dense) UseAccelerator(a accel.Accelerator, logger *slog.Logger) {
	d.dev.use(a, logger)
}

// Weight returns the weight parameter.
func (d *Dense) Weight() *Parameter { return d.weight }

// Bias returns the bias parameter.
func (d *Dense) Bias() *Parameter { return d.bias }

// Forward computes x·W + b.
func (d *Dense) Forward(input *matrix.Matrix) *matrix.Matrix {
	checkCols("Dense.Forward", input, d.in)
	d.input = input.Clone()

	var out *matrix.Matrix
	if d.dev.active() {
		out = d.forwardDevice(input)
	}
	if out == nil {
		out = input.Mul(d.weight.Value())
	}
	return out.AddRowVector(d.bias.Value())
}

func (d *Dense) forwardDevice(input *matrix.Matrix) *matrix.Matrix {
	m := input.Rows()
	out := matrix.New(m, d.out)
	if m == 0 {
		return out
	}

	err := firstErr(
		func() error { return d.dev.grow(&d.bufIn, m*d.in) },
		func() error { return d.dev.grow(&d.bufW, d.in*d.out) },
		func() error { return d.dev.grow(&d.bufOut, m*d.out) },
		func() error { return d.dev.acc.CopyToDevice(d.bufIn, input.Data()) },
		func() error { return d.dev.acc.CopyToDevice(d.bufW, d.weight.Value().Data()) },
		func() error { return d.dev.acc.MatMul(d.bufIn, d.bufW, d.bufOut, m, d.in, d.out) },
		func() error { return d.dev.acc.CopyToHost(out.Data(), d.bufOut) },
	)
	if err != nil {
		d.Release()
		d.dev.fail("dense", "forward", err)
		return nil
	}
	return out
}

// Release frees device buffers. They are reallocated by the next device pass.
func (d *Dense) Release() {
	if d.dev.acc == nil {
		return
	}
	for _, buf := range []accel.Buffer{d.bufIn, d.bufW, d.bufOut} {
		if buf != nil {
			d.dev.acc.Free(buf)
		}
	}
	d.bufIn, d.bufW, d.bufOut = nil, nil, nil
}

// Backward sets dW = xᵀ·δ and db = Σ rows of δ, and returns δ·Wᵀ.
func (d *Dense) Backward(delta *matrix.Matrix) *matrix.Matrix {
	if d.input == nil {
		panic("Dense.Backward: called before Forward")
	}
	checkShape("Dense.Backward", delta, d.input.Rows(), d.out)

	d.weight.SetGrad(d.input.Transpose().Mul(delta))
	d.bias.SetGrad(delta.SumRows())
	return delta.Mul(d.weight.Value().Transpose())
}

// Parameters returns weight and bias.
func (d *Dense) Parameters() []*Parameter {
	return []*Parameter{d.weight, d.bias}
}

// State returns weight then bias.
func (d *Dense) State() []Tensor {
	return paramState(d.weight, d.bias)
}

// firstErr runs steps in order and stops at the first error.
func firstErr(steps ...func() error) error {
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
