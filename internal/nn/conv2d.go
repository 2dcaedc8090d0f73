package nn

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/born-ml/gradnet/internal/accel"
	"github.com/born-ml/gradnet/internal/matrix"
	"github.com/born-ml/gradnet/internal/parallel"
)

// Conv2D is a valid, stride-1 2D convolution.
//
// Shapes:
//   - Input: [batch, d*h*w], channel-major
//   - Kernels: [f, d*k*k], one row per filter
//   - Bias: [1, f]
//   - Output: [batch, f*oh*ow] with oh = h-k+1, ow = w-k+1
//
// Padding is a separate ZeroPad layer in front.
//
// With an accelerator attached, both passes run on the device. Device
// buffers are sized for the largest batch seen so far; they grow with the
// batch and are never shrunk.
//
// Example:
//
//	conv := nn.NewConv2D(28, 28, 1, 8, 3, rng) // 1x28x28 -> 8x26x26
//	out := conv.Forward(x)                     // [batch, 8*26*26]
type Conv2D struct {
	h, w, d int
	f, k    int
	oh, ow  int
	kernels *Parameter
	bias    *Parameter
	input   *matrix.Matrix

	parallel parallel.Config
	dev      device
	bufs     convBuffers
}

// convBuffers are the device allocations of one Conv2D.
type convBuffers struct {
	input, output, delta, prev accel.Buffer // batch-sized
	kernels, dKernels, dBias   accel.Buffer // fixed-size
	batch                      int          // batch the batch-sized buffers hold
}

// NewConv2D creates a convolution over h x w inputs with d channels, producing
// f feature maps with k x k kernels. Kernels are He-normal, bias zero.
func NewConv2D(h, w, d, f, k int, rng *rand.Rand) *Conv2D {
	if k <= 0 || k > h || k > w || d <= 0 || f <= 0 {
		panic(matrix.DimensionError("nn.NewConv2D", "%dx%d kernel over %dx%dx%d input, %d filters", k, k, d, h, w, f))
	}
	return &Conv2D{
		h: h, w: w, d: d,
		f: f, k: k,
		oh: h - k + 1, ow: w - k + 1,
		kernels:  NewParameter("kernels", HeNormal(f, d*k*k, k*k*d, rng)),
		bias:     NewParameter("bias", matrix.New(1, f)),
		parallel: parallel.DefaultConfig(),
	}
}

// UseAccelerator runs both passes on a.
// Device failures are logged to logger (slog.Default when nil).
func (c *Conv2D) UseAccelerator(a accel.Accelerator, logger *slog.Logger) {
	c.dev.use(a, logger)
}

// OutputShape returns (filters, oh, ow).
func (c *Conv2D) OutputShape() (int, int, int) { return c.f, c.oh, c.ow }

// Kernels returns the kernel parameter.
func (c *Conv2D) Kernels() *Parameter { return c.kernels }

// Bias returns the bias parameter.
func (c *Conv2D) Bias() *Parameter { return c.bias }

func (c *Conv2D) geometry(batch int) accel.ConvGeometry {
	return accel.ConvGeometry{Batch: batch, H: c.h, W: c.w, D: c.d, OH: c.oh, OW: c.ow, F: c.f, K: c.k}
}

// Forward convolves every sample with every filter and adds the filter bias.
func (c *Conv2D) Forward(input *matrix.Matrix) *matrix.Matrix {
	checkCols("Conv2D.Forward", input, c.d*c.h*c.w)
	c.input = input.Clone()

	g := c.geometry(input.Rows())
	out := matrix.New(input.Rows(), c.f*c.oh*c.ow)
	if !c.dev.active() || !c.forwardDevice(input, out, g) {
		accel.ConvForward(input.Data(), c.kernels.Value().Data(), out.Data(), g, c.parallel)
	}

	plane := c.oh * c.ow
	bias := c.bias.Value().Data()
	data := out.Data()
	for b := 0; b < g.Batch; b++ {
		for f := 0; f < c.f; f++ {
			row := data[(b*c.f+f)*plane : (b*c.f+f+1)*plane]
			for i := range row {
				row[i] += bias[f]
			}
		}
	}
	return out
}

// Backward sets kernel and bias gradients and returns the input gradient.
func (c *Conv2D) Backward(delta *matrix.Matrix) *matrix.Matrix {
	if c.input == nil {
		panic("Conv2D.Backward: called before Forward")
	}
	checkShape("Conv2D.Backward", delta, c.input.Rows(), c.f*c.oh*c.ow)

	g := c.geometry(delta.Rows())
	dk := matrix.New(c.f, c.d*c.k*c.k)
	db := matrix.New(1, c.f)
	prev := matrix.New(delta.Rows(), c.d*c.h*c.w)

	if !c.dev.active() || !c.backwardDevice(delta, dk, db, prev, g) {
		accel.ConvBackward(c.input.Data(), delta.Data(), c.kernels.Value().Data(),
			dk.Data(), db.Data(), prev.Data(), g, c.parallel)
	}

	c.kernels.SetGrad(dk)
	c.bias.SetGrad(db)
	return prev
}

// ensureBuffers allocates device memory for batch samples.
func (c *Conv2D) ensureBuffers(g accel.ConvGeometry) error {
	b := &c.bufs
	if b.kernels == nil {
		if err := firstErr(
			func() error { return c.dev.grow(&b.kernels, g.KernelLen()) },
			func() error { return c.dev.grow(&b.dKernels, g.KernelLen()) },
			func() error { return c.dev.grow(&b.dBias, g.F) },
		); err != nil {
			return err
		}
	}
	if g.Batch <= b.batch {
		return nil
	}
	if err := firstErr(
		func() error { return c.dev.grow(&b.input, g.InputLen()) },
		func() error { return c.dev.grow(&b.output, g.OutputLen()) },
		func() error { return c.dev.grow(&b.delta, g.OutputLen()) },
		func() error { return c.dev.grow(&b.prev, g.InputLen()) },
	); err != nil {
		return err
	}
	b.batch = g.Batch
	return nil
}

func (c *Conv2D) forwardDevice(input, out *matrix.Matrix, g accel.ConvGeometry) bool {
	if g.Batch == 0 {
		return true
	}
	a := c.dev.acc
	err := firstErr(
		func() error { return c.ensureBuffers(g) },
		func() error { return a.CopyToDevice(c.bufs.input, input.Data()) },
		func() error { return a.CopyToDevice(c.bufs.kernels, c.kernels.Value().Data()) },
		func() error { return a.Conv2DForward(c.bufs.input, c.bufs.kernels, c.bufs.output, g) },
		func() error { return a.CopyToHost(out.Data(), c.bufs.output) },
	)
	if err != nil {
		c.Release()
		c.dev.fail("conv2d", "forward", fmt.Errorf("batch %d: %w", g.Batch, err))
		return false
	}
	return true
}

func (c *Conv2D) backwardDevice(delta, dk, db, prev *matrix.Matrix, g accel.ConvGeometry) bool {
	if g.Batch == 0 {
		return true
	}
	a := c.dev.acc
	err := firstErr(
		func() error { return c.ensureBuffers(g) },
		func() error { return a.CopyToDevice(c.bufs.input, c.input.Data()) },
		func() error { return a.CopyToDevice(c.bufs.delta, delta.Data()) },
		func() error { return a.CopyToDevice(c.bufs.kernels, c.kernels.Value().Data()) },
		func() error {
			return a.Conv2DBackward(c.bufs.input, c.bufs.delta, c.bufs.kernels,
				c.bufs.dKernels, c.bufs.dBias, c.bufs.prev, g)
		},
		func() error { return a.CopyToHost(dk.Data(), c.bufs.dKernels) },
		func() error { return a.CopyToHost(db.Data(), c.bufs.dBias) },
		func() error { return a.CopyToHost(prev.Data(), c.bufs.prev) },
	)
	if err != nil {
		c.Release()
		c.dev.fail("conv2d", "backward", fmt.Errorf("batch %d: %w", g.Batch, err))
		return false
	}
	return true
}

// Release frees device buffers. They are reallocated by the next device pass.
func (c *Conv2D) Release() {
	if c.dev.acc == nil {
		return
	}
	b := &c.bufs
	for _, buf := range []accel.Buffer{b.input, b.output, b.delta, b.prev, b.kernels, b.dKernels, b.dBias} {
		if buf != nil {
			c.dev.acc.Free(buf)
		}
	}
	c.bufs = convBuffers{}
}

// Parameters returns kernels and bias.
func (c *Conv2D) Parameters() []*Parameter {
	return []*Parameter{c.kernels, c.bias}
}

// State returns kernels then bias. Kernels are laid out [f][d][k][k].
func (c *Conv2D) State() []Tensor {
	return paramState(c.kernels, c.bias)
}
