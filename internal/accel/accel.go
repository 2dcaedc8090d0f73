// Package accel defines the device interface layers use to offload matrix
// products and convolutions, plus an in-memory host implementation.
//
// Buffers are flat float64 arrays sized by the caller. Convolution buffers use
// channel-major layout, the same layout a matrix row of flattened image data
// has, so data moves between host matrices and device buffers without
// reordering:
//
//	input     [batch][d][h][w]
//	kernels   [f][d][k][k]
//	output    [batch][f][oh][ow]   (delta and prevDelta alike)
//	dBias     [f]
//
// Every call is synchronous: it returns once the device work is complete.
package accel

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrUnavailable   = errors.New("accelerator not available")
	ErrAlloc         = errors.New("device allocation failed")
	ErrForeignBuffer = errors.New("buffer belongs to another accelerator")
	ErrBufferSize    = errors.New("buffer size mismatch")
	ErrGeometry      = errors.New("invalid convolution geometry")
)

// Buffer is an opaque device allocation.
type Buffer interface {
	// Len returns the number of float64 elements the buffer holds.
	Len() int
}

// Accelerator allocates device memory and runs kernels over it.
type Accelerator interface {
	// Name identifies the device for logging.
	Name() string

	Alloc(n int) (Buffer, error)
	Free(b Buffer)

	CopyToDevice(dst Buffer, src []float64) error
	CopyToHost(dst []float64, src Buffer) error

	// MatMul computes c = a·b for row-major a (m×k) and b (k×n).
	MatMul(a, b, c Buffer, m, k, n int) error

	// Conv2DForward writes the valid, stride-1 convolution of input with
	// kernels into output. Bias is left to the caller.
	Conv2DForward(input, kernels, output Buffer, g ConvGeometry) error

	// Conv2DBackward overwrites dKernels, dBias and prevDelta with the
	// gradients of the convolution given the output gradient delta.
	Conv2DBackward(input, delta, kernels, dKernels, dBias, prevDelta Buffer, g ConvGeometry) error
}

// ConvGeometry describes a valid, stride-1 convolution.
type ConvGeometry struct {
	Batch  int // Samples.
	H, W   int // Input plane.
	D      int // Input channels.
	OH, OW int // Output plane: H-K+1, W-K+1.
	F      int // Filters.
	K      int // Square kernel side.
}

// NewConvGeometry derives the output plane from the input plane and kernel.
func NewConvGeometry(batch, h, w, d, f, k int) ConvGeometry {
	return ConvGeometry{Batch: batch, H: h, W: w, D: d, OH: h - k + 1, OW: w - k + 1, F: f, K: k}
}

// Validate checks that the output plane matches a valid convolution.
func (g ConvGeometry) Validate() error {
	if g.Batch < 0 || g.D <= 0 || g.F <= 0 || g.K <= 0 || g.OH <= 0 || g.OW <= 0 ||
		g.OH != g.H-g.K+1 || g.OW != g.W-g.K+1 {
		return fmt.Errorf("%w: %+v", ErrGeometry, g)
	}
	return nil
}

// InputLen returns the element count of the input buffer.
func (g ConvGeometry) InputLen() int { return g.Batch * g.D * g.H * g.W }

// OutputLen returns the element count of the output and delta buffers.
func (g ConvGeometry) OutputLen() int { return g.Batch * g.F * g.OH * g.OW }

// KernelLen returns the element count of the kernel buffer.
func (g ConvGeometry) KernelLen() int { return g.F * g.D * g.K * g.K }

func checkLen(what string, b Buffer, want int) error {
	if b.Len() < want {
		return fmt.Errorf("%w: %s holds %d, need %d", ErrBufferSize, what, b.Len(), want)
	}
	return nil
}
