package accel

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/gradnet/internal/parallel"
)

// HostBuffer is a Buffer backed by ordinary memory.
type HostBuffer struct {
	data []float64
}

// Len implements Buffer.
func (b *HostBuffer) Len() int { return len(b.data) }

// Data exposes the backing slice.
func (b *HostBuffer) Data() []float64 { return b.data }

// Host runs every kernel on the CPU. It is the reference implementation other
// accelerators are tested against.
type Host struct {
	parallel parallel.Config
}

// NewHost returns a host accelerator using the given loop configuration.
func NewHost(cfg parallel.Config) *Host {
	return &Host{parallel: cfg}
}

// Name implements Accelerator.
func (h *Host) Name() string { return "host" }

// Alloc implements Accelerator.
func (h *Host) Alloc(n int) (Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrAlloc, n)
	}
	return &HostBuffer{data: make([]float64, n)}, nil
}

// Free implements Accelerator. Host memory is left to the garbage collector.
func (h *Host) Free(b Buffer) {
	if hb, ok := b.(*HostBuffer); ok {
		hb.data = nil
	}
}

// CopyToDevice implements Accelerator.
func (h *Host) CopyToDevice(dst Buffer, src []float64) error {
	d, err := h.buf(dst)
	if err != nil {
		return err
	}
	if len(src) > len(d) {
		return fmt.Errorf("%w: copying %d values into %d", ErrBufferSize, len(src), len(d))
	}
	copy(d, src)
	return nil
}

// CopyToHost implements Accelerator.
func (h *Host) CopyToHost(dst []float64, src Buffer) error {
	s, err := h.buf(src)
	if err != nil {
		return err
	}
	if len(dst) > len(s) {
		return fmt.Errorf("%w: reading %d values from %d", ErrBufferSize, len(dst), len(s))
	}
	copy(dst, s)
	return nil
}

// MatMul implements Accelerator.
func (h *Host) MatMul(a, b, c Buffer, m, k, n int) error {
	ad, bd, cd, err := h.bufs3(a, b, c)
	if err != nil {
		return err
	}
	if len(ad) < m*k || len(bd) < k*n || len(cd) < m*n {
		return fmt.Errorf("%w: matmul %dx%d · %dx%d", ErrBufferSize, m, k, k, n)
	}
	if m == 0 || n == 0 {
		return nil
	}
	if k == 0 {
		clear(cd[:m*n])
		return nil
	}
	blas64.Gemm(blas.NoTrans, blas.NoTrans, 1,
		blas64.General{Rows: m, Cols: k, Data: ad, Stride: k},
		blas64.General{Rows: k, Cols: n, Data: bd, Stride: n},
		0,
		blas64.General{Rows: m, Cols: n, Data: cd, Stride: n},
	)
	return nil
}

// Conv2DForward implements Accelerator.
func (h *Host) Conv2DForward(input, kernels, output Buffer, g ConvGeometry) error {
	if err := g.Validate(); err != nil {
		return err
	}
	in, ker, out, err := h.bufs3(input, kernels, output)
	if err != nil {
		return err
	}
	if err := firstErr(
		checkLen("input", input, g.InputLen()),
		checkLen("kernels", kernels, g.KernelLen()),
		checkLen("output", output, g.OutputLen()),
	); err != nil {
		return err
	}
	ConvForward(in, ker, out, g, h.parallel)
	return nil
}

// Conv2DBackward implements Accelerator.
func (h *Host) Conv2DBackward(input, delta, kernels, dKernels, dBias, prevDelta Buffer, g ConvGeometry) error {
	if err := g.Validate(); err != nil {
		return err
	}
	in, d, ker, err := h.bufs3(input, delta, kernels)
	if err != nil {
		return err
	}
	dk, db, prev, err := h.bufs3(dKernels, dBias, prevDelta)
	if err != nil {
		return err
	}
	if err := firstErr(
		checkLen("input", input, g.InputLen()),
		checkLen("delta", delta, g.OutputLen()),
		checkLen("kernels", kernels, g.KernelLen()),
		checkLen("dKernels", dKernels, g.KernelLen()),
		checkLen("dBias", dBias, g.F),
		checkLen("prevDelta", prevDelta, g.InputLen()),
	); err != nil {
		return err
	}
	ConvBackward(in, d, ker, dk, db, prev, g, h.parallel)
	return nil
}

func (h *Host) buf(b Buffer) ([]float64, error) {
	hb, ok := b.(*HostBuffer)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrForeignBuffer, b)
	}
	return hb.data, nil
}

func (h *Host) bufs3(a, b, c Buffer) (ad, bd, cd []float64, err error) {
	if ad, err = h.buf(a); err != nil {
		return nil, nil, nil, err
	}
	if bd, err = h.buf(b); err != nil {
		return nil, nil, nil, err
	}
	if cd, err = h.buf(c); err != nil {
		return nil, nil, nil, err
	}
	return ad, bd, cd, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
