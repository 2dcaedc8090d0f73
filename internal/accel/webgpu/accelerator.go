//go:build windows

// Package webgpu implements accel.Accelerator on a WebGPU device.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
//
// Values are stored as float32 on the device and converted on copy, so
// results agree with the host kernels to single precision only.
package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/gradnet/internal/accel"
)

// Buffer is a device allocation of float32 values.
type Buffer struct {
	buf *wgpu.Buffer
	n   int
}

// Len implements accel.Buffer.
func (b *Buffer) Len() int { return b.n }

func (b *Buffer) byteSize() uint64 {
	//nolint:gosec // G115: element count is non-negative.
	return uint64(b.n) * 4
}

// Accelerator runs matrix products and convolutions through WebGPU compute shaders.
type Accelerator struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.Mutex
}

var _ accel.Accelerator = (*Accelerator)(nil)

// New opens the default high-performance adapter.
// Returns accel.ErrUnavailable if WebGPU cannot be initialized.
func New() (a *Accelerator, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			a = nil
			err = fmt.Errorf("%w: webgpu native library: %v", accel.ErrUnavailable, r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: request adapter: %w", accel.ErrUnavailable, err)
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: request device: %w", accel.ErrUnavailable, err)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: no device queue", accel.ErrUnavailable)
	}

	return &Accelerator{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
	}, nil
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}

// Name implements accel.Accelerator.
func (a *Accelerator) Name() string { return "webgpu" }

// Release frees the device. The accelerator must not be used afterwards.
func (a *Accelerator) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, p := range a.pipelines {
		p.Release()
	}
	for _, s := range a.shaders {
		s.Release()
	}
	a.pipelines = nil
	a.shaders = nil
	a.device.Release()
	a.adapter.Release()
	a.instance.Release()
}

// Alloc implements accel.Accelerator.
func (a *Accelerator) Alloc(n int) (b accel.Buffer, err error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: size %d", accel.ErrAlloc, n)
	}
	defer func() {
		if r := recover(); r != nil {
			b = nil
			err = fmt.Errorf("%w: %d floats: %v", accel.ErrAlloc, n, r)
		}
	}()

	//nolint:gosec // G115: n is positive.
	buf := a.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  uint64(n) * 4,
	})
	if buf == nil {
		return nil, fmt.Errorf("%w: %d floats", accel.ErrAlloc, n)
	}
	return &Buffer{buf: buf, n: n}, nil
}

// Free implements accel.Accelerator.
func (a *Accelerator) Free(b accel.Buffer) {
	if db, ok := b.(*Buffer); ok && db.buf != nil {
		db.buf.Release()
		db.buf = nil
	}
}

// CopyToDevice implements accel.Accelerator.
func (a *Accelerator) CopyToDevice(dst accel.Buffer, src []float64) error {
	d, err := a.buffer(dst)
	if err != nil {
		return err
	}
	if len(src) > d.n {
		return fmt.Errorf("%w: copying %d values into %d", accel.ErrBufferSize, len(src), d.n)
	}
	if len(src) == 0 {
		return nil
	}

	data := make([]byte, 4*len(src))
	for i, v := range src {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(float32(v)))
	}
	staging := a.createBuffer(data, wgpu.BufferUsageCopySrc)
	defer staging.Release()

	encoder := a.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(staging, 0, d.buf, 0, uint64(len(data)))
	a.queue.Submit(encoder.Finish(nil))
	return nil
}

// CopyToHost implements accel.Accelerator.
func (a *Accelerator) CopyToHost(dst []float64, src accel.Buffer) error {
	s, err := a.buffer(src)
	if err != nil {
		return err
	}
	if len(dst) > s.n {
		return fmt.Errorf("%w: reading %d values from %d", accel.ErrBufferSize, len(dst), s.n)
	}
	if len(dst) == 0 {
		return nil
	}

	data, err := a.readBuffer(s.buf, uint64(len(dst))*4)
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
	}
	return nil
}

// MatMul implements accel.Accelerator.
func (a *Accelerator) MatMul(ab, bb, cb accel.Buffer, m, k, n int) error {
	bufA, err := a.buffer(ab)
	if err != nil {
		return err
	}
	bufB, err := a.buffer(bb)
	if err != nil {
		return err
	}
	bufC, err := a.buffer(cb)
	if err != nil {
		return err
	}
	if bufA.n < m*k || bufB.n < k*n || bufC.n < m*n {
		return fmt.Errorf("%w: matmul %dx%d · %dx%d", accel.ErrBufferSize, m, k, k, n)
	}

	groupsX := (n + 15) / 16
	groupsY := (m + 15) / 16
	if groupsX > maxWorkgroups || groupsY > maxWorkgroups {
		return fmt.Errorf("%w: %dx%d result exceeds dispatch limits", accel.ErrBufferSize, m, n)
	}

	params := make([]byte, 16)
	putUint32s(params, m, k, n)

	//nolint:gosec // G115: workgroup counts are bounded by maxWorkgroups.
	return a.dispatch("matmul", matmulShader, params, uint32(groupsX), uint32(groupsY), bufA, bufB, bufC)
}

// Conv2DForward implements accel.Accelerator.
func (a *Accelerator) Conv2DForward(input, kernels, output accel.Buffer, g accel.ConvGeometry) error {
	if err := g.Validate(); err != nil {
		return err
	}
	bufs, err := a.convBuffers(g, []accel.Buffer{input, kernels, output},
		[]int{g.InputLen(), g.KernelLen(), g.OutputLen()})
	if err != nil {
		return err
	}
	groups, err := groupsFor(g.OutputLen())
	if err != nil {
		return err
	}
	return a.dispatch("conv_forward", convForwardShader, convUniform(g), groups, 1, bufs...)
}

// Conv2DBackward implements accel.Accelerator.
func (a *Accelerator) Conv2DBackward(input, delta, kernels, dKernels, dBias, prevDelta accel.Buffer, g accel.ConvGeometry) error {
	if err := g.Validate(); err != nil {
		return err
	}
	bufs, err := a.convBuffers(g,
		[]accel.Buffer{input, delta, kernels, dKernels, dBias, prevDelta},
		[]int{g.InputLen(), g.OutputLen(), g.KernelLen(), g.KernelLen(), g.F, g.InputLen()})
	if err != nil {
		return err
	}
	in, d, ker, dk, db, prev := bufs[0], bufs[1], bufs[2], bufs[3], bufs[4], bufs[5]
	params := convUniform(g)

	groups, err := groupsFor(g.KernelLen())
	if err != nil {
		return err
	}
	if err := a.dispatch("conv_dkernels", convKernelGradShader, params, groups, 1, in, d, dk); err != nil {
		return err
	}

	groups, err = groupsFor(g.F)
	if err != nil {
		return err
	}
	if err := a.dispatch("conv_dbias", convBiasGradShader, params, groups, 1, d, db); err != nil {
		return err
	}

	groups, err = groupsFor(g.InputLen())
	if err != nil {
		return err
	}
	return a.dispatch("conv_prev", convInputGradShader, params, groups, 1, d, ker, prev)
}

func (a *Accelerator) buffer(b accel.Buffer) (*Buffer, error) {
	db, ok := b.(*Buffer)
	if !ok || db.buf == nil {
		return nil, fmt.Errorf("%w: %T", accel.ErrForeignBuffer, b)
	}
	return db, nil
}

func (a *Accelerator) convBuffers(g accel.ConvGeometry, in []accel.Buffer, sizes []int) ([]*Buffer, error) {
	out := make([]*Buffer, len(in))
	for i, b := range in {
		db, err := a.buffer(b)
		if err != nil {
			return nil, err
		}
		if db.n < sizes[i] {
			return nil, fmt.Errorf("%w: buffer %d holds %d, need %d for %+v", accel.ErrBufferSize, i, db.n, sizes[i], g)
		}
		out[i] = db
	}
	return out, nil
}

// pipeline compiles WGSL and builds its pipeline once per name.
func (a *Accelerator) pipeline(name, code string) *wgpu.ComputePipeline {
	a.mu.Lock()
	defer a.mu.Unlock()

	if p, ok := a.pipelines[name]; ok {
		return p
	}
	shader := a.device.CreateShaderModuleWGSL(code)
	a.shaders[name] = shader
	// Auto layout (nil) derives the bind group layout from the shader.
	p := a.device.CreateComputePipelineSimple(nil, shader, "main")
	a.pipelines[name] = p
	return p
}

// dispatch binds bufs to bindings 0..n-1 and params to binding n and submits
// one compute pass. Later copies on the same queue observe its results.
func (a *Accelerator) dispatch(name, code string, params []byte, groupsX, groupsY uint32, bufs ...*Buffer) error {
	p := a.pipeline(name, code)

	uniform := a.createUniformBuffer(params)
	defer uniform.Release()

	entries := make([]wgpu.BindGroupEntry, 0, len(bufs)+1)
	for i, b := range bufs {
		//nolint:gosec // G115: binding index is small.
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), b.buf, 0, b.byteSize()))
	}
	//nolint:gosec // G115: binding index is small.
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(bufs)), uniform, 0, uint64(len(params))))

	bindGroup := a.device.CreateBindGroupSimple(p.GetBindGroupLayout(0), entries)
	defer bindGroup.Release()

	encoder := a.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(p)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(groupsX, groupsY, 1)
	pass.End()
	a.queue.Submit(encoder.Finish(nil))
	return nil
}

// createBuffer creates a GPU buffer with initial contents.
func (a *Accelerator) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := a.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(unsafe.Slice((*byte)(mappedPtr), size), data)
	buffer.Unmap()
	return buffer
}

// createUniformBuffer creates a uniform buffer padded to 16 bytes.
func (a *Accelerator) createUniformBuffer(data []byte) *wgpu.Buffer {
	aligned := make([]byte, (len(data)+15)&^15)
	copy(aligned, data)
	return a.createBuffer(aligned, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
}

// readBuffer reads size bytes back through a staging buffer, since storage
// buffers can't be mapped directly. MapAsync blocks until queued work is done.
func (a *Accelerator) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := a.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := a.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	a.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(a.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("webgpu: map staging buffer: %w", err)
	}
	mappedPtr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(mappedPtr), size))
	staging.Unmap()
	return out, nil
}

func convUniform(g accel.ConvGeometry) []byte {
	params := make([]byte, 32)
	putUint32s(params, g.Batch, g.H, g.W, g.D, g.OH, g.OW, g.F, g.K)
	return params
}

func putUint32s(dst []byte, vals ...int) {
	for i, v := range vals {
		//nolint:gosec // G115: geometry values are validated non-negative.
		binary.LittleEndian.PutUint32(dst[i*4:], uint32(v))
	}
}

func groupsFor(n int) (uint32, error) {
	groups := (n + workgroupSize - 1) / workgroupSize
	if groups > maxWorkgroups {
		return 0, fmt.Errorf("%w: %d elements exceed dispatch limits", accel.ErrBufferSize, n)
	}
	//nolint:gosec // G115: bounded by maxWorkgroups.
	return uint32(groups), nil
}
