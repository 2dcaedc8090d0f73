package nn

import (
	"math"

	"github.com/born-ml/gradnet/internal/matrix"
	"github.com/born-ml/gradnet/internal/parallel"
)

// MaxPool is a 2D max pooling layer.
//
// Applies max pooling over each channel independently:
//   - Input: [batch, d*h*w], channel-major
//   - Output: [batch, d*oh*ow] with oh = (h-pool)/stride+1, ow = (w-pool)/stride+1
//
// Each window scans row by row; on ties the first maximum wins. Backward
// routes every output gradient to the input element that won its window.
// Overlapping windows that share a winner sum their gradients there.
//
// Example:
//
//	pool := nn.NewMaxPool(26, 26, 8, 2, 2) // 8x26x26 -> 8x13x13
type MaxPool struct {
	h, w, d      int
	pool, stride int
	oh, ow       int

	index    []int // per sample and output cell, the winning column of the input row
	batch    int
	parallel parallel.Config
}

// NewMaxPool creates a pooling layer over h x w inputs with d channels.
func NewMaxPool(h, w, d, pool, stride int) *MaxPool {
	if pool <= 0 || stride <= 0 || pool > h || pool > w || d <= 0 {
		panic(matrix.DimensionError("nn.NewMaxPool", "pool %d stride %d over %dx%dx%d", pool, stride, d, h, w))
	}
	return &MaxPool{
		h: h, w: w, d: d,
		pool: pool, stride: stride,
		oh:       (h-pool)/stride + 1,
		ow:       (w-pool)/stride + 1,
		parallel: parallel.DefaultConfig(),
	}
}

// OutputShape returns (channels, oh, ow).
func (p *MaxPool) OutputShape() (int, int, int) { return p.d, p.oh, p.ow }

// Forward returns the window maxima and caches their positions.
func (p *MaxPool) Forward(input *matrix.Matrix) *matrix.Matrix {
	checkCols("MaxPool.Forward", input, p.d*p.h*p.w)

	batch := input.Rows()
	outCols := p.d * p.oh * p.ow
	out := matrix.New(batch, outCols)
	p.batch = batch
	p.index = make([]int, batch*outCols)

	in := input.Data()
	inCols := input.Cols()
	res := out.Data()
	plane := p.h * p.w

	parallel.ForBatch(batch, p.d, func(b, c int) {
		row := in[b*inCols : (b+1)*inCols]
		for i := 0; i < p.oh; i++ {
			for j := 0; j < p.ow; j++ {
				best := -math.MaxFloat64
				bestIdx := c*plane + i*p.stride*p.w + j*p.stride
				for pi := 0; pi < p.pool; pi++ {
					for pj := 0; pj < p.pool; pj++ {
						idx := c*plane + (i*p.stride+pi)*p.w + j*p.stride + pj
						if row[idx] > best {
							best = row[idx]
							bestIdx = idx
						}
					}
				}
				o := b*outCols + c*p.oh*p.ow + i*p.ow + j
				res[o] = row[bestIdx]
				p.index[o] = bestIdx
			}
		}
	}, p.parallel)
	return out
}

// Backward scatters delta onto the cached maxima.
func (p *MaxPool) Backward(delta *matrix.Matrix) *matrix.Matrix {
	if p.index == nil {
		panic("MaxPool.Backward: called before Forward")
	}
	outCols := p.d * p.oh * p.ow
	checkShape("MaxPool.Backward", delta, p.batch, outCols)

	inCols := p.d * p.h * p.w
	prev := matrix.New(p.batch, inCols)
	dp := prev.Data()
	dd := delta.Data()

	parallel.For(p.batch, func(b int) {
		for o := 0; o < outCols; o++ {
			dp[b*inCols+p.index[b*outCols+o]] += dd[b*outCols+o]
		}
	}, p.parallel)
	return prev
}
