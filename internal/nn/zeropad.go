package nn

import (
	"github.com/born-ml/gradnet/internal/matrix"
)

// ZeroPad surrounds every channel plane with pad rows and columns of zeros.
//
// Input [batch, d*h*w] becomes [batch, d*(h+2pad)*(w+2pad)].
type ZeroPad struct {
	h, w, d int
	pad     int
	oh, ow  int
}

// NewZeroPad creates a padding layer for h x w inputs with d channels.
func NewZeroPad(h, w, d, pad int) *ZeroPad {
	if pad < 0 {
		panic(matrix.RangeError("nn.NewZeroPad", "negative pad %d", pad))
	}
	return &ZeroPad{h: h, w: w, d: d, pad: pad, oh: h + 2*pad, ow: w + 2*pad}
}

// OutputShape returns (channels, oh, ow).
func (z *ZeroPad) OutputShape() (int, int, int) { return z.d, z.oh, z.ow }

// Forward embeds each plane at offset (pad, pad).
func (z *ZeroPad) Forward(input *matrix.Matrix) *matrix.Matrix {
	checkCols("ZeroPad.Forward", input, z.d*z.h*z.w)
	out := matrix.New(input.Rows(), z.d*z.oh*z.ow)
	z.copyPlanes(input.Data(), out.Data(), input.Rows(), true)
	return out
}

// Backward extracts the interior of each padded plane.
func (z *ZeroPad) Backward(delta *matrix.Matrix) *matrix.Matrix {
	checkCols("ZeroPad.Backward", delta, z.d*z.oh*z.ow)
	prev := matrix.New(delta.Rows(), z.d*z.h*z.w)
	z.copyPlanes(prev.Data(), delta.Data(), delta.Rows(), false)
	return prev
}

// copyPlanes moves rows between the small and padded layouts.
func (z *ZeroPad) copyPlanes(small, padded []float64, batch int, toPadded bool) {
	sCols, pCols := z.d*z.h*z.w, z.d*z.oh*z.ow
	for b := 0; b < batch; b++ {
		for c := 0; c < z.d; c++ {
			for i := 0; i < z.h; i++ {
				s := small[b*sCols+c*z.h*z.w+i*z.w:][:z.w]
				p := padded[b*pCols+c*z.oh*z.ow+(i+z.pad)*z.ow+z.pad:][:z.w]
				if toPadded {
					copy(p, s)
				} else {
					copy(s, p)
				}
			}
		}
	}
}
