package accel

import (
	"github.com/born-ml/gradnet/internal/parallel"
)

// ConvForward is the host convolution kernel. output must hold g.OutputLen()
// values and is overwritten.
//
// Work is split over (sample, filter) pairs; each pair owns one output plane.
func ConvForward(input, kernels, output []float64, g ConvGeometry, cfg parallel.Config) {
	inPlane := g.H * g.W
	outPlane := g.OH * g.OW
	kPlane := g.K * g.K

	parallel.ForBatch(g.Batch, g.F, func(b, f int) {
		in := input[b*g.D*inPlane:]
		out := output[(b*g.F+f)*outPlane : (b*g.F+f+1)*outPlane]
		ker := kernels[f*g.D*kPlane:]

		for i := 0; i < g.OH; i++ {
			for j := 0; j < g.OW; j++ {
				var sum float64
				for d := 0; d < g.D; d++ {
					ip := in[d*inPlane:]
					kp := ker[d*kPlane:]
					for ki := 0; ki < g.K; ki++ {
						row := (i+ki)*g.W + j
						krow := ki * g.K
						for kj := 0; kj < g.K; kj++ {
							sum += ip[row+kj] * kp[krow+kj]
						}
					}
				}
				out[i*g.OW+j] = sum
			}
		}
	}, cfg)
}

// ConvBackward is the host convolution gradient kernel. dKernels, dBias and
// prevDelta are overwritten.
//
// Kernel and bias gradients are split over filters, input gradients over
// samples, so no two workers write the same element.
func ConvBackward(input, delta, kernels, dKernels, dBias, prevDelta []float64, g ConvGeometry, cfg parallel.Config) {
	inPlane := g.H * g.W
	outPlane := g.OH * g.OW
	kPlane := g.K * g.K

	parallel.For(g.F, func(f int) {
		dk := dKernels[f*g.D*kPlane : (f+1)*g.D*kPlane]
		clear(dk)
		var db float64
		for b := 0; b < g.Batch; b++ {
			in := input[b*g.D*inPlane:]
			dp := delta[(b*g.F+f)*outPlane:]
			for i := 0; i < g.OH; i++ {
				for j := 0; j < g.OW; j++ {
					v := dp[i*g.OW+j]
					db += v
					for d := 0; d < g.D; d++ {
						ip := in[d*inPlane:]
						kp := dk[d*kPlane:]
						for ki := 0; ki < g.K; ki++ {
							row := (i+ki)*g.W + j
							for kj := 0; kj < g.K; kj++ {
								kp[ki*g.K+kj] += ip[row+kj] * v
							}
						}
					}
				}
			}
		}
		dBias[f] = db
	}, cfg)

	parallel.For(g.Batch, func(b int) {
		prev := prevDelta[b*g.D*inPlane : (b+1)*g.D*inPlane]
		clear(prev)
		for f := 0; f < g.F; f++ {
			dp := delta[(b*g.F+f)*outPlane:]
			ker := kernels[f*g.D*kPlane:]
			for i := 0; i < g.OH; i++ {
				for j := 0; j < g.OW; j++ {
					v := dp[i*g.OW+j]
					for d := 0; d < g.D; d++ {
						pp := prev[d*inPlane:]
						kp := ker[d*kPlane:]
						for ki := 0; ki < g.K; ki++ {
							row := (i+ki)*g.W + j
							for kj := 0; kj < g.K; kj++ {
								pp[row+kj] += v * kp[ki*g.K+kj]
							}
						}
					}
				}
			}
		}
	}, cfg)
}
