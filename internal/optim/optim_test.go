package optim_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradnet/internal/matrix"
	"github.com/born-ml/gradnet/internal/nn"
	"github.com/born-ml/gradnet/internal/optim"
)

// scalar returns a 1x1 parameter holding v with gradient g.
func scalar(v, g float64) *nn.Parameter {
	p := nn.NewParameter("x", matrix.FromSlice(1, 1, []float64{v}))
	p.SetGrad(matrix.FromSlice(1, 1, []float64{g}))
	return p
}

func value(p *nn.Parameter) float64 { return p.Value().At(0, 0) }

func TestSGD_SimpleUpdate(t *testing.T) {
	p := scalar(2, 1)
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1})
	opt.Step([]*nn.Parameter{p})

	// x_new = x_old - lr * grad = 2.0 - 0.1 * 1.0
	assert.InDelta(t, 1.9, value(p), 1e-12)
}

func TestSGD_WithMomentum(t *testing.T) {
	p := scalar(2, 1)
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	opt.Step([]*nn.Parameter{p}) // v = 1
	assert.InDelta(t, 1.9, value(p), 1e-12)
	opt.Step([]*nn.Parameter{p}) // v = 0.9 + 1
	assert.InDelta(t, 1.71, value(p), 1e-12)
}

func TestSGD_Defaults(t *testing.T) {
	opt := optim.NewSGD(optim.SGDConfig{})
	assert.Equal(t, 0.01, opt.GetLR())
	opt.SetLR(0.5)
	assert.Equal(t, 0.5, opt.GetLR())
}

func TestAdam_FirstStep(t *testing.T) {
	p := scalar(2, 4)
	opt := optim.NewAdam(optim.AdamConfig{LR: 0.1})
	opt.Step([]*nn.Parameter{p})

	// After bias correction m_hat = g and v_hat = g², so the step is lr·sign(g).
	assert.InDelta(t, 1.9, value(p), 1e-8)
	assert.Equal(t, 1, opt.Timestep(p))
}

func TestAdam_Defaults(t *testing.T) {
	opt := optim.NewAdam(optim.AdamConfig{})
	assert.Equal(t, 0.001, opt.GetLR())
	opt.SetLR(0.01)
	assert.Equal(t, 0.01, opt.GetLR())
}

func TestAdam_SkipsMissingGradients(t *testing.T) {
	p := nn.NewParameter("w", matrix.FromSlice(1, 2, []float64{1, 2}))
	opt := optim.NewAdam(optim.AdamConfig{})
	opt.Step([]*nn.Parameter{p})

	assert.Equal(t, []float64{1, 2}, p.Value().Data())
	assert.Equal(t, 0, opt.Timestep(p))
	assert.Empty(t, opt.StateDict([]*nn.Parameter{p}))
}

func TestAdam_TimestepPerParameter(t *testing.T) {
	a, b := scalar(1, 1), scalar(1, 1)
	opt := optim.NewAdam(optim.AdamConfig{})
	opt.Step([]*nn.Parameter{a, b})
	opt.Step([]*nn.Parameter{a})
	opt.Step([]*nn.Parameter{a})

	assert.Equal(t, 3, opt.Timestep(a))
	assert.Equal(t, 1, opt.Timestep(b))
}

func TestZeroGrad(t *testing.T) {
	for _, opt := range []optim.Optimizer{optim.NewAdam(optim.AdamConfig{}), optim.NewSGD(optim.SGDConfig{})} {
		params := []*nn.Parameter{scalar(1, 1), scalar(2, 2)}
		opt.ZeroGrad(params)
		for _, p := range params {
			assert.Nil(t, p.Grad())
		}
	}
}

// TestAdam_DenseLinearRegression fits y = 2x with one dense unit.
func TestAdam_DenseLinearRegression(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	layer := nn.NewDense(1, 1, rng)
	x := matrix.FromRows([][]float64{{-1}, {-0.5}, {0}, {0.5}, {1}})
	y := x.Scale(2)
	opt := optim.NewAdam(optim.AdamConfig{LR: 0.05})

	loss := func() float64 { return nn.MSE(layer.Forward(x), y) }
	initial := loss()
	for i := 0; i < 500; i++ {
		pred := layer.Forward(x)
		layer.Backward(nn.DMSE(pred, y))
		opt.Step(layer.Parameters())
	}
	final := loss()

	assert.Less(t, final, initial)
	assert.Less(t, final, 1e-2)
	assert.InDelta(t, 2, layer.Weight().Value().At(0, 0), 0.2)
}

func TestAdam_StateDictResumes(t *testing.T) {
	grads := []float64{1, -2, 0.5, 3}

	ref := scalar(1, grads[0])
	refOpt := optim.NewAdam(optim.AdamConfig{LR: 0.1})

	p := scalar(1, grads[0])
	opt := optim.NewAdam(optim.AdamConfig{LR: 0.1})

	for i, g := range grads {
		ref.SetGrad(matrix.FromSlice(1, 1, []float64{g}))
		refOpt.Step([]*nn.Parameter{ref})

		p.SetGrad(matrix.FromSlice(1, 1, []float64{g}))
		opt.Step([]*nn.Parameter{p})

		if i == 1 {
			state := opt.StateDict([]*nn.Parameter{p})
			require.Len(t, state, 3)
			assert.Equal(t, 2.0, state["t.0"].At(0, 0))

			opt = optim.NewAdam(optim.AdamConfig{LR: 0.1})
			require.NoError(t, opt.LoadStateDict([]*nn.Parameter{p}, state))
		}
	}
	assert.Equal(t, value(ref), value(p))
	assert.Equal(t, 4, opt.Timestep(p))
}

func TestAdam_LoadStateDictErrors(t *testing.T) {
	p := scalar(1, 1)
	opt := optim.NewAdam(optim.AdamConfig{})

	err := opt.LoadStateDict([]*nn.Parameter{p}, map[string]*matrix.Matrix{
		"m.0": matrix.New(2, 1),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shape mismatch")

	err = opt.LoadStateDict([]*nn.Parameter{p}, map[string]*matrix.Matrix{
		"m.0": matrix.New(1, 1),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete")
}

func TestSGD_StateDict(t *testing.T) {
	p := scalar(2, 1)
	opt := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})
	opt.Step([]*nn.Parameter{p})

	state := opt.StateDict([]*nn.Parameter{p})
	require.Contains(t, state, "velocity.0")

	resumed := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})
	require.NoError(t, resumed.LoadStateDict([]*nn.Parameter{p}, state))
	resumed.Step([]*nn.Parameter{p})
	assert.InDelta(t, 1.71, value(p), 1e-12)

	plain := optim.NewSGD(optim.SGDConfig{})
	plain.Step([]*nn.Parameter{p})
	assert.Empty(t, plain.StateDict([]*nn.Parameter{p}))
}
