package network

import (
	"bytes"
	"errors"
	"log/slog"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradnet/internal/accel"
	"github.com/born-ml/gradnet/internal/matrix"
	"github.com/born-ml/gradnet/internal/nn"
	"github.com/born-ml/gradnet/internal/optim"
	"github.com/born-ml/gradnet/internal/parallel"
)

// assertPanicsWith checks that f panics with a *matrix.Error of the given kind.
func assertPanicsWith(t *testing.T, kind error, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.True(t, errors.Is(err, kind), "got %v, want %v", err, kind)
	}()
	f()
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// convNet builds a network exercising every layer type on 1x6x6 inputs.
func convNet(seed int64, dropout bool) *Network {
	n := New(WithSeed(seed), WithLogger(quiet()), WithLoss(nn.CrossEntropyLoss{}))
	n.Add(nn.NewZeroPad(6, 6, 1, 1))           // 1x8x8
	n.Add(nn.NewConv2D(8, 8, 1, 2, 3, n.Rand())) // 2x6x6
	n.Add(nn.NewReLU())
	n.Add(nn.NewMaxPool(6, 6, 2, 2, 2)) // 2x3x3
	n.Add(nn.NewDense(18, 8, n.Rand()))
	n.Add(nn.NewBatchNorm(8))
	n.Add(nn.NewTanh())
	if dropout {
		n.Add(nn.NewDropout(0.2, n.Rand()))
	}
	n.Add(nn.NewDense(8, 3, n.Rand()))
	n.Add(nn.NewSoftmax())
	return n
}

// images returns rows of 36 pixels and one-hot labels by brightest third.
func images(n int, seed int64) (x, y *matrix.Matrix) {
	x = matrix.Random(n, 36, 0, 1, rand.New(rand.NewSource(seed)))
	y = matrix.New(n, 3)
	for i := 0; i < n; i++ {
		var sums [3]float64
		for j := 0; j < 36; j++ {
			sums[j/12] += x.At(i, j)
		}
		best := 0
		for k := range sums {
			if sums[k] > sums[best] {
				best = k
			}
		}
		y.Set(i, best, 1)
	}
	return x, y
}

func TestPredict_ComposesLayers(t *testing.T) {
	n := New(WithSeed(1), WithLogger(quiet()))
	n.Add(nn.NewDenseFrom(matrix.FromRows([][]float64{{2}}), matrix.FromRows([][]float64{{1}})))
	n.Add(nn.NewReLU())

	out := n.Predict(matrix.FromRows([][]float64{{3}, {-3}}))
	assert.Equal(t, []float64{7, 0}, out.Data())
	assert.Equal(t, 2, n.Len())
	assert.Len(t, n.Layers(), 2)
	assert.Len(t, n.Parameters(), 2)
}

func TestFit_AppliesOptimizerToOutputDifference(t *testing.T) {
	n := New(WithSeed(1), WithLogger(quiet()), WithOptimizer(optim.NewSGD(optim.SGDConfig{})))
	n.Add(nn.NewDenseFrom(matrix.FromRows([][]float64{{1}}), matrix.New(1, 1)))

	x := matrix.FromRows([][]float64{{1}, {2}})
	y := matrix.FromRows([][]float64{{3}, {5}})
	n.Fit(x, y, 1, 0.1)

	// delta = [-2, -3]; dW = xᵀ·delta = -8; db = -5
	d := n.Layers()[0].(*nn.Dense)
	assert.InDelta(t, 1.8, d.Weight().Value().At(0, 0), 1e-12)
	assert.InDelta(t, 0.5, d.Bias().Value().At(0, 0), 1e-12)
	assert.Equal(t, 0.1, n.Optimizer().GetLR())
	assert.Nil(t, d.Weight().Grad(), "gradients are cleared after the step")
}

func TestFit_LinearRegression(t *testing.T) {
	n := New(WithSeed(3), WithLogger(quiet()), WithOptimizer(optim.NewAdam(optim.AdamConfig{})))
	n.Add(nn.NewDense(1, 1, n.Rand()))

	x := matrix.FromRows([][]float64{{-1}, {-0.5}, {0}, {0.5}, {1}})
	y := x.Scale(2)

	before := nn.MSE(n.Predict(x), y)
	n.Fit(x, y, 500, 0.05)
	after := nn.MSE(n.Predict(x), y)
	assert.Less(t, after, before)
	assert.Less(t, after, 1e-2)
}

func TestFit_Classifier(t *testing.T) {
	x, y := images(64, 11)
	n := convNet(5, false)

	first := n.Fit(x, y, 1, 0.01)
	last := n.Fit(x, y, 150, 0.01)
	assert.Less(t, last, first)

	n.SetTraining(false)
	assert.Greater(t, nn.Accuracy(n.Predict(x), y), 0.6)
}

func TestFitBatches(t *testing.T) {
	x, y := images(20, 2)
	n := convNet(9, true)

	var logs bytes.Buffer
	n.logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	first := n.FitBatches(x, y, 1, 8, 0.01)
	last := n.FitBatches(x, y, 60, 8, 0.01)
	assert.Less(t, last, first)
	assert.Contains(t, logs.String(), "batches=3")
	assert.Contains(t, logs.String(), "loss_fn=cross_entropy")

	assertPanicsWith(t, matrix.ErrOutOfRange, func() { n.FitBatches(x, y, 1, 0, 0.01) })
	assertPanicsWith(t, matrix.ErrDimensionMismatch, func() { n.FitBatches(x, y.Slice(0, 3), 1, 4, 0.01) })
}

func TestFit_LogsEpochs(t *testing.T) {
	var logs bytes.Buffer
	n := New(WithSeed(1), WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	n.Add(nn.NewDense(1, 1, n.Rand()))
	n.Fit(matrix.Ones(2, 1), matrix.Ones(2, 1), 2, 0.01)

	assert.Contains(t, logs.String(), "epoch=1")
	assert.Contains(t, logs.String(), "epoch=2")
	assert.Contains(t, logs.String(), "loss_fn=mse")
}

func TestFit_TargetMismatch(t *testing.T) {
	n := New(WithSeed(1), WithLogger(quiet()))
	n.Add(nn.NewDense(2, 2, n.Rand()))
	assertPanicsWith(t, matrix.ErrDimensionMismatch, func() {
		n.Fit(matrix.New(3, 2), matrix.New(3, 1), 1, 0.1)
	})
}

func TestSetTraining(t *testing.T) {
	n := New(WithSeed(1), WithLogger(quiet()))
	n.Add(nn.NewDropout(0.5, n.Rand()))
	x := matrix.Ones(1, 4)

	n.SetTraining(false)
	assert.Equal(t, []float64{0.5, 0.5, 0.5, 0.5}, n.Predict(x).Data())
}

func TestSaveLoad_EveryLayerType(t *testing.T) {
	x, y := images(16, 4)
	src := convNet(1, true)
	src.Fit(x, y, 5, 0.01)
	src.SetTraining(false)
	want := src.Predict(x)

	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf))

	dst := convNet(2, true)
	dst.SetTraining(false)
	require.False(t, want.Equal(dst.Predict(x)))

	require.NoError(t, dst.Load(&buf))
	assert.True(t, want.Equal(dst.Predict(x)))
	assert.Zero(t, buf.Len())
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.bin")
	x, _ := images(4, 1)

	src := convNet(1, false)
	src.SetTraining(false)
	require.NoError(t, src.SaveFile(path))

	dst := convNet(3, false)
	dst.SetTraining(false)
	require.NoError(t, dst.LoadFile(path))
	assert.True(t, src.Predict(x).Equal(dst.Predict(x)))

	small := New(WithSeed(1), WithLogger(quiet()))
	small.Add(nn.NewDense(400, 400, small.Rand()))
	assert.Error(t, small.LoadFile(path))
	assert.Error(t, small.LoadFile(filepath.Join(t.TempDir(), "missing.bin")))
}

func TestCheckpoint_ResumesTraining(t *testing.T) {
	x, y := images(16, 8)

	ref := convNet(1, false)
	ref.Fit(x, y, 3, 0.01)

	ck := ref.Checkpoint(3, 0.5)
	assert.Equal(t, 3, ck.Epoch)
	assert.Equal(t, "9", ck.Metadata["layers"])
	assert.Equal(t, "0.01", ck.Metadata["lr"])
	_, ok := ck.Get("layers.5.running_var")
	assert.True(t, ok)
	_, ok = ck.Get("optim.t.0")
	assert.True(t, ok)

	path := filepath.Join(t.TempDir(), "ck.gnet")
	require.NoError(t, ref.SaveCheckpoint(path, 3, 0.5))

	resumed := convNet(2, false)
	loaded, err := resumed.LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Epoch)

	ref.Fit(x, y, 2, 0.01)
	resumed.Fit(x, y, 2, 0.01)

	ref.SetTraining(false)
	resumed.SetTraining(false)
	assert.True(t, ref.Predict(x).Equal(resumed.Predict(x)))
}

func TestRestore_Errors(t *testing.T) {
	src := New(WithSeed(1), WithLogger(quiet()))
	src.Add(nn.NewDense(2, 3, src.Rand()))
	ck := src.Checkpoint(0, 0)

	wrongShape := New(WithSeed(1), WithLogger(quiet()))
	wrongShape.Add(nn.NewDense(3, 3, wrongShape.Rand()))
	err := wrongShape.Restore(ck)
	require.Error(t, err)
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	extra := New(WithSeed(1), WithLogger(quiet()))
	extra.Add(nn.NewDense(2, 3, extra.Rand()))
	extra.Add(nn.NewDense(3, 1, extra.Rand()))
	err = extra.Restore(ck)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layers.1.weight")
}

func TestUseAccelerator(t *testing.T) {
	x, _ := images(4, 6)
	host := convNet(1, false)
	dev := convNet(1, false)
	host.SetTraining(false)
	dev.SetTraining(false)

	var logs bytes.Buffer
	dev.logger = slog.New(slog.NewTextHandler(&logs, nil))
	dev.UseAccelerator(accel.NewHost(parallel.DefaultConfig()))
	defer dev.Release()

	assert.InDeltaSlice(t, host.Predict(x).Data(), dev.Predict(x).Data(), 1e-12)
	assert.Contains(t, logs.String(), "layers=3")
}
