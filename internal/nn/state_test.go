package nn

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradnet/internal/matrix"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	build := []struct {
		name string
		new  func(rng *rand.Rand) any
	}{
		{"dense", func(rng *rand.Rand) any { return NewDense(3, 2, rng) }},
		{"conv2d", func(rng *rand.Rand) any { return NewConv2D(4, 4, 2, 3, 3, rng) }},
		{"batchnorm", func(rng *rand.Rand) any {
			bn := NewBatchNorm(3)
			bn.Forward(matrix.Random(4, 3, -1, 1, rng))
			return bn
		}},
		{"recurrent", func(rng *rand.Rand) any { return NewRecurrent(2, 3, rng) }},
		{"lstm", func(rng *rand.Rand) any { return NewLSTM(2, 3, rng) }},
	}
	for _, tc := range build {
		t.Run(tc.name, func(t *testing.T) {
			src := tc.new(rand.New(rand.NewSource(1)))
			dst := tc.new(rand.New(rand.NewSource(2)))

			var buf bytes.Buffer
			require.NoError(t, Save(&buf, src))
			require.NoError(t, Load(&buf, dst))
			assert.Zero(t, buf.Len(), "load consumes exactly what save wrote")

			srcState, dstState := src.(Stateful).State(), dst.(Stateful).State()
			require.Len(t, dstState, len(srcState))
			for i := range srcState {
				assert.Equal(t, srcState[i].Name, dstState[i].Name)
				assert.True(t, srcState[i].Value.Equal(dstState[i].Value), srcState[i].Name)
			}
		})
	}
}

func TestSave_StatelessWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	for _, l := range []any{NewSoftmax(), NewReLU(), NewMaxPool(2, 2, 1, 2, 2), NewZeroPad(2, 2, 1, 1)} {
		require.NoError(t, Save(&buf, l))
		require.NoError(t, Load(&buf, l))
	}
	assert.Zero(t, buf.Len())
}

func TestSave_BatchNormOrder(t *testing.T) {
	bn := NewBatchNorm(1)
	bn.gamma.Value().Fill(2)
	bn.beta.Value().Fill(3)
	bn.mean.Fill(4)
	bn.variance.Fill(5)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, bn))

	got := matrix.New(1, 4)
	_, err := got.ReadFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4, 5}, got.Data())
}

func TestLoad_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, NewDense(3, 2, newRand())))
	short := bytes.NewReader(buf.Bytes()[:buf.Len()-8])

	err := Load(short, NewDense(3, 2, newRand()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load bias")
}

func TestParameter(t *testing.T) {
	p := NewParameter("w", matrix.New(2, 2))
	assert.Equal(t, "w", p.Name())
	assert.Nil(t, p.Grad())

	p.AccumulateGrad(matrix.Ones(2, 2))
	p.AccumulateGrad(matrix.Ones(2, 2))
	assert.Equal(t, []float64{2, 2, 2, 2}, p.Grad().Data())

	p.SetGrad(matrix.Identity(2))
	assert.Equal(t, []float64{1, 0, 0, 1}, p.Grad().Data())

	p.ZeroGrad()
	assert.Nil(t, p.Grad())

	assertPanicsWith(t, matrix.ErrDimensionMismatch, func() { p.SetGrad(matrix.New(1, 2)) })
	assertPanicsWith(t, matrix.ErrDimensionMismatch, func() { p.AccumulateGrad(matrix.New(2, 1)) })
}

func TestInitializers(t *testing.T) {
	rng := newRand()
	u := Uniform(10, 10, 0.3, rng)
	for _, v := range u.Data() {
		assert.True(t, v >= -0.3 && v < 0.3)
	}

	he := HeNormal(50, 50, 8, rng)
	var sum, sq float64
	for _, v := range he.Data() {
		sum += v
		sq += v * v
	}
	n := float64(he.Size())
	assert.InDelta(t, 0, sum/n, 0.05)
	assert.InDelta(t, 0.25, sq/n, 0.03)
}
