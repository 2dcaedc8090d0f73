package preprocess

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradnet/internal/matrix"
)

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

// column returns x with rows 0..n-1 holding i and 10*i, y holding i.
func column(n int) (x, y *matrix.Matrix) {
	x = matrix.New(n, 2)
	y = matrix.New(n, 1)
	for i := 0; i < n; i++ {
		x.Set(i, 0, float64(i))
		x.Set(i, 1, float64(10*i))
		y.Set(i, 0, float64(i))
	}
	return x, y
}

func TestTrainTestSplit_NoShuffle(t *testing.T) {
	x, y := column(10)
	s := TrainTestSplit(x, y, 0.3, false, nil)

	assert.Equal(t, 7, s.XTrain.Rows())
	assert.Equal(t, 3, s.XTest.Rows())
	assert.Equal(t, []float64{7, 70, 8, 80, 9, 90}, s.XTest.Data())
	assert.Equal(t, []float64{7, 8, 9}, s.YTest.Data())
	assert.Equal(t, 2, s.XTrain.Cols())
	assert.Equal(t, 1, s.YTrain.Cols())
}

func TestTrainTestSplit_ShuffleKeepsPairs(t *testing.T) {
	x, y := column(20)
	s := TrainTestSplit(x, y, 0.25, true, rand.New(rand.NewSource(3)))
	require.Equal(t, 15, s.XTrain.Rows())
	require.Equal(t, 5, s.XTest.Rows())

	var seen []float64
	check := func(xs, ys *matrix.Matrix) {
		for i := 0; i < xs.Rows(); i++ {
			assert.Equal(t, ys.At(i, 0), xs.At(i, 0), "row %d", i)
			assert.Equal(t, 10*ys.At(i, 0), xs.At(i, 1), "row %d", i)
			seen = append(seen, ys.At(i, 0))
		}
	}
	check(s.XTrain, s.YTrain)
	check(s.XTest, s.YTest)

	sort.Float64s(seen)
	_, all := column(20)
	assert.Equal(t, all.Data(), seen, "every sample lands in exactly one set")
}

func TestTrainTestSplit_Edges(t *testing.T) {
	x, y := column(3)
	s := TrainTestSplit(x, y, 0, false, nil)
	assert.Equal(t, 3, s.XTrain.Rows())
	assert.Equal(t, 0, s.XTest.Rows())

	s = TrainTestSplit(x, y, 1, false, nil)
	assert.Equal(t, 0, s.XTrain.Rows())
	assert.Equal(t, 3, s.YTest.Rows())

	assertPanicsWith(t, matrix.ErrDimensionMismatch, func() { TrainTestSplit(x, matrix.New(2, 1), 0.5, false, nil) })
	assertPanicsWith(t, matrix.ErrOutOfRange, func() { TrainTestSplit(x, y, 1.5, false, nil) })
}

func TestNormalize(t *testing.T) {
	x := matrix.FromRows([][]float64{{1, 5}, {3, 5}})
	n := Normalize(x)

	assert.Equal(t, []float64{2, 5}, n.Mean.Data())
	assert.Equal(t, []float64{1, 0}, n.Std.Data())
	assert.Equal(t, []float64{-1, 0, 1, 0}, n.Matrix.Data(), "constant column maps to zero")
}

func TestNormalize_UnitVariance(t *testing.T) {
	x := matrix.Random(50, 3, -4, 9, rand.New(rand.NewSource(1)))
	n := Normalize(x)
	for j := 0; j < 3; j++ {
		var sum, sq float64
		for i := 0; i < 50; i++ {
			v := n.Matrix.At(i, j)
			sum += v
			sq += v * v
		}
		assert.InDelta(t, 0, sum/50, 1e-12)
		assert.InDelta(t, 1, math.Sqrt(sq/50), 1e-12)
	}

	again := ApplyNormalize(x, n.Mean, n.Std)
	assert.True(t, again.Equal(n.Matrix))
}

func TestMinMaxScale(t *testing.T) {
	x := matrix.FromRows([][]float64{{2, 7}, {4, 7}, {3, 7}})
	s := MinMaxScale(x)

	assert.Equal(t, []float64{2, 7}, s.Min.Data())
	assert.Equal(t, []float64{4, 7}, s.Max.Data())
	assert.Equal(t, []float64{0, 0, 1, 0, 0.5, 0}, s.Matrix.Data())

	test := ApplyMinMax(matrix.FromRows([][]float64{{6, 9}}), s.Min, s.Max)
	assert.Equal(t, []float64{2, 0}, test.Data())
}

func TestScaling_EmptyAndMismatch(t *testing.T) {
	assert.Equal(t, 0, Normalize(matrix.New(0, 2)).Matrix.Rows())
	assert.Equal(t, 0, MinMaxScale(matrix.New(0, 2)).Matrix.Rows())

	assertPanicsWith(t, matrix.ErrDimensionMismatch, func() {
		ApplyMinMax(matrix.New(1, 3), matrix.New(1, 2), matrix.New(1, 2))
	})
	assertPanicsWith(t, matrix.ErrDimensionMismatch, func() {
		ApplyNormalize(matrix.New(1, 3), matrix.New(1, 3), matrix.New(2, 3))
	})
}
