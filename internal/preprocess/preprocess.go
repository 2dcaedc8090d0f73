// Package preprocess splits and rescales feature matrices before training.
//
// Samples are rows and features are columns. Scaling is per column and
// returns the statistics it used so test data can be transformed the same
// way as training data.
package preprocess

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/born-ml/gradnet/internal/matrix"
)

// Split holds the result of TrainTestSplit.
type Split struct {
	XTrain, XTest *matrix.Matrix
	YTrain, YTest *matrix.Matrix
}

// TrainTestSplit puts floor(rows*testSize) samples into the test set and the
// rest into the training set. With shuffle the rows are permuted with rng
// first, otherwise the test set is the tail of the input.
//
// Panics if x and y disagree on the number of rows or testSize is outside
// [0, 1].
func TrainTestSplit(x, y *matrix.Matrix, testSize float64, shuffle bool, rng *rand.Rand) Split {
	if x.Rows() != y.Rows() {
		panic(matrix.DimensionError("preprocess.TrainTestSplit", "%d samples in x, %d in y", x.Rows(), y.Rows()))
	}
	if testSize < 0 || testSize > 1 {
		panic(matrix.RangeError("preprocess.TrainTestSplit", "test size %g", testSize))
	}

	rows := x.Rows()
	testRows := int(float64(rows) * testSize)
	trainRows := rows - testRows

	order := make([]int, rows)
	for i := range order {
		order[i] = i
	}
	if shuffle {
		rng.Shuffle(rows, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	return Split{
		XTrain: gather(x, order[:trainRows]),
		XTest:  gather(x, order[trainRows:]),
		YTrain: gather(y, order[:trainRows]),
		YTest:  gather(y, order[trainRows:]),
	}
}

// gather copies the listed rows of m into a new matrix.
func gather(m *matrix.Matrix, rows []int) *matrix.Matrix {
	cols := m.Cols()
	out := matrix.New(len(rows), cols)
	dst := out.Data()
	for i, r := range rows {
		copy(dst[i*cols:(i+1)*cols], m.Row(r))
	}
	return out
}

// Standardized is the result of Normalize.
type Standardized struct {
	Matrix *matrix.Matrix
	Mean   *matrix.Matrix // 1 x cols
	Std    *matrix.Matrix // 1 x cols, population standard deviation
}

// Normalize rescales every column to zero mean and unit variance. Constant
// columns become all zeros.
func Normalize(x *matrix.Matrix) Standardized {
	rows, cols := x.Shape()
	res := Standardized{
		Matrix: matrix.New(rows, cols),
		Mean:   matrix.New(1, cols),
		Std:    matrix.New(1, cols),
	}
	if rows == 0 {
		return res
	}

	xt := x.Transpose()
	for j := 0; j < cols; j++ {
		col := xt.Row(j)
		mean, std := stat.PopMeanStdDev(col, nil)
		res.Mean.Set(0, j, mean)
		res.Std.Set(0, j, std)
	}
	res.Matrix = ApplyNormalize(x, res.Mean, res.Std)
	return res
}

// Scaled is the result of MinMaxScale.
type Scaled struct {
	Matrix *matrix.Matrix
	Min    *matrix.Matrix // 1 x cols
	Max    *matrix.Matrix // 1 x cols
}

// MinMaxScale maps every column onto [0, 1]. Constant columns become all
// zeros.
func MinMaxScale(x *matrix.Matrix) Scaled {
	rows, cols := x.Shape()
	res := Scaled{
		Matrix: matrix.New(rows, cols),
		Min:    matrix.New(1, cols),
		Max:    matrix.New(1, cols),
	}
	if rows == 0 {
		return res
	}

	xt := x.Transpose()
	for j := 0; j < cols; j++ {
		col := xt.Row(j)
		res.Min.Set(0, j, floats.Min(col))
		res.Max.Set(0, j, floats.Max(col))
	}
	res.Matrix = ApplyMinMax(x, res.Min, res.Max)
	return res
}

// ApplyMinMax scales x with bounds from an earlier MinMaxScale. Values
// outside the bounds map outside [0, 1].
func ApplyMinMax(x, lo, hi *matrix.Matrix) *matrix.Matrix {
	rows, cols := x.Shape()
	if lo.Rows() != 1 || lo.Cols() != cols || hi.Rows() != 1 || hi.Cols() != cols {
		panic(matrix.DimensionError("preprocess.ApplyMinMax", "bounds %dx%d and %dx%d for %d columns",
			lo.Rows(), lo.Cols(), hi.Rows(), hi.Cols(), cols))
	}
	out := matrix.New(rows, cols)
	for j := 0; j < cols; j++ {
		span := hi.At(0, j) - lo.At(0, j)
		if span == 0 {
			continue
		}
		for i := 0; i < rows; i++ {
			out.Set(i, j, (x.At(i, j)-lo.At(0, j))/span)
		}
	}
	return out
}

// ApplyNormalize standardizes x with statistics from an earlier Normalize.
func ApplyNormalize(x, mean, std *matrix.Matrix) *matrix.Matrix {
	rows, cols := x.Shape()
	if mean.Rows() != 1 || mean.Cols() != cols || std.Rows() != 1 || std.Cols() != cols {
		panic(matrix.DimensionError("preprocess.ApplyNormalize", "statistics %dx%d and %dx%d for %d columns",
			mean.Rows(), mean.Cols(), std.Rows(), std.Cols(), cols))
	}
	out := matrix.New(rows, cols)
	for j := 0; j < cols; j++ {
		s := std.At(0, j)
		if s == 0 {
			continue
		}
		for i := 0; i < rows; i++ {
			out.Set(i, j, (x.At(i, j)-mean.At(0, j))/s)
		}
	}
	return out
}
