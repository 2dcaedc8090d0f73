// Package matrix implements the dense float64 matrix every layer computes with.
//
// A Matrix is row-major and owns its buffer. Operations never modify their
// operands; each returns a fresh Matrix, so two live matrices never share
// storage. Shape violations panic with *Error.
package matrix

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/gradnet/internal/parallel"
)

// blasThreshold is the m*k*n work above which Mul hands off to BLAS.
const blasThreshold = 64 * 64 * 64

// Matrix is a dense row-major matrix of float64 values.
type Matrix struct {
	rows, cols int
	data       []float64
}

// New returns a zero-filled rows x cols matrix.
func New(rows, cols int) *Matrix {
	if rows < 0 || cols < 0 {
		outOfRange("matrix.New", "negative shape %dx%d", rows, cols)
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// Zeros is an alias for New.
func Zeros(rows, cols int) *Matrix {
	return New(rows, cols)
}

// Ones returns a rows x cols matrix filled with 1.
func Ones(rows, cols int) *Matrix {
	m := New(rows, cols)
	for i := range m.data {
		m.data[i] = 1
	}
	return m
}

// Identity returns the n x n identity matrix.
func Identity(n int) *Matrix {
	m := New(n, n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

// Random returns a matrix with entries drawn uniformly from [lo, hi).
func Random(rows, cols int, lo, hi float64, rng *rand.Rand) *Matrix {
	m := New(rows, cols)
	span := hi - lo
	for i := range m.data {
		m.data[i] = lo + rng.Float64()*span
	}
	return m
}

// FromSlice copies data into a new rows x cols matrix.
func FromSlice(rows, cols int, data []float64) *Matrix {
	if len(data) != rows*cols {
		mismatch("matrix.FromSlice", "%d values for %dx%d", len(data), rows, cols)
	}
	m := New(rows, cols)
	copy(m.data, data)
	return m
}

// FromRows builds a matrix from equal-length rows.
func FromRows(rows [][]float64) *Matrix {
	if len(rows) == 0 {
		return New(0, 0)
	}
	cols := len(rows[0])
	m := New(len(rows), cols)
	for i, r := range rows {
		if len(r) != cols {
			mismatch("matrix.FromRows", "row %d has %d values, want %d", i, len(r), cols)
		}
		copy(m.data[i*cols:], r)
	}
	return m
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// Shape returns (rows, cols).
func (m *Matrix) Shape() (int, int) { return m.rows, m.cols }

// Size returns rows*cols.
func (m *Matrix) Size() int { return len(m.data) }

// Data exposes the backing buffer for kernels that fill or read it in place.
// The slice must not be retained beyond the matrix's owner.
func (m *Matrix) Data() []float64 { return m.data }

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []float64 {
	if i < 0 || i >= m.rows {
		outOfRange("Matrix.Row", "row %d of %d", i, m.rows)
	}
	out := make([]float64, m.cols)
	copy(out, m.data[i*m.cols:(i+1)*m.cols])
	return out
}

// At returns the element at (i, j).
func (m *Matrix) At(i, j int) float64 {
	m.check("Matrix.At", i, j)
	return m.data[i*m.cols+j]
}

// Set stores v at (i, j).
func (m *Matrix) Set(i, j int, v float64) {
	m.check("Matrix.Set", i, j)
	m.data[i*m.cols+j] = v
}

func (m *Matrix) check(op string, i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		outOfRange(op, "(%d, %d) in %dx%d", i, j, m.rows, m.cols)
	}
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{rows: m.rows, cols: m.cols, data: make([]float64, len(m.data))}
	copy(out.data, m.data)
	return out
}

// CopyFrom overwrites m with the values of src, which must have the same shape.
func (m *Matrix) CopyFrom(src *Matrix) {
	m.sameShape("Matrix.CopyFrom", src)
	copy(m.data, src.data)
}

// Fill sets every element to v.
func (m *Matrix) Fill(v float64) {
	for i := range m.data {
		m.data[i] = v
	}
}

func (m *Matrix) sameShape(op string, o *Matrix) {
	if m.rows != o.rows || m.cols != o.cols {
		mismatch(op, "%dx%d vs %dx%d", m.rows, m.cols, o.rows, o.cols)
	}
}

// Add returns m + o.
func (m *Matrix) Add(o *Matrix) *Matrix {
	m.sameShape("Matrix.Add", o)
	out := New(m.rows, m.cols)
	floats.AddTo(out.data, m.data, o.data)
	return out
}

// Sub returns m - o.
func (m *Matrix) Sub(o *Matrix) *Matrix {
	m.sameShape("Matrix.Sub", o)
	out := New(m.rows, m.cols)
	floats.SubTo(out.data, m.data, o.data)
	return out
}

// Hadamard returns the elementwise product m ⊙ o.
func (m *Matrix) Hadamard(o *Matrix) *Matrix {
	m.sameShape("Matrix.Hadamard", o)
	out := New(m.rows, m.cols)
	floats.MulTo(out.data, m.data, o.data)
	return out
}

// AddScalar returns m + s.
func (m *Matrix) AddScalar(s float64) *Matrix {
	out := m.Clone()
	floats.AddConst(s, out.data)
	return out
}

// SubScalar returns m - s.
func (m *Matrix) SubScalar(s float64) *Matrix {
	return m.AddScalar(-s)
}

// Scale returns m * s.
func (m *Matrix) Scale(s float64) *Matrix {
	out := New(m.rows, m.cols)
	floats.ScaleTo(out.data, s, m.data)
	return out
}

// AddRowVector adds the 1 x cols row vector v to every row of m.
func (m *Matrix) AddRowVector(v *Matrix) *Matrix {
	if v.rows != 1 || v.cols != m.cols {
		mismatch("Matrix.AddRowVector", "%dx%d row vector for %dx%d", v.rows, v.cols, m.rows, m.cols)
	}
	out := New(m.rows, m.cols)
	for i := 0; i < m.rows; i++ {
		floats.AddTo(out.data[i*m.cols:(i+1)*m.cols], m.data[i*m.cols:(i+1)*m.cols], v.data)
	}
	return out
}

// Mul returns the matrix product m · o.
//
// Small products run an ikj loop with rows split across workers; large ones
// go through BLAS. Both accumulate the same terms.
func (m *Matrix) Mul(o *Matrix) *Matrix {
	if m.cols != o.rows {
		mismatch("Matrix.Mul", "%dx%d · %dx%d", m.rows, m.cols, o.rows, o.cols)
	}
	out := New(m.rows, o.cols)
	if m.rows == 0 || o.cols == 0 || m.cols == 0 {
		return out
	}

	if m.rows*m.cols*o.cols >= blasThreshold {
		blas64.Gemm(blas.NoTrans, blas.NoTrans, 1,
			blas64.General{Rows: m.rows, Cols: m.cols, Data: m.data, Stride: m.cols},
			blas64.General{Rows: o.rows, Cols: o.cols, Data: o.data, Stride: o.cols},
			0,
			blas64.General{Rows: out.rows, Cols: out.cols, Data: out.data, Stride: out.cols},
		)
		return out
	}

	k, n := m.cols, o.cols
	parallel.For(m.rows, func(i int) {
		row := out.data[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			floats.AddScaled(row, m.data[i*k+p], o.data[p*n:(p+1)*n])
		}
	}, parallel.DefaultConfig())
	return out
}

// Transpose returns mᵀ.
func (m *Matrix) Transpose() *Matrix {
	out := New(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[j*m.rows+i] = m.data[i*m.cols+j]
		}
	}
	return out
}

// SumRows reduces the rows into a single 1 x cols row of column sums.
func (m *Matrix) SumRows() *Matrix {
	out := New(1, m.cols)
	for i := 0; i < m.rows; i++ {
		floats.Add(out.data, m.data[i*m.cols:(i+1)*m.cols])
	}
	return out
}

// Sum returns the sum of all elements.
func (m *Matrix) Sum() float64 {
	return floats.Sum(m.data)
}

// Apply returns f mapped over every element.
func (m *Matrix) Apply(f func(float64) float64) *Matrix {
	out := New(m.rows, m.cols)
	for i, v := range m.data {
		out.data[i] = f(v)
	}
	return out
}

// Slice returns a copy of rows [start, end).
func (m *Matrix) Slice(start, end int) *Matrix {
	if start < 0 || end > m.rows || start >= end {
		outOfRange("Matrix.Slice", "rows [%d, %d) of %d", start, end, m.rows)
	}
	out := New(end-start, m.cols)
	copy(out.data, m.data[start*m.cols:end*m.cols])
	return out
}

// Equal reports whether m and o have the same shape and identical elements.
func (m *Matrix) Equal(o *Matrix) bool {
	return m.rows == o.rows && m.cols == o.cols && floats.Equal(m.data, o.data)
}

// String renders small matrices for debugging.
func (m *Matrix) String() string {
	return fmt.Sprintf("Matrix(%dx%d)%v", m.rows, m.cols, m.data)
}
