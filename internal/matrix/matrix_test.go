package matrix

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// panicKind runs f and returns the error kind it panicked with.
func panicKind(t *testing.T, f func()) (kind error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		var me *Error
		require.True(t, errors.As(err, &me))
		kind = me.Err
	}()
	f()
	return nil
}

func assertClose(t *testing.T, want, got *Matrix, tol float64) {
	t.Helper()
	require.Equal(t, want.Rows(), got.Rows())
	require.Equal(t, want.Cols(), got.Cols())
	assert.InDeltaSlice(t, want.Data(), got.Data(), tol)
}

func TestConstructors(t *testing.T) {
	z := New(2, 3)
	assert.Equal(t, 2, z.Rows())
	assert.Equal(t, 3, z.Cols())
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0}, z.Data())

	assert.Equal(t, []float64{1, 1, 1, 1}, Ones(2, 2).Data())
	assert.Equal(t, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, Identity(3).Data())

	rng := rand.New(rand.NewSource(7))
	r := Random(10, 10, -2, 3, rng)
	for _, v := range r.Data() {
		assert.GreaterOrEqual(t, v, -2.0)
		assert.Less(t, v, 3.0)
	}
}

func TestFromSlice_Copies(t *testing.T) {
	src := []float64{1, 2, 3, 4}
	m := FromSlice(2, 2, src)
	src[0] = 99
	assert.Equal(t, 1.0, m.At(0, 0))

	assert.Equal(t, ErrDimensionMismatch, panicKind(t, func() { FromSlice(2, 2, []float64{1}) }))
}

func TestClone_NoAliasing(t *testing.T) {
	a := FromSlice(1, 2, []float64{1, 2})
	b := a.Clone()
	b.Set(0, 0, 10)
	assert.Equal(t, 1.0, a.At(0, 0))
	assert.Equal(t, 10.0, b.At(0, 0))
}

func TestAtSet_Bounds(t *testing.T) {
	m := New(2, 2)
	assert.Equal(t, ErrOutOfRange, panicKind(t, func() { m.At(2, 0) }))
	assert.Equal(t, ErrOutOfRange, panicKind(t, func() { m.Set(0, -1, 1) }))
}

func TestElementwise(t *testing.T) {
	a := FromSlice(2, 2, []float64{1, 2, 3, 4})
	b := FromSlice(2, 2, []float64{5, 6, 7, 8})

	assert.Equal(t, []float64{6, 8, 10, 12}, a.Add(b).Data())
	assert.Equal(t, []float64{-4, -4, -4, -4}, a.Sub(b).Data())
	assert.Equal(t, []float64{5, 12, 21, 32}, a.Hadamard(b).Data())
	assert.Equal(t, []float64{2, 3, 4, 5}, a.AddScalar(1).Data())
	assert.Equal(t, []float64{0, 1, 2, 3}, a.SubScalar(1).Data())
	assert.Equal(t, []float64{2, 4, 6, 8}, a.Scale(2).Data())

	// Operands untouched.
	assert.Equal(t, []float64{1, 2, 3, 4}, a.Data())
}

func TestElementwise_ShapeMismatch(t *testing.T) {
	a := New(2, 2)
	b := New(2, 3)
	for name, f := range map[string]func(){
		"add":      func() { a.Add(b) },
		"sub":      func() { a.Sub(b) },
		"hadamard": func() { a.Hadamard(b) },
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, ErrDimensionMismatch, panicKind(t, f))
		})
	}
}

func TestMul(t *testing.T) {
	a := FromSlice(2, 3, []float64{1, 2, 3, 4, 5, 6})
	b := FromSlice(3, 2, []float64{7, 8, 9, 10, 11, 12})
	assert.Equal(t, []float64{58, 64, 139, 154}, a.Mul(b).Data())

	assert.Equal(t, ErrDimensionMismatch, panicKind(t, func() { a.Mul(a) }))
}

func TestMul_LargeMatchesSmallPath(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := Random(80, 70, -1, 1, rng)
	b := Random(70, 90, -1, 1, rng)

	got := a.Mul(b)

	want := New(80, 90)
	for i := 0; i < 80; i++ {
		for p := 0; p < 70; p++ {
			for j := 0; j < 90; j++ {
				want.data[i*90+j] += a.data[i*70+p] * b.data[p*90+j]
			}
		}
	}
	assertClose(t, want, got, 1e-9)
}

func TestMul_Associative(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a := Random(4, 5, -1, 1, rng)
	b := Random(5, 3, -1, 1, rng)
	c := Random(3, 6, -1, 1, rng)

	assertClose(t, a.Mul(b).Mul(c), a.Mul(b.Mul(c)), 1e-12)
}

func TestTranspose_DistributesOverAdd(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := Random(3, 4, -1, 1, rng)
	b := Random(3, 4, -1, 1, rng)

	assert.True(t, a.Add(b).Transpose().Equal(a.Transpose().Add(b.Transpose())))
	assert.Equal(t, []float64{1, 3, 2, 4}, FromSlice(2, 2, []float64{1, 2, 3, 4}).Transpose().Data())
}

func TestSumRowsAndRowVector(t *testing.T) {
	m := FromSlice(3, 2, []float64{1, 2, 3, 4, 5, 6})
	s := m.SumRows()
	assert.Equal(t, 1, s.Rows())
	assert.Equal(t, []float64{9, 12}, s.Data())

	v := FromSlice(1, 2, []float64{10, 20})
	assert.Equal(t, []float64{11, 22, 13, 24, 15, 26}, m.AddRowVector(v).Data())
	assert.Equal(t, ErrDimensionMismatch, panicKind(t, func() { m.AddRowVector(New(1, 3)) }))
}

func TestApply(t *testing.T) {
	m := FromSlice(1, 3, []float64{-1, 0, 2})
	got := m.Apply(func(x float64) float64 { return x * x })
	assert.Equal(t, []float64{1, 0, 4}, got.Data())
}

func TestSlice(t *testing.T) {
	m := FromSlice(4, 1, []float64{0, 1, 2, 3})
	assert.Equal(t, []float64{1, 2}, m.Slice(1, 3).Data())

	for name, r := range map[string][2]int{
		"empty":    {2, 2},
		"reversed": {3, 1},
		"past end": {2, 5},
		"negative": {-1, 2},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, ErrOutOfRange, panicKind(t, func() { m.Slice(r[0], r[1]) }))
		})
	}
}

func TestEqual(t *testing.T) {
	a := FromSlice(2, 1, []float64{1, 2})
	assert.True(t, a.Equal(FromSlice(2, 1, []float64{1, 2})))
	assert.False(t, a.Equal(FromSlice(1, 2, []float64{1, 2})))
	assert.False(t, a.Equal(FromSlice(2, 1, []float64{1, 2.0000001})))
}

func TestWriteReadRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	m := Random(3, 5, -10, 10, rng)

	var buf bytes.Buffer
	n, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(3*5*8), n)

	got := New(3, 5)
	_, err = got.ReadFrom(&buf)
	require.NoError(t, err)
	assert.True(t, m.Equal(got))
}

func TestReadFrom_Short(t *testing.T) {
	m := New(2, 2)
	_, err := m.ReadFrom(bytes.NewReader(make([]byte, 10)))
	require.Error(t, err)
}

func BenchmarkMul(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	x := Random(128, 128, -1, 1, rng)
	y := Random(128, 128, -1, 1, rng)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x.Mul(y)
	}
}
