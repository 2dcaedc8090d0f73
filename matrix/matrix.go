// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package matrix provides the dense row-major float64 matrix every layer
// consumes and produces.
//
// Operations return new matrices and never alias their operands. Shape and
// index violations panic with *Error, which wraps ErrDimensionMismatch or
// ErrOutOfRange:
//
//	a := matrix.FromRows([][]float64{{1, 2}, {3, 4}})
//	b := a.Mul(matrix.Identity(2)).Scale(0.5)
package matrix

import (
	"math/rand"

	"github.com/born-ml/gradnet/internal/matrix"
)

// Matrix is a dense rows x cols matrix of float64.
type Matrix = matrix.Matrix

// Error is the panic value for invalid matrix operations.
type Error = matrix.Error

// Error kinds raised by shape and bounds violations.
var (
	ErrDimensionMismatch = matrix.ErrDimensionMismatch
	ErrOutOfRange        = matrix.ErrOutOfRange
)

// New creates a zero-filled matrix.
func New(rows, cols int) *Matrix { return matrix.New(rows, cols) }

// Zeros is New.
func Zeros(rows, cols int) *Matrix { return matrix.Zeros(rows, cols) }

// Ones creates a matrix filled with ones.
func Ones(rows, cols int) *Matrix { return matrix.Ones(rows, cols) }

// Identity creates the n x n identity.
func Identity(n int) *Matrix { return matrix.Identity(n) }

// Random fills a matrix uniformly from [lo, hi) using rng.
func Random(rows, cols int, lo, hi float64, rng *rand.Rand) *Matrix {
	return matrix.Random(rows, cols, lo, hi, rng)
}

// FromSlice copies data, row-major, into a new matrix.
func FromSlice(rows, cols int, data []float64) *Matrix { return matrix.FromSlice(rows, cols, data) }

// FromRows builds a matrix from equally long rows.
func FromRows(rows [][]float64) *Matrix { return matrix.FromRows(rows) }
