package matrix

import (
	"errors"
	"fmt"
)

// Error kinds raised by shape and bounds violations.
var (
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrOutOfRange        = errors.New("index out of range")
)

// Error is the panic value for invalid matrix operations.
//
// Shape and bounds violations are wiring bugs, so they abort the operation
// instead of being returned. A caller that recovers can still classify them:
//
//	defer func() {
//	    if err, ok := recover().(error); ok && errors.Is(err, matrix.ErrDimensionMismatch) {
//	        ...
//	    }
//	}()
type Error struct {
	Op  string // Operation that failed, e.g. "Matrix.Mul".
	Err error  // ErrDimensionMismatch or ErrOutOfRange.
	Msg string // Shapes or indices involved.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Msg)
}

// Unwrap returns the error kind.
func (e *Error) Unwrap() error {
	return e.Err
}

// DimensionError builds a dimension-mismatch error for op. Layers panic with
// it when wired to inputs of the wrong shape.
func DimensionError(op string, format string, args ...any) *Error {
	return &Error{Op: op, Err: ErrDimensionMismatch, Msg: fmt.Sprintf(format, args...)}
}

// RangeError builds an out-of-range error for op.
func RangeError(op string, format string, args ...any) *Error {
	return &Error{Op: op, Err: ErrOutOfRange, Msg: fmt.Sprintf(format, args...)}
}

func mismatch(op string, format string, args ...any) {
	panic(DimensionError(op, format, args...))
}

func outOfRange(op string, format string, args ...any) {
	panic(RangeError(op, format, args...))
}
