package matrix

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// WriteTo dumps the buffer as little-endian float64 values. The shape is not
// written; the reader must already know it.
func (m *Matrix) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 8*len(m.data))
	for i, v := range m.data {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	n, err := w.Write(buf)
	if err != nil {
		return int64(n), fmt.Errorf("write %dx%d matrix: %w", m.rows, m.cols, err)
	}
	return int64(n), nil
}

// ReadFrom fills the buffer from little-endian float64 values, reading exactly
// rows*cols of them.
func (m *Matrix) ReadFrom(r io.Reader) (int64, error) {
	buf := make([]byte, 8*len(m.data))
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return int64(n), fmt.Errorf("read %dx%d matrix: %w", m.rows, m.cols, err)
	}
	for i := range m.data {
		m.data[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return int64(n), nil
}
