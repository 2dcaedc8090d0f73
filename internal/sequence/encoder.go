package sequence

import (
	"fmt"

	"github.com/born-ml/gradnet/internal/matrix"
)

// Encoder maps token ids onto one-hot column vectors of a fixed height.
//
// Id i sets row i mod buckets, so distinct ids may share a row when the
// vocabulary is larger than the encoder.
type Encoder struct {
	tok     Tokenizer
	buckets int
}

// NewEncoder creates an encoder over tok with the given number of rows per
// step. Panics if buckets is not positive.
func NewEncoder(tok Tokenizer, buckets int) *Encoder {
	if buckets <= 0 {
		panic(matrix.RangeError("sequence.NewEncoder", "%d buckets", buckets))
	}
	return &Encoder{tok: tok, buckets: buckets}
}

// Buckets returns the height of each step vector.
func (e *Encoder) Buckets() int { return e.buckets }

// Bucket returns the row id is folded into.
func (e *Encoder) Bucket(id int) int {
	b := id % e.buckets
	if b < 0 {
		b += e.buckets
	}
	return b
}

// Encode tokenizes text and returns one buckets x 1 step per token.
func (e *Encoder) Encode(text string) ([]*matrix.Matrix, error) {
	ids, err := e.tok.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.tok.Name(), err)
	}
	return e.OneHot(ids), nil
}

// OneHot returns one buckets x 1 step per id.
func (e *Encoder) OneHot(ids []int) []*matrix.Matrix {
	steps := make([]*matrix.Matrix, len(ids))
	for t, id := range ids {
		steps[t] = matrix.New(e.buckets, 1)
		steps[t].Set(e.Bucket(id), 0, 1)
	}
	return steps
}

// EncodeBatch encodes several texts side by side: step t has one column per
// text. Texts shorter than the longest get zero columns past their end.
func (e *Encoder) EncodeBatch(texts []string) ([]*matrix.Matrix, error) {
	ids := make([][]int, len(texts))
	longest := 0
	for i, text := range texts {
		var err error
		if ids[i], err = e.tok.Encode(text); err != nil {
			return nil, fmt.Errorf("%s: text %d: %w", e.tok.Name(), i, err)
		}
		longest = max(longest, len(ids[i]))
	}

	steps := make([]*matrix.Matrix, longest)
	for t := range steps {
		steps[t] = matrix.New(e.buckets, len(texts))
		for col, seq := range ids {
			if t < len(seq) {
				steps[t].Set(e.Bucket(seq[t]), col, 1)
			}
		}
	}
	return steps, nil
}

// Argmax returns, for column col of every step, the row holding the
// largest value. It reads back predictions made over bucket rows.
func Argmax(steps []*matrix.Matrix, col int) []int {
	out := make([]int, len(steps))
	for t, s := range steps {
		best := 0
		for r := 1; r < s.Rows(); r++ {
			if s.At(r, col) > s.At(best, col) {
				best = r
			}
		}
		out[t] = best
	}
	return out
}
