package sequence

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradnet/internal/matrix"
	"github.com/born-ml/gradnet/internal/nn"
	"github.com/born-ml/gradnet/internal/optim"
)

// failing is a tokenizer whose Encode always fails.
type failing struct{}

var errBroken = errors.New("broken vocabulary")

func (failing) Encode(string) ([]int, error) { return nil, errBroken }
func (failing) Decode([]int) (string, error) { return "", errBroken }
func (failing) VocabSize() int { return 0 }
func (failing) Name() string { return "failing" }

func TestBytes_RoundTrip(t *testing.T) {
	var tok Bytes
	ids, err := tok.Encode("hé!")
	require.NoError(t, err)
	assert.Equal(t, []int{'h', 0xc3, 0xa9, '!'}, ids)

	text, err := tok.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, "hé!", text)
	assert.Equal(t, 256, tok.VocabSize())
	assert.Equal(t, "bytes", tok.Name())
}

func TestBytes_DecodeUnknown(t *testing.T) {
	_, err := Bytes{}.Decode([]int{65, 300})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownToken)

	var te *TokenError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 300, te.Token)
	assert.Equal(t, "unknown token: 300 not in vocabulary of 256", err.Error())
}

func TestEncoder_OneHot(t *testing.T) {
	enc := NewEncoder(Bytes{}, 4)
	steps, err := enc.Encode("ab")
	require.NoError(t, err)
	require.Len(t, steps, 2)

	// 'a' = 97 -> 1, 'b' = 98 -> 2
	assert.Equal(t, []float64{0, 1, 0, 0}, steps[0].Data())
	assert.Equal(t, []float64{0, 0, 1, 0}, steps[1].Data())
	assert.Equal(t, 4, enc.Buckets())
}

func TestEncoder_Bucket(t *testing.T) {
	enc := NewEncoder(Bytes{}, 5)
	assert.Equal(t, 0, enc.Bucket(10))
	assert.Equal(t, 3, enc.Bucket(8))
	assert.Equal(t, 4, enc.Bucket(-1))

	empty, err := enc.Encode("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEncoder_EncodeBatch(t *testing.T) {
	enc := NewEncoder(Bytes{}, 8)
	steps, err := enc.EncodeBatch([]string{"abc", "a"})
	require.NoError(t, err)
	require.Len(t, steps, 3)

	for _, s := range steps {
		assert.Equal(t, 8, s.Rows())
		assert.Equal(t, 2, s.Cols())
	}
	assert.Equal(t, 1.0, steps[0].At(enc.Bucket('a'), 1))
	assert.Equal(t, 1.0, steps[1].Sum(), "second text ended after one step")
	assert.Equal(t, 1.0, steps[2].At(enc.Bucket('c'), 0))
	assert.Equal(t, []int{'a' % 8, 'b' % 8, 'c' % 8}, Argmax(steps, 0))
}

func TestEncoder_Errors(t *testing.T) {
	enc := NewEncoder(failing{}, 3)
	_, err := enc.Encode("x")
	assert.ErrorIs(t, err, errBroken)
	assert.Contains(t, err.Error(), "failing")

	_, err = enc.EncodeBatch([]string{"x"})
	assert.ErrorIs(t, err, errBroken)
	assert.Contains(t, err.Error(), "text 0")

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, matrix.ErrOutOfRange)
	}()
	NewEncoder(Bytes{}, 0)
}

func TestArgmax(t *testing.T) {
	steps := []*matrix.Matrix{
		matrix.FromRows([][]float64{{0.1, 5}, {0.7, 1}, {0.2, 0}}),
		matrix.FromRows([][]float64{{3, 0}, {3, 1}, {1, 2}}),
	}
	assert.Equal(t, []int{1, 0}, Argmax(steps, 0), "ties keep the first row")
	assert.Equal(t, []int{0, 2}, Argmax(steps, 1))
}

// Next-byte prediction on a repeating string: the LSTM's hidden state is
// read directly as bucket scores.
func TestEncoder_FeedsLSTM(t *testing.T) {
	const buckets = 6
	enc := NewEncoder(Bytes{}, buckets)
	steps, err := enc.Encode("abcabcabc")
	require.NoError(t, err)
	inputs, targets := steps[:len(steps)-1], steps[1:]

	lstm := nn.NewLSTM(buckets, buckets, rand.New(rand.NewSource(2)))
	opt := optim.NewAdam(optim.AdamConfig{LR: 0.05})

	loss := func(out []*matrix.Matrix) float64 {
		var sum float64
		for i, o := range out {
			sum += nn.MSE(o, targets[i])
		}
		return sum
	}

	first := loss(lstm.Forward(inputs))
	for epoch := 0; epoch < 60; epoch++ {
		out := lstm.Forward(inputs)
		deltas := make([]*matrix.Matrix, len(out))
		for i, o := range out {
			deltas[i] = o.Sub(targets[i])
		}
		lstm.Backward(deltas)
		lstm.Update(opt)
	}
	out := lstm.Forward(inputs)
	assert.Less(t, loss(out), first)
	require.Len(t, out, len(inputs))
	assert.Equal(t, buckets, out[0].Rows())
}

func TestTikToken(t *testing.T) {
	tok, err := NewTikToken("cl100k_base")
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}
	assert.Equal(t, "cl100k_base", tok.Name())
	assert.Equal(t, 100256, tok.VocabSize())

	ids, err := tok.Encode("Hello, world!")
	require.NoError(t, err)
	require.NotEmpty(t, ids)

	text, err := tok.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", text)

	_, err = tok.Decode([]int{-1})
	assert.ErrorIs(t, err, ErrUnknownToken)

	steps, err := NewEncoder(tok, 32).Encode("Hello, world!")
	require.NoError(t, err)
	assert.Len(t, steps, len(ids))
}

func TestTikToken_UnknownEncoding(t *testing.T) {
	tok, err := NewTikToken("invalid_encoding_xyz")
	assert.Error(t, err)
	assert.Nil(t, tok)
}
