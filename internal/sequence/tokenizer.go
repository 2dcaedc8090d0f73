package sequence

// Tokenizer converts between text and token ids.
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string) ([]int, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int) (string, error)

	// VocabSize returns the total vocabulary size.
	VocabSize() int

	// Name returns the tokenizer name.
	Name() string
}

// Bytes tokenizes text into its UTF-8 bytes.
type Bytes struct{}

// Encode returns one id in [0, 256) per byte of text.
func (Bytes) Encode(text string) ([]int, error) {
	out := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		out[i] = int(text[i])
	}
	return out, nil
}

// Decode reassembles the bytes. Ids outside [0, 256) are an error.
func (Bytes) Decode(tokens []int) (string, error) {
	b := make([]byte, len(tokens))
	for i, t := range tokens {
		if t < 0 || t > 255 {
			return "", &TokenError{Token: t, Vocab: 256}
		}
		b[i] = byte(t)
	}
	return string(b), nil
}

// VocabSize returns 256.
func (Bytes) VocabSize() int { return 256 }

// Name returns "bytes".
func (Bytes) Name() string { return "bytes" }
