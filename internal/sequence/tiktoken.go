package sequence

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// encodingCL100kBase is the encoding name for GPT-4 and GPT-3.5-turbo.
	encodingCL100kBase = "cl100k_base"
	// encodingP50kBase is the encoding name for GPT-3.
	encodingP50kBase = "p50k_base"
	// encodingR50kBase is the encoding name for older GPT-3 models.
	encodingR50kBase = "r50k_base"
)

// TikToken wraps the pkoukk/tiktoken-go BPE encodings.
//
// Supported encodings:
//   - cl100k_base
//   - p50k_base
//   - r50k_base
//
// Loading an encoding may download its rank file on first use; see the
// tiktoken-go documentation for offline loaders.
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// NewTikToken loads the named encoding.
func NewTikToken(encodingName string) (*TikToken, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}
	return &TikToken{encoding: encoding, name: encodingName}, nil
}

// NewTikTokenForModel loads the encoding used by a model such as "gpt-4".
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	encoding, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken for model %q: %w", modelName, err)
	}
	return &TikToken{encoding: encoding, name: modelName}, nil
}

// Encode converts text to token IDs. Special tokens are encoded as text.
func (t *TikToken) Encode(text string) ([]int, error) {
	return t.encoding.Encode(text, nil, nil), nil
}

// Decode converts token IDs back to text.
func (t *TikToken) Decode(tokens []int) (string, error) {
	vocab := t.VocabSize()
	for _, tok := range tokens {
		if tok < 0 || tok >= vocab {
			return "", &TokenError{Token: tok, Vocab: vocab}
		}
	}
	return t.encoding.Decode(tokens), nil
}

// VocabSize returns the number of ordinary tokens in the encoding.
// tiktoken-go doesn't expose it, so known encodings are listed.
func (t *TikToken) VocabSize() int {
	switch t.name {
	case encodingCL100kBase:
		return 100256
	case encodingP50kBase, encodingR50kBase:
		return 50257
	default:
		return 100000
	}
}

// Name returns the encoding or model name the tokenizer was loaded with.
func (t *TikToken) Name() string {
	return t.name
}
