package sequence

import (
	"errors"
	"fmt"
)

// ErrUnknownToken is returned for ids outside a tokenizer's vocabulary.
var ErrUnknownToken = errors.New("unknown token")

// TokenError reports an id that a tokenizer cannot decode.
type TokenError struct {
	Token int
	Vocab int
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%v: %d not in vocabulary of %d", ErrUnknownToken, e.Token, e.Vocab)
}

func (e *TokenError) Unwrap() error { return ErrUnknownToken }
