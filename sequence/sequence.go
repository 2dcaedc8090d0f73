// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package sequence turns text into step sequences for recurrent layers.
//
// Example usage:
//
//	tok, err := sequence.NewTikToken("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	enc := sequence.NewEncoder(tok, 64)
//	steps, err := enc.Encode("Hello, world!")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	hidden := lstm.Forward(steps)
package sequence

import (
	"github.com/born-ml/gradnet/internal/matrix"
	"github.com/born-ml/gradnet/internal/sequence"
)

// Tokenizer converts between text and token ids.
type Tokenizer = sequence.Tokenizer

// Bytes tokenizes text into its UTF-8 bytes.
type Bytes = sequence.Bytes

// TikToken wraps the tiktoken BPE encodings.
type TikToken = sequence.TikToken

// Encoder maps token ids onto one-hot step vectors.
type Encoder = sequence.Encoder

// TokenError reports an id outside a tokenizer's vocabulary.
type TokenError = sequence.TokenError

// ErrUnknownToken is returned for ids outside a tokenizer's vocabulary.
var ErrUnknownToken = sequence.ErrUnknownToken

// NewTikToken loads the named encoding ("cl100k_base", "p50k_base",
// "r50k_base").
func NewTikToken(encodingName string) (*TikToken, error) {
	return sequence.NewTikToken(encodingName)
}

// NewTikTokenForModel loads the encoding used by a model such as "gpt-4".
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	return sequence.NewTikTokenForModel(modelName)
}

// NewEncoder creates an encoder with buckets rows per step.
func NewEncoder(tok Tokenizer, buckets int) *Encoder { return sequence.NewEncoder(tok, buckets) }

// Argmax returns the largest row of column col for every step.
func Argmax(steps []*matrix.Matrix, col int) []int { return sequence.Argmax(steps, col) }
