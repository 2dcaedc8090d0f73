// Package sequence turns text into the step sequences consumed by the
// recurrent layers in package nn.
//
// A Tokenizer maps text to integer ids; an Encoder folds each id into a
// fixed number of buckets and emits one one-hot column vector per token:
//
//	tok, err := sequence.NewTikToken("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	enc := sequence.NewEncoder(tok, 64)
//	steps, err := enc.Encode("hello world")
//	out := lstm.Forward(steps) // each step is 64 x 1
//
// Bytes is an offline tokenizer with one id per byte.
package sequence
