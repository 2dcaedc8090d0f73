// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers a network is assembled from.
//
// # Overview
//
// This package contains:
//   - Layers: Dense, Conv2D, MaxPool, BatchNorm, Dropout, ZeroPad, Softmax
//   - Activations: Sigmoid, Tanh, ReLU, LeakyReLU, or any f/df pair
//   - Sequence models: Recurrent, LSTM
//   - Losses: MSELoss, CrossEntropyLoss, plus Accuracy
//   - Initialization: ScaledUniform, HeNormal, Uniform
//
// # Layer contract
//
// Every layer maps a batch (one sample per row) forward and maps the
// gradient of the loss with respect to its output back to the gradient
// with respect to its input. Backward stores parameter gradients in
// Parameter.Grad; an optimizer applies them afterwards.
//
//	rng := rand.New(rand.NewSource(1))
//	dense := nn.NewDense(4, 8, rng)
//	out := dense.Forward(x)           // rows x 8
//	prev := dense.Backward(dOut)      // rows x 4
//	opt.Step(dense.Parameters())
//
// Image layers take rows of d*h*w values laid out channel by channel.
//
// # Sequence models
//
// Recurrent and LSTM consume a slice of steps, each an input x batch column
// block, and return one hidden state per step. Backward runs through time
// and Update applies one optimizer step:
//
//	lstm := nn.NewLSTM(16, 32, rng)
//	hs := lstm.Forward(steps)
//	lstm.Backward(deltas)
//	lstm.Update(opt)
//
// # Persistence
//
// Save and Load write and read a layer's buffers as raw little-endian
// float64 values in a fixed order. Layers without buffers write nothing.
package nn
