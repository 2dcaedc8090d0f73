// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package network chains layers into a trainable model.
//
// # Basic Usage
//
//	net := network.New(network.WithSeed(42))
//	net.Add(nn.NewDense(4, 16, net.Rand()))
//	net.Add(nn.NewReLU())
//	net.Add(nn.NewDense(16, 3, net.Rand()))
//	net.Add(nn.NewSoftmax())
//
//	net.Fit(x, y, 100, 0.01)
//	net.SetTraining(false)
//	pred := net.Predict(x)
//
// Fit seeds the backward pass with prediction - target, which is the
// gradient of the mean squared error and, after a Softmax output, of the
// cross-entropy.
//
// # Persistence
//
// Save and Load stream raw buffers in layer order for a network of known
// shape. Checkpoint and Restore carry named, shaped tensors together with
// the optimizer state so training can resume.
package network

import (
	"log/slog"

	"github.com/born-ml/gradnet/internal/checkpoint"
	"github.com/born-ml/gradnet/internal/network"
	"github.com/born-ml/gradnet/internal/nn"
	"github.com/born-ml/gradnet/internal/optim"
)

// Network is an ordered stack of layers.
type Network = network.Network

// Option configures a Network.
type Option = network.Option

// Checkpoint is a named set of tensors with training metadata.
type Checkpoint = checkpoint.Checkpoint

// New creates an empty network. Without options it trains with Adam,
// reports MSE and logs through slog.Default.
func New(opts ...Option) *Network { return network.New(opts...) }

// WithSeed seeds the random generator layers are built with.
func WithSeed(seed int64) Option { return network.WithSeed(seed) }

// WithOptimizer replaces the default Adam optimizer.
func WithOptimizer(opt optim.Optimizer) Option { return network.WithOptimizer(opt) }

// WithLogger sets the logger for training progress and device failures.
func WithLogger(logger *slog.Logger) Option { return network.WithLogger(logger) }

// WithLoss sets the loss reported while training.
func WithLoss(loss nn.Loss) Option { return network.WithLoss(loss) }

// LoadCheckpoint reads a checkpoint file without applying it.
func LoadCheckpoint(path string) (*Checkpoint, error) { return checkpoint.LoadFile(path) }
