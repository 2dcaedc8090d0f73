// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training networks.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// An optimizer receives the parameters to update on every call, so one
// optimizer can serve a whole network or a single sequence layer. Per
// parameter state (moments, velocities) is kept internally and exported
// through StateDict for checkpoints.
//
// # Basic Usage
//
//	opt := optim.NewAdam(optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	    Eps:   1e-8,
//	})
//
//	out := layer.Forward(x)
//	layer.Backward(out.Sub(y))
//	opt.Step(layer.Parameters())
//	opt.ZeroGrad(layer.Parameters())
package optim
