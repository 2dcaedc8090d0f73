// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package regression provides linear and logistic regression baselines
// fitted by gradient descent.
//
//	lr := regression.NewLinear(regression.Config{LR: 0.1, Iterations: 2000})
//	lr.Fit(x, y, rand.New(rand.NewSource(1)))
//	fmt.Println(lr.Score(x, y))
package regression

import (
	"github.com/born-ml/gradnet/internal/regression"
)

// Config holds the gradient descent settings.
type Config = regression.Config

// LinearRegression fits y ≈ x·w + b.
type LinearRegression = regression.LinearRegression

// LogisticRegression is a binary classifier sigmoid(x·w + b).
type LogisticRegression = regression.LogisticRegression

// NewLinear creates an unfitted linear regression.
func NewLinear(cfg Config) *LinearRegression { return regression.NewLinear(cfg) }

// NewLogistic creates an unfitted logistic regression.
func NewLogistic(cfg Config) *LogisticRegression { return regression.NewLogistic(cfg) }
