// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package preprocess splits datasets and rescales features column by column.
//
//	split := preprocess.TrainTestSplit(x, y, 0.2, true, net.Rand())
//	scaled := preprocess.MinMaxScale(split.XTrain)
//	xTest := preprocess.ApplyMinMax(split.XTest, scaled.Min, scaled.Max)
package preprocess

import (
	"math/rand"

	"github.com/born-ml/gradnet/internal/matrix"
	"github.com/born-ml/gradnet/internal/preprocess"
)

// Split holds training and test partitions.
type Split = preprocess.Split

// Standardized holds z-scored data and the column statistics used.
type Standardized = preprocess.Standardized

// Scaled holds min-max scaled data and the column bounds used.
type Scaled = preprocess.Scaled

// TrainTestSplit moves floor(rows*testSize) samples into the test set,
// optionally shuffling with rng first.
func TrainTestSplit(x, y *matrix.Matrix, testSize float64, shuffle bool, rng *rand.Rand) Split {
	return preprocess.TrainTestSplit(x, y, testSize, shuffle, rng)
}

// Normalize rescales every column to zero mean and unit variance.
func Normalize(x *matrix.Matrix) Standardized { return preprocess.Normalize(x) }

// ApplyNormalize standardizes x with statistics from Normalize.
func ApplyNormalize(x, mean, std *matrix.Matrix) *matrix.Matrix {
	return preprocess.ApplyNormalize(x, mean, std)
}

// MinMaxScale maps every column onto [0, 1].
func MinMaxScale(x *matrix.Matrix) Scaled { return preprocess.MinMaxScale(x) }

// ApplyMinMax scales x with bounds from MinMaxScale.
func ApplyMinMax(x, lo, hi *matrix.Matrix) *matrix.Matrix { return preprocess.ApplyMinMax(x, lo, hi) }
