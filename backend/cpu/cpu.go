// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the host accelerator: device buffers are ordinary
// slices and kernels run as parallel Go loops.
//
// It is mainly useful to exercise the accelerator path of a network
// without a GPU:
//
//	net.UseAccelerator(cpu.New())
//	defer net.Release()
package cpu

import (
	"github.com/born-ml/gradnet/internal/accel"
	"github.com/born-ml/gradnet/internal/parallel"
)

// Accelerator is the device interface layers offload to.
type Accelerator = accel.Accelerator

// Backend is the host implementation of Accelerator.
type Backend = accel.Host

// Compile-time check that Backend implements Accelerator.
var _ Accelerator = (*Backend)(nil)

// New creates a host accelerator using every CPU.
func New() *Backend {
	return accel.NewHost(parallel.DefaultConfig())
}

// NewSequential creates a host accelerator that runs kernels on the calling
// goroutine.
func NewSequential() *Backend {
	return accel.NewHost(parallel.Sequential())
}
