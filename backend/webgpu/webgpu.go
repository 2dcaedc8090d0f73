// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU accelerator for matrix products and
// convolutions.
//
// The device backend is built on windows; on other platforms New returns
// an error wrapping ErrUnavailable. Values are converted to float32 on the
// device.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Printf("staying on host loops: %v", err)
//	} else {
//	    defer gpu.Release()
//	    net.UseAccelerator(gpu)
//	}
package webgpu

import (
	"github.com/born-ml/gradnet/internal/accel"
	internalwebgpu "github.com/born-ml/gradnet/internal/accel/webgpu"
)

// Backend is the WebGPU accelerator.
type Backend = internalwebgpu.Accelerator

// ErrUnavailable is returned when no WebGPU device can be opened.
var ErrUnavailable = accel.ErrUnavailable

// New opens the default high-performance adapter. Call Release when done.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
