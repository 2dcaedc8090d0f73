//go:build !windows

// Package webgpu implements accel.Accelerator on a WebGPU device.
// The device backend is built on windows only; elsewhere New reports
// accel.ErrUnavailable and callers stay on the host.
package webgpu

import (
	"fmt"
	"runtime"

	"github.com/born-ml/gradnet/internal/accel"
)

// Accelerator is unavailable on this platform.
type Accelerator struct {
	accel.Host
}

// New always fails on this platform.
func New() (*Accelerator, error) {
	return nil, fmt.Errorf("%w: webgpu backend not built for %s", accel.ErrUnavailable, runtime.GOOS)
}

// IsAvailable reports false on this platform.
func IsAvailable() bool { return false }

// Release is a no-op.
func (a *Accelerator) Release() {}
