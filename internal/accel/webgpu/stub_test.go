//go:build !windows

package webgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/gradnet/internal/accel"
)

func TestNew_Unavailable(t *testing.T) {
	assert.False(t, IsAvailable())
	a, err := New()
	assert.Nil(t, a)
	assert.ErrorIs(t, err, accel.ErrUnavailable)
}
