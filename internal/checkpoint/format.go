package checkpoint

import (
	"time"

	"github.com/born-ml/gradnet/internal/matrix"
)

// Format constants.
const (
	MagicBytes     = "GNET"
	FormatVersion  = 1
	preambleSize   = 4 + 4 + 8 // magic + version + header size
	bytesPerScalar = 8
)

// Tensor is a named matrix in a checkpoint.
type Tensor struct {
	Name  string
	Value *matrix.Matrix
}

// Checkpoint is a training snapshot: named tensors in insertion order plus metadata.
type Checkpoint struct {
	Epoch     int               // Training epoch number
	Loss      float64           // Loss value at this checkpoint
	CreatedAt time.Time         // When the checkpoint was created
	Metadata  map[string]string // Additional training metadata
	Tensors   []Tensor          // Tensors in write order
}

// New creates an empty checkpoint stamped with the current time.
func New(epoch int, loss float64) *Checkpoint {
	return &Checkpoint{
		Epoch:     epoch,
		Loss:      loss,
		CreatedAt: time.Now().UTC(),
		Metadata:  make(map[string]string),
	}
}

// Add appends a copy of m under name.
func (c *Checkpoint) Add(name string, m *matrix.Matrix) {
	c.Tensors = append(c.Tensors, Tensor{Name: name, Value: m.Clone()})
}

// Get returns the tensor called name.
func (c *Checkpoint) Get(name string) (*matrix.Matrix, bool) {
	for _, t := range c.Tensors {
		if t.Name == name {
			return t.Value, true
		}
	}
	return nil, false
}

// WithPrefix returns the tensors whose names start with prefix, keyed by the
// remainder of the name.
func (c *Checkpoint) WithPrefix(prefix string) map[string]*matrix.Matrix {
	out := make(map[string]*matrix.Matrix)
	for _, t := range c.Tensors {
		if len(t.Name) > len(prefix) && t.Name[:len(prefix)] == prefix {
			out[t.Name[len(prefix):]] = t.Value
		}
	}
	return out
}

// dataSize returns the byte length of the tensor data section.
func (c *Checkpoint) dataSize() int64 {
	var n int64
	for _, t := range c.Tensors {
		n += int64(t.Value.Size()) * bytesPerScalar
	}
	return n
}
