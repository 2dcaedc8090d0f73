package network

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/born-ml/gradnet/internal/checkpoint"
	"github.com/born-ml/gradnet/internal/matrix"
	"github.com/born-ml/gradnet/internal/nn"
)

// Checkpoint tensor name prefixes.
const (
	layerPrefix = "layers."
	optimPrefix = "optim."
)

// Checkpoint snapshots every layer buffer and the optimizer state.
//
// Layer tensors are named "layers.{i}.{name}" and optimizer buffers
// "optim.{key}" with keys from Optimizer.StateDict.
func (n *Network) Checkpoint(epoch int, loss float64) *checkpoint.Checkpoint {
	c := checkpoint.New(epoch, loss)
	c.Metadata["layers"] = strconv.Itoa(len(n.layers))
	c.Metadata["optimizer"] = fmt.Sprintf("%T", n.opt)
	c.Metadata["lr"] = strconv.FormatFloat(n.opt.GetLR(), 'g', -1, 64)

	for i, l := range n.layers {
		s, ok := l.(nn.Stateful)
		if !ok {
			continue
		}
		for _, t := range s.State() {
			c.Add(layerTensor(i, t.Name), t.Value)
		}
	}

	state := n.opt.StateDict(n.Parameters())
	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.Add(optimPrefix+k, state[k])
	}
	return c
}

// Restore loads layer buffers and optimizer state from c. The network must
// have the layout that produced it.
func (n *Network) Restore(c *checkpoint.Checkpoint) error {
	for i, l := range n.layers {
		s, ok := l.(nn.Stateful)
		if !ok {
			continue
		}
		for _, t := range s.State() {
			name := layerTensor(i, t.Name)
			src, ok := c.Get(name)
			if !ok {
				return fmt.Errorf("checkpoint has no tensor %q", name)
			}
			if src.Rows() != t.Value.Rows() || src.Cols() != t.Value.Cols() {
				return fmt.Errorf("tensor %q: %w", name, matrix.DimensionError("Network.Restore",
					"checkpoint %dx%d, layer %dx%d", src.Rows(), src.Cols(), t.Value.Rows(), t.Value.Cols()))
			}
			t.Value.CopyFrom(src)
		}
	}
	if err := n.opt.LoadStateDict(n.Parameters(), c.WithPrefix(optimPrefix)); err != nil {
		return fmt.Errorf("optimizer state: %w", err)
	}
	return nil
}

// SaveCheckpoint writes Checkpoint(epoch, loss) to path.
func (n *Network) SaveCheckpoint(path string, epoch int, loss float64) error {
	if err := checkpoint.SaveFile(path, n.Checkpoint(epoch, loss)); err != nil {
		return err
	}
	n.logger.Info("checkpoint saved",
		slog.String("path", path),
		slog.Int("epoch", epoch),
		slog.Float64("loss", loss),
	)
	return nil
}

// LoadCheckpoint restores the network from path and returns the checkpoint
// for its epoch and metadata.
func (n *Network) LoadCheckpoint(path string) (*checkpoint.Checkpoint, error) {
	c, err := checkpoint.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := n.Restore(c); err != nil {
		return nil, fmt.Errorf("restore %s: %w", path, err)
	}
	n.logger.Info("checkpoint loaded", slog.String("path", path), slog.Int("epoch", c.Epoch))
	return c, nil
}

func layerTensor(i int, name string) string {
	return layerPrefix + strconv.Itoa(i) + "." + name
}
