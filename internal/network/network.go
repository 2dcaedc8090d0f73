// Package network chains layers into a trainable model.
//
// A Network owns an ordered list of layers, one random generator shared by
// the layers it builds, one optimizer and a logger. Training runs a full
// forward pass, seeds the backward sweep with prediction - target, walks the
// layers in reverse, then applies a single optimizer step over every
// parameter.
package network

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/born-ml/gradnet/internal/accel"
	"github.com/born-ml/gradnet/internal/matrix"
	"github.com/born-ml/gradnet/internal/nn"
	"github.com/born-ml/gradnet/internal/optim"
)

// Network is an ordered stack of layers.
type Network struct {
	layers []nn.Layer
	rng    *rand.Rand
	opt    optim.Optimizer
	loss   nn.Loss
	logger *slog.Logger
}

// Option configures a Network.
type Option func(*Network)

// WithSeed seeds the network's random generator. Without it the seed is the
// construction time.
func WithSeed(seed int64) Option {
	return func(n *Network) { n.rng = rand.New(rand.NewSource(seed)) }
}

// WithOptimizer replaces the default Adam optimizer.
func WithOptimizer(opt optim.Optimizer) Option {
	return func(n *Network) { n.opt = opt }
}

// WithLogger sets the logger for training progress and device failures.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Network) { n.logger = logger }
}

// WithLoss sets the loss reported during training. The backward sweep
// always starts from prediction - target.
func WithLoss(loss nn.Loss) Option {
	return func(n *Network) { n.loss = loss }
}

// New creates an empty network. Defaults: Adam with default config, MSE
// reporting, slog.Default.
func New(opts ...Option) *Network {
	n := &Network{}
	for _, opt := range opts {
		opt(n)
	}
	if n.rng == nil {
		n.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if n.opt == nil {
		n.opt = optim.NewAdam(optim.AdamConfig{})
	}
	if n.loss == nil {
		n.loss = nn.MSELoss{}
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	return n
}

// Rand returns the generator layers should be built with.
//
//	net := network.New(network.WithSeed(1))
//	net.Add(nn.NewDense(4, 8, net.Rand()))
func (n *Network) Rand() *rand.Rand { return n.rng }

// Optimizer returns the optimizer applied after each backward sweep.
func (n *Network) Optimizer() optim.Optimizer { return n.opt }

// Add appends a layer. The network takes ownership of it.
func (n *Network) Add(layer nn.Layer) {
	n.layers = append(n.layers, layer)
}

// Layers returns the layers in order.
func (n *Network) Layers() []nn.Layer {
	out := make([]nn.Layer, len(n.layers))
	copy(out, n.layers)
	return out
}

// Len returns the number of layers.
func (n *Network) Len() int { return len(n.layers) }

// Predict runs input through every layer.
func (n *Network) Predict(input *matrix.Matrix) *matrix.Matrix {
	out := input
	for _, l := range n.layers {
		out = l.Forward(out)
	}
	return out
}

// Fit trains on the full batch x, y for the given number of epochs at
// learning rate lr and returns the loss of the last epoch's forward pass.
//
// Each epoch: forward, delta = output - y, backward through the layers in
// reverse order, one optimizer step over all parameters.
func (n *Network) Fit(x, y *matrix.Matrix, epochs int, lr float64) float64 {
	n.opt.SetLR(lr)
	var loss float64
	for epoch := 0; epoch < epochs; epoch++ {
		loss = n.step(x, y)
		n.logger.Debug("epoch complete",
			slog.Int("epoch", epoch+1),
			slog.Int("epochs", epochs),
			slog.String("loss_fn", n.loss.Name()),
			slog.Float64("loss", loss),
		)
	}
	return loss
}

// FitBatches is Fit over consecutive row slices of at most batchSize rows.
// It returns the mean batch loss of the last epoch.
func (n *Network) FitBatches(x, y *matrix.Matrix, epochs, batchSize int, lr float64) float64 {
	if batchSize <= 0 {
		panic(matrix.RangeError("Network.FitBatches", "batch size %d", batchSize))
	}
	if x.Rows() != y.Rows() {
		panic(matrix.DimensionError("Network.FitBatches", "%d inputs, %d targets", x.Rows(), y.Rows()))
	}
	n.opt.SetLR(lr)
	var mean float64
	for epoch := 0; epoch < epochs; epoch++ {
		var sum float64
		batches := 0
		for start := 0; start < x.Rows(); start += batchSize {
			end := min(start+batchSize, x.Rows())
			sum += n.step(x.Slice(start, end), y.Slice(start, end))
			batches++
		}
		if batches > 0 {
			mean = sum / float64(batches)
		}
		n.logger.Debug("epoch complete",
			slog.Int("epoch", epoch+1),
			slog.Int("epochs", epochs),
			slog.Int("batches", batches),
			slog.String("loss_fn", n.loss.Name()),
			slog.Float64("loss", mean),
		)
	}
	return mean
}

// step runs one forward, backward and optimizer update.
func (n *Network) step(x, y *matrix.Matrix) float64 {
	out := n.Predict(x)
	if out.Rows() != y.Rows() || out.Cols() != y.Cols() {
		panic(matrix.DimensionError("Network.Fit", "output %dx%d, target %dx%d",
			out.Rows(), out.Cols(), y.Rows(), y.Cols()))
	}
	loss := n.loss.Value(out, y)

	delta := out.Sub(y)
	for i := len(n.layers) - 1; i >= 0; i-- {
		delta = n.layers[i].Backward(delta)
	}

	params := n.Parameters()
	n.opt.Step(params)
	n.opt.ZeroGrad(params)
	return loss
}

// SetTraining switches every mode-dependent layer (Dropout, BatchNorm).
func (n *Network) SetTraining(training bool) {
	for _, l := range n.layers {
		if m, ok := l.(nn.ModeSetter); ok {
			m.SetTraining(training)
		}
	}
}

// Parameters returns every trainable parameter, layer by layer.
func (n *Network) Parameters() []*nn.Parameter {
	var out []*nn.Parameter
	for _, l := range n.layers {
		if t, ok := l.(nn.Trainable); ok {
			out = append(out, t.Parameters()...)
		}
	}
	return out
}

// deviceLayer is implemented by layers that can offload to an accelerator.
type deviceLayer interface {
	UseAccelerator(a accel.Accelerator, logger *slog.Logger)
}

// UseAccelerator attaches a to every layer that supports one.
func (n *Network) UseAccelerator(a accel.Accelerator) {
	attached := 0
	for _, l := range n.layers {
		if d, ok := l.(deviceLayer); ok {
			d.UseAccelerator(a, n.logger)
			attached++
		}
	}
	n.logger.Info("accelerator attached", slog.String("device", a.Name()), slog.Int("layers", attached))
}

// Release frees device memory held by the layers.
func (n *Network) Release() {
	for _, l := range n.layers {
		if r, ok := l.(interface{ Release() }); ok {
			r.Release()
		}
	}
}

// Save writes every layer's buffers in layer order as raw float64 values.
// There is no header: Load needs a network built with identical shapes.
func (n *Network) Save(w io.Writer) error {
	for i, l := range n.layers {
		if err := nn.Save(w, l); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

// Load reads what Save wrote.
func (n *Network) Load(r io.Reader) error {
	for i, l := range n.layers {
		if err := nn.Load(r, l); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

// SaveFile writes Save's stream to path.
func (n *Network) SaveFile(path string) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := n.Save(bw); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	n.logger.Info("model saved", slog.String("path", path))
	return nil
}

// LoadFile reads a stream written by SaveFile.
func (n *Network) LoadFile(path string) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := n.Load(bufio.NewReader(f)); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	n.logger.Info("model loaded", slog.String("path", path))
	return nil
}
