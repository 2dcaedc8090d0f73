package nn

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/gradnet/internal/matrix"
)

// Loss measures predictions against targets.
type Loss interface {
	// Name identifies the loss in logs.
	Name() string
	// Value returns the scalar loss.
	Value(pred, target *matrix.Matrix) float64
	// Grad returns ∂loss/∂pred.
	Grad(pred, target *matrix.Matrix) *matrix.Matrix
}

// crossEntropyEps keeps log away from zero.
const crossEntropyEps = 1e-15

// MSELoss is half the mean squared error: Σ(pred-target)² / (2·m·n).
type MSELoss struct{}

// Name implements Loss.
func (MSELoss) Name() string { return "mse" }

// Value implements Loss.
func (MSELoss) Value(pred, target *matrix.Matrix) float64 { return MSE(pred, target) }

// Grad implements Loss.
func (MSELoss) Grad(pred, target *matrix.Matrix) *matrix.Matrix { return DMSE(pred, target) }

// CrossEntropyLoss is the categorical cross-entropy of probability rows
// against one-hot targets, averaged over rows.
//
// Grad returns pred - target, the gradient with respect to the logits
// feeding a Softmax. Use it only behind a Softmax layer.
type CrossEntropyLoss struct{}

// Name implements Loss.
func (CrossEntropyLoss) Name() string { return "cross_entropy" }

// Value implements Loss.
func (CrossEntropyLoss) Value(pred, target *matrix.Matrix) float64 { return CrossEntropy(pred, target) }

// Grad implements Loss.
func (CrossEntropyLoss) Grad(pred, target *matrix.Matrix) *matrix.Matrix { return pred.Sub(target) }

// MSE returns Σ(pred-target)² / (2·m·n).
func MSE(pred, target *matrix.Matrix) float64 {
	diff := pred.Sub(target)
	if diff.Size() == 0 {
		return 0
	}
	d := diff.Data()
	return floats.Dot(d, d) / float64(2*diff.Size())
}

// DMSE returns (pred-target) / (m·n), the gradient of MSE.
func DMSE(pred, target *matrix.Matrix) *matrix.Matrix {
	diff := pred.Sub(target)
	if diff.Size() == 0 {
		return diff
	}
	return diff.Scale(1 / float64(diff.Size()))
}

// CrossEntropy returns -Σ target·log(pred) / rows, clamping pred to at least 1e-15.
func CrossEntropy(pred, target *matrix.Matrix) float64 {
	if pred.Rows() != target.Rows() || pred.Cols() != target.Cols() {
		panic(matrix.DimensionError("nn.CrossEntropy", "%dx%d vs %dx%d",
			pred.Rows(), pred.Cols(), target.Rows(), target.Cols()))
	}
	if pred.Rows() == 0 {
		return 0
	}
	p, t := pred.Data(), target.Data()
	var sum float64
	for i := range p {
		if t[i] != 0 {
			sum -= t[i] * math.Log(math.Max(p[i], crossEntropyEps))
		}
	}
	return sum / float64(pred.Rows())
}

// Accuracy returns the fraction of rows whose largest prediction is at the
// same column as the largest target.
func Accuracy(pred, target *matrix.Matrix) float64 {
	if pred.Rows() != target.Rows() || pred.Cols() != target.Cols() {
		panic(matrix.DimensionError("nn.Accuracy", "%dx%d vs %dx%d",
			pred.Rows(), pred.Cols(), target.Rows(), target.Cols()))
	}
	rows, cols := pred.Rows(), pred.Cols()
	if rows == 0 || cols == 0 {
		return 0
	}
	p, t := pred.Data(), target.Data()
	correct := 0
	for i := 0; i < rows; i++ {
		if floats.MaxIdx(p[i*cols:(i+1)*cols]) == floats.MaxIdx(t[i*cols:(i+1)*cols]) {
			correct++
		}
	}
	return float64(correct) / float64(rows)
}
