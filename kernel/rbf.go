package kernel

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/krigo/krigo/tensor"
)

// RBFKernel is the radial basis function (Gaussian) covariance family. It
// consumes squared Euclidean distances, so the sqrt/square round trip of the
// L2 metric is never computed.
type RBFKernel struct {
	lengthScale *Hyperparameter
}

func (k *RBFKernel) eval(squaredDist float64) float64 {
	ls := k.lengthScale.Value()
	return math.Exp(-squaredDist / (2 * ls * ls))
}

// Pairwise applies the kernel to a (batch, k, k) squared-distance tensor.
func (k *RBFKernel) Pairwise(dists *tensor.Dense3) *tensor.Dense3 {
	return applyTensor(dists, k.eval)
}

// Crosswise applies the kernel to a crosswise squared-distance matrix.
func (k *RBFKernel) Crosswise(dists *mat.Dense) *mat.Dense {
	return applyMatrix(dists, k.eval)
}

// Hyperparameters returns a reference to length_scale.
func (k *RBFKernel) Hyperparameters() map[string]*Hyperparameter {
	return map[string]*Hyperparameter{
		"length_scale": k.lengthScale,
	}
}

// Fixed reports whether every hyperparameter is fixed.
func (k *RBFKernel) Fixed() bool {
	return allFixed(k.Hyperparameters())
}

// Metric returns the squared Euclidean distance metric.
func (k *RBFKernel) Metric() tensor.Metric {
	return tensor.F2
}

func (k *RBFKernel) family() Family {
	return RBF
}
