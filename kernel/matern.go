package kernel

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/krigo/krigo/pkg/errors"
	"github.com/krigo/krigo/tensor"
)

// MaternKernel is the Matern covariance family over Euclidean distances.
// Smoothness nu is restricted to the closed-form cases 0.5, 1.5, 2.5 and
// +Inf (the squared-exponential limit); nu is therefore always fixed.
type MaternKernel struct {
	nu          *Hyperparameter
	lengthScale *Hyperparameter
}

func newMatern(nu, lengthScale *Hyperparameter) (*MaternKernel, error) {
	const op = "kernel.New"
	if !nu.Fixed() {
		return nil, errors.NewConfigurationError(op,
			"matern nu must be fixed: only the closed-form smoothness values are supported")
	}
	switch v := nu.Value(); {
	case v == 0.5 || v == 1.5 || v == 2.5 || math.IsInf(v, 1):
	default:
		return nil, errors.NewConfigurationErrorf(op,
			"unsupported matern nu %v: want 0.5, 1.5, 2.5 or +Inf", v)
	}
	return &MaternKernel{nu: nu, lengthScale: lengthScale}, nil
}

func (k *MaternKernel) eval(d float64) float64 {
	ls := k.lengthScale.Value()
	switch v := k.nu.Value(); {
	case v == 0.5:
		return math.Exp(-d / ls)
	case v == 1.5:
		z := math.Sqrt(3) * d / ls
		return (1 + z) * math.Exp(-z)
	case v == 2.5:
		z := math.Sqrt(5) * d / ls
		return (1 + z + z*z/3) * math.Exp(-z)
	default: // +Inf, checked at construction
		return math.Exp(-d * d / (2 * ls * ls))
	}
}

// Pairwise applies the kernel to a (batch, k, k) pairwise distance tensor.
func (k *MaternKernel) Pairwise(dists *tensor.Dense3) *tensor.Dense3 {
	return applyTensor(dists, k.eval)
}

// Crosswise applies the kernel to a crosswise distance matrix.
func (k *MaternKernel) Crosswise(dists *mat.Dense) *mat.Dense {
	return applyMatrix(dists, k.eval)
}

// Hyperparameters returns references to nu and length_scale.
func (k *MaternKernel) Hyperparameters() map[string]*Hyperparameter {
	return map[string]*Hyperparameter{
		"nu":           k.nu,
		"length_scale": k.lengthScale,
	}
}

// Fixed reports whether every hyperparameter is fixed.
func (k *MaternKernel) Fixed() bool {
	return allFixed(k.Hyperparameters())
}

// Metric returns the Euclidean distance metric.
func (k *MaternKernel) Metric() tensor.Metric {
	return tensor.L2
}

func (k *MaternKernel) family() Family {
	return Matern
}
