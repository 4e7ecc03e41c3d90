// Package kernel provides the covariance functors used by the local-kriging
// regression engines. A kernel maps a distance tensor elementwise to a
// covariance tensor; the supported families form a closed set so that
// dispatch is exhaustive at compile time rather than keyed on strings.
//
// All kernels are correlation kernels: they evaluate to 1 at zero distance.
// Output scaling is handled separately by the sigma^2 scale parameter.
package kernel

import (
	"gonum.org/v1/gonum/mat"

	"github.com/krigo/krigo/pkg/errors"
	"github.com/krigo/krigo/tensor"
)

// Family enumerates the supported kernel families.
type Family int

const (
	// Matern is the Matern covariance family with smoothness nu.
	Matern Family = iota
	// RBF is the radial basis function (Gaussian) covariance family.
	RBF
)

func (f Family) String() string {
	switch f {
	case Matern:
		return "matern"
	case RBF:
		return "rbf"
	default:
		return "unknown"
	}
}

// Kernel is a covariance functor over distance tensors. Implementations form
// a closed set within this package.
type Kernel interface {
	// Pairwise applies the kernel elementwise to a (batch, k, k) pairwise
	// distance tensor, producing the batched kernel matrices K.
	Pairwise(dists *tensor.Dense3) *tensor.Dense3
	// Crosswise applies the kernel elementwise to a distance matrix,
	// producing cross-covariances Kcross.
	Crosswise(dists *mat.Dense) *mat.Dense
	// Hyperparameters returns references to the kernel's hyperparameters
	// keyed by name. Mutating a returned hyperparameter mutates the kernel.
	Hyperparameters() map[string]*Hyperparameter
	// Fixed reports whether every hyperparameter is fixed.
	Fixed() bool
	// Metric returns the distance metric the kernel expects its inputs in.
	Metric() tensor.Metric

	family() Family
}

// Option configures kernel construction.
type Option func(*config) error

type config struct {
	lengthScale *Hyperparameter
	nu          *Hyperparameter
}

// WithLengthScale sets a fixed length_scale value.
func WithLengthScale(val float64) Option {
	return func(c *config) error {
		c.lengthScale = NewFixed(val)
		return nil
	}
}

// WithLengthScaleBounds sets a free length_scale with optimization bounds.
func WithLengthScaleBounds(val, lower, upper float64) Option {
	return func(c *config) error {
		h, err := NewBounded(val, lower, upper)
		if err != nil {
			return err
		}
		c.lengthScale = h
		return nil
	}
}

// WithNu sets a fixed Matern smoothness. Supported values are 0.5, 1.5, 2.5
// and +Inf, the closed-form cases of the family.
func WithNu(val float64) Option {
	return func(c *config) error {
		c.nu = NewFixed(val)
		return nil
	}
}

// New constructs a kernel of the given family.
func New(f Family, opts ...Option) (Kernel, error) {
	const op = "kernel.New"

	cfg := config{}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.lengthScale == nil {
		cfg.lengthScale = NewFixed(1.0)
	}

	switch f {
	case Matern:
		if cfg.nu == nil {
			cfg.nu = NewFixed(0.5)
		}
		return newMatern(cfg.nu, cfg.lengthScale)
	case RBF:
		if cfg.nu != nil {
			return nil, errors.NewConfigurationError(op, "rbf kernels have no nu hyperparameter")
		}
		return &RBFKernel{lengthScale: cfg.lengthScale}, nil
	default:
		return nil, errors.NewConfigurationErrorf(op, "unknown kernel family %d", int(f))
	}
}

// applyTensor maps eval over every element of a distance tensor.
func applyTensor(dists *tensor.Dense3, eval func(float64) float64) *tensor.Dense3 {
	n, r, c := dists.Dims()
	out := tensor.NewDense3(n, r, c, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < r; j++ {
			for l := 0; l < c; l++ {
				out.Set(i, j, l, eval(dists.At(i, j, l)))
			}
		}
	}
	return out
}

// applyMatrix maps eval over every element of a distance matrix.
func applyMatrix(dists *mat.Dense, eval func(float64) float64) *mat.Dense {
	r, c := dists.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, eval(dists.At(i, j)))
		}
	}
	return out
}

func allFixed(params map[string]*Hyperparameter) bool {
	for _, p := range params {
		if !p.Fixed() {
			return false
		}
	}
	return true
}
