// Package noise provides the nugget models added to the diagonal of a kernel
// matrix before solving. The nugget keeps the perturbed matrix numerically
// positive definite even when neighbor distances are nearly degenerate.
package noise

import (
	"gonum.org/v1/gonum/mat"

	"github.com/krigo/krigo/kernel"
	"github.com/krigo/krigo/pkg/errors"
)

// Model perturbs the diagonal of a k x k kernel matrix in place.
type Model interface {
	Perturb(a *mat.SymDense) error
	// Fixed reports whether the nugget is excluded from optimization.
	Fixed() bool
}

// Homoscedastic adds a single scalar nugget to every diagonal entry.
type Homoscedastic struct {
	eps *kernel.Hyperparameter
}

// NewHomoscedastic creates a fixed scalar nugget.
func NewHomoscedastic(val float64) *Homoscedastic {
	return &Homoscedastic{eps: kernel.NewFixed(val)}
}

// NewHomoscedasticBounded creates a free scalar nugget with optimization
// bounds.
func NewHomoscedasticBounded(val, lower, upper float64) (*Homoscedastic, error) {
	eps, err := kernel.NewBounded(val, lower, upper)
	if err != nil {
		return nil, err
	}
	return &Homoscedastic{eps: eps}, nil
}

// Perturb adds the nugget to every diagonal entry of a.
func (h *Homoscedastic) Perturb(a *mat.SymDense) error {
	n := a.SymmetricDim()
	eps := h.eps.Value()
	for i := 0; i < n; i++ {
		a.SetSym(i, i, a.At(i, i)+eps)
	}
	return nil
}

// Fixed reports whether the nugget is excluded from optimization.
func (h *Homoscedastic) Fixed() bool {
	return h.eps.Fixed()
}

// Value returns the current nugget value.
func (h *Homoscedastic) Value() float64 {
	return h.eps.Value()
}

// Eps returns a reference to the nugget hyperparameter for optimizer access.
func (h *Homoscedastic) Eps() *kernel.Hyperparameter {
	return h.eps
}

// Heteroscedastic adds a per-neighbor nugget vector to the diagonal. The
// vector length must match the neighborhood size of every matrix it
// perturbs.
type Heteroscedastic struct {
	vals []float64
}

// NewHeteroscedastic creates a per-neighbor nugget from vals. The slice is
// copied.
func NewHeteroscedastic(vals []float64) (*Heteroscedastic, error) {
	if len(vals) == 0 {
		return nil, errors.NewValueError("noise.NewHeteroscedastic", "empty nugget vector")
	}
	out := make([]float64, len(vals))
	copy(out, vals)
	return &Heteroscedastic{vals: out}, nil
}

// Perturb adds the nugget vector to the diagonal of a.
func (h *Heteroscedastic) Perturb(a *mat.SymDense) error {
	n := a.SymmetricDim()
	if n != len(h.vals) {
		return errors.NewDimensionError("Heteroscedastic.Perturb", len(h.vals), n, 0)
	}
	for i := 0; i < n; i++ {
		a.SetSym(i, i, a.At(i, i)+h.vals[i])
	}
	return nil
}

// Fixed always reports true: per-neighbor nuggets are supplied, not
// optimized.
func (h *Heteroscedastic) Fixed() bool {
	return true
}

// Null adds no nugget. Solves then rely on the kernel matrix itself being
// positive definite.
type Null struct{}

// Perturb is a no-op.
func (Null) Perturb(*mat.SymDense) error {
	return nil
}

// Fixed always reports true.
func (Null) Fixed() bool {
	return true
}
