package kernel

import (
	"github.com/krigo/krigo/pkg/errors"
)

// Hyperparameter is a scalar kernel or noise parameter with an optional
// bound pair and a fixed flag. Fixed hyperparameters are excluded from
// optimization and reject direct sets; bounds advise an external optimizer
// but are not enforced on direct sets.
type Hyperparameter struct {
	val     float64
	lower   float64
	upper   float64
	bounded bool
	fixed   bool
}

// NewFixed creates a fixed hyperparameter holding val.
func NewFixed(val float64) *Hyperparameter {
	return &Hyperparameter{val: val, fixed: true}
}

// NewBounded creates a free hyperparameter holding val with optimization
// bounds [lower, upper].
func NewBounded(val, lower, upper float64) (*Hyperparameter, error) {
	const op = "kernel.NewBounded"
	if lower > upper {
		return nil, errors.NewValueError(op, "lower bound exceeds upper bound")
	}
	if val < lower || val > upper {
		return nil, errors.NewValueError(op, "value outside bounds")
	}
	return &Hyperparameter{val: val, lower: lower, upper: upper, bounded: true}, nil
}

// Value returns the current value.
func (h *Hyperparameter) Value() float64 {
	return h.val
}

// Fixed reports whether the hyperparameter is excluded from optimization.
func (h *Hyperparameter) Fixed() bool {
	return h.fixed
}

// Bounds returns the bound pair. ok is false when no bounds were set.
func (h *Hyperparameter) Bounds() (lower, upper float64, ok bool) {
	return h.lower, h.upper, h.bounded
}

// Set assigns a new value. Fixed hyperparameters reject direct sets; bounds
// are deliberately not checked here, since they constrain optimizers rather
// than callers.
func (h *Hyperparameter) Set(val float64) error {
	if h.fixed {
		return errors.WithStack(errors.ErrFixedHyperparameter)
	}
	h.val = val
	return nil
}

// Reset explicitly overwrites the value and fixed flag and clears any
// bounds. This is the only way to change a fixed hyperparameter.
func (h *Hyperparameter) Reset(val float64, fixed bool) {
	h.val = val
	h.fixed = fixed
	h.lower = 0
	h.upper = 0
	h.bounded = false
}

// ResetBounded explicitly overwrites the value, bounds and fixed flag,
// validating them as NewBounded does.
func (h *Hyperparameter) ResetBounded(val, lower, upper float64, fixed bool) error {
	const op = "kernel.Hyperparameter.ResetBounded"
	if lower > upper {
		return errors.NewValueError(op, "lower bound exceeds upper bound")
	}
	if val < lower || val > upper {
		return errors.NewValueError(op, "value outside bounds")
	}
	h.val = val
	h.lower = lower
	h.upper = upper
	h.bounded = true
	h.fixed = fixed
	return nil
}
