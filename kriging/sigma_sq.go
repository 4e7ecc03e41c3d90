package kriging

import (
	"github.com/krigo/krigo/core/model"
	"github.com/krigo/krigo/pkg/errors"
)

// SigmaSq holds the per-response variance scale of a regressor. It starts
// untrained with every component set to 1.0, and is written exactly once by
// the closed-form optimizer. Posterior variances are multiplied by the scale
// only after training.
type SigmaSq struct {
	model.TrainedState
	vals []float64
}

// NewSigmaSq returns an untrained scale vector of the given length with all
// components initialized to 1.0.
func NewSigmaSq(responseCount int) *SigmaSq {
	vals := make([]float64, responseCount)
	for i := range vals {
		vals[i] = 1.0
	}
	return &SigmaSq{vals: vals}
}

// Len returns the number of response dimensions the scale covers.
func (s *SigmaSq) Len() int {
	return len(s.vals)
}

// Value returns the scale for response dimension i. Before training this is
// the neutral value 1.0.
func (s *SigmaSq) Value(i int) float64 {
	return s.vals[i]
}

// Values returns a copy of the scale vector.
func (s *SigmaSq) Values() []float64 {
	out := make([]float64, len(s.vals))
	copy(out, s.vals)
	return out
}

// TrainedValues returns a copy of the scale vector, or a NotTrainedError if
// the optimizer has not run yet.
func (s *SigmaSq) TrainedValues() ([]float64, error) {
	if !s.Trained() {
		return nil, errors.NewNotTrainedError("SigmaSq", "TrainedValues")
	}
	return s.Values(), nil
}

func (s *SigmaSq) train(vals []float64) {
	copy(s.vals, vals)
	s.SetTrained()
}
