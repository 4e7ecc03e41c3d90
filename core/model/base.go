// Package model provides shared state tracking for learned parameters.
package model

// TrainState represents whether a learned parameter has been produced by its
// estimator.
type TrainState int

const (
	// Untrained marks a parameter still holding its initialization value.
	Untrained TrainState = iota
	// Trained marks a parameter written by its estimator.
	Trained
)

// TrainedState is embedded by types whose values are produced by a one-shot
// closed-form estimator, such as the sigma^2 scale parameter.
type TrainedState struct {
	state TrainState
}

// Trained reports whether the estimator has run.
func (s *TrainedState) Trained() bool {
	return s.state == Trained
}

// SetTrained marks the parameter as produced by its estimator.
func (s *TrainedState) SetTrained() {
	s.state = Trained
}

// Reset returns the parameter to its untrained state.
func (s *TrainedState) Reset() {
	s.state = Untrained
}
