// Package errors provides structured error handling and warnings for the
// krigo library. Error types carry the context needed to diagnose failures
// in batched kernel computations (operation names, batch indices, tensor
// shapes) and attach stack traces via cockroachdb/errors.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("krigo warning: %v\n", w)
	}
	// zerolog warn function, injected lazily to avoid an import cycle with
	// pkg/log.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler replaces the library-wide warning handler.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // drop warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs a zerolog-backed warning sink. When set, it
// takes precedence over the handler installed via SetWarningHandler.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning through the configured sink.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// UndersampledClassWarning is emitted when a balanced subsample cannot draw
// the requested number of elements from a class partition.
type UndersampledClassWarning struct {
	Class     int
	Requested int
	Got       int
}

func (w *UndersampledClassWarning) Error() string {
	return fmt.Sprintf("class %d holds only %d elements; balanced subsample requested %d",
		w.Class, w.Got, w.Requested)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *UndersampledClassWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Int("class", w.Class).
		Int("requested", w.Requested).
		Int("got", w.Got).
		Str("type", "UndersampledClassWarning")
}

// NewUndersampledClassWarning creates a new UndersampledClassWarning.
func NewUndersampledClassWarning(class, requested, got int) *UndersampledClassWarning {
	return &UndersampledClassWarning{Class: class, Requested: requested, Got: got}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// UnsupportedModeError reports an unrecognized variance mode passed to a
// regression call. It is raised at the API boundary before any computation
// runs, so a failing call never partially executes.
type UnsupportedModeError struct {
	Op   string
	Mode string
}

func (e *UnsupportedModeError) Error() string {
	return fmt.Sprintf("krigo: %s: variance mode %q is not supported", e.Op, e.Mode)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *UnsupportedModeError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("mode", e.Mode).
		Str("type", "UnsupportedModeError")
}

// NewUnsupportedModeError creates a new UnsupportedModeError with a stack
// trace attached.
func NewUnsupportedModeError(op, mode string) error {
	err := &UnsupportedModeError{Op: op, Mode: mode}
	return errors.WithStack(err)
}

// LinearAlgebraError reports that a per-batch-element linear system could not
// be solved, typically because the perturbed kernel matrix is singular or not
// positive definite. It aborts the whole batched call with no partial-result
// recovery, since it reflects a precondition failure such as degenerate
// neighbor distances or a zero nugget on a singular kernel.
type LinearAlgebraError struct {
	Op         string
	BatchIndex int
	Reason     string
}

func (e *LinearAlgebraError) Error() string {
	return fmt.Sprintf("krigo: %s: linear solve failed for batch element %d: %s",
		e.Op, e.BatchIndex, e.Reason)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *LinearAlgebraError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("batch_index", e.BatchIndex).
		Str("reason", e.Reason).
		Str("type", "LinearAlgebraError")
}

// NewLinearAlgebraError creates a new LinearAlgebraError with a stack trace
// attached.
func NewLinearAlgebraError(op string, batchIndex int, reason string) error {
	err := &LinearAlgebraError{Op: op, BatchIndex: batchIndex, Reason: reason}
	return errors.WithStack(err)
}

// ConfigurationError reports an invalid engine construction, such as an
// unknown kernel family or a model count that does not match the response
// dimension arity.
type ConfigurationError struct {
	Op     string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("krigo: %s: %s", e.Op, e.Reason)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ConfigurationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("reason", e.Reason).
		Str("type", "ConfigurationError")
}

// NewConfigurationError creates a new ConfigurationError with a stack trace
// attached.
func NewConfigurationError(op, reason string) error {
	err := &ConfigurationError{Op: op, Reason: reason}
	return errors.WithStack(err)
}

// NewConfigurationErrorf creates a new ConfigurationError with a formatted
// reason and a stack trace attached.
func NewConfigurationErrorf(op, format string, args ...interface{}) error {
	return NewConfigurationError(op, fmt.Sprintf(format, args...))
}

// DimensionError reports a tensor whose size differs from the expected value
// along some axis.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("krigo: %s: dimension mismatch on axis %d. Expected %d, got %d",
		e.Op, e.Axis, e.Expected, e.Got)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a new DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValueError reports an argument whose value is invalid for the operation,
// such as a negative sample count or an empty matrix.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("krigo: %s: %s", e.Op, e.Message)
}

// NewValueError creates a new ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// NotTrainedError reports use of a learned parameter before its estimator has
// produced it, such as reading a sigma^2 scale vector before SigmaSqOptim has
// run.
type NotTrainedError struct {
	Component string
	Method    string
}

func (e *NotTrainedError) Error() string {
	return fmt.Sprintf("krigo: %s: not trained yet. Run the estimator before calling %s()",
		e.Component, e.Method)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotTrainedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("component", e.Component).
		Str("method", e.Method).
		Str("type", "NotTrainedError")
}

// NewNotTrainedError creates a new NotTrainedError with a stack trace
// attached.
func NewNotTrainedError(component, method string) error {
	err := &NotTrainedError{Component: component, Method: method}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates an error with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common error variables
//
// ===========================================================================

var (
	// ErrEmptyData is returned when an empty matrix or tensor is supplied.
	ErrEmptyData = New("empty data")

	// ErrFixedHyperparameter is returned when a direct set is attempted on a
	// fixed hyperparameter.
	ErrFixedHyperparameter = New("hyperparameter is fixed")
)
