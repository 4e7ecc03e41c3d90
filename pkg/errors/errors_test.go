package errors

import (
	"strings"
	"testing"
)

func TestUnsupportedModeError(t *testing.T) {
	err := NewUnsupportedModeError("Regressor.Regress", "covariance")

	var modeErr *UnsupportedModeError
	if !As(err, &modeErr) {
		t.Fatalf("As() failed to recover *UnsupportedModeError from %v", err)
	}
	if modeErr.Op != "Regressor.Regress" {
		t.Errorf("Op = %q, want %q", modeErr.Op, "Regressor.Regress")
	}
	if !strings.Contains(err.Error(), `"covariance"`) {
		t.Errorf("Error() = %q, want it to quote the rejected mode", err.Error())
	}
}

func TestLinearAlgebraError(t *testing.T) {
	err := NewLinearAlgebraError("Regressor.Regress", 7, "matrix is not positive definite")

	var laErr *LinearAlgebraError
	if !As(err, &laErr) {
		t.Fatalf("As() failed to recover *LinearAlgebraError from %v", err)
	}
	if laErr.BatchIndex != 7 {
		t.Errorf("BatchIndex = %d, want 7", laErr.BatchIndex)
	}
	if !strings.Contains(err.Error(), "batch element 7") {
		t.Errorf("Error() = %q, want it to name the failing batch element", err.Error())
	}
}

func TestConfigurationErrorf(t *testing.T) {
	err := NewConfigurationErrorf("NewMultivariateRegressor", "expected %d models, got %d", 3, 2)

	var cfgErr *ConfigurationError
	if !As(err, &cfgErr) {
		t.Fatalf("As() failed to recover *ConfigurationError from %v", err)
	}
	if cfgErr.Reason != "expected 3 models, got 2" {
		t.Errorf("Reason = %q, want formatted reason", cfgErr.Reason)
	}
}

func TestDimensionError(t *testing.T) {
	err := NewDimensionError("tensor.PairwiseDistances", 10, 8, 1)

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Fatalf("As() failed to recover *DimensionError from %v", err)
	}
	if dimErr.Expected != 10 || dimErr.Got != 8 || dimErr.Axis != 1 {
		t.Errorf("got %+v, want Expected=10 Got=8 Axis=1", dimErr)
	}
}

func TestWrapPreservesType(t *testing.T) {
	base := NewNotTrainedError("SigmaSq", "Values")
	wrapped := Wrap(base, "reading scale parameter")

	var ntErr *NotTrainedError
	if !As(wrapped, &ntErr) {
		t.Fatalf("As() failed to recover *NotTrainedError through Wrap")
	}
	if ntErr.Component != "SigmaSq" {
		t.Errorf("Component = %q, want %q", ntErr.Component, "SigmaSq")
	}
}

func TestWarnUsesHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(func(w error) {})

	warning := NewUndersampledClassWarning(2, 50, 31)
	Warn(warning)

	if captured == nil {
		t.Fatal("warning handler was not invoked")
	}
	if !strings.Contains(captured.Error(), "class 2") {
		t.Errorf("warning = %q, want it to name the class", captured.Error())
	}
}

func TestWarnPrefersZerologSink(t *testing.T) {
	var handlerHit, sinkHit bool
	SetWarningHandler(func(w error) { handlerHit = true })
	SetZerologWarnFunc(func(w error) { sinkHit = true })
	defer func() {
		SetZerologWarnFunc(nil)
		SetWarningHandler(func(w error) {})
	}()

	Warn(New("test warning"))

	if !sinkHit {
		t.Error("zerolog sink was not invoked")
	}
	if handlerHit {
		t.Error("fallback handler invoked despite zerolog sink being set")
	}
}
