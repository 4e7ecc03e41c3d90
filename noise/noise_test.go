package noise

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/krigo/krigo/pkg/errors"
)

func TestHomoscedasticPerturb(t *testing.T) {
	a := mat.NewSymDense(3, []float64{
		1, 0.5, 0.2,
		0.5, 1, 0.3,
		0.2, 0.3, 1,
	})
	n := NewHomoscedastic(1e-3)

	if err := n.Perturb(a); err != nil {
		t.Fatalf("Perturb() error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if got := a.At(i, i); got != 1+1e-3 {
			t.Errorf("diagonal %d = %v, want %v", i, got, 1+1e-3)
		}
	}
	if got := a.At(0, 1); got != 0.5 {
		t.Errorf("off-diagonal mutated: %v", got)
	}
	if !n.Fixed() {
		t.Error("scalar nugget should default to fixed")
	}
}

func TestHeteroscedasticPerturb(t *testing.T) {
	n, err := NewHeteroscedastic([]float64{0.1, 0.2})
	if err != nil {
		t.Fatalf("NewHeteroscedastic() error: %v", err)
	}

	a := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	if err := n.Perturb(a); err != nil {
		t.Fatalf("Perturb() error: %v", err)
	}
	if a.At(0, 0) != 1.1 || a.At(1, 1) != 1.2 {
		t.Errorf("diagonal = (%v, %v), want (1.1, 1.2)", a.At(0, 0), a.At(1, 1))
	}

	bad := mat.NewSymDense(3, nil)
	err = n.Perturb(bad)
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("size mismatch error = %v, want *DimensionError", err)
	}
}

func TestNullPerturb(t *testing.T) {
	a := mat.NewSymDense(2, []float64{1, 0.4, 0.4, 1})
	before := mat.NewSymDense(2, nil)
	before.CopySym(a)

	if err := (Null{}).Perturb(a); err != nil {
		t.Fatalf("Perturb() error: %v", err)
	}
	if !mat.Equal(a, before) {
		t.Error("Null.Perturb mutated its input")
	}
}

func TestNewHomoscedasticBounded(t *testing.T) {
	n, err := NewHomoscedasticBounded(1e-4, 1e-8, 1e-2)
	if err != nil {
		t.Fatalf("NewHomoscedasticBounded() error: %v", err)
	}
	if n.Fixed() {
		t.Error("bounded nugget should be free")
	}
	if _, err := NewHomoscedasticBounded(1, 1e-8, 1e-2); err == nil {
		t.Error("value outside bounds accepted")
	}
}
