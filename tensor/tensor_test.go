package tensor

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestDense3MatrixSharesBacking(t *testing.T) {
	d := NewDense3(2, 3, 3, nil)
	m := d.Matrix(1)
	m.Set(2, 1, 7.5)

	if got := d.At(1, 2, 1); got != 7.5 {
		t.Errorf("At(1,2,1) = %v, want 7.5; Matrix must return a view", got)
	}
}

func TestDense3Gather(t *testing.T) {
	d := NewDense3(3, 2, 1, []float64{1, 2, 3, 4, 5, 6})

	g, err := d.Gather([]int{2, 0, 2})
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	want := []float64{5, 6, 1, 2, 5, 6}
	for i, w := range want {
		if got := g.At(i/2, i%2, 0); got != w {
			t.Errorf("gathered element %d = %v, want %v", i, got, w)
		}
	}

	if _, err := d.Gather([]int{3}); err == nil {
		t.Error("Gather() with out-of-range index did not fail")
	}
}

func TestDense3Component(t *testing.T) {
	d := NewDense3(2, 2, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})
	c := d.Component(1)

	n, r, cols := c.Dims()
	if n != 2 || r != 2 || cols != 1 {
		t.Fatalf("Component dims = (%d, %d, %d), want (2, 2, 1)", n, r, cols)
	}
	want := []float64{10, 20, 30, 40}
	idx := 0
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if got := c.At(i, j, 0); got != want[idx] {
				t.Errorf("Component(1).At(%d,%d,0) = %v, want %v", i, j, got, want[idx])
			}
			idx++
		}
	}
}

func TestPairwiseDistancesSymmetricZeroDiagonal(t *testing.T) {
	train := mat.NewDense(4, 2, []float64{
		0, 0,
		3, 4,
		1, 1,
		-2, 0,
	})
	nnIndices := [][]int{
		{0, 1, 2},
		{3, 2, 0},
	}

	d, err := PairwiseDistances(train, nnIndices, L2)
	if err != nil {
		t.Fatalf("PairwiseDistances() error: %v", err)
	}

	batch, k, _ := d.Dims()
	for i := 0; i < batch; i++ {
		for j := 0; j < k; j++ {
			if diag := d.At(i, j, j); diag != 0 {
				t.Errorf("diagonal entry (%d,%d,%d) = %v, want 0", i, j, j, diag)
			}
			for l := 0; l < k; l++ {
				if d.At(i, j, l) != d.At(i, l, j) {
					t.Errorf("asymmetry at batch %d: (%d,%d)=%v vs (%d,%d)=%v",
						i, j, l, d.At(i, j, l), l, j, d.At(i, l, j))
				}
				if d.At(i, j, l) < 0 {
					t.Errorf("negative distance at (%d,%d,%d)", i, j, l)
				}
			}
		}
	}

	// Distance from (0,0) to (3,4) is 5.
	if got := d.At(0, 0, 1); math.Abs(got-5) > 1e-12 {
		t.Errorf("d(0,0,1) = %v, want 5", got)
	}
}

func TestCrosswiseDistancesMetrics(t *testing.T) {
	queries := mat.NewDense(1, 2, []float64{0, 0})
	train := mat.NewDense(2, 2, []float64{
		3, 4,
		1, 0,
	})
	indices := []int{0}
	nnIndices := [][]int{{0, 1}}

	l2, err := CrosswiseDistances(queries, train, indices, nnIndices, L2)
	if err != nil {
		t.Fatalf("CrosswiseDistances(L2) error: %v", err)
	}
	if got := l2.At(0, 0); math.Abs(got-5) > 1e-12 {
		t.Errorf("L2 distance = %v, want 5", got)
	}

	f2, err := CrosswiseDistances(queries, train, indices, nnIndices, F2)
	if err != nil {
		t.Fatalf("CrosswiseDistances(F2) error: %v", err)
	}
	if got := f2.At(0, 0); math.Abs(got-25) > 1e-12 {
		t.Errorf("F2 distance = %v, want 25", got)
	}
}

func TestCrosswiseDistancesValidation(t *testing.T) {
	queries := mat.NewDense(1, 2, nil)
	train := mat.NewDense(2, 2, nil)

	if _, err := CrosswiseDistances(queries, train, []int{0}, [][]int{{0, 5}}, L2); err == nil {
		t.Error("out-of-range neighbor index did not fail")
	}
	if _, err := CrosswiseDistances(queries, train, []int{0, 1}, [][]int{{0}}, L2); err == nil {
		t.Error("batch/neighbor row count mismatch did not fail")
	}
}

func TestPairwiseDistancesValidation(t *testing.T) {
	train := mat.NewDense(2, 2, nil)

	if _, err := PairwiseDistances(train, nil, L2); err == nil {
		t.Error("empty neighbor index matrix did not fail")
	}
	if _, err := PairwiseDistances(train, [][]int{{}}, L2); err == nil {
		t.Error("empty neighbor list did not fail")
	}
	if _, err := PairwiseDistances(train, [][]int{{0, 5}}, L2); err == nil {
		t.Error("out-of-range neighbor index did not fail")
	}
	if _, err := PairwiseDistances(train, [][]int{{0, 1}, {0}}, L2); err == nil {
		t.Error("ragged neighbor rows did not fail")
	}
}

func TestMakeRegressTensorsNeighborOrderConsistency(t *testing.T) {
	queries := mat.NewDense(2, 1, []float64{0.5, 2.5})
	train := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	targets := mat.NewDense(4, 2, []float64{
		10, -10,
		11, -11,
		12, -12,
		13, -13,
	})
	indices := []int{0, 1}
	nnIndices := [][]int{
		{0, 1},
		{2, 3},
	}

	crosswise, pairwise, nnTargets, err := MakeRegressTensors(L2, indices, nnIndices, queries, train, targets)
	if err != nil {
		t.Fatalf("MakeRegressTensors() error: %v", err)
	}

	// Neighbor j must refer to the same training point in all outputs.
	if got := crosswise.At(1, 0); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("crosswise(1,0) = %v, want 0.5 (query 2.5 to train 2)", got)
	}
	if got := pairwise.At(1, 0, 1); math.Abs(got-1) > 1e-12 {
		t.Errorf("pairwise(1,0,1) = %v, want 1 (train 2 to train 3)", got)
	}
	if got := nnTargets.At(1, 0, 0); got != 12 {
		t.Errorf("nnTargets(1,0,0) = %v, want 12", got)
	}
	if got := nnTargets.At(1, 1, 1); got != -13 {
		t.Errorf("nnTargets(1,1,1) = %v, want -13", got)
	}
}

func TestMakeFastRegressTensorsPrependsSelf(t *testing.T) {
	train := mat.NewDense(3, 1, []float64{0, 1, 4})
	targets := mat.NewDense(3, 1, []float64{5, 6, 7})
	nnIndices := [][]int{
		{1, 2},
		{0, 2},
		{1, 0},
	}

	pairwiseFast, targetsFast, err := MakeFastRegressTensors(L2, nnIndices, train, targets)
	if err != nil {
		t.Fatalf("MakeFastRegressTensors() error: %v", err)
	}

	// The fast neighborhood of point t is [t, first k-1 neighbors of t].
	// For t=2 that is [2, 1]: the self distance is 0, the pair distance 3.
	if got := pairwiseFast.At(2, 0, 1); math.Abs(got-3) > 1e-12 {
		t.Errorf("pairwiseFast(2,0,1) = %v, want 3", got)
	}
	if got := targetsFast.At(2, 0, 0); got != 7 {
		t.Errorf("targetsFast(2,0,0) = %v, want the self target 7", got)
	}
	if got := targetsFast.At(2, 1, 0); got != 6 {
		t.Errorf("targetsFast(2,1,0) = %v, want neighbor target 6", got)
	}
}

func TestFullPairwiseDistances(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		0, 0,
		0, 2,
		3, 0,
	})
	d := FullPairwiseDistances(X, F2)

	if got := d.At(0, 1); got != 4 {
		t.Errorf("d(0,1) = %v, want 4", got)
	}
	if got := d.At(1, 2); got != 13 {
		t.Errorf("d(1,2) = %v, want 13", got)
	}
	for i := 0; i < 3; i++ {
		if d.At(i, i) != 0 {
			t.Errorf("diagonal (%d,%d) = %v, want 0", i, i, d.At(i, i))
		}
	}
}
