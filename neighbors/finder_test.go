package neighbors

import (
	"context"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// Well separated 1d points so neighbor order is unambiguous even in float32.
func testTrain() *mat.Dense {
	return mat.NewDense(6, 1, []float64{0, 1, 3, 7, 12, 18})
}

func newTestFinder(t *testing.T, nnCount int, opts ...Option) *Finder {
	t.Helper()
	f, err := NewFinder(context.Background(), testTrain(), nnCount, opts...)
	if err != nil {
		t.Fatalf("NewFinder: %v", err)
	}
	t.Cleanup(func() {
		if err := f.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return f
}

func TestFinderNeighbors(t *testing.T) {
	f := newTestFinder(t, 3)

	queries := mat.NewDense(2, 1, []float64{0.4, 7.1})
	nnIndices, dists, err := f.Neighbors(context.Background(), queries)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}

	want := [][]int{
		{0, 1, 2},
		{3, 2, 4},
	}
	wantDists := [][]float64{
		{0.4, 0.6, 2.6},
		{0.1, 4.1, 4.9},
	}
	for i := range want {
		for j := range want[i] {
			if nnIndices[i][j] != want[i][j] {
				t.Errorf("nnIndices[%d][%d] = %d, want %d", i, j, nnIndices[i][j], want[i][j])
			}
			if got := dists.At(i, j); math.Abs(got-wantDists[i][j]) > 1e-4 {
				t.Errorf("dists[%d][%d] = %g, want %g", i, j, got, wantDists[i][j])
			}
		}
	}
}

func TestFinderTrainingNeighbors(t *testing.T) {
	f := newTestFinder(t, 2)

	nnIndices, err := f.TrainingNeighbors(context.Background())
	if err != nil {
		t.Fatalf("TrainingNeighbors: %v", err)
	}
	if len(nnIndices) != 6 {
		t.Fatalf("got %d lists, want one per training point", len(nnIndices))
	}

	want := [][]int{
		{1, 2},
		{0, 2},
		{1, 0},
		{2, 4},
		{3, 5},
		{4, 3},
	}
	for tIdx, row := range want {
		for j := range row {
			if nnIndices[tIdx][j] != row[j] {
				t.Errorf("nnIndices[%d] = %v, want %v", tIdx, nnIndices[tIdx], row)
				break
			}
		}
		for _, nn := range nnIndices[tIdx] {
			if nn == tIdx {
				t.Errorf("training point %d lists itself as a neighbor", tIdx)
			}
		}
	}
}

func TestFinderClosestIndexMatchesNeighbors(t *testing.T) {
	f := newTestFinder(t, 3)

	queries := mat.NewDense(3, 1, []float64{0.4, 7.1, 14.0})
	nnIndices, _, err := f.Neighbors(context.Background(), queries)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	closest, err := f.ClosestIndex(context.Background(), queries)
	if err != nil {
		t.Fatalf("ClosestIndex: %v", err)
	}
	for i := range closest {
		if closest[i] != nnIndices[i][0] {
			t.Errorf("query %d: closest = %d, first neighbor = %d", i, closest[i], nnIndices[i][0])
		}
	}
}

func TestFinderHNSWMatchesFlat(t *testing.T) {
	flat := newTestFinder(t, 3)
	hnsw := newTestFinder(t, 3, WithHNSW(16, 64))

	queries := mat.NewDense(2, 1, []float64{0.4, 7.1})
	flatNN, _, err := flat.Neighbors(context.Background(), queries)
	if err != nil {
		t.Fatalf("flat Neighbors: %v", err)
	}
	hnswNN, _, err := hnsw.Neighbors(context.Background(), queries)
	if err != nil {
		t.Fatalf("hnsw Neighbors: %v", err)
	}
	for i := range flatNN {
		for j := range flatNN[i] {
			if flatNN[i][j] != hnswNN[i][j] {
				t.Errorf("query %d: hnsw %v, flat %v", i, hnswNN[i], flatNN[i])
				break
			}
		}
	}
}

// An exploration factor below k is raised to k per query, so even ef=1 must
// return the full neighbor lists.
func TestFinderHNSWSmallEFStillReturnsK(t *testing.T) {
	f := newTestFinder(t, 3, WithHNSW(16, 1))

	queries := mat.NewDense(1, 1, []float64{7.1})
	nnIndices, _, err := f.Neighbors(context.Background(), queries)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	want := []int{3, 2, 4}
	for j := range want {
		if nnIndices[0][j] != want[j] {
			t.Fatalf("nnIndices[0] = %v, want %v", nnIndices[0], want)
		}
	}
}

// Duplicate training points can rank ahead of the self hit; the lists must
// still be full and self-free.
func TestFinderTrainingNeighborsDuplicatePoints(t *testing.T) {
	train := mat.NewDense(4, 1, []float64{0, 0, 5, 9})
	f, err := NewFinder(context.Background(), train, 2)
	if err != nil {
		t.Fatalf("NewFinder: %v", err)
	}
	defer f.Close()

	nnIndices, err := f.TrainingNeighbors(context.Background())
	if err != nil {
		t.Fatalf("TrainingNeighbors: %v", err)
	}
	for tIdx, row := range nnIndices {
		if len(row) != 2 {
			t.Errorf("training point %d: got %d neighbors, want 2", tIdx, len(row))
		}
		for _, nn := range row {
			if nn == tIdx {
				t.Errorf("training point %d lists itself as a neighbor", tIdx)
			}
		}
	}
}

func TestNewFinderValidation(t *testing.T) {
	ctx := context.Background()
	if _, err := NewFinder(ctx, testTrain(), 0); err == nil {
		t.Error("non-positive neighbor count must be rejected")
	}
	if _, err := NewFinder(ctx, testTrain(), 7); err == nil {
		t.Error("neighbor count beyond training size must be rejected")
	}
}

func TestFinderTrainingNeighborsNeedsSlack(t *testing.T) {
	f := newTestFinder(t, 6)
	if _, err := f.TrainingNeighbors(context.Background()); err == nil {
		t.Error("self exclusion with nnCount == trainCount must be rejected")
	}
}
