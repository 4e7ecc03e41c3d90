package tensor

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/krigo/krigo/core/parallel"
	"github.com/krigo/krigo/pkg/errors"
)

// Metric identifies the distance function used to build distance tensors.
type Metric int

const (
	// L2 is the Euclidean distance.
	L2 Metric = iota
	// F2 is the squared Euclidean distance.
	F2
)

func (m Metric) String() string {
	switch m {
	case L2:
		return "l2"
	case F2:
		return "f2"
	default:
		return "unknown"
	}
}

const distanceParallelThreshold = 64

// squaredDistance computes the squared Euclidean distance between row i of a
// and row j of b.
func squaredDistance(a mat.Matrix, i int, b mat.Matrix, j int, cols int) float64 {
	var sum float64
	for f := 0; f < cols; f++ {
		d := a.At(i, f) - b.At(j, f)
		sum += d * d
	}
	return sum
}

func (m Metric) finish(squared float64) float64 {
	if m == L2 {
		return math.Sqrt(squared)
	}
	return squared
}

// CrosswiseDistances builds the (batch, k) matrix of distances from each
// query element to each of its k nearest neighbors in train. indices selects
// the query rows; nnIndices lists each query's neighbor rows in train, in
// neighbor order.
func CrosswiseDistances(queries, train mat.Matrix, indices []int, nnIndices [][]int, metric Metric) (*mat.Dense, error) {
	const op = "tensor.CrosswiseDistances"
	batch, k, err := checkNNIndices(op, indices, nnIndices)
	if err != nil {
		return nil, err
	}
	qRows, cols := queries.Dims()
	tRows, tCols := train.Dims()
	if cols != tCols {
		return nil, errors.NewDimensionError(op, cols, tCols, 1)
	}

	// Bounds errors surface before any computation.
	for i := 0; i < batch; i++ {
		if indices[i] < 0 || indices[i] >= qRows {
			return nil, errors.NewValueError(op, "query index out of range")
		}
		for j := 0; j < k; j++ {
			if nnIndices[i][j] < 0 || nnIndices[i][j] >= tRows {
				return nil, errors.NewValueError(op, "neighbor index out of range")
			}
		}
	}

	out := mat.NewDense(batch, k, nil)
	parallel.ParallelizeWithThreshold(batch, distanceParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < k; j++ {
				out.Set(i, j, metric.finish(
					squaredDistance(queries, indices[i], train, nnIndices[i][j], cols)))
			}
		}
	})
	return out, nil
}

// PairwiseDistances builds the (batch, k, k) tensor of pairwise distances
// among each batch element's k nearest neighbors. Each inner matrix is
// symmetric with a zero diagonal.
func PairwiseDistances(train mat.Matrix, nnIndices [][]int, metric Metric) (*Dense3, error) {
	const op = "tensor.PairwiseDistances"
	if len(nnIndices) == 0 {
		return nil, errors.NewValueError(op, "empty neighbor index matrix")
	}
	batch := len(nnIndices)
	k := len(nnIndices[0])
	if k == 0 {
		return nil, errors.NewValueError(op, "empty neighbor list")
	}
	tRows, cols := train.Dims()
	for i := range nnIndices {
		if len(nnIndices[i]) != k {
			return nil, errors.NewDimensionError(op, k, len(nnIndices[i]), 1)
		}
		for j := 0; j < k; j++ {
			if nnIndices[i][j] < 0 || nnIndices[i][j] >= tRows {
				return nil, errors.NewValueError(op, "neighbor index out of range")
			}
		}
	}

	out := NewDense3(batch, k, k, nil)
	parallel.ParallelizeWithThreshold(batch, distanceParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			nn := nnIndices[i]
			for j := 0; j < k; j++ {
				for l := j + 1; l < k; l++ {
					d := metric.finish(squaredDistance(train, nn[j], train, nn[l], cols))
					out.Set(i, j, l, d)
					out.Set(i, l, j, d)
				}
			}
		}
	})
	return out, nil
}

// FullPairwiseDistances builds the dense (rows, rows) distance matrix among
// all rows of X. It serves the conventional dense GP used as a test oracle,
// not the batched local solves.
func FullPairwiseDistances(X mat.Matrix, metric Metric) *mat.Dense {
	rows, cols := X.Dims()
	out := mat.NewDense(rows, rows, nil)
	parallel.ParallelizeWithThreshold(rows, distanceParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < rows; j++ {
				if i == j {
					continue
				}
				out.Set(i, j, metric.finish(squaredDistance(X, i, X, j, cols)))
			}
		}
	})
	return out
}

// FullCrosswiseDistances builds the dense (aRows, bRows) matrix of distances
// between every row of a and every row of b.
func FullCrosswiseDistances(a, b mat.Matrix, metric Metric) (*mat.Dense, error) {
	aRows, aCols := a.Dims()
	bRows, bCols := b.Dims()
	if aCols != bCols {
		return nil, errors.NewDimensionError("tensor.FullCrosswiseDistances", aCols, bCols, 1)
	}
	out := mat.NewDense(aRows, bRows, nil)
	parallel.ParallelizeWithThreshold(aRows, distanceParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < bRows; j++ {
				out.Set(i, j, metric.finish(squaredDistance(a, i, b, j, aCols)))
			}
		}
	})
	return out, nil
}

func checkNNIndices(op string, indices []int, nnIndices [][]int) (batch, k int, err error) {
	if len(indices) == 0 {
		return 0, 0, errors.NewValueError(op, "empty batch index list")
	}
	if len(nnIndices) != len(indices) {
		return 0, 0, errors.NewDimensionError(op, len(indices), len(nnIndices), 0)
	}
	k = len(nnIndices[0])
	if k == 0 {
		return 0, 0, errors.NewValueError(op, "empty neighbor list")
	}
	for i := range nnIndices {
		if len(nnIndices[i]) != k {
			return 0, 0, errors.NewDimensionError(op, k, len(nnIndices[i]), 1)
		}
	}
	return len(indices), k, nil
}
