package tensor

import (
	"gonum.org/v1/gonum/mat"

	"github.com/krigo/krigo/pkg/errors"
)

// MakeRegressTensors builds the three tensors a batched regression call
// consumes: the (batch, k) crosswise distance matrix, the (batch, k, k)
// pairwise distance tensor, and the (batch, k, response_count) neighbor
// target tensor. Neighbor j refers to the same training point in all three
// outputs.
func MakeRegressTensors(
	metric Metric,
	indices []int,
	nnIndices [][]int,
	queries, train, targets mat.Matrix,
) (crosswise *mat.Dense, pairwise *Dense3, batchNNTargets *Dense3, err error) {
	const op = "tensor.MakeRegressTensors"

	crosswise, err = CrosswiseDistances(queries, train, indices, nnIndices, metric)
	if err != nil {
		return nil, nil, nil, err
	}
	pairwise, err = PairwiseDistances(train, nnIndices, metric)
	if err != nil {
		return nil, nil, nil, err
	}
	batchNNTargets, err = gatherTargets(op, nnIndices, train, targets)
	if err != nil {
		return nil, nil, nil, err
	}
	return crosswise, pairwise, batchNNTargets, nil
}

// MakeFastRegressTensors builds the precomputation tensors for the
// fast-regression coefficient path. Each training point t receives the
// neighborhood formed by t itself followed by its first k-1 nearest
// neighbors, so nnIndices must list the neighbors of every training point in
// training order.
func MakeFastRegressTensors(
	metric Metric,
	nnIndices [][]int,
	train, targets mat.Matrix,
) (pairwiseFast *Dense3, nnTargetsFast *Dense3, err error) {
	const op = "tensor.MakeFastRegressTensors"

	trainCount, _ := train.Dims()
	if len(nnIndices) != trainCount {
		return nil, nil, errors.NewDimensionError(op, trainCount, len(nnIndices), 0)
	}
	if len(nnIndices[0]) == 0 {
		return nil, nil, errors.NewValueError(op, "empty neighbor list")
	}

	k := len(nnIndices[0])
	fastIndices := make([][]int, trainCount)
	for t := 0; t < trainCount; t++ {
		if len(nnIndices[t]) != k {
			return nil, nil, errors.NewDimensionError(op, k, len(nnIndices[t]), 1)
		}
		row := make([]int, k)
		row[0] = t
		copy(row[1:], nnIndices[t][:k-1])
		fastIndices[t] = row
	}

	pairwiseFast, err = PairwiseDistances(train, fastIndices, metric)
	if err != nil {
		return nil, nil, err
	}
	nnTargetsFast, err = gatherTargets(op, fastIndices, train, targets)
	if err != nil {
		return nil, nil, err
	}
	return pairwiseFast, nnTargetsFast, nil
}

// GatherTargets assembles the (batch, k, response_count) tensor of neighbor
// responses, reading row nnIndices[i][j] of targets into slab i, row j.
func GatherTargets(nnIndices [][]int, targets mat.Matrix) (*Dense3, error) {
	const op = "tensor.GatherTargets"
	if len(nnIndices) == 0 || len(nnIndices[0]) == 0 {
		return nil, errors.NewValueError(op, "empty neighbor list")
	}
	return gatherRows(op, nnIndices, targets)
}

// gatherTargets assembles the (batch, k, response_count) tensor of neighbor
// responses.
func gatherTargets(op string, nnIndices [][]int, train, targets mat.Matrix) (*Dense3, error) {
	trainCount, _ := train.Dims()
	targetRows, _ := targets.Dims()
	if targetRows != trainCount {
		return nil, errors.NewDimensionError(op, trainCount, targetRows, 0)
	}
	return gatherRows(op, nnIndices, targets)
}

func gatherRows(op string, nnIndices [][]int, targets mat.Matrix) (*Dense3, error) {
	targetRows, responseCount := targets.Dims()

	batch := len(nnIndices)
	k := len(nnIndices[0])
	out := NewDense3(batch, k, responseCount, nil)
	for i := 0; i < batch; i++ {
		if len(nnIndices[i]) != k {
			return nil, errors.NewDimensionError(op, k, len(nnIndices[i]), 1)
		}
		for j := 0; j < k; j++ {
			row := nnIndices[i][j]
			if row < 0 || row >= targetRows {
				return nil, errors.NewValueError(op, "neighbor index out of range")
			}
			for l := 0; l < responseCount; l++ {
				out.Set(i, j, l, targets.At(row, l))
			}
		}
	}
	return out, nil
}
