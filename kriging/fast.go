package kriging

import (
	"gonum.org/v1/gonum/mat"

	"github.com/krigo/krigo/pkg/errors"
	"github.com/krigo/krigo/tensor"
)

// BuildFastCoeffs precomputes one (k, response_count) coefficient block per
// training point, solving A_t^-1 @ Y_t over the neighborhood formed by point
// t followed by its first k-1 nearest neighbors. nnIndices must list the
// neighbors of every training point in training order. The resulting tensor
// replaces the per-query solve in FastRegress.
func (r *Regressor) BuildFastCoeffs(train mat.Matrix, nnIndices [][]int, targets mat.Matrix) (*tensor.Dense3, error) {
	const op = "Regressor.BuildFastCoeffs"

	_, resp := targets.Dims()
	if resp != r.sigmaSq.Len() {
		return nil, errors.NewDimensionError(op, r.sigmaSq.Len(), resp, 1)
	}
	pairwiseFast, nnTargetsFast, err := tensor.MakeFastRegressTensors(r.kern.Metric(), nnIndices, train, targets)
	if err != nil {
		return nil, err
	}
	K := r.kern.Pairwise(pairwiseFast)
	return solveCoeffs(op, K, nnTargetsFast, r.noise)
}

// FastRegress computes posterior means by contracting cross-covariances with
// precomputed coefficients,
//
//	responses(i, l) = sum_j Kcross(i, j) * coeffs(i, j, l)
//
// where coeffs row i is the block of the query's closest training point,
// already gathered. No linear solve happens here.
func (r *Regressor) FastRegress(crosswiseDists *mat.Dense, coeffs *tensor.Dense3) (*mat.Dense, error) {
	const op = "Regressor.FastRegress"

	batch, k, _ := coeffs.Dims()
	cb, ck := crosswiseDists.Dims()
	if cb != batch {
		return nil, errors.NewDimensionError(op, batch, cb, 0)
	}
	if ck != k {
		return nil, errors.NewDimensionError(op, k, ck, 1)
	}
	Kcross := r.kern.Crosswise(crosswiseDists)
	return contract(Kcross, coeffs), nil
}

// FastRegressFromIndices builds the crosswise distances for the given batch,
// gathers each query's coefficient block by closestIndex, and contracts them.
// closestIndex[i] names the training point whose precomputed neighborhood
// serves query i; coefficients are only meaningful when it is the nearest
// training point, which is the caller's contract and is not verified here.
func (r *Regressor) FastRegressFromIndices(
	indices []int,
	nnIndices [][]int,
	queries, train mat.Matrix,
	closestIndex []int,
	coeffs *tensor.Dense3,
) (*mat.Dense, error) {
	const op = "Regressor.FastRegressFromIndices"

	if len(closestIndex) != len(indices) {
		return nil, errors.NewDimensionError(op, len(indices), len(closestIndex), 0)
	}
	crosswise, err := tensor.CrosswiseDistances(queries, train, indices, nnIndices, r.kern.Metric())
	if err != nil {
		return nil, err
	}
	gathered, err := coeffs.Gather(closestIndex)
	if err != nil {
		return nil, err
	}
	return r.FastRegress(crosswise, gathered)
}
