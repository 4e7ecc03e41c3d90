package kriging

import (
	"gonum.org/v1/gonum/mat"

	"github.com/krigo/krigo/core/parallel"
	"github.com/krigo/krigo/noise"
	"github.com/krigo/krigo/pkg/errors"
	"github.com/krigo/krigo/tensor"
)

// solveParallelThreshold is the batch size below which batched neighborhood
// solves run sequentially.
const solveParallelThreshold = 32

// symFromSlab copies the upper triangle of the i-th (k, k) slab of K into
// dst.
func symFromSlab(dst *mat.SymDense, K *tensor.Dense3, i int) {
	k := dst.SymmetricDim()
	for j := 0; j < k; j++ {
		for l := j; l < k; l++ {
			dst.SetSym(j, l, K.At(i, j, l))
		}
	}
}

// factorizeSlab perturbs the i-th kernel slab with the noise model and
// factorizes it in place. sym and chol are caller-owned scratch reused across
// a chunk of the batch.
func factorizeSlab(op string, chol *mat.Cholesky, sym *mat.SymDense, K *tensor.Dense3, nm noise.Model, i int) error {
	symFromSlab(sym, K, i)
	if err := nm.Perturb(sym); err != nil {
		return errors.Wrapf(err, "%s: batch element %d", op, i)
	}
	if ok := chol.Factorize(sym); !ok {
		return errors.NewLinearAlgebraError(op, i, "perturbed kernel matrix is not positive definite")
	}
	return nil
}

// solveCoeffs computes A_i^-1 @ targets_i for every batch element, where A_i
// is the i-th slab of K perturbed by the noise model. The result has the
// same shape as targets.
func solveCoeffs(op string, K *tensor.Dense3, targets *tensor.Dense3, nm noise.Model) (*tensor.Dense3, error) {
	batch, k, kc := K.Dims()
	if kc != k {
		return nil, errors.NewDimensionError(op, k, kc, 2)
	}
	tb, tk, resp := targets.Dims()
	if tb != batch {
		return nil, errors.NewDimensionError(op, batch, tb, 0)
	}
	if tk != k {
		return nil, errors.NewDimensionError(op, k, tk, 1)
	}

	coeffs := tensor.NewDense3(batch, k, resp, nil)
	err := parallel.ParallelizeWithErrorThreshold(batch, solveParallelThreshold, func(start, end int) error {
		sym := mat.NewSymDense(k, nil)
		var chol mat.Cholesky
		for i := start; i < end; i++ {
			if err := factorizeSlab(op, &chol, sym, K, nm, i); err != nil {
				return err
			}
			if err := chol.SolveTo(coeffs.Matrix(i), targets.Matrix(i)); err != nil {
				return errors.NewLinearAlgebraError(op, i, err.Error())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return coeffs, nil
}

// contract computes responses(i, l) = sum_j Kcross(i, j) * coeffs(i, j, l),
// the batched row-by-slab product that finishes a posterior mean.
func contract(Kcross *mat.Dense, coeffs *tensor.Dense3) *mat.Dense {
	batch, k, resp := coeffs.Dims()
	out := mat.NewDense(batch, resp, nil)
	parallel.ParallelizeWithThreshold(batch, solveParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			row := Kcross.RawRowView(i)
			for l := 0; l < resp; l++ {
				var sum float64
				for j := 0; j < k; j++ {
					sum += row[j] * coeffs.At(i, j, l)
				}
				out.Set(i, l, sum)
			}
		}
	})
	return out
}

// diagonalVariance computes the unscaled posterior variance
// 1 - Kcross_i @ A_i^-1 @ Kcross_i^T for every batch element.
func diagonalVariance(op string, K *tensor.Dense3, Kcross *mat.Dense, nm noise.Model) (*mat.VecDense, error) {
	batch, k, _ := K.Dims()
	vars := mat.NewVecDense(batch, nil)
	err := parallel.ParallelizeWithErrorThreshold(batch, solveParallelThreshold, func(start, end int) error {
		sym := mat.NewSymDense(k, nil)
		x := mat.NewVecDense(k, nil)
		var chol mat.Cholesky
		for i := start; i < end; i++ {
			if err := factorizeSlab(op, &chol, sym, K, nm, i); err != nil {
				return err
			}
			b := Kcross.RowView(i)
			if err := chol.SolveVecTo(x, b); err != nil {
				return errors.NewLinearAlgebraError(op, i, err.Error())
			}
			vars.SetVec(i, 1.0-mat.Dot(b, x))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vars, nil
}

// sigmaSqTerms computes y_i^T A_i^-1 y_i for every batch element and response
// dimension. Callers reduce the (batch, response_count) result sequentially
// so the estimate does not depend on goroutine scheduling.
func sigmaSqTerms(op string, K *tensor.Dense3, batchNNTargets *tensor.Dense3, nm noise.Model) (*mat.Dense, error) {
	batch, k, _ := K.Dims()
	tb, tk, resp := batchNNTargets.Dims()
	if tb != batch {
		return nil, errors.NewDimensionError(op, batch, tb, 0)
	}
	if tk != k {
		return nil, errors.NewDimensionError(op, k, tk, 1)
	}

	terms := mat.NewDense(batch, resp, nil)
	err := parallel.ParallelizeWithErrorThreshold(batch, solveParallelThreshold, func(start, end int) error {
		sym := mat.NewSymDense(k, nil)
		x := mat.NewDense(k, resp, nil)
		var chol mat.Cholesky
		for i := start; i < end; i++ {
			if err := factorizeSlab(op, &chol, sym, K, nm, i); err != nil {
				return err
			}
			y := batchNNTargets.Matrix(i)
			if err := chol.SolveTo(x, y); err != nil {
				return errors.NewLinearAlgebraError(op, i, err.Error())
			}
			for l := 0; l < resp; l++ {
				var sum float64
				for j := 0; j < k; j++ {
					sum += y.At(j, l) * x.At(j, l)
				}
				terms.Set(i, l, sum)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return terms, nil
}
