// Package metrics provides regression quality measures for evaluating
// posterior predictions against held-out targets.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/krigo/krigo/pkg/errors"
)

// MSE computes the mean squared error.
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MSE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE computes the root mean squared error.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE computes the mean absolute error.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MAE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MAE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score computes the coefficient of determination. A constant true vector
// has no variance to explain and is rejected.
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("R2Score", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("R2Score", n, yPred.Len(), 0)
	}

	var mean float64
	for i := 0; i < n; i++ {
		mean += yTrue.AtVec(i)
	}
	mean /= float64(n)

	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		res := yTrue.AtVec(i) - yPred.AtVec(i)
		tot := yTrue.AtVec(i) - mean
		ssRes += res * res
		ssTot += tot * tot
	}
	if ssTot == 0 {
		return 0, errors.NewValueError("R2Score", "true values are constant")
	}
	return 1 - ssRes/ssTot, nil
}

// Coverage computes the fraction of true values falling inside the central
// credible interval mean +- z * sqrt(variance). With z = 1.96 a calibrated
// posterior covers about 95 percent of the targets.
func Coverage(yTrue, mean, variance *mat.VecDense, z float64) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Coverage", "empty vector")
	}
	if mean.Len() != n {
		return 0, errors.NewDimensionError("Coverage", n, mean.Len(), 0)
	}
	if variance.Len() != n {
		return 0, errors.NewDimensionError("Coverage", n, variance.Len(), 0)
	}
	if z <= 0 {
		return 0, errors.NewValueError("Coverage", "z must be positive")
	}

	covered := 0
	for i := 0; i < n; i++ {
		v := variance.AtVec(i)
		if v < 0 {
			return 0, errors.NewValueError("Coverage", "negative variance")
		}
		half := z * math.Sqrt(v)
		if math.Abs(yTrue.AtVec(i)-mean.AtVec(i)) <= half {
			covered++
		}
	}
	return float64(covered) / float64(n), nil
}
