// Package dataset provides sampling and scaling utilities for preparing
// training data.
package dataset

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/krigo/krigo/pkg/errors"
)

// Subsample draws count rows uniformly without replacement from the
// row-aligned feature and response matrices.
func Subsample(X, Y *mat.Dense, count int, rng *rand.Rand) (*mat.Dense, *mat.Dense, error) {
	const op = "dataset.Subsample"

	rows, err := alignedRows(op, X, Y)
	if err != nil {
		return nil, nil, err
	}
	if count < 1 || count > rows {
		return nil, nil, errors.NewValueError(op, "sample count outside data size")
	}
	if rng == nil {
		return nil, nil, errors.NewValueError(op, "nil random source")
	}

	perm := rng.Perm(rows)
	return takeRows(X, perm[:count]), takeRows(Y, perm[:count]), nil
}

// BalancedSubsample draws an equal share of count rows from every class,
// where a row's class is the argmax of its response row. Classes with fewer
// rows than their share contribute everything they have and raise an
// UndersampledClassWarning through the warning hook.
func BalancedSubsample(X, Y *mat.Dense, count int, rng *rand.Rand) (*mat.Dense, *mat.Dense, error) {
	const op = "dataset.BalancedSubsample"

	rows, err := alignedRows(op, X, Y)
	if err != nil {
		return nil, nil, err
	}
	if count < 1 || count > rows {
		return nil, nil, errors.NewValueError(op, "sample count outside data size")
	}
	if rng == nil {
		return nil, nil, errors.NewValueError(op, "nil random source")
	}

	_, classCount := Y.Dims()
	byClass := make([][]int, classCount)
	for i := 0; i < rows; i++ {
		class := argmaxRow(Y, i)
		byClass[class] = append(byClass[class], i)
	}

	share := count / classCount
	if share < 1 {
		return nil, nil, errors.NewValueError(op, "sample count smaller than class count")
	}

	picked := make([]int, 0, count)
	for class, members := range byClass {
		rng.Shuffle(len(members), func(a, b int) {
			members[a], members[b] = members[b], members[a]
		})
		take := share
		if len(members) < share {
			errors.Warn(errors.NewUndersampledClassWarning(class, share, len(members)))
			take = len(members)
		}
		picked = append(picked, members[:take]...)
	}
	return takeRows(X, picked), takeRows(Y, picked), nil
}

// Normalize scales every row of X to Euclidean norm sqrt(feature_count), so
// features drawn from the unit hypercube land near the unit hypersphere.
func Normalize(X *mat.Dense) (*mat.Dense, error) {
	const op = "dataset.Normalize"

	rows, cols := X.Dims()
	out := mat.NewDense(rows, cols, nil)
	target := math.Sqrt(float64(cols))
	for i := 0; i < rows; i++ {
		var sq float64
		for j := 0; j < cols; j++ {
			v := X.At(i, j)
			sq += v * v
		}
		if sq == 0 {
			return nil, errors.NewValueError(op, "zero row cannot be normalized")
		}
		scale := target / math.Sqrt(sq)
		for j := 0; j < cols; j++ {
			out.Set(i, j, X.At(i, j)*scale)
		}
	}
	return out, nil
}

func alignedRows(op string, X, Y *mat.Dense) (int, error) {
	xRows, _ := X.Dims()
	yRows, _ := Y.Dims()
	if xRows != yRows {
		return 0, errors.NewDimensionError(op, xRows, yRows, 0)
	}
	if xRows == 0 {
		return 0, errors.WithStack(errors.ErrEmptyData)
	}
	return xRows, nil
}

func argmaxRow(Y *mat.Dense, i int) int {
	_, cols := Y.Dims()
	best := 0
	for j := 1; j < cols; j++ {
		if Y.At(i, j) > Y.At(i, best) {
			best = j
		}
	}
	return best
}

func takeRows(m *mat.Dense, rows []int) *mat.Dense {
	_, cols := m.Dims()
	out := mat.NewDense(len(rows), cols, nil)
	for i, r := range rows {
		for j := 0; j < cols; j++ {
			out.Set(i, j, m.At(r, j))
		}
	}
	return out
}
