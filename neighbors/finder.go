// Package neighbors provides nearest neighbor lookups over training features
// for the local kriging engines. It produces the index lists the engines
// consume and guarantees the closest-index consistency the fast-regression
// path relies on, since both come from the same index.
package neighbors

import (
	"context"
	"math"

	"github.com/hupe1980/vecgo"
	"gonum.org/v1/gonum/mat"

	"github.com/krigo/krigo/core/parallel"
	"github.com/krigo/krigo/pkg/errors"
)

// Finder answers k-nearest-neighbor queries against a fixed training set
// using an embedded vector index. The default index is exact (flat); WithHNSW
// trades exactness for speed on large training sets. Finder is safe for
// concurrent queries.
type Finder struct {
	db         *vecgo.Vecgo[int]
	trainVecs  [][]float32
	nnCount    int
	trainCount int
	searchEF   int
}

type config struct {
	hnsw bool
	m    int
	ef   int
}

// Option configures a Finder.
type Option func(*config)

// WithHNSW switches the index from exact flat search to HNSW with the given
// graph connectivity. The exploration factor ef is applied both while
// building the graph and on every query.
func WithHNSW(m, ef int) Option {
	return func(c *config) {
		c.hnsw = true
		c.m = m
		c.ef = ef
	}
}

// NewFinder indexes the rows of train for nnCount-nearest-neighbor queries.
func NewFinder(ctx context.Context, train mat.Matrix, nnCount int, opts ...Option) (*Finder, error) {
	const op = "neighbors.NewFinder"

	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	trainCount, dim := train.Dims()
	if nnCount < 1 {
		return nil, errors.NewConfigurationErrorf(op, "neighbor count must be positive, got %d", nnCount)
	}
	if nnCount > trainCount {
		return nil, errors.NewConfigurationErrorf(op, "neighbor count %d exceeds training size %d", nnCount, trainCount)
	}

	var db *vecgo.Vecgo[int]
	var err error
	if cfg.hnsw {
		db, err = vecgo.HNSW[int](dim).SquaredL2().M(cfg.m).EFConstruction(cfg.ef).Build()
	} else {
		db, err = vecgo.Flat[int](dim).SquaredL2().Build()
	}
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	trainVecs := make([][]float32, trainCount)
	for i := 0; i < trainCount; i++ {
		vec := rowToFloat32(train, i, dim)
		trainVecs[i] = vec
		if _, err := db.Insert(ctx, vecgo.VectorWithData[int]{Vector: vec, Data: i}); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "%s: indexing training point %d", op, i)
		}
	}
	return &Finder{
		db:         db,
		trainVecs:  trainVecs,
		nnCount:    nnCount,
		trainCount: trainCount,
		searchEF:   cfg.ef,
	}, nil
}

// search starts a query, applying the HNSW exploration factor when one was
// configured. EF must stay at least k, so the larger of the two wins.
func (f *Finder) search(vec []float32, k int) *vecgo.SearchBuilder[int] {
	sb := f.db.Search(vec).KNN(k)
	if f.searchEF > 0 {
		ef := f.searchEF
		if ef < k {
			ef = k
		}
		sb = sb.EF(ef)
	}
	return sb
}

// NNCount returns the number of neighbors per query.
func (f *Finder) NNCount() int {
	return f.nnCount
}

// TrainCount returns the number of indexed training points.
func (f *Finder) TrainCount() int {
	return f.trainCount
}

// Close releases the underlying index.
func (f *Finder) Close() error {
	return f.db.Close()
}

// Neighbors returns the nnCount nearest training indices of every query row,
// closest first, along with the matching Euclidean distances.
func (f *Finder) Neighbors(ctx context.Context, queries mat.Matrix) ([][]int, *mat.Dense, error) {
	const op = "neighbors.Finder.Neighbors"

	queryCount, dim := queries.Dims()
	if queryCount == 0 {
		return nil, nil, errors.NewValueError(op, "no query rows")
	}

	nnIndices := make([][]int, queryCount)
	dists := mat.NewDense(queryCount, f.nnCount, nil)
	err := parallel.ParallelizeWithError(queryCount, func(start, end int) error {
		for i := start; i < end; i++ {
			results, err := f.search(rowToFloat32(queries, i, dim), f.nnCount).Execute(ctx)
			if err != nil {
				return errors.Wrapf(err, "%s: query %d", op, i)
			}
			if len(results) != f.nnCount {
				return errors.NewDimensionError(op, f.nnCount, len(results), 1)
			}
			row := make([]int, f.nnCount)
			for j, res := range results {
				row[j] = res.Data
				dists.Set(i, j, math.Sqrt(float64(res.Distance)))
			}
			nnIndices[i] = row
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return nnIndices, dists, nil
}

// TrainingNeighbors returns the nnCount nearest neighbors of every indexed
// training point, excluding the point itself. The lists are in training
// order, the layout BuildFastCoeffs expects.
func (f *Finder) TrainingNeighbors(ctx context.Context) ([][]int, error) {
	const op = "neighbors.Finder.TrainingNeighbors"

	if f.nnCount+1 > f.trainCount {
		return nil, errors.NewConfigurationErrorf(op, "excluding self needs %d training points, have %d", f.nnCount+1, f.trainCount)
	}

	nnIndices := make([][]int, f.trainCount)
	err := parallel.ParallelizeWithError(f.trainCount, func(start, end int) error {
		for t := start; t < end; t++ {
			results, err := f.search(f.trainVecs[t], f.nnCount+1).Execute(ctx)
			if err != nil {
				return errors.Wrapf(err, "%s: training point %d", op, t)
			}
			// Skipping the self hit leaves nnCount entries. When a
			// duplicate point shadows self out of the results, all
			// nnCount+1 hits are valid neighbors and the cap applies.
			row := make([]int, 0, f.nnCount)
			for _, res := range results {
				if res.Data == t {
					continue
				}
				if len(row) == f.nnCount {
					break
				}
				row = append(row, res.Data)
			}
			if len(row) != f.nnCount {
				return errors.NewDimensionError(op, f.nnCount, len(row), 1)
			}
			nnIndices[t] = row
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nnIndices, nil
}

// ClosestIndex returns the index of the single nearest training point of
// every query row. Feeding the result to FastRegressFromIndices satisfies its
// closest-index contract when the same finder produced the neighbor lists.
func (f *Finder) ClosestIndex(ctx context.Context, queries mat.Matrix) ([]int, error) {
	const op = "neighbors.Finder.ClosestIndex"

	queryCount, dim := queries.Dims()
	closest := make([]int, queryCount)
	err := parallel.ParallelizeWithError(queryCount, func(start, end int) error {
		for i := start; i < end; i++ {
			results, err := f.search(rowToFloat32(queries, i, dim), 1).Execute(ctx)
			if err != nil {
				return errors.Wrapf(err, "%s: query %d", op, i)
			}
			if len(results) == 0 {
				return errors.NewValueError(op, "empty search result")
			}
			closest[i] = results[0].Data
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return closest, nil
}

func rowToFloat32(m mat.Matrix, i, dim int) []float32 {
	vec := make([]float32, dim)
	for j := 0; j < dim; j++ {
		vec[j] = float32(m.At(i, j))
	}
	return vec
}
