package kriging

import (
	"log/slog"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/krigo/krigo/kernel"
	"github.com/krigo/krigo/noise"
	"github.com/krigo/krigo/pkg/errors"
	"github.com/krigo/krigo/pkg/log"
	"github.com/krigo/krigo/tensor"
)

// ModelSpec configures one response dimension of a multivariate regressor.
type ModelSpec struct {
	// Kernel holds the kernel options for this dimension.
	Kernel []kernel.Option
	// Noise is the noise model for this dimension. Nil selects homoscedastic
	// noise of DefaultNoise.
	Noise noise.Model
}

// MultivariateRegressor predicts several response dimensions over shared
// distance tensors, with an independent kernel and noise model per dimension
// and one shared variance scale. All dimensions use the same kernel family so
// they agree on the distance metric.
type MultivariateRegressor struct {
	models  []*Regressor
	sigmaSq *SigmaSq
}

// NewMultivariateRegressor builds one internal regressor per spec, all of the
// given kernel family.
func NewMultivariateRegressor(family kernel.Family, specs ...ModelSpec) (*MultivariateRegressor, error) {
	const op = "kriging.NewMultivariateRegressor"

	if len(specs) == 0 {
		return nil, errors.NewConfigurationError(op, "at least one model spec is required")
	}
	models := make([]*Regressor, len(specs))
	for i, spec := range specs {
		kern, err := kernel.New(family, spec.Kernel...)
		if err != nil {
			return nil, err
		}
		nm := spec.Noise
		if nm == nil {
			nm = noise.NewHomoscedastic(DefaultNoise)
		}
		model, err := NewRegressor(WithKernel(kern), WithNoise(nm))
		if err != nil {
			return nil, err
		}
		models[i] = model
	}
	return &MultivariateRegressor{
		models:  models,
		sigmaSq: NewSigmaSq(len(specs)),
	}, nil
}

// Models returns the per-dimension regressors. Model i predicts response
// dimension i; mutating a model's hyperparameters affects subsequent
// regressions.
func (m *MultivariateRegressor) Models() []*Regressor {
	return m.models
}

// ResponseCount returns the number of response dimensions.
func (m *MultivariateRegressor) ResponseCount() int {
	return len(m.models)
}

// SigmaSq returns the shared variance scale.
func (m *MultivariateRegressor) SigmaSq() *SigmaSq {
	return m.sigmaSq
}

// Fixed reports whether every model has only fixed hyperparameters.
func (m *MultivariateRegressor) Fixed() bool {
	for _, model := range m.models {
		if !model.Fixed() {
			return false
		}
	}
	return true
}

func (m *MultivariateRegressor) metric() tensor.Metric {
	return m.models[0].kern.Metric()
}

func (m *MultivariateRegressor) checkResponseCount(op string, got int) error {
	if got != len(m.models) {
		return errors.NewConfigurationErrorf(op, "%d models cannot predict %d response dimensions", len(m.models), got)
	}
	return nil
}

// Regress computes posterior means, and optionally diagonal posterior
// variances, for every response dimension over shared distance tensors.
// Dimensions are solved concurrently; each one writes only its own output
// column, so their order never affects the result. When applySigmaSq is true
// and the shared scale has been trained, variance column l is multiplied by
// the scale of dimension l.
func (m *MultivariateRegressor) Regress(
	pairwiseDists *tensor.Dense3,
	crosswiseDists *mat.Dense,
	batchNNTargets *tensor.Dense3,
	mode VarianceMode,
	applySigmaSq bool,
) (responses, variances *mat.Dense, err error) {
	const op = "MultivariateRegressor.Regress"

	if err := checkVarianceMode(op, mode); err != nil {
		return nil, nil, err
	}
	batch, _, resp := batchNNTargets.Dims()
	if err := m.checkResponseCount(op, resp); err != nil {
		return nil, nil, err
	}

	responses = mat.NewDense(batch, resp, nil)
	if mode == VarianceDiagonal {
		variances = mat.NewDense(batch, resp, nil)
	}
	scaled := applySigmaSq && m.sigmaSq.Trained()

	var g errgroup.Group
	for l := range m.models {
		g.Go(func() error {
			comp := batchNNTargets.Component(l)
			resps, vars, err := m.models[l].Regress(pairwiseDists, crosswiseDists, comp, mode, false)
			if err != nil {
				return err
			}
			scale := 1.0
			if scaled {
				scale = m.sigmaSq.Value(l)
			}
			for i := 0; i < batch; i++ {
				responses.Set(i, l, resps.At(i, 0))
				if variances != nil {
					variances.Set(i, l, vars.At(i, 0)*scale)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return responses, variances, nil
}

// RegressFromIndices builds the shared distance and target tensors for the
// given batch and regresses on them, returning the tensors alongside the
// result for reuse.
func (m *MultivariateRegressor) RegressFromIndices(
	indices []int,
	nnIndices [][]int,
	queries, train, targets mat.Matrix,
	mode VarianceMode,
	applySigmaSq bool,
) (*Prediction, error) {
	const op = "MultivariateRegressor.RegressFromIndices"

	if err := checkVarianceMode(op, mode); err != nil {
		return nil, err
	}
	crosswise, pairwise, nnTargets, err := tensor.MakeRegressTensors(m.metric(), indices, nnIndices, queries, train, targets)
	if err != nil {
		return nil, err
	}
	responses, variances, err := m.Regress(pairwise, crosswise, nnTargets, mode, applySigmaSq)
	if err != nil {
		return nil, err
	}
	return &Prediction{
		Responses:      responses,
		Variances:      variances,
		CrosswiseDists: crosswise,
		PairwiseDists:  pairwise,
		BatchNNTargets: nnTargets,
	}, nil
}

// SigmaSqOptim estimates the shared variance scale in closed form, one
// component per response dimension, each under that dimension's kernel and
// noise model. The scale is stored on the regressor and marked trained, and
// a copy is returned. Dimensions are estimated concurrently; each reduces its
// own batch terms sequentially, so the result is deterministic.
func (m *MultivariateRegressor) SigmaSqOptim(pairwiseDists *tensor.Dense3, nnIndices [][]int, targets mat.Matrix) ([]float64, error) {
	const op = "MultivariateRegressor.SigmaSqOptim"

	_, resp := targets.Dims()
	if err := m.checkResponseCount(op, resp); err != nil {
		return nil, err
	}
	nnTargets, err := tensor.GatherTargets(nnIndices, targets)
	if err != nil {
		return nil, err
	}
	batch, k, _ := pairwiseDists.Dims()

	vals := make([]float64, resp)
	var g errgroup.Group
	for l := range m.models {
		g.Go(func() error {
			model := m.models[l]
			K := model.kern.Pairwise(pairwiseDists)
			terms, err := sigmaSqTerms(op, K, nnTargets.Component(l), model.noise)
			if err != nil {
				return err
			}
			var sum float64
			for i := 0; i < batch; i++ {
				sum += terms.At(i, 0)
			}
			vals[l] = sum / float64(k*batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	m.sigmaSq.train(vals)

	slog.Debug("estimated shared variance scale",
		log.BatchCountKey, batch,
		log.NNCountKey, k,
		log.ResponseCountKey, resp,
	)
	return m.sigmaSq.Values(), nil
}

// BuildFastCoeffs precomputes the fast-regression coefficient tensor with one
// component per response dimension, each solved under that dimension's kernel
// and noise model over the shared self-prepended neighborhoods.
func (m *MultivariateRegressor) BuildFastCoeffs(train mat.Matrix, nnIndices [][]int, targets mat.Matrix) (*tensor.Dense3, error) {
	const op = "MultivariateRegressor.BuildFastCoeffs"

	_, resp := targets.Dims()
	if err := m.checkResponseCount(op, resp); err != nil {
		return nil, err
	}
	pairwiseFast, nnTargetsFast, err := tensor.MakeFastRegressTensors(m.metric(), nnIndices, train, targets)
	if err != nil {
		return nil, err
	}
	trainCount, k, _ := pairwiseFast.Dims()

	coeffs := tensor.NewDense3(trainCount, k, resp, nil)
	var g errgroup.Group
	for l := range m.models {
		g.Go(func() error {
			model := m.models[l]
			K := model.kern.Pairwise(pairwiseFast)
			comp, err := solveCoeffs(op, K, nnTargetsFast.Component(l), model.noise)
			if err != nil {
				return err
			}
			for t := 0; t < trainCount; t++ {
				for j := 0; j < k; j++ {
					coeffs.Set(t, j, l, comp.At(t, j, 0))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return coeffs, nil
}

// FastRegress contracts cross-covariances with precomputed coefficients for
// every response dimension. coeffs row i must already hold the block of
// query i's closest training point.
func (m *MultivariateRegressor) FastRegress(crosswiseDists *mat.Dense, coeffs *tensor.Dense3) (*mat.Dense, error) {
	const op = "MultivariateRegressor.FastRegress"

	batch, k, resp := coeffs.Dims()
	if err := m.checkResponseCount(op, resp); err != nil {
		return nil, err
	}
	cb, ck := crosswiseDists.Dims()
	if cb != batch {
		return nil, errors.NewDimensionError(op, batch, cb, 0)
	}
	if ck != k {
		return nil, errors.NewDimensionError(op, k, ck, 1)
	}

	responses := mat.NewDense(batch, resp, nil)
	var g errgroup.Group
	for l := range m.models {
		g.Go(func() error {
			Kcross := m.models[l].kern.Crosswise(crosswiseDists)
			for i := 0; i < batch; i++ {
				var sum float64
				for j := 0; j < k; j++ {
					sum += Kcross.At(i, j) * coeffs.At(i, j, l)
				}
				responses.Set(i, l, sum)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

// FastRegressFromIndices builds the crosswise distances for the given batch,
// gathers each query's coefficient block by closestIndex, and contracts them.
// As with Regressor.FastRegressFromIndices, closestIndex naming each query's
// nearest training point is the caller's contract and is not verified.
func (m *MultivariateRegressor) FastRegressFromIndices(
	indices []int,
	nnIndices [][]int,
	queries, train mat.Matrix,
	closestIndex []int,
	coeffs *tensor.Dense3,
) (*mat.Dense, error) {
	const op = "MultivariateRegressor.FastRegressFromIndices"

	if len(closestIndex) != len(indices) {
		return nil, errors.NewDimensionError(op, len(indices), len(closestIndex), 0)
	}
	crosswise, err := tensor.CrosswiseDistances(queries, train, indices, nnIndices, m.metric())
	if err != nil {
		return nil, err
	}
	gathered, err := coeffs.Gather(closestIndex)
	if err != nil {
		return nil, err
	}
	return m.FastRegress(crosswise, gathered)
}
