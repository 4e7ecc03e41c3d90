// Package kriging implements local approximate Gaussian process regression.
// Each prediction is conditioned only on the query's nearest training
// neighbors, replacing the usual cubic-in-n solve with a batch of small
// k x k solves.
package kriging

import (
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/krigo/krigo/kernel"
	"github.com/krigo/krigo/noise"
	"github.com/krigo/krigo/pkg/errors"
	"github.com/krigo/krigo/pkg/log"
	"github.com/krigo/krigo/tensor"
)

// VarianceMode selects which posterior variance a regression computes.
type VarianceMode string

const (
	// VarianceNone computes posterior means only.
	VarianceNone VarianceMode = ""
	// VarianceDiagonal additionally computes the independent posterior
	// variance of each batch element.
	VarianceDiagonal VarianceMode = "diagonal"
)

// DefaultNoise is the homoscedastic noise prior used when no noise model is
// configured.
const DefaultNoise = 1e-5

// Regressor is a local kriging engine built from one kernel, one noise model
// and a variance scale. The zero value is not usable; construct with
// NewRegressor.
type Regressor struct {
	kern    kernel.Kernel
	noise   noise.Model
	sigmaSq *SigmaSq
}

// Option configures a Regressor.
type Option func(*Regressor) error

// WithKernel sets the covariance kernel.
func WithKernel(k kernel.Kernel) Option {
	return func(r *Regressor) error {
		if k == nil {
			return errors.NewConfigurationError("kriging.WithKernel", "kernel must not be nil")
		}
		r.kern = k
		return nil
	}
}

// WithNoise sets the noise model perturbing every neighborhood kernel matrix.
func WithNoise(n noise.Model) Option {
	return func(r *Regressor) error {
		if n == nil {
			return errors.NewConfigurationError("kriging.WithNoise", "noise model must not be nil")
		}
		r.noise = n
		return nil
	}
}

// WithResponseCount sets the number of response dimensions the regressor
// predicts, which fixes the length of its variance scale vector.
func WithResponseCount(n int) Option {
	return func(r *Regressor) error {
		if n < 1 {
			return errors.NewConfigurationErrorf("kriging.WithResponseCount", "response count must be positive, got %d", n)
		}
		r.sigmaSq = NewSigmaSq(n)
		return nil
	}
}

// NewRegressor builds a regressor. Defaults are a fixed Matern kernel with
// nu=0.5 and unit length scale, homoscedastic noise of DefaultNoise, and a
// single response dimension.
func NewRegressor(opts ...Option) (*Regressor, error) {
	r := &Regressor{}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.kern == nil {
		kern, err := kernel.New(kernel.Matern)
		if err != nil {
			return nil, err
		}
		r.kern = kern
	}
	if r.noise == nil {
		r.noise = noise.NewHomoscedastic(DefaultNoise)
	}
	if r.sigmaSq == nil {
		r.sigmaSq = NewSigmaSq(1)
	}
	return r, nil
}

// Kernel returns the regressor's covariance kernel.
func (r *Regressor) Kernel() kernel.Kernel {
	return r.kern
}

// Noise returns the regressor's noise model.
func (r *Regressor) Noise() noise.Model {
	return r.noise
}

// SigmaSq returns the regressor's variance scale.
func (r *Regressor) SigmaSq() *SigmaSq {
	return r.sigmaSq
}

// Fixed reports whether no free hyperparameters remain in the kernel or the
// noise model.
func (r *Regressor) Fixed() bool {
	return r.kern.Fixed() && r.noise.Fixed()
}

// OptimParams returns references to the free hyperparameters of the kernel
// and, for homoscedastic noise, the free noise prior under the key "eps".
// The variance scale never appears; it has a closed-form estimator.
func (r *Regressor) OptimParams() map[string]*kernel.Hyperparameter {
	params := make(map[string]*kernel.Hyperparameter)
	for name, h := range r.kern.Hyperparameters() {
		if !h.Fixed() {
			params[name] = h
		}
	}
	if hn, ok := r.noise.(*noise.Homoscedastic); ok && !hn.Fixed() {
		params["eps"] = hn.Eps()
	}
	return params
}

func checkVarianceMode(op string, mode VarianceMode) error {
	switch mode {
	case VarianceNone, VarianceDiagonal:
		return nil
	default:
		return errors.NewUnsupportedModeError(op, string(mode))
	}
}

// Regress computes posterior means, and optionally diagonal posterior
// variances, from precomputed distance tensors. batchNNTargets must carry the
// regressor's response count in its last dimension. When applySigmaSq is true
// and the variance scale has been trained, variance column l is multiplied by
// the scale of response dimension l; otherwise variances are returned
// unscaled with identical columns.
func (r *Regressor) Regress(
	pairwiseDists *tensor.Dense3,
	crosswiseDists *mat.Dense,
	batchNNTargets *tensor.Dense3,
	mode VarianceMode,
	applySigmaSq bool,
) (responses, variances *mat.Dense, err error) {
	const op = "Regressor.Regress"

	if err := checkVarianceMode(op, mode); err != nil {
		return nil, nil, err
	}
	batch, k, _ := pairwiseDists.Dims()
	cb, ck := crosswiseDists.Dims()
	if cb != batch {
		return nil, nil, errors.NewDimensionError(op, batch, cb, 0)
	}
	if ck != k {
		return nil, nil, errors.NewDimensionError(op, k, ck, 1)
	}
	_, _, resp := batchNNTargets.Dims()
	if resp != r.sigmaSq.Len() {
		return nil, nil, errors.NewDimensionError(op, r.sigmaSq.Len(), resp, 2)
	}

	K := r.kern.Pairwise(pairwiseDists)
	Kcross := r.kern.Crosswise(crosswiseDists)

	coeffs, err := solveCoeffs(op, K, batchNNTargets, r.noise)
	if err != nil {
		return nil, nil, err
	}
	responses = contract(Kcross, coeffs)

	if mode == VarianceDiagonal {
		diag, err := diagonalVariance(op, K, Kcross, r.noise)
		if err != nil {
			return nil, nil, err
		}
		variances = r.scaleVariance(diag, applySigmaSq)
	}
	return responses, variances, nil
}

// scaleVariance expands the shared diagonal variance into one column per
// response dimension, applying the trained scale when requested.
func (r *Regressor) scaleVariance(diag *mat.VecDense, applySigmaSq bool) *mat.Dense {
	batch := diag.Len()
	resp := r.sigmaSq.Len()
	scaled := applySigmaSq && r.sigmaSq.Trained()
	out := mat.NewDense(batch, resp, nil)
	for l := 0; l < resp; l++ {
		scale := 1.0
		if scaled {
			scale = r.sigmaSq.Value(l)
		}
		for i := 0; i < batch; i++ {
			out.Set(i, l, diag.AtVec(i)*scale)
		}
	}
	return out
}

// Prediction bundles a batched regression result with the distance and
// target tensors it was computed from, so callers can reuse them for
// hyperparameter optimization or the variance scale estimator.
type Prediction struct {
	// Responses holds the (batch, response_count) posterior means.
	Responses *mat.Dense
	// Variances holds the (batch, response_count) diagonal posterior
	// variances. Nil when the regression ran with VarianceNone.
	Variances *mat.Dense
	// CrosswiseDists holds the (batch, k) query-to-neighbor distances.
	CrosswiseDists *mat.Dense
	// PairwiseDists holds the (batch, k, k) neighbor-to-neighbor distances.
	PairwiseDists *tensor.Dense3
	// BatchNNTargets holds the (batch, k, response_count) neighbor responses.
	BatchNNTargets *tensor.Dense3
}

// RegressFromIndices builds the distance and target tensors for the given
// batch and regresses on them. indices selects the query rows, nnIndices
// lists the training neighbors of each query, and targets holds the training
// responses row-aligned with train.
func (r *Regressor) RegressFromIndices(
	indices []int,
	nnIndices [][]int,
	queries, train, targets mat.Matrix,
	mode VarianceMode,
	applySigmaSq bool,
) (*Prediction, error) {
	const op = "Regressor.RegressFromIndices"

	if err := checkVarianceMode(op, mode); err != nil {
		return nil, err
	}
	crosswise, pairwise, nnTargets, err := tensor.MakeRegressTensors(r.kern.Metric(), indices, nnIndices, queries, train, targets)
	if err != nil {
		return nil, err
	}
	responses, variances, err := r.Regress(pairwise, crosswise, nnTargets, mode, applySigmaSq)
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

// SigmaSqOptim estimates the variance scale in closed form from a batch of
// training neighborhoods,
//
//	sigma_sq[l] = sum_i y_il^T A_i^-1 y_il / (k * batch)
//
// and stores it on the regressor, marking the scale trained. Running it
// again with the same inputs reproduces the same values. The trained vector
// is returned as a copy.
func (r *Regressor) SigmaSqOptim(pairwiseDists *tensor.Dense3, nnIndices [][]int, targets mat.Matrix) ([]float64, error) {
	const op = "Regressor.SigmaSqOptim"

	nnTargets, err := tensor.GatherTargets(nnIndices, targets)
	if err != nil {
		return nil, err
	}
	_, _, resp := nnTargets.Dims()
	if resp != r.sigmaSq.Len() {
		return nil, errors.NewDimensionError(op, r.sigmaSq.Len(), resp, 2)
	}

	K := r.kern.Pairwise(pairwiseDists)
	terms, err := sigmaSqTerms(op, K, nnTargets, r.noise)
	if err != nil {
		return nil, err
	}

	batch, k, _ := K.Dims()
	vals := make([]float64, resp)
	for l := 0; l < resp; l++ {
		var sum float64
		for i := 0; i < batch; i++ {
			sum += terms.At(i, l)
		}
		vals[l] = sum / float64(k*batch)
	}
	r.sigmaSq.train(vals)

	slog.Debug("estimated variance scale",
		log.BatchCountKey, batch,
		log.NNCountKey, k,
		log.ResponseCountKey, resp,
	)
	return r.sigmaSq.Values(), nil
}

// SigmaSqSeries returns the per-neighborhood scale estimates
// y_il^T A_i^-1 y_il / k for response dimension dim, without touching the
// stored scale. Averaging the series reproduces the SigmaSqOptim estimate.
func (r *Regressor) SigmaSqSeries(pairwiseDists *tensor.Dense3, nnIndices [][]int, targets mat.Matrix, dim int) ([]float64, error) {
	const op = "Regressor.SigmaSqSeries"

	nnTargets, err := tensor.GatherTargets(nnIndices, targets)
	if err != nil {
		return nil, err
	}
	_, _, resp := nnTargets.Dims()
	if dim < 0 || dim >= resp {
		return nil, errors.NewDimensionError(op, resp, dim, 2)
	}

	K := r.kern.Pairwise(pairwiseDists)
	terms, err := sigmaSqTerms(op, K, nnTargets, r.noise)
	if err != nil {
		return nil, err
	}

	batch, k, _ := K.Dims()
	series := make([]float64, batch)
	for i := 0; i < batch; i++ {
		series[i] = terms.At(i, dim) / float64(k)
	}
	return series, nil
}
