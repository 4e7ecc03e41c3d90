package kriging

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/krigo/krigo/kernel"
	"github.com/krigo/krigo/noise"
	"github.com/krigo/krigo/pkg/errors"
	"github.com/krigo/krigo/tensor"
)

// BenchmarkGP is a conventional dense Gaussian process over the full training
// set. It is the exact oracle the local engines approximate, and doubles as a
// sampler for generating synthetic data with known covariance structure. It
// is cubic in the training size and meant for tests, examples and validation,
// not production prediction.
type BenchmarkGP struct {
	kern  kernel.Kernel
	noise noise.Model
	scale float64
}

// NewBenchmarkGP builds a dense GP with the given kernel. A nil noise model
// selects homoscedastic noise of DefaultNoise. The variance scale starts at
// 1.0.
func NewBenchmarkGP(kern kernel.Kernel, nm noise.Model) (*BenchmarkGP, error) {
	if kern == nil {
		return nil, errors.NewConfigurationError("kriging.NewBenchmarkGP", "kernel must not be nil")
	}
	if nm == nil {
		nm = noise.NewHomoscedastic(DefaultNoise)
	}
	return &BenchmarkGP{kern: kern, noise: nm, scale: 1.0}, nil
}

// SetScale sets the variance scale applied to sampled draws and posterior
// covariances.
func (g *BenchmarkGP) SetScale(scale float64) error {
	if scale <= 0 {
		return errors.NewValueError("BenchmarkGP.SetScale", "scale must be positive")
	}
	g.scale = scale
	return nil
}

// Fixed reports whether all kernel and noise hyperparameters are fixed.
func (g *BenchmarkGP) Fixed() bool {
	return g.kern.Fixed() && g.noise.Fixed()
}

// OptimParams returns the unfixed hyperparameters, keyed as in
// Regressor.OptimParams. The variance scale is never included.
func (g *BenchmarkGP) OptimParams() map[string]*kernel.Hyperparameter {
	params := make(map[string]*kernel.Hyperparameter)
	for name, h := range g.kern.Hyperparameters() {
		if !h.Fixed() {
			params[name] = h
		}
	}
	if hn, ok := g.noise.(*noise.Homoscedastic); ok && !hn.Fixed() {
		params["eps"] = hn.Eps()
	}
	return params
}

// priorSym builds the perturbed dense prior covariance of X.
func (g *BenchmarkGP) priorSym(op string, X mat.Matrix) (*mat.SymDense, error) {
	K := g.kern.Crosswise(tensor.FullPairwiseDistances(X, g.kern.Metric()))
	n, _ := K.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, K.At(i, j))
		}
	}
	if err := g.noise.Perturb(sym); err != nil {
		return nil, errors.Wrap(err, op)
	}
	return sym, nil
}

// Regress computes the exact posterior mean and full posterior covariance of
// the queries given the entire training set. The covariance is multiplied by
// the current variance scale.
func (g *BenchmarkGP) Regress(queries, train, targets mat.Matrix) (means, cov *mat.Dense, err error) {
	const op = "BenchmarkGP.Regress"

	sym, err := g.priorSym(op, train)
	if err != nil {
		return nil, nil, err
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, nil, errors.NewLinearAlgebraError(op, 0, "dense prior covariance is not positive definite")
	}

	crossDists, err := tensor.FullCrosswiseDistances(queries, train, g.kern.Metric())
	if err != nil {
		return nil, nil, err
	}
	Kcross := g.kern.Crosswise(crossDists)

	trainCount, _ := train.Dims()
	_, resp := targets.Dims()
	coeffs := mat.NewDense(trainCount, resp, nil)
	if err := chol.SolveTo(coeffs, targets); err != nil {
		return nil, nil, errors.NewLinearAlgebraError(op, 0, err.Error())
	}
	queryCount, _ := queries.Dims()
	means = mat.NewDense(queryCount, resp, nil)
	means.Mul(Kcross, coeffs)

	Kstar := g.kern.Crosswise(tensor.FullPairwiseDistances(queries, g.kern.Metric()))
	V := mat.NewDense(trainCount, queryCount, nil)
	if err := chol.SolveTo(V, Kcross.T()); err != nil {
		return nil, nil, errors.NewLinearAlgebraError(op, 0, err.Error())
	}
	cov = mat.NewDense(queryCount, queryCount, nil)
	cov.Mul(Kcross, V)
	cov.Sub(Kstar, cov)
	cov.Scale(g.scale, cov)
	return means, cov, nil
}

// Sample draws one realization y ~ N(0, scale * (K + noise)) over the rows
// of X.
func (g *BenchmarkGP) Sample(X mat.Matrix, src rand.Source) (*mat.VecDense, error) {
	const op = "BenchmarkGP.Sample"

	sym, err := g.priorSym(op, X)
	if err != nil {
		return nil, err
	}
	sym.ScaleSym(g.scale, sym)
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, errors.NewLinearAlgebraError(op, 0, "scaled prior covariance is not positive definite")
	}
	n := sym.SymmetricDim()
	var lower mat.TriDense
	chol.LTo(&lower)

	standard := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	z := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		z.SetVec(i, standard.Rand())
	}
	y := mat.NewVecDense(n, nil)
	y.MulVec(&lower, z)
	return y, nil
}

// AnalyticSigmaSq computes the full-data closed-form variance scale
// y^T (K + noise)^-1 y / n. The local SigmaSqOptim estimate converges to it
// as neighborhoods grow.
func (g *BenchmarkGP) AnalyticSigmaSq(X mat.Matrix, y *mat.VecDense) (float64, error) {
	const op = "BenchmarkGP.AnalyticSigmaSq"

	n, _ := X.Dims()
	if y.Len() != n {
		return 0, errors.NewDimensionError(op, n, y.Len(), 0)
	}
	sym, err := g.priorSym(op, X)
	if err != nil {
		return 0, err
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return 0, errors.NewLinearAlgebraError(op, 0, "dense prior covariance is not positive definite")
	}
	x := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(x, y); err != nil {
		return 0, errors.NewLinearAlgebraError(op, 0, err.Error())
	}
	return mat.Dot(y, x) / float64(n), nil
}
