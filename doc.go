// Package krigo provides scalable Gaussian process regression for Go,
// built on local kriging: every prediction is conditioned only on the
// query's nearest training neighbors.
//
// Instead of factorizing the full n x n training covariance, krigo solves
// one small k x k system per query, which keeps prediction cost linear in
// the batch size and cubic only in the neighborhood size. A precomputed
// fast path drops even that solve, answering queries with a single dot
// product against coefficients stored per training point.
//
// # Quick Start
//
// Regress a batch of queries against sine data:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "gonum.org/v1/gonum/mat"
//
//	    "github.com/krigo/krigo/kernel"
//	    "github.com/krigo/krigo/kriging"
//	    "github.com/krigo/krigo/neighbors"
//	)
//
//	func main() {
//	    ctx := context.Background()
//	    train := mat.NewDense(100, 1, nil)   // training features
//	    targets := mat.NewDense(100, 1, nil) // training responses
//	    queries := mat.NewDense(10, 1, nil)  // prediction locations
//
//	    finder, err := neighbors.NewFinder(ctx, train, 20)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer finder.Close()
//
//	    nnIndices, _, err := finder.Neighbors(ctx, queries)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    kern, err := kernel.New(kernel.Matern, kernel.WithNu(1.5))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    gp, err := kriging.NewRegressor(kriging.WithKernel(kern))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    indices := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
//	    pred, err := gp.RegressFromIndices(indices, nnIndices, queries, train, targets,
//	        kriging.VarianceDiagonal, false)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(mat.Formatted(pred.Responses))
//	}
//
// # Packages
//
//   - kriging: the regression engines (single model, multivariate, fast path,
//     closed-form variance scale, dense reference GP)
//   - kernel: Matern and RBF covariance kernels with fixed or bounded
//     hyperparameters
//   - noise: homoscedastic, heteroscedastic and null noise priors
//   - tensor: batched distance and target tensors backing the engines
//   - neighbors: nearest neighbor lookups over training features
//   - dataset: subsampling and normalization utilities
//   - metrics: regression quality and coverage measures
package krigo
