// Package tensor provides the batched tensor types and distance-tensor
// constructors consumed by the regression engines. A batched tensor stacks
// one small matrix per batch element: pairwise neighbor distances are
// (batch, k, k), nearest-neighbor targets are (batch, k, response_count).
package tensor

import (
	"gonum.org/v1/gonum/mat"

	"github.com/krigo/krigo/pkg/errors"
)

// Dense3 is a dense rank-3 tensor with contiguous row-major storage. The
// outer axis indexes batch elements; Matrix exposes each element's inner
// matrix as a gonum view without copying.
type Dense3 struct {
	n, r, c int
	data    []float64
}

// NewDense3 creates an n x r x c tensor. If data is nil, a zeroed backing
// slice is allocated; otherwise data is used directly as backing storage and
// must have length n*r*c.
func NewDense3(n, r, c int, data []float64) *Dense3 {
	if n <= 0 || r <= 0 || c <= 0 {
		panic("tensor: non-positive dimension")
	}
	if data == nil {
		data = make([]float64, n*r*c)
	}
	if len(data) != n*r*c {
		panic("tensor: backing slice length mismatch")
	}
	return &Dense3{n: n, r: r, c: c, data: data}
}

// Dims returns the tensor dimensions.
func (t *Dense3) Dims() (n, r, c int) {
	return t.n, t.r, t.c
}

// At returns the element at (i, j, l).
func (t *Dense3) At(i, j, l int) float64 {
	return t.data[(i*t.r+j)*t.c+l]
}

// Set assigns the element at (i, j, l).
func (t *Dense3) Set(i, j, l int, v float64) {
	t.data[(i*t.r+j)*t.c+l] = v
}

// Matrix returns the i-th inner matrix as a view sharing the tensor's
// backing storage. Mutating the view mutates the tensor.
func (t *Dense3) Matrix(i int) *mat.Dense {
	start := i * t.r * t.c
	return mat.NewDense(t.r, t.c, t.data[start:start+t.r*t.c])
}

// Gather copies the selected outer slices into a new tensor. An index may
// appear more than once; each occurrence receives its own copy.
func (t *Dense3) Gather(indices []int) (*Dense3, error) {
	if len(indices) == 0 {
		return nil, errors.NewValueError("Dense3.Gather", "empty index list")
	}
	out := NewDense3(len(indices), t.r, t.c, nil)
	stride := t.r * t.c
	for i, idx := range indices {
		if idx < 0 || idx >= t.n {
			return nil, errors.NewValueError("Dense3.Gather", "index out of range")
		}
		copy(out.data[i*stride:(i+1)*stride], t.data[idx*stride:(idx+1)*stride])
	}
	return out, nil
}

// Component copies the l-th inner column into a new (n, r, 1) tensor. The
// multivariate engine uses it to slice one response dimension out of a
// (batch, k, response_count) target tensor.
func (t *Dense3) Component(l int) *Dense3 {
	out := NewDense3(t.n, t.r, 1, nil)
	for i := 0; i < t.n; i++ {
		for j := 0; j < t.r; j++ {
			out.data[i*t.r+j] = t.At(i, j, l)
		}
	}
	return out
}

// Clone returns a deep copy of the tensor.
func (t *Dense3) Clone() *Dense3 {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return &Dense3{n: t.n, r: t.r, c: t.c, data: data}
}
