// Package spectral builds reusable low-pass filtering operators from graph
// Laplacians. A Filter attenuates the components of a node-space signal that
// are not smooth with respect to the graph topology: eigenvectors of the
// Laplacian with eigenvalue below the cutoff pass unchanged, higher
// frequencies are damped by sqrt(rho/lambda). The DC modes (zero eigenvalues,
// one per connected component) always pass with gain 1.
package spectral

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotSquare indicates the Laplacian matrix is not square.
	ErrNotSquare = errors.New("spectral: laplacian must be square")

	// ErrNotSymmetric indicates the Laplacian is not symmetric within tolerance.
	ErrNotSymmetric = errors.New("spectral: laplacian must be symmetric")

	// ErrInvalidCutoff indicates a non-positive cutoff parameter.
	ErrInvalidCutoff = errors.New("spectral: cutoff rho must be positive")

	// ErrDimensionMismatch indicates a signal whose width does not match the
	// Laplacian size.
	ErrDimensionMismatch = errors.New("spectral: signal width does not match laplacian size")
)

// zeroTol separates numerically zero eigenvalues (DC modes) from genuine
// graph frequencies.
const zeroTol = 1e-10

// symTol is the relative tolerance for the symmetry check in New.
const symTol = 1e-8

// Filter is a low-pass operator over node-space, built once per Laplacian.
// The eigendecomposition is computed at construction and cached for the
// lifetime of the Filter; a Filter is immutable after New and safe for
// concurrent use.
type Filter struct {
	dim     int
	rho     float64
	eigVals []float64  // ascending
	eigVecs *mat.Dense // columns ordered to match eigVals

	opOnce sync.Once
	op     *mat.Dense // cached U·diag(g)·Uᵀ, built on first use
}

// New computes the full symmetric eigendecomposition of laplacian and returns
// a Filter with cutoff rho. The matrix must be square and symmetric within a
// small relative tolerance, and rho must be positive.
func New(laplacian mat.Matrix, rho float64) (*Filter, error) {
	if rho <= 0 || math.IsNaN(rho) {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidCutoff, rho)
	}
	r, c := laplacian.Dims()
	if r != c {
		return nil, fmt.Errorf("%w: got %dx%d", ErrNotSquare, r, c)
	}
	if r == 0 {
		return nil, fmt.Errorf("%w: got 0x0", ErrNotSquare)
	}

	// Symmetry check relative to the largest entry magnitude.
	maxAbs := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			if v := math.Abs(laplacian.At(i, j)); v > maxAbs {
				maxAbs = v
			}
		}
	}
	tol := symTol*maxAbs + 1e-12
	for i := 0; i < r; i++ {
		for j := i + 1; j < r; j++ {
			if math.Abs(laplacian.At(i, j)-laplacian.At(j, i)) > tol {
				return nil, fmt.Errorf("%w: entries (%d,%d) and (%d,%d) differ", ErrNotSymmetric, i, j, j, i)
			}
		}
	}

	// Symmetrize before factorizing to counter floating-point asymmetry.
	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			sym.SetSym(i, j, 0.5*(laplacian.At(i, j)+laplacian.At(j, i)))
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return nil, errors.New("spectral: eigendecomposition did not converge")
	}

	vecs := mat.NewDense(r, r, nil)
	eig.VectorsTo(vecs)

	return &Filter{
		dim:     r,
		rho:     rho,
		eigVals: eig.Values(nil),
		eigVecs: vecs,
	}, nil
}

// gain is the low-pass response at graph frequency lambda. Eigenvalues at or
// below zeroTol are DC modes and pass with gain 1, which covers disconnected
// graphs with multiple zero eigenvalues.
func (f *Filter) gain(lambda float64) float64 {
	if lambda <= zeroTol {
		return 1
	}
	return math.Min(1, math.Sqrt(f.rho/lambda))
}

// Dim returns the number of graph nodes.
func (f *Filter) Dim() int {
	return f.dim
}

// Cutoff returns the cutoff parameter rho.
func (f *Filter) Cutoff() float64 {
	return f.rho
}

// Eigenvalues returns a copy of the Laplacian eigenvalues in ascending order.
func (f *Filter) Eigenvalues() []float64 {
	out := make([]float64, len(f.eigVals))
	copy(out, f.eigVals)
	return out
}

// Gains returns the filter response at each eigenvalue, ordered to match
// Eigenvalues.
func (f *Filter) Gains() []float64 {
	out := make([]float64, len(f.eigVals))
	for i, lambda := range f.eigVals {
		out[i] = f.gain(lambda)
	}
	return out
}

// Operator returns the d×d filtering matrix F = U·diag(g)·Uᵀ. The matrix is
// computed on first call and cached; subsequent calls return the cached
// matrix, and concurrent first calls are safe. Callers must treat the result
// as read-only. F is assembled as B·Bᵀ with B = U·diag(√g), which keeps it
// exactly symmetric positive-semidefinite in floating point.
func (f *Filter) Operator() *mat.Dense {
	f.opOnce.Do(func() {
		d := f.dim
		b := mat.NewDense(d, d, nil)
		for j := 0; j < d; j++ {
			s := math.Sqrt(f.gain(f.eigVals[j]))
			for i := 0; i < d; i++ {
				b.Set(i, j, s*f.eigVecs.At(i, j))
			}
		}

		op := mat.NewDense(d, d, nil)
		op.Mul(b, b.T())
		f.op = op
	})
	return f.op
}

// Apply filters each time-row of an n×d signal through the node-space
// operator, returning a new n×d matrix. F is symmetric, so right-multiplying
// by Fᵀ and by F coincide. Apply is pure: neither the receiver beyond the
// operator cache nor the input is modified.
func (f *Filter) Apply(signal mat.Matrix) (*mat.Dense, error) {
	n, c := signal.Dims()
	if c != f.dim {
		return nil, fmt.Errorf("%w: signal has %d columns, laplacian has %d nodes", ErrDimensionMismatch, c, f.dim)
	}

	out := mat.NewDense(n, c, nil)
	out.Mul(signal, f.Operator())
	return out, nil
}

// filterState is the serializable state of a Filter.
type filterState struct {
	Version int
	Dim     int
	Rho     float64
	EigVals []float64
	EigVecs []float64 // row-major d×d
}

// Save serializes the filter to gob format. The cached operator matrix is not
// serialized as it can be rebuilt from the eigendecomposition.
func (f *Filter) Save(w io.Writer) error {
	state := filterState{
		Version: 1,
		Dim:     f.dim,
		Rho:     f.rho,
		EigVals: make([]float64, len(f.eigVals)),
	}
	copy(state.EigVals, f.eigVals)

	raw := f.eigVecs.RawMatrix()
	state.EigVecs = make([]float64, len(raw.Data))
	copy(state.EigVecs, raw.Data)

	return gob.NewEncoder(w).Encode(state)
}

// Load deserializes a Filter previously written by Save.
func Load(r io.Reader) (*Filter, error) {
	var state filterState
	if err := gob.NewDecoder(r).Decode(&state); err != nil {
		return nil, err
	}
	if state.Version != 1 {
		return nil, errors.New("spectral: unsupported gob version")
	}
	if state.Dim <= 0 {
		return nil, errors.New("spectral: invalid dimension in saved state")
	}
	if state.Rho <= 0 || math.IsNaN(state.Rho) {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidCutoff, state.Rho)
	}
	if len(state.EigVals) != state.Dim {
		return nil, errors.New("spectral: invalid eigenvalue data length")
	}
	if len(state.EigVecs) != state.Dim*state.Dim {
		return nil, errors.New("spectral: invalid eigenvector data length")
	}

	vecData := make([]float64, len(state.EigVecs))
	copy(vecData, state.EigVecs)
	vals := make([]float64, len(state.EigVals))
	copy(vals, state.EigVals)

	return &Filter{
		dim:     state.Dim,
		rho:     state.Rho,
		eigVals: vals,
		eigVecs: mat.NewDense(state.Dim, state.Dim, vecData),
	}, nil
}
