// Package synthetic generates piecewise-constant test signals and small
// graph Laplacians for demonstrations and tests. It is a harness around the
// core detection packages, not part of the detection algorithms themselves.
package synthetic

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrBadBreakpoints indicates breakpoints that are not strictly
	// increasing and positive, or do not match the means.
	ErrBadBreakpoints = errors.New("synthetic: breakpoints must be strictly increasing, positive, one mean vector per segment")

	// ErrBadMeans indicates segment mean vectors of unequal length.
	ErrBadMeans = errors.New("synthetic: all segment means must have the same dimension")
)

// PiecewiseConstant builds an n×d signal with one constant mean vector per
// segment plus i.i.d. Gaussian noise of standard deviation sigma. bkps are
// the segment end indices, strictly increasing with the last entry equal to
// n; means holds one length-d vector per segment. A fixed seed makes the
// noise reproducible.
func PiecewiseConstant(bkps []int, means [][]float64, sigma float64, seed int64) (*mat.Dense, error) {
	if len(bkps) == 0 || len(bkps) != len(means) {
		return nil, fmt.Errorf("%w: %d breakpoints, %d means", ErrBadBreakpoints, len(bkps), len(means))
	}
	prev := 0
	for _, b := range bkps {
		if b <= prev {
			return nil, fmt.Errorf("%w: got %v", ErrBadBreakpoints, bkps)
		}
		prev = b
	}
	d := len(means[0])
	for _, m := range means {
		if len(m) != d {
			return nil, fmt.Errorf("%w: got lengths %d and %d", ErrBadMeans, d, len(m))
		}
	}

	n := bkps[len(bkps)-1]
	rng := rand.New(rand.NewSource(seed))
	signal := mat.NewDense(n, d, nil)

	seg := 0
	for t := 0; t < n; t++ {
		if t >= bkps[seg] {
			seg++
		}
		for j := 0; j < d; j++ {
			signal.Set(t, j, means[seg][j]+sigma*rng.NormFloat64())
		}
	}
	return signal, nil
}

// AddStep adds shift to every row of signal from index at onward, in place.
// Useful for layering extra mean changes onto a generated signal.
func AddStep(signal *mat.Dense, at int, shift []float64) error {
	n, d := signal.Dims()
	if len(shift) != d {
		return fmt.Errorf("%w: signal has %d columns, shift has %d", ErrBadMeans, d, len(shift))
	}
	if at < 0 || at > n {
		return fmt.Errorf("%w: step at %d with n=%d", ErrBadBreakpoints, at, n)
	}
	for t := at; t < n; t++ {
		for j := 0; j < d; j++ {
			signal.Set(t, j, signal.At(t, j)+shift[j])
		}
	}
	return nil
}

// PathLaplacian returns the Laplacian of a path graph over d nodes with unit
// edge weights.
func PathLaplacian(d int) *mat.SymDense {
	l := mat.NewSymDense(d, nil)
	for i := 0; i+1 < d; i++ {
		l.SetSym(i, i+1, -1)
		l.SetSym(i, i, l.At(i, i)+1)
		l.SetSym(i+1, i+1, l.At(i+1, i+1)+1)
	}
	return l
}

// TwoClusterLaplacian returns the Laplacian of two complete clusters of the
// given size with in-cluster edge weight inWeight, joined by a single edge of
// weight crossWeight between node 0 and node size. crossWeight 0 yields a
// disconnected graph with two zero eigenvalues.
func TwoClusterLaplacian(size int, inWeight, crossWeight float64) *mat.SymDense {
	d := 2 * size
	l := mat.NewSymDense(d, nil)
	addEdge := func(i, j int, w float64) {
		if w == 0 {
			return
		}
		l.SetSym(i, j, l.At(i, j)-w)
		l.SetSym(i, i, l.At(i, i)+w)
		l.SetSym(j, j, l.At(j, j)+w)
	}
	for c := 0; c < 2; c++ {
		base := c * size
		for i := 0; i < size; i++ {
			for j := i + 1; j < size; j++ {
				addEdge(base+i, base+j, inWeight)
			}
		}
	}
	addEdge(0, size, crossWeight)
	return l
}
