// Package cost defines the additive segment-cost contract consumed by the
// changepoint search, plus two concrete costs: the plain least-squares L2
// and the graph-filtered GFSS variant. A cost is bound to a signal with Fit,
// after which Error scores any half-open segment [start, end) of the time
// axis. Fitted costs are read-only and safe to share across concurrent
// searches.
package cost

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotFitted indicates Error was called before Fit.
	ErrNotFitted = errors.New("cost: Fit must be called before Error")

	// ErrSegmentTooShort indicates a segment shorter than the cost's minimum
	// admissible length.
	ErrSegmentTooShort = errors.New("cost: segment below minimum admissible length")

	// ErrOutOfBounds indicates segment indices outside [0, n].
	ErrOutOfBounds = errors.New("cost: segment indices out of bounds")

	// ErrNilSignal indicates Fit was called with no signal.
	ErrNilSignal = errors.New("cost: nil signal")
)

// minSegment is the minimum admissible segment length shared by the L2 and
// GFSS variants: a single-point segment has zero deviation from its own mean,
// so no degrees-of-freedom correction is applied. Keeping the convention
// identical across variants keeps L2/GFSS comparisons fair.
const minSegment = 1

// Function is the capability consumed by the partitioning search: bind a
// signal with Fit, then score segments with Error. Error must return a
// non-negative value and is called with overlapping ranges O(n²) times in
// the worst case, so implementations precompute whatever caches make a
// single call cheap.
type Function interface {
	// Fit binds the cost to an n×d signal (rows are observations, columns
	// are dimensions), precomputing internal caches.
	Fit(signal *mat.Dense) error

	// Error returns the cost of the half-open segment [start, end).
	Error(start, end int) (float64, error)

	// Samples returns n, the number of observations of the fitted signal,
	// or 0 before Fit.
	Samples() int

	// MinSize returns the minimum admissible segment length.
	MinSize() int
}
