package cost

import (
	"gonum.org/v1/gonum/mat"

	"github.com/n0madic/go-graph-changepoint/spectral"
)

// GFSS is the graph-filtered spectral scan cost: the L2 segment cost
// evaluated on the low-pass-filtered signal. The filter attenuates energy on
// graph frequencies that are not smooth with respect to the topology, so the
// segment variance captures mainly graph-coherent mean shifts; a shift
// confined to a single weakly-connected node, or noise uncorrelated across
// neighbors, is suppressed before the variance is computed.
type GFSS struct {
	filter *spectral.Filter
	l2     L2
}

// NewGFSS wraps a previously built spectral filter. The filter is shared,
// not copied; it is immutable after construction so sharing is safe.
func NewGFSS(f *spectral.Filter) *GFSS {
	return &GFSS{filter: f}
}

// NewGFSSFromLaplacian builds the filter and the cost in one step.
func NewGFSSFromLaplacian(laplacian mat.Matrix, rho float64) (*GFSS, error) {
	f, err := spectral.New(laplacian, rho)
	if err != nil {
		return nil, err
	}
	return NewGFSS(f), nil
}

// Filter returns the underlying spectral filter.
func (c *GFSS) Filter() *spectral.Filter {
	return c.filter
}

// Fit filters the signal once through the node-space operator (one matrix
// multiply, O(n·d²)) and builds the prefix-sum caches over the filtered
// signal. A dimension mismatch between signal and filter leaves any previous
// fitted state untouched.
func (c *GFSS) Fit(signal *mat.Dense) error {
	if signal == nil {
		return ErrNilSignal
	}
	filtered, err := c.filter.Apply(signal)
	if err != nil {
		return err
	}
	return c.l2.Fit(filtered)
}

// Error returns the L2 cost of segment [start, end) on the filtered signal.
func (c *GFSS) Error(start, end int) (float64, error) {
	return c.l2.Error(start, end)
}

// Samples returns the number of fitted observations.
func (c *GFSS) Samples() int {
	return c.l2.Samples()
}

// MinSize returns the minimum admissible segment length.
func (c *GFSS) MinSize() int {
	return c.l2.MinSize()
}
