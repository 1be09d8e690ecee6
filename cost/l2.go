package cost

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// L2 scores a segment by the sum of squared deviations from the segment's
// per-dimension mean: Σ_t ‖y_t − ȳ‖² over t in [start, end). It is the
// graph-agnostic baseline cost.
//
// Fit precomputes per-dimension prefix sums of y and a scalar prefix sum of
// ‖y‖², so each Error call runs in O(d) regardless of segment length:
//
//	Error(a, b) = Σ_{t∈[a,b)} ‖y_t‖² − ‖Σ_{t∈[a,b)} y_t‖² / (b−a)
type L2 struct {
	n, d   int
	cumSum []float64 // (n+1)×d row-major prefix sums of y
	cumSq  []float64 // n+1 prefix sums of ‖y‖²
}

// NewL2 returns an unfitted L2 cost.
func NewL2() *L2 {
	return &L2{}
}

// Fit precomputes the prefix-sum caches for signal. Replaces any previously
// fitted state.
func (c *L2) Fit(signal *mat.Dense) error {
	if signal == nil {
		return ErrNilSignal
	}
	n, d := signal.Dims()

	cumSum := make([]float64, (n+1)*d)
	cumSq := make([]float64, n+1)
	for t := 0; t < n; t++ {
		row := (t + 1) * d
		prev := t * d
		var sq float64
		for j := 0; j < d; j++ {
			v := signal.At(t, j)
			cumSum[row+j] = cumSum[prev+j] + v
			sq += v * v
		}
		cumSq[t+1] = cumSq[t] + sq
	}

	c.n, c.d = n, d
	c.cumSum, c.cumSq = cumSum, cumSq
	return nil
}

// Error returns the squared deviation of segment [start, end) around its
// per-dimension mean. Small negative values from floating-point cancellation
// are clamped to zero.
func (c *L2) Error(start, end int) (float64, error) {
	if c.n == 0 {
		return 0, ErrNotFitted
	}
	if start < 0 || end > c.n || start > end {
		return 0, fmt.Errorf("%w: [%d, %d) with n=%d", ErrOutOfBounds, start, end, c.n)
	}
	if end-start < minSegment {
		return 0, fmt.Errorf("%w: [%d, %d) shorter than %d", ErrSegmentTooShort, start, end, minSegment)
	}

	length := float64(end - start)
	total := c.cumSq[end] - c.cumSq[start]

	var meanSq float64
	endRow, startRow := end*c.d, start*c.d
	for j := 0; j < c.d; j++ {
		s := c.cumSum[endRow+j] - c.cumSum[startRow+j]
		meanSq += s * s
	}

	v := total - meanSq/length
	if v < 0 {
		v = 0
	}
	return v, nil
}

// Samples returns the number of fitted observations.
func (c *L2) Samples() int {
	return c.n
}

// Dims returns the number of signal dimensions, or 0 before Fit.
func (c *L2) Dims() int {
	return c.d
}

// MinSize returns the minimum admissible segment length.
func (c *L2) MinSize() int {
	return minSegment
}
