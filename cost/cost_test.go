package cost

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/n0madic/go-graph-changepoint/spectral"
	"github.com/n0madic/go-graph-changepoint/synthetic"
)

func randomSignal(n, d int, seed int64) *mat.Dense {
	rng := rand.New(rand.NewSource(seed))
	signal := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			signal.Set(i, j, rng.NormFloat64())
		}
	}
	return signal
}

// naiveL2 computes the segment cost directly from the definition.
func naiveL2(signal *mat.Dense, start, end int) float64 {
	_, d := signal.Dims()
	length := float64(end - start)
	total := 0.0
	for j := 0; j < d; j++ {
		mean := 0.0
		for t := start; t < end; t++ {
			mean += signal.At(t, j)
		}
		mean /= length
		for t := start; t < end; t++ {
			dev := signal.At(t, j) - mean
			total += dev * dev
		}
	}
	return total
}

func TestL2MatchesNaiveComputation(t *testing.T) {
	const (
		n    = 40
		d    = 3
		seed = 7
	)

	signal := randomSignal(n, d, seed)
	c := NewL2()
	require.NoError(t, c.Fit(signal))
	require.Equal(t, n, c.Samples())
	require.Equal(t, d, c.Dims())

	for start := 0; start < n; start += 3 {
		for end := start + 1; end <= n; end += 5 {
			got, err := c.Error(start, end)
			require.NoError(t, err)
			assert.InDelta(t, naiveL2(signal, start, end), got, 1e-9, "segment [%d, %d)", start, end)
			assert.GreaterOrEqual(t, got, 0.0)
		}
	}
}

func TestL2SinglePointSegmentIsZero(t *testing.T) {
	c := NewL2()
	require.NoError(t, c.Fit(randomSignal(10, 2, 1)))

	got, err := c.Error(4, 5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestL2ErrorValidation(t *testing.T) {
	c := NewL2()
	_, err := c.Error(0, 5)
	assert.ErrorIs(t, err, ErrNotFitted)

	require.NoError(t, c.Fit(randomSignal(10, 2, 1)))

	_, err = c.Error(3, 3)
	assert.ErrorIs(t, err, ErrSegmentTooShort)

	_, err = c.Error(-1, 5)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = c.Error(0, 11)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	assert.ErrorIs(t, c.Fit(nil), ErrNilSignal)
}

func TestCostNotAdditiveAcrossSplits(t *testing.T) {
	// Two constant halves: each half costs zero, the whole segment does not.
	signal, err := synthetic.PiecewiseConstant(
		[]int{5, 10},
		[][]float64{{0}, {4}},
		0, 1,
	)
	require.NoError(t, err)

	c := NewL2()
	require.NoError(t, c.Fit(signal))

	left, err := c.Error(0, 5)
	require.NoError(t, err)
	right, err := c.Error(5, 10)
	require.NoError(t, err)
	whole, err := c.Error(0, 10)
	require.NoError(t, err)

	assert.Equal(t, 0.0, left)
	assert.Equal(t, 0.0, right)
	assert.Greater(t, whole, left+right)
}

func TestGFSSEqualsL2OnFilteredSignal(t *testing.T) {
	const (
		n   = 30
		d   = 6
		rho = 0.2
	)

	lap := synthetic.TwoClusterLaplacian(3, 1, 0.5)
	filter, err := spectral.New(lap, rho)
	require.NoError(t, err)

	signal := randomSignal(n, d, 11)
	filtered, err := filter.Apply(signal)
	require.NoError(t, err)

	ref := NewL2()
	require.NoError(t, ref.Fit(filtered))

	g := NewGFSS(filter)
	require.NoError(t, g.Fit(signal))
	require.Equal(t, n, g.Samples())
	require.Equal(t, ref.MinSize(), g.MinSize())

	for start := 0; start < n; start += 4 {
		for end := start + 2; end <= n; end += 7 {
			want, err := ref.Error(start, end)
			require.NoError(t, err)
			got, err := g.Error(start, end)
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-12, "segment [%d, %d)", start, end)
		}
	}
}

func TestGFSSHighCutoffMatchesPlainL2(t *testing.T) {
	// With rho at or above the largest eigenvalue every gain is 1 and the
	// operator is the identity, so GFSS degenerates to plain L2.
	const n = 25

	lap := synthetic.PathLaplacian(4)
	g, err := NewGFSSFromLaplacian(lap, 1e6)
	require.NoError(t, err)

	signal := randomSignal(n, 4, 3)
	require.NoError(t, g.Fit(signal))

	ref := NewL2()
	require.NoError(t, ref.Fit(signal))

	for start := 0; start < n; start += 2 {
		for end := start + 1; end <= n; end += 4 {
			want, err := ref.Error(start, end)
			require.NoError(t, err)
			got, err := g.Error(start, end)
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-8, "segment [%d, %d)", start, end)
		}
	}
}

func TestGFSSAttenuatesGraphIncoherentEnergy(t *testing.T) {
	// A pattern alternating inside each cluster is a high graph frequency;
	// the filtered cost over it must be far below the raw cost. A
	// cluster-wide pattern is smooth and must keep most of its energy.
	const n = 20

	lap := synthetic.TwoClusterLaplacian(5, 1, 0.1)
	filter, err := spectral.New(lap, 0.01)
	require.NoError(t, err)

	rough := []float64{1, -1, 1, -1, 0, 1, -1, 1, -1, 0}
	smooth := []float64{1, 1, 1, 1, 1, 0, 0, 0, 0, 0}

	build := func(pattern []float64) *mat.Dense {
		signal := mat.NewDense(n, 10, nil)
		for t := n / 2; t < n; t++ {
			for j := 0; j < 10; j++ {
				signal.Set(t, j, pattern[j])
			}
		}
		return signal
	}

	costRatio := func(pattern []float64) float64 {
		signal := build(pattern)
		raw := NewL2()
		require.NoError(t, raw.Fit(signal))
		g := NewGFSS(filter)
		require.NoError(t, g.Fit(signal))

		rawCost, err := raw.Error(0, n)
		require.NoError(t, err)
		require.Greater(t, rawCost, 0.0)
		gCost, err := g.Error(0, n)
		require.NoError(t, err)
		return gCost / rawCost
	}

	assert.Less(t, costRatio(rough), 0.02)
	assert.Greater(t, costRatio(smooth), 0.5)
}

func TestGFSSDimensionMismatch(t *testing.T) {
	g, err := NewGFSSFromLaplacian(synthetic.PathLaplacian(4), 1)
	require.NoError(t, err)

	err = g.Fit(randomSignal(10, 3, 1))
	assert.ErrorIs(t, err, spectral.ErrDimensionMismatch)
	assert.Equal(t, 0, g.Samples())

	assert.ErrorIs(t, g.Fit(nil), ErrNilSignal)
}

func TestGFSSInvalidFilterParameters(t *testing.T) {
	_, err := NewGFSSFromLaplacian(synthetic.PathLaplacian(4), -0.5)
	assert.ErrorIs(t, err, spectral.ErrInvalidCutoff)

	asym := mat.NewDense(2, 2, []float64{1, -1, 0, 1})
	_, err = NewGFSSFromLaplacian(asym, 1)
	assert.ErrorIs(t, err, spectral.ErrNotSymmetric)
}

func TestL2MinSizeConvention(t *testing.T) {
	// Both variants share the single-point minimum so comparisons stay fair.
	l2 := NewL2()
	g, err := NewGFSSFromLaplacian(synthetic.PathLaplacian(3), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, l2.MinSize())
	assert.Equal(t, 1, g.MinSize())
}
