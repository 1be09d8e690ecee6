// Package pelt implements exact optimal changepoint partitioning with
// pruning (PELT). Given a fitted segment cost and a per-changepoint penalty,
// Search finds the partition of [0, n) into contiguous segments minimizing
//
//	Σ_segments cost(segment) + penalty · (segments − 1)
//
// over all partitions whose breakpoints lie on a stride-jump grid and whose
// segments have length ≥ min size.
//
// Algorithm outline:
//  1. bestCost[0] = −penalty, so the first segment pays no penalty.
//  2. For each grid position t in increasing order, admit the newest
//     candidate predecessor and set
//     bestCost[t] = min over candidates s of bestCost[s] + cost(s,t) + penalty,
//     recording the argmin in lastChange[t].
//  3. Prune: a candidate s is removed permanently once
//     bestCost[s] + cost(s,t) > bestCost[t]. For additive non-negative
//     quadratic-deviation costs this quantity only grows with t, so a
//     dominated candidate can never become optimal again and removal does
//     not change the final optimum.
//  4. Backtracking from lastChange[n] yields the breakpoint sequence, with n
//     appended as terminal marker.
//
// Complexity is O(n²) cost evaluations in the worst case (noisy signals can
// defeat the dominance rule) but typically near-linear when true changes
// dominate. jump = 1 searches every index; jump > 1 restricts breakpoints to
// multiples of jump, a deliberate speed/exactness trade at non-grid offsets.
package pelt

import (
	"errors"
	"fmt"
	"math"

	"github.com/n0madic/go-graph-changepoint/cost"
)

var (
	// ErrInvalidGrid indicates jump or min size below 1.
	ErrInvalidGrid = errors.New("pelt: jump and min size must be at least 1")

	// ErrInvalidPenalty indicates a negative penalty.
	ErrInvalidPenalty = errors.New("pelt: penalty must be non-negative")

	// ErrEmptySignal indicates the cost function holds no samples.
	ErrEmptySignal = errors.New("pelt: cost function holds no samples")
)

// Pelt is an optimal partitioner. It holds only the grid configuration;
// search state is transient per Search call, so a Pelt may run concurrent
// searches over distinct fitted costs.
type Pelt struct {
	jump    int
	minSize int
}

// Option configures a Pelt.
type Option func(*Pelt)

// WithJump restricts candidate breakpoints to multiples of jump.
func WithJump(jump int) Option {
	return func(p *Pelt) {
		p.jump = jump
	}
}

// WithMinSize sets the minimum admissible segment length.
func WithMinSize(minSize int) Option {
	return func(p *Pelt) {
		p.minSize = minSize
	}
}

// New creates a partitioner with jump = 1 and min size = 1 unless overridden.
func New(opts ...Option) (*Pelt, error) {
	p := &Pelt{jump: 1, minSize: 1}
	for _, opt := range opts {
		opt(p)
	}
	if p.jump < 1 || p.minSize < 1 {
		return nil, fmt.Errorf("%w: jump=%d min_size=%d", ErrInvalidGrid, p.jump, p.minSize)
	}
	return p, nil
}

// Jump returns the breakpoint grid stride.
func (p *Pelt) Jump() int {
	return p.jump
}

// MinSize returns the minimum admissible segment length.
func (p *Pelt) MinSize() int {
	return p.minSize
}

// Search returns the minimizing breakpoint sequence for c under penalty:
// strictly increasing indices ending in n, each segment of length ≥ the
// effective min size (the larger of the partitioner's and the cost's). When
// no split is feasible (n < 2·min size) the single-segment partition [n] is
// returned.
func (p *Pelt) Search(c cost.Function, penalty float64) ([]int, error) {
	if penalty < 0 || math.IsNaN(penalty) {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidPenalty, penalty)
	}
	n := c.Samples()
	if n == 0 {
		return nil, ErrEmptySignal
	}

	minSize := p.minSize
	if m := c.MinSize(); m > minSize {
		minSize = m
	}
	if n < 2*minSize {
		return []int{n}, nil
	}

	// Candidate breakpoints: multiples of jump in [minSize, n), then n.
	first := (minSize + p.jump - 1) / p.jump * p.jump
	grid := make([]int, 0, (n-first)/p.jump+2)
	for t := first; t < n; t += p.jump {
		grid = append(grid, t)
	}
	grid = append(grid, n)

	inf := math.Inf(1)
	bestCost := make([]float64, n+1)
	for i := range bestCost {
		bestCost[i] = inf
	}
	bestCost[0] = -penalty
	lastChange := make([]int, n+1)

	candidates := make([]int, 0, len(grid)+1)
	partial := make([]float64, 0, len(grid)+1) // bestCost[s] + cost(s,t) per candidate

	for _, t := range grid {
		// Admit the newest grid point that still leaves room for a
		// minSize-length segment before t.
		adm := (t - minSize) / p.jump * p.jump
		if len(candidates) == 0 || adm > candidates[len(candidates)-1] {
			candidates = append(candidates, adm)
		}

		best := inf
		arg := -1
		partial = partial[:len(candidates)]
		for i, s := range candidates {
			if math.IsInf(bestCost[s], 1) {
				// s never became a valid partition boundary; it is swept
				// out by the prune below.
				partial[i] = inf
				continue
			}
			e, err := c.Error(s, t)
			if err != nil {
				return nil, err
			}
			partial[i] = bestCost[s] + e
			if total := partial[i] + penalty; total < best {
				best = total
				arg = s
			}
		}
		if arg < 0 {
			continue
		}
		bestCost[t] = best
		lastChange[t] = arg

		// PELT prune: the argmin always survives, since
		// bestCost[arg] + cost(arg,t) = bestCost[t] − penalty ≤ bestCost[t].
		kept := candidates[:0]
		for i, s := range candidates {
			if partial[i] <= bestCost[t] {
				kept = append(kept, s)
			}
		}
		candidates = kept
	}

	// Backtrack from n to 0 and reverse in place.
	var bkps []int
	for t := n; t > 0; t = lastChange[t] {
		bkps = append(bkps, t)
	}
	for l, r := 0, len(bkps)-1; l < r; l, r = l+1, r-1 {
		bkps[l], bkps[r] = bkps[r], bkps[l]
	}
	return bkps, nil
}
