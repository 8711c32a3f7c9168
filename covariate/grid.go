package covariate

import "fmt"

// Combination is one covariate vector: covariate name → value. The
// value type is shared with vitalrate.Covariates by shape, so a
// Combination feeds prediction directly.
type Combination map[string]float64

// Clone returns an independent copy.
func (c Combination) Clone() Combination {
	out := make(Combination, len(c))
	for k, v := range c {
		out[k] = v
	}

	return out
}

// With returns a copy with one value replaced.
func (c Combination) With(name string, v float64) Combination {
	out := c.Clone()
	out[name] = v

	return out
}

// Grid is a lazy, finite, restartable iterator over the Cartesian
// product of per-covariate ranges discretized into evenly spaced
// points. Iteration order is deterministic: covariates in sorted name
// order, last covariate fastest.
//
// Covariates of the series not named in the grid are held at their
// marginal mean in every emitted combination, so each Combination is
// complete and directly usable for prediction.
type Grid struct {
	names  []string    // gridded covariates, sorted
	axes   [][]float64 // axes[j] = discretized values of names[j]
	base   Combination // non-gridded covariates at their means
	idx    []int
	done   bool
	frozen bool // becomes true after first Next; Reset clears
}

// Grid builds a grid over the named covariates (all series covariates
// when names is empty) with each range split into resolution evenly
// spaced points between the marginal min and max.
//
// The total combination count is resolution^k; callers must bound this
// explicitly for k > 3.
func (s *Series) Grid(resolution int, names ...string) (*Grid, error) {
	if resolution < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrBadResolution, resolution)
	}
	if len(names) == 0 {
		names = s.names
	}
	names = sortedNames(names)

	axes := make([][]float64, len(names))
	gridded := make(map[string]bool, len(names))
	for j, name := range names {
		st, err := s.Marginal(name)
		if err != nil {
			return nil, err
		}
		axes[j] = linspace(st.Min, st.Max, resolution)
		gridded[name] = true
	}

	base := make(Combination)
	for _, name := range s.names {
		if !gridded[name] {
			base[name] = s.marginals[s.index[name]].Mean
		}
	}

	return &Grid{
		names: names,
		axes:  axes,
		base:  base,
		idx:   make([]int, len(names)),
	}, nil
}

// Len returns the total number of combinations the grid emits.
func (g *Grid) Len() int {
	n := 1
	for _, ax := range g.axes {
		n *= len(ax)
	}

	return n
}

// Names returns the gridded covariate names in iteration order.
func (g *Grid) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)

	return out
}

// Next emits the next combination (a fresh map) and true, or nil and
// false once exhausted. The sequence restarts only via Reset.
func (g *Grid) Next() (Combination, bool) {
	if g.done {
		return nil, false
	}
	if g.frozen {
		// Advance the odometer, last axis fastest.
		j := len(g.idx) - 1
		for ; j >= 0; j-- {
			g.idx[j]++
			if g.idx[j] < len(g.axes[j]) {
				break
			}
			g.idx[j] = 0
		}
		if j < 0 {
			g.done = true
			return nil, false
		}
	}
	g.frozen = true

	c := g.base.Clone()
	for j, name := range g.names {
		c[name] = g.axes[j][g.idx[j]]
	}

	return c, true
}

// Reset rewinds the grid to its first combination.
func (g *Grid) Reset() {
	for j := range g.idx {
		g.idx[j] = 0
	}
	g.done = false
	g.frozen = false
}

// linspace returns n evenly spaced points from lo to hi inclusive.
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi // exact endpoint regardless of rounding

	return out
}
