package covariate

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Sample is one historical observation: a covariate vector at one time
// point. Year is informational ordering metadata; chronological order
// is the slice order of Series samples.
type Sample struct {
	Year   int
	Values map[string]float64
}

// Stats holds the marginal summary of one covariate over the series,
// plus the chronological indices of the first extreme occurrences.
type Stats struct {
	Min, Max, Mean, Std float64
	MinIndex, MaxIndex  int
}

// Extreme selects which historical extreme PairedAt anchors on.
type Extreme int

const (
	AtMin Extreme = iota
	AtMax
)

// SeriesOptions configures series construction.
//   - Detrend: remove a fitted linear time trend per covariate before
//     standardization, so a long-term directional trend does not
//     dominate the signal.
//   - Standardize: z-score each covariate (mean 0, sd 1) after any
//     detrending.
//   - Lag1: covariate names to duplicate shifted by one step, appended
//     as "<name>.lag1"; the first sample is dropped to keep rows whole.
type SeriesOptions struct {
	Detrend     bool
	Standardize bool
	Lag1        []string
}

// Series is an immutable ordered covariate record with precomputed
// marginal statistics.
type Series struct {
	names     []string
	rows      [][]float64 // rows[i][j] = covariate j at time step i
	years     []int
	index     map[string]int
	marginals []Stats
}

// NewSeries builds a Series over the given covariate names from ordered
// samples, applying opts transforms. Every sample must carry a value
// for every name.
func NewSeries(names []string, samples []Sample, opts SeriesOptions) (*Series, error) {
	if len(samples) == 0 {
		return nil, ErrEmptySeries
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no covariate names", ErrUnknownCovariate)
	}

	rows := make([][]float64, len(samples))
	years := make([]int, len(samples))
	for i, s := range samples {
		rows[i] = make([]float64, len(names))
		years[i] = s.Year
		for j, name := range names {
			v, ok := s.Values[name]
			if !ok {
				return nil, fmt.Errorf("%w: sample %d lacks %q", ErrMissingValue, i, name)
			}
			rows[i][j] = v
		}
	}

	// Lag-1 covariates become ordinary columns; the series shortens by
	// one row so every row stays complete.
	names = append([]string(nil), names...)
	if len(opts.Lag1) > 0 {
		if len(rows) < 2 {
			return nil, ErrEmptySeries
		}
		base := make(map[string]int, len(names))
		for j, n := range names {
			base[n] = j
		}
		for _, lagName := range opts.Lag1 {
			j, ok := base[lagName]
			if !ok {
				return nil, fmt.Errorf("%w: %q (lag1)", ErrUnknownCovariate, lagName)
			}
			names = append(names, lagName+".lag1")
			for i := range rows {
				var prev float64
				if i > 0 {
					prev = rows[i-1][j]
				}
				rows[i] = append(rows[i], prev)
			}
		}
		rows = rows[1:]
		years = years[1:]
	}

	if opts.Detrend {
		detrendColumns(rows)
	}
	if opts.Standardize {
		standardizeColumns(rows)
	}

	s := &Series{
		names: names,
		rows:  rows,
		years: years,
		index: make(map[string]int, len(names)),
	}
	for j, n := range names {
		s.index[n] = j
	}
	s.marginals = make([]Stats, len(names))
	for j := range names {
		s.marginals[j] = columnStats(rows, j)
	}

	return s, nil
}

// Names returns the covariate names in column order (lag columns last).
func (s *Series) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)

	return out
}

// Len returns the number of time steps.
func (s *Series) Len() int { return len(s.rows) }

// Value returns covariate name at time step i.
func (s *Series) Value(name string, i int) (float64, error) {
	j, ok := s.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCovariate, name)
	}
	if i < 0 || i >= len(s.rows) {
		return 0, fmt.Errorf("%w: step %d of %d", ErrEmptySeries, i, len(s.rows))
	}

	return s.rows[i][j], nil
}

// Sample returns the full covariate vector at time step i as a
// Combination (fresh map; mutating it does not touch the series).
func (s *Series) Sample(i int) (Combination, error) {
	if i < 0 || i >= len(s.rows) {
		return nil, fmt.Errorf("%w: step %d of %d", ErrEmptySeries, i, len(s.rows))
	}
	c := make(Combination, len(s.names))
	for j, n := range s.names {
		c[n] = s.rows[i][j]
	}

	return c, nil
}

// Marginal returns the summary statistics of one covariate, computed
// once at construction.
func (s *Series) Marginal(name string) (Stats, error) {
	j, ok := s.index[name]
	if !ok {
		return Stats{}, fmt.Errorf("%w: %q", ErrUnknownCovariate, name)
	}

	return s.marginals[j], nil
}

// Means returns a Combination holding every covariate at its marginal
// mean — the "all else held at mean" baseline.
func (s *Series) Means() Combination {
	c := make(Combination, len(s.names))
	for j, n := range s.names {
		c[n] = s.marginals[j].Mean
	}

	return c
}

// PairedAt returns the values of all covariates observed at the time
// step where name reached its historical extreme. Ties break to the
// first chronological occurrence. The anchor covariate itself is
// included at its extreme value, so the result is a complete
// combination reflecting natural covariation.
func (s *Series) PairedAt(name string, ext Extreme) (Combination, error) {
	j, ok := s.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCovariate, name)
	}
	i := s.marginals[j].MinIndex
	if ext == AtMax {
		i = s.marginals[j].MaxIndex
	}

	return s.Sample(i)
}

// detrendColumns removes a fitted linear trend per column, keeping the
// column mean so only the slope is taken out.
func detrendColumns(rows [][]float64) {
	if len(rows) < 2 {
		return
	}
	n := len(rows)
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = float64(i)
	}
	col := make([]float64, n)
	for j := range rows[0] {
		for i := range rows {
			col[i] = rows[i][j]
		}
		alpha, beta := stat.LinearRegression(ts, col, nil, false)
		mean := stat.Mean(col, nil)
		for i := range rows {
			rows[i][j] = col[i] - (alpha + beta*ts[i]) + mean
		}
	}
}

// standardizeColumns z-scores each column in place. A constant column
// (sd 0) is centered only.
func standardizeColumns(rows [][]float64) {
	if len(rows) == 0 {
		return
	}
	col := make([]float64, len(rows))
	for j := range rows[0] {
		for i := range rows {
			col[i] = rows[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		for i := range rows {
			if std > 0 {
				rows[i][j] = (col[i] - mean) / std
			} else {
				rows[i][j] = col[i] - mean
			}
		}
	}
}

func columnStats(rows [][]float64, j int) Stats {
	col := make([]float64, len(rows))
	for i := range rows {
		col[i] = rows[i][j]
	}
	mean, std := stat.MeanStdDev(col, nil)

	st := Stats{Min: col[0], Max: col[0], Mean: mean, Std: std}
	for i, v := range col {
		// Strict comparisons keep the first chronological occurrence on ties.
		if v < st.Min {
			st.Min, st.MinIndex = v, i
		}
		if v > st.Max {
			st.Max, st.MaxIndex = v, i
		}
	}

	return st
}

// sortedNames is a small helper shared by Grid and tests.
func sortedNames(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)

	return out
}
