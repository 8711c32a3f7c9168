package lifecycle

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a square non-negative population projection matrix of
// dimension = stage count. It is built fresh for every rate set and
// never mutated afterwards.
type Matrix struct {
	n int
	a *mat.Dense
}

// Dim returns the matrix dimension (number of stages).
func (m *Matrix) Dim() int { return m.n }

// At returns the entry at (i, j). Panics on out-of-range indices, as
// gonum does; projection matrices are small and indices come from
// topology cells already validated.
func (m *Matrix) At(i, j int) float64 { return m.a.At(i, j) }

// Dense exposes the underlying gonum matrix for read-only use
// (multiplication, export). Callers must not mutate it.
func (m *Matrix) Dense() *mat.Dense { return m.a }

// Assemble places each cell formula's value into its structurally fixed
// position and leaves every other entry exactly zero. Identical inputs
// produce bit-identical matrices: term evaluation order follows the
// topology's cell order, and rates are read, never written.
//
// Errors:
//   - ErrMalformedTopology — inconsistent topology (see Topology.Validate).
//   - ErrMissingRate — a formula references a rate absent from rates.
func Assemble(topo Topology, rates Rates) (*Matrix, error) {
	if err := topo.Validate(); err != nil {
		return nil, err
	}

	a := mat.NewDense(topo.Stages, topo.Stages, nil)
	for _, c := range topo.Cells {
		v, err := evalCell(topo.Name, c, rates)
		if err != nil {
			return nil, err
		}
		// Cells targeting the same position accumulate.
		a.Set(c.Row, c.Col, a.At(c.Row, c.Col)+v)
	}

	return &Matrix{n: topo.Stages, a: a}, nil
}

// ValidateRates flags vital rates outside their natural domain before
// assembly: probabilities outside [0,1] (rates whose name does not mark
// them as counts) and negative count rates. Returned as warning strings
// rather than errors — upstream model extrapolation can legitimately
// touch the boundaries, and the caller decides whether to proceed.
func ValidateRates(topo Topology, rates Rates) []string {
	var warnings []string
	for _, name := range topo.RateNames() {
		v, ok := rates[name]
		if !ok {
			continue // Assemble reports this as ErrMissingRate
		}
		if isCountRate(name) {
			if v < 0 {
				warnings = append(warnings,
					fmt.Sprintf("rate %q = %g is negative", name, v))
			}
			continue
		}
		if v < 0 || v > 1 {
			warnings = append(warnings,
				fmt.Sprintf("probability %q = %g outside [0,1]", name, v))
		}
	}

	return warnings
}

// isCountRate reports whether a rate name denotes a non-negative count
// (litter/clutch size style) rather than a probability.
func isCountRate(name string) bool {
	return strings.Contains(name, "litter") ||
		strings.Contains(name, "fecundity") ||
		strings.Contains(name, "clutch")
}

func evalCell(topoName string, c Cell, rates Rates) (float64, error) {
	var sum float64
	for _, term := range c.Terms {
		v := term.Const
		if v == 0 && (len(term.Rates) > 0 || len(term.Complements) > 0) {
			v = 1
		}
		for _, name := range term.Rates {
			r, ok := rates[name]
			if !ok {
				return 0, fmt.Errorf("%w: topology %q: rate %q at cell (%d,%d)",
					ErrMissingRate, topoName, name, c.Row, c.Col)
			}
			v *= r
		}
		for _, name := range term.Complements {
			r, ok := rates[name]
			if !ok {
				return 0, fmt.Errorf("%w: topology %q: rate %q at cell (%d,%d)",
					ErrMissingRate, topoName, name, c.Row, c.Col)
			}
			v *= 1 - r
		}
		sum += v
	}

	return sum, nil
}
