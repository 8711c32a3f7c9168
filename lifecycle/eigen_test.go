package lifecycle_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecodyn/popmatrix/lifecycle"
)

// assembleRaw builds a matrix directly from per-cell constants, which
// keeps eigen tests independent of any concrete life cycle.
func assembleRaw(t *testing.T, n int, entries map[[2]int]float64) *lifecycle.Matrix {
	t.Helper()

	topo := lifecycle.Topology{Name: "raw", Stages: n}
	rates := lifecycle.Rates{}
	i := 0
	for pos, v := range entries {
		name := string(rune('a' + i))
		rates[name] = v
		topo.Cells = append(topo.Cells, lifecycle.Cell{
			Row: pos[0], Col: pos[1],
			Terms: []lifecycle.Term{lifecycle.Prod(1, name)},
		})
		i++
	}
	m, err := lifecycle.Assemble(topo, rates)
	require.NoError(t, err)

	return m
}

// TestGrowthRate_SingleStage: a 1x1 matrix with self-loop r has lambda = r.
func TestGrowthRate_SingleStage(t *testing.T) {
	m := assembleRaw(t, 1, map[[2]int]float64{{0, 0}: 0.85})

	lambda, err := m.GrowthRate()
	require.NoError(t, err)
	assert.InDelta(t, 0.85, lambda, 1e-12)
}

// TestGrowthRate_PeriodicScenario verifies spec scenario B: the 2-stage
// matrix [[0,2],[0.5,0]] has eigenvalues ±1 and dominant lambda 1.
func TestGrowthRate_PeriodicScenario(t *testing.T) {
	m := assembleRaw(t, 2, map[[2]int]float64{{0, 1}: 2, {1, 0}: 0.5})

	lambda, err := m.GrowthRate()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, lambda, 1e-9)
}

// TestGrowthRate_Leslie verifies lambda against the characteristic
// polynomial of a 2x2 Leslie matrix [[1,2],[0.5,0]]: λ²−λ−1 = 0, the
// golden ratio.
func TestGrowthRate_Leslie(t *testing.T) {
	m := assembleRaw(t, 2, map[[2]int]float64{{0, 0}: 1, {0, 1}: 2, {1, 0}: 0.5})

	lambda, err := m.GrowthRate()
	require.NoError(t, err)

	phi := (1 + math.Sqrt(5)) / 2
	assert.InDelta(t, phi, lambda, 1e-9)
}

// TestGrowthRate_NonErgodic: a reducible matrix with two independent
// blocks sharing the dominant eigenvalue has no unique dominant root.
func TestGrowthRate_NonErgodic(t *testing.T) {
	m := assembleRaw(t, 2, map[[2]int]float64{{0, 0}: 1, {1, 1}: 1})

	_, err := m.GrowthRate()
	assert.ErrorIs(t, err, lifecycle.ErrNonErgodic)
}

// TestStableDistribution_Leslie checks the right eigenvector of the
// golden-ratio Leslie matrix: v ∝ (2φ, 1).
func TestStableDistribution_Leslie(t *testing.T) {
	m := assembleRaw(t, 2, map[[2]int]float64{{0, 0}: 1, {0, 1}: 2, {1, 0}: 0.5})

	v, err := m.StableDistribution()
	require.NoError(t, err)
	require.Len(t, v, 2)

	phi := (1 + math.Sqrt(5)) / 2
	w := []float64{2 * phi, 1}
	total := w[0] + w[1]
	assert.InDelta(t, w[0]/total, v[0], 1e-9)
	assert.InDelta(t, w[1]/total, v[1], 1e-9)
	assert.InDelta(t, 1.0, v[0]+v[1], 1e-12, "normalized to sum 1")
}

// TestReproductiveValue_Leslie checks the left eigenvector:
// u ∝ (1, 2(φ−1)).
func TestReproductiveValue_Leslie(t *testing.T) {
	m := assembleRaw(t, 2, map[[2]int]float64{{0, 0}: 1, {0, 1}: 2, {1, 0}: 0.5})

	u, err := m.ReproductiveValue()
	require.NoError(t, err)
	require.Len(t, u, 2)

	phi := (1 + math.Sqrt(5)) / 2
	w := []float64{1, 2 * (phi - 1)}
	total := w[0] + w[1]
	assert.InDelta(t, w[0]/total, u[0], 1e-9)
	assert.InDelta(t, w[1]/total, u[1], 1e-9)
}

// TestTransientGrowth: one-step observed ratio for an arbitrary stage
// vector, distinct from the asymptotic rate.
func TestTransientGrowth(t *testing.T) {
	m := assembleRaw(t, 2, map[[2]int]float64{{0, 0}: 1, {0, 1}: 2, {1, 0}: 0.5})

	// n = (1, 1): A·n = (3, 0.5), ratio 3.5/2.
	got, err := m.TransientGrowth([]float64{1, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.75, got, 1e-12)

	_, err = m.TransientGrowth([]float64{1, 2, 3})
	assert.ErrorIs(t, err, lifecycle.ErrDimensionMismatch)

	_, err = m.TransientGrowth([]float64{0, 0})
	assert.ErrorIs(t, err, lifecycle.ErrZeroVector)
}

// TestGrowthRate_AgeStructured sanity-checks the full 5-stage life
// cycle: the scenario-A rates sit near demographic equilibrium
// (lifetime reproduction R0 ≈ 0.98), and the stable stage distribution
// is a proper probability vector.
func TestGrowthRate_AgeStructured(t *testing.T) {
	m, err := lifecycle.Assemble(lifecycle.AgeStructuredFemale(), ageStructuredRates())
	require.NoError(t, err)

	lambda, err := m.GrowthRate()
	require.NoError(t, err)
	assert.Greater(t, lambda, 0.9)
	assert.Less(t, lambda, 1.05)

	v, err := m.StableDistribution()
	require.NoError(t, err)
	var sum float64
	for _, x := range v {
		assert.GreaterOrEqual(t, x, 0.0)
		sum += x
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}
