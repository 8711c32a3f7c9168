package simulate_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/exp/rand"

	"github.com/ecodyn/popmatrix/covariate"
	"github.com/ecodyn/popmatrix/lifecycle"
	"github.com/ecodyn/popmatrix/simulate"
	"github.com/ecodyn/popmatrix/vitalrate"
)

// loopTopology mirrors the sensitivity test setup: 2-stage loop with
// lambda = sqrt(f·s).
func loopTopology() lifecycle.Topology {
	return lifecycle.Topology{
		Name:   "loop",
		Stages: 2,
		Cells: []lifecycle.Cell{
			{Row: 0, Col: 1, Terms: []lifecycle.Term{lifecycle.Prod(1, "fertility")}},
			{Row: 1, Col: 0, Terms: []lifecycle.Term{lifecycle.Prod(1, "survival")}},
		},
	}
}

func loopModels() map[string]*vitalrate.Model {
	return map[string]*vitalrate.Model{
		"survival": {
			Name: "survival",
			Link: vitalrate.Logit,
			Coef: vitalrate.Coefficients{Intercept: 0},
		},
		"fertility": {
			Name: "fertility",
			Link: vitalrate.Log,
			Coef: vitalrate.Coefficients{
				Intercept: math.Ln2,
				Slopes:    map[string]float64{"prey": 0.5},
			},
		},
	}
}

func flatSeries(t *testing.T, n int) *covariate.Series {
	t.Helper()
	samples := make([]covariate.Sample, n)
	for i := range samples {
		samples[i] = covariate.Sample{Year: 2000 + i, Values: map[string]float64{"prey": 0}}
	}
	s, err := covariate.NewSeries([]string{"prey"}, samples, covariate.SeriesOptions{})
	require.NoError(t, err)

	return s
}

// TestProject_Deterministic: prey 0 gives f=2, s=0.5 — the loop cycles
// with period 2 and total population alternates accordingly.
func TestProject_Deterministic(t *testing.T) {
	cfg := simulate.Config{Models: loopModels(), Topology: loopTopology()}

	traj, err := simulate.Project(cfg, flatSeries(t, 4), []float64{10, 0}, 4, nil)
	require.NoError(t, err)
	require.Len(t, traj.Stages, 5)
	require.Len(t, traj.Growth, 4)

	// (10,0) → (0,5) → (10,0) → (0,5) → (10,0)
	assert.InDelta(t, 5.0, traj.Total[1], 1e-12)
	assert.InDelta(t, 10.0, traj.Total[2], 1e-12)
	assert.InDelta(t, 0.5, traj.Growth[0], 1e-12)
	assert.InDelta(t, 2.0, traj.Growth[1], 1e-12)
	assert.InDelta(t, 10.0, traj.Stages[2][0], 1e-12)
}

// TestProject_ImmigrationConstant: a zero-variance immigration term is
// a plain additive constant on the configured stage.
func TestProject_ImmigrationConstant(t *testing.T) {
	cfg := simulate.Config{
		Models:      loopModels(),
		Topology:    loopTopology(),
		Immigration: &simulate.Immigration{Mean: 3, Std: 0, Stage: 0},
	}

	traj, err := simulate.Project(cfg, flatSeries(t, 2), []float64{10, 0}, 2, nil)
	require.NoError(t, err)

	// Year 1: A·(10,0) = (0,5), plus 3 immigrants in stage 0.
	assert.InDelta(t, 3.0, traj.Stages[1][0], 1e-12)
	assert.InDelta(t, 5.0, traj.Stages[1][1], 1e-12)
}

// TestProject_ImmigrationTruncation: with a heavily negative mean,
// ClampZero adds nothing and never subtracts.
func TestProject_ImmigrationTruncation(t *testing.T) {
	cfg := simulate.Config{
		Models:   loopModels(),
		Topology: loopTopology(),
		Immigration: &simulate.Immigration{
			Mean: -100, Std: 1, Stage: 0, Policy: simulate.ClampZero,
		},
	}

	traj, err := simulate.Project(cfg, flatSeries(t, 3), []float64{10, 0}, 3, rand.NewSource(1))
	require.NoError(t, err)
	for _, stages := range traj.Stages {
		for _, v := range stages {
			assert.GreaterOrEqual(t, v, 0.0, "immigration never drives a stage negative")
		}
	}

	// Resample with an all-but-surely-negative distribution also ends
	// at the clamp rather than looping forever.
	cfg.Immigration.Policy = simulate.Resample
	_, err = simulate.Project(cfg, flatSeries(t, 3), []float64{10, 0}, 3, rand.NewSource(1))
	require.NoError(t, err)
}

// TestProject_ImmigrationResample: a near-zero-mean draw resamples to a
// non-negative count.
func TestProject_ImmigrationResample(t *testing.T) {
	cfg := simulate.Config{
		Models:   loopModels(),
		Topology: loopTopology(),
		Immigration: &simulate.Immigration{
			Mean: 0, Std: 5, Stage: 0, Policy: simulate.Resample,
		},
	}

	traj, err := simulate.Project(cfg, flatSeries(t, 10), []float64{10, 0}, 10, rand.NewSource(7))
	require.NoError(t, err)
	for t1, stages := range traj.Stages {
		assert.GreaterOrEqual(t, stages[0], 0.0, "year %d", t1)
	}
}

// TestProject_YearEffect: with a year effect the trajectory varies
// around the deterministic one, and the same seed reproduces it.
func TestProject_YearEffect(t *testing.T) {
	cfg := simulate.Config{
		Models:        loopModels(),
		Topology:      loopTopology(),
		YearEffectStd: 0.2,
	}

	a, err := simulate.Project(cfg, flatSeries(t, 5), []float64{10, 5}, 5, rand.NewSource(42))
	require.NoError(t, err)
	b, err := simulate.Project(cfg, flatSeries(t, 5), []float64{10, 5}, 5, rand.NewSource(42))
	require.NoError(t, err)
	assert.Equal(t, a.Total, b.Total, "same source, same trajectory")

	det, err := simulate.Project(simulate.Config{Models: loopModels(), Topology: loopTopology()},
		flatSeries(t, 5), []float64{10, 5}, 5, nil)
	require.NoError(t, err)
	assert.NotEqual(t, det.Total, a.Total, "year effect perturbs the path")
}

// TestProject_ConfigErrors covers the ErrBadConfig/ErrShortSeries
// surface.
func TestProject_ConfigErrors(t *testing.T) {
	cfg := simulate.Config{Models: loopModels(), Topology: loopTopology()}

	_, err := simulate.Project(cfg, flatSeries(t, 3), []float64{1}, 3, nil)
	assert.ErrorIs(t, err, simulate.ErrBadConfig, "wrong start length")

	_, err = simulate.Project(cfg, flatSeries(t, 3), []float64{1, 1}, 0, nil)
	assert.ErrorIs(t, err, simulate.ErrBadConfig, "non-positive horizon")

	_, err = simulate.Project(cfg, flatSeries(t, 2), []float64{1, 1}, 5, nil)
	assert.ErrorIs(t, err, simulate.ErrShortSeries)

	missing := simulate.Config{
		Models:   map[string]*vitalrate.Model{"survival": loopModels()["survival"]},
		Topology: loopTopology(),
	}
	_, err = simulate.Project(missing, flatSeries(t, 3), []float64{1, 1}, 3, nil)
	assert.ErrorIs(t, err, simulate.ErrBadConfig, "missing model")

	stoch := simulate.Config{Models: loopModels(), Topology: loopTopology(), YearEffectStd: 0.1}
	_, err = simulate.Project(stoch, flatSeries(t, 3), []float64{1, 1}, 3, nil)
	assert.ErrorIs(t, err, simulate.ErrBadConfig, "stochastic terms need a source")

	badStage := simulate.Config{
		Models:      loopModels(),
		Topology:    loopTopology(),
		Immigration: &simulate.Immigration{Mean: 1, Stage: 5},
	}
	_, err = simulate.Project(badStage, flatSeries(t, 3), []float64{1, 1}, 3, nil)
	assert.ErrorIs(t, err, simulate.ErrBadConfig, "immigration stage out of range")
}
