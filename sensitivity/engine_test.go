package sensitivity_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecodyn/popmatrix/covariate"
	"github.com/ecodyn/popmatrix/lifecycle"
	"github.com/ecodyn/popmatrix/sensitivity"
	"github.com/ecodyn/popmatrix/vitalrate"
)

// The test life cycle is a 2-stage loop [[0, f],[s, 0]] whose growth
// rate is sqrt(f·s): analytic, so engine outputs are checkable in
// closed form. survival is constant 0.5; fertility follows the prey
// covariate on the log link, so lambda = exp(0.25·prey) around
// equilibrium at prey = 0.
func testTopology() lifecycle.Topology {
	return lifecycle.Topology{
		Name:   "loop",
		Stages: 2,
		Cells: []lifecycle.Cell{
			{Row: 0, Col: 1, Terms: []lifecycle.Term{lifecycle.Prod(1, "fertility")}},
			{Row: 1, Col: 0, Terms: []lifecycle.Term{lifecycle.Prod(1, "survival")}},
		},
	}
}

func testModels() map[string]*vitalrate.Model {
	return map[string]*vitalrate.Model{
		"survival": {
			Name: "survival",
			Link: vitalrate.Logit,
			Coef: vitalrate.Coefficients{Intercept: 0}, // constant 0.5
		},
		"fertility": {
			Name: "fertility",
			Link: vitalrate.Log,
			Coef: vitalrate.Coefficients{
				Intercept: math.Ln2, // f = 2 at prey = 0
				Slopes:    map[string]float64{"prey": 0.5},
			},
		},
	}
}

// preySeries covaries prey and noise so HoldAtMean and Paired modes
// can disagree.
func preySeries(t *testing.T) *covariate.Series {
	t.Helper()
	samples := []covariate.Sample{
		{Year: 1, Values: map[string]float64{"prey": -1.0, "noise": 3.0}},
		{Year: 2, Values: map[string]float64{"prey": -0.5, "noise": 2.0}},
		{Year: 3, Values: map[string]float64{"prey": 0.0, "noise": 1.5}},
		{Year: 4, Values: map[string]float64{"prey": 0.5, "noise": 1.0}},
		{Year: 5, Values: map[string]float64{"prey": 1.0, "noise": 0.0}},
	}
	s, err := covariate.NewSeries([]string{"prey", "noise"}, samples, covariate.SeriesOptions{})
	require.NoError(t, err)

	return s
}

func newEngine(t *testing.T, opts sensitivity.Options) *sensitivity.Engine {
	t.Helper()
	e, err := sensitivity.NewEngine(
		testModels(), testTopology(), preySeries(t), vitalrate.Input{}, opts)
	require.NoError(t, err)

	return e
}

// TestNewEngine_MissingModel: topology coverage is validated up front.
func TestNewEngine_MissingModel(t *testing.T) {
	models := testModels()
	delete(models, "fertility")

	_, err := sensitivity.NewEngine(
		models, testTopology(), preySeries(t), vitalrate.Input{}, sensitivity.DefaultOptions())
	assert.ErrorIs(t, err, sensitivity.ErrMissingModel)
}

// TestLambda_ClosedForm checks the engine against sqrt(f·s).
func TestLambda_ClosedForm(t *testing.T) {
	e := newEngine(t, sensitivity.DefaultOptions())

	for _, prey := range []float64{-1, 0, 1} {
		lambda, err := e.Lambda(covariate.Combination{"prey": prey, "noise": 0})
		require.NoError(t, err)
		assert.InDelta(t, math.Exp(0.25*prey), lambda, 1e-9, "prey=%g", prey)
	}
}

// TestFindEquilibrium verifies spec scenario D: lambda sweeps
// continuously across 1 over the grid, so the near-equilibrium set is
// non-empty — and every kept combination is actually within tolerance.
func TestFindEquilibrium(t *testing.T) {
	e := newEngine(t, sensitivity.DefaultOptions())

	grid, err := preySeries(t).Grid(41, "prey")
	require.NoError(t, err)

	kept, failures, err := e.FindEquilibrium(grid)
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.NotEmpty(t, kept, "lambda crosses 1 on the grid")

	for _, comb := range kept {
		lambda, err := e.Lambda(comb)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, lambda, sensitivity.DefaultTolerance+1e-12)
	}

	// Grid order is preserved: prey values come out non-decreasing.
	for i := 1; i < len(kept); i++ {
		assert.GreaterOrEqual(t, kept[i]["prey"], kept[i-1]["prey"])
	}
}

// TestFindEquilibrium_EmptySet: a grid whose lambda never nears 1
// yields an empty set, not an error.
func TestFindEquilibrium_EmptySet(t *testing.T) {
	models := testModels()
	models["fertility"].Coef.Intercept = math.Log(10) // lambda >> 1 everywhere

	e, err := sensitivity.NewEngine(
		models, testTopology(), preySeries(t), vitalrate.Input{}, sensitivity.DefaultOptions())
	require.NoError(t, err)

	grid, err := preySeries(t).Grid(11, "prey")
	require.NoError(t, err)

	kept, failures, err := e.FindEquilibrium(grid)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Empty(t, kept)
}

// TestPerturb_ZeroFraction: fraction 0 must yield exactly zero delta.
func TestPerturb_ZeroFraction(t *testing.T) {
	opts := sensitivity.DefaultOptions()
	opts.Fraction = 0
	e := newEngine(t, opts)

	res, err := e.Perturb(covariate.Combination{"prey": 0.4, "noise": 1}, "prey", sensitivity.AllRates)
	require.NoError(t, err)
	assert.Zero(t, res.Delta)
	assert.Equal(t, res.LambdaControl, res.LambdaPerturbed)
}

// TestPerturb_StructuralZero: a rate with no coefficient on the
// perturbed covariate reports exactly 0 — a correctness property, not
// a numerical coincidence.
func TestPerturb_StructuralZero(t *testing.T) {
	e := newEngine(t, sensitivity.DefaultOptions())

	res, err := e.Perturb(covariate.Combination{"prey": 0.4, "noise": 1}, "noise", "survival")
	require.NoError(t, err)
	assert.Zero(t, res.Delta)

	res, err = e.Perturb(covariate.Combination{"prey": 0.4, "noise": 1}, "prey", "survival")
	require.NoError(t, err)
	assert.Zero(t, res.Delta, "survival carries no prey coefficient")
}

// TestPerturb_SingleRate: perturbing prey through fertility shifts
// lambda by the closed-form amount.
func TestPerturb_SingleRate(t *testing.T) {
	e := newEngine(t, sensitivity.DefaultOptions())

	base := covariate.Combination{"prey": 1.0, "noise": 0}
	res, err := e.Perturb(base, "prey", "fertility")
	require.NoError(t, err)

	// prey 1.0 → 1.1; lambda exp(0.25·prey).
	wantControl := math.Exp(0.25)
	wantPerturbed := math.Exp(0.25 * 1.1)
	assert.InDelta(t, wantControl, res.LambdaControl, 1e-9)
	assert.InDelta(t, wantPerturbed, res.LambdaPerturbed, 1e-9)
	assert.InDelta(t, (wantPerturbed-wantControl)/wantControl, res.Delta, 1e-9)
	assert.Greater(t, res.Delta, 0.0, "positive coefficient, positive delta")

	// Baseline is not mutated by the perturbation.
	assert.InDelta(t, 1.0, base["prey"], 1e-12)
}

// TestPerturb_AggregateMatchesSingle: with fertility the only
// prey-dependent rate, aggregate and single-rate sensitivity agree.
func TestPerturb_AggregateMatchesSingle(t *testing.T) {
	e := newEngine(t, sensitivity.DefaultOptions())

	base := covariate.Combination{"prey": 0.5, "noise": 1}
	single, err := e.Perturb(base, "prey", "fertility")
	require.NoError(t, err)
	agg, err := e.Perturb(base, "prey", sensitivity.AllRates)
	require.NoError(t, err)

	assert.InDelta(t, single.Delta, agg.Delta, 1e-12)
}

// TestPerturb_UnknownRate: selectors outside the model set are errors.
func TestPerturb_UnknownRate(t *testing.T) {
	e := newEngine(t, sensitivity.DefaultOptions())

	_, err := e.Perturb(covariate.Combination{"prey": 0, "noise": 0}, "prey", "metabolism")
	assert.ErrorIs(t, err, sensitivity.ErrUnknownRate)
}

// TestScaledSensitivity_HoldAtMean checks the Morris-style measure in
// closed form: prey spans [-1,1], lambda exp(±0.25).
func TestScaledSensitivity_HoldAtMean(t *testing.T) {
	e := newEngine(t, sensitivity.DefaultOptions())

	res, err := e.ScaledSensitivity("prey", sensitivity.AllRates)
	require.NoError(t, err)

	st, err := preySeries(t).Marginal("prey")
	require.NoError(t, err)

	want := math.Abs(math.Exp(0.25)-math.Exp(-0.25)) / ((st.Max - st.Min) / st.Std)
	assert.InDelta(t, want, res.Delta, 1e-9)
	assert.Greater(t, res.Delta, 0.0)
}

// TestScaledSensitivity_ZeroDependence: survival has no prey
// coefficient, so its scaled sensitivity under HoldAtMean is exactly 0.
func TestScaledSensitivity_ZeroDependence(t *testing.T) {
	e := newEngine(t, sensitivity.DefaultOptions())

	res, err := e.ScaledSensitivity("prey", "survival")
	require.NoError(t, err)
	assert.Zero(t, res.Delta)
}

// TestScaledSensitivity_CovariationModes: Paired anchors the other
// covariates to empirically co-occurring values; with a covarying
// series the two modes answer differently for rates that depend on the
// co-varying covariate.
func TestScaledSensitivity_CovariationModes(t *testing.T) {
	// Make fertility depend on noise as well, so pairing matters. The
	// series has noise falling as prey rises, so a positive noise slope
	// works against the prey effect under natural covariation.
	models := testModels()
	models["fertility"].Coef.Slopes["noise"] = 0.3

	mean := sensitivity.DefaultOptions()
	mean.Covariation = sensitivity.HoldAtMean
	eMean, err := sensitivity.NewEngine(models, testTopology(), preySeries(t), vitalrate.Input{}, mean)
	require.NoError(t, err)

	paired := sensitivity.DefaultOptions()
	paired.Covariation = sensitivity.Paired
	ePaired, err := sensitivity.NewEngine(models, testTopology(), preySeries(t), vitalrate.Input{}, paired)
	require.NoError(t, err)

	rMean, err := eMean.ScaledSensitivity("prey", sensitivity.AllRates)
	require.NoError(t, err)
	rPaired, err := ePaired.ScaledSensitivity("prey", sensitivity.AllRates)
	require.NoError(t, err)

	assert.Greater(t, math.Abs(rMean.Delta-rPaired.Delta), 1e-6,
		"covariation mode must change the answer for a covarying series")
	assert.Less(t, rPaired.Delta, rMean.Delta,
		"natural covariation dampens single-covariate sensitivity here")
}

// TestSweep: partial results with deterministic ordering, failures
// isolated rather than aborting.
func TestSweep(t *testing.T) {
	e := newEngine(t, sensitivity.DefaultOptions())

	baselines := []covariate.Combination{
		{"prey": 0, "noise": 1},
		{"prey": 0.2, "noise": 1},
	}
	results, failures, err := e.Sweep(baselines, []string{"prey", "noise"})
	require.NoError(t, err)
	assert.Empty(t, failures)

	// 2 baselines × 2 covariates × (2 rates + aggregate).
	assert.Len(t, results, 12)
	assert.Equal(t, "fertility", results[0].Rate)
	assert.Equal(t, "survival", results[1].Rate)
	assert.Equal(t, sensitivity.AllRates, results[2].Rate)
	assert.Equal(t, "noise", results[0].Covariate, "covariates in sorted order")
	assert.Equal(t, "prey", results[3].Covariate, "noise block before prey block")
}
