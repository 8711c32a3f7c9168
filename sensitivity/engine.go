package sensitivity

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ecodyn/popmatrix/covariate"
	"github.com/ecodyn/popmatrix/lifecycle"
	"github.com/ecodyn/popmatrix/vitalrate"
)

var (
	// ErrMissingModel indicates the topology references a vital rate for
	// which no model was supplied.
	ErrMissingModel = errors.New("sensitivity: no model for topology rate")

	// ErrUnknownRate indicates a perturbation selector naming a rate the
	// engine does not carry (and which is not AllRates).
	ErrUnknownRate = errors.New("sensitivity: unknown vital rate selector")
)

// Result is one sensitivity record: which covariate was perturbed, for
// which vital rate (or AllRates), under which covariation mode, from
// which baseline, and the resulting change in lambda.
type Result struct {
	Covariate   string
	Rate        string
	Covariation Covariation
	Baseline    covariate.Combination

	LambdaControl   float64
	LambdaPerturbed float64

	// Delta is the relative change (λp − λc)/λc for Perturb, or the
	// Morris-scaled |Δλ| per covariate standard deviation for
	// ScaledSensitivity.
	Delta float64
}

// Failure records one covariate combination whose evaluation failed
// (typically ErrNonErgodic). Batch operations collect failures and
// continue; the run result is partial, never aborted.
type Failure struct {
	Index       int
	Combination covariate.Combination
	Err         error
}

// Engine orchestrates the perturbation protocol over one species setup:
// a model per vital-rate name, a life-cycle topology, and the covariate
// series. All inputs are read-only; the engine is safe for concurrent
// use.
type Engine struct {
	models map[string]*vitalrate.Model
	topo   lifecycle.Topology
	series *covariate.Series
	input  vitalrate.Input
	opts   Options
}

// NewEngine validates model coverage against the topology and returns a
// ready engine. The input carries fixed per-run selectors (class labels
// are per-rate concerns resolved by the models; period/year apply to
// every prediction of the run).
func NewEngine(
	models map[string]*vitalrate.Model,
	topo lifecycle.Topology,
	series *covariate.Series,
	input vitalrate.Input,
	opts Options,
) (*Engine, error) {
	if err := topo.Validate(); err != nil {
		return nil, err
	}
	opts.normalize()

	for _, name := range topo.RateNames() {
		if _, ok := models[name]; !ok {
			return nil, fmt.Errorf("%w: %q (topology %q)", ErrMissingModel, name, topo.Name)
		}
	}

	// Private copy so later map mutation by the caller cannot reach in.
	owned := make(map[string]*vitalrate.Model, len(models))
	for k, v := range models {
		owned[k] = v
	}

	return &Engine{models: owned, topo: topo, series: series, input: input, opts: opts}, nil
}

// Lambda predicts all vital rates at the combination, assembles the
// projection matrix and returns its dominant eigenvalue.
func (e *Engine) Lambda(comb covariate.Combination) (float64, error) {
	m, err := e.assembleSplit(comb, nil, nil)
	if err != nil {
		return 0, err
	}

	return m.GrowthRate()
}

// FindEquilibrium evaluates lambda at every grid combination and
// returns those with |lambda − 1| <= Tolerance, in grid order.
// Evaluation runs on a worker pool; each result and failure is tagged
// by its grid index so result-to-input correspondence is never
// ambiguous. An empty slice with no failures means the grid simply
// contains no near-equilibrium dynamics — a reportable outcome, not an
// error.
func (e *Engine) FindEquilibrium(grid *covariate.Grid) ([]covariate.Combination, []Failure, error) {
	grid.Reset()

	type job struct {
		idx  int
		comb covariate.Combination
	}
	type outcome struct {
		idx    int
		comb   covariate.Combination
		lambda float64
		err    error
	}

	jobs := make(chan job)
	outcomes := make([]outcome, grid.Len())

	var wg sync.WaitGroup
	for w := 0; w < e.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				lambda, err := e.Lambda(j.comb)
				outcomes[j.idx] = outcome{idx: j.idx, comb: j.comb, lambda: lambda, err: err}
			}
		}()
	}

	n := 0
	for comb, ok := grid.Next(); ok; comb, ok = grid.Next() {
		jobs <- job{idx: n, comb: comb}
		n++
	}
	close(jobs)
	wg.Wait()

	var kept []covariate.Combination
	var failures []Failure
	for _, out := range outcomes[:n] {
		if out.err != nil {
			failures = append(failures, Failure{Index: out.idx, Combination: out.comb, Err: out.err})
			continue
		}
		if diff := out.lambda - 1; diff <= e.opts.Tolerance && diff >= -e.opts.Tolerance {
			kept = append(kept, out.comb)
		}
	}

	return kept, failures, nil
}

// Perturb increases the named covariate by Fraction·|value| at the
// baseline, applies the perturbed value to the selected vital rate
// (or to all rates for AllRates), and reports the relative change in
// lambda against the unperturbed control.
//
// A selected rate with no structural dependence on the covariate
// reports Delta exactly 0 without touching the eigensolver.
func (e *Engine) Perturb(baseline covariate.Combination, covName, rateSelector string) (Result, error) {
	res := Result{
		Covariate:   covName,
		Rate:        rateSelector,
		Covariation: e.opts.Covariation,
		Baseline:    baseline.Clone(),
	}

	if rateSelector != AllRates {
		model, ok := e.models[rateSelector]
		if !ok {
			return Result{}, fmt.Errorf("%w: %q", ErrUnknownRate, rateSelector)
		}
		if !model.DependsOn(covName) {
			// Structural independence: exactly zero, not numerically small.
			control, err := e.Lambda(baseline)
			if err != nil {
				return Result{}, err
			}
			res.LambdaControl = control
			res.LambdaPerturbed = control
			res.Delta = 0
			return res, nil
		}
	}

	control, err := e.Lambda(baseline)
	if err != nil {
		return Result{}, err
	}

	v := baseline[covName]
	perturbed := baseline.With(covName, v+e.opts.Fraction*abs(v))

	var only map[string]bool
	if rateSelector != AllRates {
		only = map[string]bool{rateSelector: true}
	}
	m, err := e.assembleSplit(baseline, perturbed, only)
	if err != nil {
		return Result{}, err
	}
	lp, err := m.GrowthRate()
	if err != nil {
		return Result{}, err
	}

	res.LambdaControl = control
	res.LambdaPerturbed = lp
	res.Delta = (lp - control) / control

	return res, nil
}

// ScaledSensitivity is the Morris-style scaled measure: lambda is
// evaluated with the covariate at its historical min and max, and the
// absolute change is divided by the covariate range expressed in
// standard deviations. Other covariates follow the covariation mode:
// marginal means (HoldAtMean) or the empirically co-occurring values
// (Paired).
func (e *Engine) ScaledSensitivity(covName, rateSelector string) (Result, error) {
	res := Result{
		Covariate:   covName,
		Rate:        rateSelector,
		Covariation: e.opts.Covariation,
	}

	st, err := e.series.Marginal(covName)
	if err != nil {
		return Result{}, err
	}

	var atMin, atMax covariate.Combination
	switch e.opts.Covariation {
	case Paired:
		if atMin, err = e.series.PairedAt(covName, covariate.AtMin); err != nil {
			return Result{}, err
		}
		if atMax, err = e.series.PairedAt(covName, covariate.AtMax); err != nil {
			return Result{}, err
		}
	default:
		means := e.series.Means()
		atMin = means.With(covName, st.Min)
		atMax = means.With(covName, st.Max)
	}
	res.Baseline = atMin.Clone()

	if rateSelector != AllRates {
		model, ok := e.models[rateSelector]
		if !ok {
			return Result{}, fmt.Errorf("%w: %q", ErrUnknownRate, rateSelector)
		}
		if !model.DependsOn(covName) && e.opts.Covariation == HoldAtMean {
			lambda, err := e.Lambda(atMin)
			if err != nil {
				return Result{}, err
			}
			res.LambdaControl = lambda
			res.LambdaPerturbed = lambda
			res.Delta = 0
			return res, nil
		}
	}

	// Non-selected rates stay at the min-anchored side, so only the
	// selected rate (or, for AllRates, every rate) sees the max side.
	var only map[string]bool
	if rateSelector != AllRates {
		only = map[string]bool{rateSelector: true}
	}

	lMin, err := e.Lambda(atMin)
	if err != nil {
		return Result{}, err
	}
	m, err := e.assembleSplit(atMin, atMax, only)
	if err != nil {
		return Result{}, err
	}
	lMax, err := m.GrowthRate()
	if err != nil {
		return Result{}, err
	}

	res.LambdaControl = lMin
	res.LambdaPerturbed = lMax

	span := st.Max - st.Min
	if span == 0 || st.Std == 0 {
		res.Delta = 0
		return res, nil
	}
	res.Delta = abs(lMax-lMin) / (span / st.Std)

	return res, nil
}

// Sweep runs Perturb for every covariate × (each single rate + the
// aggregate) over every baseline, isolating per-evaluation failures.
// Results keep a deterministic order: baseline, then covariate name,
// then rate name with AllRates last.
func (e *Engine) Sweep(baselines []covariate.Combination, covNames []string) ([]Result, []Failure, error) {
	rateNames := e.topo.RateNames()

	var results []Result
	var failures []Failure
	idx := 0
	for _, baseline := range baselines {
		for _, cov := range sortedStrings(covNames) {
			for _, rate := range append(append([]string{}, rateNames...), AllRates) {
				r, err := e.Perturb(baseline, cov, rate)
				if err != nil {
					failures = append(failures, Failure{Index: idx, Combination: baseline.Clone(), Err: err})
				} else {
					results = append(results, r)
				}
				idx++
			}
		}
	}

	return results, failures, nil
}

// assembleSplit builds the matrix with selected rates seeing the alt
// combination and the rest seeing base. alt == nil means all rates use
// base; only == nil with non-nil alt means all rates use alt.
func (e *Engine) assembleSplit(base, alt covariate.Combination, only map[string]bool) (*lifecycle.Matrix, error) {
	rates := make(lifecycle.Rates, len(e.models))
	for _, name := range e.topo.RateNames() {
		covs := vitalrate.Covariates(base)
		if alt != nil && (only == nil || only[name]) {
			covs = vitalrate.Covariates(alt)
		}
		v, err := e.models[name].Predict(covs, e.input)
		if err != nil {
			return nil, err
		}
		rates[name] = v
	}

	return lifecycle.Assemble(e.topo, rates)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}

	return x
}

func sortedStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)

	return out
}
