package sensitivity

import "runtime"

// Covariation selects how the non-perturbed covariates are set during
// scaled-sensitivity evaluation.
type Covariation int

const (
	// HoldAtMean keeps other covariates at their marginal means
	// ("no covariation").
	HoldAtMean Covariation = iota

	// Paired sets other covariates to the values observed together with
	// the perturbed covariate's extremes ("with natural covariation").
	Paired
)

// String returns the canonical name of the mode.
func (c Covariation) String() string {
	if c == Paired {
		return "paired"
	}

	return "hold-at-mean"
}

// AllRates selects aggregate sensitivity: every vital rate depending on
// the perturbed covariate sees the perturbed value.
const AllRates = "all"

// Defaults. The equilibrium tolerance and perturbation fraction are
// conventions, not constants of nature; both are tunable per Options.
const (
	DefaultTolerance = 0.01
	DefaultFraction  = 0.10
)

// Options configures the engine.
//   - Tolerance: |lambda − 1| bound for near-equilibrium combinations.
//   - Fraction: perturbation size as a fraction of the covariate's
//     absolute baseline value.
//   - Workers: grid-scan worker-pool size; <= 0 means GOMAXPROCS.
//   - Covariation: mode for ScaledSensitivity baselines.
type Options struct {
	Tolerance   float64
	Fraction    float64
	Workers     int
	Covariation Covariation
}

// DefaultOptions returns production-safe defaults.
func DefaultOptions() Options {
	return Options{
		Tolerance:   DefaultTolerance,
		Fraction:    DefaultFraction,
		Workers:     runtime.GOMAXPROCS(0),
		Covariation: HoldAtMean,
	}
}

// normalize fills structural zero values. Fraction is left untouched:
// zero (a no-op perturbation) and negative (a decrease) are both
// meaningful inputs.
func (o *Options) normalize() {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
}
