package simulate

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ecodyn/popmatrix/covariate"
	"github.com/ecodyn/popmatrix/lifecycle"
	"github.com/ecodyn/popmatrix/vitalrate"
)

var (
	// ErrBadConfig indicates an inconsistent projection setup: missing
	// models, a start vector of the wrong length, or a non-positive
	// horizon.
	ErrBadConfig = errors.New("simulate: invalid projection configuration")

	// ErrShortSeries indicates fewer covariate samples than projected
	// years.
	ErrShortSeries = errors.New("simulate: covariate series shorter than horizon")
)

// TruncationPolicy selects what happens to a negative immigration draw.
type TruncationPolicy int

const (
	// ClampZero truncates negative draws to zero.
	ClampZero TruncationPolicy = iota

	// Resample redraws until non-negative, up to resampleLimit tries,
	// then clamps. The bound keeps a pathological scale from looping
	// forever.
	Resample
)

const resampleLimit = 100

// Immigration configures the additive post-multiplication term.
type Immigration struct {
	// Mean and Std parameterize the normal draw of immigrant count per
	// year.
	Mean, Std float64

	// Stage receives the immigrants (index into the stage vector).
	Stage int

	Policy TruncationPolicy
}

// Config is the immutable projection setup.
type Config struct {
	Models   map[string]*vitalrate.Model
	Topology lifecycle.Topology

	// Input carries fixed prediction selectors (period, year base).
	Input vitalrate.Input

	// YearEffectStd, when positive, draws one shared normal year effect
	// per projected year and applies it to every rate on the link scale.
	YearEffectStd float64

	// Immigration, when non-nil, adds immigrants after each matrix
	// multiplication.
	Immigration *Immigration
}

// Trajectory is one projected population path.
type Trajectory struct {
	// Stages[t] is the stage vector after t years; Stages[0] is the
	// start vector.
	Stages [][]float64

	// Total[t] is the summed stage vector at year t.
	Total []float64

	// Growth[t] is the realized one-year ratio Total[t+1]/Total[t];
	// length is years.
	Growth []float64
}

// Project runs a nYears projection from the start stage vector, using
// covariate sample t of the series for year t. A nil src makes the
// projection deterministic with no year effects or immigration noise
// only if those features are disabled; enabling either requires a
// source.
func Project(cfg Config, series *covariate.Series, start []float64, nYears int, src rand.Source) (*Trajectory, error) {
	if err := cfg.Topology.Validate(); err != nil {
		return nil, err
	}
	if nYears <= 0 {
		return nil, fmt.Errorf("%w: nYears %d", ErrBadConfig, nYears)
	}
	if len(start) != cfg.Topology.Stages {
		return nil, fmt.Errorf("%w: start vector length %d, want %d",
			ErrBadConfig, len(start), cfg.Topology.Stages)
	}
	for _, name := range cfg.Topology.RateNames() {
		if _, ok := cfg.Models[name]; !ok {
			return nil, fmt.Errorf("%w: no model for rate %q", ErrBadConfig, name)
		}
	}
	if series.Len() < nYears {
		return nil, fmt.Errorf("%w: %d samples for %d years", ErrShortSeries, series.Len(), nYears)
	}
	if cfg.Immigration != nil {
		im := cfg.Immigration
		if im.Stage < 0 || im.Stage >= cfg.Topology.Stages || im.Std < 0 {
			return nil, fmt.Errorf("%w: immigration stage %d, std %g", ErrBadConfig, im.Stage, im.Std)
		}
	}
	needsDraws := cfg.YearEffectStd > 0 ||
		(cfg.Immigration != nil && cfg.Immigration.Std > 0)
	if needsDraws && src == nil {
		return nil, fmt.Errorf("%w: stochastic terms require a random source", ErrBadConfig)
	}

	var yearEffect, immigrants distuv.Normal
	if cfg.YearEffectStd > 0 {
		yearEffect = distuv.Normal{Mu: 0, Sigma: cfg.YearEffectStd, Src: src}
	}
	if cfg.Immigration != nil {
		immigrants = distuv.Normal{Mu: cfg.Immigration.Mean, Sigma: cfg.Immigration.Std, Src: src}
	}

	traj := &Trajectory{
		Stages: make([][]float64, 0, nYears+1),
		Total:  make([]float64, 0, nYears+1),
		Growth: make([]float64, 0, nYears),
	}
	cur := append([]float64(nil), start...)
	traj.Stages = append(traj.Stages, append([]float64(nil), cur...))
	traj.Total = append(traj.Total, sum(cur))

	for t := 0; t < nYears; t++ {
		comb, err := series.Sample(t)
		if err != nil {
			return nil, err
		}

		in := cfg.Input
		if cfg.YearEffectStd > 0 {
			in.RandomEffect += yearEffect.Rand()
		}

		m, err := assembleYear(cfg, comb, in)
		if err != nil {
			return nil, fmt.Errorf("year %d: %w", t, err)
		}

		next := make([]float64, len(cur))
		nv := mat.NewVecDense(len(cur), next)
		nv.MulVec(m.Dense(), mat.NewVecDense(len(cur), cur))

		if cfg.Immigration != nil {
			count := cfg.Immigration.Mean
			if cfg.Immigration.Std > 0 {
				count = drawImmigrants(immigrants, cfg.Immigration.Policy)
			}
			next[cfg.Immigration.Stage] += count
		}

		before := sum(cur)
		after := sum(next)
		if before > 0 {
			traj.Growth = append(traj.Growth, after/before)
		} else {
			traj.Growth = append(traj.Growth, 0)
		}

		cur = next
		traj.Stages = append(traj.Stages, append([]float64(nil), cur...))
		traj.Total = append(traj.Total, after)
	}

	return traj, nil
}

// drawImmigrants applies the truncation policy to normal draws.
func drawImmigrants(dist distuv.Normal, policy TruncationPolicy) float64 {
	v := dist.Rand()
	if v >= 0 {
		return v
	}
	if policy == Resample {
		for i := 0; i < resampleLimit; i++ {
			if v = dist.Rand(); v >= 0 {
				return v
			}
		}
	}

	return 0
}

func assembleYear(cfg Config, comb covariate.Combination, in vitalrate.Input) (*lifecycle.Matrix, error) {
	rates := make(lifecycle.Rates)
	for _, name := range cfg.Topology.RateNames() {
		v, err := cfg.Models[name].Predict(vitalrate.Covariates(comb), in)
		if err != nil {
			return nil, err
		}
		rates[name] = v
	}

	return lifecycle.Assemble(cfg.Topology, rates)
}

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}

	return s
}
