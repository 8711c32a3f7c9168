package vitalrate

import (
	"fmt"
	"math"
	"sort"
)

// Model is one vital rate's functional form: a coefficient set plus a
// link. For HazardSum the Hazards slice carries one independently
// parameterized log-link set per competing hazard and Coef is unused.
type Model struct {
	// Name identifies the rate (e.g. "survivalAdult1", "breeding").
	Name string

	Link Link
	Coef Coefficients

	// Asymptote rescales the Logit link to [0,Asymptote]; zero means 1.
	Asymptote float64

	// Ceiling bounds the BoundedLogit link; must lie in (0,1].
	Ceiling float64

	// Hazards parameterizes the HazardSum link; each entry is a log-link
	// linear predictor for one hazard.
	Hazards []Coefficients
}

// Predict computes the rate for one covariate combination.
// It evaluates the linear predictor, applies class/period/trend/random
// terms, and back-transforms through the model's link.
//
// Errors:
//   - ErrUnknownClass / ErrUnknownPeriod — selector outside the fitted set.
//   - ErrMissingCovariate — a referenced covariate has no value.
//   - ErrBadLink — unrecognized link or invalid link parameters.
func (m *Model) Predict(covs Covariates, in Input) (float64, error) {
	switch m.Link {
	case Logit:
		lp, err := linearPredictor(m.Name, &m.Coef, covs, in)
		if err != nil {
			return 0, err
		}
		a := m.Asymptote
		if a == 0 {
			a = 1
		}
		if a < 0 {
			return 0, fmt.Errorf("%w: model %q: asymptote %g < 0", ErrBadLink, m.Name, a)
		}
		return a * invLogit(lp), nil

	case Log:
		lp, err := linearPredictor(m.Name, &m.Coef, covs, in)
		if err != nil {
			return 0, err
		}
		return math.Exp(lp), nil

	case BoundedLogit:
		c := m.Ceiling
		if c <= 0 || c > 1 {
			return 0, fmt.Errorf("%w: model %q: ceiling %g outside (0,1]", ErrBadLink, m.Name, c)
		}
		lp, err := linearPredictor(m.Name, &m.Coef, covs, in)
		if err != nil {
			return 0, err
		}
		return c / (1 + (1/c-1)*math.Exp(-lp)), nil

	case HazardSum:
		if len(m.Hazards) == 0 {
			return 0, fmt.Errorf("%w: model %q: HazardSum without hazard sets", ErrBadLink, m.Name)
		}
		var total float64
		for i := range m.Hazards {
			lp, err := linearPredictor(m.Name, &m.Hazards[i], covs, in)
			if err != nil {
				return 0, err
			}
			total += math.Exp(lp)
		}
		return math.Exp(-total), nil

	default:
		return 0, fmt.Errorf("%w: model %q: link %d", ErrBadLink, m.Name, m.Link)
	}
}

// DependsOn reports whether the model's prediction can vary with the
// named covariate: some slope or interaction references it with a
// nonzero coefficient. A structurally absent or exactly-zero coefficient
// means the rate is invariant under perturbations of that covariate.
func (m *Model) DependsOn(name string) bool {
	if m.Link == HazardSum {
		for i := range m.Hazards {
			if coefDependsOn(&m.Hazards[i], name) {
				return true
			}
		}
		return false
	}
	return coefDependsOn(&m.Coef, name)
}

func coefDependsOn(c *Coefficients, name string) bool {
	if c.Slopes[name] != 0 {
		return true
	}
	for _, it := range c.Interactions {
		if it.Coef != 0 && (it.A == name || it.B == name) {
			return true
		}
	}
	return false
}

// linearPredictor evaluates intercept + Σ slope·x + Σ inter·x·x′ +
// trend·(year−ref) + class offset + period offset + random effect.
// Selector validation happens here so every link shares it.
func linearPredictor(model string, c *Coefficients, covs Covariates, in Input) (float64, error) {
	lp := c.Intercept

	// Sorted iteration keeps float accumulation deterministic, so two
	// predictions over identical inputs are bit-identical.
	for _, name := range sortedKeys(c.Slopes) {
		x, ok := covs[name]
		if !ok {
			return 0, fmt.Errorf("%w: model %q: covariate %q", ErrMissingCovariate, model, name)
		}
		lp += c.Slopes[name] * x
	}

	for _, it := range c.Interactions {
		xa, ok := covs[it.A]
		if !ok {
			return 0, fmt.Errorf("%w: model %q: covariate %q", ErrMissingCovariate, model, it.A)
		}
		xb, ok := covs[it.B]
		if !ok {
			return 0, fmt.Errorf("%w: model %q: covariate %q", ErrMissingCovariate, model, it.B)
		}
		lp += it.Coef * xa * xb
	}

	if c.ClassOffsets != nil {
		off, ok := c.ClassOffsets[in.Class]
		if !ok {
			return 0, fmt.Errorf("%w: model %q: class %q", ErrUnknownClass, model, in.Class)
		}
		lp += off
	}

	if c.PeriodOffsets != nil {
		if !in.UsePeriod {
			return 0, fmt.Errorf("%w: model %q: period required but not set", ErrUnknownPeriod, model)
		}
		off, ok := c.PeriodOffsets[in.Period]
		if !ok {
			return 0, fmt.Errorf("%w: model %q: period %d", ErrUnknownPeriod, model, in.Period)
		}
		lp += off
	}

	if c.Trend != 0 {
		lp += c.Trend * float64(in.Year-c.RefYear)
	}

	return lp + in.RandomEffect, nil
}

// invLogit is the standard logistic function 1/(1+exp(−x)).
func invLogit(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
