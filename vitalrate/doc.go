// Package vitalrate predicts demographic vital rates (survival, breeding
// probability, litter size, maturation) from fitted coefficient sets and
// environmental covariate values.
//
// A Model pairs one set of Coefficients with a link function:
//
//   - Logit        — probabilities in [0,1], optionally scaled by an
//     asymptote a: rate = a·invlogit(lp)
//   - Log          — strictly positive rates/hazards: rate = exp(lp)
//   - BoundedLogit — probabilities bounded by a fixed ceiling c:
//     rate = c / (1 + (1/c − 1)·exp(−lp)); equals Logit at c = 1
//   - HazardSum    — survival under competing hazards:
//     rate = exp(−Σ exp(lp_i)), each hazard independently parameterized
//
// The linear predictor lp is intercept + Σ slope·x + Σ interaction·x·x′ +
// trend·(year − refYear) + class offset + period offset + random effect.
// Categorical class labels and period levels are closed sets: a selector
// outside the fitted set is rejected (ErrUnknownClass, ErrUnknownPeriod),
// never defaulted.
//
// Prediction is a pure function of its inputs; models are immutable once
// built.
package vitalrate
