// Package covariate represents the plausible range and empirical
// covariation of environmental covariates (temperature, rainfall,
// density, sea ice, prey availability, ...).
//
// A Series is the historical record: an ordered sequence of samples,
// one covariate vector per time step. Construction-time options
// de-trend (remove a fitted linear trend) and standardize (z-score)
// each covariate, and append lag-1 copies as first-class covariates
// named "<name>.lag1". After construction the series is read-only.
//
// The series answers three questions:
//
//   - Marginal(name)        — min/max/mean/sd of one covariate.
//   - PairedAt(name, ext)   — the values of the other covariates at the
//     time step where name reached its historical extreme (first
//     chronological occurrence on ties). Basis for covariation-aware
//     perturbation.
//   - Grid(resolution, ...) — a lazy, restartable iterator over the
//     Cartesian product of each covariate's range discretized into
//     evenly spaced points. Cost is resolution^k; callers bound k.
//
// Standardized values are comparable across covariates; raw values are
// not. Keep coefficient sets and series on the same scale.
package covariate
