// Package sensitivity quantifies how the asymptotic growth rate lambda
// of a stage-structured population responds to perturbations of
// environmental covariates.
//
// The Engine bundles one vital-rate model per rate name, a life-cycle
// topology and a covariate series, all immutable. The protocol:
//
//  1. FindEquilibrium scans a covariate grid for combinations whose
//     lambda sits within a tolerance of 1 (demographic equilibrium).
//     Grid points are evaluated on a worker pool; results keep grid
//     order, and per-combination eigen failures are recorded and
//     skipped rather than aborting the scan. An empty result set is a
//     legitimate outcome.
//  2. Perturb increases one covariate by a fraction of its absolute
//     value at a near-equilibrium baseline, rebuilds the matrix with
//     the perturbed value applied to one vital rate (single-rate
//     sensitivity) or to all rates (aggregate sensitivity), and
//     reports the relative change in lambda.
//  3. ScaledSensitivity is the Morris-style variant: the absolute
//     lambda change between the covariate's historical extremes,
//     divided by the covariate change in standard-deviation units.
//
// Both covariation modes are supported: HoldAtMean keeps the other
// covariates at their marginal means, Paired sets them to the values
// empirically observed with the perturbed covariate's extremes.
// Covariation among covariates generally dampens single-covariate
// sensitivity; the two modes answer different questions and both are
// legitimate.
//
// A vital rate with a structurally zero coefficient on the perturbed
// covariate reports a delta of exactly 0 — by construction, not by
// numerical coincidence.
package sensitivity
