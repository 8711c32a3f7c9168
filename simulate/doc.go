// Package simulate projects a stage-structured population forward in
// time, year by year, using the same matrix-assembly primitive as the
// sensitivity analysis.
//
// Each projected year predicts the vital rates from that year's
// covariate values (optionally with a random year effect drawn on the
// link scale), assembles the projection matrix, multiplies the stage
// vector through it, and optionally adds an immigration term drawn
// from a normal distribution after the matrix multiplication —
// immigration is additive on the projection result, never part of the
// matrix.
//
// Negative immigration draws are handled by an explicit policy:
// ClampZero truncates them to zero, Resample redraws (bounded, then
// clamps). The choice is configuration, not a guessed default.
//
// Given the same random source, a projection is fully deterministic.
package simulate
