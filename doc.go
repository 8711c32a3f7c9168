// Package popmatrix is a toolkit for stage-structured matrix population
// models driven by environmental covariates — from vital-rate prediction
// to growth-rate sensitivity analysis.
//
// What it brings together:
//
//	• Vital-rate prediction: logit / log / bounded-logit links, hazard
//	  composition, categorical classes, period levels, year trends
//	• Life-cycle topologies: fixed sparsity patterns assembled into
//	  projection matrices
//	• Eigenanalysis: asymptotic growth rate (lambda), stable stage
//	  distribution, reproductive values, transient growth
//	• Covariate spaces: marginal statistics, empirically paired extremes,
//	  exhaustive covariate grids
//	• Sensitivity: equilibrium grid search and covariate perturbation,
//	  with and without natural covariation among covariates
//	• Stochastic projection: multi-year trajectories with year effects
//	  and an additive immigration term
//
// Everything is organized under flat subpackages:
//
//	vitalrate/   — link functions, coefficient sets, rate prediction
//	lifecycle/   — topologies, matrix assembly, eigenanalysis
//	covariate/   — series ingestion, marginals, paired values, grids
//	sensitivity/ — equilibrium search & perturbation protocol
//	simulate/    — stochastic multi-year projection
//	runconfig/   — YAML run configuration
//	cmd/         — the popmatrix command-line interface
//
// All analysis components are pure functions over immutable inputs:
// coefficients, covariate series and topologies are read-only once
// constructed, and every perturbation builds a fresh matrix.
//
//	go get github.com/ecodyn/popmatrix
package popmatrix
