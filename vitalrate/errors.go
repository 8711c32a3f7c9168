package vitalrate

import "errors"

var (
	// ErrUnknownClass indicates a categorical class label outside the
	// model's recognized set (e.g. an age class the model was never
	// fitted for). Never silently defaulted.
	ErrUnknownClass = errors.New("vitalrate: unknown class label")

	// ErrUnknownPeriod indicates a period level outside the model's
	// declared discrete set (e.g. a harvest-pressure period other than
	// the fitted ones). Never silently defaulted.
	ErrUnknownPeriod = errors.New("vitalrate: unknown period level")

	// ErrMissingCovariate indicates the covariate vector lacks a value
	// for a covariate the model's coefficients reference.
	ErrMissingCovariate = errors.New("vitalrate: missing covariate value")

	// ErrBadLink indicates an unrecognized link tag, or link parameters
	// that make no sense (ceiling outside (0,1], non-positive asymptote).
	ErrBadLink = errors.New("vitalrate: invalid link configuration")
)
