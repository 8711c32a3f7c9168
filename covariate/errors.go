package covariate

import "errors"

var (
	// ErrEmptySeries indicates a series with no samples (or too few for
	// the requested transform, e.g. lagging a single-sample series).
	ErrEmptySeries = errors.New("covariate: series has no usable samples")

	// ErrUnknownCovariate indicates a covariate name absent from the
	// series.
	ErrUnknownCovariate = errors.New("covariate: unknown covariate")

	// ErrMissingValue indicates a sample lacking a value for a declared
	// covariate.
	ErrMissingValue = errors.New("covariate: sample missing covariate value")

	// ErrBadResolution indicates a grid resolution below 2; at least the
	// two endpoints of each range are required.
	ErrBadResolution = errors.New("covariate: grid resolution must be >= 2")

	// ErrBadCSV indicates a malformed covariate CSV: missing header,
	// non-numeric value, or a row of the wrong width.
	ErrBadCSV = errors.New("covariate: malformed CSV")
)
