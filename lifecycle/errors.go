package lifecycle

import "errors"

var (
	// ErrMalformedTopology indicates an inconsistent topology: a cell
	// outside the declared stage range, a non-positive stage count, or a
	// formula with no factors. Construction-time programmer error.
	ErrMalformedTopology = errors.New("lifecycle: malformed topology")

	// ErrMissingRate indicates a rate name referenced by a topology
	// formula is absent from the supplied rate set.
	ErrMissingRate = errors.New("lifecycle: missing vital rate")

	// ErrNonErgodic indicates eigen-decomposition could not identify a
	// unique positive real dominant eigenvalue (reducible or periodic
	// matrix). Local to one matrix; batch sweeps skip and continue.
	ErrNonErgodic = errors.New("lifecycle: no unique real dominant eigenvalue")

	// ErrEigenFailed indicates the eigen factorization itself did not
	// converge.
	ErrEigenFailed = errors.New("lifecycle: eigen decomposition failed")

	// ErrDimensionMismatch indicates a stage vector whose length does
	// not match the matrix dimension.
	ErrDimensionMismatch = errors.New("lifecycle: stage vector dimension mismatch")

	// ErrZeroVector indicates an all-zero stage vector, for which the
	// transient growth ratio is undefined.
	ErrZeroVector = errors.New("lifecycle: zero stage vector")
)
