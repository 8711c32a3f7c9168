package lifecycle

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Numeric policy for dominant-eigenvalue identification.
const (
	// eigenImagTol bounds the relative imaginary part below which an
	// eigenvalue counts as real.
	eigenImagTol = 1e-9

	// eigenTieTol is the relative modulus window within which two
	// eigenvalues count as tied for dominance.
	eigenTieTol = 1e-9
)

// GrowthRate returns the asymptotic growth rate lambda: the dominant
// eigenvalue of the projection matrix. For a primitive non-negative
// matrix this is the spectral radius, real and positive
// (Perron–Frobenius).
//
// ErrNonErgodic is returned when no unique positive real eigenvalue
// attains the spectral radius — a reducible matrix with two independent
// dominant blocks, or a spectrum whose dominant value is complex. A
// periodic matrix whose radius is still attained by a single positive
// real eigenvalue (e.g. spectrum {1, −1}) keeps that value as lambda.
func (m *Matrix) GrowthRate() (float64, error) {
	var eig mat.Eigen
	if ok := eig.Factorize(m.a, mat.EigenNone); !ok {
		return 0, ErrEigenFailed
	}
	lambda, _, err := dominantIndex(eig.Values(nil))

	return lambda, err
}

// StableDistribution returns the right eigenvector of the dominant
// eigenvalue, normalized to sum to 1: the long-run proportional stage
// structure.
func (m *Matrix) StableDistribution() ([]float64, error) {
	return m.dominantVector(m.a)
}

// ReproductiveValue returns the left eigenvector of the dominant
// eigenvalue (the right eigenvector of the transpose), normalized to
// sum to 1: the relative contribution of each stage to future growth.
func (m *Matrix) ReproductiveValue() ([]float64, error) {
	at := mat.NewDense(m.n, m.n, nil)
	at.CloneFrom(m.a.T())

	return m.dominantVector(at)
}

// TransientGrowth returns the one-step observed growth ratio
// sum(A·n)/sum(n) for an actual (not stable-stage) population vector n.
// Distinct from the asymptotic GrowthRate; used with empirical
// stage-structured counts.
func (m *Matrix) TransientGrowth(stageVector []float64) (float64, error) {
	if len(stageVector) != m.n {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(stageVector), m.n)
	}
	var before float64
	for _, v := range stageVector {
		before += v
	}
	if before == 0 {
		return 0, ErrZeroVector
	}

	n := mat.NewVecDense(m.n, stageVector)
	next := mat.NewVecDense(m.n, nil)
	next.MulVec(m.a, n)

	var after float64
	for i := 0; i < m.n; i++ {
		after += next.AtVec(i)
	}

	return after / before, nil
}

// dominantVector computes the eigenvector of a's dominant eigenvalue,
// sign-fixed non-negative and normalized to sum to 1.
func (m *Matrix) dominantVector(a *mat.Dense) ([]float64, error) {
	var eig mat.Eigen
	if ok := eig.Factorize(a, mat.EigenRight); !ok {
		return nil, ErrEigenFailed
	}
	_, idx, err := dominantIndex(eig.Values(nil))
	if err != nil {
		return nil, err
	}

	var vecs mat.CDense
	eig.VectorsTo(&vecs)

	v := make([]float64, m.n)
	var sum float64
	for i := 0; i < m.n; i++ {
		v[i] = real(vecs.At(i, idx))
		sum += v[i]
	}
	if sum == 0 {
		return nil, ErrNonErgodic
	}
	// The Perron vector has one sign throughout; dividing by its own sum
	// both normalizes and fixes the sign.
	for i := range v {
		v[i] /= sum
	}

	return v, nil
}

// dominantIndex locates the unique positive real eigenvalue attaining
// the spectral radius.
func dominantIndex(values []complex128) (float64, int, error) {
	radius := 0.0
	for _, v := range values {
		if r := cmplx.Abs(v); r > radius {
			radius = r
		}
	}
	if radius == 0 {
		return 0, 0, ErrNonErgodic
	}

	idx := -1
	count := 0
	for i, v := range values {
		if cmplx.Abs(v) < radius*(1-eigenTieTol) {
			continue
		}
		if math.Abs(imag(v)) > eigenImagTol*(1+math.Abs(real(v))) {
			continue // complex eigenvalue on the dominant circle
		}
		if real(v) <= 0 {
			continue // the negative partner of a periodic spectrum
		}
		idx = i
		count++
	}
	if idx < 0 {
		return 0, 0, ErrNonErgodic // dominant circle holds no positive real value
	}
	if count > 1 {
		return 0, 0, ErrNonErgodic // repeated dominant root: reducible structure
	}

	return real(values[idx]), idx, nil
}
