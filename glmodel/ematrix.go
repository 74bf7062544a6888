package glmodel

import (
	"errors"
	"math"

	"github.com/gonum/matrix/mat64"
)

// EMatrix stores the eigendecomposition of the two-state rate matrix
// to quickly compute P=e^Qt.
//
// Q is reversible, so S = Π^1/2 Q Π^-1/2 is symmetric and
// P(t) = Π^-1/2 U e^Λt U' Π^1/2 where S = U Λ U'.
type EMatrix struct {
	// Pi1 is the stationary frequency of state 1.
	Pi1    float64
	Q      *mat64.Dense
	u      *mat64.Dense
	d      []float64
	sqrtPi [nState]float64
	cD     *mat64.Dense
	tmp    *mat64.Dense
	res    *mat64.Dense
}

// RateMatrix returns the instantaneous rate matrix for pi1. The
// expected number of changes per unit of time at equilibrium is 1.
func RateMatrix(pi1 float64) *mat64.Dense {
	q01 := 1 / (2 * (1 - pi1))
	q10 := 1 / (2 * pi1)
	return mat64.NewDense(nState, nState, []float64{
		-q01, q01,
		q10, -q10,
	})
}

// NewEMatrix creates a new EMatrix and performs the
// eigendecomposition.
func NewEMatrix(pi1 float64) (*EMatrix, error) {
	if !(pi1 > 0 && pi1 < 1) {
		return nil, errors.New("stationary frequency has to be in (0, 1)")
	}
	m := &EMatrix{
		Pi1: pi1,
		Q:   RateMatrix(pi1),
		cD:  mat64.NewDense(nState, nState, nil),
		tmp: mat64.NewDense(nState, nState, nil),
		res: mat64.NewDense(nState, nState, nil),
	}
	m.sqrtPi[0] = math.Sqrt(1 - pi1)
	m.sqrtPi[1] = math.Sqrt(pi1)

	s := mat64.NewSymDense(nState, nil)
	for i := 0; i < nState; i++ {
		for j := i; j < nState; j++ {
			s.SetSym(i, j, m.sqrtPi[i]*m.Q.At(i, j)/m.sqrtPi[j])
		}
	}

	var eigen mat64.EigenSym
	if ok := eigen.Factorize(s, true); !ok {
		return nil, errors.New("eigendecomposition failed")
	}
	m.d = eigen.Values(nil)
	m.u = &mat64.Dense{}
	m.u.EigenvectorsSym(&eigen)
	return m, nil
}

// Exp computes P=e^Qt. Slightly negative values caused by round-off
// are set to zero.
func (m *EMatrix) Exp(t float64) (p pmatrix) {
	if t == 0 {
		for i := 0; i < nState; i++ {
			p[i][i] = 1
		}
		return
	}
	for i, l := range m.d {
		m.cD.Set(i, i, math.Exp(l*t))
	}
	m.tmp.Mul(m.u, m.cD)
	m.res.Mul(m.tmp, m.u.T())
	for i := 0; i < nState; i++ {
		for j := 0; j < nState; j++ {
			p[i][j] = math.Max(0, m.res.At(i, j)*m.sqrtPi[j]/m.sqrtPi[i])
		}
	}
	return
}

// TransitionMatrix returns the probabilities of changing from state
// i (row) to state j (column) along a branch.
func TransitionMatrix(branchLength, scale, rate, pi1 float64) (pmatrix, error) {
	em, err := NewEMatrix(pi1)
	if err != nil {
		return pmatrix{}, err
	}
	return em.Exp(branchLength * scale * rate), nil
}
