package dist

import (
	"math"
	"testing"
)

const smallDiff = 1e-6

type Settings struct {
	n      int
	a, b   float64
	median bool
}

/*** Tests if a and b are approximately equal ***/
func appreq(a, b float64) bool {
	return math.Abs(a-b) <= smallDiff
}

/*** Tests that arrays have approximately same values ***/
func cmp(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !appreq(a[i], b[i]) {
			return false
		}
	}
	return true
}

/*** Test discrete gamma ***/
func TestGamma(tst *testing.T) {
	settings := [...]Settings{
		Settings{4, 0.5, 10, false},
		Settings{4, 0.5, 10, true},
		Settings{8, 2, .1, false},
		Settings{7, 15, 1, true},
		Settings{4, 1.16, 3.54, false},
		Settings{4, 1.16, 3.54, true},
	}
	results := [...]([]float64){
		[]float64{0.001669, 0.012596, 0.041013, 0.144721},
		[]float64{0.001454, 0.014036, 0.046239, 0.138272},
		[]float64{3.848344, 7.882645, 11.320993, 14.879554, 18.906079, 23.893507, 31.028044, 48.240834},
		[]float64{9.793787, 11.891047, 13.362596, 14.722906, 16.172736, 17.973174, 21.083754},
		[]float64{0.054962, 0.170420, 0.334948, 0.750405},
		[]float64{0.059239, 0.182032, 0.355645, 0.713819},
	}
	for i, s := range settings {
		freq := make([]float64, s.n)
		r := DiscreteGamma(s.a, s.b, s.n, s.median, freq, nil)
		if !cmp(r, results[i]) {
			tst.Error("Results missmatch:", r, results[i])
		}
	}
}

// Rates should average to one for every shape and number of categories.
func TestGammaMean(tst *testing.T) {
	for K := 1; K <= 16; K++ {
		for _, alpha := range []float64{0.1, 0.25, 0.5, 1, 2.7, 5, 12, 20} {
			for _, median := range []bool{false, true} {
				r := GammaRates(alpha, K, median)
				if len(r) != K {
					tst.Errorf("wrong number of categories: %d != %d", len(r), K)
				}
				sum := 0.0
				for _, v := range r {
					sum += v
				}
				if math.Abs(sum/float64(K)-1) > 1e-9 {
					tst.Errorf("mean rate is %g; alpha=%g, K=%d, median=%v", sum/float64(K), alpha, K, median)
				}
			}
		}
	}
}

func TestGammaSingle(tst *testing.T) {
	if r := GammaRates(0.5, 1, false); len(r) != 1 || r[0] != 1 {
		tst.Error("single category should have rate 1, got", r)
	}
}
