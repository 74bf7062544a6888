package optimize

import (
	"errors"
	"math"
	"testing"

	"github.com/op/go-logging"
)

func init() {
	logging.SetLevel(logging.ERROR, "optimize")
}

// peak is a likelihood with a single maximum at top over [0, 5].
type peak struct {
	x, top float64
	sharp  bool
	pars   FloatParameters
}

func newPeak(x, top float64, sharp bool) *peak {
	p := &peak{x: x, top: top, sharp: sharp}
	par := NewBasicFloatParameter(&p.x, "x")
	par.SetMin(0)
	par.SetMax(5)
	p.pars.Append(par)
	return p
}

func (p *peak) GetFloatParameters() FloatParameters {
	return p.pars
}

func (p *peak) Likelihood() float64 {
	if p.sharp {
		return -math.Abs(p.x - p.top)
	}
	return -(p.x - p.top) * (p.x - p.top)
}

func (p *peak) Copy() Optimizable {
	return newPeak(p.x, p.top, p.sharp)
}

func TestBrent(tst *testing.T) {
	for _, top := range []float64{2, 0.3, 4.9} {
		p := newPeak(4, top, false)
		b := NewBrent("x")
		b.SetOptimizable(p)
		b.Run(100)
		if err := b.Err(); err != nil {
			tst.Fatal("Brent error:", err)
		}
		if math.Abs(p.x-top) > 1e-4 {
			tst.Errorf("wrong maximum: %v != %v", p.x, top)
		}
		s := b.Summary()
		if s.Optimizer != "brent" || !s.Converged || s.MaxLParameters["x"] != p.x {
			tst.Error("wrong summary:", s)
		}
	}
}

func TestBrentBound(tst *testing.T) {
	// the maximum is outside of the range
	p := newPeak(1, 7, false)
	b := NewBrent("x")
	b.SetOptimizable(p)
	b.Run(100)
	if err := b.Err(); err != nil {
		tst.Fatal("Brent error:", err)
	}
	if p.x < 5-1e-4 || p.x > 5 {
		tst.Error("maximum should be at the upper bound, got", p.x)
	}
}

func TestBrentNonConvergence(tst *testing.T) {
	p := newPeak(4, 2.3, true)
	start := p.Likelihood()
	b := NewBrent("x")
	b.SetOptimizable(p)
	b.Run(2)

	var nce *NonConvergenceError
	if !errors.As(b.Err(), &nce) {
		tst.Fatal("expected non-convergence error, got", b.Err())
	}
	if nce.Iterations != 2 || len(nce.Best) != 1 {
		tst.Error("wrong error:", nce)
	}
	if p.x != nce.Best[0] || p.Likelihood() != b.GetMaxL() {
		tst.Error("parameter should be set to the best point:", p.x, nce.Best)
	}
	if b.GetMaxL() < start {
		tst.Error("best point is worse than the starting point:", b.GetMaxL())
	}
	if b.Summary().Converged {
		tst.Error("summary should report non-convergence")
	}
}

func TestBrentNoParameter(tst *testing.T) {
	b := NewBrent("y")
	b.SetOptimizable(newPeak(1, 2, false))
	if b.Err() == nil {
		tst.Error("expected an error for a missing parameter")
	}
}

func TestSimplexImproves(tst *testing.T) {
	p := newPeak(4, 2, false)
	start := p.Likelihood()
	ds := NewDS()
	ds.SetOptimizable(p)
	ds.Run(200)
	if p.Likelihood() < start {
		tst.Error("simplex made the likelihood worse:", p.Likelihood(), start)
	}
	if p.Likelihood() != ds.GetMaxL() {
		tst.Error("parameters should be set to the best point")
	}
}

func TestNone(tst *testing.T) {
	p := newPeak(4, 2, false)
	n := NewNone()
	n.SetOptimizable(p)
	n.Run(10)
	s := n.Summary()
	if s.LikelihoodCalls != 1 || s.MaxLnL != -4 || p.x != 4 {
		tst.Error("wrong summary:", s)
	}
}

func TestReadFloats(tst *testing.T) {
	v, err := ReadFloats("0.1 2\t3e-2\n4")
	if err != nil {
		tst.Fatal("Error parsing floats:", err)
	}
	exp := []float64{0.1, 2, 0.03, 4}
	if len(v) != len(exp) {
		tst.Fatal("wrong length:", v)
	}
	for i := range v {
		if v[i] != exp[i] {
			tst.Errorf("%d: %v != %v", i, v[i], exp[i])
		}
	}
	if _, err := ReadFloats("1 x"); err == nil {
		tst.Error("expected an error")
	}
}
