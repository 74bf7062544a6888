package optimize

import (
	"fmt"
	"math"
)

// golden is the golden section ratio (3-sqrt(5))/2.
var golden = 0.5 * (3 - math.Sqrt(5))

// Brent maximizes the likelihood with respect to a single bounded
// parameter without derivatives. This is the localmin procedure of
// Brent (1973) in the form of Forsythe, Malcolm & Moler: golden
// section steps combined with parabolic interpolation.
type Brent struct {
	BaseOptimizer
	name string
	par  FloatParameter
	// Tol is the absolute tolerance on the parameter value.
	Tol float64
}

// NewBrent creates an optimizer for the parameter called name.
func NewBrent(name string) *Brent {
	return &Brent{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
		},
		name: name,
		Tol:  1e-6,
	}
}

// SetOptimizable sets the model. The model has to have a parameter
// with a finite range and the name given to NewBrent.
func (b *Brent) SetOptimizable(opt Optimizable) {
	b.BaseOptimizer.SetOptimizable(opt)
	b.err = nil
	b.par = b.parameters.ByName(b.name)
	if b.par == nil {
		b.err = fmt.Errorf("brent: no parameter %q", b.name)
		b.parameters = nil
		return
	}
	if math.IsInf(b.par.GetMin(), 0) || math.IsInf(b.par.GetMax(), 0) {
		b.err = fmt.Errorf("brent: parameter %q is not bounded", b.name)
	}
	b.parameters = FloatParameters{b.par}
}

// score sets the trial value and computes the likelihood. The model
// drops its cached state on Set.
func (b *Brent) score(x float64) float64 {
	b.par.Set(x)
	return b.evaluate(b.Optimizable, b.parameters)
}

// Run performs at most iterations steps. If the tolerance is not
// reached Err returns a *NonConvergenceError; the parameter is set
// to the best point found in any case.
func (b *Brent) Run(iterations int) {
	if b.par == nil || b.err != nil {
		log.Error(b.err)
		return
	}
	b.PrintHeader(b.parameters)

	// the starting value is kept if nothing better is found
	b.score(b.par.Get())

	lo, hi := b.par.GetMin(), b.par.GetMax()
	sqrtEps := math.Sqrt(2.220446049250313e-16)

	x := lo + golden*(hi-lo)
	w, v := x, x
	fx := -b.score(x)
	fw, fv := fx, fx
	d, e := 0.0, 0.0

	converged := false
	for b.i = 1; b.i <= iterations; b.i++ {
		xm := 0.5 * (lo + hi)
		tol1 := sqrtEps*math.Abs(x) + b.Tol/3
		tol2 := 2 * tol1
		if math.Abs(x-xm) <= tol2-0.5*(hi-lo) {
			converged = true
			break
		}

		useGolden := true
		if math.Abs(e) > tol1 {
			// parabola through x, v and w
			r := (x - w) * (fx - fv)
			q := (x - v) * (fx - fw)
			p := (x-v)*q - (x-w)*r
			q = 2 * (q - r)
			if q > 0 {
				p = -p
			} else {
				q = -q
			}
			r, e = e, d
			if math.Abs(p) < math.Abs(0.5*q*r) && p > q*(lo-x) && p < q*(hi-x) {
				d = p / q
				u := x + d
				if u-lo < tol2 || hi-u < tol2 {
					d = math.Copysign(tol1, xm-x)
				}
				useGolden = false
			}
		}
		if useGolden {
			if x >= xm {
				e = lo - x
			} else {
				e = hi - x
			}
			d = golden * e
		}

		u := x + math.Copysign(math.Max(math.Abs(d), tol1), d)
		u = math.Min(math.Max(u, lo), hi)
		fu := -b.score(u)

		if fu <= fx {
			if u >= x {
				lo = x
			} else {
				hi = x
			}
			v, fv = w, fw
			w, fw = x, fx
			x, fx = u, fu
		} else {
			if u < x {
				lo = u
			} else {
				hi = u
			}
			if fu <= fw || w == x {
				v, fv = w, fw
				w, fw = u, fu
			} else if fu <= fv || v == x || v == w {
				v, fv = u, fu
			}
		}

		if b.repPeriod > 0 && b.i%b.repPeriod == 0 {
			log.Debugf("%s: %d: L=%f, x=%f", b.name, b.i, -fx, x)
			b.PrintLine(b.parameters, -fx)
		}
	}

	if b.i > iterations {
		b.i = iterations
	}
	b.restoreBest()
	if !converged {
		b.err = b.nonConvergence("brent")
		log.Warning(b.err)
	}
	b.PrintLine(b.parameters, b.maxL)
	log.Infof("Brent %s: lnL=%f, %s=%f (%d iterations, %d likelihood calls)",
		b.name, b.maxL, b.name, b.par.Get(), b.i, b.calls)
}

// Summary returns the description of the last run.
func (b *Brent) Summary() Summary {
	return b.summary("brent")
}
