package optimize

import (
	"math"
)

const (
	TINY  = 1e-10
	SMALL = 1e-6
)

// DS is the downhill simplex method of Nelder and Mead. Points
// outside of the parameter ranges have zero likelihood. Every vertex
// of the simplex is a separate copy of the optimizable.
type DS struct {
	BaseOptimizer
	delta  float64
	ftol   float64
	repeat bool
	oldL   float64
	points []Optimizable
	psum   []float64
	pars   []FloatParameters
	l      []float64
	newOpt Optimizable
	newPar FloatParameters
}

func NewDS() (ds *DS) {
	ds = &DS{
		delta: 0.1,
		ftol:  TINY,
	}
	ds.repPeriod = 10
	return
}

func (ds *DS) createSimplex(opt Optimizable, delta float64) {
	parameters := opt.GetFloatParameters()
	ds.points = make([]Optimizable, len(parameters)+1)
	ds.pars = make([]FloatParameters, len(ds.points))
	ds.l = make([]float64, len(ds.points))
	ds.points[0] = opt
	ds.pars[0] = parameters
	for i := 1; i < len(ds.points); i++ {
		point := opt.Copy()
		ds.points[i] = point
		ds.pars[i] = point.GetFloatParameters()
	}
	for i := 0; i < len(parameters); i++ {
		parameter := ds.pars[i+1][i]
		v := parameter.Get() + delta
		if !parameter.ValueInRange(v) {
			v = parameter.Get() - delta
		}
		parameter.Set(v)
	}
	for i := range ds.points {
		ds.l[i] = ds.likelihood(i)
	}
}

func (ds *DS) likelihood(i int) float64 {
	if !ds.pars[i].InRange() {
		return math.Inf(-1)
	}
	return ds.evaluate(ds.points[i], ds.pars[i])
}

// amotry extrapolates by factor fac throught the face of the simplex accros from
// the low point, tries it, and replaces the low point if the new point is better.
func (ds *DS) amotry(ilo int, fac float64) float64 {
	if ds.newOpt == nil {
		ds.newOpt = ds.points[0].Copy()
		ds.newPar = ds.newOpt.GetFloatParameters()
	}
	ds.calcPsum()
	ndim := len(ds.newPar)
	fac1 := (1 - fac) / float64(ndim)
	fac2 := fac1 - fac
	for j := 0; j < ndim; j++ {
		ds.newPar[j].Set(ds.psum[j]*fac1 - ds.pars[ilo][j].Get()*fac2)
	}
	l := math.Inf(-1)
	if ds.newPar.InRange() {
		l = ds.evaluate(ds.newOpt, ds.newPar)
	}
	if l > ds.l[ilo] {
		ds.points[ilo], ds.newOpt = ds.newOpt, ds.points[ilo]
		ds.pars[ilo], ds.newPar = ds.newPar, ds.pars[ilo]
		ds.l[ilo] = l
	}
	return l
}

func (ds *DS) calcPsum() {
	ds.psum = make([]float64, len(ds.pars[0]))
	for i := range ds.psum {
		for _, parameters := range ds.pars {
			ds.psum[i] += parameters[i].Get()
		}
	}
}

func (ds *DS) SetOptimizable(opt Optimizable) {
	ds.BaseOptimizer.SetOptimizable(opt)
	ds.err = nil
	ds.newOpt = nil
	ds.repeat = false
	ds.createSimplex(opt, ds.delta)
}

func (ds *DS) Run(iterations int) {
	if len(ds.parameters) == 0 {
		ds.l[0] = ds.evaluate(ds.points[0], ds.pars[0])
		ds.restoreBest()
		return
	}
	// Lowest (worst), next-lowest and highest points
	var ilo, inlo, ihi int
	var llo, lnlo, lhi float64
	ds.PrintHeader(ds.pars[0])
	converged := false
Iter:
	for ds.i = 1; ds.i <= iterations; ds.i++ {
		if ds.l[0] < ds.l[1] {
			ilo, inlo, ihi = 0, 1, 1
		} else {
			ilo, inlo, ihi = 1, 0, 0
		}
		llo = ds.l[ilo]
		lnlo = ds.l[inlo]
		lhi = ds.l[ihi]
		for i := 2; i < len(ds.points); i++ {
			if ds.l[i] >= lhi {
				lhi = ds.l[i]
				ihi = i
			}
			if ds.l[i] < llo {
				lnlo = llo
				inlo = ilo
				llo = ds.l[i]
				ilo = i
			} else if ds.l[i] < lnlo {
				lnlo = ds.l[i]
				inlo = i
			}
		}
		_ = inlo
		ds.BaseOptimizer.l = lhi
		if ds.repPeriod > 0 && ds.i%ds.repPeriod == 0 {
			log.Debugf("%d: L=%f (%f)", ds.i, lhi, lhi-llo)
			ds.PrintLine(ds.pars[ihi], lhi)
		}
		rtol := 2 * math.Abs(lhi-llo) / (math.Abs(llo) + math.Abs(lhi) + TINY)
		if rtol < ds.ftol {
			if ds.repeat && math.Abs(ds.oldL-lhi) < SMALL {
				converged = true
				break Iter
			}
			ds.repeat = true
			ds.oldL = lhi
			log.Debug("converged. retrying")
			ds.createSimplex(ds.points[ihi], ds.delta)
			continue
		}
		l := ds.amotry(ilo, -1)
		switch {
		case l >= lhi:
			ds.amotry(ilo, 2)
		case l <= lnlo:
			lsave := llo
			l := ds.amotry(ilo, 0.5)
			if l <= lsave {
				for i := range ds.points {
					if i != ihi {
						for j := range ds.pars[i] {
							ds.pars[i][j].Set(0.5 * (ds.pars[i][j].Get() + ds.pars[ihi][j].Get()))
						}
						ds.l[i] = ds.likelihood(i)
					}
				}
			}
		}
	}
	if ds.i > iterations {
		ds.i = iterations
	}

	ds.restoreBest()
	if !converged {
		ds.err = ds.nonConvergence("simplex")
		log.Warning(ds.err)
	}

	log.Info("Finished downhill simplex")
	log.Noticef("Maximum likelihood: %v", ds.maxL)
	log.Infof("Parameter  names: %v", ds.parameters.NamesString())
	log.Infof("Parameter values: %v", ds.parameters.ValuesString())
	ds.PrintFinal(ds.parameters)
}

// Summary returns the description of the last run.
func (ds *DS) Summary() Summary {
	return ds.summary("simplex")
}
