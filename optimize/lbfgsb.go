package optimize

import (
	"math"

	lbfgsb "github.com/idavydov/go-lbfgsb"
)

// LBFGSB is a bounded quasi-Newton optimizer. The gradient is
// computed numerically using central differences on copies of the
// optimizable.
type LBFGSB struct {
	BaseOptimizer
	dH   float64
	grad []float64
}

func NewLBFGSB() *LBFGSB {
	return &LBFGSB{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
		},
		dH: 1e-6,
	}
}

func (l *LBFGSB) SetOptimizable(opt Optimizable) {
	l.BaseOptimizer.SetOptimizable(opt)
	l.err = nil
	l.grad = nil
}

func (l *LBFGSB) Logger(info *lbfgsb.OptimizationIterationInformation) {
	l.i = info.Iteration
	l.l = -info.F
	if l.repPeriod > 0 && l.i%l.repPeriod == 0 {
		log.Debugf("%d: L=%f", l.i, -info.F)
	}
	l.PrintLine(l.parameters, -info.F)
}

func (l *LBFGSB) EvaluateFunction(x []float64) float64 {
	if !l.parameters.ValuesInRange(x) {
		return math.Inf(+1)
	}
	if err := l.parameters.SetValues(x); err != nil {
		panic(err)
	}
	return -l.evaluate(l.Optimizable, l.parameters)
}

func (l *LBFGSB) EvaluateGradient(x []float64) (grad []float64) {
	if l.grad == nil {
		l.grad = make([]float64, len(x))
	}
	grad = l.grad
	for i := range x {
		no1 := l.Optimizable.Copy()
		par1 := no1.GetFloatParameters()
		par1.SetValues(x)
		lo := math.Max(x[i]-l.dH, par1[i].GetMin())
		par1[i].Set(lo)
		l1 := -no1.Likelihood()
		l.calls++

		no2 := no1.Copy()
		par2 := no2.GetFloatParameters()
		hi := math.Min(x[i]+l.dH, par2[i].GetMax())
		par2[i].Set(hi)
		l2 := -no2.Likelihood()
		l.calls++

		grad[i] = (l2 - l1) / (hi - lo)
	}
	return
}

func (l *LBFGSB) Run(iterations int) {
	if len(l.parameters) == 0 {
		l.evaluate(l.Optimizable, l.parameters)
		l.restoreBest()
		return
	}
	l.PrintHeader(l.parameters)
	bounds := make([][2]float64, len(l.parameters))

	for i, par := range l.parameters {
		bounds[i][0] = par.GetMin() + 1e-5
		bounds[i][1] = par.GetMax() - 1e-5
	}

	opt := new(lbfgsb.Lbfgsb)
	opt.SetApproximationSize(10)
	opt.SetFTolerance(1e-9)
	opt.SetGTolerance(1e-9)

	opt.SetBounds(bounds)
	opt.SetLogger(l.Logger)

	_, exitStatus := opt.Minimize(l, l.parameters.Values(nil))

	log.Info("Exit status: ", exitStatus)
	l.restoreBest()
	if exitStatus.Code != lbfgsb.SUCCESS {
		l.err = l.nonConvergence("lbfgsb")
		log.Warning(l.err)
	}
	if l.i > iterations {
		log.Warningf("L-BFGS-B used %d iterations, more than %d requested", l.i, iterations)
	}

	log.Info("Finished LBFGSB")
	log.Noticef("Maximum likelihood: %v", l.maxL)
	log.Infof("Likelihood function calls: %v", l.calls)
	log.Infof("Parameter  names: %v", l.parameters.NamesString())
	log.Infof("Parameter values: %v", l.parameters.ValuesString())
	l.PrintFinal(l.parameters)
}

// Summary returns the description of the last run.
func (l *LBFGSB) Summary() Summary {
	return l.summary("lbfgsb")
}
