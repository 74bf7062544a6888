// Package optimize provides bounded maximum likelihood optimizers.
package optimize

import (
	"fmt"
	"io"
	"math"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("optimize")

// Optimizable is a model with a likelihood function of its float
// parameters.
type Optimizable interface {
	GetFloatParameters() FloatParameters
	Likelihood() float64
	Copy() Optimizable
}

// Optimizer maximizes the likelihood of an Optimizable. After Run
// the optimizable parameters hold the best values found.
type Optimizer interface {
	SetOptimizable(Optimizable)
	SetOutput(io.Writer)
	SetReportPeriod(period int)
	Run(iterations int)
	GetL() float64
	GetMaxL() float64
	GetMaxLParameters() []float64
	Err() error
	Summary() Summary
}

// Summary is a JSON-friendly description of an optimization run.
type Summary struct {
	Optimizer       string             `json:"optimizer"`
	Iterations      int                `json:"iterations"`
	LikelihoodCalls int                `json:"likelihoodCalls"`
	MaxLnL          float64            `json:"maxLnL"`
	MaxLParameters  map[string]float64 `json:"maxLParameters"`
	Converged       bool               `json:"converged"`
}

// NonConvergenceError is reported when the iteration budget is
// exhausted before the tolerance has been reached. The best point
// is kept.
type NonConvergenceError struct {
	Optimizer  string
	Parameters []string
	Iterations int
	Best       []float64
	LnL        float64
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("%s did not converge in %d iterations for %v; best point %v (lnL=%f)",
		e.Optimizer, e.Iterations, e.Parameters, e.Best, e.LnL)
}

// BaseOptimizer keeps the state shared by all the optimizers.
type BaseOptimizer struct {
	Optimizable
	parameters FloatParameters
	i          int
	l          float64
	maxL       float64
	maxLPar    []float64
	calls      int
	repPeriod  int
	output     io.Writer
	err        error
	Quiet      bool
}

func (o *BaseOptimizer) SetOptimizable(opt Optimizable) {
	o.Optimizable = opt
	o.parameters = opt.GetFloatParameters()
	o.maxL = math.Inf(-1)
	o.maxLPar = nil
}

// SetOutput sets the writer for the optimization trajectory.
func (o *BaseOptimizer) SetOutput(w io.Writer) {
	o.output = w
}

func (o *BaseOptimizer) SetReportPeriod(period int) {
	o.repPeriod = period
}

// evaluate computes the likelihood and remembers the best point.
func (o *BaseOptimizer) evaluate(opt Optimizable, par FloatParameters) float64 {
	l := opt.Likelihood()
	o.calls++
	if l > o.maxL {
		o.maxL = l
		o.maxLPar = par.Values(o.maxLPar)
	}
	return l
}

// restoreBest sets the optimizable parameters to the best point.
func (o *BaseOptimizer) restoreBest() {
	if o.maxLPar == nil {
		return
	}
	if err := o.parameters.SetValues(o.maxLPar); err != nil {
		panic(err)
	}
	o.l = o.maxL
}

func (o *BaseOptimizer) PrintHeader(par FloatParameters) {
	if o.output != nil && !o.Quiet {
		fmt.Fprintf(o.output, "iteration\tlikelihood\t%s\n", par.NamesString())
	}
}

func (o *BaseOptimizer) PrintLine(par FloatParameters, l float64) {
	if o.output != nil && !o.Quiet {
		fmt.Fprintf(o.output, "%d\t%f\t%s\n", o.i, l, par.ValuesString())
	}
}

func (o *BaseOptimizer) PrintFinal(par FloatParameters) {
	if !o.Quiet {
		for _, p := range par {
			log.Infof("%s=%v", p.Name(), p.Get())
		}
	}
}

func (o *BaseOptimizer) GetL() float64 {
	return o.l
}

func (o *BaseOptimizer) GetMaxL() float64 {
	return o.maxL
}

func (o *BaseOptimizer) GetMaxLParameters() []float64 {
	return o.maxLPar
}

// Err returns a non-convergence or a setup error of the last run.
func (o *BaseOptimizer) Err() error {
	return o.err
}

func (o *BaseOptimizer) nonConvergence(name string) error {
	return &NonConvergenceError{
		Optimizer:  name,
		Parameters: o.parameters.Names(nil),
		Iterations: o.i,
		Best:       append([]float64(nil), o.maxLPar...),
		LnL:        o.maxL,
	}
}

func (o *BaseOptimizer) summary(name string) Summary {
	s := Summary{
		Optimizer:       name,
		Iterations:      o.i,
		LikelihoodCalls: o.calls,
		MaxLnL:          o.maxL,
		MaxLParameters:  make(map[string]float64, len(o.parameters)),
		Converged:       o.err == nil,
	}
	if o.calls == 0 {
		s.MaxLnL = 0
	}
	for i, par := range o.parameters {
		if i < len(o.maxLPar) {
			s.MaxLParameters[par.Name()] = o.maxLPar[i]
		}
	}
	return s
}
