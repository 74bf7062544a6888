package glmodel

import (
	"errors"
	"fmt"
	"io"

	"github.com/glmap/glmap/checkpoint"
	"github.com/glmap/glmap/metrics"
	"github.com/glmap/glmap/optimize"
)

// Names of the fitting steps which are not a search over one
// parameter.
const (
	stepEmpiricalPi = "pi1_empirical"
	stepJoint       = "joint"
	stepEvaluate    = "evaluate"
)

// Fitting methods.
var Methods = []string{"brent", "lbfgsb", "simplex", "none"}

// FitOptions control the fitting pipeline.
type FitOptions struct {
	// Method is one of Methods.
	Method     string
	Iterations int
	// ReportPeriod is the period of trajectory lines; 0 keeps the
	// optimizer default.
	ReportPeriod int
	Trajectory   io.Writer
	// Checkpoint allows to continue an interrupted fit, may be nil.
	Checkpoint *checkpoint.IO
}

// StepSummary describes a single fitting step.
type StepSummary struct {
	Name      string             `json:"name"`
	Optimizer *optimize.Summary  `json:"optimizer,omitempty"`
	LnL       float64            `json:"lnL"`
	Values    map[string]float64 `json:"parameters"`
	Restored  bool               `json:"restored,omitempty"`
}

// FitSummary describes the whole pipeline.
type FitSummary struct {
	Method       string             `json:"method"`
	Steps        []StepSummary      `json:"steps"`
	NonConverged []string           `json:"nonConverged,omitempty"`
	LnL          float64            `json:"lnL"`
	Parameters   map[string]float64 `json:"parameters"`
}

// Steps returns the names of the fitting steps for a method. For
// brent these are the parameters in the order they are searched:
// scale, pi1, alpha and scale again if pi1 or alpha was searched.
// Joint methods optimize all the free parameters in a single step.
func (m *Model) Steps(method string) (steps []string) {
	s := m.settings
	empirical := s.OptPi && s.EmpiricalPi

	if method == "brent" {
		searched := false
		if s.OptScale {
			steps = append(steps, "scale")
		}
		if empirical {
			steps = append(steps, stepEmpiricalPi)
		} else if s.OptPi {
			steps = append(steps, "pi1")
			searched = true
		}
		if m.parameters.ByName("alpha") != nil {
			steps = append(steps, "alpha")
			searched = true
		}
		if s.OptScale && searched {
			steps = append(steps, "scale")
		}
		if len(steps) == 0 {
			steps = append(steps, stepEvaluate)
		}
		return
	}

	if empirical {
		steps = append(steps, stepEmpiricalPi)
	}
	if method == "none" || len(m.parameters) == 0 {
		return append(steps, stepEvaluate)
	}
	return append(steps, stepJoint)
}

// EmpiricalPi1 returns the observed frequency of state 1 clamped to
// the pi1 bounds.
func (m *Model) EmpiricalPi1() float64 {
	p := m.data.StateFrequency()
	switch {
	case p < minPi1:
		log.Warningf("Observed frequency of state 1 (%v) is below %v", p, minPi1)
		return minPi1
	case p > maxPi1:
		log.Warningf("Observed frequency of state 1 (%v) is above %v", p, maxPi1)
		return maxPi1
	}
	return p
}

func newOptimizer(method string) (optimize.Optimizer, error) {
	switch method {
	case "lbfgsb":
		return optimize.NewLBFGSB(), nil
	case "simplex":
		return optimize.NewDS(), nil
	case "none":
		return optimize.NewNone(), nil
	}
	return nil, fmt.Errorf("unknown optimization method: %s", method)
}

// runStep performs a single step and returns the optimizer summary
// (nil for the closed form steps).
func (m *Model) runStep(step string, opts FitOptions) (*optimize.Summary, error) {
	var opt optimize.Optimizer
	var err error
	switch step {
	case stepEmpiricalPi:
		pi1 := m.EmpiricalPi1()
		log.Infof("Empirical pi1=%v", pi1)
		m.allParameters.ByName("pi1").Set(pi1)
		m.LogLikelihood()
		return nil, nil
	case stepEvaluate:
		opt = optimize.NewNone()
	case stepJoint:
		opt, err = newOptimizer(opts.Method)
		if err != nil {
			return nil, err
		}
	default:
		opt = optimize.NewBrent(step)
	}

	opt.SetOptimizable(m)
	if err := opt.Err(); err != nil {
		return nil, err
	}
	if opts.Trajectory != nil {
		opt.SetOutput(opts.Trajectory)
	}
	if opts.ReportPeriod > 0 {
		opt.SetReportPeriod(opts.ReportPeriod)
	}
	opt.Run(opts.Iterations)

	var nce *optimize.NonConvergenceError
	if err := opt.Err(); err != nil && !errors.As(err, &nce) {
		return nil, err
	}
	s := opt.Summary()
	return &s, opt.Err()
}

// Fit runs the fitting pipeline. Steps which do not converge keep the
// best point found; they are listed in the summary and the fitting
// continues. With a checkpoint the parameters are saved after every
// step and completed steps are skipped on restart.
func (m *Model) Fit(opts FitOptions) (*FitSummary, error) {
	switch opts.Method {
	case "brent", "lbfgsb", "simplex", "none":
	default:
		return nil, fmt.Errorf("unknown optimization method: %s", opts.Method)
	}

	steps := m.Steps(opts.Method)
	summary := &FitSummary{Method: opts.Method}

	done := 0
	if opts.Checkpoint != nil {
		data, err := opts.Checkpoint.Load()
		if err != nil {
			return nil, fmt.Errorf("loading checkpoint: %w", err)
		}
		if data != nil {
			if err := m.SetParameterMap(data.Parameters); err != nil {
				return nil, fmt.Errorf("restoring checkpoint: %w", err)
			}
			done = data.Step
			if done > len(steps) {
				done = len(steps)
			}
			for _, step := range steps[:done] {
				summary.Steps = append(summary.Steps, StepSummary{
					Name:     step,
					LnL:      data.LnL,
					Values:   data.Parameters,
					Restored: true,
				})
			}
		}
	}

	for i := done; i < len(steps); i++ {
		step := steps[i]
		log.Infof("Fitting step %d/%d: %s", i+1, len(steps), step)

		optSummary, err := m.runStep(step, opts)
		var nce *optimize.NonConvergenceError
		if errors.As(err, &nce) {
			log.Warning(err)
			metrics.NonConvergence.WithLabelValues(step).Inc()
			summary.NonConverged = append(summary.NonConverged, step)
		} else if err != nil {
			return nil, fmt.Errorf("step %s: %w", step, err)
		}

		lnL := m.LogLikelihood()
		values := m.ParameterMap()
		log.Infof("Step %s: lnL=%f, %v", step, lnL, values)
		summary.Steps = append(summary.Steps, StepSummary{
			Name:      step,
			Optimizer: optSummary,
			LnL:       lnL,
			Values:    values,
		})

		if opts.Checkpoint != nil {
			err := opts.Checkpoint.Save(&checkpoint.Data{
				Parameters: values,
				LnL:        lnL,
				Step:       i + 1,
				Final:      i == len(steps)-1,
			})
			if err != nil {
				return nil, fmt.Errorf("saving checkpoint: %w", err)
			}
		}
	}

	summary.LnL = m.LogLikelihood()
	summary.Parameters = m.ParameterMap()
	return summary, nil
}
