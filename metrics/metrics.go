// Package metrics keeps Prometheus collectors describing the
// likelihood computations of a run. They are written to a file in the
// node exporter textfile format at the end of a run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all the collectors of the package.
var Registry = prometheus.NewRegistry()

var (
	// Evaluations counts complete likelihood passes over the alignment.
	Evaluations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "glmap_likelihood_evaluations_total",
		Help: "Number of likelihood passes over the alignment.",
	})
	// Underflows counts positions with a likelihood below the smallest
	// positive float64.
	Underflows = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "glmap_underflow_positions_total",
		Help: "Number of alignment positions whose likelihood underflowed.",
	})
	// NonConvergence counts optimizer runs which hit the iteration
	// limit, by fitting step.
	NonConvergence = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "glmap_optimizer_nonconvergence_total",
		Help: "Number of optimizer runs exhausting their iteration budget.",
	}, []string{"step"})
	// LogLikelihood is the last computed log-likelihood.
	LogLikelihood = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "glmap_log_likelihood",
		Help: "Last computed log-likelihood of the tree.",
	})
)

func init() {
	Registry.MustRegister(Evaluations, Underflows, NonConvergence, LogLikelihood)
}

// WriteTextfile writes all the metrics to a file.
func WriteTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, Registry)
}
