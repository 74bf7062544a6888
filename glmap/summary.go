package main

import "github.com/glmap/glmap/glmodel"

// RunSummary is storing glmap run summary information.
type RunSummary struct {
	// Version stores glmap version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Time is the computations time in seconds.
	Time float64 `json:"time"`
	// Model contains the likelihood, the fitted parameters and
	// the per node results.
	Model *glmodel.Summary `json:"model"`
}
