package glmodel

import (
	"math"
	"path/filepath"
	"reflect"
	"testing"

	bolt "go.etcd.io/bbolt"

	"github.com/glmap/glmap/checkpoint"
)

func TestSteps(tst *testing.T) {
	data := getData(tst, data1)
	for _, c := range []struct {
		name   string
		modify func(*Settings)
		method string
		exp    []string
	}{
		{"default", func(s *Settings) {}, "brent", []string{"scale", "pi1", "alpha", "scale"}},
		{"one category", func(s *Settings) { s.NCat = 1 }, "brent", []string{"scale", "pi1", "scale"}},
		{"scale only", func(s *Settings) { s.OptPi = false; s.OptAlpha = false }, "brent", []string{"scale"}},
		{"empirical", func(s *Settings) { s.EmpiricalPi = true; s.OptAlpha = false }, "brent", []string{"scale", "pi1_empirical"}},
		{"fixed", func(s *Settings) { *s = fixedSettings(4, 0.5) }, "brent", []string{"evaluate"}},
		{"joint", func(s *Settings) { s.EmpiricalPi = true }, "lbfgsb", []string{"pi1_empirical", "joint"}},
		{"simplex", func(s *Settings) {}, "simplex", []string{"joint"}},
		{"none", func(s *Settings) {}, "none", []string{"evaluate"}},
	} {
		s := DefaultSettings()
		c.modify(&s)
		m := newTestModel(tst, data, s)
		if steps := m.Steps(c.method); !reflect.DeepEqual(steps, c.exp) {
			tst.Errorf("%s: steps %v, expected %v", c.name, steps, c.exp)
		}
	}
}

func TestEmpiricalPi(tst *testing.T) {
	data := getData(tst, data1)
	s := fixedSettings(4, 0.5)
	s.OptPi = true
	s.EmpiricalPi = true
	m := newTestModel(tst, data, s)

	summary, err := m.Fit(FitOptions{Method: "brent", Iterations: 10})
	if err != nil {
		tst.Fatal("Error fitting:", err)
	}
	exp := float64(75) / float64(144)
	if pi1 := m.ParameterMap()["pi1"]; pi1 != exp {
		tst.Errorf("empirical pi1 %v != %v", pi1, exp)
	}
	if len(summary.Steps) != 1 || summary.Steps[0].Optimizer != nil {
		tst.Error("empirical step should not use an optimizer:", summary.Steps)
	}
}

func TestEmpiricalPiClamped(tst *testing.T) {
	data := readData(tst, "(a:0.1,b:0.1,c:0.2);", "a", "111", "b", "111", "c", "111")
	s := fixedSettings(1, 0.5)
	s.OptPi = true
	s.EmpiricalPi = true
	m := newTestModel(tst, data, s)
	if pi1 := m.EmpiricalPi1(); pi1 != maxPi1 {
		tst.Error("empirical pi1 should be clamped, got", pi1)
	}
}

func TestFitBrent(tst *testing.T) {
	m := newTestModel(tst, getData(tst, data1), DefaultSettings())
	start := m.LogLikelihood()

	summary, err := m.Fit(FitOptions{Method: "brent", Iterations: 100})
	if err != nil {
		tst.Fatal("Error fitting:", err)
	}
	if summary.LnL < start {
		tst.Errorf("fitted likelihood %v is worse than the starting one %v", summary.LnL, start)
	}
	if len(summary.Steps) != 4 {
		tst.Fatal("wrong number of steps:", len(summary.Steps))
	}
	prev := start
	for _, step := range summary.Steps {
		if step.LnL < prev-smallDiff {
			tst.Errorf("step %s decreased the likelihood: %v < %v", step.Name, step.LnL, prev)
		}
		prev = step.LnL
	}
	if !m.Parameters().InRange() {
		tst.Error("parameters are out of range:", m.ParameterMap())
	}
}

func TestFitNonConvergence(tst *testing.T) {
	m := newTestModel(tst, getData(tst, data1), DefaultSettings())
	summary, err := m.Fit(FitOptions{Method: "brent", Iterations: 1})
	if err != nil {
		tst.Fatal("non-convergence should not be an error:", err)
	}
	if len(summary.NonConverged) != len(summary.Steps) {
		tst.Error("all the steps should be reported as non-converged:", summary.NonConverged)
	}
}

func TestFitJoint(tst *testing.T) {
	if testing.Short() {
		tst.Skip("skipping joint optimization in short mode")
	}
	for _, method := range []string{"lbfgsb", "simplex"} {
		m := newTestModel(tst, getData(tst, data1), DefaultSettings())
		start := m.LogLikelihood()
		summary, err := m.Fit(FitOptions{Method: method, Iterations: 200})
		if err != nil {
			tst.Fatalf("%s: error fitting: %v", method, err)
		}
		if summary.LnL < start {
			tst.Errorf("%s: fitted likelihood %v is worse than %v", method, summary.LnL, start)
		}
	}
}

func TestFitUnknownMethod(tst *testing.T) {
	m := newTestModel(tst, getData(tst, data1), DefaultSettings())
	if _, err := m.Fit(FitOptions{Method: "newton"}); err == nil {
		tst.Error("expected an error for an unknown method")
	}
}

func TestFitCheckpoint(tst *testing.T) {
	db, err := bolt.Open(filepath.Join(tst.TempDir(), "cp.db"), 0600, nil)
	if err != nil {
		tst.Fatal("Error opening database:", err)
	}
	defer db.Close()
	cp := checkpoint.NewIO(db, []byte(data1))

	m1 := newTestModel(tst, getData(tst, data1), DefaultSettings())
	s1, err := m1.Fit(FitOptions{Method: "brent", Iterations: 100, Checkpoint: cp})
	if err != nil {
		tst.Fatal("Error fitting:", err)
	}

	saved, err := cp.Load()
	if err != nil || saved == nil {
		tst.Fatal("checkpoint was not saved:", err)
	}
	if !saved.Final || saved.Step != len(s1.Steps) {
		tst.Error("wrong checkpoint:", saved)
	}

	// all the steps are restored from the checkpoint
	m2 := newTestModel(tst, getData(tst, data1), DefaultSettings())
	s2, err := m2.Fit(FitOptions{Method: "brent", Iterations: 100, Checkpoint: cp})
	if err != nil {
		tst.Fatal("Error fitting:", err)
	}
	for _, step := range s2.Steps {
		if !step.Restored {
			tst.Error("step should be restored:", step.Name)
		}
	}
	if s2.LnL != s1.LnL || !reflect.DeepEqual(s2.Parameters, s1.Parameters) {
		tst.Errorf("restored fit differs: %v %v != %v %v", s2.LnL, s2.Parameters, s1.LnL, s1.Parameters)
	}
}

func TestSetParameterMap(tst *testing.T) {
	m := newTestModel(tst, getData(tst, data1), DefaultSettings())
	if err := m.SetParameterMap(map[string]float64{"pi1": 0.3, "scale": 2}); err != nil {
		tst.Fatal(err)
	}
	if p := m.ParameterMap(); p["pi1"] != 0.3 || p["scale"] != 2 || p["alpha"] != 0.5 {
		tst.Error("wrong parameters:", p)
	}
	if err := m.SetParameterMap(map[string]float64{"pi1": 1.5}); err == nil {
		tst.Error("expected an error for pi1 out of range")
	}
	if err := m.SetParameterMap(map[string]float64{"alpha": math.NaN()}); err == nil {
		tst.Error("expected an error for NaN alpha")
	}
	if err := m.SetParameterMap(map[string]float64{"kappa": 1}); err == nil {
		tst.Error("expected an error for an unknown parameter")
	}
	if m.ParameterMap()["pi1"] != 0.3 {
		tst.Error("failed update should not change parameters")
	}
}
