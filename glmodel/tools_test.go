package glmodel

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/op/go-logging"
)

const (
	// six taxa, 24 positions
	data1 = "six"

	smallDiff = 1e-9
)

func init() {
	logging.SetLevel(logging.ERROR, "glmodel")
	logging.SetLevel(logging.ERROR, "optimize")
	logging.SetLevel(logging.ERROR, "checkpoint")
}

// getData reads testdata/name.nwk and testdata/name.fst.
func getData(tst *testing.T, name string) *Data {
	data, err := NewData(filepath.Join("testdata", name+".fst"), filepath.Join("testdata", name+".nwk"))
	if err != nil {
		tst.Fatal("Error reading data:", err)
	}
	return data
}

// readData parses an alignment given as name/sequence pairs.
func readData(tst *testing.T, newick string, ali ...string) *Data {
	var b strings.Builder
	for i := 0; i+1 < len(ali); i += 2 {
		b.WriteString(">" + ali[i] + "\n" + ali[i+1] + "\n")
	}
	data, err := ReadData(strings.NewReader(b.String()), strings.NewReader(newick))
	if err != nil {
		tst.Fatal("Error reading data:", err)
	}
	return data
}

func newTestModel(tst *testing.T, data *Data, s Settings) *Model {
	m, err := NewModel(data, s)
	if err != nil {
		tst.Fatal("Error creating model:", err)
	}
	return m
}

// fixedSettings returns settings with nothing optimized.
func fixedSettings(ncat int, pi1 float64) Settings {
	s := DefaultSettings()
	s.NCat = ncat
	s.Pi1 = pi1
	s.OptPi = false
	s.OptAlpha = false
	s.OptScale = false
	return s
}
