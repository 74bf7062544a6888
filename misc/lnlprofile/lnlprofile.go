// Lnlprofile plots the log-likelihood of the gain/loss model as a
// function of a single parameter, the other parameters are fixed.
package main

import (
	"fmt"
	"os"

	"github.com/op/go-logging"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/glmap/glmap/glmodel"
	"github.com/glmap/glmap/optimize"
)

var log = logging.MustGetLogger("lnlprofile")

var (
	app = kingpin.New("lnlprofile", "log-likelihood profile of a gain/loss model parameter")

	alignmentFileName = app.Arg("alignment", "phyletic pattern alignment (0/1 FASTA)").Required().ExistingFile()
	treeFileName      = app.Arg("tree", "rooted phylogenetic tree").Required().ExistingFile()

	parName = app.Flag("parameter", "parameter to vary").Default("pi1").Enum("pi1", "alpha", "scale")
	npoints = app.Flag("points", "number of points between the parameter bounds").Default("50").Int()
	values  = app.Flag("values", "space separated parameter values (overrides -points)").String()

	ncat  = app.Flag("ncat", "number of gamma rate categories").Default("4").Int()
	alpha = app.Flag("alpha", "gamma shape parameter").Default("0.5").Float64()
	pi1   = app.Flag("pi1", "stationary frequency of presence").Default("0.5").Float64()
	scale = app.Flag("scale", "branch length scale").Default("1").Float64()

	outF = app.Flag("png", "output image").Default("profile.png").String()
	size = app.Flag("size", "image size in inches").Default("5").Float64()
)

// grid returns n points evenly covering [min, max].
func grid(min, max float64, n int) []float64 {
	if n < 2 {
		return []float64{(min + max) / 2}
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = min + (max-min)*float64(i)/float64(n-1)
	}
	return xs
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))
	logging.SetBackend(logging.NewLogBackend(os.Stderr, "", 0))
	logging.SetLevel(logging.WARNING, "glmodel")

	data, err := glmodel.NewData(*alignmentFileName, *treeFileName)
	if err != nil {
		log.Fatal(err)
	}

	s := glmodel.Settings{
		NCat:  *ncat,
		Alpha: *alpha,
		Pi1:   *pi1,
		Scale: *scale,
	}
	m, err := glmodel.NewModel(data, s)
	if err != nil {
		log.Fatal(err)
	}

	par := m.Parameters().ByName(*parName)
	var xs []float64
	if *values != "" {
		xs, err = optimize.ReadFloats(*values)
		if err != nil {
			log.Fatal("Error parsing values:", err)
		}
	} else {
		xs = grid(par.GetMin(), par.GetMax(), *npoints)
	}

	pts := make(plotter.XYs, 0, len(xs))
	for _, x := range xs {
		if !par.ValueInRange(x) {
			log.Warningf("Skipping %s=%v, outside of [%v, %v]", *parName, x, par.GetMin(), par.GetMax())
			continue
		}
		par.Set(x)
		l := m.LogLikelihood()
		fmt.Printf("%v\t%v\n", x, l)
		pts = append(pts, plotter.XY{X: x, Y: l})
	}
	if len(pts) == 0 {
		log.Fatal("No values to plot")
	}

	p := plot.New()
	p.Title.Text = "Log-likelihood profile"
	p.X.Label.Text = *parName
	p.Y.Label.Text = "lnL"

	line, err := plotter.NewLine(pts)
	if err != nil {
		log.Fatal(err)
	}
	p.Add(line, plotter.NewGrid())

	if err := p.Save(vg.Length(*size)*vg.Inch, vg.Length(*size)*vg.Inch, *outF); err != nil {
		log.Fatal(err)
	}
}
