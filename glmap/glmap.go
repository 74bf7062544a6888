/*

Glmap fits the two-state gain/loss model to a phyletic pattern
alignment and reconstructs the states of the ancestral nodes with
the gain and loss probabilities of every branch.

The basic usage of glmap looks like this:

	glmap patterns.fst tree.nwk

, this will fit the branch length scale, the stationary frequency and
the gamma shape parameter one after another using the Brent method.

You can use the observed frequency of presence and a joint optimizer:

	glmap -empiricalpi -method lbfgsb patterns.fst tree.nwk

To see all the options run:

	glmap -h

*/
package main

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/op/go-logging"
	bolt "go.etcd.io/bbolt"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/glmap/glmap/checkpoint"
	"github.com/glmap/glmap/glmodel"
	"github.com/glmap/glmap/metrics"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("glmap")
var formatter = logging.MustStringFormatter(`%{message}`)

var (
	app = kingpin.New("glmap", "gain/loss mapping of phyletic patterns").Version(version)

	alignmentFileName = app.Arg("alignment", "phyletic pattern alignment (0/1 FASTA)").Required().ExistingFile()
	treeFileName      = app.Arg("tree", "rooted phylogenetic tree").Required().ExistingFile()

	// model
	ncat        = app.Flag("ncat", "number of gamma rate categories").Default("4").Int()
	alpha       = app.Flag("alpha", "gamma shape parameter (starting value)").Default("0.5").Float64()
	pi1         = app.Flag("pi1", "stationary frequency of presence (starting value)").Default("0.5").Float64()
	scale       = app.Flag("scale", "branch length scale (starting value)").Default("1").Float64()
	median      = app.Flag("median", "use medians instead of means for the gamma categories").Bool()
	noOptPi     = app.Flag("nooptpi", "don't optimize pi1").Bool()
	empiricalPi = app.Flag("empiricalpi", "use the observed frequency of presence as pi1").Bool()
	noOptAlpha  = app.Flag("nooptalpha", "don't optimize the gamma shape parameter").Bool()
	noOptScale  = app.Flag("nooptscale", "don't optimize the branch length scale").Bool()

	// optimizer
	method = app.Flag("method", "optimization method to use "+
		"(brent: one parameter after another, "+
		"lbfgsb: joint L-BFGS-B, "+
		"simplex: joint downhill simplex, "+
		"none: just compute likelihood)").
		Default("brent").Enum(glmodel.Methods...)
	iterations = app.Flag("iter", "number of iterations").Default("100").Int()
	report     = app.Flag("report", "report every N iterations").Default("10").Int()

	// checkpoint and performance
	checkpointF = app.Flag("checkpoint", "checkpoint database, allows to continue an interrupted fit").String()
	metricsF    = app.Flag("metrics", "write metrics in the prometheus textfile format").String()
	cpuProfile  = app.Flag("cpuprofile", "write cpu profile to file").String()

	// output
	outLogF  = app.Flag("log", "write log to a file").String()
	outF     = app.Flag("out", "write optimization trajectory to a file").String()
	outTreeF = app.Flag("outtree", "write tree with internal node names to a file").String()
	ancF     = app.Flag("ancestral", "write reconstructed node states in FASTA format to a file").String()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"(CRITICAL, ERROR, WARNING, NOTICE, INFO, DEBUG)").
		Default("INFO").String()
	jsonF = app.Flag("json", "write json output to a file").String()
)

// settings returns the model settings from the command line.
func settings() glmodel.Settings {
	return glmodel.Settings{
		NCat:        *ncat,
		Alpha:       *alpha,
		Pi1:         *pi1,
		Scale:       *scale,
		UseMedian:   *median,
		OptPi:       !*noOptPi,
		EmpiricalPi: *empiricalPi,
		OptAlpha:    !*noOptAlpha,
		OptScale:    !*noOptScale,
	}
}

// checkpointKey identifies the input data, the settings and the
// method.
func checkpointKey(data *glmodel.Data, s glmodel.Settings) []byte {
	h := sha256.New()
	io.WriteString(h, data.Alignment.String())
	io.WriteString(h, data.Tree.Newick(true, 10))
	j, err := json.Marshal(s)
	if err != nil {
		log.Fatal(err)
	}
	h.Write(j)
	io.WriteString(h, *method)
	return h.Sum(nil)
}

func openCheckpoint(fn string, key []byte) (*checkpoint.IO, *bolt.DB) {
	db, err := bolt.Open(fn, 0666, &bolt.Options{Timeout: time.Second})
	if err != nil {
		log.Fatal("Error opening checkpoint database:", err)
	}
	log.Infof("Using checkpoint database %s", fn)
	return checkpoint.NewIO(db, key), db
}

func writeFile(fn, content, what string) {
	f, err := os.Create(fn)
	if err != nil {
		log.Errorf("Error creating %s file: %v", what, err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(content + "\n"); err != nil {
		log.Errorf("Error writing %s file: %v", what, err)
	}
}

func run() *RunSummary {
	startTime := time.Now()
	summary := &RunSummary{}

	data, err := glmodel.NewData(*alignmentFileName, *treeFileName)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("intree=%s", data.Tree)

	s := settings()
	m, err := glmodel.NewModel(data, s)
	if err != nil {
		log.Fatal(err)
	}
	free := m.GetFloatParameters()
	log.Infof("%d gamma categories, optimizing %s", s.NCat, free.NamesString())

	f := os.Stdout
	if *outF != "" {
		f, err = os.Create(*outF)
		if err != nil {
			log.Fatal("Error creating trajectory file:", err)
		}
		defer f.Close()
	}

	opts := glmodel.FitOptions{
		Method:       *method,
		Iterations:   *iterations,
		ReportPeriod: *report,
		Trajectory:   f,
	}
	if *checkpointF != "" {
		cp, db := openCheckpoint(*checkpointF, checkpointKey(data, s))
		defer db.Close()
		opts.Checkpoint = cp
	}

	log.Infof("Using %s optimization.", *method)
	fit, err := m.Fit(opts)
	if err != nil {
		log.Fatal(err)
	}
	if len(fit.NonConverged) > 0 {
		log.Warningf("Steps which did not converge: %v", fit.NonConverged)
	}
	log.Noticef("lnL=%f", fit.LnL)
	log.Noticef("parameters=%v", fit.Parameters)

	summary.Model = m.Summary()
	summary.Model.Fit = fit
	log.Infof("outtree=%s", summary.Model.Tree)

	if *outTreeF != "" {
		writeFile(*outTreeF, summary.Model.Tree, "tree output")
	}
	if *ancF != "" {
		writeFile(*ancF, m.ReconstructedSequences().String(), "ancestral states")
	}

	deltaT := time.Since(startTime)
	log.Noticef("Running time: %v", deltaT)
	summary.Time = deltaT.Seconds()
	return summary
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	for _, module := range []string{"glmap", "glmodel", "optimize", "checkpoint"} {
		logging.SetLevel(level, module)
	}

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	summary := run()
	summary.Version = version
	summary.CommandLine = os.Args

	if *metricsF != "" {
		if err := metrics.WriteTextfile(*metricsF); err != nil {
			log.Error("Error writing metrics:", err)
		}
	}

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}
