// Dgamma prints the rates of the discrete gamma categories used by
// the gain/loss model.
package main

import (
	"fmt"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/glmap/glmap/dist"
)

func main() {
	alpha := kingpin.Flag("alpha", "gamma shape parameter").Default("0.5").Float64()
	ncat := kingpin.Flag("ncat", "number of categories").Default("4").Int()
	useMedian := kingpin.Flag("median", "use median instead of mean").Bool()
	kingpin.Parse()

	if *ncat < 1 || *alpha <= 0 {
		kingpin.Fatalf("ncat has to be positive and alpha has to be above zero")
	}

	r := dist.GammaRates(*alpha, *ncat, *useMedian)
	mean := 0.0
	for i, v := range r {
		fmt.Printf("%d\t%.10f\n", i+1, v)
		mean += v
	}
	fmt.Printf("mean\t%.10f\n", mean/float64(len(r)))
}
