/*
Brexp is a simple tool which helps working with trees in newick
format. It shows the node names glmap uses in its output. It has
three modes: "brlen" will export all the branch lengths with node
and parent names, "named" will export the tree with internal node
names and "scaled" will export the tree with branch lengths
multiplied by a scale.
*/
package main

import (
	"fmt"
	"os"

	"github.com/op/go-logging"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/glmap/glmap/tree"
)

var log = logging.MustGetLogger("brexp")

// brlenTable returns one line per non-root node: name, parent name
// and branch length, in pre-order.
func brlenTable(t *tree.Tree, decimals int) (s string) {
	s = "node\tparent\tbranchLength\n"
	for _, node := range t.PreOrder() {
		if node.IsRoot() {
			continue
		}
		s += fmt.Sprintf("%s\t%s\t%.*f\n", node.Name, node.Parent.Name, decimals, node.BranchLength)
	}
	return
}

// scaled returns a copy of the tree with branch lengths multiplied by
// scale.
func scaled(t *tree.Tree, scale float64) *tree.Tree {
	c := t.Copy()
	for _, node := range c.Nodes() {
		node.BranchLength *= scale
	}
	return c
}

func main() {
	infilename := kingpin.Flag("in", "input filename (stdin by default)").String()
	mode := kingpin.Flag("mode", "program mode").Default("brlen").Enum("brlen", "named", "scaled")
	scale := kingpin.Flag("scale", "branch length scale for the scaled mode").Default("1").Float64()
	decimals := kingpin.Flag("decimals", "number of decimals for branch lengths").Default("10").Int()
	kingpin.Parse()

	logging.SetBackend(logging.NewLogBackend(os.Stderr, "", 0))

	infile := os.Stdin
	if *infilename != "" {
		f, err := os.Open(*infilename)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		infile = f
	}

	t, err := tree.ParseNewick(infile)
	if err != nil {
		log.Fatal(err)
	}
	switch *mode {
	case "brlen":
		fmt.Print(brlenTable(t, *decimals))
	case "named":
		fmt.Println(t.Newick(true, *decimals))
	case "scaled":
		fmt.Println(scaled(t, *scale).Newick(true, *decimals))
	}
}
