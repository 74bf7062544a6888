package glmodel

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/glmap/glmap/bio"
	"github.com/glmap/glmap/tree"
)

// Data is a tree with a phyletic pattern alignment: one string over
// {0, 1} per leaf.
type Data struct {
	Tree      *tree.Tree
	Alignment bio.Sequences
}

// NewData reads and validates the alignment (FASTA) and the tree
// (Newick) files.
func NewData(alignmentFileName string, treeFileName string) (*Data, error) {
	fastaFile, err := os.Open(alignmentFileName)
	if err != nil {
		return nil, err
	}
	defer fastaFile.Close()

	treeFile, err := os.Open(treeFileName)
	if err != nil {
		return nil, err
	}
	defer treeFile.Close()

	return ReadData(fastaFile, treeFile)
}

// ReadData parses and validates the alignment and the tree.
func ReadData(alignment io.Reader, newick io.Reader) (*Data, error) {
	ali, err := bio.ParseFasta(alignment)
	if err != nil {
		return nil, fmt.Errorf("reading alignment: %w", err)
	}

	t, err := tree.ParseNewick(newick)
	if err != nil {
		return nil, fmt.Errorf("reading tree: %w", err)
	}

	data := &Data{Tree: t, Alignment: ali}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	log.Infof("Read alignment of %d taxa and %d positions", len(ali), data.NPositions())
	log.Debugf("intree=%s", t)
	if zero := data.ZeroBranches(); len(zero) > 0 {
		log.Warningf("Zero length branches: %s", strings.Join(zero, ", "))
	}

	return data, nil
}

// Validate checks that the alignment is a valid phyletic pattern
// alignment and that its taxa are exactly the tree leaves.
func (data *Data) Validate() error {
	ali := data.Alignment
	if len(ali) < 2 {
		return &ValidationError{Msg: fmt.Sprintf("alignment has %d sequences, at least 2 are required", len(ali))}
	}

	length := len(ali[0].Sequence)
	if length == 0 {
		return &ValidationError{Taxon: ali[0].Name, Msg: "zero length alignment"}
	}

	taxa := make(map[string]bool, len(ali))
	for _, seq := range ali {
		if taxa[seq.Name] {
			return &ValidationError{Taxon: seq.Name, Msg: "duplicate taxon in alignment"}
		}
		taxa[seq.Name] = true
		if len(seq.Sequence) != length {
			return &ValidationError{
				Taxon: seq.Name,
				Msg:   fmt.Sprintf("sequence length %d differs from %d", len(seq.Sequence), length),
			}
		}
		for i := 0; i < len(seq.Sequence); i++ {
			if c := seq.Sequence[i]; c != '0' && c != '1' {
				return &ValidationError{
					Taxon:    seq.Name,
					Position: i + 1,
					Msg:      fmt.Sprintf("character %q is not 0 or 1", c),
				}
			}
		}
	}

	names := make(map[string]bool, data.Tree.NNodes())
	for _, node := range data.Tree.PreOrder() {
		if names[node.Name] {
			return &ValidationError{Taxon: node.Name, Msg: "duplicate node name in tree"}
		}
		names[node.Name] = true
	}

	leaves := make(map[string]bool, len(ali))
	for _, leaf := range data.Tree.Leaves() {
		leaves[leaf.Name] = true
		if !taxa[leaf.Name] {
			return &ValidationError{Taxon: leaf.Name, Msg: "tree leaf is missing from alignment"}
		}
	}
	for _, seq := range ali {
		if !leaves[seq.Name] {
			return &ValidationError{Taxon: seq.Name, Msg: "alignment taxon is missing from tree"}
		}
	}

	for _, node := range data.Tree.Nodes() {
		if !(node.BranchLength >= 0) || math.IsInf(node.BranchLength, 1) {
			return &ValidationError{
				Taxon: node.Name,
				Msg:   fmt.Sprintf("branch length %g is not a finite non-negative number", node.BranchLength),
			}
		}
	}

	return nil
}

// NPositions returns the alignment length.
func (data *Data) NPositions() int {
	if len(data.Alignment) == 0 {
		return 0
	}
	return len(data.Alignment[0].Sequence)
}

// StateFrequency returns the observed frequency of state 1 over all
// the leaf sequences.
func (data *Data) StateFrequency() float64 {
	ones, total := 0, 0
	for _, seq := range data.Alignment {
		ones += strings.Count(seq.Sequence, "1")
		total += len(seq.Sequence)
	}
	return float64(ones) / float64(total)
}

// ZeroBranches returns names of non-root nodes with zero branch
// length.
func (data *Data) ZeroBranches() (names []string) {
	for _, node := range data.Tree.PreOrder() {
		if !node.IsRoot() && node.BranchLength == 0 {
			names = append(names, node.Name)
		}
	}
	return
}

// Copy creates a copy (only new tree is created).
func (data *Data) Copy() *Data {
	return &Data{
		Tree:      data.Tree.Copy(),
		Alignment: data.Alignment,
	}
}

// sequences returns the alignment rows ordered by leaf ID.
func (data *Data) sequences() [][]byte {
	byName := make(map[string]string, len(data.Alignment))
	for _, seq := range data.Alignment {
		byName[seq.Name] = seq.Sequence
	}
	rows := make([][]byte, data.Tree.NLeaves())
	for _, leaf := range data.Tree.Leaves() {
		rows[leaf.LeafID] = []byte(byName[leaf.Name])
	}
	return rows
}
