package glmodel

import (
	"github.com/glmap/glmap/bio"
	"github.com/glmap/glmap/tree"
)

// newickDecimals is the precision of branch lengths in the summary
// trees.
const newickDecimals = 10

// ParametersSummary stores the parameter values used.
type ParametersSummary struct {
	Alpha float64   `json:"alpha"`
	Pi1   float64   `json:"pi1"`
	Scale float64   `json:"scale"`
	NCat  int       `json:"ncat"`
	Rates []float64 `json:"rates"`
}

// NodeSummary stores the results for a single node.
type NodeSummary struct {
	Name         string  `json:"name"`
	Parent       string  `json:"parent,omitempty"`
	BranchLength float64 `json:"branchLength"`
	// Sequence is the most probable state for every position.
	Sequence string `json:"sequence"`
	// Ancestral compares Sequence with the parent sequence.
	Ancestral string    `json:"ancestral,omitempty"`
	Presence  []float64 `json:"presence"`
	Gain      []float64 `json:"gain,omitempty"`
	Loss      []float64 `json:"loss,omitempty"`
	// ExpectedGains and ExpectedLosses are sums of the probabilities
	// over positions.
	ExpectedGains  float64 `json:"expectedGains"`
	ExpectedLosses float64 `json:"expectedLosses"`
	LnL            float64 `json:"lnL"`
}

// Summary contains all the published results of a model. Nodes are
// in pre-order.
type Summary struct {
	LnL         float64           `json:"lnL"`
	PositionLnL []float64         `json:"positionLnL"`
	Parameters  ParametersSummary `json:"parameters"`
	Nodes       []NodeSummary     `json:"nodes"`
	// Tree has internal node names, ScaledTree has branch lengths
	// multiplied by scale.
	Tree       string      `json:"tree"`
	ScaledTree string      `json:"scaledTree"`
	Fit        *FitSummary `json:"fit,omitempty"`
}

func sum(v []float64) (s float64) {
	for _, x := range v {
		s += x
	}
	return
}

// Summary reconstructs the ancestral states if needed and returns
// the results.
func (m *Model) Summary() *Summary {
	m.AncestralComparison()

	s := &Summary{
		LnL:         m.lnL,
		PositionLnL: m.PositionLogLikelihoods(),
		Parameters: ParametersSummary{
			Alpha: m.alpha,
			Pi1:   m.pi1,
			Scale: m.scale,
			NCat:  m.settings.NCat,
			Rates: m.Rates(),
		},
		Tree:       m.tree.Newick(true, newickDecimals),
		ScaledTree: m.ScaledTree().Newick(true, newickDecimals),
	}

	for _, node := range m.tree.PreOrder() {
		gain, loss := m.Gain(node), m.Loss(node)
		ns := NodeSummary{
			Name:           node.Name,
			BranchLength:   node.BranchLength,
			Sequence:       m.Sequence(node),
			Ancestral:      m.AncestralSequence(node),
			Presence:       m.Presence(node),
			Gain:           gain,
			Loss:           loss,
			ExpectedGains:  sum(gain),
			ExpectedLosses: sum(loss),
			LnL:            m.NodeLogLikelihood(node),
		}
		if !node.IsRoot() {
			ns.Parent = node.Parent.Name
		}
		s.Nodes = append(s.Nodes, ns)
	}
	return s
}

// ScaledTree returns a copy of the tree with branch lengths
// multiplied by scale.
func (m *Model) ScaledTree() *tree.Tree {
	t := m.tree.Copy()
	for _, node := range t.Nodes() {
		node.BranchLength *= m.scale
	}
	return t
}

// ReconstructedSequences returns the reconstructed states of all the
// nodes in pre-order. It reconstructs the states if needed.
func (m *Model) ReconstructedSequences() (seqs bio.Sequences) {
	m.Reconstruct()
	for _, node := range m.tree.PreOrder() {
		seqs = append(seqs, bio.Sequence{
			Name:     node.Name,
			Sequence: m.Sequence(node),
		})
	}
	return
}
