// Package glmodel implements the two-state gain/loss model of
// phyletic patterns: the likelihood of a tree, marginal reconstruction
// of the node states and per-branch gain and loss probabilities.
package glmodel

import (
	"fmt"
	"math"

	"github.com/op/go-logging"

	"github.com/glmap/glmap/optimize"
	"github.com/glmap/glmap/tree"
)

var log = logging.MustGetLogger("glmodel")

// Number of character states, 0 is absence and 1 is presence.
const nState = 2

// Position likelihoods are never smaller than eps.
const eps = math.SmallestNonzeroFloat64

// Parameter bounds.
const (
	minPi1   = 0.001
	maxPi1   = 0.999
	minAlpha = 0.1
	maxAlpha = 20
	minScale = 0.1
	maxScale = 10
	minNCat  = 1
	maxNCat  = 16
)

type vector [nState]float64

type pmatrix [nState][nState]float64

var identity = pmatrix{{1, 0}, {0, 1}}

// State is the computation state of a model output.
type State int

const (
	// Uninitialized outputs have to be computed before use.
	Uninitialized State = iota
	// Computed outputs are valid for the current parameters.
	Computed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Computed:
		return "computed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// nodeData is the per-node engine state, indexed by rate category
// where applicable.
type nodeData struct {
	up       []vector
	down     []vector
	marginal []vector
	p        []pmatrix
	prob     vector
	// seq is the reconstructed state for every position.
	seq []byte
	// anc compares seq with the parent sequence.
	anc []byte
	// presence is the posterior probability of state 1.
	presence []float64
	gain     []float64
	loss     []float64
	lnL      float64
}

// Settings are the model hyperparameters and optimization flags.
type Settings struct {
	NCat      int
	Alpha     float64
	Pi1       float64
	Scale     float64
	UseMedian bool
	// OptPi enables the pi1 search, EmpiricalPi replaces it with
	// the observed frequency of state 1.
	OptPi       bool
	EmpiricalPi bool
	OptAlpha    bool
	OptScale    bool
}

// DefaultSettings returns the default settings: four rate categories
// and all the parameters optimized.
func DefaultSettings() Settings {
	return Settings{
		NCat:     4,
		Alpha:    0.5,
		Pi1:      0.5,
		Scale:    1,
		OptPi:    true,
		OptAlpha: true,
		OptScale: true,
	}
}

// Validate checks the hyperparameter bounds.
func (s Settings) Validate() error {
	if s.NCat < minNCat || s.NCat > maxNCat {
		return &ValidationError{
			Parameter: "ncat",
			Msg:       fmt.Sprintf("value %d is outside of [%d, %d]", s.NCat, minNCat, maxNCat),
		}
	}
	if err := checkRange("alpha", s.Alpha, minAlpha, maxAlpha); err != nil {
		return err
	}
	if err := checkRange("pi1", s.Pi1, minPi1, maxPi1); err != nil {
		return err
	}
	return checkRange("scale", s.Scale, minScale, maxScale)
}

// Model is the gain/loss model of a single tree and alignment. It is
// not safe for concurrent use, use Copy to get an independent model.
type Model struct {
	data     *Data
	tree     *tree.Tree
	settings Settings
	// rows holds the alignment by leaf ID.
	rows [][]byte
	// siblings by node ID.
	siblings [][]*tree.Node
	nodes    []nodeData

	pi1, alpha, scale float64
	rates             []float64
	ratesDone         bool
	freq              vector

	// allParameters are pi1, alpha and scale; parameters is the
	// subset to be optimized.
	allParameters optimize.FloatParameters
	parameters    optimize.FloatParameters

	lnL         float64
	positionLnL []float64
	underflows  int

	likState State
	recState State
	ancState State
}

// NewModel creates a model for the data.
func NewModel(data *Data, settings Settings) (*Model, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return newModel(data, settings), nil
}

func newModel(data *Data, settings Settings) *Model {
	m := &Model{
		data:     data,
		tree:     data.Tree,
		settings: settings,
		rows:     data.sequences(),
		pi1:      settings.Pi1,
		alpha:    settings.Alpha,
		scale:    settings.Scale,
	}

	nNodes := m.tree.NNodes()
	ncat := settings.NCat
	m.nodes = make([]nodeData, nNodes)
	m.siblings = make([][]*tree.Node, nNodes)
	for _, node := range m.tree.Nodes() {
		m.nodes[node.ID] = nodeData{
			up:       make([]vector, ncat),
			down:     make([]vector, ncat),
			marginal: make([]vector, ncat),
			p:        make([]pmatrix, ncat),
		}
		m.siblings[node.ID] = node.Siblings()
	}

	m.setupParameters()
	return m
}

func (m *Model) setupParameters() {
	m.allParameters = nil
	m.parameters = nil

	pi1 := optimize.NewBasicFloatParameter(&m.pi1, "pi1")
	pi1.SetMin(minPi1)
	pi1.SetMax(maxPi1)
	pi1.SetOnChange(m.Reset)

	alpha := optimize.NewBasicFloatParameter(&m.alpha, "alpha")
	alpha.SetMin(minAlpha)
	alpha.SetMax(maxAlpha)
	alpha.SetOnChange(func() {
		m.ratesDone = false
		m.Reset()
	})

	scale := optimize.NewBasicFloatParameter(&m.scale, "scale")
	scale.SetMin(minScale)
	scale.SetMax(maxScale)
	scale.SetOnChange(m.Reset)

	m.allParameters.Append(pi1)
	m.allParameters.Append(alpha)
	m.allParameters.Append(scale)

	if m.settings.OptScale {
		m.parameters.Append(scale)
	}
	if m.settings.OptPi && !m.settings.EmpiricalPi {
		m.parameters.Append(pi1)
	}
	if m.settings.OptAlpha && m.settings.NCat > 1 {
		m.parameters.Append(alpha)
	}
}

// GetFloatParameters returns the parameters to be optimized.
func (m *Model) GetFloatParameters() optimize.FloatParameters {
	return m.parameters
}

// Parameters returns all the model parameters.
func (m *Model) Parameters() *optimize.FloatParameters {
	return &m.allParameters
}

// Likelihood returns the log-likelihood, it is used by optimizers.
func (m *Model) Likelihood() float64 {
	return m.LogLikelihood()
}

// Copy creates an independent model with the same settings and
// parameter values.
func (m *Model) Copy() optimize.Optimizable {
	s := m.Settings()
	return newModel(m.data.Copy(), s)
}

// Settings returns the model settings with the current parameter
// values.
func (m *Model) Settings() Settings {
	s := m.settings
	s.Pi1 = m.pi1
	s.Alpha = m.alpha
	s.Scale = m.scale
	return s
}

// ParameterMap returns the values of all the parameters.
func (m *Model) ParameterMap() map[string]float64 {
	return m.allParameters.ValuesMap()
}

// SetParameterMap sets parameter values. Unknown names and values out
// of bounds are rejected and nothing is changed.
func (m *Model) SetParameterMap(values map[string]float64) error {
	for name, v := range values {
		par := m.allParameters.ByName(name)
		if par == nil {
			return &ValidationError{Parameter: name, Msg: "unknown parameter"}
		}
		if err := checkRange(name, v, par.GetMin(), par.GetMax()); err != nil {
			return err
		}
	}
	m.allParameters.SetFromMap(values)
	return nil
}

// Reset drops all the computed values. The next call of any of the
// computing methods starts from scratch.
func (m *Model) Reset() {
	m.likState = Uninitialized
	m.recState = Uninitialized
	m.ancState = Uninitialized
	m.lnL = 0
	m.positionLnL = m.positionLnL[:0]
	m.underflows = 0
	for i := range m.nodes {
		nd := &m.nodes[i]
		for r := range nd.p {
			nd.up[r] = vector{}
			nd.down[r] = vector{}
			nd.marginal[r] = vector{}
			nd.p[r] = pmatrix{}
		}
		nd.prob = vector{}
		nd.seq = nd.seq[:0]
		nd.anc = nd.anc[:0]
		nd.presence = nd.presence[:0]
		nd.gain = nd.gain[:0]
		nd.loss = nd.loss[:0]
		nd.lnL = 0
	}
}

// States returns the states of likelihood, reconstruction and
// ancestral comparison.
func (m *Model) States() (likelihood, reconstruction, ancestral State) {
	return m.likState, m.recState, m.ancState
}

// Data returns the model data.
func (m *Model) Data() *Data {
	return m.data
}

// Tree returns the model tree.
func (m *Model) Tree() *tree.Tree {
	return m.tree
}

// Rates returns the rates of the gamma categories.
func (m *Model) Rates() []float64 {
	if !m.ratesDone {
		m.updateRates()
	}
	return append([]float64(nil), m.rates...)
}

// PositionLogLikelihoods returns log-likelihoods of all the positions
// computed by the last pass.
func (m *Model) PositionLogLikelihoods() []float64 {
	return append([]float64(nil), m.positionLnL...)
}

// The following accessors return the results of Reconstruct (and
// AncestralComparison) and are empty before those are called.

// Sequence returns the reconstructed states of a node.
func (m *Model) Sequence(node *tree.Node) string {
	return string(m.nodes[node.ID].seq)
}

// AncestralSequence returns the comparison of the node states with
// the parent states: A (0→0), G (0→1), L (1→0) or P (1→1).
func (m *Model) AncestralSequence(node *tree.Node) string {
	return string(m.nodes[node.ID].anc)
}

// Presence returns the posterior probability of state 1 of a node for
// every position.
func (m *Model) Presence(node *tree.Node) []float64 {
	return append([]float64(nil), m.nodes[node.ID].presence...)
}

// Gain returns the probabilities of a gain on the branch leading to
// the node for every position.
func (m *Model) Gain(node *tree.Node) []float64 {
	return append([]float64(nil), m.nodes[node.ID].gain...)
}

// Loss returns the probabilities of a loss on the branch leading to
// the node for every position.
func (m *Model) Loss(node *tree.Node) []float64 {
	return append([]float64(nil), m.nodes[node.ID].loss...)
}

// Probability returns the posterior probabilities of the node states
// at the last processed position.
func (m *Model) Probability(node *tree.Node) [nState]float64 {
	return m.nodes[node.ID].prob
}

// NodeLogLikelihood returns the sum over positions of the subtree
// log-likelihoods of a node.
func (m *Model) NodeLogLikelihood(node *tree.Node) float64 {
	return m.nodes[node.ID].lnL
}
