package glmodel

import (
	"math"

	"github.com/glmap/glmap/dist"
	"github.com/glmap/glmap/metrics"
)

func (m *Model) updateRates() {
	m.rates = dist.GammaRates(m.alpha, m.settings.NCat, m.settings.UseMedian)
	m.ratesDone = true
	log.Debugf("alpha=%v, rates=%v", m.alpha, m.rates)
}

// prepare starts a new pass: it recomputes the rates if needed and
// all the transition matrices, and drops the results of the previous
// pass.
func (m *Model) prepare() {
	m.Reset()
	if !m.ratesDone {
		m.updateRates()
	}
	m.freq = vector{1 - m.pi1, m.pi1}

	em, err := NewEMatrix(m.pi1)
	if err != nil {
		panic(err)
	}
	for _, node := range m.tree.Nodes() {
		nd := &m.nodes[node.ID]
		for r, rate := range m.rates {
			if node.IsRoot() {
				nd.p[r] = identity
				continue
			}
			nd.p[r] = em.Exp(node.BranchLength * m.scale * rate)
		}
	}
}

// subtreeLikelihood is the likelihood of the data below the node
// averaged over the rate categories.
func (m *Model) subtreeLikelihood(nd *nodeData) (l float64) {
	for r := range nd.up {
		for j := 0; j < nState; j++ {
			l += m.freq[j] * nd.up[r][j]
		}
	}
	return l / float64(len(nd.up))
}

// upPass computes the up vectors (conditional likelihoods of the
// subtrees) at a position and returns the position likelihood.
func (m *Model) upPass(pos int) float64 {
	for _, leaf := range m.tree.Leaves() {
		var v vector
		v[m.rows[leaf.LeafID][pos]-'0'] = 1
		nd := &m.nodes[leaf.ID]
		for r := range nd.up {
			nd.up[r] = v
		}
	}

	for _, node := range m.tree.NodeOrder() {
		nd := &m.nodes[node.ID]
		for r := range nd.up {
			for j := 0; j < nState; j++ {
				l := 1.0
				for _, child := range node.ChildNodes() {
					cd := &m.nodes[child.ID]
					s := 0.0
					for i := 0; i < nState; i++ {
						s += cd.p[r][j][i] * cd.up[r][i]
					}
					l *= s
				}
				nd.up[r][j] = l
			}
		}
	}

	return m.subtreeLikelihood(&m.nodes[m.tree.ID])
}

// downPass computes the down vectors (likelihood of everything
// outside of the subtree given the parent state). It requires the up
// pass at the same position.
func (m *Model) downPass() {
	for _, node := range m.tree.PreOrder() {
		nd := &m.nodes[node.ID]
		if node.IsRoot() {
			for r := range nd.down {
				nd.down[r] = vector{1, 1}
			}
			continue
		}
		fd := &m.nodes[node.Parent.ID]
		for r := range nd.down {
			for j := 0; j < nState; j++ {
				l := 0.0
				for i := 0; i < nState; i++ {
					l += fd.p[r][j][i] * fd.down[r][i]
				}
				for _, sib := range m.siblings[node.ID] {
					sd := &m.nodes[sib.ID]
					s := 0.0
					for i := 0; i < nState; i++ {
						s += sd.p[r][j][i] * sd.up[r][i]
					}
					l *= s
				}
				nd.down[r][j] = l
			}
		}
	}
}

// marginalPass computes the posterior state probabilities of every
// node, appends the most probable states and the gain and loss
// probabilities. It requires both the up and the down pass.
func (m *Model) marginalPass() {
	ncat := float64(m.settings.NCat)
	for _, node := range m.tree.PreOrder() {
		nd := &m.nodes[node.ID]

		nd.lnL += math.Log(math.Max(m.subtreeLikelihood(nd), eps))

		l := 0.0
		for r := range nd.marginal {
			for i := 0; i < nState; i++ {
				s := 0.0
				for j := 0; j < nState; j++ {
					s += nd.p[r][i][j] * nd.down[r][j]
				}
				nd.marginal[r][i] = m.freq[i] * nd.up[r][i] * s
				l += nd.marginal[r][i]
			}
		}
		l = math.Max(l/ncat, eps)

		for i := 0; i < nState; i++ {
			s := 0.0
			for r := range nd.marginal {
				s += nd.marginal[r][i]
			}
			nd.prob[i] = s / ncat / l
		}
		if nd.prob[1] > nd.prob[0] {
			nd.seq = append(nd.seq, '1')
		} else {
			nd.seq = append(nd.seq, '0')
		}
		nd.presence = append(nd.presence, nd.prob[1])

		if node.IsRoot() {
			continue
		}
		nd.gain = append(nd.gain, m.joint(nd, 0, 1)/ncat/l)
		nd.loss = append(nd.loss, m.joint(nd, 1, 0)/ncat/l)
	}
}

// joint returns the unnormalized probability of the parent being in
// state a and the node in state b.
func (m *Model) joint(nd *nodeData, a, b int) (s float64) {
	for r := range nd.up {
		s += m.freq[b] * nd.up[r][b] * nd.p[r][b][a] * nd.down[r][a]
	}
	return
}

// addPosition accumulates the log-likelihood of a position.
func (m *Model) addPosition(pos int, l float64) {
	if l < eps {
		m.underflows++
		log.Debugf("Likelihood underflow at position %d", pos+1)
		l = eps
	}
	lnL := math.Log(l)
	m.positionLnL = append(m.positionLnL, lnL)
	m.lnL += lnL
}

func (m *Model) finishPass() {
	metrics.Evaluations.Inc()
	metrics.LogLikelihood.Set(m.lnL)
	if m.underflows > 0 {
		metrics.Underflows.Add(float64(m.underflows))
		log.Warningf("Likelihood underflow at %d of %d positions (pi1=%v, alpha=%v, scale=%v)",
			m.underflows, m.data.NPositions(), m.pi1, m.alpha, m.scale)
	}
}

// LogLikelihood computes the log-likelihood of the alignment. The
// value is cached until the next parameter change or Reset.
func (m *Model) LogLikelihood() float64 {
	if m.likState == Computed {
		return m.lnL
	}
	m.prepare()
	for pos := 0; pos < m.data.NPositions(); pos++ {
		m.addPosition(pos, m.upPass(pos))
	}
	m.finishPass()
	m.likState = Computed
	return m.lnL
}

// Reconstruct computes the log-likelihood together with the marginal
// reconstruction of all the node states and the per-branch gain and
// loss probabilities.
func (m *Model) Reconstruct() {
	if m.recState == Computed {
		return
	}
	m.prepare()
	for pos := 0; pos < m.data.NPositions(); pos++ {
		m.addPosition(pos, m.upPass(pos))
		m.downPass()
		m.marginalPass()
	}
	m.finishPass()
	m.likState = Computed
	m.recState = Computed
}
