package glmodel

// Ancestral comparison symbols.
const (
	StableAbsent  = 'A'
	Gained        = 'G'
	Lost          = 'L'
	StablePresent = 'P'
)

// ancestralSymbol classifies the states of a parent and its child.
func ancestralSymbol(parent, child byte) byte {
	switch {
	case parent == '0' && child == '0':
		return StableAbsent
	case parent == '0':
		return Gained
	case child == '0':
		return Lost
	}
	return StablePresent
}

// AncestralComparison compares the reconstructed states of every
// non-root node with the states of its parent. It reconstructs the
// states first if needed.
func (m *Model) AncestralComparison() {
	if m.ancState == Computed {
		return
	}
	m.Reconstruct()
	for _, node := range m.tree.PreOrder() {
		if node.IsRoot() {
			continue
		}
		nd := &m.nodes[node.ID]
		fseq := m.nodes[node.Parent.ID].seq
		nd.anc = nd.anc[:0]
		for pos, c := range nd.seq {
			nd.anc = append(nd.anc, ancestralSymbol(fseq[pos], c))
		}
	}
	m.ancState = Computed
}
