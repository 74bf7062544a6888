package glmodel

import (
	"testing"
)

func TestAncestralSymbols(tst *testing.T) {
	for _, c := range []struct {
		parent, child, exp byte
	}{
		{'0', '0', 'A'},
		{'0', '1', 'G'},
		{'1', '0', 'L'},
		{'1', '1', 'P'},
	} {
		if s := ancestralSymbol(c.parent, c.child); s != c.exp {
			tst.Errorf("%c->%c: %c != %c", c.parent, c.child, s, c.exp)
		}
	}
}

func TestStableBranches(tst *testing.T) {
	m := newTestModel(tst, getData(tst, data1), DefaultSettings())
	m.AncestralComparison()

	n := m.Data().NPositions()
	changes := 0
	for _, node := range m.Tree().PreOrder() {
		anc := m.AncestralSequence(node)
		if node.IsRoot() {
			if anc != "" {
				tst.Error("root should have no ancestral comparison:", anc)
			}
			continue
		}
		if len(anc) != n {
			tst.Fatalf("%s: wrong length %d", node.Name, len(anc))
		}
		seq, fseq := m.Sequence(node), m.Sequence(node.Parent)
		for i := 0; i < n; i++ {
			stable := anc[i] == StableAbsent || anc[i] == StablePresent
			if (seq[i] == fseq[i]) != stable {
				tst.Errorf("%s: position %d: %c->%c classified as %c",
					node.Name, i+1, fseq[i], seq[i], anc[i])
			}
			if !stable {
				changes++
			}
		}
	}
	// t6 differs from the rest of the tree at many positions
	if changes == 0 {
		tst.Error("no changes were reconstructed")
	}
}

func TestAncestralAfterReset(tst *testing.T) {
	m := newTestModel(tst, getData(tst, data1), DefaultSettings())
	m.AncestralComparison()
	leaf := m.Tree().NodeByName("t1")
	before := m.AncestralSequence(leaf)

	m.Reset()
	if m.AncestralSequence(leaf) != "" {
		tst.Error("comparison should be empty after reset")
	}
	m.AncestralComparison()
	if after := m.AncestralSequence(leaf); after != before {
		tst.Errorf("comparison has changed after reset: %s != %s", after, before)
	}
}
