package tree

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseErrors(tst *testing.T) {
	for _, s := range []string{
		"",
		"(a:1,b:2)",
		"a:1,b:2);",
		"((a:1,b:2);",
		"(a:1,b:2));",
		"(a:x,b:2);",
		"(a:1,b:2);c",
		"(a:,b:2);",
		"(a b:1,c:2);",
		"((a:1,b:2)x y:1,c:2);",
	} {
		_, err := ParseNewick(bytes.NewBufferString(s))
		var perr *ParseError
		if !errors.As(err, &perr) {
			tst.Errorf("%q: expected ParseError, got %v", s, err)
		}
	}
}

func TestParseNames(tst *testing.T) {
	t, err := ParseNewick(bytes.NewBufferString("((a:1,b:2):3,(c:1,d:1)N2:2);"))
	if err != nil {
		tst.Fatal("Error parsing tree", err)
	}
	if t.Name != "N1" {
		tst.Error("root should be N1, got", t.Name)
	}
	ab := t.ChildNodes()[0]
	if ab.Name != "N3" {
		tst.Error("generated name should skip N2, got", ab.Name)
	}
	if t.NLeaves() != 4 || t.NNodes() != 7 {
		tst.Errorf("wrong size: %d leaves, %d nodes", t.NLeaves(), t.NNodes())
	}
	for i, leaf := range t.Leaves() {
		if leaf.LeafID != i {
			tst.Errorf("leaf %s has id %d, expected %d", leaf.Name, leaf.LeafID, i)
		}
	}
	if t.NodeByName("c").Parent.Name != "N2" {
		tst.Error("wrong parent for c")
	}
}

func TestNewickRoundTrip(tst *testing.T) {
	s := "((A:0.100000,B:0.200000)X:0.300000,C:0.400000)R;"
	t, err := ParseNewick(bytes.NewBufferString(s))
	if err != nil {
		tst.Fatal("Error parsing tree", err)
	}
	if out := t.Newick(true, 6); out != s {
		tst.Error("got", out)
	}
	if out := t.Newick(false, 2); out != "((A:0.10,B:0.20):0.30,C:0.40);" {
		tst.Error("got", out)
	}

	t2, err := ParseNewick(bytes.NewBufferString(t.Newick(true, 10)))
	if err != nil {
		tst.Fatal("Error parsing serialized tree", err)
	}
	if t2.String() != t.String() {
		tst.Error("serialization is not an inverse:", t2, t)
	}
}

func TestOrders(tst *testing.T) {
	t, err := ParseNewick(bytes.NewBufferString(tree1))
	if err != nil {
		tst.Fatal("Error parsing tree", err)
	}
	seen := make(map[*Node]bool)
	for _, node := range t.NodeOrder() {
		for _, child := range node.ChildNodes() {
			if !child.IsTerminal() && !seen[child] {
				tst.Error("child after parent in post-order:", child.Name)
			}
		}
		seen[node] = true
	}
	if order := t.NodeOrder(); order[len(order)-1] != t.Node {
		tst.Error("root should be last")
	}

	seen = make(map[*Node]bool)
	for _, node := range t.PreOrder() {
		if !node.IsRoot() && !seen[node.Parent] {
			tst.Error("parent after child in pre-order:", node.Name)
		}
		seen[node] = true
	}
	if len(t.PreOrder()) != t.NNodes() {
		tst.Error("pre-order is incomplete")
	}
	for _, node := range t.Nodes() {
		if !node.IsRoot() && len(node.Siblings())+1 != len(node.Parent.ChildNodes()) {
			tst.Error("wrong number of siblings for", node.Name)
		}
	}
}
