// Package tree implements rooted phylogenetic trees, their traversal
// orders and the Newick text format.
package tree

import (
	"fmt"
	"strings"
)

// Tree is a rooted tree. The embedded Node is the root.
type Tree struct {
	*Node
	nNodes    int
	nodes     []*Node
	nodeOrder []*Node
	preOrder  []*Node
	leaves    []*Node
}

// ClearCache drops all cached traversal orders. It has to be called
// after the topology has been changed.
func (tree *Tree) ClearCache() {
	tree.nNodes = 0
	tree.nodes = nil
	tree.nodeOrder = nil
	tree.preOrder = nil
	tree.leaves = nil
}

// NNodes returns the total number of nodes including the root.
func (tree *Tree) NNodes() int {
	if tree.nNodes == 0 {
		tree.nNodes = tree.NSubNodes()
	}
	return tree.nNodes
}

// Nodes returns all the nodes indexed by their ID.
func (tree *Tree) Nodes() []*Node {
	if tree.nodes == nil {
		tree.nodes = make([]*Node, tree.NNodes())
		for node := range tree.Walker(nil) {
			tree.nodes[node.ID] = node
		}
	}
	return tree.nodes
}

// Terminals returns a channel with all the leaves.
func (tree *Tree) Terminals() <-chan *Node {
	return tree.Walker(func(node *Node) bool {
		return node.IsTerminal()
	})
}

// NonTerminals returns a channel with all the internal nodes.
func (tree *Tree) NonTerminals() <-chan *Node {
	return tree.Walker(func(node *Node) bool {
		return !node.IsTerminal()
	})
}

// NLeaves returns the number of leaves.
func (tree *Tree) NLeaves() int {
	return len(tree.Leaves())
}

// Leaves returns the leaves ordered by LeafID.
func (tree *Tree) Leaves() []*Node {
	if tree.leaves == nil {
		tree.leaves = make([]*Node, 0, tree.NNodes())
		for node := range tree.Terminals() {
			tree.leaves = append(tree.leaves, node)
		}
	}
	return tree.leaves
}

// NodeByName returns the first node in pre-order with the given
// name or nil.
func (tree *Tree) NodeByName(name string) *Node {
	for _, node := range tree.PreOrder() {
		if node.Name == name {
			return node
		}
	}
	return nil
}

// Walker returns a channel iterating over the nodes in pre-order. If
// filter is not nil, only nodes satisfying it are sent.
func (tree *Tree) Walker(filter func(*Node) bool) <-chan *Node {
	ch := make(chan *Node, tree.NNodes())
	tree.Walk(ch, filter)
	close(ch)
	return ch
}

// Copy creates independent copy of the tree.
func (tree *Tree) Copy() (newTree *Tree) {
	nNodes := tree.NNodes()
	newTree = &Tree{
		nNodes: nNodes,
		nodes:  make([]*Node, nNodes),
	}

	for i, node := range tree.Nodes() {
		if i != node.ID {
			panic("node id mismatch")
		}
		newTree.nodes[i] = node.Copy()
	}

	// Rewire node/parent connections.
	for i, node := range tree.Nodes() {
		newNode := newTree.nodes[i]
		for _, child := range node.childNodes {
			newNode.AddChild(newTree.nodes[child.ID])
		}
	}

	newTree.Node = newTree.nodes[tree.ID]

	return
}

// NodeOrder returns the internal nodes in post-order, every node
// appears after all of its children and the root is the last one.
func (tree *Tree) NodeOrder() []*Node {
	if tree.nodeOrder == nil {
		tree.nodeOrder = make([]*Node, 0, tree.NNodes())
		var visit func(*Node)
		visit = func(node *Node) {
			if node.IsTerminal() {
				return
			}
			for _, child := range node.childNodes {
				visit(child)
			}
			tree.nodeOrder = append(tree.nodeOrder, node)
		}
		visit(tree.Node)
	}
	return tree.nodeOrder
}

// PreOrder returns all the nodes with every parent preceding its
// children. The root is the first one.
func (tree *Tree) PreOrder() []*Node {
	if tree.preOrder == nil {
		tree.preOrder = make([]*Node, 0, tree.NNodes())
		for node := range tree.Walker(nil) {
			tree.preOrder = append(tree.preOrder, node)
		}
	}
	return tree.preOrder
}

// Node is a tree vertex. Parent is a back reference only, children
// are owned by their parent.
type Node struct {
	Name         string
	BranchLength float64
	Parent       *Node
	childNodes   []*Node
	ID           int
	LeafID       int
}

// NewNode creates a new node with a given parent and ID.
func NewNode(parent *Node, id int) *Node {
	return &Node{Parent: parent, ID: id, LeafID: -1}
}

// Copy creates copy of node with empty parent and children.
func (node *Node) Copy() *Node {
	return &Node{
		Name:         node.Name,
		BranchLength: node.BranchLength,
		childNodes:   make([]*Node, 0, len(node.childNodes)),
		ID:           node.ID,
		LeafID:       node.LeafID,
	}
}

// AddChild appends subNode to the children list.
func (node *Node) AddChild(subNode *Node) {
	subNode.Parent = node
	node.childNodes = append(node.childNodes, subNode)
}

func (node *Node) String() (s string) {
	if node.IsTerminal() {
		return fmt.Sprintf("%s:%0.6f", node.Name, node.BranchLength)
	}
	s += "("
	for i, child := range node.childNodes {
		s += child.String()
		if i != len(node.childNodes)-1 {
			s += ","
		}
	}
	s += fmt.Sprintf(")%s:%0.6f", node.Name, node.BranchLength)
	if node.IsRoot() {
		s += ";"
	}
	return s
}

// LongString returns a one-line description of a node.
func (node *Node) LongString() (s string) {
	s = "<"
	if node.Parent == nil {
		s += "root, "
	}
	if node.Name != "" {
		s += "name=" + node.Name + ", "
	}
	s += fmt.Sprintf("ID=%v, BranchLength=%v", node.ID, node.BranchLength)
	if node.IsTerminal() {
		s += fmt.Sprintf(", LeafID=%v", node.LeafID)
	}
	s += ">"
	return
}

// FullString returns an indented multi-line representation of a
// subtree.
func (node *Node) FullString() string {
	return strings.TrimSpace(node.prefixString(""))
}

func (node *Node) prefixString(prefix string) (s string) {
	s = prefix + node.LongString() + "\n"
	for _, node := range node.childNodes {
		s += node.prefixString(prefix + "    ")
	}
	return
}

// ChildNodes returns the ordered children.
func (node *Node) ChildNodes() []*Node {
	return node.childNodes
}

// Siblings returns the other children of the parent.
func (node *Node) Siblings() []*Node {
	if node.Parent == nil {
		return nil
	}
	siblings := make([]*Node, 0, len(node.Parent.childNodes)-1)
	for _, sib := range node.Parent.childNodes {
		if sib != node {
			siblings = append(siblings, sib)
		}
	}
	return siblings
}

// Walk sends the subtree nodes to ch in pre-order.
func (node *Node) Walk(ch chan *Node, filter func(*Node) bool) {
	if filter == nil || filter(node) {
		ch <- node
	}
	for _, node := range node.childNodes {
		node.Walk(ch, filter)
	}
}

// NSubNodes returns the subtree size including the node itself.
func (node *Node) NSubNodes() (size int) {
	for _, node := range node.childNodes {
		size += node.NSubNodes()
	}
	return size + 1
}

func (node *Node) IsRoot() bool {
	return node.Parent == nil
}

func (node *Node) IsTerminal() bool {
	return len(node.childNodes) == 0
}
