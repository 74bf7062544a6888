package tree

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mode is the parser state for a name token.
type Mode int

const (
	NORMAL Mode = iota
	LENGTH
)

// ParseError is returned for malformed Newick text. Token is the
// 1-based index of the offending token, 0 if the input ended early.
type ParseError struct {
	Token int
	Msg   string
}

func (e *ParseError) Error() string {
	if e.Token == 0 {
		return "newick: " + e.Msg
	}
	return fmt.Sprintf("newick: token %d: %s", e.Token, e.Msg)
}

// IsSpecial returns true for Newick punctuation.
func IsSpecial(c rune) bool {
	switch c {
	case '(', ')', ':', ';', ',':
		return true
	}
	return false
}

// NewickSplit is a bufio.SplitFunc returning Newick tokens.
func NewickSplit(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	// Skip leading spaces; and return 1-char tokens.
	for width := 0; start < len(data); start += width {
		var r rune
		r, width = utf8.DecodeRune(data[start:])
		if IsSpecial(r) {
			return start + width, data[start : start+width], nil
		}
		if !unicode.IsSpace(r) {
			break
		}
	}
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	// Scan until space or special character.
	for width, i := 0, start; i < len(data); i += width {
		var r rune
		r, width = utf8.DecodeRune(data[i:])
		if unicode.IsSpace(r) || IsSpecial(r) {
			return i, data[start:i], nil
		}
	}
	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	// Request more data.
	return 0, nil, nil
}

// ParseNewick reads a tree. The text has to start with '(' and to
// end with ';'. Unnamed nodes get generated names.
func ParseNewick(rd io.Reader) (*Tree, error) {
	scanner := bufio.NewScanner(rd)
	scanner.Split(NewickSplit)

	nodeID := 0
	node := NewNode(nil, nodeID)
	tree := &Tree{Node: node}
	nodeID++

	mode := NORMAL
	ntok := 0

	for scanner.Scan() {
		text := scanner.Text()
		if text == "" {
			continue
		}
		ntok++
		if ntok == 1 && text != "(" {
			return nil, &ParseError{ntok, "tree has to start with '('"}
		}
		if mode == LENGTH && IsSpecial([]rune(text)[0]) {
			return nil, &ParseError{ntok, "branch length expected after ':'"}
		}
		switch text {
		case "(":
			subNode := NewNode(nil, nodeID)
			nodeID++
			node.AddChild(subNode)
			node = subNode
		case ",":
			if node.Parent == nil {
				return nil, &ParseError{ntok, "top level comma mismatch"}
			}
			subNode := NewNode(nil, nodeID)
			nodeID++
			node.Parent.AddChild(subNode)
			node = subNode
		case ")":
			if node.Parent == nil {
				return nil, &ParseError{ntok, "brackets mismatch"}
			}
			node = node.Parent
		case ":":
			mode = LENGTH
		case ";":
			if node != tree.Node {
				return nil, &ParseError{ntok, "brackets mismatch"}
			}
			for scanner.Scan() {
				if strings.TrimSpace(scanner.Text()) != "" {
					return nil, &ParseError{ntok + 1, "text after ';'"}
				}
			}
			if err := scanner.Err(); err != nil {
				return nil, err
			}
			tree.finish()
			return tree, nil
		default:
			switch mode {
			case LENGTH:
				l, err := strconv.ParseFloat(text, 64)
				if err != nil {
					return nil, &ParseError{ntok, fmt.Sprintf("bad branch length %q", text)}
				}
				node.BranchLength = l
				mode = NORMAL
			default:
				if node.Name != "" {
					return nil, &ParseError{ntok, fmt.Sprintf("node %q is named again as %q", node.Name, text)}
				}
				node.Name = text
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if ntok == 0 {
		return nil, &ParseError{0, "empty tree"}
	}
	return nil, &ParseError{0, "tree has to end with ';'"}
}

// finish assigns leaf IDs and names the unnamed nodes.
func (tree *Tree) finish() {
	leafID := 0
	used := make(map[string]bool, tree.NNodes())
	for _, node := range tree.PreOrder() {
		if node.IsTerminal() {
			node.LeafID = leafID
			leafID++
		}
		if node.Name != "" {
			used[node.Name] = true
		}
	}

	i := 0
	queue := []*Node{tree.Node}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node.Name == "" {
			for {
				i++
				name := fmt.Sprintf("N%d", i)
				if !used[name] {
					node.Name = name
					used[name] = true
					break
				}
			}
		}
		queue = append(queue, node.childNodes...)
	}
}

// Newick serializes the tree. Branch lengths are printed with the
// given number of decimals, internal node names only if
// internalNames is set.
func (tree *Tree) Newick(internalNames bool, decimals int) string {
	var b strings.Builder
	tree.Node.newick(&b, internalNames, decimals)
	b.WriteByte(';')
	return b.String()
}

func (node *Node) newick(b *strings.Builder, internalNames bool, decimals int) {
	if !node.IsTerminal() {
		b.WriteByte('(')
		for i, child := range node.childNodes {
			if i > 0 {
				b.WriteByte(',')
			}
			child.newick(b, internalNames, decimals)
		}
		b.WriteByte(')')
	}
	if node.IsTerminal() || internalNames {
		b.WriteString(node.Name)
	}
	if !node.IsRoot() || node.BranchLength != 0 {
		fmt.Fprintf(b, ":%.*f", decimals, node.BranchLength)
	}
}
