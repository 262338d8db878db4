// Package phylo holds the rooted phylogeny that drives an evolution run. Node
// indices double as sequence indices: every node, leaf or ancestor, owns one
// alignment row.
package phylo

import (
	"errors"
	"fmt"
)

// NoParent marks the root node.
const NoParent = -1

// ErrUnknownNode is returned when a node name or index does not exist.
var ErrUnknownNode = errors.New("unknown phylogeny node")

// Node is a vertex of the phylogeny.
type Node struct {
	Name         string
	Parent       int
	Children     []int
	BranchLength float64
}

// Tree is a rooted phylogeny in a flat slice.
type Tree struct {
	Nodes []Node
	Root  int
}

// Len returns the number of nodes.
func (tree *Tree) Len() int {
	return len(tree.Nodes)
}

// IsLeaf reports whether node i has no children.
func (tree *Tree) IsLeaf(i int) bool {
	return len(tree.Nodes[i].Children) == 0
}

// Preorder lists all nodes, parents before children, children in declaration order.
func (tree *Tree) Preorder() []int {
	if len(tree.Nodes) == 0 {
		return nil
	}

	return tree.Subtree(tree.Root)
}

// Subtree lists node i and all of its descendants in preorder.
func (tree *Tree) Subtree(i int) []int {
	order := make([]int, 0, len(tree.Nodes))
	stack := []int{i}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, top)

		children := tree.Nodes[top].Children
		for c := len(children) - 1; c >= 0; c-- {
			stack = append(stack, children[c])
		}
	}

	return order
}

// IsDescendant reports whether node i lies in the subtree of ancestor, itself included.
func (tree *Tree) IsDescendant(i, ancestor int) bool {
	for ; i != NoParent; i = tree.Nodes[i].Parent {
		if i == ancestor {
			return true
		}
	}

	return false
}

// Index returns the index of the node with the given name.
func (tree *Tree) Index(name string) (int, error) {
	for i := range tree.Nodes {
		if tree.Nodes[i].Name == name {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownNode, name)
}

// Names returns node names by index.
func (tree *Tree) Names() []string {
	names := make([]string, len(tree.Nodes))
	for i := range tree.Nodes {
		names[i] = tree.Nodes[i].Name
	}

	return names
}

// Single returns a one-node phylogeny.
func Single(name string) *Tree {
	return &Tree{Nodes: []Node{{Name: name, Parent: NoParent}}, Root: 0}
}
