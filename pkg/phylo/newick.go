package phylo

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/evolbioinfo/gotree/io/newick"
	gotree "github.com/evolbioinfo/gotree/tree"
)

// ErrNewick is returned for malformed Newick input.
var ErrNewick = errors.New("malformed newick tree")

// ReadNewick parses a single Newick tree from r.
func ReadNewick(r io.Reader) (*Tree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read newick: %w", err)
	}

	return ParseNewick(string(data))
}

// ParseNewick parses a single Newick tree such as "((a:1,b:2)ab:0.5,c)root;".
// Every node, internal ones included, needs a unique non-empty label because
// node names identify alignment rows. Numeric internal labels are read as
// branch supports, not names.
func ParseNewick(text string) (*Tree, error) {
	tree, err := parseNewick(strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNewick, err)
	}

	return tree, nil
}

func parseNewick(text string) (*Tree, error) {
	switch {
	case text == "":
		return nil, errors.New("empty input")
	case !strings.HasSuffix(text, ";"):
		return nil, errors.New("missing terminating ';'")
	case strings.Count(text, ";") > 1:
		return nil, errors.New("more than one tree")
	case strings.Count(text, "(") != strings.Count(text, ")"):
		return nil, errors.New("unbalanced parentheses")
	}

	// A bare label is a one-node phylogeny; the library only reads parenthesised trees.
	if !strings.HasPrefix(text, "(") {
		name, _, _ := strings.Cut(strings.TrimSuffix(text, ";"), ":")
		tree := Single(strings.TrimSpace(name))

		return tree, checkNames(tree)
	}

	parsed, err := newick.NewParser(strings.NewReader(text)).Parse()
	if err != nil {
		return nil, err
	}

	tree := fromGotree(parsed)

	return tree, checkNames(tree)
}

// fromGotree numbers the nodes of parsed in preorder, children in declaration order.
func fromGotree(parsed *gotree.Tree) *Tree {
	type frame struct {
		node   *gotree.Node
		from   *gotree.Node
		parent int
		length float64
	}

	var tree Tree

	stack := []frame{{node: parsed.Root(), parent: NoParent}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		idx := len(tree.Nodes)
		tree.Nodes = append(tree.Nodes, Node{Name: top.node.Name(), Parent: top.parent, BranchLength: top.length})

		if top.parent != NoParent {
			tree.Nodes[top.parent].Children = append(tree.Nodes[top.parent].Children, idx)
		}

		neighbours, edges := top.node.Neigh(), top.node.Edges()

		for i := len(neighbours) - 1; i >= 0; i-- {
			if neighbours[i] == top.from {
				continue
			}

			// Unset lengths are negative.
			stack = append(stack, frame{
				node:   neighbours[i],
				from:   top.node,
				parent: idx,
				length: max(edges[i].Length(), 0),
			})
		}
	}

	tree.Root = 0

	return &tree
}

func checkNames(tree *Tree) error {
	seen := make(map[string]struct{}, len(tree.Nodes))

	for i := range tree.Nodes {
		name := tree.Nodes[i].Name
		if name == "" {
			return fmt.Errorf("node %d has no label", i)
		}

		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate label %q", name)
		}

		seen[name] = struct{}{}
	}

	return nil
}
