package phylo_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sgevolve/pkg/phylo"
)

func TestParseNewick(t *testing.T) {
	t.Parallel()

	tree, err := phylo.ParseNewick("((a:1,b:2)ab:0.5,c)root;")
	require.NoError(t, err)

	assert.Equal(t, 5, tree.Len())
	assert.Equal(t, []string{"root", "ab", "a", "b", "c"}, tree.Names())
	assert.Equal(t, 0, tree.Root)
	assert.Equal(t, phylo.NoParent, tree.Nodes[0].Parent)
	assert.Equal(t, []int{1, 4}, tree.Nodes[0].Children)
	assert.InDelta(t, 0.5, tree.Nodes[1].BranchLength, 1e-9)
	assert.InDelta(t, 2.0, tree.Nodes[3].BranchLength, 1e-9)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, tree.Preorder())
	assert.Equal(t, []int{1, 2, 3}, tree.Subtree(1))
	assert.True(t, tree.IsLeaf(4))
	assert.False(t, tree.IsLeaf(1))
	assert.True(t, tree.IsDescendant(3, 1))
	assert.False(t, tree.IsDescendant(4, 1))
	assert.True(t, tree.IsDescendant(1, 1))
}

func TestParseNewickSingleNode(t *testing.T) {
	t.Parallel()

	tree, err := phylo.ParseNewick("  only;\n")
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Len())
	assert.Equal(t, []int{0}, tree.Preorder())
	assert.True(t, tree.IsLeaf(0))
}

func TestParseNewickErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no terminator", "(a,b)r"},
		{"unbalanced open", "((a,b)r;"},
		{"unbalanced close", "(a,b))r;"},
		{"unlabelled internal", "(a,b);"},
		{"duplicate", "(a,a)r;"},
		{"bad length", "(a:x,b)r;"},
		{"trailing", "(a,b)r; extra"},
		{"two trees", "(a,b)r;(c,d)s;"},
		{"unlabelled single node", ";"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := phylo.ParseNewick(tt.input)
			require.ErrorIs(t, err, phylo.ErrNewick)
		})
	}
}

func TestIndex(t *testing.T) {
	t.Parallel()

	tree, err := phylo.ReadNewick(strings.NewReader("(x,y)r;"))
	require.NoError(t, err)

	idx, err := tree.Index("y")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = tree.Index("z")
	require.ErrorIs(t, err, phylo.ErrUnknownNode)
}

func TestParseNewickBranchLengthsAndWhitespace(t *testing.T) {
	t.Parallel()

	tree, err := phylo.ReadNewick(strings.NewReader("(\n  (a:1, b:2.5)ab:0.5,\n  c\n)root;\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"root", "ab", "a", "b", "c"}, tree.Names())
	assert.InDelta(t, 1.0, tree.Nodes[2].BranchLength, 1e-9)
	assert.InDelta(t, 2.5, tree.Nodes[3].BranchLength, 1e-9)
	assert.Zero(t, tree.Nodes[4].BranchLength)
	assert.Equal(t, 1, tree.Nodes[3].Parent)
}

func TestSingle(t *testing.T) {
	t.Parallel()

	tree := phylo.Single("anc")
	assert.Equal(t, []string{"anc"}, tree.Names())
	assert.True(t, tree.IsLeaf(0))
}
