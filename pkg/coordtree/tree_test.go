package coordtree //nolint:testpackage // tests inspect the arena and splay structure.

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cell is one alignment column of the reference model.
type cell struct {
	kind   SourceKind
	offset int
}

// expand flattens spans into per-column cells.
func expand(spans []Span) []cell {
	var cells []cell

	for _, span := range spans {
		for i := range span.Len() {
			c := cell{kind: span.Kind}
			if !span.IsGap() {
				c.offset = span.Offset + i
			}

			cells = append(cells, c)
		}
	}

	return cells
}

func spanCells(span Span) []cell {
	return expand([]Span{span})
}

func seqLenOf(cells []cell) int {
	n := 0

	for _, c := range cells {
		if c.kind != SourceGap {
			n++
		}
	}

	return n
}

func TestEmptyTree(t *testing.T) {
	t.Parallel()

	tree := New()
	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, 0, tree.SeqLen())
	assert.Equal(t, 0, tree.Nodes())
	assert.Empty(t, tree.Spans())
	require.NoError(t, tree.Validate())

	_, err := tree.LookupColumn(0)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = tree.LookupOffset(0)
	require.ErrorIs(t, err, ErrOutOfRange)

	require.NoError(t, tree.Erase(0, 0))
	require.NoError(t, tree.Insert(NewLineageSpan(0, 3), 0))
	assert.Equal(t, 3, tree.Len())
}

func TestNewWithSpan(t *testing.T) {
	t.Parallel()

	tree := NewWithSpan(NewLineageSpan(0, 10))
	assert.Equal(t, 10, tree.Len())
	assert.Equal(t, 10, tree.SeqLen())
	assert.Equal(t, 1, tree.Nodes())
	require.NoError(t, tree.Validate())

	empty := NewWithSpan(NewGapSpan(0))
	assert.Equal(t, 0, empty.Nodes())
}

func TestInsertSplitsSpan(t *testing.T) {
	t.Parallel()

	tree := NewWithSpan(NewLineageSpan(0, 10))
	require.NoError(t, tree.Insert(NewDonorSpan(100, 3), 4))

	assert.Equal(t, []Span{
		NewLineageSpan(0, 4),
		NewDonorSpan(100, 3),
		NewLineageSpan(4, 6),
	}, tree.Spans())
	assert.Equal(t, 13, tree.Len())
	assert.Equal(t, 13, tree.SeqLen())
	require.NoError(t, tree.Validate())
}

func TestInsertAtBoundaries(t *testing.T) {
	t.Parallel()

	tree := NewWithSpan(NewLineageSpan(0, 5))
	require.NoError(t, tree.Insert(NewGapSpan(2), 0))
	require.NoError(t, tree.Insert(NewGapSpan(3), tree.Len()))
	require.NoError(t, tree.Insert(NewDonorSpan(0, 1), 2))

	assert.Equal(t, []Span{
		NewGapSpan(2),
		NewDonorSpan(0, 1),
		NewLineageSpan(0, 5),
		NewGapSpan(3),
	}, tree.Spans())
	assert.Equal(t, 11, tree.Len())
	assert.Equal(t, 6, tree.SeqLen())
	require.NoError(t, tree.Validate())
}

func TestInsertZeroLengthIsNoop(t *testing.T) {
	t.Parallel()

	tree := NewWithSpan(NewLineageSpan(0, 5))
	require.NoError(t, tree.Insert(NewGapSpan(0), 2))
	assert.Equal(t, 1, tree.Nodes())
	assert.Equal(t, 5, tree.Len())
}

func TestInsertOutOfRange(t *testing.T) {
	t.Parallel()

	tree := NewWithSpan(NewLineageSpan(0, 5))
	require.ErrorIs(t, tree.Insert(NewGapSpan(1), 6), ErrOutOfRange)
	require.ErrorIs(t, tree.Insert(NewGapSpan(1), -1), ErrOutOfRange)
	assert.Equal(t, 5, tree.Len())
}

func TestInsertRun(t *testing.T) {
	t.Parallel()

	tree := NewWithSpan(NewLineageSpan(0, 4))
	require.NoError(t, tree.InsertRun(2, NewDonorSpan(0, 2), NewGapSpan(0), NewGapSpan(1)))

	assert.Equal(t, []Span{
		NewLineageSpan(0, 2),
		NewDonorSpan(0, 2),
		NewGapSpan(1),
		NewLineageSpan(2, 2),
	}, tree.Spans())
}

func TestLookupColumn(t *testing.T) {
	t.Parallel()

	tree := New()
	require.NoError(t, tree.InsertRun(0,
		NewLineageSpan(0, 3),
		NewGapSpan(2),
		NewLineageSpan(3, 4),
	))

	loc, err := tree.LookupColumn(4)
	require.NoError(t, err)
	assert.Equal(t, Location{Span: NewGapSpan(2), Column: 3, Offset: 3}, loc)

	loc, err = tree.LookupColumn(8)
	require.NoError(t, err)
	assert.Equal(t, Location{Span: NewLineageSpan(3, 4), Column: 5, Offset: 3}, loc)

	loc, err = tree.LookupColumn(0)
	require.NoError(t, err)
	assert.Equal(t, 0, loc.Column)

	_, err = tree.LookupColumn(9)
	require.ErrorIs(t, err, ErrOutOfRange)
	require.NoError(t, tree.Validate())
}

func TestLookupOffsetSkipsGaps(t *testing.T) {
	t.Parallel()

	tree := New()
	require.NoError(t, tree.InsertRun(0,
		NewGapSpan(4),
		NewLineageSpan(0, 3),
		NewGapSpan(2),
		NewDonorSpan(7, 4),
	))

	loc, err := tree.LookupOffset(0)
	require.NoError(t, err)
	assert.Equal(t, Location{Span: NewLineageSpan(0, 3), Column: 4, Offset: 0}, loc)

	loc, err = tree.LookupOffset(3)
	require.NoError(t, err)
	assert.Equal(t, Location{Span: NewDonorSpan(7, 4), Column: 9, Offset: 3}, loc)

	_, err = tree.LookupOffset(7)
	require.ErrorIs(t, err, ErrOutOfRange)
	require.NoError(t, tree.Validate())
}

func TestEraseInterior(t *testing.T) {
	t.Parallel()

	tree := NewWithSpan(NewLineageSpan(0, 10))
	require.NoError(t, tree.Erase(3, 4))

	assert.Equal(t, []Span{NewLineageSpan(0, 3), NewLineageSpan(7, 3)}, tree.Spans())
	assert.Equal(t, 6, tree.Len())
	require.NoError(t, tree.Validate())
}

func TestEraseAcrossSpans(t *testing.T) {
	t.Parallel()

	tree := New()
	require.NoError(t, tree.InsertRun(0,
		NewLineageSpan(0, 4),
		NewGapSpan(3),
		NewDonorSpan(0, 2),
		NewLineageSpan(4, 5),
	))

	require.NoError(t, tree.Erase(2, 8))

	assert.Equal(t, []Span{NewLineageSpan(0, 2), NewLineageSpan(5, 4)}, tree.Spans())
	assert.Equal(t, 6, tree.Len())
	assert.Equal(t, 6, tree.SeqLen())
	assert.Equal(t, 2, tree.Nodes())
	require.NoError(t, tree.Validate())
}

func TestEraseEverything(t *testing.T) {
	t.Parallel()

	tree := New()
	require.NoError(t, tree.InsertRun(0, NewLineageSpan(0, 4), NewGapSpan(3), NewDonorSpan(0, 2)))
	require.NoError(t, tree.Erase(0, tree.Len()))

	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, 0, tree.Nodes())
	require.NoError(t, tree.Validate())
}

func TestEraseOutOfRange(t *testing.T) {
	t.Parallel()

	tree := NewWithSpan(NewLineageSpan(0, 5))
	require.ErrorIs(t, tree.Erase(3, 3), ErrOutOfRange)
	require.ErrorIs(t, tree.Erase(-1, 1), ErrOutOfRange)
	require.ErrorIs(t, tree.Erase(0, -1), ErrOutOfRange)
	assert.Equal(t, 5, tree.Len())
}

func TestInsertEraseRoundTrip(t *testing.T) {
	t.Parallel()

	tree := New()
	require.NoError(t, tree.InsertRun(0, NewLineageSpan(0, 6), NewGapSpan(2), NewLineageSpan(6, 6)))

	before := expand(tree.Spans())

	for col := 0; col <= tree.Len(); col++ {
		require.NoError(t, tree.Insert(NewDonorSpan(50, 5), col))
		require.NoError(t, tree.Erase(col, 5))
		assert.Equal(t, before, expand(tree.Spans()), "column %d", col)
		require.NoError(t, tree.Validate())
	}
}

func TestWalk(t *testing.T) {
	t.Parallel()

	tree := New()
	require.NoError(t, tree.InsertRun(0, NewLineageSpan(0, 4), NewGapSpan(3), NewDonorSpan(10, 5)))

	type visit struct {
		span       Span
		skip, take int
	}

	var visits []visit

	require.NoError(t, tree.Walk(2, 7, func(span Span, skip, take int) {
		visits = append(visits, visit{span, skip, take})
	}))

	assert.Equal(t, []visit{
		{NewLineageSpan(0, 4), 2, 2},
		{NewGapSpan(3), 0, 3},
		{NewDonorSpan(10, 5), 0, 2},
	}, visits)

	require.ErrorIs(t, tree.Walk(10, 3, func(Span, int, int) {}), ErrOutOfRange)
	require.NoError(t, tree.Walk(12, 0, func(Span, int, int) { t.Fatal("unexpected visit") }))
}

func TestWalkDoesNotRestructure(t *testing.T) {
	t.Parallel()

	tree := New()
	require.NoError(t, tree.InsertRun(0, NewLineageSpan(0, 4), NewGapSpan(3), NewDonorSpan(10, 5)))

	root := tree.root

	require.NoError(t, tree.Walk(0, tree.Len(), func(Span, int, int) {}))
	assert.Equal(t, root, tree.root)
}

func TestLookupSplaysToRoot(t *testing.T) {
	t.Parallel()

	tree := New()
	for i := range 20 {
		require.NoError(t, tree.Insert(NewLineageSpan(i*2, 2), tree.Len()))
	}

	_, err := tree.LookupColumn(7)
	require.NoError(t, err)

	root := tree.nodes.storage[tree.root]
	assert.Equal(t, NewLineageSpan(6, 2), root.span)
	assert.Equal(t, 6, tree.nodes.storage[root.left].length)
	require.NoError(t, tree.Validate())
}

func TestArenaRecyclesSlots(t *testing.T) {
	t.Parallel()

	tree := NewWithSpan(NewLineageSpan(0, 10))
	require.NoError(t, tree.Erase(3, 4))
	require.NoError(t, tree.Erase(0, 3))

	slots := len(tree.nodes.storage)

	require.NoError(t, tree.Insert(NewGapSpan(2), 0))
	assert.Len(t, tree.nodes.storage, slots)
	require.NoError(t, tree.Validate())
}

func TestValidateDetectsCorruption(t *testing.T) {
	t.Parallel()

	tree := New()
	require.NoError(t, tree.InsertRun(0, NewLineageSpan(0, 4), NewGapSpan(3), NewDonorSpan(10, 5)))

	tree.nodes.storage[tree.root].length++
	require.ErrorIs(t, tree.Validate(), ErrConsistency)
	tree.nodes.storage[tree.root].length--
	require.NoError(t, tree.Validate())

	left := tree.nodes.storage[tree.root].left
	require.NotEqual(t, nilNode, left)

	tree.nodes.storage[left].parent = nilNode
	require.ErrorIs(t, tree.Validate(), ErrConsistency)
}

func TestRandomEditsMatchModel(t *testing.T) {
	t.Parallel()

	const (
		rounds  = 2000
		initial = 200
	)

	rng := rand.New(rand.NewSource(42)) //nolint:gosec // deterministic test data.
	tree := NewWithSpan(NewLineageSpan(0, initial))
	model := spanCells(NewLineageSpan(0, initial))
	donor := 0

	for round := range rounds {
		switch rng.Intn(4) {
		case 0, 1:
			col := rng.Intn(len(model) + 1)
			length := rng.Intn(8) + 1

			var span Span
			if rng.Intn(2) == 0 {
				span = NewGapSpan(length)
			} else {
				span = NewDonorSpan(donor, length)
				donor += length
			}

			require.NoError(t, tree.Insert(span, col))
			model = append(model[:col], append(spanCells(span), model[col:]...)...)
		case 2:
			if len(model) == 0 {
				continue
			}

			col := rng.Intn(len(model))
			length := rng.Intn(min(len(model)-col, 12)) + 1

			require.NoError(t, tree.Erase(col, length))
			model = append(model[:col], model[col+length:]...)
		default:
			if len(model) == 0 {
				continue
			}

			col := rng.Intn(len(model))
			loc, err := tree.LookupColumn(col)
			require.NoError(t, err)

			within := col - loc.Column
			require.GreaterOrEqual(t, within, 0)
			require.Less(t, within, loc.Span.Len())
			assert.Equal(t, model[col].kind, loc.Span.Kind)
			assert.Equal(t, seqLenOf(model[:loc.Column]), loc.Offset)
		}

		require.Equal(t, len(model), tree.Len(), "round %d", round)
		require.Equal(t, seqLenOf(model), tree.SeqLen(), "round %d", round)
		require.LessOrEqual(t, tree.SeqLen(), tree.Len())

		if round%50 == 0 {
			require.NoError(t, tree.Validate(), "round %d", round)
			require.Equal(t, model, expand(tree.Spans()), "round %d", round)
		}
	}

	require.NoError(t, tree.Validate())
	require.Equal(t, model, expand(tree.Spans()))
}

// dump formats the spans of tree, one per line with the starting column.
func dump(tree *Tree) string {
	var builder strings.Builder

	col := 0

	for _, span := range tree.Spans() {
		fmt.Fprintf(&builder, "%d %s\n", col, span)

		col += span.Len()
	}

	return builder.String()
}

func TestSpansListLayout(t *testing.T) {
	t.Parallel()

	tree := New()
	require.NoError(t, tree.InsertRun(0, NewLineageSpan(0, 2), NewGapSpan(3)))
	assert.Equal(t, "0 lineage[0:2]\n2 gap[3]\n", dump(tree))
}
