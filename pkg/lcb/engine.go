package lcb

import (
	"fmt"

	"github.com/Sumatoshi-tech/sgevolve/pkg/coordtree"
	"github.com/Sumatoshi-tech/sgevolve/pkg/mathutil"
	"github.com/Sumatoshi-tech/sgevolve/pkg/phylo"
)

// Input is everything the inversion engine consumes. Slices are indexed by
// phylogeny node, which is also the sequence index.
type Input struct {
	Phylogeny *phylo.Tree
	Trees     []*coordtree.Tree
	Records   [][]Inversion
	Lineages  [][]byte
	Donor     []byte
}

// Options tune the engine.
type Options struct {
	// CheckLevel 1 verifies the finished graph, 2 also verifies it after every split and inversion.
	CheckLevel int
}

// Result is the final block decomposition.
type Result struct {
	Blocks []*Block
	// First holds the first block of every sequence's chain.
	First []BlockID
	// Sequences are the evolved, ungapped sequences.
	Sequences [][]byte
}

// Chain returns the block IDs of sequence seq in chain order.
func (result *Result) Chain(seq int) []BlockID {
	chain := make([]BlockID, 0, len(result.Blocks))

	for ref := RefTo(result.First[seq]); ref.IsSet(); {
		id, _ := ref.Get()
		chain = append(chain, id)
		ref = result.Blocks[id].Extents[seq].Next
	}

	return chain
}

type graph struct {
	blocks []*Block
	first  []Ref
	width  int
	opts   Options
}

// Apply builds the block graph from the committed trees and pending inversions.
//
// Records are applied in phylogeny preorder and in list order within a lineage;
// each inversion is inherited by the whole subtree of its lineage.
func Apply(in Input, opts Options) (*Result, error) {
	g, err := seed(in, opts)
	if err != nil {
		return nil, err
	}

	for _, origin := range in.Phylogeny.Preorder() {
		for _, rec := range in.Records[origin] {
			if rec.Length == 0 {
				continue
			}

			err = g.applyInversion(in.Phylogeny, origin, rec)
			if err != nil {
				return nil, fmt.Errorf("sequence %d inversion [%d, %d): %w", origin, rec.Column, rec.End(), err)
			}
		}
	}

	if opts.CheckLevel >= 1 {
		err = g.check(true)
		if err != nil {
			return nil, err
		}
	}

	err = g.materialize(in)
	if err != nil {
		return nil, err
	}

	result := g.linearize()

	if opts.CheckLevel >= 1 {
		err = g.check(false)
		if err != nil {
			return nil, fmt.Errorf("after linearization: %w", err)
		}
	}

	return result, nil
}

func seed(in Input, opts Options) (*graph, error) {
	if in.Phylogeny == nil {
		return nil, fmt.Errorf("%w: no phylogeny", ErrConsistency)
	}

	count := in.Phylogeny.Len()
	if len(in.Trees) != count || len(in.Records) != count || len(in.Lineages) != count {
		return nil, fmt.Errorf("%w: %d phylogeny nodes, %d trees, %d record lists, %d lineages",
			ErrConsistency, count, len(in.Trees), len(in.Records), len(in.Lineages))
	}

	width := 0
	if count > 0 {
		width = in.Trees[0].Len()
	}

	for seq, tree := range in.Trees {
		if tree.Len() != width {
			return nil, fmt.Errorf("%w: sequence %d is %d columns wide, expected %d",
				ErrConsistency, seq, tree.Len(), width)
		}
	}

	root := &Block{ID: 0, Extents: make([]Extent, count)}
	for seq := range root.Extents {
		root.Extents[seq] = Extent{Left: 1, Right: width}
	}

	first := make([]Ref, count)
	for seq := range first {
		first[seq] = RefTo(0)
	}

	return &graph{blocks: []*Block{root}, first: first, width: width, opts: opts}, nil
}

func (g *graph) applyInversion(tree *phylo.Tree, origin int, rec Inversion) error {
	if rec.Column < 0 || rec.Length < 0 || rec.End() > g.width {
		return fmt.Errorf("%w: alignment is %d columns wide", ErrOutOfRange, g.width)
	}

	for _, pos := range [2]int{rec.Column, rec.End()} {
		err := g.ensureBoundary(origin, pos)
		if err != nil {
			return err
		}
	}

	left, right, err := g.segment(origin, rec.Column, rec.End())
	if err != nil {
		return err
	}

	for _, seq := range tree.Subtree(origin) {
		err = g.invert(seq, left, right)
		if err != nil {
			return err
		}
	}

	if g.opts.CheckLevel >= 2 {
		return g.check(true)
	}

	return nil
}

// columns returns the 1-based column range shared by every extent of the block.
func (g *graph) columns(id BlockID) (lo, hi int) {
	extent := g.blocks[id].Extents[0]

	return mathutil.Abs(extent.Left), mathutil.Abs(extent.Right)
}

func (g *graph) extent(id BlockID, seq int) *Extent {
	return &g.blocks[id].Extents[seq]
}

// ensureBoundary makes sure a chain boundary exists after pos columns of seq's chain.
func (g *graph) ensureBoundary(seq, pos int) error {
	if pos == 0 || pos == g.width {
		return nil
	}

	sum := 0
	ref := g.first[seq]

	for {
		id, ok := ref.Get()
		if !ok {
			return fmt.Errorf("%w: chain of sequence %d ends before column %d", ErrConsistency, seq, pos)
		}

		extent := g.extent(id, seq)
		length := extent.Len()

		if sum+length <= pos {
			sum += length
			ref = extent.Next

			continue
		}

		if sum == pos {
			return nil
		}

		within := pos - sum
		lo, hi := g.columns(id)

		col := lo + within
		if extent.Reversed() {
			col = hi - within + 1
		}

		return g.split(id, col)
	}
}

// split cuts block id before column col. The block keeps the lower columns and a
// new block takes [col, hi]. In sequences where the block is reversed the new
// block comes first in the chain.
func (g *graph) split(id BlockID, col int) error {
	lo, hi := g.columns(id)
	if col <= lo || col > hi {
		return fmt.Errorf("%w: split column %d outside block #%d [%d, %d]", ErrConsistency, col, id, lo, hi)
	}

	newID := BlockID(len(g.blocks))
	block := g.blocks[id]
	created := &Block{ID: newID, Extents: make([]Extent, len(block.Extents))}
	g.blocks = append(g.blocks, created)

	for seq := range block.Extents {
		extent := &block.Extents[seq]

		if extent.Reversed() {
			created.Extents[seq] = Extent{Left: -col, Right: -hi, Prev: extent.Prev, Next: RefTo(id)}

			if prev, ok := extent.Prev.Get(); ok {
				g.extent(prev, seq).Next = RefTo(newID)
			} else {
				g.first[seq] = RefTo(newID)
			}

			extent.Prev = RefTo(newID)
			extent.Right = -(col - 1)

			continue
		}

		created.Extents[seq] = Extent{Left: col, Right: hi, Prev: RefTo(id), Next: extent.Next}

		if next, ok := extent.Next.Get(); ok {
			g.extent(next, seq).Prev = RefTo(newID)
		}

		extent.Next = RefTo(newID)
		extent.Right = col - 1
	}

	if g.opts.CheckLevel >= 2 {
		return g.check(true)
	}

	return nil
}

// segment finds the blocks of seq's chain that start at column start and end at column end.
func (g *graph) segment(seq, start, end int) (left, right BlockID, err error) {
	sum := 0
	found := false

	for ref := g.first[seq]; ref.IsSet(); {
		id, _ := ref.Get()
		extent := g.extent(id, seq)

		if sum == start {
			left, found = id, true
		}

		sum += extent.Len()

		if found && sum == end {
			return left, id, nil
		}

		if sum > end {
			break
		}

		ref = extent.Next
	}

	return 0, 0, fmt.Errorf("%w: no block boundaries at %d and %d in sequence %d", ErrConsistency, start, end, seq)
}

// invert reverses the chain of seq from left to right inclusive and flips the
// strand of every block in it.
func (g *graph) invert(seq int, left, right BlockID) error {
	run := []BlockID{left}

	for current := left; current != right; {
		next, ok := g.extent(current, seq).Next.Get()
		if !ok || len(run) > len(g.blocks) {
			return fmt.Errorf("%w: block #%d does not reach #%d in sequence %d", ErrConsistency, left, right, seq)
		}

		run = append(run, next)
		current = next
	}

	outerPrev := g.extent(left, seq).Prev
	outerNext := g.extent(right, seq).Next

	for _, id := range run {
		extent := g.extent(id, seq)
		extent.Prev, extent.Next = extent.Next, extent.Prev
		extent.Left, extent.Right = -extent.Left, -extent.Right
	}

	g.extent(right, seq).Prev = outerPrev
	g.extent(left, seq).Next = outerNext

	if prev, ok := outerPrev.Get(); ok {
		g.extent(prev, seq).Next = RefTo(right)
	} else {
		g.first[seq] = RefTo(right)
	}

	if next, ok := outerNext.Get(); ok {
		g.extent(next, seq).Prev = RefTo(left)
	}

	return nil
}
