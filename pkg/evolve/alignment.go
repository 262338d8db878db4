// Package evolve applies mutation events to an ancestral alignment.
//
// Each sequence is tracked by a coordtree.Tree whose spans point into the
// sequence's ancestral row, into the shared donor pool, or are gaps. Deletions
// leave gaps behind, so all sequences stay exactly as wide as each other as long
// as every insertion is mirrored by gap insertions in the other sequences.
// Inversions are only recorded while editing and applied once by ApplyInversions.
package evolve

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/sgevolve/pkg/coordtree"
	"github.com/Sumatoshi-tech/sgevolve/pkg/lcb"
	"github.com/Sumatoshi-tech/sgevolve/pkg/phylo"
)

var (
	// ErrPhase is returned when editing after inversions were committed, or committing twice.
	ErrPhase = errors.New("alignment inversions already committed")
	// ErrRaggedAlignment is returned when the ancestral rows differ in length.
	ErrRaggedAlignment = errors.New("alignment rows differ in length")
	// ErrUnknownSequence is returned for a sequence index outside the alignment.
	ErrUnknownSequence = errors.New("unknown sequence")
	// ErrConsistency is returned when a validation check fails.
	ErrConsistency = errors.New("alignment is inconsistent")
	// ErrOutOfRange is returned for coordinates outside a sequence or the donor pool.
	ErrOutOfRange = coordtree.ErrOutOfRange
)

// Phase of an Alignment.
type Phase int

const (
	// PhaseEditing accepts mutations and inversion records.
	PhaseEditing Phase = iota
	// PhaseCommitted is reached by ApplyInversions; the alignment is read-only.
	PhaseCommitted
)

// String implements fmt.Stringer.
func (phase Phase) String() string {
	if phase == PhaseEditing {
		return "editing"
	}

	return "committed"
}

// Options tune the validation effort.
type Options struct {
	// CheckLevel 0 skips validation, 1 validates when inversions are committed and
	// 2 also validates the touched tree after every mutation.
	CheckLevel int
}

// Alignment is an evolving multiple alignment.
type Alignment struct {
	lineages [][]byte
	donor    []byte
	trees    []*coordtree.Tree
	records  [][]lcb.Inversion
	phase    Phase
	opts     Options
}

const gapChar = '-'

// New creates an alignment from the gapped ancestral rows, one per phylogeny node.
// The donor pool is borrowed and never modified.
func New(rows [][]byte, donor []byte, opts Options) (*Alignment, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrRaggedAlignment)
	}

	width := len(rows[0])
	alignment := &Alignment{
		lineages: rows,
		donor:    donor,
		trees:    make([]*coordtree.Tree, len(rows)),
		records:  make([][]lcb.Inversion, len(rows)),
		opts:     opts,
	}

	for seq, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d columns, row 0 has %d", ErrRaggedAlignment, seq, len(row), width)
		}

		tree, err := rowTree(row)
		if err != nil {
			return nil, err
		}

		alignment.trees[seq] = tree
	}

	return alignment, nil
}

// rowTree builds a tree with one lineage span per residue run and one gap span per
// gap run. An ungapped row becomes a single lineage span.
func rowTree(row []byte) (*coordtree.Tree, error) {
	tree := coordtree.New()

	for start := 0; start < len(row); {
		end := start
		gap := row[start] == gapChar

		for end < len(row) && (row[end] == gapChar) == gap {
			end++
		}

		span := coordtree.NewLineageSpan(start, end-start)
		if gap {
			span = coordtree.NewGapSpan(end - start)
		}

		err := tree.Insert(span, start)
		if err != nil {
			return nil, err
		}

		start = end
	}

	return tree, nil
}

// Sequences returns the number of sequences.
func (alignment *Alignment) Sequences() int {
	return len(alignment.trees)
}

// Width returns the number of alignment columns.
func (alignment *Alignment) Width() int {
	return alignment.trees[0].Len()
}

// SeqLen returns the number of residues of sequence seq.
func (alignment *Alignment) SeqLen(seq int) int {
	return alignment.trees[seq].SeqLen()
}

// DonorLen returns the size of the donor pool.
func (alignment *Alignment) DonorLen() int {
	return len(alignment.donor)
}

// Phase returns the current phase.
func (alignment *Alignment) Phase() Phase {
	return alignment.phase
}

// Tree exposes the coordinate tree of sequence seq. Callers must not modify it.
func (alignment *Alignment) Tree(seq int) *coordtree.Tree {
	return alignment.trees[seq]
}

// Records returns a copy of the pending inversions of sequence seq.
func (alignment *Alignment) Records(seq int) []lcb.Inversion {
	return append([]lcb.Inversion(nil), alignment.records[seq]...)
}

func (alignment *Alignment) checkEditable(seq int) error {
	if alignment.phase != PhaseEditing {
		return ErrPhase
	}

	return alignment.checkSequence(seq)
}

func (alignment *Alignment) checkSequence(seq int) error {
	if seq < 0 || seq >= len(alignment.trees) {
		return fmt.Errorf("%w: %d of %d", ErrUnknownSequence, seq, len(alignment.trees))
	}

	return nil
}

// validateTree runs the tree validator at check level 2.
func (alignment *Alignment) validateTree(seq int) error {
	if alignment.opts.CheckLevel < 2 {
		return nil
	}

	err := alignment.trees[seq].Validate()
	if err != nil {
		return fmt.Errorf("%w: sequence %d: %w", ErrConsistency, seq, err)
	}

	return nil
}

// Validate checks every tree and that all sequences are equally wide.
func (alignment *Alignment) Validate() error {
	width := alignment.Width()

	for seq, tree := range alignment.trees {
		err := tree.Validate()
		if err != nil {
			return fmt.Errorf("%w: sequence %d: %w", ErrConsistency, seq, err)
		}

		if tree.Len() != width {
			return fmt.Errorf("%w: sequence %d is %d columns wide, sequence 0 is %d",
				ErrConsistency, seq, tree.Len(), width)
		}
	}

	return nil
}

// ApplyInversions commits the alignment and rearranges it into blocks. It can be
// called once; afterwards every mutation fails with ErrPhase.
func (alignment *Alignment) ApplyInversions(tree *phylo.Tree) (*lcb.Result, error) {
	if alignment.phase != PhaseEditing {
		return nil, ErrPhase
	}

	alignment.phase = PhaseCommitted

	if tree.Len() != len(alignment.trees) {
		return nil, fmt.Errorf("%w: phylogeny has %d nodes, alignment %d sequences",
			ErrConsistency, tree.Len(), len(alignment.trees))
	}

	if alignment.opts.CheckLevel >= 1 {
		err := alignment.Validate()
		if err != nil {
			return nil, err
		}
	}

	result, err := lcb.Apply(lcb.Input{
		Phylogeny: tree,
		Trees:     alignment.trees,
		Records:   alignment.records,
		Lineages:  alignment.lineages,
		Donor:     alignment.donor,
	}, lcb.Options{CheckLevel: alignment.opts.CheckLevel})
	if err != nil {
		return nil, fmt.Errorf("apply inversions: %w", err)
	}

	return result, nil
}
