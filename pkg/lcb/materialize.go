package lcb

import (
	"bytes"
	"fmt"

	"github.com/Sumatoshi-tech/sgevolve/pkg/coordtree"
	"github.com/Sumatoshi-tech/sgevolve/pkg/seqio"
)

// materialize fills Rows of every block from the frozen trees and drops the
// columns that are gaps in every sequence.
func (g *graph) materialize(in Input) error {
	for _, block := range g.blocks {
		lo, hi := g.columns(block.ID)
		block.Rows = make([][]byte, len(in.Trees))

		for seq, tree := range in.Trees {
			row, err := readColumns(tree, lo-1, hi-lo+1, in.Lineages[seq], in.Donor)
			if err != nil {
				return fmt.Errorf("block #%d sequence %d: %w", block.ID, seq, err)
			}

			block.Rows[seq] = row
		}

		dropGapColumns(block.Rows)
	}

	return nil
}

func readColumns(tree *coordtree.Tree, col, length int, lineage, donor []byte) ([]byte, error) {
	row := make([]byte, 0, length)

	var sourceErr error

	err := tree.Walk(col, length, func(span coordtree.Span, skip, take int) {
		var source []byte

		switch span.Kind {
		case coordtree.SourceGap:
			row = append(row, bytes.Repeat([]byte{gapChar}, take)...)

			return
		case coordtree.SourceLineage:
			source = lineage
		case coordtree.SourceDonor:
			source = donor
		}

		from := span.Offset + skip
		if from+take > len(source) {
			if sourceErr == nil {
				sourceErr = fmt.Errorf("%w: %s span reads [%d, %d) of a %d-long buffer",
					ErrOutOfRange, span.Kind, from, from+take, len(source))
			}

			return
		}

		row = append(row, source[from:from+take]...)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConsistency, err)
	}

	if sourceErr != nil {
		return nil, sourceErr
	}

	return row, nil
}

func dropGapColumns(rows [][]byte) {
	if len(rows) == 0 {
		return
	}

	kept := 0

	for col := range rows[0] {
		keep := false

		for _, row := range rows {
			if row[col] != gapChar {
				keep = true

				break
			}
		}

		if !keep {
			continue
		}

		for _, row := range rows {
			row[kept] = row[col]
		}

		kept++
	}

	for seq := range rows {
		rows[seq] = rows[seq][:kept]
	}
}

// linearize concatenates every chain into an ungapped sequence and rewrites the
// extents into 1-based sequence coordinates.
func (g *graph) linearize() *Result {
	result := &Result{
		Blocks:    g.blocks,
		First:     make([]BlockID, len(g.first)),
		Sequences: make([][]byte, len(g.first)),
	}

	for seq, head := range g.first {
		result.First[seq], _ = head.Get()

		var sequence []byte

		for ref := head; ref.IsSet(); {
			id, _ := ref.Get()
			extent := g.extent(id, seq)

			residues := degap(g.blocks[id].Rows[seq])
			if extent.Reversed() {
				residues = seqio.ReverseComplement(residues)
			}

			left := len(sequence) + 1
			sequence = append(sequence, residues...)
			right := len(sequence)

			if extent.Reversed() {
				left, right = -left, -right
			}

			extent.Left, extent.Right = left, right
			ref = extent.Next
		}

		result.Sequences[seq] = sequence
	}

	return result
}

func degap(row []byte) []byte {
	residues := make([]byte, 0, len(row))

	for _, c := range row {
		if c != gapChar {
			residues = append(residues, c)
		}
	}

	return residues
}
