// Package report summarizes an evolved block alignment for humans.
package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/sgevolve/pkg/lcb"
	"github.com/Sumatoshi-tech/sgevolve/pkg/phylo"
)

// SequenceStats describes one evolved sequence.
type SequenceStats struct {
	Name   string
	Leaf   bool
	Length int
	// Blocks counts the blocks holding residues of the sequence.
	Blocks int
	// Reversed counts those of them that are reverse complemented.
	Reversed int
}

// Summary describes a whole run.
type Summary struct {
	Blocks    int
	Sequences []SequenceStats
}

// Summarize collects per-sequence statistics in phylogeny node order.
func Summarize(result *lcb.Result, phylogeny *phylo.Tree) Summary {
	summary := Summary{
		Blocks:    len(result.Blocks),
		Sequences: make([]SequenceStats, len(result.Sequences)),
	}

	for seq, sequence := range result.Sequences {
		stats := SequenceStats{
			Name:   phylogeny.Nodes[seq].Name,
			Leaf:   phylogeny.IsLeaf(seq),
			Length: len(sequence),
		}

		for _, block := range result.Blocks {
			extent := block.Extents[seq]
			if extent.Len() == 0 {
				continue
			}

			stats.Blocks++

			if extent.Reversed() {
				stats.Reversed++
			}
		}

		summary.Sequences[seq] = stats
	}

	return summary
}

// TotalLength returns the residue count over all sequences.
func (summary Summary) TotalLength() int {
	total := 0
	for _, stats := range summary.Sequences {
		total += stats.Length
	}

	return total
}

// WriteTable renders the summary as a text table.
func (summary Summary) WriteTable(w io.Writer) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(fmt.Sprintf("%s blocks", humanize.Comma(int64(summary.Blocks))))
	tbl.AppendHeader(table.Row{"Sequence", "Node", "Length", "Blocks", "Reversed"})

	for _, stats := range summary.Sequences {
		node := "ancestor"
		if stats.Leaf {
			node = "leaf"
		}

		tbl.AppendRow(table.Row{
			stats.Name,
			node,
			humanize.Comma(int64(stats.Length)),
			stats.Blocks,
			stats.Reversed,
		})
	}

	tbl.AppendFooter(table.Row{"Total", "", humanize.Comma(int64(summary.TotalLength())), "", ""})

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}
