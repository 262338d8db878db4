// Package output writes evolved alignments as XMFA block listings and FASTA.
package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/sgevolve/pkg/lcb"
	"github.com/Sumatoshi-tech/sgevolve/pkg/phylo"
	"github.com/Sumatoshi-tech/sgevolve/pkg/seqio"
)

// DefaultWidth is the line width used when Options.Width is not positive.
const DefaultWidth = 80

// Options control which sequences are written and how.
type Options struct {
	// Width wraps sequence lines.
	Width int
	// IncludeAncestors writes internal phylogeny nodes too. Leaves are always written.
	IncludeAncestors bool
}

func (opts Options) width() int {
	if opts.Width <= 0 {
		return DefaultWidth
	}

	return opts.Width
}

func (opts Options) included(phylogeny *phylo.Tree, seq int) bool {
	return opts.IncludeAncestors || phylogeny.IsLeaf(seq)
}

// WriteXMFA writes one section per block that holds residues in at least one
// written sequence. Each section lists the written sequences that are non-empty
// overall, numbered from 1, and ends with a line holding "=".
func WriteXMFA(w io.Writer, result *lcb.Result, phylogeny *phylo.Tree, opts Options) error {
	bw := bufio.NewWriter(w)

	var listed []int

	for seq := range result.Sequences {
		if opts.included(phylogeny, seq) && len(result.Sequences[seq]) > 0 {
			listed = append(listed, seq)
		}
	}

	for _, block := range result.Blocks {
		if !hasResidues(block, listed) {
			continue
		}

		for n, seq := range listed {
			err := writeXMFAEntry(bw, block, seq, n+1, phylogeny.Nodes[seq].Name, opts.width())
			if err != nil {
				return err
			}
		}

		_, err := bw.WriteString("=\n")
		if err != nil {
			return fmt.Errorf("write xmfa: %w", err)
		}
	}

	err := bw.Flush()
	if err != nil {
		return fmt.Errorf("write xmfa: %w", err)
	}

	return nil
}

func writeXMFAEntry(w io.Writer, block *lcb.Block, seq, n int, name string, width int) error {
	start, end := Interval(block.Extents[seq])

	_, err := fmt.Fprintf(w, "> %d:%d-%d %c %s\n", n, start, end, block.Extents[seq].Strand(), name)
	if err != nil {
		return fmt.Errorf("write xmfa header: %w", err)
	}

	return seqio.WriteWrapped(w, block.Rows[seq], width)
}

// Interval returns the 1-based inclusive residue range of a linearized extent,
// or 0, 0 when the extent holds no residues.
func Interval(extent lcb.Extent) (start, end int) {
	if extent.Len() == 0 {
		return 0, 0
	}

	start, end = extent.Left, extent.Right
	if extent.Reversed() {
		start, end = -start, -end
	}

	return start, end
}

func hasResidues(block *lcb.Block, seqs []int) bool {
	for _, seq := range seqs {
		for _, c := range block.Rows[seq] {
			if c != '-' {
				return true
			}
		}
	}

	return false
}

// WriteFASTA writes the evolved ungapped sequences.
func WriteFASTA(w io.Writer, result *lcb.Result, phylogeny *phylo.Tree, opts Options) error {
	bw := bufio.NewWriter(w)

	for seq, sequence := range result.Sequences {
		if !opts.included(phylogeny, seq) {
			continue
		}

		err := seqio.WriteFASTA(bw, phylogeny.Nodes[seq].Name, sequence, opts.width())
		if err != nil {
			return err
		}
	}

	err := bw.Flush()
	if err != nil {
		return fmt.Errorf("write fasta: %w", err)
	}

	return nil
}
