// Package lcb rearranges committed lineage trees into locally collinear blocks.
//
// Every block carries one Extent per sequence. Following Next from a sequence's
// first block visits that sequence's blocks in genome order; a negative Left marks
// the block as reverse complemented in that sequence.
package lcb

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/sgevolve/pkg/mathutil"
)

var (
	// ErrConsistency is returned when the block graph breaks one of its invariants.
	ErrConsistency = errors.New("block graph is inconsistent")
	// ErrOutOfRange is returned for inversion records outside the alignment.
	ErrOutOfRange = errors.New("inversion out of range")
)

// BlockID identifies a block; it is the block's index in Result.Blocks.
type BlockID int

// Ref is an optional reference to a block.
type Ref struct {
	id  BlockID
	set bool
}

// NoBlock is the empty reference.
var NoBlock = Ref{}

// RefTo returns a reference to block id.
func RefTo(id BlockID) Ref {
	return Ref{id: id, set: true}
}

// Get returns the referenced block and whether the reference is set.
func (ref Ref) Get() (BlockID, bool) {
	return ref.id, ref.set
}

// IsSet reports whether the reference points at a block.
func (ref Ref) IsSet() bool {
	return ref.set
}

// String implements fmt.Stringer.
func (ref Ref) String() string {
	if !ref.set {
		return "none"
	}

	return fmt.Sprintf("#%d", ref.id)
}

// Extent is the position of a block in one sequence together with its chain links.
//
// Before linearization Left and Right are 1-based alignment columns; afterwards they
// are 1-based offsets into the evolved sequence. Both carry the strand sign.
type Extent struct {
	Left  int
	Right int
	Prev  Ref
	Next  Ref
}

// Len returns the number of columns or residues covered by the extent.
func (extent Extent) Len() int {
	return mathutil.Abs(extent.Right) - mathutil.Abs(extent.Left) + 1
}

// Reversed reports whether the block is reverse complemented in this sequence.
func (extent Extent) Reversed() bool {
	return extent.Left < 0
}

// Strand returns '+' or '-'.
func (extent Extent) Strand() byte {
	if extent.Reversed() {
		return '-'
	}

	return '+'
}

// Block is one locally collinear block.
type Block struct {
	ID      BlockID
	Extents []Extent
	// Rows holds the aligned residues of the block per sequence.
	Rows [][]byte
}

// Empty reports whether no sequence has residues in the block.
func (block *Block) Empty() bool {
	for _, row := range block.Rows {
		for _, c := range row {
			if c != gapChar {
				return false
			}
		}
	}

	return true
}

// Inversion is a pending inversion of columns [Column, Column+Length) of one sequence.
type Inversion struct {
	Column int
	Length int
}

// End returns the first column after the inverted range.
func (inv Inversion) End() int {
	return inv.Column + inv.Length
}

const gapChar = '-'
