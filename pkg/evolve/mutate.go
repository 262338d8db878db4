package evolve

import (
	"fmt"

	"github.com/Sumatoshi-tech/sgevolve/pkg/coordtree"
	"github.com/Sumatoshi-tech/sgevolve/pkg/lcb"
)

// ApplyDeletion removes columns [col, col+length) from sequence seq. The columns
// are replaced by gaps so the alignment keeps its width.
func (alignment *Alignment) ApplyDeletion(seq, col, length int) error {
	err := alignment.checkEditable(seq)
	if err != nil {
		return err
	}

	tree := alignment.trees[seq]

	err = tree.Erase(col, length)
	if err != nil {
		return fmt.Errorf("delete from sequence %d: %w", seq, err)
	}

	err = tree.Insert(coordtree.NewGapSpan(length), col)
	if err != nil {
		return fmt.Errorf("delete from sequence %d: %w", seq, err)
	}

	alignment.records[seq] = deleteFromRecords(alignment.records[seq], col, col+length)

	return alignment.validateTree(seq)
}

// deleteFromRecords trims the inversion records against the deleted range [col, end).
func deleteFromRecords(records []lcb.Inversion, col, end int) []lcb.Inversion {
	kept := records[:0]

	for _, rec := range records {
		left, right := rec.Column, rec.End()

		switch {
		case left >= col && left < end && right <= end:
			continue
		case left >= col && left < end:
			rec.Length -= end - left
			rec.Column = end
		case left < col && right > col && right <= end:
			rec.Length -= right - col
		case left < col && right > end:
			rec.Length -= end - col
		}

		kept = append(kept, rec)
	}

	return kept
}

// ApplyInsertion inserts donorLength residues of the donor pool starting at
// donorOffset in front of column col of sequence seq.
func (alignment *Alignment) ApplyInsertion(seq, col, donorOffset, donorLength int) error {
	err := alignment.checkEditable(seq)
	if err != nil {
		return err
	}

	if donorOffset < 0 || donorLength < 0 || donorOffset+donorLength > len(alignment.donor) {
		return fmt.Errorf("%w: donor range [%d, %d), pool size %d",
			ErrOutOfRange, donorOffset, donorOffset+donorLength, len(alignment.donor))
	}

	return alignment.insert(seq, col, coordtree.NewDonorSpan(donorOffset, donorLength))
}

// ApplyGapInsertion inserts length gap columns in front of column col of sequence seq.
func (alignment *Alignment) ApplyGapInsertion(seq, col, length int) error {
	err := alignment.checkEditable(seq)
	if err != nil {
		return err
	}

	if length < 0 {
		return fmt.Errorf("%w: gap length %d", ErrOutOfRange, length)
	}

	return alignment.insert(seq, col, coordtree.NewGapSpan(length))
}

func (alignment *Alignment) insert(seq, col int, span coordtree.Span) error {
	err := alignment.trees[seq].Insert(span, col)
	if err != nil {
		return fmt.Errorf("insert into sequence %d: %w", seq, err)
	}

	records := alignment.records[seq]
	for i := range records {
		switch {
		case records[i].Column <= col && col < records[i].End():
			records[i].Length += span.Len()
		case records[i].Column >= col:
			records[i].Column += span.Len()
		}
	}

	return alignment.validateTree(seq)
}

// AddInversion records an inversion of columns [col, col+length) of sequence seq.
func (alignment *Alignment) AddInversion(seq, col, length int) error {
	err := alignment.checkEditable(seq)
	if err != nil {
		return err
	}

	if col < 0 || length < 0 || col+length > alignment.Width() {
		return fmt.Errorf("%w: inversion [%d, %d), alignment width %d",
			ErrOutOfRange, col, col+length, alignment.Width())
	}

	alignment.records[seq] = append(alignment.records[seq], lcb.Inversion{Column: col, Length: length})

	return nil
}

// ColumnForSequenceOffset returns the column holding residue off of sequence seq.
func (alignment *Alignment) ColumnForSequenceOffset(seq, off int) (int, error) {
	err := alignment.checkSequence(seq)
	if err != nil {
		return 0, err
	}

	loc, err := alignment.trees[seq].LookupOffset(off)
	if err != nil {
		return 0, fmt.Errorf("sequence %d: %w", seq, err)
	}

	return loc.Column + off - loc.Offset, nil
}

// ColumnRange translates residues [start, start+length) of sequence seq into the
// columns from the first to the last of them. Gap columns between the residues
// belong to the range. An empty range maps to the insertion column of start.
func (alignment *Alignment) ColumnRange(seq, start, length int) (col, width int, err error) {
	if length == 0 {
		col, err = alignment.InsertionColumn(seq, start)

		return col, 0, err
	}

	if length < 0 {
		return 0, 0, fmt.Errorf("%w: negative length %d", ErrOutOfRange, length)
	}

	first, err := alignment.ColumnForSequenceOffset(seq, start)
	if err != nil {
		return 0, 0, err
	}

	last, err := alignment.ColumnForSequenceOffset(seq, start+length-1)
	if err != nil {
		return 0, 0, err
	}

	return first, last + 1 - first, nil
}

// InsertionColumn returns the column in front of which residues must be inserted
// so that they start at offset off of sequence seq. off may equal the sequence
// length, which appends after the last residue.
func (alignment *Alignment) InsertionColumn(seq, off int) (int, error) {
	err := alignment.checkSequence(seq)
	if err != nil {
		return 0, err
	}

	seqLen := alignment.trees[seq].SeqLen()

	switch {
	case off < 0 || off > seqLen:
		return 0, fmt.Errorf("%w: insertion offset %d, sequence %d has %d residues", ErrOutOfRange, off, seq, seqLen)
	case off < seqLen:
		return alignment.ColumnForSequenceOffset(seq, off)
	case seqLen == 0:
		return 0, nil
	default:
		last, err := alignment.ColumnForSequenceOffset(seq, off-1)
		if err != nil {
			return 0, err
		}

		return last + 1, nil
	}
}
