// Package coordtree maps alignment columns to ungapped sequence offsets for one
// evolving lineage. The mapping is a splay tree of Span-s stored in a flat arena;
// every node caches the gapped and ungapped lengths of its subtree, so columns and
// offsets are never stored and survive arbitrary splice edits.
package coordtree

import "fmt"

// SourceKind tells where the residues of a Span come from.
type SourceKind uint8

const (
	// SourceGap is a run of alignment gaps without residues.
	SourceGap SourceKind = iota
	// SourceLineage refers into the lineage's own ancestral row.
	SourceLineage
	// SourceDonor refers into the shared donor pool.
	SourceDonor
)

// String implements fmt.Stringer.
func (kind SourceKind) String() string {
	switch kind {
	case SourceGap:
		return "gap"
	case SourceLineage:
		return "lineage"
	case SourceDonor:
		return "donor"
	default:
		return fmt.Sprintf("SourceKind(%d)", uint8(kind))
	}
}

// Span is a contiguous run of gapped coordinate space.
type Span struct {
	Kind   SourceKind
	Offset int // position in the source buffer, zero for gaps.
	Length int
}

// NewLineageSpan creates a span over the lineage row [offset, offset+length).
func NewLineageSpan(offset, length int) Span {
	checkSpan(offset, length)

	return Span{Kind: SourceLineage, Offset: offset, Length: length}
}

// NewDonorSpan creates a span over the donor pool [offset, offset+length).
func NewDonorSpan(offset, length int) Span {
	checkSpan(offset, length)

	return Span{Kind: SourceDonor, Offset: offset, Length: length}
}

// NewGapSpan creates a run of length gaps.
func NewGapSpan(length int) Span {
	checkSpan(0, length)

	return Span{Kind: SourceGap, Length: length}
}

func checkSpan(offset, length int) {
	if offset < 0 {
		panic(fmt.Sprintf("span offset may not be negative: %d", offset))
	}

	if length < 0 {
		panic(fmt.Sprintf("span length may not be negative: %d", length))
	}
}

// Len returns the number of alignment columns covered by the span.
func (span Span) Len() int {
	return span.Length
}

// SeqLen returns the number of residues in the span: zero for gaps.
func (span Span) SeqLen() int {
	if span.Kind == SourceGap {
		return 0
	}

	return span.Length
}

// IsGap reports whether the span is a gap run.
func (span Span) IsGap() bool {
	return span.Kind == SourceGap
}

// SplitAt cuts the span after k columns.
//
// REQUIRES: 0 < k < span.Len().
func (span Span) SplitAt(k int) (left, right Span) {
	if k <= 0 || k >= span.Length {
		panic(fmt.Sprintf("split point %d is outside of (0, %d)", k, span.Length))
	}

	left, right = span, span
	left.Length = k
	right.Length = span.Length - k

	if span.Kind != SourceGap {
		right.Offset += k
	}

	return left, right
}

// CropFront removes n columns from the start of the span.
//
// REQUIRES: 0 <= n <= span.Len().
func (span Span) CropFront(n int) Span {
	if n < 0 || n > span.Length {
		panic(fmt.Sprintf("cannot crop %d columns from the front of a %d-column span", n, span.Length))
	}

	span.Length -= n

	if span.Kind != SourceGap {
		span.Offset += n
	}

	return span
}

// CropBack removes n columns from the end of the span.
//
// REQUIRES: 0 <= n <= span.Len().
func (span Span) CropBack(n int) Span {
	if n < 0 || n > span.Length {
		panic(fmt.Sprintf("cannot crop %d columns from the back of a %d-column span", n, span.Length))
	}

	span.Length -= n

	return span
}

// String formats the span for error messages.
func (span Span) String() string {
	if span.Kind == SourceGap {
		return fmt.Sprintf("gap[%d]", span.Length)
	}

	return fmt.Sprintf("%s[%d:%d]", span.Kind, span.Offset, span.Offset+span.Length)
}
