package lcb

import (
	"fmt"

	"github.com/Sumatoshi-tech/sgevolve/pkg/mathutil"
)

// check verifies that every chain is a symmetric doubly linked list visiting each
// block once. In column mode all extents of a block must cover the same non-empty
// column range and the chains must cover the alignment width; otherwise consecutive
// extents must abut.
func (g *graph) check(columnMode bool) error {
	for seq, head := range g.first {
		visited := make([]bool, len(g.blocks))
		prev := NoBlock
		covered := 0

		for ref := head; ref.IsSet(); {
			id, _ := ref.Get()
			if visited[id] {
				return fmt.Errorf("%w: sequence %d visits block #%d twice", ErrConsistency, seq, id)
			}

			visited[id] = true
			extent := g.extent(id, seq)

			if extent.Prev != prev {
				return fmt.Errorf("%w: sequence %d block #%d links back to %s, expected %s",
					ErrConsistency, seq, id, extent.Prev, prev)
			}

			if columnMode {
				err := g.checkColumns(id, seq)
				if err != nil {
					return err
				}
			} else if mathutil.Abs(extent.Left) != covered+1 {
				return fmt.Errorf("%w: sequence %d block #%d starts at %d, expected %d",
					ErrConsistency, seq, id, mathutil.Abs(extent.Left), covered+1)
			}

			covered += extent.Len()
			prev = ref
			ref = extent.Next
		}

		for id, ok := range visited {
			if !ok {
				return fmt.Errorf("%w: sequence %d never reaches block #%d", ErrConsistency, seq, id)
			}
		}

		if columnMode && covered != g.width {
			return fmt.Errorf("%w: sequence %d covers %d columns, expected %d", ErrConsistency, seq, covered, g.width)
		}
	}

	return nil
}

func (g *graph) checkColumns(id BlockID, seq int) error {
	lo, hi := g.columns(id)
	extent := g.extent(id, seq)

	if mathutil.Abs(extent.Left) != lo || mathutil.Abs(extent.Right) != hi {
		return fmt.Errorf("%w: block #%d covers [%d, %d] in sequence %d but [%d, %d] in sequence 0",
			ErrConsistency, id, mathutil.Abs(extent.Left), mathutil.Abs(extent.Right), seq, lo, hi)
	}

	if (extent.Left < 0) != (extent.Right < 0) {
		return fmt.Errorf("%w: block #%d has mixed signs in sequence %d", ErrConsistency, id, seq)
	}

	if extent.Len() <= 0 && g.width > 0 {
		return fmt.Errorf("%w: block #%d is empty in sequence %d", ErrConsistency, id, seq)
	}

	return nil
}
