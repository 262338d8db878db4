package coordtree

import "fmt"

// Validate recomputes every aggregate bottom-up and checks the links of the tree.
// It does not modify the tree. Any divergence is returned wrapped in ErrConsistency.
func (tree *Tree) Validate() error {
	storage := tree.nodes.storage

	if storage[nilNode] != (node{}) {
		return fmt.Errorf("%w: sentinel node was modified", ErrConsistency)
	}

	if tree.root == nilNode {
		if used := tree.nodes.used(); used != 0 {
			return fmt.Errorf("%w: empty tree owns %d nodes", ErrConsistency, used)
		}

		return nil
	}

	if storage[tree.root].parent != nilNode {
		return fmt.Errorf("%w: root #%d has parent #%d", ErrConsistency, tree.root, storage[tree.root].parent)
	}

	type frame struct {
		idx      uint32
		expanded bool
	}

	length := make(map[uint32]int, tree.nodes.used())
	seqLength := make(map[uint32]int, tree.nodes.used())
	stack := []frame{{idx: tree.root}}
	visited := 0

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		current := &storage[top.idx]

		if !top.expanded {
			visited++

			if visited > tree.nodes.used() {
				return fmt.Errorf("%w: more reachable nodes than allocated (%d)", ErrConsistency, tree.nodes.used())
			}

			if current.span.Len() == 0 {
				return fmt.Errorf("%w: node #%d holds a zero-length span", ErrConsistency, top.idx)
			}

			stack = append(stack, frame{idx: top.idx, expanded: true})

			for _, child := range [2]uint32{current.left, current.right} {
				if child == nilNode {
					continue
				}

				if storage[child].parent != top.idx {
					return fmt.Errorf("%w: node #%d has parent #%d, expected #%d",
						ErrConsistency, child, storage[child].parent, top.idx)
				}

				stack = append(stack, frame{idx: child})
			}

			continue
		}

		wantLength := length[current.left] + current.span.Len() + length[current.right]
		wantSeqLength := seqLength[current.left] + current.span.SeqLen() + seqLength[current.right]

		if current.length != wantLength {
			return fmt.Errorf("%w: node #%d caches length %d, recomputed %d",
				ErrConsistency, top.idx, current.length, wantLength)
		}

		if current.seqLength != wantSeqLength {
			return fmt.Errorf("%w: node #%d caches sequence length %d, recomputed %d",
				ErrConsistency, top.idx, current.seqLength, wantSeqLength)
		}

		length[top.idx] = wantLength
		seqLength[top.idx] = wantSeqLength
	}

	if visited != tree.nodes.used() {
		return fmt.Errorf("%w: %d nodes reachable, %d allocated", ErrConsistency, visited, tree.nodes.used())
	}

	return nil
}
