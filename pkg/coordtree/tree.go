package coordtree

import "fmt"

// Location describes the span found by a lookup: the span itself, the column at
// which it begins and the number of residues before it.
type Location struct {
	Span   Span
	Column int
	Offset int
}

// Tree is a splay tree over the ordered spans of one lineage.
//
// Len() is the width of the lineage in alignment columns, SeqLen() is the number
// of residues. Lookups splay the found node to the root, so repeated access to
// neighbouring coordinates is cheap.
//
// Tree is not safe for concurrent use; lookups restructure it.
type Tree struct {
	nodes arena
	root  uint32
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{nodes: newArena(0), root: nilNode}
}

// NewWithSpan creates a tree holding a single span. Zero-length spans yield an empty tree.
func NewWithSpan(span Span) *Tree {
	tree := &Tree{nodes: newArena(1), root: nilNode}

	if span.Len() > 0 {
		tree.root = tree.nodes.malloc(span)
	}

	return tree
}

// Len returns the number of columns covered by the tree.
func (tree *Tree) Len() int {
	return tree.nodes.storage[tree.root].length
}

// SeqLen returns the number of residues covered by the tree.
func (tree *Tree) SeqLen() int {
	return tree.nodes.storage[tree.root].seqLength
}

// Nodes returns the number of spans in the tree.
func (tree *Tree) Nodes() int {
	return tree.nodes.used()
}

// LookupColumn finds the span containing column col and splays it to the root.
func (tree *Tree) LookupColumn(col int) (Location, error) {
	if col < 0 || col >= tree.Len() {
		return Location{}, fmt.Errorf("%w: column %d, tree length %d", ErrOutOfRange, col, tree.Len())
	}

	idx, _ := tree.findColumn(col)
	tree.splay(idx)

	return tree.rootLocation(), nil
}

// LookupOffset finds the span holding residue off and splays it to the root.
// Gap spans carry no residues and are never returned.
func (tree *Tree) LookupOffset(off int) (Location, error) {
	if off < 0 || off >= tree.SeqLen() {
		return Location{}, fmt.Errorf("%w: offset %d, sequence length %d", ErrOutOfRange, off, tree.SeqLen())
	}

	idx := tree.findOffset(off)
	tree.splay(idx)

	return tree.rootLocation(), nil
}

func (tree *Tree) rootLocation() Location {
	storage := tree.nodes.storage
	root := &storage[tree.root]

	return Location{
		Span:   root.span,
		Column: storage[root.left].length,
		Offset: storage[root.left].seqLength,
	}
}

// Insert links span so that it begins at column col. A column strictly inside an
// existing span splits that span first. Zero-length spans are ignored.
func (tree *Tree) Insert(span Span, col int) error {
	if col < 0 || col > tree.Len() {
		return fmt.Errorf("%w: insertion column %d, tree length %d", ErrOutOfRange, col, tree.Len())
	}

	if span.Len() == 0 {
		return nil
	}

	if tree.root == nilNode {
		tree.root = tree.nodes.malloc(span)

		return nil
	}

	if col == tree.Len() {
		tree.appendRoot(span)

		return nil
	}

	target, within := tree.findColumn(col)
	tree.splay(target)

	newIdx := tree.nodes.malloc(span)
	storage := tree.nodes.storage

	if within == 0 {
		// Link as the in-order predecessor of target, which is now the root.
		storage[newIdx].left = storage[target].left
		tree.setParent(storage[newIdx].left, newIdx)
		tree.update(newIdx)

		storage[target].left = newIdx
		storage[newIdx].parent = target
		tree.update(target)
	} else {
		// Cut target in two and put the new span between the halves.
		head, tail := storage[target].span.SplitAt(within)
		storage[target].span = head

		tailIdx := tree.nodes.malloc(tail)
		storage = tree.nodes.storage

		storage[tailIdx].right = storage[target].right
		tree.setParent(storage[tailIdx].right, tailIdx)
		tree.update(tailIdx)

		storage[newIdx].right = tailIdx
		storage[tailIdx].parent = newIdx
		tree.update(newIdx)

		storage[target].right = newIdx
		storage[newIdx].parent = target
		tree.update(target)
	}

	tree.splay(newIdx)

	return nil
}

// InsertRun inserts spans one after another starting at column col, keeping their order.
func (tree *Tree) InsertRun(col int, spans ...Span) error {
	for _, span := range spans {
		err := tree.Insert(span, col)
		if err != nil {
			return err
		}

		col += span.Len()
	}

	return nil
}

// appendRoot makes the new span the root with the whole old tree as its left subtree.
func (tree *Tree) appendRoot(span Span) {
	newIdx := tree.nodes.malloc(span)
	storage := tree.nodes.storage

	storage[newIdx].left = tree.root
	storage[tree.root].parent = newIdx
	tree.root = newIdx
	tree.update(newIdx)
}

// Erase removes length columns starting at column col. The range may cover
// several spans; partially covered spans are cropped.
func (tree *Tree) Erase(col, length int) error {
	if col < 0 || length < 0 || col+length > tree.Len() {
		return fmt.Errorf("%w: erase [%d, %d), tree length %d", ErrOutOfRange, col, col+length, tree.Len())
	}

	for length > 0 {
		target, within := tree.findColumn(col)
		tree.splay(target)

		storage := tree.nodes.storage
		spanLen := storage[target].span.Len()

		switch {
		case within > 0 && within+length < spanLen:
			// The range is strictly inside the span: keep the head, re-link the tail.
			head, rest := storage[target].span.SplitAt(within)
			_, tail := rest.SplitAt(length)
			storage[target].span = head

			tailIdx := tree.nodes.malloc(tail)
			storage = tree.nodes.storage

			storage[tailIdx].right = storage[target].right
			tree.setParent(storage[tailIdx].right, tailIdx)
			tree.update(tailIdx)

			storage[target].right = tailIdx
			storage[tailIdx].parent = target
			tree.update(target)

			length = 0
		case within > 0:
			removed := spanLen - within
			storage[target].span = storage[target].span.CropBack(removed)
			tree.update(target)

			length -= removed
		case length < spanLen:
			storage[target].span = storage[target].span.CropFront(length)
			tree.update(target)

			length = 0
		default:
			tree.removeRoot()

			length -= spanLen
		}
	}

	return nil
}

// removeRoot unlinks the root node: its in-order predecessor is splayed to the
// top of the left subtree and adopts the right subtree.
func (tree *Tree) removeRoot() {
	storage := tree.nodes.storage
	victim := tree.root
	left, right := storage[victim].left, storage[victim].right

	tree.nodes.release(victim)

	if left == nilNode {
		tree.root = right
		tree.setParent(right, nilNode)

		return
	}

	storage[left].parent = nilNode
	tree.root = left

	pred := left
	for storage[pred].right != nilNode {
		pred = storage[pred].right
	}

	tree.splay(pred)

	storage[pred].right = right
	tree.setParent(right, pred)
	tree.update(pred)
}

// findColumn descends to the node containing column col and returns it together
// with the distance of col from the start of the node's span.
//
// REQUIRES: 0 <= col < tree.Len().
func (tree *Tree) findColumn(col int) (idx uint32, within int) {
	storage := tree.nodes.storage
	idx = tree.root

	for {
		current := &storage[idx]

		leftLen := storage[current.left].length
		if col < leftLen {
			idx = current.left

			continue
		}

		col -= leftLen
		if col < current.span.Len() {
			return idx, col
		}

		col -= current.span.Len()
		idx = current.right
	}
}

// findOffset is findColumn for residue offsets.
//
// REQUIRES: 0 <= off < tree.SeqLen().
func (tree *Tree) findOffset(off int) uint32 {
	storage := tree.nodes.storage
	idx := tree.root

	for {
		current := &storage[idx]

		leftLen := storage[current.left].seqLength
		if off < leftLen {
			idx = current.left

			continue
		}

		off -= leftLen
		if off < current.span.SeqLen() {
			return idx
		}

		off -= current.span.SeqLen()
		idx = current.right
	}
}

func (tree *Tree) setParent(child, parent uint32) {
	if child != nilNode {
		tree.nodes.storage[child].parent = parent
	}
}

// update recomputes the aggregates of a node from its span and children.
func (tree *Tree) update(idx uint32) {
	storage := tree.nodes.storage
	current := &storage[idx]
	current.length = storage[current.left].length + current.span.Len() + storage[current.right].length
	current.seqLength = storage[current.left].seqLength + current.span.SeqLen() + storage[current.right].seqLength
}

// rotate lifts idx above its parent.
func (tree *Tree) rotate(idx uint32) {
	storage := tree.nodes.storage
	parent := storage[idx].parent
	grandparent := storage[parent].parent

	if storage[parent].left == idx {
		moved := storage[idx].right
		storage[parent].left = moved
		tree.setParent(moved, parent)
		storage[idx].right = parent
	} else {
		moved := storage[idx].left
		storage[parent].right = moved
		tree.setParent(moved, parent)
		storage[idx].left = parent
	}

	storage[parent].parent = idx
	storage[idx].parent = grandparent

	switch {
	case grandparent == nilNode:
		tree.root = idx
	case storage[grandparent].left == parent:
		storage[grandparent].left = idx
	default:
		storage[grandparent].right = idx
	}

	tree.update(parent)
	tree.update(idx)
}

// splay moves idx to the root with zig, zig-zig and zig-zag steps.
func (tree *Tree) splay(idx uint32) {
	storage := tree.nodes.storage

	for storage[idx].parent != nilNode {
		parent := storage[idx].parent
		grandparent := storage[parent].parent

		if grandparent != nilNode {
			if (storage[grandparent].left == parent) == (storage[parent].left == idx) {
				tree.rotate(parent)
			} else {
				tree.rotate(idx)
			}
		}

		tree.rotate(idx)
	}

	tree.root = idx
}

// next returns the in-order successor of idx or nilNode.
func (tree *Tree) next(idx uint32) uint32 {
	storage := tree.nodes.storage

	if storage[idx].right != nilNode {
		cursor := storage[idx].right
		for storage[cursor].left != nilNode {
			cursor = storage[cursor].left
		}

		return cursor
	}

	for {
		parent := storage[idx].parent
		if parent == nilNode {
			return nilNode
		}

		if storage[parent].left == idx {
			return parent
		}

		idx = parent
	}
}

// first returns the leftmost node or nilNode.
func (tree *Tree) first() uint32 {
	storage := tree.nodes.storage
	idx := tree.root

	if idx == nilNode {
		return nilNode
	}

	for storage[idx].left != nilNode {
		idx = storage[idx].left
	}

	return idx
}

// Walk visits the spans overlapping columns [col, col+length) in order without
// restructuring the tree. For each span the callback receives the number of its
// columns skipped before the range and the number of its columns inside it.
func (tree *Tree) Walk(col, length int, visit func(span Span, skip, take int)) error {
	if col < 0 || length < 0 || col+length > tree.Len() {
		return fmt.Errorf("%w: walk [%d, %d), tree length %d", ErrOutOfRange, col, col+length, tree.Len())
	}

	if length == 0 {
		return nil
	}

	idx, skip := tree.findColumn(col)
	storage := tree.nodes.storage

	for length > 0 {
		span := storage[idx].span
		take := min(span.Len()-skip, length)

		visit(span, skip, take)

		length -= take
		skip = 0
		idx = tree.next(idx)
	}

	return nil
}

// Spans returns the spans of the tree in column order.
func (tree *Tree) Spans() []Span {
	spans := make([]Span, 0, tree.Nodes())

	for idx := tree.first(); idx != nilNode; idx = tree.next(idx) {
		spans = append(spans, tree.nodes.storage[idx].span)
	}

	return spans
}
