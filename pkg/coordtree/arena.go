package coordtree

import "github.com/Sumatoshi-tech/sgevolve/pkg/safeconv"

// nilNode is the reserved arena slot meaning "no node". Its aggregates stay zero,
// so absent children contribute nothing to a parent's totals.
const nilNode uint32 = 0

// growCapacityNumerator and growCapacityDenominator define the 3/2 growth factor for storage.
const (
	growCapacityNumerator   = 3
	growCapacityDenominator = 2
)

type node struct {
	span      Span
	parent    uint32
	left      uint32
	right     uint32
	length    int
	seqLength int
}

// arena owns the nodes of one Tree. Freed slots are recycled LIFO.
type arena struct {
	storage []node
	free    []uint32
}

func newArena(capacity int) arena {
	if capacity < 1 {
		capacity = 1
	}

	storage := make([]node, 1, capacity+1)

	return arena{storage: storage}
}

func (a *arena) malloc(span Span) uint32 {
	var idx uint32

	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		if len(a.storage) == cap(a.storage) {
			grown := make([]node, len(a.storage), (cap(a.storage)*growCapacityNumerator)/growCapacityDenominator+1)
			copy(grown, a.storage)
			a.storage = grown
		}

		idx = safeconv.MustIntToUint32(len(a.storage))
		a.storage = append(a.storage, node{})
	}

	a.storage[idx] = node{span: span, length: span.Len(), seqLength: span.SeqLen()}

	return idx
}

func (a *arena) release(idx uint32) {
	if idx == nilNode {
		panic("node #0 is special and cannot be deallocated")
	}

	a.storage[idx] = node{}
	a.free = append(a.free, idx)
}

// used returns the number of live nodes.
func (a *arena) used() int {
	return len(a.storage) - 1 - len(a.free)
}
