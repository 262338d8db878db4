package coordtree

import "errors"

// ErrOutOfRange is returned when a column or offset lies outside the tree.
var ErrOutOfRange = errors.New("coordinate out of range")

// ErrConsistency is returned by Validate() when a cached aggregate or a link
// disagrees with the recomputed value.
var ErrConsistency = errors.New("coordinate tree is inconsistent")
