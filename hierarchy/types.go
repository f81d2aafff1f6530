package hierarchy

import "errors"

// NodeFilter reports whether the node with the given id should be retained.
// Filter requires the predicate to be total, deterministic and free of side
// effects; it is consulted at most once per position.
type NodeFilter func(nodeID uint64) bool

var (
	ErrInvalidArgument = errors.New("hierarchy: invalid argument")
	ErrShapeInvalid    = errors.New("hierarchy: shape invalid")
)
