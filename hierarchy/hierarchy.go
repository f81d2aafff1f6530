package hierarchy

import "fmt"

// Hierarchy is a read only view of a flattened forest: node ids and depths in
// DFS pre-order, as described in the package documentation. All three methods
// are O(1) and implementations must be immutable for the duration of any call
// that accepts the view. Any richer representation can be filtered so long as
// it projects into this form.
type Hierarchy interface {
	// Size returns the number of nodes in the forest.
	Size() uint64
	// NodeID returns the identity of the node at position i. Identities are
	// opaque and unique across the whole forest.
	NodeID(i uint64) uint64
	// Depth returns the distance of the node at position i from the root of
	// its own tree. Tree roots have depth 0.
	Depth(i uint64) uint32
}

// ArrayHierarchy is the parallel array implementation of Hierarchy and the
// concrete result type of Filter.
type ArrayHierarchy struct {
	nodeIDs []uint64
	depths  []uint32
}

// NewArrayHierarchy creates a view over the supplied parallel arrays. The
// arrays are retained, not copied; the caller must not mutate them after
// construction. Nil arrays or mismatched lengths are invalid. The content is
// trusted to be a well formed DFS pre-order sequence, see CheckShape.
func NewArrayHierarchy(nodeIDs []uint64, depths []uint32) (*ArrayHierarchy, error) {
	if nodeIDs == nil {
		return nil, fmt.Errorf("%w: nil nodeIDs", ErrInvalidArgument)
	}
	if depths == nil {
		return nil, fmt.Errorf("%w: nil depths", ErrInvalidArgument)
	}
	if len(nodeIDs) != len(depths) {
		return nil, fmt.Errorf(
			"%w: parallel array lengths differ: nodeIDs=%d, depths=%d",
			ErrInvalidArgument, len(nodeIDs), len(depths),
		)
	}
	return &ArrayHierarchy{nodeIDs: nodeIDs, depths: depths}, nil
}

func (h *ArrayHierarchy) Size() uint64 {
	return uint64(len(h.nodeIDs))
}

func (h *ArrayHierarchy) NodeID(i uint64) uint64 {
	return h.nodeIDs[i]
}

func (h *ArrayHierarchy) Depth(i uint64) uint32 {
	return h.depths[i]
}

// String renders the view in the diagnostic format of FormatString.
func (h *ArrayHierarchy) String() string {
	return FormatString(h)
}
