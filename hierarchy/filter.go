package hierarchy

import "fmt"

// Filter returns the nodes of h whose entire ancestor chain, including the
// node itself, satisfies keep. The result preserves the input order and is a
// well formed forest view in its own right: depths are renumbered so that
// each retained node's depth is exactly the count of its retained ancestors.
// Chaining is therefore always possible, the result of one call is a valid
// input to the next.
//
// The pass is O(n) in time and auxiliary space and visits each position
// exactly once. The view is trusted to satisfy the DFS pre-order invariants
// described in the package documentation; behavior on a malformed sequence is
// unspecified. An empty view yields an empty result, not an error. Filter is
// pure, concurrent callers need no coordination.
func Filter(h Hierarchy, keep NodeFilter) (*ArrayHierarchy, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: nil hierarchy", ErrInvalidArgument)
	}
	if keep == nil {
		return nil, fmt.Errorf("%w: nil node filter", ErrInvalidArgument)
	}

	size := h.Size()

	nodeIDs := make([]uint64, 0, size)
	depths := make([]uint32, 0, size)

	// Both scratch tables are indexed by *original* depth. liveAtDepth[d]
	// records whether the most recently visited node at depth d survived
	// together with its whole ancestor chain. newDepthAtDepth[d] is the
	// renumbered depth assigned to that node, and is only meaningful while
	// liveAtDepth[d] is true. A depth can never exceed the node count, so
	// size bounds both tables.
	liveAtDepth := make([]bool, size)
	newDepthAtDepth := make([]uint32, size)

	previous := uint32(0)
	for i := uint64(0); i < size; i++ {

		nodeID := h.NodeID(i)
		depth := h.Depth(i)

		// Arriving at or above the previous depth means the previous branch
		// has been exited. Retire the liveness recorded at this depth and
		// below the previous tip, it belongs to a subtree that is no longer
		// on the current path. Slots deeper than the previous tip are
		// already clear, so on the first position this clears nothing.
		if depth <= previous {
			clear(liveAtDepth[depth : previous+1])
		}

		// A root has no parent constraint, otherwise the node inherits the
		// liveness of its parent, which is always the nearest preceding
		// position at depth-1 and so is exactly liveAtDepth[depth-1].
		live := depth == 0 || liveAtDepth[depth-1]
		live = live && keep(nodeID)
		liveAtDepth[depth] = live

		if live {
			// The renumbered depth is one more than the retained parent's,
			// counting only retained ancestors.
			var newDepth uint32
			if depth > 0 {
				newDepth = newDepthAtDepth[depth-1] + 1
			}
			newDepthAtDepth[depth] = newDepth

			nodeIDs = append(nodeIDs, nodeID)
			depths = append(depths, newDepth)
		}

		previous = depth
	}

	return &ArrayHierarchy{nodeIDs: nodeIDs, depths: depths}, nil
}
