package hierarchy

import "fmt"

// CheckShape verifies that the view is a well formed DFS pre-order depth
// sequence: the first position is a tree root and no position is more than
// one level deeper than its predecessor. An empty view is well formed.
//
// Filter and the navigation primitives trust their input and never call
// this; it is the safety rail for callers that construct views from
// untrusted sequences. A sequence accepted by CheckShape has a unique parent
// for every non root position, so all shape invariants assumed elsewhere in
// this package follow.
func CheckShape(h Hierarchy) error {
	size := h.Size()
	if size == 0 {
		return nil
	}
	if d := h.Depth(0); d != 0 {
		return fmt.Errorf(
			"%w: first position must be a tree root: depth[0]=%d", ErrShapeInvalid, d,
		)
	}
	for i := uint64(1); i < size; i++ {
		if d, prev := h.Depth(i), h.Depth(i-1); d > prev+1 {
			return fmt.Errorf(
				"%w: depth may grow by at most one per position: depth[%d]=%d follows depth[%d]=%d",
				ErrShapeInvalid, i, d, i-1, prev,
			)
		}
	}
	return nil
}
