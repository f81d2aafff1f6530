package hierarchy

// Navigation primitives over the flattened forest form. None of them
// materialize the tree; everything is recovered from the depth sequence
// alone. All positions are zero based indexes into the view.
//
// The examples below refer to the forest from the package documentation:
//
//	ids:    1  2  3  4  5  6  7  8  9  10  11
//	depths: 0  1  2  3  1  0  1  0  1   1   2
//	pos:    0  1  2  3  4  5  6  7  8   9  10

// Parent returns the position of i's parent: the nearest preceding position
// with a smaller depth, which in a well formed sequence is exactly one level
// up. ok is false when i is a tree root. The scan is O(i) in the worst case;
// callers walking whole ancestries should prefer Ancestors, which amortizes
// the scan.
//
// Parent(3) is 2, Parent(4) is 0, Parent(5) is false.
func Parent(h Hierarchy, i uint64) (uint64, bool) {
	d := h.Depth(i)
	if d == 0 {
		return 0, false
	}
	for j := i; j > 0; j-- {
		if h.Depth(j-1) < d {
			return j - 1, true
		}
	}
	return 0, false
}

// Ancestors returns the positions on i's root path, immediate parent first,
// tree root last. A single backward scan recovers the whole path: each
// strictly shallower position passed on the way back is the next ancestor.
// The result is empty for a tree root.
func Ancestors(h Hierarchy, i uint64) []uint64 {
	var ancestors []uint64

	want := h.Depth(i)
	for j := i; j > 0 && want > 0; j-- {
		if h.Depth(j-1) < want {
			ancestors = append(ancestors, j-1)
			want = h.Depth(j - 1)
		}
	}
	return ancestors
}

// FirstChild returns the position of i's first child. In pre-order a node's
// first child, when it has one, is the immediately following position one
// level deeper. ok is false for leaves.
func FirstChild(h Hierarchy, i uint64) (uint64, bool) {
	if i+1 >= h.Size() {
		return 0, false
	}
	if h.Depth(i+1) != h.Depth(i)+1 {
		return 0, false
	}
	return i + 1, true
}

// SubtreeEnd returns one past the last descendant of i: descendants of i are
// exactly the positions in [i+1, SubtreeEnd(i)). The subtree of a leaf is
// empty and SubtreeEnd returns i+1.
func SubtreeEnd(h Hierarchy, i uint64) uint64 {
	d := h.Depth(i)
	end := i + 1
	for end < h.Size() && h.Depth(end) > d {
		end++
	}
	return end
}

// NextSibling returns the position of the next sibling of i: the first
// position after i's subtree, provided it is at the same depth. ok is false
// when i is the last child of its parent (or the last root of the forest).
//
// NextSibling(1) is 4, NextSibling(0) is false: position 5 starts a new tree,
// not a sibling of root 1. Roots are not siblings of each other.
func NextSibling(h Hierarchy, i uint64) (uint64, bool) {
	d := h.Depth(i)
	end := SubtreeEnd(h, i)
	if end >= h.Size() || h.Depth(end) != d || d == 0 {
		return 0, false
	}
	return end, true
}

// IsLeaf reports whether the node at position i has no children.
func IsLeaf(h Hierarchy, i uint64) bool {
	return i+1 >= h.Size() || h.Depth(i+1) <= h.Depth(i)
}

// Roots returns the positions of the forest's tree roots, in order.
func Roots(h Hierarchy) []uint64 {
	var roots []uint64
	for i := uint64(0); i < h.Size(); i++ {
		if h.Depth(i) == 0 {
			roots = append(roots, i)
		}
	}
	return roots
}

// Equal reports whether two views have identical node id and depth sequences.
func Equal(a, b Hierarchy) bool {
	if a.Size() != b.Size() {
		return false
	}
	for i := uint64(0); i < a.Size(); i++ {
		if a.NodeID(i) != b.NodeID(i) || a.Depth(i) != b.Depth(i) {
			return false
		}
	}
	return true
}
