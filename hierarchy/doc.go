// Package hierarchy implements single pass filtering over flattened forests.
//
// A forest (one or more independent trees) is represented as a flat sequence
// of (node id, depth) pairs in depth first pre-order. The depth is the
// distance from the node to the root of its own tree, so every tree root in
// the forest has depth 0. No parent pointers are stored: for any position i
// with depth d > 0, the parent is the nearest preceding position with depth
// d - 1. A node's descendants occupy the contiguous range immediately
// following it, all with greater depth, until a position with depth less than
// or equal to its own is seen.
//
// So given the forest
//
//	1         6      8
//	└── 2     └── 7  └── 9
//	    └── 3        └── 10
//	        └── 4        └── 11
//	└── 5
//
// the flattened form is
//
//	ids:    1  2  3  4  5  6  7  8  9  10  11
//	depths: 0  1  2  3  1  0  1  0  1   1   2
//
// Filter consumes such a sequence together with a predicate over node ids
// and produces the subsequence of nodes whose entire ancestor chain,
// including the node itself, satisfies the predicate. Depths in the result
// are renumbered so that each retained node's depth counts only its retained
// ancestors. A single forward pass suffices: validity and renumbered depth
// are tracked per original depth level and retired whenever the traversal
// backtracks, so no recursion and no materialized tree are ever needed.
//
// The functions in this package operate on the Hierarchy view interface and
// place the burden of knowledge on the caller: the sequence is trusted to be
// a well formed DFS pre-order and Filter does not re-derive or check that
// invariant. CheckShape is provided separately for callers that ingest
// sequences from untrusted sources and want the safety rail at the boundary.
package hierarchy
