package hierarchy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNewArrayHierarchy(t *testing.T, nodeIDs []uint64, depths []uint32) *ArrayHierarchy {
	t.Helper()
	h, err := NewArrayHierarchy(nodeIDs, depths)
	require.NoError(t, err)
	return h
}

func TestFilter(t *testing.T) {
	notDivisibleBy3 := func(id uint64) bool { return id%3 != 0 }
	even := func(id uint64) bool { return id%2 == 0 }
	odd := func(id uint64) bool { return id%2 == 1 }
	everything := func(id uint64) bool { return true }
	nothing := func(id uint64) bool { return false }
	not := func(exclude uint64) NodeFilter {
		return func(id uint64) bool { return id != exclude }
	}
	atMost := func(limit uint64) NodeFilter {
		return func(id uint64) bool { return id <= limit }
	}

	type args struct {
		nodeIDs []uint64
		depths  []uint32
		keep    NodeFilter
	}
	tests := []struct {
		name string
		args args
		want string
	}{
		{
			"multiples of three pruned across a three tree forest",
			args{
				[]uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
				[]uint32{0, 1, 2, 3, 1, 0, 1, 0, 1, 1, 2},
				notDivisibleBy3,
			},
			"[1:0, 2:1, 5:1, 8:0, 10:1, 11:2]",
		},
		{
			"empty forest yields empty result",
			args{[]uint64{}, []uint32{}, notDivisibleBy3},
			"[]",
		},
		{
			"accept everything preserves every node and every depth",
			args{
				[]uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
				[]uint32{0, 1, 2, 3, 1, 0, 1, 0, 1, 1, 2},
				everything,
			},
			"[1:0, 2:1, 3:2, 4:3, 5:1, 6:0, 7:1, 8:0, 9:1, 10:1, 11:2]",
		},
		{
			"accept nothing yields empty result",
			args{
				[]uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
				[]uint32{0, 1, 2, 3, 1, 0, 1, 0, 1, 1, 2},
				nothing,
			},
			"[]",
		},
		{
			"failing root prunes its whole tree",
			args{[]uint64{1, 2, 3, 4}, []uint32{0, 1, 2, 3}, not(1)},
			"[]",
		},
		{
			"failing mid chain node prunes everything beneath it",
			args{[]uint64{1, 2, 3, 4}, []uint32{0, 1, 2, 3}, not(2)},
			"[1:0]",
		},
		{
			"failing root of the second tree prunes that tree only",
			args{[]uint64{10, 20, 30, 40, 50}, []uint32{0, 1, 0, 1, 2}, not(40)},
			"[10:0, 20:1, 30:0]",
		},
		{
			"odd root rejects even children",
			args{[]uint64{1, 2, 3, 4}, []uint32{0, 1, 1, 1}, even},
			"[]",
		},
		{
			"mixed siblings keep only the even ones",
			args{[]uint64{2, 3, 4, 5}, []uint32{0, 1, 1, 1}, even},
			"[2:0, 4:1]",
		},
		{
			"deep chain truncated at the first failing node",
			args{[]uint64{1, 2, 3, 4, 5}, []uint32{0, 1, 2, 3, 4}, atMost(4)},
			"[1:0, 2:1, 3:2, 4:3]",
		},
		{
			"pruned leaf leaves its sibling intact",
			args{[]uint64{1, 2, 3}, []uint32{0, 1, 1}, not(3)},
			"[1:0, 2:1]",
		},
		{
			"single node kept",
			args{[]uint64{42}, []uint32{0}, everything},
			"[42:0]",
		},
		{
			"single node rejected",
			args{[]uint64{42}, []uint32{0}, nothing},
			"[]",
		},
		{
			"alternating parity keeps only the root of a deep chain",
			args{[]uint64{1, 2, 3, 4, 5}, []uint32{0, 1, 2, 3, 4}, odd},
			"[1:0]",
		},
		{
			"pruned subtree does not leak liveness into the next sibling",
			args{[]uint64{1, 2, 3, 4, 5}, []uint32{0, 1, 2, 1, 2}, not(2)},
			"[1:0, 4:1, 5:2]",
		},
		{
			"failing later root prunes its children after a surviving tree",
			args{[]uint64{2, 4, 1, 6}, []uint32{0, 1, 0, 1}, even},
			"[2:0, 4:1]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := mustNewArrayHierarchy(t, tt.args.nodeIDs, tt.args.depths)
			got, err := Filter(h, tt.args.keep)
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatString(got))
			assert.NoError(t, CheckShape(got))
		})
	}
}

func TestFilterInvalidArguments(t *testing.T) {
	h := mustNewArrayHierarchy(t, []uint64{1}, []uint32{0})

	_, err := Filter(nil, func(uint64) bool { return true })
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Filter(h, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFilterComposition(t *testing.T) {
	h := mustNewArrayHierarchy(
		t,
		[]uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
		[]uint32{0, 1, 2, 3, 1, 0, 1, 0, 1, 1, 2},
	)

	first, err := Filter(h, func(id uint64) bool { return id%3 != 0 })
	require.NoError(t, err)
	require.Equal(t, "[1:0, 2:1, 5:1, 8:0, 10:1, 11:2]", FormatString(first))

	// The result is itself a well formed forest view, so it feeds straight
	// back into Filter. Pruning 10 from the chained view must prune 11 too,
	// 11 is a child of 10 in the filtered structure.
	second, err := Filter(first, func(id uint64) bool { return id <= 8 })
	require.NoError(t, err)
	assert.Equal(t, "[1:0, 2:1, 5:1, 8:0]", FormatString(second))
}

// generateDFSForest produces a pseudo random but well formed flattened
// forest: the first position is a root and each subsequent depth is drawn
// from [0, previous+1].
func generateDFSForest(r *rand.Rand, n int) ([]uint64, []uint32) {
	nodeIDs := make([]uint64, n)
	depths := make([]uint32, n)
	var prev uint32
	for i := 0; i < n; i++ {
		nodeIDs[i] = uint64(i + 1)
		if i > 0 {
			depths[i] = uint32(r.Intn(int(prev + 2)))
		}
		prev = depths[i]
	}
	return nodeIDs, depths
}

// referenceFilter recomputes the expected result the slow way: for every
// position, walk the full root path with Ancestors and require the predicate
// to hold along all of it. The retained depth is the ancestor count, all of
// which are retained by construction.
func referenceFilter(h Hierarchy, keep NodeFilter) ([]uint64, []uint32) {
	nodeIDs := []uint64{}
	depths := []uint32{}
	for i := uint64(0); i < h.Size(); i++ {
		if !keep(h.NodeID(i)) {
			continue
		}
		ancestors := Ancestors(h, i)
		live := true
		for _, a := range ancestors {
			if !keep(h.NodeID(a)) {
				live = false
				break
			}
		}
		if !live {
			continue
		}
		nodeIDs = append(nodeIDs, h.NodeID(i))
		depths = append(depths, uint32(len(ancestors)))
	}
	return nodeIDs, depths
}

func TestFilterRandomForestProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7343209811))

	for round := 0; round < 16; round++ {
		n := 1 + r.Intn(512)
		nodeIDs, depths := generateDFSForest(r, n)
		h := mustNewArrayHierarchy(t, nodeIDs, depths)
		require.NoError(t, CheckShape(h))

		// Deterministic random membership predicate over the round's ids.
		retained := map[uint64]bool{}
		for _, id := range nodeIDs {
			retained[id] = r.Intn(4) != 0
		}
		keep := func(id uint64) bool { return retained[id] }

		got, err := Filter(h, keep)
		require.NoError(t, err)

		// Ancestor inclusion, completeness, order preservation and depth
		// density, all checked against the independent slow path.
		wantIDs, wantDepths := referenceFilter(h, keep)
		want := mustNewArrayHierarchy(t, wantIDs, wantDepths)
		assert.Equal(t, FormatString(want), FormatString(got))
		assert.NoError(t, CheckShape(got))

		// Filtering is idempotent for a fixed predicate.
		again, err := Filter(got, keep)
		require.NoError(t, err)
		assert.True(t, Equal(got, again))

		// Accept everything reproduces the input, reject everything empties it.
		all, err := Filter(h, func(uint64) bool { return true })
		require.NoError(t, err)
		assert.True(t, Equal(h, all))

		none, err := Filter(h, func(uint64) bool { return false })
		require.NoError(t, err)
		assert.Equal(t, uint64(0), none.Size())
	}
}
