package hierarchytesting

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/forestrie/go-hierarchy/hierarchy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type TestGeneratorConfig struct {
	StartTimeMS     int64
	NodeRate        int
	TestLabelPrefix string
}

// TestGenerator produces deterministic pseudo random forests and node ids.
// All values derive from the seed, so a fixed seed gives identical data from
// run to run.
type TestGenerator struct {
	T    *testing.T
	Rand *rand.Rand
	Cfg  TestGeneratorConfig

	// MsSinceEpoch advances as ids are drawn. Successive ids are strictly
	// increasing, matching the production id allocation guarantee.
	MsSinceEpoch int64
}

func NewTestGenerator(t *testing.T, seed int64, cfg TestGeneratorConfig) TestGenerator {
	return TestGenerator{
		T:            t,
		Rand:         rand.New(rand.NewSource(seed)),
		Cfg:          cfg,
		MsSinceEpoch: cfg.StartTimeMS,
	}
}

// NewTenantIdentity generates a random tenant identity of the canonical form
// 'tenant/uuid'. The value is drawn from the seeded rng.
func (g *TestGenerator) NewTenantIdentity() string {
	id, err := uuid.NewRandomFromReader(g.Rand)
	require.NoError(g.T, err)
	return fmt.Sprintf("tenant/%s", id.String())
}

// NextID returns the next synthetic idtimestamp. Production ids carry the
// millisecond epoch in the high bits with uniqueness bits below. We mimic
// that so generated ids order and range the same way real ones do.
func (g *TestGenerator) NextID() uint64 {
	interval := int64(1)
	if g.Cfg.NodeRate > 0 {
		interval += g.Rand.Int63n(int64(1000/g.Cfg.NodeRate) + 1)
	}
	g.MsSinceEpoch += interval
	return uint64(g.MsSinceEpoch)<<20 | (g.Rand.Uint64() & 0xfffff)
}

// GenerateNodeIDs returns count strictly increasing node ids.
func (g *TestGenerator) GenerateNodeIDs(count int) []uint64 {
	ids := make([]uint64, 0, count)
	for i := 0; i < count; i++ {
		ids = append(ids, g.NextID())
	}
	return ids
}

// GenerateForest returns a forest of count nodes in depth first pre order.
// The node ids are strictly increasing in that order. The shape is random:
// each node is placed anywhere from a new root up to a first child of its
// predecessor.
func (g *TestGenerator) GenerateForest(count int) *hierarchy.ArrayHierarchy {
	ids := g.GenerateNodeIDs(count)
	depths := make([]uint32, count)
	for i := 1; i < count; i++ {
		depths[i] = uint32(g.Rand.Intn(int(depths[i-1]) + 2))
	}
	h, err := hierarchy.NewArrayHierarchy(ids, depths)
	require.NoError(g.T, err)
	return h
}

// GrowForest returns a new forest that extends h with additional nodes. The
// extension continues the pre order shape rules from the last node of h, so
// the result models the same log observed again after more activity.
func (g *TestGenerator) GrowForest(h hierarchy.Hierarchy, additional int) *hierarchy.ArrayHierarchy {
	n := h.Size()
	ids := make([]uint64, 0, int(n)+additional)
	depths := make([]uint32, 0, int(n)+additional)
	for i := uint64(0); i < n; i++ {
		ids = append(ids, h.NodeID(i))
		depths = append(depths, h.Depth(i))
	}
	last := uint32(0)
	if n > 0 {
		last = h.Depth(n - 1)
	}
	for i := 0; i < additional; i++ {
		d := uint32(g.Rand.Intn(int(last) + 2))
		if len(depths) == 0 {
			// the first node of a forest is necessarily a root
			d = 0
		}
		ids = append(ids, g.NextID())
		depths = append(depths, d)
		last = d
	}
	grown, err := hierarchy.NewArrayHierarchy(ids, depths)
	require.NoError(g.T, err)
	return grown
}

// SelectNodeIDs returns n distinct node ids drawn from h without replacement.
func (g *TestGenerator) SelectNodeIDs(h hierarchy.Hierarchy, n int) []uint64 {
	require.LessOrEqual(g.T, uint64(n), h.Size())
	perm := g.Rand.Perm(int(h.Size()))
	ids := make([]uint64, 0, n)
	for _, i := range perm[:n] {
		ids = append(ids, h.NodeID(uint64(i)))
	}
	return ids
}
