//go:build integration && azurite

package snapshots

import (
	"context"
	"crypto/sha256"
	"testing"

	"github.com/datatrails/go-datatrails-common/cose"
	"github.com/forestrie/go-hierarchy/hierarchy"
	"github.com/forestrie/go-hierarchy/hierarchytesting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commitCheckpointedSeries commits a series of snapshots, one per count, with
// a signed checkpoint alongside each.
func commitCheckpointedSeries(
	t *testing.T, tc hierarchytesting.TestContext, g hierarchytesting.TestGenerator,
	tenantIdentity string, counts []int,
) TestViewCommitter {
	ctx := context.Background()

	committer, err := NewTestViewCommitter(
		TestViewCommitterConfig{CommitmentEpoch: 1, CheckpointOnCommit: true}, tc, g)
	require.NoError(t, err)

	for _, count := range counts {
		err = committer.AddNodes(ctx, tenantIdentity, count)
		require.NoError(t, err)
	}
	return committer
}

func TestSignedViewReader_emptyTenant(t *testing.T) {
	tc, g, _ := NewAzuriteTestContext(t, "TestSignedViewReader_emptyTenant")
	ctx := context.Background()

	tenantIdentity := g.NewTenantIdentity()
	tc.DeleteBlobsByPrefix(TenantCheckpointsPrefix(tenantIdentity))

	codec, err := NewViewSignerCodec()
	require.NoError(t, err)
	reader := NewSignedViewReader(tc.GetLog(), tc.GetStorer(), codec)

	// before anything is read there is no last context
	_, err = reader.GetLastReadContext()
	assert.ErrorIs(t, err, ErrLogContextNotRead)

	// the latest signed view of an un-checkpointed log is absent rather than an error
	signed, _, count, err := reader.GetLatestSignedView(ctx, tenantIdentity)
	require.NoError(t, err)
	assert.Nil(t, signed)
	assert.Equal(t, count, uint64(0))

	// but asking for the lazy tail context is an error
	_, _, err = reader.GetLazyContext(ctx, tenantIdentity, LastBlob)
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestSignedViewReader_latestAndIndexed(t *testing.T) {
	tc, g, _ := NewAzuriteTestContext(t, "TestSignedViewReader_latestAndIndexed")
	ctx := context.Background()

	tenantIdentity := g.NewTenantIdentity()
	tc.DeleteBlobsByPrefix(TenantSnapshotPrefix(tenantIdentity))
	tc.DeleteBlobsByPrefix(TenantCheckpointsPrefix(tenantIdentity))

	committer := commitCheckpointedSeries(t, tc, g, tenantIdentity, []int{7, 5, 3})

	codec, err := NewViewSignerCodec()
	require.NoError(t, err)
	reader := NewSignedViewReader(tc.GetLog(), tc.GetStorer(), codec)

	signed, unverified, count, err := reader.GetLatestSignedView(ctx, tenantIdentity)
	require.NoError(t, err)
	require.NotNil(t, signed)
	assert.Equal(t, count, uint64(3))
	assert.Equal(t, unverified.SnapshotIndex, uint32(2))
	assert.Equal(t, unverified.NodeCount, uint64(committer.Forest.Size()))
	assert.Equal(t, unverified.IDTimestamp, committer.LastCommitted.Start.LastID)

	// the digest is detached, a verifier must fetch the snapshot and recompute it
	assert.Nil(t, unverified.ViewDigest)

	// read an arbitrary earlier checkpoint by index
	signed0, unverified0, err := reader.GetSignedView(ctx, tenantIdentity, 0)
	require.NoError(t, err)
	require.NotNil(t, signed0)
	assert.Equal(t, unverified0.SnapshotIndex, uint32(0))
	assert.Equal(t, unverified0.NodeCount, uint64(7))

	// the last read context reflects the most recent read
	lastRead, err := reader.GetLastReadContext()
	require.NoError(t, err)
	assert.Equal(t, lastRead.BlobPath, TenantCheckpointBlobPath(tenantIdentity, 0))
}

func TestSignedViewReader_verifyAgainstSnapshot(t *testing.T) {
	tc, g, _ := NewAzuriteTestContext(t, "TestSignedViewReader_verifyAgainstSnapshot")
	ctx := context.Background()

	tenantIdentity := g.NewTenantIdentity()
	tc.DeleteBlobsByPrefix(TenantSnapshotPrefix(tenantIdentity))
	tc.DeleteBlobsByPrefix(TenantCheckpointsPrefix(tenantIdentity))

	commitCheckpointedSeries(t, tc, g, tenantIdentity, []int{7, 5})

	codec, err := NewViewSignerCodec()
	require.NoError(t, err)
	reader := NewSignedViewReader(tc.GetLog(), tc.GetStorer(), codec)
	snapshotReader := NewSnapshotReader(tc.GetLog(), tc.GetStorer())

	signed, unverified, _, err := reader.GetLatestSignedView(ctx, tenantIdentity)
	require.NoError(t, err)

	// obtain the snapshot the checkpoint attests to, and recompute the digest
	// over its node records
	sc, err := snapshotReader.GetSnapshot(ctx, tenantIdentity, uint64(unverified.SnapshotIndex))
	require.NoError(t, err)
	h, err := sc.Hierarchy()
	require.NoError(t, err)

	state := unverified
	state.ViewDigest, err = CalculateViewDigest(sha256.New(), h)
	require.NoError(t, err)

	keyProvider := cose.NewCWTPublicKeyProvider(signed)
	err = VerifySignedView(codec, keyProvider, signed, state, nil)
	assert.NoError(t, err)

	// a digest over any other view must not verify
	lastID := h.NodeID(h.Size() - 1)
	tampered, err := hierarchy.Filter(h, func(nodeID uint64) bool { return nodeID != lastID })
	require.NoError(t, err)
	state.ViewDigest, err = CalculateViewDigest(sha256.New(), tampered)
	require.NoError(t, err)
	err = VerifySignedView(codec, keyProvider, signed, state, nil)
	assert.Error(t, err)
}

func TestSnapshotReader_getVerifiedSnapshot(t *testing.T) {
	tc, g, _ := NewAzuriteTestContext(t, "TestSnapshotReader_getVerifiedSnapshot")
	ctx := context.Background()

	tenantIdentity := g.NewTenantIdentity()
	tc.DeleteBlobsByPrefix(TenantSnapshotPrefix(tenantIdentity))
	tc.DeleteBlobsByPrefix(TenantCheckpointsPrefix(tenantIdentity))

	committer := commitCheckpointedSeries(t, tc, g, tenantIdentity, []int{7, 5})

	codec, err := NewViewSignerCodec()
	require.NoError(t, err)
	checkpoints := NewSignedViewReader(tc.GetLog(), tc.GetStorer(), codec)
	reader := NewSnapshotReader(
		tc.GetLog(), tc.GetStorer(),
		WithCheckpointGetter(&checkpoints), WithCBORCodec(codec))

	vc, err := reader.GetHeadVerifiedSnapshot(ctx, tenantIdentity)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), vc.ViewState.SnapshotIndex)
	assert.Equal(t, uint64(committer.Forest.Size()), vc.ViewState.NodeCount)
	require.NotNil(t, vc.ViewState.ViewDigest)

	// the earlier snapshot verifies against its own checkpoint, and the head
	// view succeeds it
	vc0, err := reader.GetVerifiedSnapshot(ctx, tenantIdentity, 0)
	require.NoError(t, err)
	vcAgain, err := reader.GetVerifiedSnapshot(
		ctx, tenantIdentity, 1, WithTrustedBaseState(vc0.ViewState))
	require.NoError(t, err)
	assert.Equal(t, vc.ViewState.ViewDigest, vcAgain.ViewState.ViewDigest)

	// the older view does not succeed the newer trusted state
	_, err = reader.GetVerifiedSnapshot(
		ctx, tenantIdentity, 0, WithTrustedBaseState(vc.ViewState))
	assert.ErrorIs(t, err, ErrInconsistentBaseState)
}
