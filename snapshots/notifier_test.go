package snapshots

import (
	"context"
	"errors"
	"testing"

	dtcbor "github.com/datatrails/go-datatrails-common/cbor"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-hierarchy/hierarchy"
	"github.com/forestrie/go-hierarchy/hierarchytesting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitNotifier_Notify(t *testing.T) {
	logger.New("TEST")
	ctx := context.Background()

	tenantIdentity := "tenant/112758ce-a8cb-4924-8df8-fcba1e31f8b0"

	h, err := hierarchy.NewArrayHierarchy(
		[]uint64{1, 2, 5}, []uint32{0, 1, 1})
	require.NoError(t, err)

	sc := SnapshotContext{
		TenantIdentity: tenantIdentity,
		Creating:       true,
		LogBlobContext: LogBlobContext{
			BlobPath: TenantSnapshotBlobPath(tenantIdentity, 4),
		},
		Start: NewSnapshotStart(0, 1, 4, 0),
	}
	err = sc.EncodeView(h, 5, SnapshotBloomBPE)
	require.NoError(t, err)

	sender := &hierarchytesting.TestNotifySink{}
	n, err := NewCommitNotifier(logger.Sugar.WithServiceName("TestCommitNotifier"), sender)
	require.NoError(t, err)

	err = n.Notify(ctx, sc)
	require.NoError(t, err)
	assert.Equal(t, 1, sender.MethodCallCount("Send"))
	require.Len(t, sender.Sent, 1)

	codec, err := dtcbor.NewCBORCodec(
		dtcbor.NewDeterministicEncOpts(), dtcbor.NewDeterministicDecOpts())
	require.NoError(t, err)

	event, err := DecodeSnapshotCommitEvent(codec, sender.Sent[0])
	require.NoError(t, err)
	assert.Equal(t, tenantIdentity, event.TenantIdentity)
	assert.Equal(t, uint32(4), event.SnapshotIndex)
	assert.Equal(t, uint64(3), event.NodeCount)
	assert.Equal(t, sc.BlobPath, event.BlobPath)
	assert.Equal(t, IDTimestampToHex(5, 1), event.LastID)

	// The watermark in the event matches the lastid tag on the blob.
	assert.Equal(t, sc.Tags[TagKeyLastID], event.LastID)
}

func TestCommitNotifier_NotifySendFailure(t *testing.T) {
	logger.New("TEST")
	ctx := context.Background()

	tenantIdentity := "tenant/112758ce-a8cb-4924-8df8-fcba1e31f8b0"

	h, err := hierarchy.NewArrayHierarchy([]uint64{1}, []uint32{0})
	require.NoError(t, err)

	sc := SnapshotContext{
		TenantIdentity: tenantIdentity,
		LogBlobContext: LogBlobContext{
			BlobPath: TenantSnapshotBlobPath(tenantIdentity, 0),
		},
		Start: NewSnapshotStart(0, 1, 0, 0),
	}
	err = sc.EncodeView(h, 1, SnapshotBloomBPE)
	require.NoError(t, err)

	sendErr := errors.New("bus unavailable")
	sender := &hierarchytesting.TestNotifySink{SendErr: sendErr}
	n, err := NewCommitNotifier(logger.Sugar.WithServiceName("TestCommitNotifier"), sender)
	require.NoError(t, err)

	err = n.Notify(ctx, sc)
	require.ErrorIs(t, err, sendErr)
	assert.Empty(t, sender.Sent)
}
