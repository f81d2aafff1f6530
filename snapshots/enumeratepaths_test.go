package snapshots

import (
	"context"
	"errors"
	"fmt"
	"testing"

	azStorageBlob "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-hierarchy/hierarchytesting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumerateTenants(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	seed := int64((1698342521) * 1000)
	g := hierarchytesting.NewTestGenerator(t, seed, hierarchytesting.TestGeneratorConfig{
		StartTimeMS: seed, NodeRate: 500,
		TestLabelPrefix: "TestEnumerateTenants"})

	type args struct {
		batches []tenantBatch
	}
	tests := []struct {
		name      string
		args      args
		wantCount int
		wantErr   bool
	}{
		{name: "one batch, one tenant", args: args{
			batches: []tenantBatch{{itemCount: 4}}}},
		{name: "one batch, two tenants", args: args{
			batches: []tenantBatch{{mixCount: 2, itemCount: 4}}}},
		{name: "two batches, three tenants", args: args{
			batches: []tenantBatch{{itemCount: 4}, {mixCount: 2, itemCount: 4}}}},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {

			var newTenants []string
			var marker azblob.ListMarker
			var err error

			store := newReaderForBatches(&g, tt.args.batches)
			found := map[string]any{}

			expectVisited := 0

			for iBatch := 0; iBatch < len(tt.args.batches); iBatch++ {

				newTenants, marker, err = EnumerateIdentifiedPaths(
					ctx, store, "ignored", ParseSnapshotPathTenant, found, marker)
				assert.NoError(t, err)
				store.NextBatch()
				expectCount := tt.args.batches[iBatch].mixCount
				if expectCount == 0 {
					expectCount = 1
				}
				assert.Equal(t, len(newTenants), expectCount)
				expectVisited += expectCount
			}
			assert.Equal(t, len(found), expectVisited)
		})
	}
}

func TestFilterBlobsVisitor(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	seed := int64((1698342521) * 1000)
	g := hierarchytesting.NewTestGenerator(t, seed, hierarchytesting.TestGeneratorConfig{
		StartTimeMS: seed, NodeRate: 500,
		TestLabelPrefix: "TestFilterBlobsVisitor"})

	ctx := context.Background()

	tenantIdentity := g.NewTenantIdentity()
	paths := []string{
		TenantSnapshotBlobPath(tenantIdentity, 1),
		TenantCheckpointBlobPath(tenantIdentity, 1),
		TenantSnapshotBlobPath(tenantIdentity, 2),
	}
	items := make([]*azStorageBlob.BlobItemInternal, len(paths))
	for i := range paths {
		items[i] = &azStorageBlob.BlobItemInternal{Name: &paths[i]}
	}
	store := testEnumTenantsReader{batches: []*azblob.ListerResponse{{Items: items}}}

	keepSnapshots := func(ctx context.Context, store LogBlobReader, it *azStorageBlob.FilterBlobItem) (bool, error) {
		return IsSnapshotPathLike(*it.Name), nil
	}

	found, next, err := FilterBlobs(ctx, store, TagFilterExprSinceLastID(""), keepSnapshots, nil)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, found, 2)
	assert.Equal(t, paths[0], *found[0].Name)
	assert.Equal(t, paths[2], *found[1].Name)

	// a visitor error hands back the marker the caller supplied, so the page
	// can be retried
	cursor := "resume-cursor"
	marker := azblob.ListMarker(&cursor)
	visitErr := errors.New("refusing this page")
	refuse := func(ctx context.Context, store LogBlobReader, it *azStorageBlob.FilterBlobItem) (bool, error) {
		return false, visitErr
	}
	found, next, err = FilterBlobs(ctx, store, TagFilterExprSinceLastID(""), refuse, marker)
	require.ErrorIs(t, err, visitErr)
	assert.Nil(t, found)
	assert.Same(t, marker, next)

	// so does a failed list call
	exhausted := testEnumTenantsReader{}
	found, next, err = FilterBlobs(ctx, exhausted, TagFilterExprSinceLastID(""), nil, marker)
	require.Error(t, err)
	assert.Nil(t, found)
	assert.Same(t, marker, next)
}

func TestTagFilterExprSinceLastID(t *testing.T) {
	tests := []struct {
		name        string
		sinceLastID string
		want        string
	}{
		{"empty selects all watermarked", "", `"lastid" >= '0'`},
		{"watermark is strictly exceeded", "018fa97ef50ce00001", `"lastid" > '018fa97ef50ce00001'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TagFilterExprSinceLastID(tt.sinceLastID); got != tt.want {
				t.Errorf("TagFilterExprSinceLastID() = %v, want %v", got, tt.want)
			}
		})
	}
}

type tenantBatch struct {
	mixCount  int
	itemCount int
}

func newReaderForBatches(
	g *hierarchytesting.TestGenerator, batches []tenantBatch) testEnumTenantsReader {
	r := testEnumTenantsReader{}
	totalTenantCount := 0
	for _, batch := range batches {
		if batch.mixCount == 0 {
			batch.mixCount = 1
		}
		r.batches = append(
			r.batches, batchMixedTenant(
				g, totalTenantCount, batch.itemCount, batch.mixCount))
		totalTenantCount += batch.mixCount
	}
	return r
}

// batchMixedTenant creates a batched list blob response with blob items for
// the specified number of tenants present
func batchMixedTenant(g *hierarchytesting.TestGenerator, base, responseItemCount, mixCount int) *azblob.ListerResponse {

	require.Less(g.T, mixCount, responseItemCount)
	stripeSize := responseItemCount/mixCount + 1

	tenantIdentity := g.NewTenantIdentity()
	var items []*azStorageBlob.BlobItemInternal
	for i := 0; i < responseItemCount; i++ {
		name := TenantSnapshotBlobPath(tenantIdentity, uint64(base+i))
		items = append(items, &azStorageBlob.BlobItemInternal{
			Name: &name,
		})
		if (i+1)%stripeSize == 0 {
			tenantIdentity = g.NewTenantIdentity()
		}
	}
	return &azblob.ListerResponse{
		Items: items,
		// Caller can setup Marker as required.
	}
}

type testEnumTenantsReader struct {
	batches   []*azblob.ListerResponse
	nextBatch int
}

func (r *testEnumTenantsReader) NextBatch() {
	r.nextBatch += 1
}

func (r testEnumTenantsReader) Reader(
	ctx context.Context,
	identity string,
	opts ...azblob.Option,
) (*azblob.ReaderResponse, error) {
	return nil, fmt.Errorf("this unit test suite only needs the List implementations")
}

func (r testEnumTenantsReader) List(
	ctx context.Context, opts ...azblob.Option) (*azblob.ListerResponse, error) {

	if r.nextBatch >= len(r.batches) {
		return nil, fmt.Errorf("ran out of test batches")
	}
	// note: because the List implementation interface has a by value receiver,
	// we can't increment nextBatch here
	batch := r.batches[r.nextBatch]
	return batch, nil
}

func (r testEnumTenantsReader) FilteredList(
	ctx context.Context, tagsFilter string, opts ...azblob.Option) (*azblob.FilterResponse, error) {

	if r.nextBatch >= len(r.batches) {
		return nil, fmt.Errorf("ran out of test batches")
	}
	items := make([]*azStorageBlob.FilterBlobItem, 0, len(r.batches[r.nextBatch].Items))
	for _, it := range r.batches[r.nextBatch].Items {
		filterItem := &azStorageBlob.FilterBlobItem{
			// ignore container name for now
			Name: it.Name,
			Tags: it.BlobTags,
		}
		items = append(items, filterItem)
	}
	batch := &azblob.FilterResponse{
		Items: items,
	}

	return batch, nil
}
