package snapshots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/logger"
)

var (
	ErrIncorrectLastIDTag = errors.New("the lastid tag does not match the watermark in the snapshot header")
	ErrNoViewEncoded      = errors.New("the context has no encoded view data to commit")
)

type SnapshotCommitter struct {
	Cfg   SnapshotCommitterConfig
	Log   logger.Logger
	Store snapshotStore
}

type SnapshotCommitterConfig struct {
	CommitmentEpoch uint32
}

func NewSnapshotCommitter(cfg SnapshotCommitterConfig, log logger.Logger, store snapshotStore) *SnapshotCommitter {
	c := &SnapshotCommitter{
		Cfg:   cfg,
		Log:   log,
		Store: store,
	}
	return c
}

// CommitContext writes the encoded view held by the context to its blob
// path.
//
// The snapshot series is the durable record of the tenants hierarchy views,
// and checkpoints over it get published to places we can't change. So if we
// ever clobber a competing writers blob, it will be evident (and not good).
// The etag discipline below is what prevents that.
func (c *SnapshotCommitter) CommitContext(ctx context.Context, sc SnapshotContext) (*azblob.WriteResponse, error) {

	if len(sc.Data) < StartHeaderSize {
		return nil, fmt.Errorf("%w: %s", ErrNoViewEncoded, sc.BlobPath)
	}

	opts := []azblob.Option{azblob.WithTags(sc.Tags)}
	// CRITICAL: we _must_ use the etag to guard against racy updates. It will
	// be absent only when creating the blob.
	if sc.ETag != "" {
		opts = append(opts, azblob.WithEtagMatch(sc.ETag))
	} else {
		if !sc.Creating {
			return nil, errors.New("etag is required when updating any blob")
		}
	}
	// Also CRITICAL: We must set the not-exists option if we are creating a
	// new blob, so we don't racily overwrite a blob another writer created.
	if sc.Creating {
		// The way to spell 'fail without modifying if the blob exists' is to
		// require that no blob matches *any* etag.
		opts = append(opts, azblob.WithEtagNoneMatch("*"))
	}

	return c.Store.Put(ctx, sc.BlobPath, azblob.NewBytesReaderCloser(sc.Data), opts...)
}

func (c *SnapshotCommitter) createFirstSnapshotContext(tenantIdentity string) (SnapshotContext, error) {

	sc := SnapshotContext{
		TenantIdentity: tenantIdentity,
		Creating:       true,
		LogBlobContext: LogBlobContext{
			BlobPath: TenantSnapshotBlobPath(tenantIdentity, 0),
			Tags:     map[string]string{},
		},
		// the zero snapshot index and zero watermark are correct here
		Start: NewSnapshotStart(0, c.Cfg.CommitmentEpoch, 0, 0),
	}

	// The Data member remains empty until EncodeView provides the first view.

	return sc, nil
}

// GetCurrentContext gets the context into which the next view for the tenant
// should be encoded.
//
// There are 3 situations to consider here
//  1. No blobs exist -> setup context for creating the first snapshot
//  2. A head blob exists -> setup context for creating the next snapshot,
//     carrying the head watermark forward
//  3. A view is being replaced in place (redaction) -> not handled here,
//     callers pair SnapshotReader.GetSnapshot with CommitContext so the etag
//     guards the replacement
func (c *SnapshotCommitter) GetCurrentContext(
	ctx context.Context, tenantIdentity string) (SnapshotContext, error) {

	var err error

	sc, snapshotCount, err := c.GetLastSnapshot(ctx, tenantIdentity)
	if err != nil {
		return SnapshotContext{}, err
	}
	if snapshotCount == 0 {
		return c.createFirstSnapshotContext(tenantIdentity)
	}

	// Read the head blob so the watermark can be carried forward and cross
	// checked. The etag match keeps the get consistent with the list we just
	// did.
	var rr *azblob.ReaderResponse
	rr, sc.Data, err = BlobRead(
		ctx, sc.BlobPath, c.Store, azblob.WithEtagMatch(sc.ETag), azblob.WithGetTags())
	if err != nil {
		return sc, err
	}

	// All valid snapshots are created with at least the fixed (versioned)
	// header record.
	err = sc.Start.UnmarshalBinary(sc.Data)
	if err != nil {
		return sc, err
	}

	sc.Tags = rr.Tags

	// NOTICE: While the *index* on blob tags is eventually consistent, the
	// tags read directly with the blob are *guaranteed* by azure to be 'the
	// values last written'. This is a critical assumption for our crash fault
	// tolerant model.
	//
	// "After you set your index tags, they exist on the blob and can be
	// retrieved immediately.  It might take some time before the blob index
	// updates." -- https://learn.microsoft.com/en-us/azure/storage/blobs/storage-manage-find-blobs?tabs=azure-portal
	lastID, _, err := GetLastIDTag(sc.Tags)
	if err != nil {
		return sc, err
	}
	if lastID != sc.Start.LastID {
		return sc, fmt.Errorf(
			"%w: %x vs %x",
			ErrIncorrectLastIDTag,
			lastID, sc.Start.LastID)
	}

	sc.LastModified = *rr.LastModified
	sc.LastRead = time.Now()

	// Prepare the context for the next snapshot in the series. The carried
	// watermark lets callers confirm their new view is not older than the
	// head before they encode it.
	prev := sc.Start

	sc.Creating = true
	sc.ETag = ""
	sc.LastModified = time.UnixMilli(0)
	sc.LastRead = time.UnixMilli(0)
	sc.Data = nil
	sc.Tags = map[string]string{}

	sc.BlobPath = TenantSnapshotBlobPath(tenantIdentity, uint64(prev.SnapshotIndex)+1)
	sc.Start = NewSnapshotStart(prev.LastID, c.Cfg.CommitmentEpoch, prev.SnapshotIndex+1, 0)

	return sc, nil
}

// GetLastSnapshot finds the most recently created snapshot blob for the
// tenant. The returned count is 1+ the zero based index of the head
// snapshot. A count of 0 means no snapshots exist for the tenant.
func (c *SnapshotCommitter) GetLastSnapshot(
	ctx context.Context, tenantIdentity string) (SnapshotContext, uint64, error) {

	sc := SnapshotContext{
		TenantIdentity: tenantIdentity,
	}

	blobPrefixPath := TenantSnapshotPrefix(tenantIdentity)

	bc, snapshotCount, err := LastPrefixedBlob(ctx, c.Store, blobPrefixPath)
	if err != nil {
		return sc, snapshotCount, err
	}
	sc.ETag = bc.ETag
	sc.LastModified = bc.LastModified
	sc.BlobPath = bc.BlobPath

	return sc, snapshotCount, nil
}
