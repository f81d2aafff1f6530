package snapshots

import (
	"context"
	"errors"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/logger"
)

var (
	ErrSnapshotNotFound = errors.New("the requested snapshot blob is not found")
)

type SnapshotReader struct {
	log   logger.Logger
	store LogBlobReader
	opts  ReaderOptions
}

func NewSnapshotReader(
	log logger.Logger, store LogBlobReader,
	opts ...ReaderOption,
) SnapshotReader {
	r := SnapshotReader{
		log:   log,
		store: store,
	}
	for _, o := range opts {
		o(&r.opts)
	}
	return r
}

// GetSnapshot reads the identified snapshot, verifying the header as it does
// so. The returned context carries the blob metadata needed to commit a
// replacement view for the same index.
func (sr *SnapshotReader) GetSnapshot(
	ctx context.Context, tenantIdentity string, snapshotIndex uint64,
	opts ...ReaderOption,
) (SnapshotContext, error) {

	options := ReaderOptionsCopy(sr.opts)
	for _, o := range opts {
		o(&options)
	}

	var err error
	sc := SnapshotContext{
		TenantIdentity: tenantIdentity,
		LogBlobContext: LogBlobContext{
			BlobPath: TenantSnapshotBlobPath(tenantIdentity, snapshotIndex),
		},
	}
	if err = sr.readAndPrepareContext(ctx, &sc, options.remoteReadOpts...); err != nil {
		return SnapshotContext{}, err
	}
	return sc, nil
}

func (sr *SnapshotReader) readAndPrepareContext(ctx context.Context, sc *SnapshotContext, opts ...azblob.Option) error {
	err := sc.ReadData(ctx, sr.store, opts...)
	if err != nil {
		return err
	}

	err = sc.Start.UnmarshalBinary(sc.Data)
	if err != nil {
		return err
	}
	if _, err = CheckSnapshotDataLength(sc.Start, sc.Data); err != nil {
		return err
	}
	return nil
}

// GetHeadSnapshot returns the most recently created snapshot for the tenant.
// ErrSnapshotNotFound is returned when the tenant has none.
func (sr *SnapshotReader) GetHeadSnapshot(
	ctx context.Context, tenantIdentity string,
	opts ...ReaderOption,
) (SnapshotContext, error) {

	options := ReaderOptionsCopy(sr.opts)
	for _, o := range opts {
		o(&options)
	}

	var err error
	blobPrefixPath := TenantSnapshotPrefix(tenantIdentity)

	sc := SnapshotContext{
		TenantIdentity: tenantIdentity,
	}
	var snapshotCount uint64
	sc.LogBlobContext, snapshotCount, err = LastPrefixedBlob(ctx, sr.store, blobPrefixPath, options.remoteListOpts...)
	if err != nil {
		return SnapshotContext{}, err
	}
	if snapshotCount == 0 {
		return SnapshotContext{}, ErrSnapshotNotFound
	}
	if err = sr.readAndPrepareContext(ctx, &sc, options.remoteReadOpts...); err != nil {
		return SnapshotContext{}, err
	}

	return sc, nil
}

// GetFirstSnapshot returns the oldest snapshot for the tenant.
func (sr *SnapshotReader) GetFirstSnapshot(
	ctx context.Context, tenantIdentity string,
	opts ...ReaderOption,
) (SnapshotContext, error) {

	options := ReaderOptionsCopy(sr.opts)
	for _, o := range opts {
		o(&options)
	}

	var err error
	blobPrefixPath := TenantSnapshotPrefix(tenantIdentity)

	sc := SnapshotContext{
		TenantIdentity: tenantIdentity,
	}
	sc.LogBlobContext, err = FirstPrefixedBlob(ctx, sr.store, blobPrefixPath, options.remoteListOpts...)
	if err != nil {
		return SnapshotContext{}, err
	}
	if err = sr.readAndPrepareContext(ctx, &sc, options.remoteReadOpts...); err != nil {
		return SnapshotContext{}, err
	}

	return sc, nil
}

// GetLazyContext reads the blob metadata of a logical blob but does _not_
// read the data.
func (sr *SnapshotReader) GetLazyContext(
	ctx context.Context, tenantIdentity string, which LogicalBlob,
	opts ...ReaderOption,
) (LogBlobContext, uint64, error) {

	options := ReaderOptionsCopy(sr.opts)
	for _, o := range opts {
		o(&options)
	}

	blobPrefixPath := TenantSnapshotPrefix(tenantIdentity)

	var snapshotCount uint64

	var err error
	var logBlobContext LogBlobContext
	switch which {
	case FirstBlob:
		logBlobContext, err = FirstPrefixedBlob(ctx, sr.store, blobPrefixPath, options.remoteListOpts...)
	case LastBlob:
		logBlobContext, snapshotCount, err = LastPrefixedBlob(ctx, sr.store, blobPrefixPath, options.remoteListOpts...)
	}
	if err != nil {
		return LogBlobContext{}, 0, err
	}
	return logBlobContext, snapshotCount, nil
}

// FindSnapshotsMaybeContaining scans the tenants snapshots from newest to
// oldest and returns the indices of those whose views may contain nodeID,
// newest first.
//
// Only the header and prescreen region of each snapshot are inspected, the
// node records are never decoded. Snapshots without a prescreen region are
// unconditionally candidates, as bloom regions answer "maybe", so the caller
// must always confirm membership against the decoded views. The limit bounds
// how many candidates are returned, 0 means no bound.
func (sr *SnapshotReader) FindSnapshotsMaybeContaining(
	ctx context.Context, tenantIdentity string, nodeID uint64, limit int,
	opts ...ReaderOption,
) ([]uint32, error) {

	options := ReaderOptionsCopy(sr.opts)
	for _, o := range opts {
		o(&options)
	}

	head, err := sr.GetHeadSnapshot(ctx, tenantIdentity, opts...)
	if err != nil {
		return nil, err
	}

	var found []uint32
	for i := head.Start.SnapshotIndex; ; i-- {
		sc := head
		if i != head.Start.SnapshotIndex {
			sc, err = sr.GetSnapshot(ctx, tenantIdentity, uint64(i), opts...)
			if err != nil {
				return nil, err
			}
		}

		maybe := true
		if !options.noPrescreen {
			maybe, err = sc.MaybeContains(nodeID)
			if err != nil {
				return nil, err
			}
		}
		if maybe {
			found = append(found, i)
			if limit > 0 && len(found) >= limit {
				return found, nil
			}
		}
		if i == 0 {
			break
		}
	}
	return found, nil
}
