package snapshots

import (
	"context"
	"errors"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/cbor"
	"github.com/datatrails/go-datatrails-common/cose"
	"github.com/datatrails/go-datatrails-common/logger"
)

var (
	ErrLogContextNotRead = errors.New("attempted to use lastContext before it was read")
)

// CheckpointGetter supports reading a checkpoint identified by a specific snapshot index
type CheckpointGetter interface {
	GetSignedView(
		ctx context.Context, tenantIdentity string, snapshotIndex uint32,
		opts ...ReaderOption,
	) (*cose.CoseSign1Message, ViewState, error)
}

type CheckpointState struct {
	Sign1Message cose.CoseSign1Message
	ViewState    ViewState
}

// SignedViewReader provides a context for reading the signed checkpoint associated with a snapshot
type SignedViewReader struct {
	log   logger.Logger
	store LogBlobReader
	codec cbor.CBORCodec
	// lastContext saves the last context read from blob store, this includes
	// Tags if they were requested
	lastContext LogBlobContext
}

func NewSignedViewReader(log logger.Logger, store LogBlobReader, codec cbor.CBORCodec) SignedViewReader {
	r := SignedViewReader{
		log:   log,
		store: store,
		codec: codec,
	}
	return r
}

// GetLastReadContext returns a copy of the most recently read context. Use this
// to get access to the tags when using WithGetTags.  If the context hasn't been
// read (directly or indirectly) an error is returned.
func (s *SignedViewReader) GetLastReadContext() (LogBlobContext, error) {
	if s.lastContext.BlobPath == "" {
		return LogBlobContext{}, ErrLogContextNotRead
	}
	return s.lastContext, nil
}

func (s *SignedViewReader) GetLazyContext(
	ctx context.Context, tenantIdentity string, which LogicalBlob,
	opts ...azblob.Option,
) (LogBlobContext, uint64, error) {
	blobPrefixPath := TenantCheckpointsPrefix(tenantIdentity)

	var count uint64
	var err error
	var logBlobContext LogBlobContext
	switch which {
	case FirstBlob:
		logBlobContext, err = FirstPrefixedBlob(ctx, s.store, blobPrefixPath, opts...)
	case LastBlob:
		logBlobContext, count, err = LastPrefixedBlob(ctx, s.store, blobPrefixPath, opts...)
		// force an error for no blobs found, but respect the original err if there was one.
		if err == nil && count == 0 {
			return LogBlobContext{}, count, ErrBlobNotFound
		}
	}
	if err != nil {
		return LogBlobContext{}, 0, err
	}
	s.lastContext = logBlobContext
	return logBlobContext, count, nil
}

func (s *SignedViewReader) ReadLogicalContext(
	ctx context.Context, logContext LogBlobContext,
	opts ...azblob.Option,
) (*cose.CoseSign1Message, ViewState, error) {

	err := logContext.ReadData(ctx, s.store, opts...)
	if err != nil {
		return nil, ViewState{}, err
	}
	s.lastContext = logContext

	signed, unverifiedState, err := DecodeSignedView(s.codec, logContext.Data)
	if err != nil {
		return nil, ViewState{}, err
	}

	return signed, unverifiedState, err
}

// Note that snapshot production can be arbitrarily ahead of the checkpoint
// signatures.
//
// When checkpointing a snapshot we must check the new view is a plausible
// successor of the previously checkpointed one. The lastid watermark in the
// signed state is the basis for that check.
func (s *SignedViewReader) GetLatestSignedView(
	ctx context.Context, tenantIdentity string,
	opts ...azblob.Option,
) (*cose.CoseSign1Message, ViewState, uint64, error) {

	blobPrefixPath := TenantCheckpointsPrefix(tenantIdentity)

	// GetLazyContext allows tags for the list operation, so use that and then use ReadData if you really need different opts for each.
	logContext, count, err := LastPrefixedBlob(ctx, s.store, blobPrefixPath)
	if err != nil {
		return nil, ViewState{}, 0, err
	}
	if count == 0 {
		return nil, ViewState{}, 0, nil
	}
	signed, unverifiedState, err := s.ReadLogicalContext(ctx, logContext, opts...)

	return signed, unverifiedState, count, err
}

// GetSignedView gets the signed view for the snapshot at the given snapshotIndex.
//
// NOTICE: TO VERIFY YOU MUST obtain the snapshot blob identified by
// ViewState.SnapshotIndex and re-compute the digest over its node records.
// See VerifySignedView.
func (s *SignedViewReader) GetSignedView(
	ctx context.Context, tenantIdentity string, snapshotIndex uint32,
	opts ...ReaderOption,
) (*cose.CoseSign1Message, ViewState, error) {

	options := ReaderOptions{}
	for _, o := range opts {
		o(&options)
	}

	blobPath := TenantCheckpointBlobPath(tenantIdentity, snapshotIndex)

	logContext := LogBlobContext{
		BlobPath: blobPath,
	}

	signed, unverifiedState, err := s.ReadLogicalContext(ctx, logContext, options.remoteReadOpts...)

	return signed, unverifiedState, err
}
