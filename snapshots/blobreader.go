package snapshots

import (
	"context"
	"io"

	"github.com/datatrails/go-datatrails-common/azblob"
)

// LogBlobReader is the narrow read interface the snapshot readers require of
// the blob store.
type LogBlobReader interface {
	Reader(
		ctx context.Context,
		identity string,
		opts ...azblob.Option,
	) (*azblob.ReaderResponse, error)

	FilteredList(ctx context.Context, tagsFilter string, opts ...azblob.Option) (*azblob.FilterResponse, error)
	List(ctx context.Context, opts ...azblob.Option) (*azblob.ListerResponse, error)
}

// snapshotStore adds the write support required by the committer.
type snapshotStore interface {
	LogBlobReader
	Put(
		ctx context.Context,
		identity string,
		source io.ReadSeekCloser,
		opts ...azblob.Option,
	) (*azblob.WriteResponse, error)
}
