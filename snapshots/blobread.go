package snapshots

import (
	"context"
	"io"

	"github.com/datatrails/go-datatrails-common/azblob"
)

// BlobRead reads the entire blob at blobPath and returns the store response
// alongside the data. Snapshot blobs are sized so that reading them whole is
// always reasonable. Note that on return, regardless of error, the response
// reader has been completely exhausted or otherwise disposed of.
func BlobRead(
	ctx context.Context, blobPath string, store LogBlobReader,
	opts ...azblob.Option,
) (*azblob.ReaderResponse, []byte, error) {

	rr, err := store.Reader(ctx, blobPath, opts...)
	if err != nil {
		return nil, nil, WrapBlobNotFound(err)
	}

	data, err := io.ReadAll(rr.Reader)
	if err != nil {
		return nil, nil, err
	}
	return rr, data, nil
}

// LastPrefixedBlob returns the details of the last blob found under the
// prefix path, and a count of how many blobs there are under that path. A
// count of 0 with a nil error means no blobs exist under the prefix.
//
// Because the blob names are fixed width decimal, lexical list order is
// numeric order, and the last item of the last page is always the most
// recently created.
func LastPrefixedBlob(
	ctx context.Context, store LogBlobReader, blobPrefixPath string,
	opts ...azblob.Option,
) (LogBlobContext, uint64, error) {

	bc := LogBlobContext{}

	var foundCount uint64
	var marker azblob.ListMarker
	for {
		r, err := store.List(ctx, append(
			opts, azblob.WithListPrefix(blobPrefixPath), azblob.WithListMarker(marker))...)
		if err != nil {
			return bc, foundCount, err
		}
		if len(r.Items) == 0 {
			return bc, foundCount, nil
		}

		i := r.Items[len(r.Items)-1]
		bc.BlobPath = *i.Name
		bc.ETag = *i.Properties.Etag
		bc.LastModified = *i.Properties.LastModified

		foundCount += uint64(len(r.Items))

		if r.Marker == nil {
			break
		}
		marker = r.Marker
	}
	return bc, foundCount, nil
}

// FirstPrefixedBlob returns the details of the first blob found under the
// prefix path. ErrBlobNotFound is returned if there are none.
func FirstPrefixedBlob(
	ctx context.Context, store LogBlobReader, blobPrefixPath string,
	opts ...azblob.Option,
) (LogBlobContext, error) {

	bc := LogBlobContext{}

	r, err := store.List(ctx, append(opts, azblob.WithListPrefix(blobPrefixPath))...)
	if err != nil {
		return bc, err
	}
	if len(r.Items) == 0 {
		return bc, ErrBlobNotFound
	}

	i := r.Items[0]
	bc.BlobPath = *i.Name
	bc.ETag = *i.Properties.Etag
	bc.LastModified = *i.Properties.LastModified

	return bc, nil
}
