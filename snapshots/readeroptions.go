package snapshots

import (
	"crypto/ecdsa"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/cbor"
)

// ReaderOptions provides options for SnapshotReader and SignedViewReader
// implementations. Implementations are expected to simply ignore options that
// they don't support.
type ReaderOptions struct {
	// noPrescreen disables consulting the bloom prescreen regions. Every
	// snapshot is then treated as a candidate by the membership scans.
	noPrescreen bool

	// The following options are only relevant to reader implementations that
	// interact with the blobs api.

	// options that are forwarded when issuing a read blob call
	remoteReadOpts []azblob.Option
	// options that are forwarded when issuing a list blobs call
	remoteListOpts []azblob.Option
	// options that are forwarded when issuing a filter blobs call
	remoteFilterOpts []azblob.Option

	// The following options are only relevant when the reader is configured
	// to verify snapshots against their signed checkpoints.

	checkpointGetter CheckpointGetter
	codec            *cbor.CBORCodec

	// Used by methods which support checking the signed view state against a
	// state from an independent trusted source.
	trustedBaseState    *ViewState
	trustedSignerPubKey *ecdsa.PublicKey
}

// ReaderOptionsCopy creates an independent copy of the opts
func ReaderOptionsCopy(opts ReaderOptions) ReaderOptions {
	cpy := opts

	cpy.remoteReadOpts = make([]azblob.Option, len(opts.remoteReadOpts))
	copy(cpy.remoteReadOpts, opts.remoteReadOpts)

	cpy.remoteListOpts = make([]azblob.Option, len(opts.remoteListOpts))
	copy(cpy.remoteListOpts, opts.remoteListOpts)

	cpy.remoteFilterOpts = make([]azblob.Option, len(opts.remoteFilterOpts))
	copy(cpy.remoteFilterOpts, opts.remoteFilterOpts)
	return cpy
}

// NewReaderOptions creates a new ReaderOptions object with the provided
// options applied over baseOpts. Typically, this is used for mocking as the
// option values are private.
func NewReaderOptions(baseOpts ReaderOptions, opts ...ReaderOption) ReaderOptions {
	options := ReaderOptionsCopy(baseOpts)
	for _, o := range opts {
		o(&options)
	}
	return options
}

type ReaderOption func(*ReaderOptions)

// WithoutPrescreen disables the bloom prescreen consultation for membership
// scans. This typically should only be set when auditing the prescreen
// regions themselves.
func WithoutPrescreen() ReaderOption {
	return func(opts *ReaderOptions) {
		opts.noPrescreen = true
	}
}

func WithCheckpointGetter(getter CheckpointGetter) ReaderOption {
	return func(opts *ReaderOptions) {
		opts.checkpointGetter = getter
	}
}

func WithCBORCodec(codec cbor.CBORCodec) ReaderOption {
	return func(opts *ReaderOptions) {
		opts.codec = &codec
	}
}

// WithTrustedBaseState can be used with methods which verify checkpoints, to
// require that the signed view succeeds an independently trusted copy of a
// previously verified view state.
func WithTrustedBaseState(state ViewState) ReaderOption {
	return func(opts *ReaderOptions) {
		opts.trustedBaseState = &state
	}
}

func WithTrustedSignerPub(pub *ecdsa.PublicKey) ReaderOption {
	return func(opts *ReaderOptions) {
		opts.trustedSignerPubKey = pub
	}
}

func WithReadBlobOption(opt azblob.Option) ReaderOption {
	return func(opts *ReaderOptions) {
		opts.remoteReadOpts = append(opts.remoteReadOpts, opt)
	}
}

func WithListBlobOption(opt azblob.Option) ReaderOption {
	return func(opts *ReaderOptions) {
		opts.remoteListOpts = append(opts.remoteListOpts, opt)
	}
}

func WithFilterBlobsOption(opt azblob.Option) ReaderOption {
	return func(opts *ReaderOptions) {
		opts.remoteFilterOpts = append(opts.remoteFilterOpts, opt)
	}
}
