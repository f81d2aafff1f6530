package snapshots

import (
	"context"
	"crypto"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/datatrails/go-datatrails-common/cose"
)

// Support for an extension to the SnapshotContext type that provides for
// getting a snapshot and verifying it against its signed checkpoint at the
// same time. The primary caller interface is GetVerifiedSnapshot, and the
// other methods are in support of that. Where possible, and useful, the
// methods are made available directly on the SnapshotContext type itself.

var (
	ErrCheckpointGetterNotProvided = errors.New("a checkpoint getter was required but not provided")
	ErrCBORCodecNotProvided        = errors.New("a CBOR codec was required but not provided")
	ErrCheckpointNotFound          = errors.New("checkpoint not found")
	ErrCheckpointVerifyFailed      = errors.New("the checkpoint signature verification failed")
	ErrRemoteSignerKeyMatchFailed  = errors.New("the provided public key did not match the remote signing key")
	ErrStateSnapshotIndexMismatch  = errors.New("the snapshot index in the signed state does not match the snapshot")
	ErrStateNodeCountMismatch      = errors.New("the node count in the signed state does not match the snapshot data")
	ErrInconsistentBaseState       = errors.New("the signed state does not succeed the trusted base state")
)

// VerifiedContext describes a verified snapshot context
//
// Methods which both read a snapshot and then require that the snapshot's
// associated checkpoint can be verified, against the read data, should return
// a VerifiedContext.
type VerifiedContext struct {
	SnapshotContext

	// The signed message that was used to verify the snapshot data.
	// Verification uses the public key from this message. The verification
	// method allows the caller to provide the public key they expect, based
	// on having obtained it from a store they trust. Where the expected
	// public key has been provided it is required to match the key found on
	// the checkpoint from the store.
	Sign1Message cose.CoseSign1Message

	// ViewState describes the checkpointed view. For a verified context the
	// digest has been recomputed from the snapshot data and the signature
	// verified over the result.
	ViewState ViewState
}

// checkedVerifiedContextOptions checks the options provided satisfy the common requirements of the reader methods
func checkedVerifiedContextOptions(baseOpts ReaderOptions, opts ...ReaderOption) (ReaderOptions, error) {
	options := NewReaderOptions(baseOpts, opts...)

	if options.checkpointGetter == nil {
		return ReaderOptions{}, ErrCheckpointGetterNotProvided
	}

	if options.codec == nil {
		return ReaderOptions{}, ErrCBORCodecNotProvided
	}
	return options, nil
}

// GetHeadVerifiedSnapshot gets the most recent snapshot and its checkpoint
// and then verifies the snapshot data against the checkpoint. If the caller
// provides the expected public key, the public key on the checkpoint is
// required to match.
func (sr *SnapshotReader) GetHeadVerifiedSnapshot(
	ctx context.Context, tenantIdentity string,
	opts ...ReaderOption,
) (*VerifiedContext, error) {

	options, err := checkedVerifiedContextOptions(sr.opts, opts...)
	if err != nil {
		return nil, err
	}

	sc, err := sr.GetHeadSnapshot(ctx, tenantIdentity, opts...)
	if err != nil {
		return nil, err
	}

	return sc.verifyContext(ctx, options)
}

// GetVerifiedSnapshot gets the snapshot and its checkpoint and then verifies
// the snapshot data against the checkpoint. If the caller provides the
// expected public key, the public key on the checkpoint is required to match.
func (sr *SnapshotReader) GetVerifiedSnapshot(
	ctx context.Context, tenantIdentity string, snapshotIndex uint64,
	opts ...ReaderOption,
) (*VerifiedContext, error) {

	options, err := checkedVerifiedContextOptions(sr.opts, opts...)
	if err != nil {
		return nil, err
	}

	sc, err := sr.GetSnapshot(ctx, tenantIdentity, snapshotIndex, opts...)
	if err != nil {
		return nil, err
	}

	return sc.verifyContext(ctx, options)
}

// VerifyContext verifies the context and returns a verified context if this succeeds.
func (sc *SnapshotContext) VerifyContext(
	ctx context.Context,
	opts ...ReaderOption,
) (*VerifiedContext, error) {

	options, err := checkedVerifiedContextOptions(ReaderOptions{}, opts...)
	if err != nil {
		return nil, err
	}
	return sc.verifyContext(ctx, options)
}

// verifyContext verifies the snapshot data in the context against its signed
// checkpoint, optionally also checking the signed state succeeds a state
// provided from a trusted source.
// Returns:
//   - a VerifiedContext which references the dynamically allocated aspects of this context
func (sc *SnapshotContext) verifyContext(
	ctx context.Context, options ReaderOptions,
) (*VerifiedContext, error) {

	msg, state, err := options.checkpointGetter.GetSignedView(ctx, sc.TenantIdentity, sc.Start.SnapshotIndex)
	if err != nil {
		if IsBlobNotFound(err) {
			return nil, fmt.Errorf(
				"%w: failed to get checkpoint for snapshot %d for tenant %s: %v",
				ErrCheckpointNotFound, sc.Start.SnapshotIndex, sc.TenantIdentity, WrapBlobNotFound(err))
		}
		return nil, err
	}

	// The snapshot index and the node count are attested so that these checks
	// can be made before committing to the work of re-computing the digest.
	if state.SnapshotIndex != sc.Start.SnapshotIndex {
		return nil, fmt.Errorf(
			"%w: %d attested vs %d for tenant %s",
			ErrStateSnapshotIndexMismatch, state.SnapshotIndex, sc.Start.SnapshotIndex, sc.TenantIdentity)
	}
	if state.NodeCount != sc.NodeCount() {
		return nil, fmt.Errorf(
			"%w: %d attested vs %d for tenant %s",
			ErrStateNodeCountMismatch, state.NodeCount, sc.NodeCount(), sc.TenantIdentity)
	}

	h, err := sc.Hierarchy()
	if err != nil {
		return nil, err
	}

	// Recompute the digest from the store data, we are checking the store
	// against what was signed. As we verify the signature below, any changes
	// to the store will be caught.
	state.ViewDigest, err = CalculateViewDigest(sha256.New(), h)
	if err != nil {
		return nil, err
	}

	// NOTICE: The verification uses the public key that is provided on the
	// message. If the caller wants to ensure the snapshot is signed by the
	// expected key then they must obtain a copy of the public key from a
	// source they trust and supply it as an option.
	pubKeyProvider := cose.NewCWTPublicKeyProvider(msg)

	if options.trustedSignerPubKey != nil {
		var remotePub crypto.PublicKey
		remotePub, _, err = pubKeyProvider.PublicKey()
		if err != nil {
			return nil, err
		}
		if !options.trustedSignerPubKey.Equal(remotePub) {
			return nil, ErrRemoteSignerKeyMatchFailed
		}
	}

	// Ensure the records we read from the store are the ones that were
	// signed. Otherwise we can get caught out by the store tampered after the
	// checkpoint was created. Of course the checkpoint itself could have been
	// replaced, but at that point the only defense is an independent replica.
	err = VerifySignedView(
		*options.codec, pubKeyProvider, msg, state, nil,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%w: failed to verify checkpoint for snapshot %d for tenant %s: %v",
			ErrCheckpointVerifyFailed, sc.Start.SnapshotIndex, sc.TenantIdentity, err)
	}

	// If the caller has provided a trusted base state, require the verified
	// state succeeds it. Snapshots are complete views rather than increments,
	// so the relation is carried by the watermark and the snapshot index
	// rather than by an inclusion proof. Typically this is used for 3rd party
	// verification, the 3rd party has saved a previously verified state in a
	// local store, and they want to check the remote view still covers the
	// state they trust before replicating the new data.
	if options.trustedBaseState != nil {
		base := options.trustedBaseState
		if state.SnapshotIndex < base.SnapshotIndex ||
			state.CommitmentEpoch < base.CommitmentEpoch ||
			(state.CommitmentEpoch == base.CommitmentEpoch && state.IDTimestamp < base.IDTimestamp) {
			return nil, fmt.Errorf(
				"%w: snapshot %d for tenant %s",
				ErrInconsistentBaseState, sc.Start.SnapshotIndex, sc.TenantIdentity)
		}
	}

	return &VerifiedContext{
		SnapshotContext: *sc,
		Sign1Message:    *msg,
		ViewState:       state,
	}, nil
}
