package snapshots

import (
	"crypto"

	"github.com/datatrails/go-datatrails-common/cbor"
	dtcose "github.com/datatrails/go-datatrails-common/cose"
	"github.com/veraison/go-cose"
)

type publicKeyProvider interface {
	PublicKey() (crypto.PublicKey, cose.Algorithm, error)
}

// DecodeSignedView decodes the ViewState values from the signed message
// See VerifySignedView for a description of how to verify a signed view
func DecodeSignedView(
	codec cbor.CBORCodec, msg []byte,
) (*dtcose.CoseSign1Message, ViewState, error) {
	signed, err := dtcose.NewCoseSign1MessageFromCBOR(msg, newCheckpointDecOptions()...)
	if err != nil {
		return nil, ViewState{}, err
	}

	var unverifiedState ViewState
	err = codec.UnmarshalInto(signed.Payload, &unverifiedState)
	if err != nil {
		return nil, ViewState{}, err
	}
	return signed, unverifiedState, nil
}

// VerifySignedView applies the provided state to the signed message and
// verifies the result
//
// When signing and publishing views, we remove the digest from the signed
// message prior to publishing. So that it can only be verified by fetching
// the snapshot blob and re-computing the digest over its node records.
//
// Verification of a signed view is a 3 step process:
//  1. Use DecodeSignedView to obtain the ViewState from the signed message.
//     This state will not verify as the digest was removed after signing.
//  2. Use ViewState.SnapshotIndex to fetch the snapshot and re-compute the
//     digest with CalculateViewDigest.
//  3. Update the ViewState with the derived digest and call this function to
//     complete the verification.
func VerifySignedView(
	codec cbor.CBORCodec, keyProvider publicKeyProvider, signed *dtcose.CoseSign1Message, unverifiedState ViewState, external []byte) error {

	var err error
	signed.Payload, err = codec.MarshalCBOR(unverifiedState)
	if err != nil {
		return err
	}
	return signed.VerifyWithProvider(keyProvider, external)
}
