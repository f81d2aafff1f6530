package snapshots

import (
	"crypto/ecdsa"
	"crypto/rand"

	dtcbor "github.com/datatrails/go-datatrails-common/cbor"
	dtcose "github.com/datatrails/go-datatrails-common/cose"
	"github.com/veraison/go-cose"
)

// ViewSigner is used to produce a signature over a snapshot view state. This
// signature commits to the snapshot content, and should only be created and
// published after the snapshot blob itself has been committed. See
// SnapshotCommitter.CommitContext for the blob side of that ordering.
type ViewSigner struct {
	issuer    string
	cborCodec dtcbor.CBORCodec
}

func NewViewSigner(issuer string, cborCodec dtcbor.CBORCodec) ViewSigner {
	vs := ViewSigner{
		issuer:    issuer,
		cborCodec: cborCodec,
	}
	return vs
}

// Sign1 signs the provided state. WARNING: You MUST check the state matches
// the committed snapshot blob before publishing the result.
func (vs ViewSigner) Sign1(coseSigner cose.Signer, keyIdentifier string, publicKey *ecdsa.PublicKey, subject string, state ViewState, external []byte) ([]byte, error) {
	payload, err := vs.cborCodec.MarshalCBOR(state)
	if err != nil {
		return nil, err
	}

	coseHeaders := cose.Headers{
		Protected: cose.ProtectedHeader{
			dtcose.HeaderLabelCWTClaims: dtcose.NewCNFClaim(
				vs.issuer, subject, keyIdentifier, coseSigner.Algorithm(), *publicKey),
		},
	}

	msg := cose.Sign1Message{
		Headers: coseHeaders,
		Payload: payload,
	}
	err = msg.Sign(rand.Reader, external, coseSigner)
	if err != nil {
		return nil, err
	}

	// We purposefully detach the digest so that verifiers are forced to
	// obtain the snapshot and re-compute it.
	state.ViewDigest = nil
	payload, err = vs.cborCodec.MarshalCBOR(state)
	if err != nil {
		return nil, err
	}
	msg.Payload = payload

	return msg.MarshalCBOR()
}

func NewViewSignerCodec() (dtcbor.CBORCodec, error) {
	codec, err := dtcbor.NewCBORCodec(
		dtcbor.NewDeterministicEncOpts(),
		dtcbor.NewDeterministicDecOpts(), // unsigned int decodes to uint64
	)
	if err != nil {
		return dtcbor.CBORCodec{}, err
	}
	return codec, nil
}

func newCheckpointDecOptions() []dtcose.SignOption {
	return []dtcose.SignOption{dtcose.WithDecOptions(dtcbor.NewDeterministicDecOpts())}
}
