package snapshots

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"testing"

	"github.com/datatrails/go-datatrails-common/azkeys"
	"github.com/datatrails/go-datatrails-common/cbor"
	"github.com/datatrails/go-datatrails-common/cose"
	"github.com/stretchr/testify/assert"
)

type TestSignerContext struct {
	Key             ecdsa.PrivateKey
	ViewSigner      ViewSigner
	CoseSigner      *azkeys.TestCoseSigner
	ViewSignerCodec cbor.CBORCodec
}

func NewTestSignerContext(t *testing.T, issuer string) *TestSignerContext {
	var err error

	key := TestGenerateECKey(t, elliptic.P256())
	s := &TestSignerContext{
		Key:        key,
		ViewSigner: TestNewViewSigner(t, issuer),
		CoseSigner: azkeys.NewTestCoseSigner(t, key),
	}
	s.ViewSignerCodec, err = NewViewSignerCodec()
	assert.NoError(t, err)

	return s
}

func (s *TestSignerContext) SignedView(
	tenantIdentity string, snapshotIndex uint32, state ViewState,
) (*cose.CoseSign1Message, ViewState, error) {
	subject := TenantSnapshotBlobPath(tenantIdentity, uint64(snapshotIndex))
	data, err := signViewState(s.ViewSigner, s.CoseSigner, subject, state)
	if err != nil {
		return nil, ViewState{}, err
	}
	return DecodeSignedView(s.ViewSignerCodec, data)
}

func (s *TestSignerContext) CheckpointState(tenantIdentity string, snapshotIndex uint32, state ViewState) (*CheckpointState, error) {
	signed, state, err := s.SignedView(tenantIdentity, snapshotIndex, state)
	if err != nil {
		return nil, err
	}
	return &CheckpointState{
		Sign1Message: *signed,
		ViewState:    state,
	}, nil
}

func signViewState(
	viewSigner ViewSigner,
	coseSigner IdentifiableCoseSigner,
	subject string,
	state ViewState,
) ([]byte, error) {

	publicKey, err := coseSigner.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("unable to get public key for signing key %w", err)
	}

	keyIdentifier := coseSigner.KeyIdentifier()
	data, err := viewSigner.Sign1(coseSigner, keyIdentifier, publicKey, subject, state, nil)
	if err != nil {
		return nil, err
	}
	return data, nil
}
