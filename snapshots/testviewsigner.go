package snapshots

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateECKey(t *testing.T, curve elliptic.Curve) ecdsa.PrivateKey {
	privateKey, err := ecdsa.GenerateKey(curve, rand.Reader)
	require.NoError(t, err)
	return *privateKey
}

func TestNewViewSigner(t *testing.T, issuer string) ViewSigner {
	cborCodec, err := NewViewSignerCodec()
	require.NoError(t, err)
	vs := NewViewSigner(issuer, cborCodec)
	return vs
}
