package eddsa

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	sk, err := GenerateKey()
	require.NoError(t, err)

	msg := big.NewInt(123456789)
	sig, err := sk.Sign(msg)
	require.NoError(t, err)

	require.NoError(t, sk.Public().Verify(sig, msg))
}

func TestVerifyRejectsWrongMessage(t *testing.T) {
	sk, err := GenerateKey()
	require.NoError(t, err)

	sig, err := sk.Sign(big.NewInt(1))
	require.NoError(t, err)

	err = sk.Public().Verify(sig, big.NewInt(2))
	require.Error(t, err)
}

func TestPublicKeyFromCoordsRoundTrips(t *testing.T) {
	sk, err := GenerateKey()
	require.NoError(t, err)
	pk := sk.Public()

	reconstructed := PublicKeyFromCoords(pk.X(), pk.Y())
	msg := big.NewInt(42)
	sig, err := sk.Sign(msg)
	require.NoError(t, err)
	require.NoError(t, reconstructed.Verify(sig, msg))
}

func TestPrivateKeyBytesRoundTrips(t *testing.T) {
	sk, err := GenerateKey()
	require.NoError(t, err)

	reimported, err := PrivateKeyFromBytes(sk.Bytes())
	require.NoError(t, err)

	msg := big.NewInt(99)
	sig, err := reimported.Sign(msg)
	require.NoError(t, err)
	require.NoError(t, sk.Public().Verify(sig, msg))
}

func TestSignStructDecomposes(t *testing.T) {
	sk, err := GenerateKey()
	require.NoError(t, err)

	sig, err := sk.SignStruct(big.NewInt(7))
	require.NoError(t, err)
	require.NotNil(t, sig.R8X)
	require.NotNil(t, sig.R8Y)
	require.NotNil(t, sig.S)
}
