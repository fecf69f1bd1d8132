package revocation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"heimdall/internal/eddsa"
	"heimdall/internal/hashfn"
)

func TestUpdateAndIsRevoked(t *testing.T) {
	reg, err := New(nil, hashfn.Poseidon2{})
	require.NoError(t, err)

	require.NoError(t, reg.Update(255))

	revoked, err := reg.IsRevoked(255)
	require.NoError(t, err)
	require.True(t, revoked)

	notRevoked, err := reg.IsRevoked(200)
	require.NoError(t, err)
	require.False(t, notRevoked)
}

func TestDoubleToggleIsIdempotent(t *testing.T) {
	reg, err := New(nil, hashfn.Poseidon2{})
	require.NoError(t, err)

	before, err := reg.IsRevoked(42)
	require.NoError(t, err)

	require.NoError(t, reg.Update(42))
	require.NoError(t, reg.Update(42))

	after, err := reg.IsRevoked(42)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestOutOfRangeRejected(t *testing.T) {
	reg, err := New(nil, hashfn.Poseidon2{})
	require.NoError(t, err)

	_, err = reg.IsRevoked(LeafCount * LeafBits)
	require.ErrorIs(t, err, ErrOutOfRange)

	err = reg.Update(LeafCount * LeafBits)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestSignedRegistryResignsOnUpdate(t *testing.T) {
	sk, err := eddsa.GenerateKey()
	require.NoError(t, err)

	reg, err := New(sk, hashfn.Poseidon2{})
	require.NoError(t, err)
	require.NotNil(t, reg.Signature())
	require.NoError(t, sk.Public().Verify(reg.Signature(), reg.Root()))

	require.NoError(t, reg.Update(1))
	require.NoError(t, sk.Public().Verify(reg.Signature(), reg.Root()))
}

func TestExportImportRoundTrips(t *testing.T) {
	sk, err := eddsa.GenerateKey()
	require.NoError(t, err)

	reg, err := New(sk, hashfn.Poseidon2{})
	require.NoError(t, err)
	require.NoError(t, reg.Update(777))

	doc := reg.Export()
	reimported, err := ImportRegistry(doc, sk, hashfn.Poseidon2{})
	require.NoError(t, err)
	require.Equal(t, 0, reg.Root().Cmp(reimported.Root()))
	require.NoError(t, sk.Public().Verify(reimported.Signature(), reimported.Root()))

	revoked, err := reimported.IsRevoked(777)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestProofForRoundTrips(t *testing.T) {
	reg, err := New(nil, hashfn.Poseidon2{})
	require.NoError(t, err)
	require.NoError(t, reg.Update(300))

	proof, err := reg.ProofFor(300)
	require.NoError(t, err)
	require.True(t, proof.Verify(hashfn.Poseidon2{}))
	require.Equal(t, reg.Root(), proof.Root())
}
