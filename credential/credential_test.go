package credential

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"heimdall/internal/eddsa"
	"heimdall/internal/hashfn"
)

func TestNewCredentialVerifies(t *testing.T) {
	skIssuer, err := eddsa.GenerateKey()
	require.NoError(t, err)
	skHolder, err := eddsa.GenerateKey()
	require.NoError(t, err)

	attrs := []string{"John", "Jones", "male", "843995700", "blue", "180", "115703781", "499422598"}
	fixedNow := func() time.Time { return time.UnixMilli(1_600_000_000_000) }

	cred, err := New(
		1, "kyc", skHolder.Public(), 365, false, "registry-1",
		attrs, skIssuer, hashfn.Poseidon2{}, fixedNow,
	)
	require.NoError(t, err)
	require.NoError(t, cred.Verify())

	got, err := cred.Attribute(MetaExpiration)
	require.NoError(t, err)
	require.Equal(t, "1631536000000", got, "expiration should equal now + 365 days in ms")
}

func TestCredentialMutationInvalidatesSignature(t *testing.T) {
	skIssuer, err := eddsa.GenerateKey()
	require.NoError(t, err)
	skHolder, err := eddsa.GenerateKey()
	require.NoError(t, err)

	attrs := []string{"a", "b"}
	cred, err := New(2, "kyc", skHolder.Public(), 30, false, "registry-1", attrs, skIssuer, hashfn.Poseidon2{}, nil)
	require.NoError(t, err)
	require.NoError(t, cred.Verify())

	require.NoError(t, cred.Tree().Update(MetaSize, "tampered"))
	require.Error(t, cred.Verify())
}

func TestCredentialMetaSlotOrder(t *testing.T) {
	skIssuer, err := eddsa.GenerateKey()
	require.NoError(t, err)
	skHolder, err := eddsa.GenerateKey()
	require.NoError(t, err)

	cred, err := New(7, "kyc", skHolder.Public(), 10, true, "reg-7", []string{"x"}, skIssuer, hashfn.Poseidon2{}, nil)
	require.NoError(t, err)

	id, err := cred.Attribute(MetaID)
	require.NoError(t, err)
	require.Equal(t, "7", id)

	delegatable, err := cred.Attribute(MetaDelegatable)
	require.NoError(t, err)
	require.Equal(t, "1", delegatable)

	reserved, err := cred.Attribute(MetaReserved)
	require.NoError(t, err)
	require.Equal(t, "", reserved)
}

func TestExportImportRoundTrips(t *testing.T) {
	skIssuer, err := eddsa.GenerateKey()
	require.NoError(t, err)
	skHolder, err := eddsa.GenerateKey()
	require.NoError(t, err)

	cred, err := New(9, "kyc", skHolder.Public(), 30, false, "registry-9", []string{"x", "y"}, skIssuer, hashfn.Poseidon2{}, nil)
	require.NoError(t, err)

	doc := cred.Export()
	reimported, err := Import(doc, hashfn.Poseidon2{})
	require.NoError(t, err)
	require.NoError(t, reimported.Verify())
	require.Equal(t, cred.Attributes(), reimported.Attributes())
	require.Equal(t, 0, cred.Root().Cmp(reimported.Root()))
}
