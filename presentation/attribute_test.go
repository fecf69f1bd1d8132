package presentation

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"heimdall/credential"
	"heimdall/internal/eddsa"
	"heimdall/internal/hashfn"
	"heimdall/revocation"
)

func fixedClock() time.Time { return time.UnixMilli(1_600_000_000_000) }

func newTestCredential(t *testing.T, skIssuer *eddsa.PrivateKey, skHolder *eddsa.PrivateKey, hasher hashfn.Capability) *credential.Credential {
	t.Helper()
	userAttrs := []string{"John", "Jones", "male", "843995700", "blue", "180", "115703781", "499422598"}
	cred, err := credential.New(255, "passport", skHolder.Public(), 365, true, "42", userAttrs, skIssuer, hasher, fixedClock)
	require.NoError(t, err)
	return cred
}

func TestAttributePresentationGenerateVerify(t *testing.T) {
	hasher := hashfn.Poseidon2{}
	skIssuer, err := eddsa.GenerateKey()
	require.NoError(t, err)
	skHolder, err := eddsa.GenerateKey()
	require.NoError(t, err)

	cred := newTestCredential(t, skIssuer, skHolder, hasher)
	reg, err := revocation.New(skIssuer, hasher)
	require.NoError(t, err)

	challenge := big.NewInt(1234)
	expiration := big.NewInt(1678460108000)
	indices := []int{8, 9} // "John", "Jones"

	prover := &fakeProver{}
	ap, err := NewAttributePresentation(cred, reg, indices, challenge, skHolder, skIssuer.Public(), expiration, hasher, Artifacts{
		Calculator: fakeCalculator{},
		Prover:     prover,
	})
	require.NoError(t, err)

	prover.ps = ap.pres.ps
	prover.variantSignals = func(_ map[string]interface{}) ([]string, error) {
		out := make([]string, len(cred.Attributes()))
		for i, publish := range ap.toPublish {
			if publish == 1 {
				out[i] = ap.revealHashes[i].String()
			}
		}
		return out, nil
	}

	require.NoError(t, ap.Generate())
	require.Nil(t, ap.content)
}

func TestAttributePresentationExportImportRoundTripsFields(t *testing.T) {
	hasher := hashfn.Poseidon2{}
	skIssuer, err := eddsa.GenerateKey()
	require.NoError(t, err)
	skHolder, err := eddsa.GenerateKey()
	require.NoError(t, err)

	cred := newTestCredential(t, skIssuer, skHolder, hasher)
	reg, err := revocation.New(skIssuer, hasher)
	require.NoError(t, err)

	challenge := big.NewInt(1234)
	expiration := big.NewInt(1678460108000)
	indices := []int{8, 9}

	prover := &fakeProver{}
	ap, err := NewAttributePresentation(cred, reg, indices, challenge, skHolder, skIssuer.Public(), expiration, hasher, Artifacts{
		Calculator: fakeCalculator{},
		Prover:     prover,
	})
	require.NoError(t, err)

	prover.ps = ap.pres.ps
	prover.variantSignals = func(_ map[string]interface{}) ([]string, error) {
		out := make([]string, len(cred.Attributes()))
		for i, publish := range ap.toPublish {
			if publish == 1 {
				out[i] = ap.revealHashes[i].String()
			}
		}
		return out, nil
	}
	require.NoError(t, ap.Generate())

	doc, err := ap.Export()
	require.NoError(t, err)
	require.Equal(t, ap.toPublish, doc.ToPublish)
	require.Equal(t, ap.pres.ps.TypeHash.String(), doc.Meta.TypeHash)
	require.Equal(t, ap.pres.ps.Challenge.String(), doc.Meta.Challenge)
	require.NotEmpty(t, doc.PublicSignalsJSON, "export must carry the proof's public signal vector")

	restored, err := ImportAttributePresentation(doc, Artifacts{})
	require.NoError(t, err)
	require.Equal(t, ap.toPublish, restored.toPublish)
	for i, h := range ap.revealHashes {
		require.Equal(t, 0, h.Cmp(restored.revealHashes[i]))
	}
	require.Equal(t, 0, ap.pres.ps.Challenge.Cmp(restored.pres.ps.Challenge))
}

func TestAttributePresentationRejectsWrongReveal(t *testing.T) {
	hasher := hashfn.Poseidon2{}
	skIssuer, err := eddsa.GenerateKey()
	require.NoError(t, err)
	skHolder, err := eddsa.GenerateKey()
	require.NoError(t, err)

	cred := newTestCredential(t, skIssuer, skHolder, hasher)
	reg, err := revocation.New(skIssuer, hasher)
	require.NoError(t, err)

	challenge := big.NewInt(1234)
	expiration := big.NewInt(1678460108000)
	indices := []int{8}

	prover := &fakeProver{}
	ap, err := NewAttributePresentation(cred, reg, indices, challenge, skHolder, skIssuer.Public(), expiration, hasher, Artifacts{
		Calculator: fakeCalculator{},
		Prover:     prover,
	})
	require.NoError(t, err)

	prover.ps = ap.pres.ps
	prover.variantSignals = func(_ map[string]interface{}) ([]string, error) {
		out := make([]string, len(cred.Attributes()))
		out[8] = "not-the-right-hash"
		return out, nil
	}

	err = ap.Generate()
	require.Error(t, err)
	require.NotNil(t, ap.content, "failed generate must not redact")
}

func TestAttributePresentationRejectsOutOfRangeIndex(t *testing.T) {
	hasher := hashfn.Poseidon2{}
	skIssuer, err := eddsa.GenerateKey()
	require.NoError(t, err)
	skHolder, err := eddsa.GenerateKey()
	require.NoError(t, err)

	cred := newTestCredential(t, skIssuer, skHolder, hasher)
	reg, err := revocation.New(skIssuer, hasher)
	require.NoError(t, err)

	_, err = NewAttributePresentation(cred, reg, []int{999}, big.NewInt(1), skHolder, skIssuer.Public(), big.NewInt(1), hasher, Artifacts{Calculator: fakeCalculator{}})
	require.Error(t, err)
}
