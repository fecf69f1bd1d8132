package presentation

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"heimdall/internal/eddsa"
	"heimdall/internal/hashfn"
	"heimdall/revocation"
)

func TestDelegationPresentationGenerateVerify(t *testing.T) {
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
	dp, err := NewDelegationPresentation(cred, reg, indices, challenge, expiration, hasher, Artifacts{
		Calculator: fakeCalculator{},
		Prover:     prover,
	})
	require.NoError(t, err)

	wantLinkForth := hasher.Hash(challenge, skHolder.Public().X(), skHolder.Public().Y())
	require.Equal(t, 0, dp.linkForth.Cmp(wantLinkForth))

	prover.ps = dp.pres.ps
	prover.variantSignals = func(_ map[string]interface{}) ([]string, error) {
		out := make([]string, 1+len(cred.Attributes()))
		out[0] = dp.linkForth.String()
		for i, publish := range dp.toPublish {
			if publish == 1 {
				out[1+i] = dp.revealHashes[i].String()
			}
		}
		return out, nil
	}

	require.NoError(t, dp.Generate())
	require.Nil(t, dp.content)
}

func TestDelegationPresentationHasNoHolderSignature(t *testing.T) {
	hasher := hashfn.Poseidon2{}
	skIssuer, err := eddsa.GenerateKey()
	require.NoError(t, err)
	skHolder, err := eddsa.GenerateKey()
	require.NoError(t, err)

	cred := newTestCredential(t, skIssuer, skHolder, hasher)
	reg, err := revocation.New(skIssuer, hasher)
	require.NoError(t, err)

	dp, err := NewDelegationPresentation(cred, reg, []int{8}, big.NewInt(1), big.NewInt(1), hasher, Artifacts{Calculator: fakeCalculator{}})
	require.NoError(t, err)
	require.Nil(t, dp.pres.pi.SignChallenge)
	require.Nil(t, dp.pres.ps.LinkBack)
}
