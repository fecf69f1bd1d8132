package presentation

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"heimdall/internal/eddsa"
	"heimdall/internal/hashfn"
	"heimdall/revocation"
)

func rectangle(x0, y0, x1, y1 int64) ([]*big.Int, []*big.Int) {
	return []*big.Int{big.NewInt(x0), big.NewInt(x1), big.NewInt(x1), big.NewInt(x0)},
		[]*big.Int{big.NewInt(y0), big.NewInt(y0), big.NewInt(y1), big.NewInt(y1)}
}

func TestPolygonPresentationInBound(t *testing.T) {
	hasher := hashfn.Poseidon2{}
	skIssuer, err := eddsa.GenerateKey()
	require.NoError(t, err)
	skHolder, err := eddsa.GenerateKey()
	require.NoError(t, err)

	cred := newTestCredential(t, skIssuer, skHolder, hasher)
	reg, err := revocation.New(skIssuer, hasher)
	require.NoError(t, err)

	vx, vy := rectangle(0, 0, 200_000_000, 600_000_000)

	prover := &fakeProver{}
	pp, err := NewPolygonPresentation(cred, reg, 14, vx, vy, big.NewInt(1234), skHolder, skIssuer.Public(), big.NewInt(1678460108000), hasher, Artifacts{
		Calculator: fakeCalculator{},
		Prover:     prover,
	})
	require.NoError(t, err)
	require.True(t, pp.expectInBound, "attributes 14/15 (lat/long) must fall inside the rectangle")

	prover.ps = pp.pres.ps
	prover.variantSignals = func(_ map[string]interface{}) ([]string, error) {
		total := 1 + pp.attributeCount + 2*MaxPolygonSize
		out := make([]string, total)
		out[0] = boolToInt(pp.expectInBound).String()
		for i := 0; i < pp.attributeCount; i++ {
			v := "0"
			if i == pp.index {
				v = "1"
			}
			out[1+i] = v
		}
		base := 1 + pp.attributeCount
		for i, x := range pp.vertX {
			out[base+i] = x.String()
		}
		base += MaxPolygonSize
		for i, y := range pp.vertY {
			out[base+i] = y.String()
		}
		return out, nil
	}

	require.NoError(t, pp.Generate())
}

func TestPolygonPresentationInputJSONCarriesLocationAndOneHotIndex(t *testing.T) {
	hasher := hashfn.Poseidon2{}
	skIssuer, err := eddsa.GenerateKey()
	require.NoError(t, err)
	skHolder, err := eddsa.GenerateKey()
	require.NoError(t, err)

	cred := newTestCredential(t, skIssuer, skHolder, hasher)
	reg, err := revocation.New(skIssuer, hasher)
	require.NoError(t, err)

	vx, vy := rectangle(0, 0, 200_000_000, 600_000_000)

	prover := &fakeProver{}
	pp, err := NewPolygonPresentation(cred, reg, 14, vx, vy, big.NewInt(1234), skHolder, skIssuer.Public(), big.NewInt(1678460108000), hasher, Artifacts{
		Calculator: fakeCalculator{},
		Prover:     prover,
	})
	require.NoError(t, err)

	var seenDoc map[string]interface{}
	prover.ps = pp.pres.ps
	prover.variantSignals = func(doc map[string]interface{}) ([]string, error) {
		seenDoc = doc
		total := 1 + pp.attributeCount + 2*MaxPolygonSize
		out := make([]string, total)
		out[0] = boolToInt(pp.expectInBound).String()
		for i := 0; i < pp.attributeCount; i++ {
			v := "0"
			if i == pp.index {
				v = "1"
			}
			out[1+i] = v
		}
		base := 1 + pp.attributeCount
		for i, x := range pp.vertX {
			out[base+i] = x.String()
		}
		base += MaxPolygonSize
		for i, y := range pp.vertY {
			out[base+i] = y.String()
		}
		return out, nil
	}

	require.NoError(t, pp.Generate())

	location, ok := seenDoc["location"].([]interface{})
	require.True(t, ok, "circuit input must carry the raw [lat, long] location")
	require.Equal(t, []interface{}{cred.Attributes()[14], cred.Attributes()[15]}, location)

	index, ok := seenDoc["index"].([]interface{})
	require.True(t, ok, "circuit input's \"index\" must be a one-hot vector, not a scalar")
	require.Len(t, index, pp.attributeCount)
	for i, v := range index {
		want := "0"
		if i == pp.index {
			want = "1"
		}
		require.Equal(t, want, v)
	}
}

func TestPolygonPresentationOutOfBound(t *testing.T) {
	hasher := hashfn.Poseidon2{}
	skIssuer, err := eddsa.GenerateKey()
	require.NoError(t, err)
	skHolder, err := eddsa.GenerateKey()
	require.NoError(t, err)

	cred := newTestCredential(t, skIssuer, skHolder, hasher)
	reg, err := revocation.New(skIssuer, hasher)
	require.NoError(t, err)

	vx, vy := rectangle(0, 0, 10, 10)

	pp, err := NewPolygonPresentation(cred, reg, 14, vx, vy, big.NewInt(1234), skHolder, skIssuer.Public(), big.NewInt(1678460108000), hasher, Artifacts{Calculator: fakeCalculator{}})
	require.NoError(t, err)
	require.False(t, pp.expectInBound)
}

func TestPolygonPresentationPadsVertices(t *testing.T) {
	hasher := hashfn.Poseidon2{}
	skIssuer, err := eddsa.GenerateKey()
	require.NoError(t, err)
	skHolder, err := eddsa.GenerateKey()
	require.NoError(t, err)

	cred := newTestCredential(t, skIssuer, skHolder, hasher)
	reg, err := revocation.New(skIssuer, hasher)
	require.NoError(t, err)

	vx, vy := rectangle(0, 0, 200_000_000, 600_000_000)
	pp, err := NewPolygonPresentation(cred, reg, 14, vx, vy, big.NewInt(1234), skHolder, skIssuer.Public(), big.NewInt(1678460108000), hasher, Artifacts{Calculator: fakeCalculator{}})
	require.NoError(t, err)
	require.Len(t, pp.vertX, MaxPolygonSize)
	require.Len(t, pp.vertY, MaxPolygonSize)
	require.Equal(t, vx[len(vx)-1], pp.vertX[MaxPolygonSize-1])
}
