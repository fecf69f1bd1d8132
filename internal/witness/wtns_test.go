package witness

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"heimdall/internal/field"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	w := &Witness{
		FieldElementSize: field.Size,
		FieldPrime:       field.Modulus(),
		Assignment: []*big.Int{
			big.NewInt(1),
			big.NewInt(42),
			big.NewInt(0),
			field.Modulus(),
		},
	}

	buf, err := w.Encode()
	require.NoError(t, err)

	got, err := Parse(buf)
	require.NoError(t, err)

	require.Equal(t, uint32(len(w.Assignment)), got.NumConstraints)
	require.Equal(t, w.FieldElementSize, got.FieldElementSize)
	require.Equal(t, big.NewInt(1), got.Assignment[0])
	require.Equal(t, big.NewInt(42), got.Assignment[1])
	require.Equal(t, big.NewInt(0), got.Assignment[2])
}

func TestParseRejectsBadMagic(t *testing.T) {
	_, err := Parse([]byte("notawtnsfileheader......................"))
	require.Error(t, err)
}
