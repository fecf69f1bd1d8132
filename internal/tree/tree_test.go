package tree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"heimdall/internal/hashfn"
)

func TestTreeRootDeterministic(t *testing.T) {
	leaves := []string{"a", "b", "c", "d"}
	t1, err := New(leaves, 2, hashfn.Poseidon2{})
	require.NoError(t, err)
	t2, err := New(leaves, 2, hashfn.Poseidon2{})
	require.NoError(t, err)
	require.Equal(t, t1.GetRoot(), t2.GetRoot())
}

func TestTreeRejectsBadLeafCount(t *testing.T) {
	_, err := New([]string{"a", "b", "c"}, 2, hashfn.Poseidon2{})
	require.ErrorIs(t, err, ErrBadLeafCount)
}

func TestTreeUpdateChangesRoot(t *testing.T) {
	leaves := []string{"a", "b", "c", "d"}
	tr, err := New(leaves, 2, hashfn.Poseidon2{})
	require.NoError(t, err)
	before := tr.GetRoot()

	require.NoError(t, tr.Update(0, "b"))
	after := tr.GetRoot()
	require.NotEqual(t, before.String(), after.String())

	full, err := New([]string{"b", "b", "c", "d"}, 2, hashfn.Poseidon2{})
	require.NoError(t, err)
	require.Equal(t, full.GetRoot(), tr.GetRoot())
}

func TestTreeUpdateBatchMatchesFullRebuild(t *testing.T) {
	leaves := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	tr, err := New(leaves, 2, hashfn.Poseidon2{})
	require.NoError(t, err)

	require.NoError(t, tr.UpdateBatch(2, []string{"30", "40"}))

	want, err := New([]string{"1", "2", "30", "40", "5", "6", "7", "8"}, 2, hashfn.Poseidon2{})
	require.NoError(t, err)
	require.Equal(t, want.GetRoot(), tr.GetRoot())
}

func TestGenerateProofRoundTrips(t *testing.T) {
	leaves := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	tr, err := New(leaves, 2, hashfn.Poseidon2{})
	require.NoError(t, err)

	for i := range leaves {
		proof, err := tr.GenerateProof(i)
		require.NoError(t, err)
		require.True(t, proof.Verify(hashfn.Poseidon2{}))
		require.Equal(t, tr.GetRoot(), proof.Root())
	}
}

func TestGenerateProofDetectsTamper(t *testing.T) {
	leaves := []string{"a", "b", "c", "d"}
	tr, err := New(leaves, 2, hashfn.Poseidon2{})
	require.NoError(t, err)

	proof, err := tr.GenerateProof(1)
	require.NoError(t, err)
	require.True(t, proof.Verify(hashfn.Poseidon2{}))

	proof.Lemma[0] = hashfn.Poseidon2{}.HashString("tampered")
	require.False(t, proof.Verify(hashfn.Poseidon2{}))
}

func TestGenerateProofRequiresBinary(t *testing.T) {
	leaves := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}
	tr, err := New(leaves, 3, hashfn.Poseidon2{})
	require.NoError(t, err)
	_, err = tr.GenerateProof(0)
	require.ErrorIs(t, err, ErrUnsupportedBranching)
}

func TestFillVec(t *testing.T) {
	require.Equal(t, []string{"a"}, FillVec([]string{"a"}, 6))
	require.Equal(t, 6, len(FillVec(make([]string, 5), 6)))
	require.Equal(t, 36, len(FillVec(make([]string, 7), 6)))
}
