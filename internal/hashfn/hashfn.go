// Package hashfn provides the hashing capability shared by the hash tree,
// credential, revocation and presentation packages: a map from a bounded
// sequence of field elements to one field element, plus the derived
// string-hashing rule used whenever an attribute value is not itself a
// decimal integer.
package hashfn

import (
	"math/big"
	"unicode/utf16"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"

	"heimdall/internal/field"
)

// MaxArity bounds the number of field elements accepted by one Hash call,
// matching the width of the in-circuit Poseidon permutation.
const MaxArity = 6

// Field maps an ordered, bounded-length sequence of field elements to a
// single field element.
type Field interface {
	Hash(inputs ...*big.Int) *big.Int
}

// String derives hash_string from a Field capability: decimal-looking
// strings hash their parsed value, the empty string hashes to zero,
// anything else is folded over its UTF-16LE byte sequence.
type String interface {
	HashString(s string) *big.Int
}

// Capability bundles both halves of the hashing contract. Poseidon2's
// zero value is a ready-to-use implementation.
type Capability interface {
	Field
	String
}

// Poseidon2 is the default concrete hashing capability: a Poseidon2
// Merkle-Damgard sponge over the BN254 scalar field.
type Poseidon2 struct{}

var _ Capability = Poseidon2{}

// Hash implements hash_field.
func (Poseidon2) Hash(inputs ...*big.Int) *big.Int {
	h := poseidon2.NewMerkleDamgardHasher()
	for _, in := range inputs {
		var e fr.Element
		if in != nil {
			e.SetBigInt(in)
		}
		b := e.Bytes()
		h.Write(b[:])
	}
	return new(big.Int).SetBytes(h.Sum(nil))
}

// HashString implements hash_string.
func (p Poseidon2) HashString(s string) *big.Int {
	if s == "" {
		return p.Hash(big.NewInt(0))
	}
	if x, ok := field.ParseDecimal(s); ok {
		return p.Hash(x)
	}
	return p.Hash(p.foldUTF16(s))
}

// foldUTF16 implements the left-fold over s's UTF-16LE byte sequence:
// h0 = byte[0]; each subsequent block of up to MaxArity-1 bytes is hashed
// together with the running accumulator.
func (p Poseidon2) foldUTF16(s string) *big.Int {
	units := utf16.Encode([]rune(s))
	raw := make([]byte, 0, len(units)*2)
	for _, u := range units {
		raw = append(raw, byte(u&0xff), byte(u>>8))
	}

	acc := big.NewInt(int64(raw[0]))
	blocks := (len(raw) - 1 + MaxArity - 2) / (MaxArity - 1)
	for i := 1; i <= blocks; i++ {
		chunk := make([]*big.Int, 0, MaxArity)
		chunk = append(chunk, acc)
		for j := 0; j < MaxArity-1; j++ {
			idx := 1 + (i-1)*(MaxArity-1) + j
			if idx < len(raw) {
				chunk = append(chunk, big.NewInt(int64(raw[idx])))
			}
		}
		acc = p.Hash(chunk...)
	}
	return acc
}
