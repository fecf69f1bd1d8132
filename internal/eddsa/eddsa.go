// Package eddsa wraps gnark-crypto's twisted-Edwards EdDSA over BabyJubjub,
// using Poseidon2 as the in-signature hash function so that issuer
// signatures and their in-circuit verification agree on the same hash.
package eddsa

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	tedwards "github.com/consensys/gnark-crypto/ecc/twistededwards"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"

	"heimdall/internal/field"
)

// ErrVerificationFailed is returned when a signature does not verify.
var ErrVerificationFailed = errors.New("eddsa: signature verification failed")

// PrivateKey is an issuer or holder signing key.
type PrivateKey struct {
	sk eddsa.PrivateKey
}

// PublicKey is the verification half of a PrivateKey.
type PublicKey struct {
	pk eddsa.PublicKey
}

// GenerateKey samples a fresh private key on the BN254-embedded
// BabyJubjub curve.
func GenerateKey() (*PrivateKey, error) {
	sk, err := eddsa.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{sk: sk}, nil
}

// Public returns sk's public key.
func (sk *PrivateKey) Public() *PublicKey {
	pk := sk.sk.PublicKey
	return &PublicKey{pk: pk}
}

// Bytes returns sk's canonical encoding, for persisting a signing key
// to disk.
func (sk *PrivateKey) Bytes() []byte {
	return sk.sk.Bytes()
}

// PrivateKeyFromBytes decodes a signing key previously written by
// Bytes.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	var sk eddsa.PrivateKey
	if _, err := sk.SetBytes(b); err != nil {
		return nil, fmt.Errorf("eddsa: decoding private key: %w", err)
	}
	return &PrivateKey{sk: sk}, nil
}

// X returns the public key's curve-point X coordinate as a field element.
func (pk *PublicKey) X() *big.Int {
	x := new(big.Int)
	pk.pk.A.X.BigInt(x)
	return x
}

// Y returns the public key's curve-point Y coordinate as a field element.
func (pk *PublicKey) Y() *big.Int {
	y := new(big.Int)
	pk.pk.A.Y.BigInt(y)
	return y
}

// PublicKeyFromCoords reconstructs a public key from its curve-point
// coordinates, as stored in a credential's META slots.
func PublicKeyFromCoords(x, y *big.Int) *PublicKey {
	var pk eddsa.PublicKey
	pk.A.X.SetBigInt(x)
	pk.A.Y.SetBigInt(y)
	return &PublicKey{pk: pk}
}

// Sign signs message (a canonical field-element encoding) with sk,
// hashing with Poseidon2 as required by the in-circuit verifier.
func (sk *PrivateKey) Sign(message *big.Int) ([]byte, error) {
	buf := field.FromBigInt(message)
	return sk.sk.Sign(buf[:], poseidon2.NewMerkleDamgardHasher())
}

// Signature is a decomposed EdDSA signature: the nonce point R8's two
// coordinates and the scalar S, exactly the 3-tuple the presentation
// circuits expect in signatureMeta / signChallenge.
type Signature struct {
	R8X *big.Int
	R8Y *big.Int
	S   *big.Int
}

// SignStruct signs message and decomposes the result into its R8/S
// components, for callers that must serialize a signature as a
// 3-tuple rather than as opaque bytes.
func (sk *PrivateKey) SignStruct(message *big.Int) (*Signature, error) {
	raw, err := sk.Sign(message)
	if err != nil {
		return nil, err
	}
	return decomposeSignature(raw)
}

// DecodeSignature decomposes raw signature bytes (as produced by Sign)
// into their R8/S components.
func DecodeSignature(raw []byte) (*Signature, error) {
	return decomposeSignature(raw)
}

func decomposeSignature(raw []byte) (*Signature, error) {
	var sig eddsa.Signature
	if _, err := sig.SetBytes(raw); err != nil {
		return nil, fmt.Errorf("eddsa: decoding signature: %w", err)
	}
	r8x := new(big.Int)
	r8y := new(big.Int)
	sig.R.X.BigInt(r8x)
	sig.R.Y.BigInt(r8y)
	s := new(big.Int).SetBytes(reverseBytes(sig.S[:]))
	return &Signature{R8X: r8x, R8Y: r8y, S: s}, nil
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// Verify checks sig over message against pk.
func (pk *PublicKey) Verify(sig []byte, message *big.Int) error {
	buf := field.FromBigInt(message)
	ok, err := pk.pk.Verify(sig, buf[:], poseidon2.NewMerkleDamgardHasher())
	if err != nil {
		return err
	}
	if !ok {
		return ErrVerificationFailed
	}
	return nil
}

// CurveID identifies the twisted-Edwards curve embedded in BN254, used
// wherever a caller needs to assign a gnark circuit's native EdDSA
// variables directly from bytes produced by this package.
const CurveID = tedwards.BN254
