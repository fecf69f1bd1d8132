// Package field implements the canonical field-element / arbitrary-precision
// integer codec shared by every other package in the module: 32-byte
// little-endian encoding of BN254 scalar-field values, zero-padded on the
// right.
package field

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Size is the canonical byte width of a field element.
const Size = fr.Bytes

// Modulus is the BN254 scalar field order.
func Modulus() *big.Int {
	return fr.Modulus()
}

// FromBigInt reduces x modulo the scalar field and returns its canonical
// 32-byte little-endian encoding, zero-padded on the right.
func FromBigInt(x *big.Int) [Size]byte {
	var e fr.Element
	e.SetBigInt(x)
	be := e.Bytes() // fr.Element.Bytes is big-endian
	var le [Size]byte
	for i := 0; i < Size; i++ {
		le[i] = be[Size-1-i]
	}
	return le
}

// ToBigInt decodes a 32-byte little-endian buffer, zero-padded on the
// right, back into an arbitrary-precision integer in [0, modulus).
func ToBigInt(buf []byte) (*big.Int, error) {
	if len(buf) != Size {
		return nil, fmt.Errorf("field: expected %d bytes, got %d", Size, len(buf))
	}
	var be [Size]byte
	for i := 0; i < Size; i++ {
		be[i] = buf[Size-1-i]
	}
	var e fr.Element
	e.SetBytes(be[:])
	out := new(big.Int)
	e.BigInt(out)
	return out, nil
}

// Element reduces x modulo the scalar field.
func Element(x *big.Int) *big.Int {
	var e fr.Element
	e.SetBigInt(x)
	out := new(big.Int)
	e.BigInt(out)
	return out
}

// ParseDecimal parses s as a base-10 arbitrary-precision integer. ok is
// false if s does not parse as a decimal integer (the caller then falls
// back to string hashing per the hash_string contract).
func ParseDecimal(s string) (x *big.Int, ok bool) {
	if s == "" {
		return nil, false
	}
	x, ok = new(big.Int).SetString(s, 10)
	return x, ok
}
