// Package revocation implements the revocation registry: a binary hash
// tree whose leaves each pack a fixed-width bit vector of revocation
// flags, one bit per credential id, with an optional owner signature
// over the root.
package revocation

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"go.uber.org/zap"

	"heimdall/internal/eddsa"
	"heimdall/internal/errs"
	"heimdall/internal/hashfn"
	"heimdall/internal/tree"
	"heimdall/pkg/logging"
)

// Branching, Depth and LeafBits are fixed by the registry schema: a
// binary tree of depth 13 (2^13 leaves), each leaf packing up to 252
// revocation bits.
const (
	Branching = 2
	Depth     = 13
	LeafCount = 1 << Depth
	LeafBits  = 252
)

// ErrOutOfRange is returned when a credential id falls outside the
// registry's addressable space (2^Depth * LeafBits ids).
var ErrOutOfRange = errors.New("revocation: id out of range")

// Registry is a signed (or unsigned) bit-vector revocation tree.
type Registry struct {
	tree      *tree.Tree
	signature []byte
	sk        *eddsa.PrivateKey
	hasher    hashfn.Capability
}

// New allocates a fresh registry with every bit cleared. If sk is
// non-nil, the root is signed with it and re-signed on every update.
func New(sk *eddsa.PrivateKey, hasher hashfn.Capability) (*Registry, error) {
	leaves := make([]string, LeafCount)
	for i := range leaves {
		leaves[i] = "0"
	}
	t, err := tree.New(leaves, Branching, hasher)
	if err != nil {
		return nil, errs.Wrap(errs.SchemaError, err)
	}

	r := &Registry{tree: t, sk: sk, hasher: hasher}
	if sk != nil {
		sig, err := sk.Sign(t.GetRoot())
		if err != nil {
			return nil, errs.Wrap(errs.SignatureError, err)
		}
		r.signature = sig
	}
	return r, nil
}

// Root returns the registry's current root.
func (r *Registry) Root() *big.Int {
	return r.tree.GetRoot()
}

// Signature returns the owner's signature over Root(), or nil if the
// registry has no owning key.
func (r *Registry) Signature() []byte {
	if r.signature == nil {
		return nil
	}
	return append([]byte(nil), r.signature...)
}

func checkRange(id uint64) error {
	if id >= LeafCount*LeafBits {
		return errs.Wrap(errs.SchemaError, ErrOutOfRange)
	}
	return nil
}

func leafIndex(id uint64) (leaf int, bit uint) {
	return int(id / LeafBits), uint(id % LeafBits)
}

// leafValue returns the decimal-integer value of leaf i.
func (r *Registry) leafValue(i int) (*big.Int, error) {
	s := r.tree.Leaves()[i]
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errs.New(errs.DecodeError, fmt.Sprintf("revocation: leaf %d is not a decimal integer", i))
	}
	return v, nil
}

// IsRevoked reports whether id's bit is set, without mutating the
// registry.
func (r *Registry) IsRevoked(id uint64) (bool, error) {
	if err := checkRange(id); err != nil {
		return false, err
	}
	leaf, bit := leafIndex(id)
	v, err := r.leafValue(leaf)
	if err != nil {
		return false, err
	}
	return v.Bit(int(bit)) == 1, nil
}

// Update toggles id's revocation bit and rehashes/re-signs the
// registry.
func (r *Registry) Update(id uint64) error {
	idField := zap.String("id", strconv.FormatUint(id, 10))

	if err := checkRange(id); err != nil {
		logging.Warn("revocation update rejected: id out of range", idField)
		return err
	}
	leaf, bit := leafIndex(id)
	v, err := r.leafValue(leaf)
	if err != nil {
		logging.Error("revocation update failed", idField, zap.Error(err))
		return err
	}

	revokedNow := v.Bit(int(bit)) == 0
	delta := new(big.Int).Lsh(big.NewInt(1), bit)
	if revokedNow {
		v.Add(v, delta)
	} else {
		v.Sub(v, delta)
	}

	if err := r.tree.Update(leaf, v.String()); err != nil {
		err = errs.Wrap(errs.SchemaError, err)
		logging.Error("revocation update failed", idField, zap.Error(err))
		return err
	}

	if r.sk != nil {
		sig, err := r.sk.Sign(r.tree.GetRoot())
		if err != nil {
			err = errs.Wrap(errs.SignatureError, err)
			logging.Error("revocation update failed", idField, zap.Error(err))
			return err
		}
		r.signature = sig
	}

	logging.Info("revocation registry updated", idField, zap.Bool("revoked", revokedNow))
	return nil
}

// LeafIndex exposes the leaf position covering id, for callers (the
// presentation layer) that need to generate a Merkle proof over it.
func LeafIndex(id uint64) int {
	leaf, _ := leafIndex(id)
	return leaf
}

// ProofFor generates the Merkle proof for the leaf covering id.
func (r *Registry) ProofFor(id uint64) (*tree.Proof, error) {
	if err := checkRange(id); err != nil {
		return nil, err
	}
	leaf, _ := leafIndex(id)
	proof, err := r.tree.GenerateProof(leaf)
	if err != nil {
		return nil, errs.Wrap(errs.IndexOutOfBounds, err)
	}
	return proof, nil
}

// LeafValue returns the decimal-integer value of the leaf covering id,
// for private-input assembly.
func (r *Registry) LeafValue(id uint64) (*big.Int, error) {
	if err := checkRange(id); err != nil {
		return nil, err
	}
	leaf, _ := leafIndex(id)
	return r.leafValue(leaf)
}

// Document is a registry's persisted, wire-friendly form.
type Document struct {
	Leaves    []string `json:"leaves"`
	Signature string   `json:"signature,omitempty"`
}

// Export serializes r into its persisted form.
func (r *Registry) Export() Document {
	doc := Document{Leaves: r.tree.Leaves()}
	if r.signature != nil {
		doc.Signature = hex.EncodeToString(r.signature)
	}
	return doc
}

// ImportRegistry reconstructs a Registry from its persisted form. sk,
// if non-nil, must be the same key that produced doc.Signature; it is
// kept so subsequent Update calls keep re-signing correctly.
func ImportRegistry(doc Document, sk *eddsa.PrivateKey, hasher hashfn.Capability) (*Registry, error) {
	if len(doc.Leaves) != LeafCount {
		return nil, errs.New(errs.SchemaError, fmt.Sprintf("revocation: expected %d leaves, got %d", LeafCount, len(doc.Leaves)))
	}
	t, err := tree.New(doc.Leaves, Branching, hasher)
	if err != nil {
		return nil, errs.Wrap(errs.SchemaError, err)
	}

	r := &Registry{tree: t, sk: sk, hasher: hasher}
	if doc.Signature != "" {
		sig, err := hex.DecodeString(doc.Signature)
		if err != nil {
			return nil, errs.Wrap(errs.DecodeError, err)
		}
		r.signature = sig
	}
	return r, nil
}
