// Package credential implements the fixed-schema hash-tree credential:
// an issuer-signed attribute vector whose first eight slots are
// reserved metadata and whose remaining slots are user-supplied,
// right-padded to the next power of the tree's branching factor.
package credential

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"go.uber.org/zap"

	"heimdall/internal/eddsa"
	"heimdall/internal/errs"
	"heimdall/internal/hashfn"
	"heimdall/internal/tree"
	"heimdall/pkg/logging"
)

// Branching is the default branching factor of a credential's backing
// hash tree.
const Branching = 6

// Meta-slot indices, fixed by the credential schema.
const (
	MetaID           = 0
	MetaType         = 1
	MetaHolderPKX    = 2
	MetaHolderPKY    = 3
	MetaRegistryID   = 4
	MetaExpiration   = 5
	MetaDelegatable  = 6
	MetaReserved     = 7
	MetaSize         = 8
	msPerDay         = 86_400_000
)

// Credential is an issuer-signed, fixed-schema hash tree. Attributes()
// returns the full padded attribute vector; Root() and Signature()
// expose the signed payload.
type Credential struct {
	attributes []string
	tree       *tree.Tree
	signature  []byte
	issuerPK   *eddsa.PublicKey
	hasher     hashfn.Capability
}

// Clock lets callers inject a deterministic "now" for testing; it
// defaults to time.Now when nil is passed to New.
type Clock func() time.Time

// New assembles a credential's meta slots and user attributes, builds
// its hash tree, and signs the root with skIssuer.
//
//   id               decimal credential id
//   userAttrs        caller-supplied attribute values, in order
//   pkHolder         holder's public key, stored at meta slots 2-3
//   daysValid        expiration horizon from now, in days
//   credentialType   free-form type string
//   delegatable      whether this credential may anchor a delegation chain
//   registryID       the revocation registry this credential's id lives in
//   skIssuer         issuer signing key
func New(
	id uint64,
	credentialType string,
	pkHolder *eddsa.PublicKey,
	daysValid int64,
	delegatable bool,
	registryID string,
	userAttrs []string,
	skIssuer *eddsa.PrivateKey,
	hasher hashfn.Capability,
	clock Clock,
) (*Credential, error) {
	if clock == nil {
		clock = time.Now
	}
	now := clock().UnixMilli()
	expiration := now + daysValid*msPerDay

	delegatableFlag := "0"
	if delegatable {
		delegatableFlag = "1"
	}

	full := make([]string, 0, MetaSize+len(userAttrs))
	full = append(full,
		strconv.FormatUint(id, 10),
		credentialType,
		pkHolder.X().String(),
		pkHolder.Y().String(),
		registryID,
		strconv.FormatInt(expiration, 10),
		delegatableFlag,
		"",
	)
	full = append(full, userAttrs...)

	padded := tree.FillVec(full, Branching)
	t, err := tree.New(padded, Branching, hasher)
	if err != nil {
		err = errs.Wrap(errs.SchemaError, err)
		logging.Error("credential issuance failed", zap.String("id", full[MetaID]), zap.Error(err))
		return nil, err
	}

	sig, err := skIssuer.Sign(t.GetRoot())
	if err != nil {
		err = errs.Wrap(errs.SignatureError, err)
		logging.Error("credential issuance failed", zap.String("id", full[MetaID]), zap.Error(err))
		return nil, err
	}

	logging.Info("credential issued", zap.String("id", full[MetaID]), zap.String("type", credentialType), zap.String("registry_id", registryID))
	return &Credential{
		attributes: padded,
		tree:       t,
		signature:  sig,
		issuerPK:   skIssuer.Public(),
		hasher:     hasher,
	}, nil
}

// Attributes returns the full, padded attribute vector.
func (c *Credential) Attributes() []string {
	return append([]string(nil), c.attributes...)
}

// Attribute returns the attribute at index i.
func (c *Credential) Attribute(i int) (string, error) {
	if i < 0 || i >= len(c.attributes) {
		return "", errs.New(errs.IndexOutOfBounds, fmt.Sprintf("credential: attribute index %d out of bounds", i))
	}
	return c.attributes[i], nil
}

// Root returns the credential's hash-tree root.
func (c *Credential) Root() *big.Int {
	return c.tree.GetRoot()
}

// Signature returns the issuer's signature over Root().
func (c *Credential) Signature() []byte {
	return append([]byte(nil), c.signature...)
}

// IssuerPublicKey returns the key the signature is claimed to verify
// against.
func (c *Credential) IssuerPublicKey() *eddsa.PublicKey {
	return c.issuerPK
}

// Tree exposes the backing hash tree, e.g. for presentation-layer
// Merkle-proof construction over individual attributes.
func (c *Credential) Tree() *tree.Tree {
	return c.tree
}

// Verify checks the issuer's signature over the credential's current
// root. A credential whose attributes were mutated out-of-band will
// fail this check.
func (c *Credential) Verify() error {
	if err := c.issuerPK.Verify(c.signature, c.tree.GetRoot()); err != nil {
		return errs.Wrap(errs.SignatureError, err)
	}
	return nil
}

// Document is a credential's persisted, wire-friendly form: enough to
// reconstruct a Credential via Import without re-deriving it from an
// issuance request.
type Document struct {
	Attributes []string `json:"attributes"`
	Signature  string   `json:"signature"`
	IssuerPKX  string   `json:"issuer_pk_x"`
	IssuerPKY  string   `json:"issuer_pk_y"`
}

// Export serializes c into its persisted form.
func (c *Credential) Export() Document {
	return Document{
		Attributes: c.Attributes(),
		Signature:  hex.EncodeToString(c.signature),
		IssuerPKX:  c.issuerPK.X().String(),
		IssuerPKY:  c.issuerPK.Y().String(),
	}
}

// Import reconstructs a Credential from its persisted form, rebuilding
// the hash tree from doc.Attributes and trusting doc.Signature/issuer
// key as given. Callers that need to confirm the credential has not
// been tampered with in storage must still call Verify.
func Import(doc Document, hasher hashfn.Capability) (*Credential, error) {
	t, err := tree.New(doc.Attributes, Branching, hasher)
	if err != nil {
		return nil, errs.Wrap(errs.SchemaError, err)
	}

	sig, err := hex.DecodeString(doc.Signature)
	if err != nil {
		return nil, errs.Wrap(errs.DecodeError, err)
	}

	x, ok := new(big.Int).SetString(doc.IssuerPKX, 10)
	if !ok {
		return nil, errs.New(errs.DecodeError, "credential: issuer public key x is not a decimal integer")
	}
	y, ok := new(big.Int).SetString(doc.IssuerPKY, 10)
	if !ok {
		return nil, errs.New(errs.DecodeError, "credential: issuer public key y is not a decimal integer")
	}

	return &Credential{
		attributes: doc.Attributes,
		tree:       t,
		signature:  sig,
		issuerPK:   eddsa.PublicKeyFromCoords(x, y),
		hasher:     hasher,
	}, nil
}
