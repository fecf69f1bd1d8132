package presentation

import (
	"math/big"

	"heimdall/credential"
	"heimdall/internal/errs"
	"heimdall/internal/field"
	"heimdall/internal/hashfn"
	"heimdall/revocation"
)

// DelegationPresentation discloses a subset of a credential's
// attributes exactly like AttributePresentation, but without a
// holder-key signature over the challenge, and additionally exposes a
// link_forth value derived from the credential's own holder-key meta
// slots. A second party holding the matching holder key can present
// link_forth as their own credential's link_back, chaining delegation
// from this credential to the next.
type DelegationPresentation struct {
	pres         *Presentation
	toPublish    []int
	content      []string
	revealHashes map[int]*big.Int
	linkForth    *big.Int
}

var _ Variant = (*DelegationPresentation)(nil)

// NewDelegationPresentation builds a delegation presentation disclosing
// the attributes at indices, without a holder signature over challenge.
func NewDelegationPresentation(
	cred *credential.Credential,
	reg *revocation.Registry,
	indices []int,
	challenge *big.Int,
	expiration *big.Int,
	hasher hashfn.Capability,
	artifacts Artifacts,
) (*DelegationPresentation, error) {
	pi, err := BuildPrivateInputs(cred, reg, challenge, nil, nil, expiration, hasher)
	if err != nil {
		return nil, err
	}
	ps, err := BuildPublicSignals(cred, reg, challenge, expiration, nil, hasher)
	if err != nil {
		return nil, err
	}

	attrs := cred.Attributes()
	toPublish, content, revealHashes, err := buildToPublish(attrs, indices, hasher)
	if err != nil {
		return nil, err
	}

	holderX, ok := field.ParseDecimal(attrs[credential.MetaHolderPKX])
	if !ok {
		return nil, errs.New(errs.SchemaError, "holder public key x meta slot is not a decimal integer")
	}
	holderY, ok := field.ParseDecimal(attrs[credential.MetaHolderPKY])
	if !ok {
		return nil, errs.New(errs.SchemaError, "holder public key y meta slot is not a decimal integer")
	}
	linkForth := hasher.Hash(challenge, holderX, holderY)

	return &DelegationPresentation{
		pres: &Presentation{
			cred:      cred,
			pi:        pi,
			ps:        ps,
			hasher:    hasher,
			artifacts: artifacts,
		},
		toPublish:    toPublish,
		content:      content,
		revealHashes: revealHashes,
		linkForth:    linkForth,
	}, nil
}

// Generate produces and self-verifies the delegation proof.
func (d *DelegationPresentation) Generate() error { return Generate(d.pres, d) }

// Verify re-checks an already-generated proof.
func (d *DelegationPresentation) Verify() error { return Verify(d.pres, d) }

// LinkForth returns the value a delegate presents as their own
// credential's link_back, chaining the delegation.
func (d *DelegationPresentation) LinkForth() *big.Int {
	return d.linkForth
}

// ExtraInputPairs contributes the toPublish vector, identical to
// AttributePresentation's.
func (d *DelegationPresentation) ExtraInputPairs() []kv {
	return []kv{{"toPublish", intsToStrings(d.toPublish)}}
}

// VerifyExtra checks link_forth at OutVariantBase. It does not also
// re-check the published attributes' reveal hashes: a delegation
// presentation's verify is defined purely in terms of proof validity
// and link_forth, with disclosure enforced by the circuit's own
// constraints rather than a second check on this side.
func (d *DelegationPresentation) VerifyExtra(signals []string) error {
	return checkSignal(signals, OutVariantBase, d.linkForth)
}

// Redact drops the disclosed attributes' plaintext; the reveal hashes
// and link_forth, being public by construction, are kept.
func (d *DelegationPresentation) Redact() {
	d.content = nil
}

// DelegationDocument is a DelegationPresentation's on-disk form.
type DelegationDocument struct {
	Document
	ToPublish []int  `json:"to_publish"`
	LinkForth string `json:"link_forth"`
}

// Export returns d's on-disk Document. Call only after a successful
// Generate.
func (d *DelegationPresentation) Export() (DelegationDocument, error) {
	core, err := d.pres.Export()
	if err != nil {
		return DelegationDocument{}, err
	}
	return DelegationDocument{Document: core, ToPublish: d.toPublish, LinkForth: d.linkForth.String()}, nil
}

// ImportDelegationPresentation rebuilds a DelegationPresentation from
// a persisted Document, sufficient to call Verify but not Generate.
func ImportDelegationPresentation(doc DelegationDocument, artifacts Artifacts) (*DelegationPresentation, error) {
	pres, err := importCore(doc.Document, artifacts)
	if err != nil {
		return nil, err
	}
	linkForth, ok := new(big.Int).SetString(doc.LinkForth, 10)
	if !ok {
		return nil, errs.New(errs.DecodeError, "delegation document: link_forth is not a decimal integer")
	}
	return &DelegationPresentation{pres: pres, toPublish: doc.ToPublish, linkForth: linkForth}, nil
}
