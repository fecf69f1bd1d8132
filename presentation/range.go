package presentation

import (
	"math/big"

	"heimdall/credential"
	"heimdall/internal/eddsa"
	"heimdall/internal/errs"
	"heimdall/internal/field"
	"heimdall/internal/hashfn"
	"heimdall/revocation"
)

// RangePresentation proves that the attribute at a chosen index lies
// within [lower, upper] without disclosing its value, and that the
// chosen index is the one the holder committed to via a one-hot
// selector.
type RangePresentation struct {
	pres           *Presentation
	index          int
	value          string
	lower, upper   *big.Int
	expectInBound  bool
	attributeCount int
}

var _ Variant = (*RangePresentation)(nil)

// NewRangePresentation builds a range-membership presentation over the
// attribute at index, against the closed interval [lower, upper].
func NewRangePresentation(
	cred *credential.Credential,
	reg *revocation.Registry,
	index int,
	lower, upper *big.Int,
	challenge *big.Int,
	skHolder *eddsa.PrivateKey,
	pkIssuer *eddsa.PublicKey,
	expiration *big.Int,
	hasher hashfn.Capability,
	artifacts Artifacts,
) (*RangePresentation, error) {
	pi, err := BuildPrivateInputs(cred, reg, challenge, skHolder, pkIssuer, expiration, hasher)
	if err != nil {
		return nil, err
	}
	ps, err := BuildPublicSignals(cred, reg, challenge, expiration, pkIssuer, hasher)
	if err != nil {
		return nil, err
	}

	attrs := cred.Attributes()
	if index < 0 || index >= len(attrs) {
		return nil, errs.New(errs.IndexOutOfBounds, "range attribute index out of bounds")
	}
	val, ok := field.ParseDecimal(attrs[index])
	if !ok {
		return nil, errs.New(errs.SchemaError, "range attribute is not a decimal integer")
	}
	inBound := val.Cmp(lower) >= 0 && val.Cmp(upper) <= 0

	return &RangePresentation{
		pres: &Presentation{
			cred:      cred,
			pi:        pi,
			ps:        ps,
			hasher:    hasher,
			artifacts: artifacts,
		},
		index:          index,
		value:          attrs[index],
		lower:          lower,
		upper:          upper,
		expectInBound:  inBound,
		attributeCount: len(attrs),
	}, nil
}

// Generate produces and self-verifies the range-membership proof.
func (r *RangePresentation) Generate() error { return Generate(r.pres, r) }

// Verify re-checks an already-generated proof.
func (r *RangePresentation) Verify() error { return Verify(r.pres, r) }

// ExtraInputPairs contributes the index one-hot selector, the raw
// attribute value the circuit range-checks, and the bounds.
func (r *RangePresentation) ExtraInputPairs() []kv {
	oneHot := make([]int, r.attributeCount)
	oneHot[r.index] = 1
	return []kv{
		{"index", intsToStrings(oneHot)},
		{"value", r.value},
		{"lowerBound", r.lower.String()},
		{"upperBound", r.upper.String()},
	}
}

// VerifyExtra checks the echoed bounds, the in-bound flag, and the
// index one-hot selector, at OutVariantBase, +1, +2 and +3... .
func (r *RangePresentation) VerifyExtra(signals []string) error {
	if err := checkSignal(signals, OutVariantBase, r.lower); err != nil {
		return err
	}
	if err := checkSignal(signals, OutVariantBase+1, r.upper); err != nil {
		return err
	}
	if err := checkSignal(signals, OutVariantBase+2, boolToInt(r.expectInBound)); err != nil {
		return err
	}
	oneHotBase := OutVariantBase + 3
	for i := 0; i < r.attributeCount; i++ {
		want := int64(0)
		if i == r.index {
			want = 1
		}
		if err := checkSignal(signals, oneHotBase+i, big.NewInt(want)); err != nil {
			return err
		}
	}
	return nil
}

// Redact drops the raw attribute value; index and bounds are disclosed
// by design of this variant and are kept.
func (r *RangePresentation) Redact() {
	r.value = ""
}

// RangeDocument is a RangePresentation's on-disk form.
type RangeDocument struct {
	Document
	Index          int    `json:"index"`
	Lower          string `json:"lower"`
	Upper          string `json:"upper"`
	InBound        bool   `json:"in_bound"`
	AttributeCount int    `json:"attribute_count"`
}

// Export returns r's on-disk Document. Call only after a successful
// Generate.
func (r *RangePresentation) Export() (RangeDocument, error) {
	core, err := r.pres.Export()
	if err != nil {
		return RangeDocument{}, err
	}
	return RangeDocument{
		Document:       core,
		Index:          r.index,
		Lower:          r.lower.String(),
		Upper:          r.upper.String(),
		InBound:        r.expectInBound,
		AttributeCount: r.attributeCount,
	}, nil
}

// ImportRangePresentation rebuilds a RangePresentation from a
// persisted Document, sufficient to call Verify but not Generate.
func ImportRangePresentation(doc RangeDocument, artifacts Artifacts) (*RangePresentation, error) {
	pres, err := importCore(doc.Document, artifacts)
	if err != nil {
		return nil, err
	}
	lower, ok := new(big.Int).SetString(doc.Lower, 10)
	if !ok {
		return nil, errs.New(errs.DecodeError, "range document: lower bound is not a decimal integer")
	}
	upper, ok := new(big.Int).SetString(doc.Upper, 10)
	if !ok {
		return nil, errs.New(errs.DecodeError, "range document: upper bound is not a decimal integer")
	}
	return &RangePresentation{
		pres:           pres,
		index:          doc.Index,
		lower:          lower,
		upper:          upper,
		expectInBound:  doc.InBound,
		attributeCount: doc.AttributeCount,
	}, nil
}
