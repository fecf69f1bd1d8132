package presentation

import (
	"fmt"
	"math/big"
	"strconv"

	"heimdall/credential"
	"heimdall/internal/eddsa"
	"heimdall/internal/errs"
	"heimdall/internal/hashfn"
	"heimdall/revocation"
)

// AttributePresentation selectively discloses a subset of a
// credential's attributes: the circuit reveals hash_string(attr[i])
// for every i the holder chose to publish, leaving every other
// attribute's plaintext unconstrained outside the proof.
type AttributePresentation struct {
	pres         *Presentation
	toPublish    []int
	content      []string
	revealHashes map[int]*big.Int
}

var _ Variant = (*AttributePresentation)(nil)

// buildToPublish turns a set of attribute indices into the circuit's
// 0/1 toPublish vector, the plaintext content of the published
// attributes (in index order), and their reveal hashes.
func buildToPublish(attrs []string, indices []int, hasher hashfn.Capability) ([]int, []string, map[int]*big.Int, error) {
	toPublish := make([]int, len(attrs))
	published := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(attrs) {
			return nil, nil, nil, errs.New(errs.IndexOutOfBounds, fmt.Sprintf("attribute index %d out of range", i))
		}
		toPublish[i] = 1
		published[i] = true
	}

	content := make([]string, 0, len(indices))
	revealHashes := make(map[int]*big.Int, len(indices))
	for i := 0; i < len(attrs); i++ {
		if published[i] {
			content = append(content, attrs[i])
			revealHashes[i] = hasher.HashString(attrs[i])
		}
	}
	return toPublish, content, revealHashes, nil
}

// NewAttributePresentation builds a presentation that discloses the
// attributes at indices, signed with a per-session challenge.
func NewAttributePresentation(
	cred *credential.Credential,
	reg *revocation.Registry,
	indices []int,
	challenge *big.Int,
	skHolder *eddsa.PrivateKey,
	pkIssuer *eddsa.PublicKey,
	expiration *big.Int,
	hasher hashfn.Capability,
	artifacts Artifacts,
) (*AttributePresentation, error) {
	pi, err := BuildPrivateInputs(cred, reg, challenge, skHolder, pkIssuer, expiration, hasher)
	if err != nil {
		return nil, err
	}
	ps, err := BuildPublicSignals(cred, reg, challenge, expiration, pkIssuer, hasher)
	if err != nil {
		return nil, err
	}

	toPublish, content, revealHashes, err := buildToPublish(cred.Attributes(), indices, hasher)
	if err != nil {
		return nil, err
	}

	return &AttributePresentation{
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
	}, nil
}

// Generate produces and self-verifies the attribute-disclosure proof.
func (a *AttributePresentation) Generate() error { return Generate(a.pres, a) }

// Verify re-checks an already-generated proof.
func (a *AttributePresentation) Verify() error { return Verify(a.pres, a) }

// ExtraInputPairs contributes the toPublish vector to the circuit input.
func (a *AttributePresentation) ExtraInputPairs() []kv {
	return []kv{{"toPublish", intsToStrings(a.toPublish)}}
}

// VerifyExtra checks that each published attribute's reveal hash
// appears at its fixed output slot, OutVariantBase+i.
func (a *AttributePresentation) VerifyExtra(signals []string) error {
	for i, publish := range a.toPublish {
		if publish == 0 {
			continue
		}
		want, ok := a.revealHashes[i]
		if !ok {
			return errs.New(errs.InvalidProof, fmt.Sprintf("no reveal hash recorded for attribute %d", i))
		}
		if err := checkSignal(signals, OutVariantBase+i, want); err != nil {
			return err
		}
	}
	return nil
}

// Redact drops the disclosed attributes' plaintext; the reveal hashes,
// being public by construction, are kept.
func (a *AttributePresentation) Redact() {
	a.content = nil
}

// AttributeDocument is an AttributePresentation's on-disk form.
type AttributeDocument struct {
	Document
	ToPublish    []int             `json:"to_publish"`
	RevealHashes map[string]string `json:"reveal_hashes"`
}

// Export returns a's on-disk Document. Call only after a successful
// Generate.
func (a *AttributePresentation) Export() (AttributeDocument, error) {
	core, err := a.pres.Export()
	if err != nil {
		return AttributeDocument{}, err
	}
	revealHashes := make(map[string]string, len(a.revealHashes))
	for i, h := range a.revealHashes {
		revealHashes[strconv.Itoa(i)] = h.String()
	}
	return AttributeDocument{Document: core, ToPublish: a.toPublish, RevealHashes: revealHashes}, nil
}

// ImportAttributePresentation rebuilds an AttributePresentation from a
// persisted Document, sufficient to call Verify but not Generate.
func ImportAttributePresentation(doc AttributeDocument, artifacts Artifacts) (*AttributePresentation, error) {
	pres, err := importCore(doc.Document, artifacts)
	if err != nil {
		return nil, err
	}
	revealHashes := make(map[int]*big.Int, len(doc.RevealHashes))
	for k, v := range doc.RevealHashes {
		i, err := strconv.Atoi(k)
		if err != nil {
			return nil, errs.Wrap(errs.DecodeError, err)
		}
		h, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return nil, errs.New(errs.DecodeError, "attribute document: reveal hash is not a decimal integer")
		}
		revealHashes[i] = h
	}
	return &AttributePresentation{pres: pres, toPublish: doc.ToPublish, revealHashes: revealHashes}, nil
}
