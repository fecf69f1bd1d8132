// Package presentation implements the presentation core: assembling a
// credential's private witness material, serializing it into the
// circuit's expected JSON input document, driving it through a
// witness calculator and the Groth16 prover, and re-deriving every
// public signal at verify time to confirm the proof matches its
// claimed metadata.
package presentation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"go.uber.org/zap"

	"heimdall/credential"
	"heimdall/internal/eddsa"
	"heimdall/internal/errs"
	"heimdall/internal/field"
	"heimdall/internal/hashfn"
	"heimdall/internal/snark"
	"heimdall/internal/witness"
	"heimdall/pkg/logging"
	"heimdall/revocation"
)

// Output-index contract: the position of every well-known public
// signal in a presentation's proof, shared by all four variants.
// Variant-specific outputs start at OutVariantBase.
const (
	OutType           = 0
	OutRevocationRoot = 1
	OutRegistryIDHash = 2
	OutRevoked        = 3
	OutLinkBack       = 4
	OutDelegatable    = 5
	OutChallenge      = 6
	OutExpiration     = 7
	OutVariantBase    = 8
)

// PrivateInputs is the private witness material assembled for one
// presentation.
type PrivateInputs struct {
	Values          []*big.Int
	SignatureMeta   *eddsa.Signature
	PathRevocation  []int
	LemmaRevocation []*big.Int
	RevocationLeaf  *big.Int
	SignChallenge   *eddsa.Signature // nil if the holder did not sign the challenge
	IssuerPKX       *big.Int         // nil if no link-back is being computed
	IssuerPKY       *big.Int
	Challenge       *big.Int
	Expiration      *big.Int
}

// PublicSignals is the claimed, re-derivable half of a presentation's
// output.
type PublicSignals struct {
	TypeHash       *big.Int
	RevocationRoot *big.Int
	RegistryIDHash *big.Int
	Revoked        bool
	Delegatable    bool
	LinkBack       *big.Int // nil if not computed
	Challenge      *big.Int
	Expiration     *big.Int
}

func parseOrHash(s string, hasher hashfn.Capability) *big.Int {
	if s == "" {
		return big.NewInt(0)
	}
	if x, ok := field.ParseDecimal(s); ok {
		return x
	}
	return hasher.HashString(s)
}

func credentialID(cred *credential.Credential) (*big.Int, error) {
	idAttr, err := cred.Attribute(credential.MetaID)
	if err != nil {
		return nil, errs.Wrap(errs.SchemaError, err)
	}
	id, ok := field.ParseDecimal(idAttr)
	if !ok {
		return nil, errs.New(errs.SchemaError, fmt.Sprintf("credential id %q is not a decimal integer", idAttr))
	}
	if !id.IsUint64() {
		return nil, errs.New(errs.SchemaError, fmt.Sprintf("credential id %s does not fit a uint64", id))
	}
	return id, nil
}

// BuildPrivateInputs assembles the private witness for cred against
// reg: each meta slot is parsed-or-hashed, each user slot is always
// hash_string'd, and the revocation Merkle proof is generated over the
// leaf covering the credential's own id.
func BuildPrivateInputs(
	cred *credential.Credential,
	reg *revocation.Registry,
	challenge *big.Int,
	skHolder *eddsa.PrivateKey,
	pkIssuer *eddsa.PublicKey,
	expiration *big.Int,
	hasher hashfn.Capability,
) (*PrivateInputs, error) {
	attrs := cred.Attributes()
	values := make([]*big.Int, len(attrs))
	for i, a := range attrs {
		if i < credential.MetaSize {
			values[i] = parseOrHash(a, hasher)
		} else {
			values[i] = hasher.HashString(a)
		}
	}

	id, err := credentialID(cred)
	if err != nil {
		return nil, err
	}

	proof, err := reg.ProofFor(id.Uint64())
	if err != nil {
		return nil, errs.Wrap(errs.IndexOutOfBounds, err)
	}
	leafValue, err := reg.LeafValue(id.Uint64())
	if err != nil {
		return nil, errs.Wrap(errs.IndexOutOfBounds, err)
	}

	sigMeta, err := eddsa.DecodeSignature(cred.Signature())
	if err != nil {
		return nil, errs.Wrap(errs.SignatureError, err)
	}

	pi := &PrivateInputs{
		Values:          values,
		SignatureMeta:   sigMeta,
		PathRevocation:  proof.Path,
		LemmaRevocation: proof.Lemma,
		RevocationLeaf:  leafValue,
		Challenge:       challenge,
		Expiration:      expiration,
	}

	if skHolder != nil {
		sig, err := skHolder.SignStruct(challenge)
		if err != nil {
			return nil, errs.Wrap(errs.SignatureError, err)
		}
		pi.SignChallenge = sig
	}
	if pkIssuer != nil {
		pi.IssuerPKX = pkIssuer.X()
		pi.IssuerPKY = pkIssuer.Y()
	}

	return pi, nil
}

// BuildPublicSignals copies the claimed, re-derivable metadata a
// presentation's proof must agree with.
func BuildPublicSignals(
	cred *credential.Credential,
	reg *revocation.Registry,
	challenge, expiration *big.Int,
	pkIssuer *eddsa.PublicKey,
	hasher hashfn.Capability,
) (*PublicSignals, error) {
	typeAttr, err := cred.Attribute(credential.MetaType)
	if err != nil {
		return nil, errs.Wrap(errs.SchemaError, err)
	}
	registryAttr, err := cred.Attribute(credential.MetaRegistryID)
	if err != nil {
		return nil, errs.Wrap(errs.SchemaError, err)
	}
	delegatableAttr, err := cred.Attribute(credential.MetaDelegatable)
	if err != nil {
		return nil, errs.Wrap(errs.SchemaError, err)
	}

	id, err := credentialID(cred)
	if err != nil {
		return nil, err
	}
	revoked, err := reg.IsRevoked(id.Uint64())
	if err != nil {
		return nil, errs.Wrap(errs.IndexOutOfBounds, err)
	}

	ps := &PublicSignals{
		TypeHash:       hasher.HashString(typeAttr),
		RevocationRoot: reg.Root(),
		RegistryIDHash: hasher.HashString(registryAttr),
		Revoked:        revoked,
		Delegatable:    delegatableAttr == "1",
		Challenge:      challenge,
		Expiration:     expiration,
	}
	if pkIssuer != nil {
		ps.LinkBack = hasher.Hash(challenge, pkIssuer.X(), pkIssuer.Y())
	}
	return ps, nil
}

// kv is one ordered (key, value) pair in a circuit-input document.
type kv struct {
	Key   string
	Value interface{}
}

// orderedDoc marshals as a JSON object whose key order is exactly the
// slice order: the circuit's signal declaration order is significant
// and a plain map would not preserve it.
type orderedDoc []kv

func (d orderedDoc) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, pair := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(pair.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(pair.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func bigIntsToStrings(xs []*big.Int) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = x.String()
	}
	return out
}

func intsToStrings(xs []int) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = strconv.Itoa(x)
	}
	return out
}

// coreInputPairs builds the shared prefix of every variant's circuit
// input document, in the fixed key order the circuit ABI requires.
func coreInputPairs(pi *PrivateInputs) orderedDoc {
	doc := orderedDoc{
		{"values", bigIntsToStrings(pi.Values)},
		{"signatureMeta", []string{pi.SignatureMeta.R8X.String(), pi.SignatureMeta.R8Y.String(), pi.SignatureMeta.S.String()}},
		{"pathRevocation", intsToStrings(pi.PathRevocation)},
		{"lemmaRevocation", bigIntsToStrings(pi.LemmaRevocation)},
		{"revocationLeaf", pi.RevocationLeaf.String()},
	}
	if pi.SignChallenge != nil {
		doc = append(doc, kv{"signChallenge", []string{pi.SignChallenge.R8X.String(), pi.SignChallenge.R8Y.String(), pi.SignChallenge.S.String()}})
	}
	if pi.IssuerPKX != nil {
		doc = append(doc, kv{"issuerPK", []string{pi.IssuerPKX.String(), pi.IssuerPKY.String()}})
	}
	doc = append(doc,
		kv{"challenge", pi.Challenge.String()},
		kv{"expiration", pi.Expiration.String()},
	)
	return doc
}

// Variant captures the one piece of behavior that differs between
// attribute, range, polygon and delegation presentations: the extra
// circuit-input fields they contribute, the extra output signals they
// check, and what private state they must drop after a successful
// generate.
type Variant interface {
	ExtraInputPairs() []kv
	VerifyExtra(signals []string) error
	Redact()
}

// ProofHandle is the subset of *snark.Proof's behavior Verify and
// Export depend on, factored out so tests can exercise the
// generate/verify flow against a fake prover instead of a real
// Groth16 backend.
type ProofHandle interface {
	Verify(verificationKey []byte) error
	PublicSignals() ([]string, error)
	Marshal() (proofJSON, publicSignalsJSON string)
}

// Prover turns a witness into a proof. The default, Groth16Prover,
// wraps internal/snark's go-rapidsnark-backed prover.
type Prover interface {
	Prove(zkey, wtns, verificationKey []byte) (ProofHandle, error)
}

// Groth16Prover is the production Prover.
type Groth16Prover struct{}

var _ Prover = Groth16Prover{}

func (Groth16Prover) Prove(zkey, wtns, verificationKey []byte) (ProofHandle, error) {
	return snark.CreateProof(zkey, wtns, verificationKey)
}

// Artifacts bundles the external, opaque inputs a presentation's
// generate needs: the circuit's WASM witness-calculator artifact, its
// Groth16 proving key, and its verification key (Circom/snarkjs JSON).
// Prover defaults to Groth16Prover when left zero.
type Artifacts struct {
	Circuit         []byte
	Zkey            []byte
	VerificationKey []byte
	Calculator      witness.Calculator
	Prover          Prover
}

func (a Artifacts) prover() Prover {
	if a.Prover == nil {
		return Groth16Prover{}
	}
	return a.Prover
}

// Presentation ties a credential's private/public witness material to
// the proof generate() eventually produces. Construct one via
// NewAttributePresentation/NewRangePresentation/NewPolygonPresentation/
// NewDelegationPresentation.
type Presentation struct {
	cred      *credential.Credential
	pi        *PrivateInputs
	ps        *PublicSignals
	hasher    hashfn.Capability
	artifacts Artifacts
	proof     ProofHandle
}

// Generate serializes core+variant private inputs into the circuit's
// JSON input document, calculates the witness, proves, immediately
// verifies the result, and then redacts all private state. On any
// failure before a successful verify, the presentation is left
// unchanged and the error is returned (per the "redact only on
// success" rule).
func Generate(p *Presentation, v Variant) error {
	variantField := zap.String("variant", fmt.Sprintf("%T", v))

	doc := coreInputPairs(p.pi)
	doc = append(doc, v.ExtraInputPairs()...)

	payload, err := json.Marshal(doc)
	if err != nil {
		err = errs.Wrap(errs.DecodeError, err)
		logging.Error("presentation generation failed", variantField, zap.Error(err))
		return err
	}

	wtns, err := p.artifacts.Calculator.Calculate(p.artifacts.Circuit, payload)
	if err != nil {
		err = errs.Wrap(errs.WitnessCalcError, err)
		logging.Error("presentation generation failed", variantField, zap.Error(err))
		return err
	}

	proof, err := p.artifacts.prover().Prove(p.artifacts.Zkey, wtns, p.artifacts.VerificationKey)
	if err != nil {
		err = errs.Wrap(errs.InvalidProof, err)
		logging.Error("presentation generation failed", variantField, zap.Error(err))
		return err
	}
	p.proof = proof

	if err := Verify(p, v); err != nil {
		p.proof = nil
		return err
	}

	p.cred = nil
	p.pi = nil
	v.Redact()
	logging.Info("presentation generated", variantField)
	return nil
}

// Verify checks the presentation's proof against the verification key,
// then re-derives every public signal and compares it against the
// proof's actual output at its fixed index.
func Verify(p *Presentation, v Variant) error {
	variantField := zap.String("variant", fmt.Sprintf("%T", v))

	if p.proof == nil {
		err := errs.New(errs.InvalidProof, "presentation has no proof to verify")
		logging.Error("presentation verification failed", variantField, zap.Error(err))
		return err
	}
	if err := p.proof.Verify(p.artifacts.VerificationKey); err != nil {
		err = errs.Wrap(errs.InvalidProof, err)
		logging.Error("presentation verification failed", variantField, zap.Error(err))
		return err
	}

	signals, err := p.proof.PublicSignals()
	if err != nil {
		err = errs.Wrap(errs.DecodeError, err)
		logging.Error("presentation verification failed", variantField, zap.Error(err))
		return err
	}

	if err := verifyMetaSignals(p.ps, signals); err != nil {
		logging.Error("presentation verification failed", variantField, zap.Error(err))
		return err
	}
	if err := v.VerifyExtra(signals); err != nil {
		logging.Error("presentation verification failed", variantField, zap.Error(err))
		return err
	}
	logging.Info("presentation verified", variantField)
	return nil
}

// Document is a presentation's post-redaction, on-disk form: the
// proof and the claimed public signals it was generated against,
// enough to re-verify without the credential or any private witness
// material. Each variant embeds this in its own document type,
// adding its own public fields (see attribute.go/range.go/polygon.go/
// delegation.go).
type Document struct {
	ProofJSON         string                `json:"proof"`
	PublicSignalsJSON string                `json:"public_signals"`
	Meta              PublicSignalsDocument `json:"meta"`
}

// PublicSignalsDocument is PublicSignals in a JSON-transportable form.
type PublicSignalsDocument struct {
	TypeHash       string `json:"type_hash"`
	RevocationRoot string `json:"revocation_root"`
	RegistryIDHash string `json:"registry_id_hash"`
	Revoked        bool   `json:"revoked"`
	Delegatable    bool   `json:"delegatable"`
	LinkBack       string `json:"link_back,omitempty"`
	Challenge      string `json:"challenge"`
	Expiration     string `json:"expiration"`
}

func (ps *PublicSignals) toDocument() PublicSignalsDocument {
	doc := PublicSignalsDocument{
		TypeHash:       ps.TypeHash.String(),
		RevocationRoot: ps.RevocationRoot.String(),
		RegistryIDHash: ps.RegistryIDHash.String(),
		Revoked:        ps.Revoked,
		Delegatable:    ps.Delegatable,
		Challenge:      ps.Challenge.String(),
		Expiration:     ps.Expiration.String(),
	}
	if ps.LinkBack != nil {
		doc.LinkBack = ps.LinkBack.String()
	}
	return doc
}

func publicSignalsFromDocument(doc PublicSignalsDocument) (*PublicSignals, error) {
	parse := func(s, field string) (*big.Int, error) {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, errs.New(errs.DecodeError, fmt.Sprintf("presentation document: %s is not a decimal integer", field))
		}
		return v, nil
	}

	typeHash, err := parse(doc.TypeHash, "type_hash")
	if err != nil {
		return nil, err
	}
	revocationRoot, err := parse(doc.RevocationRoot, "revocation_root")
	if err != nil {
		return nil, err
	}
	registryIDHash, err := parse(doc.RegistryIDHash, "registry_id_hash")
	if err != nil {
		return nil, err
	}
	challenge, err := parse(doc.Challenge, "challenge")
	if err != nil {
		return nil, err
	}
	expiration, err := parse(doc.Expiration, "expiration")
	if err != nil {
		return nil, err
	}

	ps := &PublicSignals{
		TypeHash:       typeHash,
		RevocationRoot: revocationRoot,
		RegistryIDHash: registryIDHash,
		Revoked:        doc.Revoked,
		Delegatable:    doc.Delegatable,
		Challenge:      challenge,
		Expiration:     expiration,
	}
	if doc.LinkBack != "" {
		linkBack, err := parse(doc.LinkBack, "link_back")
		if err != nil {
			return nil, err
		}
		ps.LinkBack = linkBack
	}
	return ps, nil
}

// Export returns p's core on-disk Document: the proof plus the public
// signals it claims. Call only once Generate has succeeded (p.proof
// is set and private state has already been redacted).
func (p *Presentation) Export() (Document, error) {
	if p.proof == nil {
		return Document{}, errs.New(errs.InvalidProof, "presentation has no proof to export")
	}
	proofJSON, publicSignalsJSON := p.proof.Marshal()
	return Document{
		ProofJSON:         proofJSON,
		PublicSignalsJSON: publicSignalsJSON,
		Meta:              p.ps.toDocument(),
	}, nil
}

// importCore rebuilds the core, non-variant half of a persisted
// presentation from doc: its claimed public signals and its proof,
// wrapped as a snark.Proof so re-verification runs against the real
// Groth16 backend. The credential and private witness material are
// gone for good; only Verify, never Generate, is meaningful on the
// result.
func importCore(doc Document, artifacts Artifacts) (*Presentation, error) {
	ps, err := publicSignalsFromDocument(doc.Meta)
	if err != nil {
		return nil, err
	}
	return &Presentation{
		ps:        ps,
		artifacts: artifacts,
		proof:     &snark.Proof{ProofJSON: doc.ProofJSON, PublicSignalsJSON: doc.PublicSignalsJSON},
	}, nil
}

func verifyMetaSignals(ps *PublicSignals, signals []string) error {
	check := func(idx int, want *big.Int) error {
		return checkSignal(signals, idx, want)
	}

	if err := check(OutType, ps.TypeHash); err != nil {
		return err
	}
	if err := check(OutRevocationRoot, ps.RevocationRoot); err != nil {
		return err
	}
	if err := check(OutRegistryIDHash, ps.RegistryIDHash); err != nil {
		return err
	}
	if err := check(OutRevoked, boolToInt(ps.Revoked)); err != nil {
		return err
	}
	if ps.LinkBack != nil {
		if err := check(OutLinkBack, ps.LinkBack); err != nil {
			return err
		}
	}
	if err := check(OutDelegatable, boolToInt(ps.Delegatable)); err != nil {
		return err
	}
	if err := check(OutChallenge, ps.Challenge); err != nil {
		return err
	}
	if err := check(OutExpiration, ps.Expiration); err != nil {
		return err
	}
	return nil
}

func boolToInt(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

// checkSignal compares the decimal-decoded signal at idx against want,
// shared by every variant's VerifyExtra.
func checkSignal(signals []string, idx int, want *big.Int) error {
	if idx >= len(signals) {
		return errs.New(errs.InvalidProof, fmt.Sprintf("missing output signal at index %d", idx))
	}
	got, ok := new(big.Int).SetString(signals[idx], 10)
	if !ok {
		return errs.New(errs.DecodeError, fmt.Sprintf("output signal %d is not a decimal integer", idx))
	}
	if got.Cmp(want) != 0 {
		return errs.New(errs.InvalidProof, fmt.Sprintf("output signal %d: want %s, got %s", idx, want, got))
	}
	return nil
}
