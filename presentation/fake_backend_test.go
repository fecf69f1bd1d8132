package presentation

import (
	"encoding/json"
	"fmt"
)

// fakeCalculator skips real circuit execution: it hands the marshaled
// circuit input straight back as the "witness", letting fakeProver
// decode it and hand it to the test's variantSignals closure.
type fakeCalculator struct{}

func (fakeCalculator) Calculate(_, inputJSON []byte) ([]byte, error) {
	return inputJSON, nil
}

// fakeProof implements ProofHandle by reporting exactly the output
// signals it was constructed with.
type fakeProof struct {
	signals []string
}

func (f *fakeProof) Verify(_ []byte) error { return nil }

func (f *fakeProof) PublicSignals() ([]string, error) {
	return f.signals, nil
}

func (f *fakeProof) Marshal() (proofJSON, publicSignalsJSON string) {
	signals, _ := json.Marshal(f.signals)
	return "{}", string(signals)
}

// fakeProver assembles the output signals a real circuit of this module
// would produce, instead of invoking a real Groth16 backend: the meta
// signals come from ps, and the variant-specific tail from
// variantSignals, which receives the decoded JSON witness
// fakeCalculator passed through. Its fields are
// filled in after the enclosing presentation is constructed, since the
// expected values depend on fields only the presentation itself knows.
type fakeProver struct {
	ps             *PublicSignals
	variantSignals func(doc map[string]interface{}) ([]string, error)
}

func (fp *fakeProver) Prove(_ []byte, wtns []byte, _ []byte) (ProofHandle, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(wtns, &doc); err != nil {
		return nil, fmt.Errorf("fakeProver: decoding witness json: %w", err)
	}

	signals := make([]string, OutVariantBase)
	signals[OutType] = fp.ps.TypeHash.String()
	signals[OutRevocationRoot] = fp.ps.RevocationRoot.String()
	signals[OutRegistryIDHash] = fp.ps.RegistryIDHash.String()
	signals[OutRevoked] = boolToInt(fp.ps.Revoked).String()
	if fp.ps.LinkBack != nil {
		signals[OutLinkBack] = fp.ps.LinkBack.String()
	} else {
		signals[OutLinkBack] = "0"
	}
	signals[OutDelegatable] = boolToInt(fp.ps.Delegatable).String()
	signals[OutChallenge] = fp.ps.Challenge.String()
	signals[OutExpiration] = fp.ps.Expiration.String()

	extra, err := fp.variantSignals(doc)
	if err != nil {
		return nil, err
	}
	signals = append(signals, extra...)

	return &fakeProof{signals: signals}, nil
}
