// Package snark wraps Groth16 proof creation and verification for the
// Circom-compiled presentation circuits: an opaque proving key (zkey)
// and a binary witness go in, a proof and its public signal vector come
// out, self-verified immediately against the matching verification key.
package snark

import (
	"encoding/json"
	"fmt"

	"github.com/iden3/go-rapidsnark/prover"
	"github.com/iden3/go-rapidsnark/types"
	"github.com/iden3/go-rapidsnark/verifier"
)

// Proof is a Groth16 proof together with its public signal vector, in
// the Circom/snarkjs JSON encoding the whole toolchain shares.
type Proof struct {
	ProofJSON         string
	PublicSignalsJSON string
}

// Marshal returns p's Circom/snarkjs JSON encoding, suitable for
// persisting a proof and reconstructing it later via its raw fields.
func (p *Proof) Marshal() (proofJSON, publicSignalsJSON string) {
	return p.ProofJSON, p.PublicSignalsJSON
}

// PublicSignals decodes the proof's public signal vector, in circuit
// output-index order, as decimal strings.
func (p *Proof) PublicSignals() ([]string, error) {
	var signals []string
	if err := json.Unmarshal([]byte(p.PublicSignalsJSON), &signals); err != nil {
		return nil, fmt.Errorf("snark: decoding public signals: %w", err)
	}
	return signals, nil
}

// CreateProof runs the Groth16 prover over zkey and wtns, then
// immediately self-verifies the result against vkeyJSON: a broken or
// mismatched proving key fails here, not at the verifier's site.
func CreateProof(zkey, wtns, vkeyJSON []byte) (*Proof, error) {
	proofJSON, publicSignalsJSON, err := prover.Groth16ProverRaw(zkey, wtns)
	if err != nil {
		return nil, fmt.Errorf("snark: proving: %w", err)
	}

	proof := &Proof{ProofJSON: proofJSON, PublicSignalsJSON: publicSignalsJSON}
	if err := proof.Verify(vkeyJSON); err != nil {
		return nil, fmt.Errorf("snark: self-verification of freshly created proof failed: %w", err)
	}
	return proof, nil
}

// Verify checks p against the verification key encoded in vkeyJSON.
func (p *Proof) Verify(vkeyJSON []byte) error {
	var proofData types.ProofData
	if err := json.Unmarshal([]byte(p.ProofJSON), &proofData); err != nil {
		return fmt.Errorf("snark: decoding proof: %w", err)
	}
	signals, err := p.PublicSignals()
	if err != nil {
		return err
	}

	zkProof := &types.ZKProof{
		Proof:      &proofData,
		PubSignals: signals,
	}
	if err := verifier.VerifyGroth16(*zkProof, vkeyJSON); err != nil {
		return fmt.Errorf("snark: %w", err)
	}
	return nil
}
