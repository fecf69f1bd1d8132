package witness

import (
	"fmt"

	rsWitness "github.com/iden3/go-rapidsnark/witness"
)

// Calculator turns a compiled circuit artifact and its JSON input
// assignment into a binary (.wtns) witness. Each presentation variant
// is backed by its own circuit artifact; the calculator itself is
// variant-agnostic.
type Calculator interface {
	Calculate(circuitWASM, inputJSON []byte) ([]byte, error)
}

// Circom2Calculator is the default Calculator: a WASM-hosted Circom
// witness calculator. It holds no circuit state; every Calculate call
// loads the artifact it is given afresh.
type Circom2Calculator struct {
	// SanityCheck enables the calculator's own constraint sanity checks
	// during witness computation. Disable only when proving latency
	// matters more than catching a malformed input early.
	SanityCheck bool
}

var _ Calculator = Circom2Calculator{}

// Calculate loads circuitWASM and runs it against the attribute
// assignment encoded in inputJSON, returning the resulting .wtns bytes.
func (c Circom2Calculator) Calculate(circuitWASM, inputJSON []byte) ([]byte, error) {
	inputs, err := rsWitness.ParseInputs(inputJSON)
	if err != nil {
		return nil, fmt.Errorf("witness: parsing circuit input json: %w", err)
	}

	calc, err := rsWitness.NewCircom2WitnessCalculator(circuitWASM, c.SanityCheck)
	if err != nil {
		return nil, fmt.Errorf("witness: loading circuit artifact: %w", err)
	}

	wtns, err := calc.CalculateWTNSBin(inputs, c.SanityCheck)
	if err != nil {
		return nil, fmt.Errorf("witness: calculating witness: %w", err)
	}
	return wtns, nil
}
