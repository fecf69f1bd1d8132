package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"heimdall/credential"
	"heimdall/internal/eddsa"
	"heimdall/internal/witness"
	"heimdall/pkg/config"
	"heimdall/pkg/metrics"
	"heimdall/presentation"
	"heimdall/revocation"
)

func loadArtifacts(paths config.CircuitArtifactPaths) (presentation.Artifacts, error) {
	wasmBytes, err := os.ReadFile(paths.WASM)
	if err != nil {
		return presentation.Artifacts{}, fmt.Errorf("reading circuit wasm: %w", err)
	}
	zkey, err := os.ReadFile(paths.Zkey)
	if err != nil {
		return presentation.Artifacts{}, fmt.Errorf("reading proving key: %w", err)
	}
	vkey, err := os.ReadFile(paths.VerificationKey)
	if err != nil {
		return presentation.Artifacts{}, fmt.Errorf("reading verification key: %w", err)
	}
	return presentation.Artifacts{
		Circuit:         wasmBytes,
		Zkey:            zkey,
		VerificationKey: vkey,
		Calculator:      witness.Circom2Calculator{SanityCheck: true},
	}, nil
}

func loadCredentialDoc(path string) (*credential.Credential, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc credential.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return credential.Import(doc, hasher)
}

func loadRegistryDoc(path string) (*revocation.Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc revocation.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return revocation.ImportRegistry(doc, nil, hasher)
}

func parseIndices(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid index %q: %w", p, err)
		}
		out[i] = n
	}
	return out, nil
}

// presentationHandle is the common Generate/Verify surface every
// presentation variant's constructor returns, so runPresent can stay
// variant-agnostic past construction.
type presentationHandle interface {
	Generate() error
	Verify() error
}

func variantCircuitDir(cfg *config.Config, variant string) (string, error) {
	switch variant {
	case "attribute":
		return cfg.AttributeCircuitDir, nil
	case "range":
		return cfg.RangeCircuitDir, nil
	case "polygon":
		return cfg.PolygonCircuitDir, nil
	case "delegation":
		return cfg.DelegationCircuitDir, nil
	default:
		return "", fmt.Errorf("unknown variant %q (want attribute, range, polygon or delegation)", variant)
	}
}

func runPresent(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("present", flag.ExitOnError)
	variant := fs.String("variant", "", "attribute|range|polygon|delegation")
	credPath := fs.String("credential", "", "path to the credential Document JSON")
	registryPath := fs.String("registry", cfg.RevocationRegistryPath, "path to the registry state file")
	holderKeyPath := fs.String("holder", "", "path to the holder's signing key (omit for delegation)")
	issuerPub := fs.String("issuer-pub", "", "issuer public key as \"x,y\", for link_back")
	challenge := fs.Int64("challenge", 0, "session challenge")
	expiration := fs.Int64("expiration", 0, "claimed expiration, ms since epoch")
	indices := fs.String("indices", "", "comma-separated attribute indices to disclose")
	lower := fs.Int64("lower", 0, "range lower bound")
	upper := fs.Int64("upper", 0, "range upper bound")
	index := fs.Int("index", 0, "single attribute index (range variant)")
	out := fs.String("out", "", "write the generated presentation's Document JSON here")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cred, err := loadCredentialDoc(*credPath)
	if err != nil {
		return fmt.Errorf("present: loading credential: %w", err)
	}
	reg, err := loadRegistryDoc(*registryPath)
	if err != nil {
		return fmt.Errorf("present: loading registry: %w", err)
	}

	var skHolder *eddsa.PrivateKey
	if *holderKeyPath != "" {
		b, err := os.ReadFile(*holderKeyPath)
		if err != nil {
			return fmt.Errorf("present: loading holder key: %w", err)
		}
		skHolder, err = eddsa.PrivateKeyFromBytes(b)
		if err != nil {
			return fmt.Errorf("present: %w", err)
		}
	}

	var pkIssuer *eddsa.PublicKey
	if *issuerPub != "" {
		x, y, err := parseCoords(*issuerPub)
		if err != nil {
			return fmt.Errorf("present: issuer-pub: %w", err)
		}
		pkIssuer = eddsa.PublicKeyFromCoords(x, y)
	}

	idx, err := parseIndices(*indices)
	if err != nil {
		return fmt.Errorf("present: %w", err)
	}

	variantDir, err := variantCircuitDir(cfg, *variant)
	if err != nil {
		return fmt.Errorf("present: %w", err)
	}
	artifacts, err := loadArtifacts(cfg.Paths(variantDir))
	if err != nil {
		return fmt.Errorf("present: %w", err)
	}

	var ph presentationHandle
	switch *variant {
	case "attribute":
		ph, err = presentation.NewAttributePresentation(cred, reg, idx, big.NewInt(*challenge), skHolder, pkIssuer, big.NewInt(*expiration), hasher, artifacts)
	case "range":
		ph, err = presentation.NewRangePresentation(cred, reg, *index, big.NewInt(*lower), big.NewInt(*upper), big.NewInt(*challenge), skHolder, pkIssuer, big.NewInt(*expiration), hasher, artifacts)
	case "polygon":
		return fmt.Errorf("present: the polygon variant's vertex list is not expressible as flags; use the presentation package directly")
	case "delegation":
		ph, err = presentation.NewDelegationPresentation(cred, reg, idx, big.NewInt(*challenge), big.NewInt(*expiration), hasher, artifacts)
	}
	if err != nil {
		return fmt.Errorf("present: %w", err)
	}

	start := time.Now()
	err = ph.Generate()
	metrics.RecordPresentationGeneration(*variant, time.Since(start), err == nil)
	if err != nil {
		return fmt.Errorf("present: %w", err)
	}
	fmt.Println("presentation generated and self-verified")

	if *out != "" {
		doc, err := exportPresentation(ph)
		if err != nil {
			return fmt.Errorf("present: exporting: %w", err)
		}
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("present: encoding document: %w", err)
		}
		if err := os.WriteFile(*out, b, 0o644); err != nil {
			return fmt.Errorf("present: writing %s: %w", *out, err)
		}
		fmt.Printf("wrote %s\n", *out)
	}
	return nil
}

// exportPresentation dispatches to the generated variant's own Export,
// since each variant's Document carries different public fields.
func exportPresentation(ph presentationHandle) (interface{}, error) {
	switch v := ph.(type) {
	case *presentation.AttributePresentation:
		return v.Export()
	case *presentation.RangePresentation:
		return v.Export()
	case *presentation.PolygonPresentation:
		return v.Export()
	case *presentation.DelegationPresentation:
		return v.Export()
	default:
		return nil, fmt.Errorf("no Document export known for %T", ph)
	}
}

func runVerify(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	variant := fs.String("variant", "", "attribute|range|polygon|delegation")
	proofPath := fs.String("proof", "", "path to a Document JSON written by 'present -out'")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *proofPath == "" {
		return fmt.Errorf("verify: -proof is required")
	}

	b, err := os.ReadFile(*proofPath)
	if err != nil {
		return fmt.Errorf("verify: reading %s: %w", *proofPath, err)
	}

	variantDir, err := variantCircuitDir(cfg, *variant)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	artifacts, err := loadArtifacts(cfg.Paths(variantDir))
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	var ph presentationHandle
	switch *variant {
	case "attribute":
		var doc presentation.AttributeDocument
		if err := json.Unmarshal(b, &doc); err != nil {
			return fmt.Errorf("verify: decoding document: %w", err)
		}
		ph, err = presentation.ImportAttributePresentation(doc, artifacts)
	case "range":
		var doc presentation.RangeDocument
		if err := json.Unmarshal(b, &doc); err != nil {
			return fmt.Errorf("verify: decoding document: %w", err)
		}
		ph, err = presentation.ImportRangePresentation(doc, artifacts)
	case "polygon":
		var doc presentation.PolygonDocument
		if err := json.Unmarshal(b, &doc); err != nil {
			return fmt.Errorf("verify: decoding document: %w", err)
		}
		ph, err = presentation.ImportPolygonPresentation(doc, artifacts)
	case "delegation":
		var doc presentation.DelegationDocument
		if err := json.Unmarshal(b, &doc); err != nil {
			return fmt.Errorf("verify: decoding document: %w", err)
		}
		ph, err = presentation.ImportDelegationPresentation(doc, artifacts)
	default:
		err = fmt.Errorf("unknown variant %q (want attribute, range, polygon or delegation)", *variant)
	}
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	if err := ph.Verify(); err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	fmt.Println("presentation verified")
	return nil
}
