package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"

	"heimdall/credential"
	"heimdall/internal/eddsa"
	"heimdall/pkg/config"
	"heimdall/pkg/metrics"
)

func loadIssuerKey(path string) (*eddsa.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading issuer key: %w", err)
	}
	return eddsa.PrivateKeyFromBytes(b)
}

func parseCoords(s string) (*big.Int, *big.Int, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("expected \"x,y\", got %q", s)
	}
	x, ok := new(big.Int).SetString(strings.TrimSpace(parts[0]), 10)
	if !ok {
		return nil, nil, fmt.Errorf("invalid x coordinate %q", parts[0])
	}
	y, ok := new(big.Int).SetString(strings.TrimSpace(parts[1]), 10)
	if !ok {
		return nil, nil, fmt.Errorf("invalid y coordinate %q", parts[1])
	}
	return x, y, nil
}

func runIssue(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("issue", flag.ExitOnError)
	issuerPath := fs.String("issuer", cfg.IssuerPrivateKeyPath, "path to the issuer's signing key")
	holderPub := fs.String("holder-pub", "", "holder public key as \"x,y\"")
	id := fs.Uint64("id", 0, "credential id")
	credType := fs.String("type", "", "credential type")
	registryID := fs.String("registry-id", "", "revocation registry id this credential belongs to")
	daysValid := fs.Int64("days-valid", 365, "days until expiration")
	delegatable := fs.Bool("delegatable", false, "whether this credential may anchor a delegation chain")
	attrs := fs.String("attrs", "", "comma-separated user attribute values")
	out := fs.String("out", "", "output path for the credential Document JSON (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *holderPub == "" {
		return fmt.Errorf("issue: -holder-pub is required")
	}

	skIssuer, err := loadIssuerKey(*issuerPath)
	if err != nil {
		return fmt.Errorf("issue: %w", err)
	}

	hx, hy, err := parseCoords(*holderPub)
	if err != nil {
		return fmt.Errorf("issue: holder-pub: %w", err)
	}
	pkHolder := eddsa.PublicKeyFromCoords(hx, hy)

	var userAttrs []string
	if *attrs != "" {
		userAttrs = strings.Split(*attrs, ",")
	}

	cred, err := credential.New(*id, *credType, pkHolder, *daysValid, *delegatable, *registryID, userAttrs, skIssuer, hasher, nil)
	if err != nil {
		metrics.RecordCredentialIssuance(false)
		return fmt.Errorf("issue: %w", err)
	}
	metrics.RecordCredentialIssuance(true)

	payload, err := json.MarshalIndent(cred.Export(), "", "  ")
	if err != nil {
		return fmt.Errorf("issue: encoding credential: %w", err)
	}

	if *out == "" {
		fmt.Println(string(payload))
		return nil
	}
	return os.WriteFile(*out, payload, 0o644)
}
