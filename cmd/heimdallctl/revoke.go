package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"heimdall/internal/eddsa"
	"heimdall/pkg/config"
	"heimdall/pkg/metrics"
	"heimdall/revocation"
)

func loadOrCreateRegistry(path string, sk *eddsa.PrivateKey) (*revocation.Registry, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		reg, err := revocation.New(sk, hasher)
		if err != nil {
			return nil, err
		}
		metrics.SetRevocationRegistrySize(revocation.LeafCount)
		return reg, nil
	}
	if err != nil {
		return nil, err
	}

	var doc revocation.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decoding registry: %w", err)
	}
	reg, err := revocation.ImportRegistry(doc, sk, hasher)
	if err != nil {
		return nil, err
	}
	metrics.SetRevocationRegistrySize(revocation.LeafCount)
	return reg, nil
}

func saveRegistry(path string, reg *revocation.Registry) error {
	payload, err := json.MarshalIndent(reg.Export(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func runRevoke(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("revoke", flag.ExitOnError)
	registryPath := fs.String("registry", cfg.RevocationRegistryPath, "path to the registry state file")
	issuerPath := fs.String("issuer", "", "path to the registry owner's signing key (omit for an unsigned registry)")
	id := fs.Uint64("id", 0, "credential id to toggle")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var sk *eddsa.PrivateKey
	if *issuerPath != "" {
		var err error
		sk, err = loadIssuerKey(*issuerPath)
		if err != nil {
			return fmt.Errorf("revoke: %w", err)
		}
	}

	reg, err := loadOrCreateRegistry(*registryPath, sk)
	if err != nil {
		return fmt.Errorf("revoke: %w", err)
	}

	if err := reg.Update(*id); err != nil {
		metrics.RecordRevocationUpdate(false)
		return fmt.Errorf("revoke: %w", err)
	}
	metrics.RecordRevocationUpdate(true)

	if err := saveRegistry(*registryPath, reg); err != nil {
		return fmt.Errorf("revoke: saving registry: %w", err)
	}

	revoked, err := reg.IsRevoked(*id)
	if err != nil {
		return fmt.Errorf("revoke: %w", err)
	}
	fmt.Printf("credential %d is now revoked=%v (root=%s)\n", *id, revoked, reg.Root())
	return nil
}

func runStatus(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	registryPath := fs.String("registry", cfg.RevocationRegistryPath, "path to the registry state file")
	id := fs.Uint64("id", 0, "credential id to check")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reg, err := loadOrCreateRegistry(*registryPath, nil)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	revoked, err := reg.IsRevoked(*id)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	fmt.Printf("credential %d revoked=%v\n", *id, revoked)
	return nil
}
