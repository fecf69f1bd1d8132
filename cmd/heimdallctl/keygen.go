package main

import (
	"flag"
	"fmt"
	"os"

	"heimdall/internal/eddsa"
)

func runKeygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	out := fs.String("out", "", "output path for the generated signing key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("keygen: -out is required")
	}

	sk, err := eddsa.GenerateKey()
	if err != nil {
		return fmt.Errorf("keygen: %w", err)
	}
	if err := os.WriteFile(*out, sk.Bytes(), 0o600); err != nil {
		return fmt.Errorf("keygen: writing key: %w", err)
	}
	fmt.Printf("wrote signing key to %s (public key x=%s y=%s)\n", *out, sk.Public().X(), sk.Public().Y())
	return nil
}
