// Package config loads heimdallctl's runtime configuration from
// environment variables, following the getEnv-with-default idiom the
// rest of this module's backends use.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the paths and parameters a presentation variant's
// Artifacts, and the ambient logging/metrics setup, are built from.
type Config struct {
	// Development selects zap's console encoder; false uses the JSON
	// production encoder.
	Development bool

	// IssuerPrivateKeyPath points at a file holding the issuer's
	// signing key material.
	IssuerPrivateKeyPath string

	// RevocationRegistryPath points at the persisted revocation
	// registry state, if any.
	RevocationRegistryPath string

	// AttributeCircuitDir, RangeCircuitDir, PolygonCircuitDir and
	// DelegationCircuitDir each point at a directory containing that
	// variant's circuit.wasm, proving.zkey and verification_key.json.
	AttributeCircuitDir  string
	RangeCircuitDir      string
	PolygonCircuitDir    string
	DelegationCircuitDir string

	// MetricsAddr, if non-empty, is the address a host binary should
	// serve metrics.Handler() on.
	MetricsAddr string
}

// Load reads Config from environment variables, falling back to
// sensible defaults for local development.
func Load() *Config {
	return &Config{
		Development:            getEnvBool("HEIMDALL_DEV", false),
		IssuerPrivateKeyPath:   getEnv("HEIMDALL_ISSUER_KEY_PATH", "./keys/issuer.key"),
		RevocationRegistryPath: getEnv("HEIMDALL_REVOCATION_PATH", "./state/revocation.json"),
		AttributeCircuitDir:    getEnv("HEIMDALL_ATTRIBUTE_CIRCUIT_DIR", "./circuits/attribute"),
		RangeCircuitDir:        getEnv("HEIMDALL_RANGE_CIRCUIT_DIR", "./circuits/range"),
		PolygonCircuitDir:      getEnv("HEIMDALL_POLYGON_CIRCUIT_DIR", "./circuits/polygon"),
		DelegationCircuitDir:   getEnv("HEIMDALL_DELEGATION_CIRCUIT_DIR", "./circuits/delegation"),
		MetricsAddr:            getEnv("HEIMDALL_METRICS_ADDR", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// CircuitArtifactPaths are the three files a presentation variant's
// Artifacts is loaded from.
type CircuitArtifactPaths struct {
	WASM            string
	Zkey            string
	VerificationKey string
}

// Paths resolves dir into its three expected artifact file paths.
func (c *Config) Paths(dir string) CircuitArtifactPaths {
	return CircuitArtifactPaths{
		WASM:            fmt.Sprintf("%s/circuit.wasm", dir),
		Zkey:            fmt.Sprintf("%s/proving.zkey", dir),
		VerificationKey: fmt.Sprintf("%s/verification_key.json", dir),
	}
}
