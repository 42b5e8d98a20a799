// Package config loads branchd's runtime configuration from environment
// variables and an optional YAML bootstrap-list file.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds everything the controller and its components need to start.
type Config struct {
	MasterKey       string
	ChainPrivateKey string
	RegistryAddress string
	RPCURL          string
	BindAddr        string
	WorkspaceRoot   string
	DataDir         string
	BackendURL      string
	BootstrapFile   string

	LogLevel string
	LogJSON  bool
}

// Load builds a Config from the process environment, applying defaults for
// everything that isn't strictly required to boot. MasterKey and
// ChainPrivateKey have no defaults: PutSecret and decrypting stored
// secrets fail without a master key (CheckSecrets lists key names only
// and needs none), and without a signing key every chain call, Lookup
// included, fails with UnavailableError. Load does not reject their
// absence itself.
func Load() (*Config, error) {
	cfg := &Config{
		MasterKey:       os.Getenv("MASTER_KEY"),
		ChainPrivateKey: os.Getenv("CHAIN_PRIVATE_KEY"),
		RegistryAddress: os.Getenv("REGISTRY_ADDRESS"),
		RPCURL:          getenvDefault("RPC_URL", ""),
		BindAddr:        getenvDefault("BIND_ADDR", ":8080"),
		WorkspaceRoot:   getenvDefault("WORKSPACE_ROOT", "./workspaces"),
		DataDir:         getenvDefault("DATA_DIR", "./data"),
		BackendURL:      os.Getenv("BACKEND_URL"),
		BootstrapFile:   os.Getenv("BOOTSTRAP_FILE"),
		LogLevel:        getenvDefault("LOG_LEVEL", "info"),
	}

	if v := os.Getenv("LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("parsing LOG_JSON: %w", err)
		}
		cfg.LogJSON = b
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC_URL is required")
	}
	if cfg.RegistryAddress == "" {
		return nil, fmt.Errorf("REGISTRY_ADDRESS is required")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
