package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// contextKey is the key type used to store values in cli.Context
type contextKey string

const (
	ConfigKey  contextKey = "config"
	ContextKey contextKey = "context"
	LoggerKey  contextKey = "logger"
)

// Config represents the CLI configuration
type Config struct {
	CurrentContext string              `json:"currentContext,omitempty"`
	Contexts       map[string]*Context `json:"contexts,omitempty"`
}

// Context represents a configuration context
type Context struct {
	// Core settings
	Name       string `json:"name,omitempty"`
	RPCURL     string `json:"rpcUrl,omitempty"`
	ChainID    uint64 `json:"chainId,omitempty"`
	FeeCapGwei uint64 `json:"feeCapGwei,omitempty"` // 0 selects the default cap

	// ECDSA Signer configuration (mutually exclusive)
	ECDSAPrivateKey  string `json:"ecdsaPrivateKey,omitempty"`  // Hex-encoded private key
	KeystorePath     string `json:"keystorePath,omitempty"`     // Path to keystore file
	KeystorePassword string `json:"keystorePassword,omitempty"` // Keystore password
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".keyfob")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{
				Contexts: make(map[string]*Context),
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}

	return &cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetCurrentContext returns the current context
func GetCurrentContext() (*Context, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	if cfg.CurrentContext == "" {
		return nil, fmt.Errorf("no current context set")
	}

	ctx, exists := cfg.Contexts[cfg.CurrentContext]
	if !exists {
		return nil, fmt.Errorf("current context '%s' not found", cfg.CurrentContext)
	}

	return ctx, nil
}

// LoadEnv loads a .env file. A missing default .env is not an error.
func LoadEnv(envPath string) error {
	if envPath != "" {
		return godotenv.Load(envPath)
	}
	_ = godotenv.Load()
	return nil
}

// ApplyEnvOverrides layers environment variables over a context. Explicit
// config values give way to the environment so one-off runs can redirect a
// context without editing it.
func (c *Context) ApplyEnvOverrides() {
	if val := os.Getenv("KEYFOB_RPC_URL"); val != "" {
		c.RPCURL = val
	}
	if val := os.Getenv("KEYFOB_CHAIN_ID"); val != "" {
		if id, err := strconv.ParseUint(val, 10, 64); err == nil {
			c.ChainID = id
		}
	}
	if val := os.Getenv("KEYFOB_PRIVATE_KEY"); val != "" {
		c.ECDSAPrivateKey = val
	}
}

// ToMap converts context to a map for display
func (c *Context) ToMap() map[string]interface{} {
	m := make(map[string]interface{})

	if c.Name != "" {
		m["name"] = c.Name
	}
	if c.RPCURL != "" {
		m["rpc-url"] = c.RPCURL
	}
	if c.ChainID != 0 {
		m["chain-id"] = c.ChainID
	}
	if c.FeeCapGwei != 0 {
		m["fee-cap-gwei"] = c.FeeCapGwei
	}

	// Add signer info without echoing secrets
	if c.ECDSAPrivateKey != "" {
		m["signer"] = "ecdsa-private-key"
	}
	if c.KeystorePath != "" {
		m["signer"] = "keystore"
		m["keystore-path"] = c.KeystorePath
	}

	return m
}
