package gate

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the deployment configuration for a gate and the engine behind
// it. The signing key is injected here, never generated: rotating it is a
// deliberate operator action that invalidates every live session.
type Config struct {
	SigningKey   string        `yaml:"signing_key"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	StoreTimeout time.Duration `yaml:"store_timeout"`
	Store        StoreConfig   `yaml:"store"`
}

// StoreConfig selects the persistence driver.
type StoreConfig struct {
	// Driver is one of "memory", "sqlite", "postgres".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// DefaultConfig returns a config with sane development defaults. The
// signing key has no default; deployments must set one.
func DefaultConfig() *Config {
	return &Config{
		SessionTTL:   24 * time.Hour,
		StoreTimeout: 5 * time.Second,
		Store: StoreConfig{
			Driver: "memory",
		},
	}
}

// LoadConfig reads a YAML config file, applying defaults for absent keys.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gate: read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("gate: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config for usability.
func (c *Config) Validate() error {
	if c.SigningKey == "" {
		return fmt.Errorf("gate: config: signing_key must be set")
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("gate: config: store.dsn required for driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("gate: config: unknown store driver %q", c.Store.Driver)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("gate: config: session_ttl must be positive")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("gate: config: store_timeout must be positive")
	}
	return nil
}
