package msdsim

import (
	"fmt"

	"github.com/arloliu/fuda"
)

// LoadConfig reads a YAML or JSON file, applies struct-tag defaults and
// environment overrides, then validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := fuda.LoadFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}

	return &cfg, nil
}

// ParseConfig is LoadConfig for in-memory YAML or JSON.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := fuda.LoadBytes(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns the configuration used when no file is given,
// with environment overrides applied.
func DefaultConfig() (*Config, error) {
	cfg := &Config{}
	if err := fuda.SetDefaults(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := fuda.LoadEnv(cfg); err != nil {
		return nil, fmt.Errorf("apply env: %w", err)
	}

	return cfg, nil
}
