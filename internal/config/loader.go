package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config from raw YAML bytes, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (PREFD_SERVER_PORT, PREFD_LOGGING_LEVEL, ...)
//  2. YAML content
//  3. Built-in defaults
//
// Environment variables are uppercased with a PREFD_ prefix; the first
// underscore after the prefix separates section from field:
//
//	PREFD_SERVER_PORT              -> server.port
//	PREFD_SERVER_SHUTDOWN_TIMEOUT  -> server.shutdown_timeout
//	PREFD_ADAPTATION_LEARNING_RATE -> adaptation.learning_rate
func Load(yamlBytes []byte) (*Config, error) {
	k := koanf.New(".")

	if len(yamlBytes) > 0 {
		if err := k.Load(rawbytes.Provider(yamlBytes), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if err := k.Load(env.Provider("PREFD_", ".", func(s string) string {
		// PREFD_SERVER_SHUTDOWN_TIMEOUT -> server.shutdown_timeout:
		// split on the first underscore only, field names keep theirs.
		lower := strings.ToLower(strings.TrimPrefix(s, "PREFD_"))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadWithFile loads configuration from a YAML file, then environment
// variables. A missing file is not an error; defaults plus environment
// apply.
func LoadWithFile(configPath string) (*Config, error) {
	var content []byte
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
		} else {
			content = data
		}
	}
	return Load(content)
}
