// Package config provides the process-wide default configuration consulted
// by clients when neither their settings nor the per-call options supply a
// value. It is an injected collaborator with explicit initialization so tests
// can substitute deterministic values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultsFile is the optional YAML file consulted by Load.
	DefaultsFile = "uniclient.yaml"

	// EnvPrefix namespaces the environment variables consulted by Load,
	// e.g. UNICLIENT_MAX_RETRIES and UNICLIENT_MAX_DELAY.
	EnvPrefix = "UNICLIENT_"

	// Legacy environment variables honored for compatibility with the
	// backoff tooling this library replaces. Values are plain integers;
	// the delay is expressed in seconds.
	EnvLegacyTries = "BACKOFF_DEFAULT_TRIES"
	EnvLegacyDelay = "BACKOFF_DEFAULT_DELAY"
)

// Defaults holds the process-wide retry defaults. The zero value disables
// retries, matching the hard-coded fallback of the configuration resolver.
type Defaults struct {
	MaxRetries int           `koanf:"max_retries"`
	MaxDelay   time.Duration `koanf:"max_delay"`
}

// Load resolves the process-wide defaults from multiple sources with
// priority:
//  1. UNICLIENT_* environment variables (highest)
//  2. Legacy BACKOFF_DEFAULT_* environment variables
//  3. The optional uniclient.yaml file
//  4. Hard-coded zero defaults (lowest)
func Load() (*Defaults, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"max_retries": 0,
		"max_delay":   time.Duration(0),
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// The YAML file is optional; ignore a missing file.
	if _, err := os.Stat(DefaultsFile); err == nil {
		if err := k.Load(file.Provider(DefaultsFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", DefaultsFile, err)
		}
	}

	if err := loadLegacyEnv(k); err != nil {
		return nil, err
	}

	if err := k.Load(envprovider.Provider(EnvPrefix, ".", envKeyTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var d Defaults
	if err := k.Unmarshal("", &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal defaults: %w", err)
	}

	if err := Validate(&d); err != nil {
		return nil, err
	}

	return &d, nil
}

// Validate rejects defaults with negative values.
func Validate(d *Defaults) error {
	if d.MaxRetries < 0 {
		return fmt.Errorf("invalid defaults: max_retries cannot be negative (got %d)", d.MaxRetries)
	}
	if d.MaxDelay < 0 {
		return fmt.Errorf("invalid defaults: max_delay cannot be negative (got %v)", d.MaxDelay)
	}
	return nil
}

// envKeyTransform maps UNICLIENT_MAX_RETRIES to max_retries.
func envKeyTransform(s string) string {
	s = s[len(EnvPrefix):]
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// loadLegacyEnv layers the BACKOFF_DEFAULT_* variables, which predate the
// UNICLIENT_* namespace and express the delay as whole seconds.
func loadLegacyEnv(k *koanf.Koanf) error {
	legacy := map[string]any{}

	if v := os.Getenv(EnvLegacyTries); v != "" {
		tries, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvLegacyTries, v, err)
		}
		legacy["max_retries"] = tries
	}

	if v := os.Getenv(EnvLegacyDelay); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvLegacyDelay, v, err)
		}
		legacy["max_delay"] = time.Duration(seconds) * time.Second
	}

	if len(legacy) == 0 {
		return nil
	}

	if err := k.Load(confmap.Provider(legacy, "."), nil); err != nil {
		return fmt.Errorf("failed to load legacy environment variables: %w", err)
	}
	return nil
}
