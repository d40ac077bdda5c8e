package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if MURSHID_CONFIG is set
//  3. env (prefix MURSHID_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("MURSHID_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: MURSHID_ADDR, MURSHID_QUEUE_SIZE, ...
	// Map env keys like MURSHID_QUEUE_SIZE -> queue_size (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("MURSHID_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "murshid_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the service cannot run with.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Alpha < 0 || c.Alpha > 1:
		return fmt.Errorf("%w: alpha must be in [0,1], got %v", ErrInvalidConfig, c.Alpha)
	case c.DefaultTopK < 1:
		return fmt.Errorf("%w: default_top_k must be positive", ErrInvalidConfig)
	case c.MaxTopK < c.DefaultTopK:
		return fmt.Errorf("%w: max_top_k must be >= default_top_k", ErrInvalidConfig)
	case len(c.CareerThresholds) != 3:
		return fmt.Errorf("%w: career_thresholds needs exactly three ascending boundaries", ErrInvalidConfig)
	}
	if c.DiversityGrouping != "skill_category" && c.DiversityGrouping != "department" {
		return fmt.Errorf("%w: unknown diversity_grouping %q", ErrInvalidConfig, c.DiversityGrouping)
	}
	for i := 1; i < len(c.CareerThresholds); i++ {
		if c.CareerThresholds[i] <= c.CareerThresholds[i-1] {
			return fmt.Errorf("%w: career_thresholds must be ascending", ErrInvalidConfig)
		}
	}
	return nil
}
