// Package config loads service configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the full service configuration.
type Config struct {
	Port   int    `env:"GUILDGRID_PORT" envDefault:"8080"`
	DBPath string `env:"GUILDGRID_DB" envDefault:"data/guildgrid.db"`

	// AdminKey is the bearer token for supervisor endpoints. Empty disables
	// them.
	AdminKey string `env:"GUILDGRID_ADMIN_KEY"`

	// SeedPath points at the YAML roster bootstrap file.
	SeedPath string `env:"GUILDGRID_SEED" envDefault:"roster.yaml"`

	// TerrainSeed fixes the decorative ground map.
	TerrainSeed int64 `env:"GUILDGRID_TERRAIN_SEED" envDefault:"42"`

	// CORSOrigins is a comma-separated allow-list of frontend origins.
	// Localhost dev servers are always allowed.
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	// AnthropicKey enables the AI insight endpoints. Empty falls back to
	// deterministic heuristics.
	AnthropicKey string `env:"ANTHROPIC_API_KEY"`

	LogLevel string `env:"GUILDGRID_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
