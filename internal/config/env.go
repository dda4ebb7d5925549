package config

import (
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/typedstrings/internal/foundation/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TYPEDSTRINGS_"

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env and .env.local when present. Variables already set in the process
// environment win.
func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load environment file", "file", name, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "file", name)
	}
}

// applyEnv overrides configuration values with TYPEDSTRINGS_* variables.
func applyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid environment override").Fatal().Build()
	}
	return nil
}
