package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds the process configuration. Values come from the environment,
// optionally seeded from a .env file.
type Config struct {
	DBPath       string `env:"FIELDSCHEMA_DB_PATH"`
	HTTPEnabled  bool   `env:"FIELDSCHEMA_HTTP_ENABLED,default=true"`
	HTTPPort     int    `env:"FIELDSCHEMA_HTTP_PORT,default=56234"`
	LogLevel     string `env:"LOG_LEVEL,default=info"`
	PageLimit    int    `env:"FIELDSCHEMA_PAGE_LIMIT,default=20"`
	MaxPageLimit int    `env:"FIELDSCHEMA_MAX_PAGE_LIMIT,default=100"`
}

// Load reads envFile (if it exists) into the environment and decodes Config.
// Variables already present in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env (%s): %w", envFile, err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode env: %w", err)
	}

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.DBPath = filepath.Join(home, ".fieldschema-mcp", "app.db")
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 20
	}
	if cfg.MaxPageLimit < cfg.PageLimit {
		cfg.MaxPageLimit = cfg.PageLimit
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid FIELDSCHEMA_HTTP_PORT %d", cfg.HTTPPort)
	}

	return &cfg, nil
}
