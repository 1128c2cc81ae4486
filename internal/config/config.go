// Package config loads process settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	appConfigDirName = "survival-arcade"
	dbFileName       = "arcade.db"
	secretsFileName  = "fallback_secrets.json"
)

// Config holds every environment-driven setting.
type Config struct {
	// DBPath is the SQLite file. Empty means the app data directory.
	DBPath string `env:"ARCADE_DB_PATH"`

	// APIEnabled starts the loopback JSON API next to the desktop shell.
	APIEnabled bool `env:"ARCADE_API_ENABLED" envDefault:"false"`
	APIPort    int  `env:"ARCADE_API_PORT" envDefault:"17890"`

	GeneratorAPIKey  string        `env:"ARCADE_GENERATOR_API_KEY"`
	GeneratorURL     string        `env:"ARCADE_GENERATOR_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	GeneratorModel   string        `env:"ARCADE_GENERATOR_MODEL" envDefault:"gemini-2.0-flash"`
	GeneratorTimeout time.Duration `env:"ARCADE_GENERATOR_TIMEOUT" envDefault:"10s"`

	// ShopCatalog is an optional YAML file replacing the built-in catalog.
	ShopCatalog string `env:"ARCADE_SHOP_CATALOG"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment, fills path defaults and validates.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(AppDataDir(), dbFileName)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges the parser cannot.
func (c Config) Validate() error {
	if c.APIPort < 1 || c.APIPort > 65535 {
		return fmt.Errorf("config: ARCADE_API_PORT out of range: %d", c.APIPort)
	}
	if c.GeneratorTimeout <= 0 {
		return fmt.Errorf("config: ARCADE_GENERATOR_TIMEOUT must be positive")
	}
	return nil
}

// SecretsPath is the credentials fallback file, next to the database.
func (c Config) SecretsPath() string {
	return filepath.Join(filepath.Dir(c.DBPath), secretsFileName)
}

// AppDataDir returns an OS-appropriate writable directory.
func AppDataDir() string {
	if d, err := os.UserConfigDir(); err == nil && d != "" {
		return filepath.Join(d, appConfigDirName)
	}
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, "."+appConfigDirName)
	}
	return "."
}
