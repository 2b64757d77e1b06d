// Package config reads server settings from the environment, after loading
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	HTTPAddr    string   `env:"HTTP_ADDR"    envDefault:":8080"`
	DBDriver    string   `env:"DB_DRIVER"    envDefault:"memory"`
	DatabaseURL string   `env:"DATABASE_URL"`
	SQLitePath  string   `env:"SQLITE_PATH"  envDefault:"rps.sqlite3"`
	LogLevel    string   `env:"LOG_LEVEL"    envDefault:"info"`
	LogFormat   string   `env:"LOG_FORMAT"   envDefault:"json"`
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`

	QueueTTL          time.Duration `env:"QUEUE_TTL"          envDefault:"60s"`
	DisconnectTimeout time.Duration `env:"DISCONNECT_TIMEOUT" envDefault:"10s"`
	WinScore          int           `env:"WIN_SCORE"          envDefault:"3"`
	MaxRounds         int           `env:"MAX_ROUNDS"         envDefault:"5"`
}

// Load reads envFile when it exists (variables already set win) and parses
// the environment into a validated Config.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}

	if c.QueueTTL <= 0 {
		return fmt.Errorf("QUEUE_TTL must be positive, got %s", c.QueueTTL)
	}
	if c.DisconnectTimeout <= 0 {
		return fmt.Errorf("DISCONNECT_TIMEOUT must be positive, got %s", c.DisconnectTimeout)
	}
	if c.WinScore < 1 {
		return fmt.Errorf("WIN_SCORE must be at least 1, got %d", c.WinScore)
	}
	if c.MaxRounds < 1 {
		return fmt.Errorf("MAX_ROUNDS must be at least 1, got %d", c.MaxRounds)
	}
	return nil
}
