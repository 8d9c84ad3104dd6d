// Package config loads volhours settings from defaults, an optional YAML file,
// a .env file and VOLHOURS_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Database selects and locates the session store
type Database struct {
	Driver string `yaml:"driver" env:"VOLHOURS_DB_DRIVER"` // sqlite or postgres
	DSN    string `yaml:"dsn" env:"VOLHOURS_DB_DSN"`
}

// HTTP configures the API server
type HTTP struct {
	Addr            string        `yaml:"addr" env:"VOLHOURS_HTTP_ADDR"`
	RateLimitRPS    int           `yaml:"rate_limit_rps" env:"VOLHOURS_RATE_LIMIT_RPS"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" env:"VOLHOURS_RATE_LIMIT_BURST"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"VOLHOURS_SHUTDOWN_TIMEOUT"`
}

// Auth configures bearer token signing
type Auth struct {
	JWTSecret string        `yaml:"jwt_secret" env:"VOLHOURS_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"VOLHOURS_TOKEN_TTL"`
}

// Log configures the logrus logger
type Log struct {
	Level  string `yaml:"level" env:"VOLHOURS_LOG_LEVEL"`
	Format string `yaml:"format" env:"VOLHOURS_LOG_FORMAT"` // text or json
}

// CLI holds defaults for the command line tool
type CLI struct {
	User string `yaml:"user" env:"VOLHOURS_USER"` // email the volunteer commands act as
}

// Config is the full application configuration
type Config struct {
	Database Database `yaml:"database"`
	HTTP     HTTP     `yaml:"http"`
	Auth     Auth     `yaml:"auth"`
	Log      Log      `yaml:"log"`
	CLI      CLI      `yaml:"cli"`
}

// Default returns the configuration used when nothing else is set
func Default() Config {
	return Config{
		Database: Database{
			Driver: "sqlite",
			DSN:    defaultSQLitePath(),
		},
		HTTP: HTTP{
			Addr:            ":5050",
			RateLimitRPS:    20,
			RateLimitBurst:  40,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: Auth{
			TokenTTL: 30 * 24 * time.Hour,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. path may be empty; envFile may point at a
// missing file, which is ignored.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	// Only variables that are present override; defaults live in Default()
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("failed to decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with
func (c Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q (use sqlite or postgres)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn must be set")
	}
	if c.HTTP.RateLimitRPS < 0 || c.HTTP.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	return nil
}

// defaultSQLitePath returns ~/.volhours/volhours.db, or a relative file when
// the home directory is unknown
func defaultSQLitePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "volhours.db"
	}
	return filepath.Join(homeDir, ".volhours", "volhours.db")
}
