// Package config loads server settings from defaults, an optional YAML file and the
// environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/messmate/pkg/logging"
)

type Config struct {
	// HTTP Server
	Port       int    `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`

	// Database
	DBPath string `yaml:"db_path"`

	// Auth
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
	LoginRatePerSec float64       `yaml:"login_rate_per_sec"`
	LoginBurst      int           `yaml:"login_burst"`

	// Observability
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Port:            8080,
		CORSOrigin:      "*",
		DBPath:          "./data/messmate.db",
		TokenTTL:        24 * time.Hour,
		LoginRatePerSec: 1,
		LoginBurst:      5,
		LogLevel:        "info",
		MetricsEnabled:  true,
	}
}

// Load reads .env (if present), then CONFIG_FILE (if set), then environment
// variables over the defaults. The result is not validated.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	var problems []string
	lookup := func(key string, apply func(string) error) {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return
		}
		if err := apply(v); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", key, err))
		}
	}

	lookup("PORT", func(v string) (err error) { c.Port, err = strconv.Atoi(v); return })
	lookup("CORS_ORIGIN", func(v string) error { c.CORSOrigin = v; return nil })
	lookup("DB_PATH", func(v string) error { c.DBPath = v; return nil })
	lookup("JWT_SECRET", func(v string) error { c.JWTSecret = v; return nil })
	lookup("TOKEN_TTL", func(v string) (err error) { c.TokenTTL, err = time.ParseDuration(v); return })
	lookup("LOGIN_RATE_PER_SEC", func(v string) (err error) { c.LoginRatePerSec, err = strconv.ParseFloat(v, 64); return })
	lookup("LOGIN_BURST", func(v string) (err error) { c.LoginBurst, err = strconv.Atoi(v); return })
	lookup("LOG_LEVEL", func(v string) error { c.LogLevel = v; return nil })
	lookup("METRICS_ENABLED", func(v string) (err error) { c.MetricsEnabled, err = strconv.ParseBool(v); return })

	if len(problems) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.Port < 1 || c.Port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}
	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	}
	if len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT secret must be at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid token TTL %s: must be positive", c.TokenTTL))
	}
	if c.LoginRatePerSec <= 0 {
		errors = append(errors, fmt.Sprintf("invalid login rate %v: must be positive", c.LoginRatePerSec))
	}
	if c.LoginBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid login burst %d: must be at least 1", c.LoginBurst))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
