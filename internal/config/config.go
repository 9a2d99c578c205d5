// Package config loads sofictl settings from an optional TOML file, an
// optional .env file and SOFI_* environment variables, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Modes.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Credential sources.
const (
	CredentialsEnv     = "env"
	CredentialsSession = "session"
)

// Store types.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// DefaultBaseURL is the public backend API root.
const DefaultBaseURL = "https://test.sofi-assistant.com/api"

// Config is the resolved configuration.
type Config struct {
	BaseURL   string
	Mode      string
	Timeout   time.Duration
	MaxRPS    float64
	Proxy     string
	UserAgent string
	Insecure  bool

	// CredentialsSource selects env or session. Empty derives it from Mode.
	CredentialsSource string
	EnvFile           string

	Store StoreConfig

	WatchSchedule string
}

// StoreConfig selects the local settings store.
type StoreConfig struct {
	Type     string
	Path     string
	RedisURL string
}

// fileConfig mirrors the TOML layout.
type fileConfig struct {
	BaseURL   string  `toml:"base_url"`
	Mode      string  `toml:"mode"`
	Timeout   string  `toml:"timeout"`
	MaxRPS    float64 `toml:"max_rps"`
	Proxy     string  `toml:"proxy"`
	UserAgent string  `toml:"user_agent"`
	Insecure  bool    `toml:"insecure"`

	Credentials struct {
		Source  string `toml:"source"`
		EnvFile string `toml:"env_file"`
	} `toml:"credentials"`

	Store struct {
		Type     string `toml:"type"`
		Path     string `toml:"path"`
		RedisURL string `toml:"redis_url"`
	} `toml:"store"`

	Watch struct {
		Schedule string `toml:"schedule"`
	} `toml:"watch"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL:       DefaultBaseURL,
		Mode:          ModeDevelopment,
		Timeout:       30 * time.Second,
		EnvFile:       ".env",
		Store:         StoreConfig{Type: StoreSQLite, Path: defaultStorePath()},
		WatchSchedule: "@every 5m",
	}
}

// DefaultPath is the config file read when none is given explicitly.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sofictl", "config.toml")
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "sofictl.db"
	}
	return filepath.Join(dir, "sofictl", "settings.db")
}

// Load builds the configuration. An explicit path must exist; with an empty
// path DefaultPath is read if present.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	// godotenv.Load never overrides variables that are already set.
	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", cfg.EnvFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.CredentialsSource == "" {
		cfg.CredentialsSource = CredentialsEnv
		if cfg.Production() {
			cfg.CredentialsSource = CredentialsSession
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile overrides cfg with the non-zero values of the TOML file.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	if fc.BaseURL != "" {
		c.BaseURL = fc.BaseURL
	}
	if fc.Mode != "" {
		c.Mode = fc.Mode
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("config: %s: timeout: %w", path, err)
		}
		c.Timeout = d
	}
	if fc.MaxRPS != 0 {
		c.MaxRPS = fc.MaxRPS
	}
	if fc.Proxy != "" {
		c.Proxy = fc.Proxy
	}
	if fc.UserAgent != "" {
		c.UserAgent = fc.UserAgent
	}
	if fc.Insecure {
		c.Insecure = true
	}
	if fc.Credentials.Source != "" {
		c.CredentialsSource = fc.Credentials.Source
	}
	if fc.Credentials.EnvFile != "" {
		c.EnvFile = fc.Credentials.EnvFile
	}
	if fc.Store.Type != "" {
		c.Store.Type = fc.Store.Type
	}
	if fc.Store.Path != "" {
		c.Store.Path = fc.Store.Path
	}
	if fc.Store.RedisURL != "" {
		c.Store.RedisURL = fc.Store.RedisURL
	}
	if fc.Watch.Schedule != "" {
		c.WatchSchedule = fc.Watch.Schedule
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.BaseURL = getEnv("SOFI_BASE_URL", c.BaseURL)
	c.Mode = getEnv("SOFI_MODE", c.Mode)
	c.Proxy = getEnv("SOFI_PROXY", c.Proxy)
	c.UserAgent = getEnv("SOFI_USER_AGENT", c.UserAgent)
	c.Insecure = getEnvBool("SOFI_INSECURE", c.Insecure)
	c.CredentialsSource = getEnv("SOFI_CREDENTIALS_SOURCE", c.CredentialsSource)
	c.Store.Type = getEnv("SOFI_STORE", c.Store.Type)
	c.Store.Path = getEnv("SOFI_STORE_PATH", c.Store.Path)
	c.Store.RedisURL = getEnv("SOFI_REDIS_URL", c.Store.RedisURL)
	c.WatchSchedule = getEnv("SOFI_WATCH_SCHEDULE", c.WatchSchedule)

	var err error
	if c.Timeout, err = getEnvDuration("SOFI_TIMEOUT", c.Timeout); err != nil {
		return err
	}
	if c.MaxRPS, err = getEnvFloat("SOFI_MAX_RPS", c.MaxRPS); err != nil {
		return err
	}
	return nil
}

// Production reports whether diagnostics are suppressed.
func (c *Config) Production() bool {
	return c.Mode == ModeProduction
}

// Validate checks enumerated values and the base URL.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeDevelopment, ModeProduction:
	default:
		return fmt.Errorf("config: mode must be %q or %q, got %q", ModeDevelopment, ModeProduction, c.Mode)
	}

	switch c.CredentialsSource {
	case "", CredentialsEnv, CredentialsSession:
	default:
		return fmt.Errorf("config: credentials source must be %q or %q, got %q", CredentialsEnv, CredentialsSession, c.CredentialsSource)
	}

	switch c.Store.Type {
	case StoreSQLite, StoreMemory:
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("config: store type %q requires a redis url", StoreRedis)
		}
	default:
		return fmt.Errorf("config: store type must be sqlite, redis or memory, got %q", c.Store.Type)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("config: base url must be an absolute http(s) URL, got %q", c.BaseURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxRPS < 0 {
		return fmt.Errorf("config: max_rps must not be negative, got %g", c.MaxRPS)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
