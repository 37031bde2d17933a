package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "CIRCUITSTASH_"

// Config is the root of configs/config.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Security SecurityConfig `yaml:"security"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	// Kind names the engine. Only "sqlite" is accepted.
	Kind        string `yaml:"kind"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"` // seconds
}

type APIConfig struct {
	Host           string           `yaml:"host"`
	Port           int              `yaml:"port"`
	Timeouts       APITimeoutConfig `yaml:"timeouts"`
	LoginRateLimit RateLimitConfig  `yaml:"login_rate_limit"`
}

// Addr is the listen address.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// APITimeoutConfig holds http.Server timeouts in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

func (t APITimeoutConfig) ReadTimeout() time.Duration  { return seconds(t.Read) }
func (t APITimeoutConfig) WriteTimeout() time.Duration { return seconds(t.Write) }
func (t APITimeoutConfig) IdleTimeout() time.Duration  { return seconds(t.Idle) }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// RateLimitConfig is the per-client token bucket applied to login.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

// SecurityConfig points at the signing secret and sets up the first admin.
// The secret itself never lives in this file.
type SecurityConfig struct {
	SecretFile string          `yaml:"secret_file"`
	TokenTTL   int             `yaml:"token_ttl"` // minutes
	SeedAdmin  SeedAdminConfig `yaml:"seed_admin"`
}

// TokenLifetime is TokenTTL as a duration.
func (c SecurityConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenTTL) * time.Minute
}

// SeedAdminConfig is the admin created when no accounts exist. An empty
// password means one is generated and printed once to stderr.
type SeedAdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// StorageConfig names the directories scanned by the asset reload.
type StorageConfig struct {
	ImagesDir     string `yaml:"images_dir"`
	DatasheetsDir string `yaml:"datasheets_dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults; unknown keys are an error)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: CIRCUITSTASH_SECTION_KEY
// For example: CIRCUITSTASH_DATABASE_PATH, CIRCUITSTASH_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Kind:        "sqlite",
			Path:        "./data/circuitstash.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host:     "0.0.0.0",
			Port:     8000,
			Timeouts: APITimeoutConfig{Read: 30, Write: 30, Idle: 60},
			LoginRateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 30,
				Burst:             5,
			},
		},
		Security: SecurityConfig{
			SecretFile: "./data/secrets/jwt.txt",
			TokenTTL:   30,
			SeedAdmin:  SeedAdminConfig{Username: "admin"},
		},
		Storage: StorageConfig{
			ImagesDir:     "./data/images",
			DatasheetsDir: "./data/datasheets",
		},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
	}
}

// envOverrides maps variable suffixes to the field they replace.
var envOverrides = []struct {
	name  string
	apply func(c *Config, v string) error
}{
	{"DATABASE_PATH", func(c *Config, v string) error { c.Database.Path = v; return nil }},
	{"API_HOST", func(c *Config, v string) error { c.API.Host = v; return nil }},
	{"API_PORT", func(c *Config, v string) error {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("not a port number: %q", v)
		}
		c.API.Port = port
		return nil
	}},
	{"SECRET_FILE", func(c *Config, v string) error { c.Security.SecretFile = v; return nil }},
	{"SEED_ADMIN_PASSWORD", func(c *Config, v string) error { c.Security.SeedAdmin.Password = v; return nil }},
	{"LOG_LEVEL", func(c *Config, v string) error { c.Logging.Level = v; return nil }},
}

// applyEnvOverrides copies every set, non-empty override into cfg.
func applyEnvOverrides(cfg *Config) error {
	for _, o := range envOverrides {
		v := os.Getenv(EnvPrefix + o.name)
		if v == "" {
			continue
		}
		if err := o.apply(cfg, v); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, o.name, err)
		}
	}
	return nil
}

// Validate reports every problem in c at once.
//
// Returns:
//   - error: nil when valid, otherwise every failed check joined with errors.Join
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Database.Kind == "sqlite", "database.kind %q is not supported (only sqlite)", c.Database.Kind)
	check(c.Database.Path != "", "database.path is required")
	check(c.Database.BusyTimeout >= 0, "database.busy_timeout must not be negative")

	check(c.API.Port >= 1 && c.API.Port <= 65535, "api.port %d is out of range 1-65535", c.API.Port)
	rl := c.API.LoginRateLimit
	check(!rl.Enabled || rl.RequestsPerMinute > 0, "api.login_rate_limit.requests_per_minute must be positive when enabled")

	check(c.Security.SecretFile != "", "security.secret_file is required (set %sSECRET_FILE)", EnvPrefix)
	check(c.Security.TokenTTL > 0, "security.token_ttl must be positive")
	check(c.Security.SeedAdmin.Username != "", "security.seed_admin.username is required")

	return errors.Join(errs...)
}
