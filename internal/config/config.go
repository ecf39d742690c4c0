// Package config loads and validates the application configuration: a YAML
// file overlaid with environment variables. The object is mutated during
// single-threaded boot, then frozen; structural changes after the freeze are
// an error.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

var appNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// Duration wraps time.Duration so YAML values like "10s" parse. Bare
// numbers are taken as seconds.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML accepts either a duration string or a number of seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw interface{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
		return nil
	case int:
		*d = Duration(time.Duration(v) * time.Second)
		return nil
	case float64:
		*d = Duration(time.Duration(v * float64(time.Second)))
		return nil
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
}

// supported database drivers; anything else is a load-time diagnostic.
var supportedDrivers = map[string]bool{"postgres": true}

// AppConfig identifies the application.
type AppConfig struct {
	Name        string `yaml:"name" env:"WEBCORE_APP_NAME"`
	Environment string `yaml:"environment" env:"WEBCORE_ENV"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr" env:"WEBCORE_ADDR"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"WEBCORE_LOG_LEVEL"`
	Format string `yaml:"format" env:"WEBCORE_LOG_FORMAT"`
}

// I18nConfig configures the translation catalog.
type I18nConfig struct {
	DefaultLocale string `yaml:"default_locale" env:"WEBCORE_DEFAULT_LOCALE"`
}

// CORSConfig gates and configures the CORS stage.
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AuthConfig gates and configures the JWT auth stage.
type AuthConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Secret    string   `yaml:"-" env:"WEBCORE_AUTH_SECRET"`
	SkipPaths []string `yaml:"skip_paths"`
}

// RateLimitConfig gates and configures the rate limiting stage.
type RateLimitConfig struct {
	Enabled           bool   `yaml:"enabled"`
	RequestsPerSecond int    `yaml:"requests_per_second"`
	Burst             int    `yaml:"burst"`
	Store             string `yaml:"store"` // "local" or "redis"
	FailOpen          bool   `yaml:"fail_open"`
}

// MetricsConfig gates the Prometheus stage.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MiddlewareConfig carries the per-stage toggles the application feeds into
// stage conditions when it assembles the pipeline.
type MiddlewareConfig struct {
	CORS      CORSConfig      `yaml:"cors"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// DatabaseConfig configures the optional storage bootstrap.
type DatabaseConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Driver         string        `yaml:"driver"`
	DSN            string   `yaml:"-" env:"WEBCORE_DATABASE_DSN"`
	MaxOpenConns   int      `yaml:"max_open_conns"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
	Migrate        bool     `yaml:"migrate"`
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"WEBCORE_REDIS_ADDR"`
	Password string `yaml:"-" env:"WEBCORE_REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
}

// Config is the application configuration object.
type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	I18n       I18nConfig       `yaml:"i18n"`
	Middleware MiddlewareConfig `yaml:"middleware"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Paths      Paths            `yaml:"paths"`

	frozen atomic.Bool
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		App:     AppConfig{Name: "webcore", Environment: "development"},
		Server:  ServerConfig{Addr: ":8080", ReadTimeout: Duration(10 * time.Second), WriteTimeout: Duration(30 * time.Second), ShutdownTimeout: Duration(15 * time.Second)},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		I18n:    I18nConfig{DefaultLocale: "en"},
		Middleware: MiddlewareConfig{
			CORS:      CORSConfig{Enabled: true, AllowedOrigins: []string{"*"}},
			RateLimit: RateLimitConfig{Enabled: true, RequestsPerSecond: 100, Burst: 200, Store: "local"},
			Metrics:   MetricsConfig{Enabled: true},
		},
		Database: DatabaseConfig{Driver: "postgres", MaxOpenConns: 10, ConnectTimeout: Duration(5 * time.Second)},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Paths:    DefaultPaths("."),
	}
	return cfg
}

// Load reads config/webcore.yaml under the working directory.
func Load() (*Config, error) {
	return LoadFromPath(filepath.Join("config", "webcore.yaml"))
}

// LoadFromPath reads the YAML file at path, overlays environment variables,
// fills defaults and validates.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	// Leave paths empty until the file is read so leaves the file omits are
	// derived from the file's root, not the default root.
	cfg.Paths = Paths{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filepath.Base(path), err)
	}

	if err := cfg.overlayEnv(); err != nil {
		return nil, err
	}
	cfg.Paths.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the conventional config file, falling back to the
// default configuration (with env overlay) when the file is absent.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		cfg = Default()
		_ = cfg.overlayEnv()
	}
	return cfg
}

func (c *Config) overlayEnv() error {
	if err := envdecode.Decode(c); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return fmt.Errorf("decode environment: %w", err)
	}
	return nil
}

// Validate surfaces user-correctable mistakes as diagnostics at load time.
func (c *Config) Validate() error {
	if !appNamePattern.MatchString(c.App.Name) {
		return fmt.Errorf("invalid application name %q: must start with a letter and contain only lowercase letters, digits, '-' and '_'", c.App.Name)
	}
	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Server.Addr, err)
	}
	if c.Database.Enabled && !supportedDrivers[c.Database.Driver] {
		return fmt.Errorf("unknown database driver %q: supported drivers are [postgres]", c.Database.Driver)
	}
	if rl := c.Middleware.RateLimit; rl.Enabled {
		if rl.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limit requests_per_second must be positive, got %d", rl.RequestsPerSecond)
		}
		if rl.Store != "local" && rl.Store != "redis" {
			return fmt.Errorf("unknown rate limit store %q: supported stores are [local redis]", rl.Store)
		}
	}
	if c.Middleware.Auth.Enabled && c.Middleware.Auth.Secret == "" {
		return fmt.Errorf("auth enabled but WEBCORE_AUTH_SECRET is not set")
	}
	return nil
}

// Freeze ends the mutable boot phase. Structural mutations guarded by
// CheckMutable fail afterwards.
func (c *Config) Freeze() {
	c.frozen.Store(true)
}

// Frozen reports whether Freeze has been called.
func (c *Config) Frozen() bool {
	return c.frozen.Load()
}

// CheckMutable returns an error once the configuration is frozen. Boot-time
// code that restructures the application calls this before mutating.
func (c *Config) CheckMutable() error {
	if c.Frozen() {
		return fmt.Errorf("configuration is frozen: structural changes are only allowed during boot")
	}
	return nil
}
