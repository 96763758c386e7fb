// Package config centralizes all application configuration into typed structs.
//
// Go Learning Note — Configuration Management:
// Configuration is layered here, lowest priority first:
//  1. Struct literals with defaults (NewDefaultConfig)
//  2. An optional YAML file, decoded with "gopkg.in/yaml.v3"
//  3. Environment variables prefixed with TIERNOW_
//
// Each layer only overwrites what it sets, so a YAML file can be sparse and a
// container can override one value through its environment. The resulting
// *Config is built once in main and passed into constructors. Nothing below
// cmd/ reads the environment directly.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure so callers can tell a bad
// configuration from an I/O problem.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the top-level configuration container. The web process reads
// Server, API, Web and RateLimit; the API process reads Server, Database and
// Storage. Log and Tracing apply to both.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	API       APIConfig       `yaml:"api"`
	Web       WebConfig       `yaml:"web"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
//
// Go Learning Note — time.Duration:
// yaml.v3 decodes durations written as strings ("15s", "250ms") straight into
// time.Duration fields, so the YAML stays readable and the Go side never has
// to guess units.
type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// APIConfig describes the tierlist API as seen by the web redirector.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"` // e.g. https://api.tiernow.example
	Timeout time.Duration `yaml:"timeout"`  // bound on the creation request
}

// WebConfig describes the public site the browser is redirected to.
type WebConfig struct {
	PublicURL string `yaml:"public_url"` // e.g. https://tiernow.example
}

// DatabaseConfig selects the tierlist repository.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "memory" or "sqlite"
	Path   string `yaml:"path"`
}

// StorageConfig selects the image object store. The Minio fields are only
// read when Driver is "minio".
type StorageConfig struct {
	Driver          string `yaml:"driver"` // "memory" or "minio"
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	UseSSL          bool   `yaml:"use_ssl"`
}

// RateLimitConfig throttles new-tierlist page loads per client IP. Every such
// load creates a record in the API, so an unthrottled crawler fills the
// database.
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	TTL               time.Duration `yaml:"ttl"`
}

// TracingConfig enables the OpenTelemetry stdout exporter.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	OutputFile  string `yaml:"output_file"` // empty means stdout
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Development bool   `yaml:"development"`
	Level       string `yaml:"level"`
}

// NewDefaultConfig returns a Config populated with sensible defaults. The two
// base URLs have no default: a redirect to a guessed host is worse than
// refusing to start.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		API: APIConfig{
			Timeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "memory",
			Path:   "./data.db",
		},
		Storage: StorageConfig{
			Driver: "memory",
			Bucket: "tiernow",
			Region: "garage",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 1,
			Burst:             5,
			TTL:               10 * time.Minute,
		},
		Tracing: TracingConfig{
			ServiceName: "tiernow",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when path
// is empty), and the process environment. It does not validate; each process
// calls the Validate method that matches what it serves.
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// lookupFunc matches os.LookupEnv so tests can feed a map instead of mutating
// the real environment.
type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		}
		*dst = d
		return nil
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		}
		*dst = b
		return nil
	}
	number := func(key string, parse func(string) error) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		if err := parse(v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		}
		return nil
	}

	str("TIERNOW_PORT", &c.Server.Port)
	str("TIERNOW_API_URL", &c.API.BaseURL)
	str("TIERNOW_PUBLIC_URL", &c.Web.PublicURL)
	str("TIERNOW_DATABASE_DRIVER", &c.Database.Driver)
	str("TIERNOW_DATABASE_PATH", &c.Database.Path)
	str("TIERNOW_STORAGE_DRIVER", &c.Storage.Driver)
	str("TIERNOW_STORAGE_ENDPOINT", &c.Storage.Endpoint)
	str("TIERNOW_STORAGE_ACCESS_KEY_ID", &c.Storage.AccessKeyID)
	str("TIERNOW_STORAGE_SECRET_ACCESS_KEY", &c.Storage.SecretAccessKey)
	str("TIERNOW_STORAGE_BUCKET", &c.Storage.Bucket)
	str("TIERNOW_STORAGE_REGION", &c.Storage.Region)
	str("TIERNOW_TRACING_SERVICE_NAME", &c.Tracing.ServiceName)
	str("TIERNOW_TRACING_OUTPUT_FILE", &c.Tracing.OutputFile)
	str("TIERNOW_LOG_LEVEL", &c.Log.Level)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"TIERNOW_SERVER_READ_TIMEOUT", &c.Server.ReadTimeout},
		{"TIERNOW_SERVER_WRITE_TIMEOUT", &c.Server.WriteTimeout},
		{"TIERNOW_API_TIMEOUT", &c.API.Timeout},
		{"TIERNOW_RATE_LIMIT_TTL", &c.RateLimit.TTL},
	}
	for _, d := range durations {
		if err := dur(d.key, d.dst); err != nil {
			return err
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"TIERNOW_STORAGE_USE_SSL", &c.Storage.UseSSL},
		{"TIERNOW_RATE_LIMIT_ENABLED", &c.RateLimit.Enabled},
		{"TIERNOW_TRACING_ENABLED", &c.Tracing.Enabled},
		{"TIERNOW_LOG_DEVELOPMENT", &c.Log.Development},
	}
	for _, b := range bools {
		if err := boolean(b.key, b.dst); err != nil {
			return err
		}
	}

	if err := number("TIERNOW_RATE_LIMIT_RPS", func(v string) (err error) {
		c.RateLimit.RequestsPerSecond, err = strconv.ParseFloat(v, 64)
		return err
	}); err != nil {
		return err
	}
	return number("TIERNOW_RATE_LIMIT_BURST", func(v string) (err error) {
		c.RateLimit.Burst, err = strconv.Atoi(v)
		return err
	})
}

// ValidateWeb checks the settings the redirector cannot run without.
func (c *Config) ValidateWeb() error {
	if err := validateBaseURL("api.base_url", c.API.BaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("web.public_url", c.Web.PublicURL); err != nil {
		return err
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("%w: api.timeout must be positive", ErrInvalidConfig)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("%w: rate_limit needs positive requests_per_second and burst", ErrInvalidConfig)
	}
	return nil
}

// ValidateAPI checks the storage and database selection of the API process.
func (c *Config) ValidateAPI() error {
	switch c.Database.Driver {
	case "memory":
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for sqlite", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database.driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	switch c.Storage.Driver {
	case "memory":
	case "minio":
		if c.Storage.Endpoint == "" || c.Storage.Bucket == "" {
			return fmt.Errorf("%w: storage.endpoint and storage.bucket are required for minio", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage.driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	return nil
}

func validateBaseURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidConfig, name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute http(s) URL, got %q", ErrInvalidConfig, name, raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("%w: %s must not carry a query or fragment", ErrInvalidConfig, name)
	}
	return nil
}

// TrimBase strips trailing slashes so "{base}/{path}" joins never double up.
func TrimBase(raw string) string {
	return strings.TrimRight(raw, "/")
}
