package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(env map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func validWebConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.API.BaseURL = "http://api.local:5452"
	cfg.Web.PublicURL = "https://tiernow.example"
	return cfg
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Empty(t, cfg.API.BaseURL)
	assert.Empty(t, cfg.Web.PublicURL)
	assert.NoError(t, cfg.ValidateAPI())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiernow.yaml")
	yamlDoc := `
server:
  port: ":9000"
api:
  base_url: http://from-file:5452
  timeout: 3s
web:
  public_url: https://file.example
rate_limit:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	t.Setenv("TIERNOW_PUBLIC_URL", "https://env.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Port)
	assert.Equal(t, "http://from-file:5452", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "https://env.example", cfg.Web.PublicURL)
	assert.False(t, cfg.RateLimit.Enabled)
	// untouched defaults survive a sparse file
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := NewDefaultConfig()
	err := cfg.applyEnv(mapLookup(map[string]string{
		"TIERNOW_API_URL":            "http://api",
		"TIERNOW_API_TIMEOUT":        "250ms",
		"TIERNOW_TRACING_ENABLED":    "true",
		"TIERNOW_RATE_LIMIT_ENABLED": "0",
		"TIERNOW_STORAGE_DRIVER":     "minio",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://api", cfg.API.BaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.API.Timeout)
	assert.True(t, cfg.Tracing.Enabled)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "minio", cfg.Storage.Driver)
}

func TestApplyEnv_StorageAndTracing(t *testing.T) {
	cfg := NewDefaultConfig()
	err := cfg.applyEnv(mapLookup(map[string]string{
		"TIERNOW_STORAGE_ENDPOINT":     "s3.internal:9000",
		"TIERNOW_STORAGE_REGION":       "eu-west-1",
		"TIERNOW_STORAGE_USE_SSL":      "true",
		"TIERNOW_TRACING_OUTPUT_FILE":  "/var/log/tiernow/spans.json",
		"TIERNOW_TRACING_SERVICE_NAME": "tiernow-api",
		"TIERNOW_SERVER_READ_TIMEOUT":  "5s",
		"TIERNOW_RATE_LIMIT_RPS":       "0.5",
		"TIERNOW_RATE_LIMIT_BURST":     "3",
		"TIERNOW_RATE_LIMIT_TTL":       "1m",
	}))
	require.NoError(t, err)

	assert.Equal(t, "s3.internal:9000", cfg.Storage.Endpoint)
	assert.Equal(t, "eu-west-1", cfg.Storage.Region)
	assert.True(t, cfg.Storage.UseSSL)
	assert.Equal(t, "/var/log/tiernow/spans.json", cfg.Tracing.OutputFile)
	assert.Equal(t, "tiernow-api", cfg.Tracing.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 0.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 3, cfg.RateLimit.Burst)
	assert.Equal(t, time.Minute, cfg.RateLimit.TTL)
}

func TestApplyEnv_BadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "Bad duration", env: map[string]string{"TIERNOW_API_TIMEOUT": "soon"}},
		{name: "Bad bool", env: map[string]string{"TIERNOW_TRACING_ENABLED": "maybe"}},
		{name: "Bad use_ssl", env: map[string]string{"TIERNOW_STORAGE_USE_SSL": "yes please"}},
		{name: "Bad rps", env: map[string]string{"TIERNOW_RATE_LIMIT_RPS": "fast"}},
		{name: "Bad burst", env: map[string]string{"TIERNOW_RATE_LIMIT_BURST": "2.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDefaultConfig().applyEnv(mapLookup(tt.env))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidateWeb(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "Valid", mutate: func(c *Config) {}},
		{name: "Missing API URL", mutate: func(c *Config) { c.API.BaseURL = "" }, wantErr: true},
		{name: "Missing public URL", mutate: func(c *Config) { c.Web.PublicURL = "" }, wantErr: true},
		{name: "Relative API URL", mutate: func(c *Config) { c.API.BaseURL = "/api" }, wantErr: true},
		{name: "Non-HTTP scheme", mutate: func(c *Config) { c.Web.PublicURL = "ftp://tiernow.example" }, wantErr: true},
		{name: "Query on public URL", mutate: func(c *Config) { c.Web.PublicURL = "https://tiernow.example?a=b" }, wantErr: true},
		{name: "Zero timeout", mutate: func(c *Config) { c.API.Timeout = 0 }, wantErr: true},
		{name: "Zero burst", mutate: func(c *Config) { c.RateLimit.Burst = 0 }, wantErr: true},
		{name: "Zero burst when disabled", mutate: func(c *Config) {
			c.RateLimit.Enabled = false
			c.RateLimit.Burst = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validWebConfig()
			tt.mutate(cfg)
			err := cfg.ValidateWeb()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAPI(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Database.Driver = "postgres"
	assert.ErrorIs(t, cfg.ValidateAPI(), ErrInvalidConfig)

	cfg = NewDefaultConfig()
	cfg.Storage.Driver = "minio"
	assert.ErrorIs(t, cfg.ValidateAPI(), ErrInvalidConfig)

	cfg.Storage.Endpoint = "garage:3900"
	assert.NoError(t, cfg.ValidateAPI())
}

func TestTrimBase(t *testing.T) {
	assert.Equal(t, "https://tiernow.example", TrimBase("https://tiernow.example/"))
	assert.Equal(t, "https://tiernow.example/app", TrimBase("https://tiernow.example/app//"))
	assert.Equal(t, "https://tiernow.example", TrimBase("https://tiernow.example"))
}
