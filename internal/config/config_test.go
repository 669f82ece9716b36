package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8082, cfg.Server.Port)
	assert.Equal(t, "criticality", cfg.Pattern.ClusterPolicy)
	assert.Equal(t, 60, cfg.Pattern.DefaultWindowMinutes)
	assert.Equal(t, "sqlite", cfg.History.Backend)
	assert.Equal(t, 90, cfg.History.RetentionDays)
	assert.True(t, cfg.Cache.EnableCaching)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.Empty(t, cfg.Validate(), "defaults must validate clean")
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			field:  "server.port",
		},
		{
			name:   "unknown cluster policy",
			mutate: func(c *Config) { c.Pattern.ClusterPolicy = "vibes" },
			field:  "pattern.cluster_policy",
		},
		{
			name:   "unknown history backend",
			mutate: func(c *Config) { c.History.Backend = "postgres" },
			field:  "history.backend",
		},
		{
			name:   "sqlite without a path",
			mutate: func(c *Config) { c.History.SQLitePath = "" },
			field:  "history.sqlite_path",
		},
		{
			name:   "zero retention",
			mutate: func(c *Config) { c.History.RetentionDays = 0 },
			field:  "history.retention_days",
		},
		{
			name:   "caching enabled with no ttl",
			mutate: func(c *Config) { c.Cache.TTLSeconds = 0 },
			field:  "cache.ttl_seconds",
		},
		{
			name:   "non-positive rate",
			mutate: func(c *Config) { c.RateLimit.RequestsPerSecond = 0 },
			field:  "ratelimit.requests_per_second",
		},
		{
			name:   "audit enabled with no path",
			mutate: func(c *Config) { c.Audit.Path = "" },
			field:  "audit.path",
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
			field:  "logging.level",
		},
		{
			name:   "unknown log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
			field:  "logging.format",
		},
		{
			name:   "tls enabled without cert",
			mutate: func(c *Config) { c.Server.TLSEnabled = true },
			field:  "server.tls_cert_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			errs := cfg.Validate()
			require.NotEmpty(t, errs)

			found := false
			for _, err := range errs {
				if verr, ok := err.(*ValidationError); ok && verr.Field == tt.field {
					found = true
				}
			}
			assert.True(t, found, "expected an error for field %s, got %v", tt.field, errs)
		})
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()

	mgr, err := NewConfigManager(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.NoError(t, mgr.Load(ctx))
	require.NoError(t, mgr.Validate(ctx))

	cfg := mgr.Get(ctx)
	assert.Equal(t, 8082, cfg.Server.Port)
	assert.Equal(t, "criticality", cfg.Pattern.ClusterPolicy)
}

func TestLoad_YAMLOverrides(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9090
pattern:
  cluster_policy: threshold
  default_window_minutes: 30
history:
  backend: memory
cache:
  enable_caching: false
logging:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	mgr, err := NewConfigManager(path)
	require.NoError(t, err)
	require.NoError(t, mgr.Load(ctx))
	require.NoError(t, mgr.Validate(ctx))

	cfg := mgr.Get(ctx)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "threshold", cfg.Pattern.ClusterPolicy)
	assert.Equal(t, 30, cfg.Pattern.DefaultWindowMinutes)
	assert.Equal(t, "memory", cfg.History.Backend)
	assert.False(t, cfg.Cache.EnableCaching)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)

	// Unset keys keep their defaults.
	assert.Equal(t, 90, cfg.History.RetentionDays)
	assert.Equal(t, 300, cfg.Cache.TTLSeconds)
}

func TestLoad_EnvOverrides(t *testing.T) {
	ctx := context.Background()

	t.Setenv("CITYPULSE_SQLITE_PATH", "/tmp/citypulse-test.db")
	t.Setenv("CITYPULSE_CLUSTER_POLICY", "threshold")

	mgr, err := NewConfigManager(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.NoError(t, mgr.Load(ctx))

	cfg := mgr.Get(ctx)
	assert.Equal(t, "/tmp/citypulse-test.db", cfg.History.SQLitePath)
	assert.Equal(t, "threshold", cfg.Pattern.ClusterPolicy)
}

func TestReload_PicksUpFileChanges(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))

	mgr, err := NewConfigManager(path)
	require.NoError(t, err)
	require.NoError(t, mgr.Load(ctx))
	assert.Equal(t, 9090, mgr.Get(ctx).Server.Port)

	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9191\n"), 0o644))
	require.NoError(t, mgr.Reload(ctx))
	assert.Equal(t, 9191, mgr.Get(ctx).Server.Port)
}
